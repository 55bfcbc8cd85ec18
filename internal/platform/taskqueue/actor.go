// Copyright (c) 2026 Libris. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package taskqueue

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff"
)

// Handler processes one message. A non-nil error hands the message back to
// the retry policy of its actor.
type Handler func(ctx context.Context, msg *Message) error

// Actor binds a handler to a queue together with its retry policy.
type Actor struct {
	Name  string
	Queue string

	// MaxRetries bounds the number of re-deliveries after the first attempt.
	MaxRetries int

	// RetryWhen decides whether a failure is retried. Nil retries every error.
	RetryWhen func(retries int, err error) bool

	// TimeLimit aborts a handler that runs longer. Zero disables the limit.
	TimeLimit time.Duration

	// MaxAge skips messages enqueued longer ago. Zero disables the limit.
	MaxAge time.Duration

	Handler Handler
}

// ErrTimeLimitExceeded is recorded when a handler outlives its actor's TimeLimit.
var ErrTimeLimitExceeded = errors.New("taskqueue: time limit exceeded")

func (a *Actor) validate() error {
	switch {
	case a.Name == "":
		return errors.New("taskqueue: actor name is required")
	case a.Queue == "":
		return errors.New("taskqueue: actor queue is required")
	case a.Handler == nil:
		return errors.New("taskqueue: actor handler is required")
	case a.MaxRetries < 0:
		return errors.New("taskqueue: actor max retries must not be negative")
	}
	return nil
}

func (a *Actor) shouldRetry(retries int, err error) bool {
	if retries >= a.MaxRetries {
		return false
	}
	if a.RetryWhen == nil {
		return true
	}
	return a.RetryWhen(retries, err)
}

// Backoff returns the delay before the given retry (1-based), growing
// exponentially from minDelay and capped at maxDelay, with 20% jitter.
func Backoff(minDelay, maxDelay time.Duration, retry int) time.Duration {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = minDelay
	policy.MaxInterval = maxDelay
	policy.Multiplier = 2
	policy.RandomizationFactor = 0.2
	policy.MaxElapsedTime = 0
	policy.Reset()

	delay := minDelay
	for i := 0; i < retry; i++ {
		delay = policy.NextBackOff()
	}

	if delay > maxDelay {
		delay = maxDelay
	}
	return delay
}
