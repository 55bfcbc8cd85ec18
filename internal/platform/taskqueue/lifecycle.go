// Copyright (c) 2026 Libris. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package taskqueue

import (
	"context"
	"log/slog"

	"github.com/looplab/fsm"

	"github.com/taibuivan/libris/internal/platform/metrics"
)

// # Message Lifecycle

// States a message passes through within one delivery.
const (
	StateQueued       = "queued"
	StateProcessing   = "processing"
	StateDone         = "done"
	StateRetrying     = "retrying"
	StateDeadLettered = "dead_lettered"
	StateExpired      = "expired"
)

// Events that move a message between states.
const (
	EventDeliver = "deliver"
	EventSucceed = "succeed"
	EventRetry   = "retry"
	EventBury    = "bury"
	EventExpire  = "expire"
)

// lifecycle tracks one delivery through the message state machine.
//
// A retried message starts over in queued on its next delivery.
type lifecycle struct {
	machine *fsm.FSM
}

func newLifecycle(msg *Message, logger *slog.Logger) *lifecycle {
	machine := fsm.NewFSM(
		StateQueued,
		fsm.Events{
			{Name: EventDeliver, Src: []string{StateQueued}, Dst: StateProcessing},
			{Name: EventSucceed, Src: []string{StateProcessing}, Dst: StateDone},
			{Name: EventRetry, Src: []string{StateProcessing}, Dst: StateRetrying},
			{Name: EventBury, Src: []string{StateQueued, StateProcessing}, Dst: StateDeadLettered},
			{Name: EventExpire, Src: []string{StateQueued}, Dst: StateExpired},
		},
		fsm.Callbacks{
			"enter_state": func(ctx context.Context, e *fsm.Event) {
				metrics.QueueTransition(msg.Queue, e.Dst)
				logger.DebugContext(ctx, "task_state_changed",
					slog.String("from", e.Src),
					slog.String("to", e.Dst),
					slog.Int("retries", msg.Retries),
				)
			},
		},
	)

	return &lifecycle{machine: machine}
}

// fire applies event. An invalid transition is a programming error in the worker.
func (l *lifecycle) fire(ctx context.Context, event string) error {
	return l.machine.Event(ctx, event)
}

func (l *lifecycle) current() string {
	return l.machine.Current()
}
