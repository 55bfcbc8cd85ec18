// Copyright (c) 2026 Libris. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package taskqueue

import (
	"context"
	"errors"
	"time"
)

// ErrDeliveryGone reports a delivery that is no longer pending, usually
// because it was already settled.
var ErrDeliveryGone = errors.New("taskqueue: delivery no longer pending")

// Transport moves messages between producers and workers.
//
// [RedisTransport] is the production implementation; [MemoryTransport]
// keeps the same semantics in process for tests.
type Transport interface {
	// Publish makes msg available on its queue.
	Publish(ctx context.Context, msg *Message) error

	// Fetch claims up to count new deliveries for consumer. A positive block
	// waits that long for messages to arrive.
	Fetch(ctx context.Context, queue, consumer string, count int, block time.Duration) ([]Delivery, error)

	// Ack marks a delivery as done.
	Ack(ctx context.Context, delivery Delivery) error

	// Defer acknowledges the delivery and schedules delivery.Message again at due.
	Defer(ctx context.Context, delivery Delivery, due time.Time) error

	// DeadLetter acknowledges the delivery and stores delivery.Message as dead.
	DeadLetter(ctx context.Context, delivery Delivery) error

	// PromoteDue moves delayed messages whose due time is not after now back
	// to the ready queue and reports how many were moved.
	PromoteDue(ctx context.Context, queue string, now time.Time) (int, error)

	// Reclaim hands consumer up to count deliveries that stayed unacknowledged
	// for at least minIdle.
	Reclaim(ctx context.Context, queue, consumer string, minIdle time.Duration, count int) ([]Delivery, error)

	// Extend resets the idle time of a delivery consumer is still working on
	// so Reclaim does not hand it out again.
	Extend(ctx context.Context, consumer string, delivery Delivery) error
}

// Producer publishes messages through a [Transport].
type Producer struct {
	transport Transport
}

// NewProducer returns a Producer writing to transport.
func NewProducer(transport Transport) *Producer {
	return &Producer{transport: transport}
}

// Send encodes payload into a new message for actor on queue and publishes it.
func (p *Producer) Send(ctx context.Context, queue, actor string, payload any) (*Message, error) {
	msg, err := NewMessage(queue, actor, payload)
	if err != nil {
		return nil, err
	}

	if err := p.transport.Publish(ctx, msg); err != nil {
		return nil, err
	}

	return msg, nil
}
