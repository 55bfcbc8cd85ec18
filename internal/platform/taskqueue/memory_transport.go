// Copyright (c) 2026 Libris. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package taskqueue

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"
)

type inflight struct {
	delivery  Delivery
	fetchedAt time.Time
}

type delayed struct {
	message *Message
	due     time.Time
}

// MemoryTransport is an in-process [Transport]. Messages are copied through
// the wire codec on every hop so handlers never share memory with producers.
type MemoryTransport struct {
	mu       sync.Mutex
	seq      int
	ready    map[string][]*Message
	inflight map[string]inflight
	delayed  map[string][]delayed
	dead     map[string][]*Message
	acked    int
}

// NewMemoryTransport returns an empty MemoryTransport.
func NewMemoryTransport() *MemoryTransport {
	return &MemoryTransport{
		ready:    make(map[string][]*Message),
		inflight: make(map[string]inflight),
		delayed:  make(map[string][]delayed),
		dead:     make(map[string][]*Message),
	}
}

func (t *MemoryTransport) Publish(_ context.Context, msg *Message) error {
	clone, err := cloneMessage(msg)
	if err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.ready[msg.Queue] = append(t.ready[msg.Queue], clone)
	return nil
}

// Fetch polls once more after block when the queue is empty.
func (t *MemoryTransport) Fetch(ctx context.Context, queue, _ string, count int, block time.Duration) ([]Delivery, error) {
	if block > 0 && t.Ready(queue) == 0 {
		timer := time.NewTimer(block)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			return nil, nil
		case <-timer.C:
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	pending := t.ready[queue]
	if count <= 0 || count > len(pending) {
		count = len(pending)
	}

	deliveries := make([]Delivery, 0, count)
	for _, msg := range pending[:count] {
		t.seq++
		delivery := Delivery{Message: msg, Receipt: strconv.Itoa(t.seq)}
		t.inflight[delivery.Receipt] = inflight{delivery: delivery, fetchedAt: time.Now()}
		deliveries = append(deliveries, delivery)
	}
	t.ready[queue] = pending[count:]

	return deliveries, nil
}

func (t *MemoryTransport) Ack(_ context.Context, delivery Delivery) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.settle(delivery)
}

func (t *MemoryTransport) Defer(_ context.Context, delivery Delivery, due time.Time) error {
	clone, err := cloneMessage(delivery.Message)
	if err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.settle(delivery); err != nil {
		return err
	}
	t.delayed[clone.Queue] = append(t.delayed[clone.Queue], delayed{message: clone, due: due})
	return nil
}

func (t *MemoryTransport) DeadLetter(_ context.Context, delivery Delivery) error {
	clone, err := cloneMessage(delivery.Message)
	if err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.settle(delivery); err != nil {
		return err
	}
	t.dead[clone.Queue] = append(t.dead[clone.Queue], clone)
	return nil
}

func (t *MemoryTransport) PromoteDue(_ context.Context, queue string, now time.Time) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	var (
		keep     []delayed
		promoted int
	)
	for _, entry := range t.delayed[queue] {
		if entry.due.After(now) {
			keep = append(keep, entry)
			continue
		}
		t.ready[queue] = append(t.ready[queue], entry.message)
		promoted++
	}
	t.delayed[queue] = keep

	return promoted, nil
}

func (t *MemoryTransport) Reclaim(_ context.Context, queue, _ string, minIdle time.Duration, count int) ([]Delivery, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	cutoff := time.Now().Add(-minIdle)

	var idle []Delivery
	for _, entry := range t.inflight {
		if entry.delivery.Message.Queue != queue || entry.fetchedAt.After(cutoff) {
			continue
		}
		idle = append(idle, entry.delivery)
	}

	// Oldest receipts first, like XAUTOCLAIM scanning from 0-0
	sort.Slice(idle, func(i, j int) bool { return receiptOrder(idle[i].Receipt) < receiptOrder(idle[j].Receipt) })
	if count > 0 && len(idle) > count {
		idle = idle[:count]
	}

	for _, delivery := range idle {
		t.inflight[delivery.Receipt] = inflight{delivery: delivery, fetchedAt: time.Now()}
	}
	return idle, nil
}

func (t *MemoryTransport) Extend(_ context.Context, _ string, delivery Delivery) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.inflight[delivery.Receipt]
	if !ok {
		return fmt.Errorf("taskqueue: extend %q: %w", delivery.Receipt, ErrDeliveryGone)
	}
	entry.fetchedAt = time.Now()
	t.inflight[delivery.Receipt] = entry
	return nil
}

// Ready returns the number of messages waiting on queue.
func (t *MemoryTransport) Ready(queue string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.ready[queue])
}

// Delayed returns copies of the messages scheduled for a retry on queue.
func (t *MemoryTransport) Delayed(queue string) []*Message {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]*Message, 0, len(t.delayed[queue]))
	for _, entry := range t.delayed[queue] {
		out = append(out, entry.message)
	}
	return out
}

// DeadLetters returns the dead-lettered messages of queue.
func (t *MemoryTransport) DeadLetters(queue string) []*Message {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]*Message(nil), t.dead[queue]...)
}

// Acked returns how many deliveries were settled in any way.
func (t *MemoryTransport) Acked() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.acked
}

// Inflight returns the number of deliveries not yet settled.
func (t *MemoryTransport) Inflight() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.inflight)
}

func (t *MemoryTransport) settle(delivery Delivery) error {
	if _, ok := t.inflight[delivery.Receipt]; !ok {
		return fmt.Errorf("taskqueue: unknown delivery %q", delivery.Receipt)
	}
	delete(t.inflight, delivery.Receipt)
	t.acked++
	return nil
}

func receiptOrder(receipt string) int {
	n, _ := strconv.Atoi(receipt)
	return n
}

func cloneMessage(msg *Message) (*Message, error) {
	encoded, err := encodeMessage(msg)
	if err != nil {
		return nil, err
	}
	return decodeMessage(encoded)
}
