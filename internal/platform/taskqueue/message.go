// Copyright (c) 2026 Libris. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package taskqueue is a durable, at-least-once task queue on top of Redis Streams.

Producers publish a [Message] for a named actor; a [Worker] consumes the
queue, runs the actor's handler and decides between acknowledging, retrying
with exponential backoff, or moving the message to the dead-letter stream.

Key Layout (per queue):

  - libris:queue:<queue>     Stream of ready messages (consumer group "workers").
  - libris:queue:<queue>.XQ  Sorted set of delayed retries, scored by due time (ms).
  - libris:queue:<queue>.DQ  Stream of dead-lettered messages.

Delivery Guarantees:

  - A message is acknowledged only after its handler returned.
  - Deliveries left pending by a crashed worker are reclaimed after the
    visibility timeout and processed again. A running handler's delivery
    is kept claimed by a heartbeat.
  - Handlers must therefore tolerate being run more than once.
*/
package taskqueue

import (
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/taibuivan/libris/pkg/uuidv7"
)

var codec = jsoniter.ConfigCompatibleWithStandardLibrary

// Message is the unit of work carried by the queue.
type Message struct {
	ID         string              `json:"id"`
	Queue      string              `json:"queue"`
	Actor      string              `json:"actor"`
	Payload    jsoniter.RawMessage `json:"payload"`
	Retries    int                 `json:"retries"`
	EnqueuedAt time.Time           `json:"enqueued_at"`
	LastError  string              `json:"last_error,omitempty"`
}

// NewMessage encodes payload and stamps a fresh UUIDv7 identifier.
func NewMessage(queue, actor string, payload any) (*Message, error) {
	raw, err := codec.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("taskqueue: encode payload for %s: %w", actor, err)
	}

	return &Message{
		ID:         uuidv7.New(),
		Queue:      queue,
		Actor:      actor,
		Payload:    raw,
		EnqueuedAt: time.Now().UTC(),
	}, nil
}

// Decode unmarshals the payload into target.
func (m *Message) Decode(target any) error {
	if err := codec.Unmarshal(m.Payload, target); err != nil {
		return fmt.Errorf("taskqueue: decode payload of message %s: %w", m.ID, err)
	}
	return nil
}

// Age returns how long ago the message was first enqueued.
func (m *Message) Age(now time.Time) time.Duration {
	return now.Sub(m.EnqueuedAt)
}

// Delivery is a message handed to one consumer. Receipt identifies the
// delivery to the transport (the stream entry ID for Redis).
type Delivery struct {
	Message *Message
	Receipt string
}

func encodeMessage(m *Message) (string, error) {
	data, err := codec.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("taskqueue: encode message %s: %w", m.ID, err)
	}
	return string(data), nil
}

func decodeMessage(data string) (*Message, error) {
	m := &Message{}
	if err := codec.UnmarshalFromString(data, m); err != nil {
		return nil, fmt.Errorf("taskqueue: decode message: %w", err)
	}
	return m, nil
}
