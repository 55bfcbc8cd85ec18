// Copyright (c) 2026 Libris. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package taskqueue

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/libris/internal/platform/constants"
)

const (
	fieldMessage = "message"

	// promoteBatch bounds the delayed entries moved per PromoteDue call.
	promoteBatch = 100
)

// promoteScript moves due members of the delay set (KEYS[1]) onto the stream
// (KEYS[2]). XADD runs before ZREM so a failed append leaves the member in place.
var promoteScript = redis.NewScript(`
local due = redis.call('ZRANGEBYSCORE', KEYS[1], '-inf', ARGV[1], 'LIMIT', 0, ARGV[2])
for _, member in ipairs(due) do
	redis.call('XADD', KEYS[2], '*', ARGV[3], member)
	redis.call('ZREM', KEYS[1], member)
end
return #due
`)

// RedisTransport implements [Transport] with Redis Streams and a consumer group.
type RedisTransport struct {
	client *redis.Client
	group  string

	// groups records the streams whose consumer group is known to exist.
	groups sync.Map
}

// NewRedisTransport returns a transport sharing client with the rest of the process.
func NewRedisTransport(client *redis.Client) *RedisTransport {
	return &RedisTransport{client: client, group: constants.QueueConsumerGroup}
}

// StreamKey returns the ready stream of queue.
func StreamKey(queue string) string { return constants.RedisPrefixQueue + queue }

// DelayKey returns the sorted set holding delayed retries of queue.
func DelayKey(queue string) string { return StreamKey(queue) + ".XQ" }

// DeadLetterKey returns the dead-letter stream of queue.
func DeadLetterKey(queue string) string { return StreamKey(queue) + ".DQ" }

func (t *RedisTransport) Publish(ctx context.Context, msg *Message) error {
	encoded, err := encodeMessage(msg)
	if err != nil {
		return err
	}

	err = t.client.XAdd(ctx, &redis.XAddArgs{
		Stream: StreamKey(msg.Queue),
		Values: map[string]any{fieldMessage: encoded},
	}).Err()
	if err != nil {
		return fmt.Errorf("taskqueue: publish %s: %w", msg.ID, err)
	}
	return nil
}

func (t *RedisTransport) Fetch(ctx context.Context, queue, consumer string, count int, block time.Duration) ([]Delivery, error) {
	if err := t.ensureGroup(ctx, queue); err != nil {
		return nil, err
	}

	// go-redis sends BLOCK 0 (wait forever) for a zero duration
	if block <= 0 {
		block = -1
	}

	streams, err := t.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    t.group,
		Consumer: consumer,
		Streams:  []string{StreamKey(queue), ">"},
		Count:    int64(count),
		Block:    block,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("taskqueue: fetch %s: %w", queue, err)
	}

	var deliveries []Delivery
	for _, stream := range streams {
		batch, err := t.toDeliveries(ctx, queue, stream.Messages)
		if err != nil {
			return nil, err
		}
		deliveries = append(deliveries, batch...)
	}
	return deliveries, nil
}

func (t *RedisTransport) Ack(ctx context.Context, delivery Delivery) error {
	queue := delivery.Message.Queue

	_, err := t.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		t.settle(ctx, pipe, queue, delivery.Receipt)
		return nil
	})
	if err != nil {
		return fmt.Errorf("taskqueue: ack %s: %w", delivery.Message.ID, err)
	}
	return nil
}

func (t *RedisTransport) Defer(ctx context.Context, delivery Delivery, due time.Time) error {
	queue := delivery.Message.Queue

	encoded, err := encodeMessage(delivery.Message)
	if err != nil {
		return err
	}

	_, err = t.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZAdd(ctx, DelayKey(queue), redis.Z{Score: float64(due.UnixMilli()), Member: encoded})
		t.settle(ctx, pipe, queue, delivery.Receipt)
		return nil
	})
	if err != nil {
		return fmt.Errorf("taskqueue: defer %s: %w", delivery.Message.ID, err)
	}
	return nil
}

func (t *RedisTransport) DeadLetter(ctx context.Context, delivery Delivery) error {
	queue := delivery.Message.Queue

	encoded, err := encodeMessage(delivery.Message)
	if err != nil {
		return err
	}

	_, err = t.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.XAdd(ctx, &redis.XAddArgs{
			Stream: DeadLetterKey(queue),
			Values: map[string]any{fieldMessage: encoded},
		})
		t.settle(ctx, pipe, queue, delivery.Receipt)
		return nil
	})
	if err != nil {
		return fmt.Errorf("taskqueue: dead letter %s: %w", delivery.Message.ID, err)
	}
	return nil
}

/*
PromoteDue moves due entries from the delay set to the stream.

Several workers may pump the same queue. The move runs as one script, so each
member is published exactly once and never dropped between the two keys.
*/
func (t *RedisTransport) PromoteDue(ctx context.Context, queue string, now time.Time) (int, error) {
	keys := []string{DelayKey(queue), StreamKey(queue)}

	promoted, err := promoteScript.Run(ctx, t.client, keys, now.UnixMilli(), promoteBatch, fieldMessage).Int()
	if err != nil {
		return 0, fmt.Errorf("taskqueue: promote delayed %s: %w", queue, err)
	}
	return promoted, nil
}

func (t *RedisTransport) Reclaim(ctx context.Context, queue, consumer string, minIdle time.Duration, count int) ([]Delivery, error) {
	if err := t.ensureGroup(ctx, queue); err != nil {
		return nil, err
	}

	messages, _, err := t.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   StreamKey(queue),
		Group:    t.group,
		Consumer: consumer,
		MinIdle:  minIdle,
		Start:    "0-0",
		Count:    int64(count),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("taskqueue: reclaim %s: %w", queue, err)
	}

	return t.toDeliveries(ctx, queue, messages)
}

// Extend re-claims the pending entry for consumer with a zero idle time.
func (t *RedisTransport) Extend(ctx context.Context, consumer string, delivery Delivery) error {
	ids, err := t.client.XClaimJustID(ctx, &redis.XClaimArgs{
		Stream:   StreamKey(delivery.Message.Queue),
		Group:    t.group,
		Consumer: consumer,
		Messages: []string{delivery.Receipt},
	}).Result()
	if err != nil {
		return fmt.Errorf("taskqueue: extend %s: %w", delivery.Message.ID, err)
	}
	if len(ids) == 0 {
		return fmt.Errorf("taskqueue: extend %s: %w", delivery.Message.ID, ErrDeliveryGone)
	}
	return nil
}

// toDeliveries decodes stream entries. Undecodable entries are copied raw to
// the dead-letter stream and acknowledged so they are not fetched again.
func (t *RedisTransport) toDeliveries(ctx context.Context, queue string, entries []redis.XMessage) ([]Delivery, error) {
	deliveries := make([]Delivery, 0, len(entries))

	for _, entry := range entries {
		raw, _ := entry.Values[fieldMessage].(string)

		msg, err := decodeMessage(raw)
		if err != nil {
			_, pipeErr := t.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.XAdd(ctx, &redis.XAddArgs{
					Stream: DeadLetterKey(queue),
					Values: map[string]any{fieldMessage: raw, "error": err.Error()},
				})
				t.settle(ctx, pipe, queue, entry.ID)
				return nil
			})
			if pipeErr != nil {
				return nil, fmt.Errorf("taskqueue: bury undecodable entry %s: %w", entry.ID, pipeErr)
			}
			continue
		}

		deliveries = append(deliveries, Delivery{Message: msg, Receipt: entry.ID})
	}

	return deliveries, nil
}

func (t *RedisTransport) settle(ctx context.Context, pipe redis.Pipeliner, queue, receipt string) {
	pipe.XAck(ctx, StreamKey(queue), t.group, receipt)
	pipe.XDel(ctx, StreamKey(queue), receipt)
}

func (t *RedisTransport) ensureGroup(ctx context.Context, queue string) error {
	stream := StreamKey(queue)
	if _, ok := t.groups.Load(stream); ok {
		return nil
	}

	err := t.client.XGroupCreateMkStream(ctx, stream, t.group, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("taskqueue: create group on %s: %w", stream, err)
	}

	t.groups.Store(stream, struct{}{})
	return nil
}
