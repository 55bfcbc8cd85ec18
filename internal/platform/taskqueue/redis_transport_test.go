// Copyright (c) 2026 Libris. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package taskqueue_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/libris/internal/platform/constants"
	"github.com/taibuivan/libris/internal/platform/taskqueue"
)

func newRedisTransport(t *testing.T) (*taskqueue.RedisTransport, *redis.Client, *miniredis.Miniredis) {
	t.Helper()

	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr(), Protocol: 2})
	t.Cleanup(func() { _ = client.Close() })

	return taskqueue.NewRedisTransport(client), client, server
}

func pendingCount(t *testing.T, client *redis.Client, queue string) int64 {
	t.Helper()
	pending, err := client.XPending(context.Background(), taskqueue.StreamKey(queue), constants.QueueConsumerGroup).Result()
	require.NoError(t, err)
	return pending.Count
}

/*
TestRedisTransport_PublishFetchAck walks one message through the stream and
checks that acknowledging removes it from both the stream and the pending list.
*/
func TestRedisTransport_PublishFetchAck(t *testing.T) {
	ctx := context.Background()
	transport, client, _ := newRedisTransport(t)

	sent := send(t, transport, "post_notice", notice{Title: "Closed on Sunday"})

	fetched, err := transport.Fetch(ctx, "notices", "c1", 10, 0)
	require.NoError(t, err)
	require.Len(t, fetched, 1)
	assert.Equal(t, sent.ID, fetched[0].Message.ID)
	assert.Equal(t, "post_notice", fetched[0].Message.Actor)
	assert.NotEmpty(t, fetched[0].Receipt)

	var payload notice
	require.NoError(t, fetched[0].Message.Decode(&payload))
	assert.Equal(t, "Closed on Sunday", payload.Title)
	assert.EqualValues(t, 1, pendingCount(t, client, "notices"))

	require.NoError(t, transport.Ack(ctx, fetched[0]))

	assert.Zero(t, client.XLen(ctx, taskqueue.StreamKey("notices")).Val())
	assert.Zero(t, pendingCount(t, client, "notices"))
}

/*
TestRedisTransport_FetchEmptyDoesNotBlock returns at once for a zero block.
*/
func TestRedisTransport_FetchEmptyDoesNotBlock(t *testing.T) {
	transport, _, _ := newRedisTransport(t)

	started := time.Now()
	fetched, err := transport.Fetch(context.Background(), "notices", "c1", 10, 0)
	require.NoError(t, err)

	assert.Empty(t, fetched)
	assert.Less(t, time.Since(started), time.Second)
}

/*
TestRedisTransport_DeferAndPromote schedules a retry at a due time and
promotes it back to the stream exactly once.
*/
func TestRedisTransport_DeferAndPromote(t *testing.T) {
	ctx := context.Background()
	transport, client, _ := newRedisTransport(t)
	now := time.Date(2030, time.January, 2, 10, 0, 0, 0, time.UTC)

	sent := send(t, transport, "post_notice", notice{})
	fetched, err := transport.Fetch(ctx, "notices", "c1", 10, 0)
	require.NoError(t, err)
	require.Len(t, fetched, 1)

	fetched[0].Message.Retries = 1
	fetched[0].Message.LastError = "index unavailable"
	require.NoError(t, transport.Defer(ctx, fetched[0], now.Add(time.Minute)))

	assert.EqualValues(t, 1, client.ZCard(ctx, taskqueue.DelayKey("notices")).Val())
	assert.Zero(t, client.XLen(ctx, taskqueue.StreamKey("notices")).Val())
	assert.Zero(t, pendingCount(t, client, "notices"))

	promoted, err := transport.PromoteDue(ctx, "notices", now)
	require.NoError(t, err)
	assert.Zero(t, promoted)

	promoted, err = transport.PromoteDue(ctx, "notices", now.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, promoted)
	assert.Zero(t, client.ZCard(ctx, taskqueue.DelayKey("notices")).Val())

	promoted, err = transport.PromoteDue(ctx, "notices", now.Add(time.Hour))
	require.NoError(t, err)
	assert.Zero(t, promoted)

	refetched, err := transport.Fetch(ctx, "notices", "c1", 10, 0)
	require.NoError(t, err)
	require.Len(t, refetched, 1)
	assert.Equal(t, sent.ID, refetched[0].Message.ID)
	assert.Equal(t, 1, refetched[0].Message.Retries)
	assert.Equal(t, "index unavailable", refetched[0].Message.LastError)
}

/*
TestRedisTransport_PromoteDueKeepsNotYetDue leaves later retries in the delay set.
*/
func TestRedisTransport_PromoteDueKeepsNotYetDue(t *testing.T) {
	ctx := context.Background()
	transport, client, _ := newRedisTransport(t)
	now := time.Date(2030, time.January, 2, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		send(t, transport, "post_notice", notice{})
	}
	fetched, err := transport.Fetch(ctx, "notices", "c1", 10, 0)
	require.NoError(t, err)
	require.Len(t, fetched, 3)

	require.NoError(t, transport.Defer(ctx, fetched[0], now.Add(-time.Second)))
	require.NoError(t, transport.Defer(ctx, fetched[1], now))
	require.NoError(t, transport.Defer(ctx, fetched[2], now.Add(time.Hour)))

	promoted, err := transport.PromoteDue(ctx, "notices", now)
	require.NoError(t, err)

	assert.Equal(t, 2, promoted)
	assert.EqualValues(t, 2, client.XLen(ctx, taskqueue.StreamKey("notices")).Val())
	assert.EqualValues(t, 1, client.ZCard(ctx, taskqueue.DelayKey("notices")).Val())
}

/*
TestRedisTransport_PromoteDueFailureKeepsMember leaves the delayed entry in
place when it cannot be appended to the stream.
*/
func TestRedisTransport_PromoteDueFailureKeepsMember(t *testing.T) {
	ctx := context.Background()
	transport, client, _ := newRedisTransport(t)
	now := time.Now()

	require.NoError(t, client.ZAdd(ctx, taskqueue.DelayKey("broken"), redis.Z{
		Score:  float64(now.Add(-time.Minute).UnixMilli()),
		Member: `{"id":"m1","queue":"broken","actor":"post_notice"}`,
	}).Err())

	// A plain string where the stream belongs makes XADD fail with WRONGTYPE
	require.NoError(t, client.Set(ctx, taskqueue.StreamKey("broken"), "occupied", 0).Err())

	_, err := transport.PromoteDue(ctx, "broken", now)
	require.Error(t, err)

	assert.EqualValues(t, 1, client.ZCard(ctx, taskqueue.DelayKey("broken")).Val())
}

/*
TestRedisTransport_DeadLetter moves the message to the dead-letter stream and
settles the original entry.
*/
func TestRedisTransport_DeadLetter(t *testing.T) {
	ctx := context.Background()
	transport, client, _ := newRedisTransport(t)

	sent := send(t, transport, "post_notice", notice{})
	fetched, err := transport.Fetch(ctx, "notices", "c1", 10, 0)
	require.NoError(t, err)
	require.Len(t, fetched, 1)

	fetched[0].Message.LastError = "malformed payload"
	require.NoError(t, transport.DeadLetter(ctx, fetched[0]))

	assert.Zero(t, client.XLen(ctx, taskqueue.StreamKey("notices")).Val())
	assert.Zero(t, pendingCount(t, client, "notices"))

	dead, err := client.XRange(ctx, taskqueue.DeadLetterKey("notices"), "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, dead, 1)

	raw, _ := dead[0].Values["message"].(string)
	assert.Contains(t, raw, sent.ID)
	assert.Contains(t, raw, "malformed payload")
}

/*
TestRedisTransport_UndecodableEntry buries entries that are not messages and
still delivers the valid ones around them.
*/
func TestRedisTransport_UndecodableEntry(t *testing.T) {
	ctx := context.Background()
	transport, client, _ := newRedisTransport(t)

	require.NoError(t, client.XAdd(ctx, &redis.XAddArgs{
		Stream: taskqueue.StreamKey("notices"),
		Values: map[string]any{"message": "not a message"},
	}).Err())
	sent := send(t, transport, "post_notice", notice{})

	fetched, err := transport.Fetch(ctx, "notices", "c1", 10, 0)
	require.NoError(t, err)
	require.Len(t, fetched, 1)
	assert.Equal(t, sent.ID, fetched[0].Message.ID)

	dead, err := client.XRange(ctx, taskqueue.DeadLetterKey("notices"), "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, dead, 1)
	assert.Equal(t, "not a message", dead[0].Values["message"])
	assert.NotEmpty(t, dead[0].Values["error"])

	assert.EqualValues(t, 1, pendingCount(t, client, "notices"))
	assert.EqualValues(t, 1, client.XLen(ctx, taskqueue.StreamKey("notices")).Val())
}

/*
TestRedisTransport_ExistingGroup reuses a consumer group created elsewhere.
*/
func TestRedisTransport_ExistingGroup(t *testing.T) {
	ctx := context.Background()
	transport, client, _ := newRedisTransport(t)

	require.NoError(t, client.XGroupCreateMkStream(ctx, taskqueue.StreamKey("notices"), constants.QueueConsumerGroup, "0").Err())

	sent := send(t, transport, "post_notice", notice{})

	fetched, err := transport.Fetch(ctx, "notices", "c1", 10, 0)
	require.NoError(t, err)
	require.Len(t, fetched, 1)
	assert.Equal(t, sent.ID, fetched[0].Message.ID)
}

/*
TestRedisTransport_ReclaimAndExtend hands idle deliveries of a crashed
consumer to another one, skipping deliveries kept alive with Extend.
*/
func TestRedisTransport_ReclaimAndExtend(t *testing.T) {
	ctx := context.Background()
	transport, client, server := newRedisTransport(t)
	base := time.Date(2030, time.January, 2, 10, 0, 0, 0, time.UTC)
	server.SetTime(base)

	send(t, transport, "post_notice", notice{Title: "first"})
	send(t, transport, "post_notice", notice{Title: "second"})

	fetched, err := transport.Fetch(ctx, "notices", "crashed", 10, 0)
	require.NoError(t, err)
	require.Len(t, fetched, 2)

	reclaimed, err := transport.Reclaim(ctx, "notices", "rescuer", time.Hour, 10)
	require.NoError(t, err)
	assert.Empty(t, reclaimed, "nothing has been idle for an hour")

	server.SetTime(base.Add(2 * time.Hour))

	reclaimed, err = transport.Reclaim(ctx, "notices", "rescuer", time.Hour, 1)
	require.NoError(t, err)
	require.Len(t, reclaimed, 1)
	assert.Equal(t, fetched[0].Receipt, reclaimed[0].Receipt)
	assert.Equal(t, fetched[0].Message.ID, reclaimed[0].Message.ID)

	server.SetTime(base.Add(4 * time.Hour))
	require.NoError(t, transport.Extend(ctx, "crashed", fetched[1]))

	reclaimed, err = transport.Reclaim(ctx, "notices", "rescuer", time.Hour, 10)
	require.NoError(t, err)
	require.Len(t, reclaimed, 1)
	assert.Equal(t, fetched[0].Receipt, reclaimed[0].Receipt)

	require.NoError(t, transport.Ack(ctx, reclaimed[0]))
	assert.EqualValues(t, 1, pendingCount(t, client, "notices"))
	assert.ErrorIs(t, transport.Extend(ctx, "rescuer", reclaimed[0]), taskqueue.ErrDeliveryGone)
}

/*
TestRedisTransport_Worker runs a failing then succeeding actor end to end on
Redis: the retry is deferred, promoted by Pump and acknowledged.
*/
func TestRedisTransport_Worker(t *testing.T) {
	ctx := context.Background()
	transport, client, _ := newRedisTransport(t)
	clk := &clock{now: time.Now()}
	worker := newWorker(t, transport, clk)

	attempts := 0
	require.NoError(t, worker.Register(taskqueue.Actor{
		Name:       "post_notice",
		Queue:      "notices",
		MaxRetries: 3,
		Handler: func(context.Context, *taskqueue.Message) error {
			attempts++
			if attempts == 1 {
				return assert.AnError
			}
			return nil
		},
	}))

	send(t, transport, "post_notice", notice{})

	handled, err := worker.ProcessOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, handled)
	assert.EqualValues(t, 1, client.ZCard(ctx, taskqueue.DelayKey("notices")).Val())

	clk.Advance(time.Hour)
	promoted, err := worker.Pump(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, promoted)

	handled, err = worker.ProcessOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, handled)
	assert.Equal(t, 2, attempts)

	assert.Zero(t, client.XLen(ctx, taskqueue.StreamKey("notices")).Val())
	assert.Zero(t, client.ZCard(ctx, taskqueue.DelayKey("notices")).Val())
	assert.Zero(t, pendingCount(t, client, "notices"))
}
