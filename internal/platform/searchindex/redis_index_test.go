// Copyright (c) 2026 Libris. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package searchindex

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ftStub answers FT.* commands in place of RediSearch and records their
// arguments. Every other command reaches the server.
type ftStub struct {
	mu    sync.Mutex
	calls [][]any
	reply any
	err   error
}

func (s *ftStub) DialHook(next redis.DialHook) redis.DialHook { return next }

func (s *ftStub) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		if !strings.HasPrefix(cmd.Name(), "ft.") {
			return next(ctx, cmd)
		}

		s.mu.Lock()
		defer s.mu.Unlock()

		s.calls = append(s.calls, cmd.Args())
		if s.err != nil {
			cmd.SetErr(s.err)
			return s.err
		}
		cmd.(*redis.Cmd).SetVal(s.reply)
		return nil
	}
}

func (s *ftStub) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return next
}

func (s *ftStub) lastCall() []any {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.calls) == 0 {
		return nil
	}
	return s.calls[len(s.calls)-1]
}

func newRedisIndex(t *testing.T) (*RedisIndex, *redis.Client, *ftStub) {
	t.Helper()

	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr(), Protocol: 2})
	t.Cleanup(func() { _ = client.Close() })

	stub := &ftStub{}
	client.AddHook(stub)

	return NewRedisIndex(client, "idx:books"), client, stub
}

/*
TestRedisIndex_UpsertReplacesHash writes folded fields and drops fields left
over from an earlier version of the hash.
*/
func TestRedisIndex_UpsertReplacesHash(t *testing.T) {
	ctx := context.Background()
	index, client, _ := newRedisIndex(t)

	key := index.Key("9788535910667")
	require.NoError(t, client.HSet(ctx, key, "legacy_field", "stale").Err())

	doc := Document{
		ISBN:            "9788535910667",
		Title:           "Memórias Póstumas",
		Authors:         []string{"Machado de Assis"},
		Categories:      []string{"Romance"},
		PublicationDate: "1881-01-01",
	}
	require.NoError(t, index.Upsert(ctx, doc))

	stored, err := client.HGetAll(ctx, key).Result()
	require.NoError(t, err)

	assert.NotContains(t, stored, "legacy_field")
	assert.Equal(t, "memorias postumas", stored[FieldTitle])
	assert.Equal(t, "machado de assis", stored[FieldAuthors])
	assert.Equal(t, "romance", stored[FieldCategories])
	assert.Equal(t, "1881-01-01", stored[FieldPublicationDate])

	var payload Document
	require.NoError(t, codec.UnmarshalFromString(stored[FieldPayload], &payload))
	assert.Equal(t, doc, payload)

	doc.Title = "Dom Casmurro"
	require.NoError(t, index.Upsert(ctx, doc))
	assert.Equal(t, "dom casmurro", client.HGet(ctx, key, FieldTitle).Val())
}

/*
TestRedisIndex_Delete removes the document and tolerates a missing one.
*/
func TestRedisIndex_Delete(t *testing.T) {
	ctx := context.Background()
	index, client, _ := newRedisIndex(t)

	require.NoError(t, index.Upsert(ctx, Document{ISBN: "9788535910667", Title: "Dom Casmurro"}))
	require.NoError(t, index.Delete(ctx, "9788535910667"))

	assert.Zero(t, client.Exists(ctx, index.Key("9788535910667")).Val())
	assert.NoError(t, index.Delete(ctx, "9788535910667"))
}

/*
TestRedisIndex_EnsureSchema sends the hash schema and treats an existing
index as success.
*/
func TestRedisIndex_EnsureSchema(t *testing.T) {
	ctx := context.Background()
	index, _, stub := newRedisIndex(t)

	stub.reply = "OK"
	require.NoError(t, index.EnsureSchema(ctx))

	args := stub.lastCall()
	require.NotEmpty(t, args)
	assert.Equal(t, []any{"FT.CREATE", "idx:books", "ON", "HASH", "PREFIX", "1", index.Key("")}, args[:7])
	assert.Contains(t, args, FieldTitle)
	assert.Contains(t, args, "WEIGHT")

	stub.err = errors.New("Index already exists")
	assert.NoError(t, index.EnsureSchema(ctx))

	stub.err = errors.New("ERR unknown command")
	err := index.EnsureSchema(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "idx:books")
}

/*
TestRedisIndex_Search sends the folded query and decodes the payloads.
*/
func TestRedisIndex_Search(t *testing.T) {
	ctx := context.Background()
	index, _, stub := newRedisIndex(t)

	stub.reply = []any{
		int64(1),
		"libris:book:9788535910667", []any{FieldPayload, `{"isbn":"9788535910667","title":"Memórias Póstumas"}`},
	}

	docs, err := index.Search(ctx, "Memórias", 20)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "Memórias Póstumas", docs[0].Title)

	assert.Equal(t, []any{
		"FT.SEARCH", "idx:books", "@title|synopsis|authors:(%memorias%)",
		"RETURN", "1", FieldPayload,
		"LIMIT", "0", 20,
	}, stub.lastCall())
}

/*
TestRedisIndex_SearchWithoutTokens answers an empty result without a round trip.
*/
func TestRedisIndex_SearchWithoutTokens(t *testing.T) {
	index, _, stub := newRedisIndex(t)

	docs, err := index.Search(context.Background(), " ?! ", 20)
	require.NoError(t, err)

	assert.NotNil(t, docs)
	assert.Empty(t, docs)
	assert.Nil(t, stub.lastCall())
}

/*
TestRedisIndex_SearchError wraps server failures.
*/
func TestRedisIndex_SearchError(t *testing.T) {
	index, _, stub := newRedisIndex(t)
	stub.err = errors.New("ERR no such index")

	_, err := index.Search(context.Background(), "Casmurro", 20)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Casmurro")
}
