// Copyright (c) 2026 Libris. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package searchindex

import (
	"context"
	"fmt"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/libris/internal/platform/constants"
)

var codec = jsoniter.ConfigCompatibleWithStandardLibrary

// RedisIndex implements the book search index on RediSearch.
type RedisIndex struct {
	client *redis.Client
	name   string
	prefix string
}

// NewRedisIndex returns an index named name (e.g. "idx:books").
func NewRedisIndex(client *redis.Client, name string) *RedisIndex {
	return &RedisIndex{client: client, name: name, prefix: constants.RedisPrefixBookDocument}
}

// Key returns the hash key of the document for isbn.
func (i *RedisIndex) Key(isbn string) string {
	return i.prefix + isbn
}

// EnsureSchema creates the index if it does not exist yet.
func (i *RedisIndex) EnsureSchema(ctx context.Context) error {
	err := i.client.Do(ctx,
		"FT.CREATE", i.name,
		"ON", "HASH",
		"PREFIX", "1", i.prefix,
		"SCHEMA",
		FieldTitle, "TEXT", "WEIGHT", "3",
		FieldSynopsis, "TEXT",
		FieldAuthors, "TEXT",
		FieldCategories, "TAG", "SEPARATOR", tagSeparator,
		FieldPublicationDate, "TAG",
	).Err()
	if err != nil && !strings.Contains(err.Error(), "Index already exists") {
		return fmt.Errorf("searchindex: create %s: %w", i.name, err)
	}
	return nil
}

// Upsert writes doc under its ISBN, replacing any previous version.
func (i *RedisIndex) Upsert(ctx context.Context, doc Document) error {
	payload, err := codec.MarshalToString(doc)
	if err != nil {
		return fmt.Errorf("searchindex: encode %s: %w", doc.ISBN, err)
	}

	key := i.Key(doc.ISBN)

	// Replace the whole hash so no stale field survives an update
	_, err = i.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key, hashFields(doc, payload))
		return nil
	})
	if err != nil {
		return fmt.Errorf("searchindex: upsert %s: %w", doc.ISBN, err)
	}
	return nil
}

// Delete removes the document for isbn. Deleting a missing document is not an error.
func (i *RedisIndex) Delete(ctx context.Context, isbn string) error {
	if err := i.client.Del(ctx, i.Key(isbn)).Err(); err != nil {
		return fmt.Errorf("searchindex: delete %s: %w", isbn, err)
	}
	return nil
}

// Search runs a fuzzy query over title (boosted), synopsis and authors.
func (i *RedisIndex) Search(ctx context.Context, text string, limit int) ([]Document, error) {
	query := BuildQuery(text)
	if query == "" {
		return []Document{}, nil
	}

	reply, err := i.client.Do(ctx,
		"FT.SEARCH", i.name, query,
		"RETURN", "1", FieldPayload,
		"LIMIT", "0", limit,
	).Result()
	if err != nil {
		return nil, fmt.Errorf("searchindex: search %q: %w", text, err)
	}

	return parseSearchReply(reply)
}

/*
parseSearchReply decodes a RESP2 FT.SEARCH reply with RETURN 1 payload.

Layout:

	[total, key1, [payload, json1], key2, [payload, json2], ...]
*/
func parseSearchReply(reply any) ([]Document, error) {
	items, ok := reply.([]any)
	if !ok || len(items) == 0 {
		return nil, fmt.Errorf("searchindex: unexpected reply %T", reply)
	}

	docs := make([]Document, 0, (len(items)-1)/2)
	for idx := 2; idx < len(items); idx += 2 {
		fields, ok := items[idx].([]any)
		if !ok {
			return nil, fmt.Errorf("searchindex: unexpected field list %T", items[idx])
		}

		for f := 0; f+1 < len(fields); f += 2 {
			if name, _ := fields[f].(string); name != FieldPayload {
				continue
			}

			raw, _ := fields[f+1].(string)
			var doc Document
			if err := codec.UnmarshalFromString(raw, &doc); err != nil {
				return nil, fmt.Errorf("searchindex: decode payload of %v: %w", items[idx-1], err)
			}
			docs = append(docs, doc)
		}
	}

	return docs, nil
}
