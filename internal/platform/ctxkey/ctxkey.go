// Copyright (c) 2026 Libris. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package ctxkey defines typed context keys used by middleware, handlers and workers.
//
// # Safety
//
// It is used to store and retrieve per-request values (request ID, logger) and
// per-delivery values (task message ID). Using a private, unexported type for keys
// prevents collisions with third-party packages that might also use context for storage.
package ctxkey

// key is an unexported type used for context keys to ensure type safety.
type key string

const (
	// KeyRequestID is the context key for the X-Request-ID correlation value.
	KeyRequestID key = "request_id"

	// KeyLogger is the context key for the per-request [*log/slog.Logger].
	KeyLogger key = "logger"

	// KeyMessageID is the context key for the task message being processed by a worker.
	KeyMessageID key = "message_id"
)
