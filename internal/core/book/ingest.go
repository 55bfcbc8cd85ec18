// Copyright (c) 2026 Libris. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package book

import (
	"context"
	"log/slog"
	"time"

	"github.com/taibuivan/libris/internal/platform/constants"
	"github.com/taibuivan/libris/internal/platform/ctxutil"
	"github.com/taibuivan/libris/internal/platform/dberr"
	"github.com/taibuivan/libris/internal/platform/metrics"
	"github.com/taibuivan/libris/internal/platform/taskqueue"
)

// Outcome is the domain result of processing one queued draft.
type Outcome string

const (
	// OutcomeIndexed means the book was persisted and indexed.
	OutcomeIndexed Outcome = "indexed"

	// OutcomeDropped means the store produced no row. The message is done
	// and the index is left untouched.
	OutcomeDropped Outcome = "dropped"

	outcomeFailed = "failed"
)

// Ingestor is the worker side of book creation.
type Ingestor struct {
	repo   Repository
	index  Index
	logger *slog.Logger
}

func NewIngestor(repo Repository, index Index, logger *slog.Logger) *Ingestor {
	return &Ingestor{
		repo:   repo,
		index:  index,
		logger: logger,
	}
}

/*
ProcessCreate persists a queued draft and indexes the stored book.

Any returned error hands the message back to the queue, which replays it from
the start. A replay after a failed index write inserts the row again and fails
on the unique ISBN; there is no deduplication key.

Returns:
  - Outcome: [OutcomeIndexed] or [OutcomeDropped] when err is nil
  - error: The store or index failure
*/
func (ingestor *Ingestor) ProcessCreate(ctx context.Context, draft *Draft) (Outcome, error) {
	logger := ingestor.logger.With(slog.String("isbn", draft.ISBN))
	if messageID := ctxutil.GetMessageID(ctx); messageID != "" {
		logger = logger.With(slog.String("message_id", messageID))
	}

	created, err := ingestor.repo.Create(ctx, draft)
	if err != nil {
		metrics.BookIngested(outcomeFailed)
		event := "book_create_failed"
		if dberr.IsIntegrityViolation(err) {
			event = "book_create_duplicate_isbn"
		}
		logger.Error(event, slog.Any("error", err))
		return "", err
	}

	if created == nil {
		metrics.BookIngested(string(OutcomeDropped))
		logger.Error("book_create_dropped")
		return OutcomeDropped, nil
	}

	if err := ingestor.index.Upsert(ctx, Project(created)); err != nil {
		metrics.BookIngested(outcomeFailed)
		logger.Error("book_index_failed", slog.Int("book_id", created.ID), slog.Any("error", err))
		return "", err
	}

	metrics.BookIngested(string(OutcomeIndexed))
	logger.Info("book_created", slog.Int("book_id", created.ID))
	return OutcomeIndexed, nil
}

// Handle decodes a create_book message and processes it.
func (ingestor *Ingestor) Handle(ctx context.Context, msg *taskqueue.Message) error {
	draft := &Draft{}
	if err := msg.Decode(draft); err != nil {
		return err
	}

	_, err := ingestor.ProcessCreate(ctx, draft)
	return err
}

/*
Actor binds [Ingestor.Handle] to the books queue.

Every failure is retried until maxRetries is spent.
*/
func (ingestor *Ingestor) Actor(maxRetries int, timeLimit, maxAge time.Duration) taskqueue.Actor {
	return taskqueue.Actor{
		Name:       constants.ActorCreateBook,
		Queue:      constants.QueueBooks,
		MaxRetries: maxRetries,
		RetryWhen:  func(int, error) bool { return true },
		TimeLimit:  timeLimit,
		MaxAge:     maxAge,
		Handler:    ingestor.Handle,
	}
}
