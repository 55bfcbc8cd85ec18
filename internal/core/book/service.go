// Copyright (c) 2026 Libris. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package book

import (
	"context"
	"log/slog"

	"github.com/taibuivan/libris/internal/platform/apperr"
	"github.com/taibuivan/libris/internal/platform/constants"
	"github.com/taibuivan/libris/internal/platform/guard"
	"github.com/taibuivan/libris/internal/platform/taskqueue"
	"github.com/taibuivan/libris/internal/platform/validate"
)

// Index is the full-text index of books, keyed by ISBN.
type Index interface {
	Upsert(ctx context.Context, doc SearchDocument) error
	Delete(ctx context.Context, isbn string) error
	Search(ctx context.Context, text string, limit int) ([]SearchDocument, error)
}

// Enqueuer publishes a payload for an actor on a queue.
type Enqueuer interface {
	Send(ctx context.Context, queue, actor string, payload any) (*taskqueue.Message, error)
}

type Service struct {
	repo   Repository
	index  Index
	queue  Enqueuer
	logger *slog.Logger
}

func NewService(repo Repository, index Index, queue Enqueuer, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		index:  index,
		queue:  queue,
		logger: logger,
	}
}

func (service *Service) List(ctx context.Context, limit, offset int) ([]*Book, int, error) {
	return service.repo.List(ctx, limit, offset)
}

func (service *Service) Get(ctx context.Context, id int) (*Book, error) {
	return guard.Exists(ctx, entityName, id, service.repo.FindByID)
}

/*
SubmitCreate validates a draft and queues it for the ingestion worker.

Nothing is persisted here and no identifier is assigned. The returned draft
is decoded back from the queued payload, so it shows exactly what the worker
will receive.

Returns:
  - *Draft: The queued payload
  - error: VALIDATION_ERROR, or INTERNAL_ERROR when the queue is unreachable
*/
func (service *Service) SubmitCreate(ctx context.Context, draft *Draft) (*Draft, error) {
	if err := validateDraft(draft); err != nil {
		return nil, err
	}

	msg, err := service.queue.Send(ctx, constants.QueueBooks, constants.ActorCreateBook, draft)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	echo := &Draft{}
	if err := msg.Decode(echo); err != nil {
		return nil, apperr.Internal(err)
	}

	service.logger.Info("book_create_queued",
		slog.String("message_id", msg.ID),
		slog.String("isbn", echo.ISBN),
	)
	return echo, nil
}

// Update persists the draft over an existing book and re-indexes it.
func (service *Service) Update(ctx context.Context, id int, draft *Draft) (*Book, error) {
	if err := validateDraft(draft); err != nil {
		return nil, err
	}

	current, err := guard.Exists(ctx, entityName, id, service.repo.FindByID)
	if err != nil {
		return nil, err
	}

	updated, err := service.repo.Update(ctx, id, draft)
	if err != nil {
		return nil, guard.NotFound(err, entityName)
	}

	// An ISBN change moves the document to a new key.
	if current.ISBN != updated.ISBN {
		if err := service.index.Delete(ctx, current.ISBN); err != nil {
			return nil, service.indexFailed("book_unindex_failed", updated.ID, current.ISBN, err)
		}
	}

	if err := service.index.Upsert(ctx, Project(updated)); err != nil {
		return nil, service.indexFailed("book_index_failed", updated.ID, updated.ISBN, err)
	}

	service.logger.Info("book_updated", slog.Int("book_id", updated.ID), slog.String("isbn", updated.ISBN))
	return updated, nil
}

// Delete removes the book row and then its index document.
func (service *Service) Delete(ctx context.Context, id int) error {
	current, err := guard.Exists(ctx, entityName, id, service.repo.FindByID)
	if err != nil {
		return err
	}

	if err := service.repo.Delete(ctx, id); err != nil {
		return guard.NotFound(err, entityName)
	}

	if err := service.index.Delete(ctx, current.ISBN); err != nil {
		return service.indexFailed("book_unindex_failed", id, current.ISBN, err)
	}

	service.logger.Warn("book_deleted", slog.Int("book_id", id), slog.String("isbn", current.ISBN))
	return nil
}

// Search runs a fuzzy full-text query over title, synopsis and authors.
func (service *Service) Search(ctx context.Context, text string, limit int) ([]SearchDocument, error) {
	docs, err := service.index.Search(ctx, text, limit)
	if err != nil {
		service.logger.Error("book_search_failed", slog.String("query", text), slog.Any("error", err))
		return nil, apperr.StoreUnavailable(err)
	}
	return docs, nil
}

func (service *Service) indexFailed(event string, id int, isbn string, err error) error {
	service.logger.Error(event, slog.Int("book_id", id), slog.String("isbn", isbn), slog.Any("error", err))
	return apperr.StoreUnavailable(err)
}

func validateDraft(draft *Draft) error {
	validator := &validate.Validator{}

	validator.Required(FieldTitle, draft.Title).MaxLen(FieldTitle, draft.Title, maxTitle)
	validator.Required(FieldISBN, draft.ISBN).MaxLen(FieldISBN, draft.ISBN, maxISBN)
	validator.Required(FieldPublisher, draft.Publisher).MaxLen(FieldPublisher, draft.Publisher, maxPublisher)
	validator.Required(FieldEdition, draft.Edition).MaxLen(FieldEdition, draft.Edition, maxEdition)
	validator.Required(FieldLanguage, draft.Language).MaxLen(FieldLanguage, draft.Language, maxLanguage)
	validator.OneOf(FieldType, string(draft.Type), Types()...)
	validator.Date(FieldPublicationDate, draft.PublicationDate)
	validator.IDs(FieldAuthorIDs, draft.AuthorIDs)
	validator.IDs(FieldCategoryIDs, draft.CategoryIDs)

	return validator.Err()
}
