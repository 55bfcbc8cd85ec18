// Copyright (c) 2026 Libris. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package stock

import (
	"context"
	"errors"
	"log/slog"

	"github.com/taibuivan/libris/internal/platform/apperr"
	"github.com/taibuivan/libris/internal/platform/guard"
	"github.com/taibuivan/libris/internal/platform/metrics"
	"github.com/taibuivan/libris/internal/platform/validate"
)

// Relocation outcomes reported to metrics.
const (
	outcomeMoved        = "moved"
	outcomeNotAvailable = "not_available"
	outcomeNotFound     = "not_found"
	outcomeError        = "error"
)

type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

func (service *Service) List(ctx context.Context, limit, offset int) ([]*Copy, int, error) {
	return service.repo.List(ctx, limit, offset)
}

func (service *Service) Get(ctx context.Context, id int) (*Copy, error) {
	return guard.Exists(ctx, entityName, id, service.repo.FindByID)
}

// Create registers a copy at a branch. A missing status defaults to available.
func (service *Service) Create(ctx context.Context, c *Copy) error {
	if c.Status == "" {
		c.Status = StatusAvailable
	}

	if err := validateCopy(c); err != nil {
		return err
	}

	if err := service.repo.Create(ctx, c); err != nil {
		return err
	}

	service.logger.Info("copy_created",
		slog.Int("copy_id", c.ID),
		slog.Int("book_id", c.BookID),
		slog.Int("branch_id", c.BranchID),
	)
	return nil
}

// Update overwrites every field of an existing copy, including its status,
// regardless of the current status.
func (service *Service) Update(ctx context.Context, id int, c *Copy) error {
	if err := validateCopy(c); err != nil {
		return err
	}

	if _, err := guard.Exists(ctx, entityName, id, service.repo.FindByID); err != nil {
		return err
	}

	c.ID = id
	if err := service.repo.Update(ctx, c); err != nil {
		return guard.NotFound(err, entityName)
	}

	service.logger.Info("copy_updated", slog.Int("copy_id", c.ID), slog.String("status", string(c.Status)))
	return nil
}

func (service *Service) Delete(ctx context.Context, id int) error {
	if _, err := guard.Exists(ctx, entityName, id, service.repo.FindByID); err != nil {
		return err
	}

	if err := service.repo.Delete(ctx, id); err != nil {
		return guard.NotFound(err, entityName)
	}

	service.logger.Warn("copy_deleted", slog.Int("copy_id", id))
	return nil
}

/*
Relocate moves an available copy to a new status under a row lock.

Parameters:
  - ctx: context.Context
  - copyID: int
  - status: Status (any value of the enum)

Returns:
  - *Copy: The copy after the transition
  - error: NOT_FOUND, [*NotAvailableError] (PRECONDITION_FAILED) or STORE_UNAVAILABLE
*/
func (service *Service) Relocate(ctx context.Context, copyID int, status Status) (*Copy, error) {
	validator := &validate.Validator{}
	validator.Positive("id", copyID).OneOf(FieldStatus, string(status), Statuses()...)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	logger := service.logger.With(slog.Int("copy_id", copyID), slog.String("attempted", string(status)))

	var moved *Copy
	err := service.repo.WithinTx(ctx, func(tx Tx) error {
		current, err := tx.LockByID(ctx, copyID)
		if err != nil {
			return guard.NotFound(err, entityName)
		}

		if current.Status != StatusAvailable {
			return &NotAvailableError{CopyID: copyID, Current: current.Status, Attempted: status}
		}

		moved, err = tx.UpdateStatus(ctx, copyID, status)
		return err
	})

	var notAvailable *NotAvailableError
	switch {
	case err == nil:
		metrics.CopyRelocated(outcomeMoved)
		logger.Info("copy_relocated")
		return moved, nil

	case errors.As(err, &notAvailable):
		metrics.CopyRelocated(outcomeNotAvailable)
		logger.Warn("copy_relocation_rejected", slog.String("current", string(notAvailable.Current)))
		return nil, err

	case guard.IsNotFound(err):
		metrics.CopyRelocated(outcomeNotFound)
		logger.Warn("copy_relocation_not_found")
		return nil, guard.NotFound(err, entityName)

	default:
		metrics.CopyRelocated(outcomeError)
		logger.Error("copy_relocation_failed", slog.Any("error", err))
		if apperr.IsAppError(err) {
			return nil, err
		}
		return nil, apperr.StoreUnavailable(err)
	}
}

func validateCopy(c *Copy) error {
	validator := &validate.Validator{}

	validator.Positive(FieldBookID, c.BookID).Positive(FieldBranchID, c.BranchID)
	validator.Required(FieldShelf, c.Shelf).MaxLen(FieldShelf, c.Shelf, 255)
	validator.Required(FieldFloor, c.Floor).MaxLen(FieldFloor, c.Floor, 255)
	validator.Required(FieldRoom, c.Room).MaxLen(FieldRoom, c.Room, 255)
	validator.OneOf(FieldStatus, string(c.Status), Statuses()...)

	return validator.Err()
}
