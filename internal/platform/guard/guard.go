// Copyright (c) 2026 Libris. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package guard implements the existence check that every service runs before
an update or a delete.

Usage:

	current, err := guard.Exists(ctx, "Branch", id, service.repo.FindByID)
	if err != nil {
	    return err // apperr NOT_FOUND, or the store failure untouched
	}

The check and the mutation that follows are two separate statements. A row
deleted between them makes the mutation itself report NotFound through
[dberr.ErrNotFound]; only copy relocation holds a lock across both steps.
*/
package guard

import (
	"context"
	"errors"

	"github.com/taibuivan/libris/internal/platform/apperr"
	"github.com/taibuivan/libris/internal/platform/dberr"
)

// Finder loads one entity by its identifier.
type Finder[T any] func(ctx context.Context, id int) (*T, error)

/*
Exists loads the entity and converts a missing row into a named NotFound error.

Parameters:
  - ctx: context.Context
  - entity: Display name used in the message ("Book" -> "Book not found")
  - id: int
  - find: Finder[T]

Returns:
  - *T: The current row
  - error: apperr.NotFound(entity), or any other store error as-is
*/
func Exists[T any](ctx context.Context, entity string, id int, find Finder[T]) (*T, error) {
	current, err := find(ctx, id)
	if err != nil {
		if IsNotFound(err) {
			return nil, apperr.NotFound(entity)
		}
		return nil, err
	}

	if current == nil {
		return nil, apperr.NotFound(entity)
	}

	return current, nil
}

// NotFound rewrites a generic missing-row error into a named one and leaves
// every other error untouched.
func NotFound(err error, entity string) error {
	if IsNotFound(err) {
		return apperr.NotFound(entity)
	}
	return err
}

// IsNotFound reports whether err means the row does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, dberr.ErrNotFound) || apperr.HasCode(err, apperr.CodeNotFound)
}
