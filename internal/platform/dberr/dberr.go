// Copyright (c) 2026 Libris. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package dberr provides a bridge between low-level database errors and
// higher-level application errors.
package dberr

import (
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/taibuivan/libris/internal/platform/apperr"
)

var (
	// ErrNotFound is a standard error returned when a queried row doesn't exist.
	ErrNotFound = apperr.NotFound("Resource")
)

// Wrap inspects a database error and wraps it into a meaningful [apperr.AppError].
// It hides internal database details from the client while classifying the error type.
//
// # Classification
//
//   - pgx.ErrNoRows       -> [ErrNotFound]
//   - SQLSTATE 23505      -> apperr.Conflict (integrity error, e.g. duplicate ISBN)
//   - SQLSTATE 23503      -> apperr.ValidationError (referenced row does not exist)
//   - anything else       -> apperr.StoreUnavailable
func Wrap(err error, action string) error {
	if err == nil {
		return nil
	}

	// Already classified further down the stack
	if apperr.IsAppError(err) {
		return err
	}

	// 1. Not Found mapping
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}

	// 2. Constraint violations carry a SQLSTATE
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.UniqueViolation:
			conflict := apperr.Conflict("Resource already exists")
			conflict.Cause = fmt.Errorf("%s: %w", action, err)
			return conflict
		case pgerrcode.ForeignKeyViolation:
			invalid := apperr.ValidationError("Referenced resource does not exist")
			invalid.Cause = fmt.Errorf("%s: %w", action, err)
			return invalid
		}
	}

	// 3. Everything else is an infrastructure failure
	return apperr.StoreUnavailable(fmt.Errorf("%s: %w", action, err))
}

// IsIntegrityViolation reports whether err was caused by a unique constraint violation.
func IsIntegrityViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return true
	}
	return apperr.HasCode(err, apperr.CodeConflict)
}
