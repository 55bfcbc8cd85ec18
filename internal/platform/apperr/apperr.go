// Copyright (c) 2026 Libris. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package apperr defines the error type that crosses the service boundary.

Services return an [AppError] for every failure a client may see. The
respond package maps it to a status code and the JSON error envelope, and
logs the Cause of 5xx errors without sending it.
*/
package apperr

import (
	"errors"
	"net/http"
)

// Machine-readable error codes.
const (
	CodeNotFound           = "NOT_FOUND"
	CodeConflict           = "CONFLICT"
	CodePreconditionFailed = "PRECONDITION_FAILED"
	CodeValidation         = "VALIDATION_ERROR"
	CodeRateLimited        = "RATE_LIMITED"
	CodeInternal           = "INTERNAL_ERROR"
	CodeStoreUnavailable   = "STORE_UNAVAILABLE"
)

// AppError is the canonical error type for the Libris API.
//
// It carries an HTTP status code, a machine-readable code, a client-safe
// message, and an optional slice of field-level validation errors.
//
// # Security
//
// The Cause field is for server-side logging only and is never sent to clients
// to avoid leaking internal implementation details (e.g., SQL queries).
type AppError struct {
	// Code is a machine-readable error identifier (e.g. "NOT_FOUND", "PRECONDITION_FAILED").
	Code string `json:"code"`
	// Message is a human-readable description safe to return to the client.
	Message string `json:"error"`
	// HTTPStatus is the HTTP response status code.
	HTTPStatus int `json:"-"`
	// Cause is the underlying error, used for server-side logging only.
	Cause error `json:"-"`
	// Details holds per-field validation errors for VALIDATION_ERROR responses.
	Details []FieldError `json:"details,omitempty"`
}

// FieldError represents a single field-level validation failure.
type FieldError struct {
	// Field is the JSON field name that failed validation.
	Field string `json:"field"`
	// Message is the human-readable description of the failure.
	Message string `json:"message"`
}

// Error implements the error interface. It returns the client-safe message.
func (e *AppError) Error() string { return e.Message }

// Unwrap allows [errors.Is] and [errors.As] to traverse the cause chain.
func (e *AppError) Unwrap() error { return e.Cause }

func newError(status int, code, msg string, cause error) *AppError {
	return &AppError{Code: code, Message: msg, HTTPStatus: status, Cause: cause}
}

// # Client Errors (4xx)

// NotFound creates a 404 [AppError] for a named resource.
//
//	apperr.NotFound("Copy") // "Copy not found"
func NotFound(resource string) *AppError {
	return newError(http.StatusNotFound, CodeNotFound, resource+" not found", nil)
}

// Conflict creates a 409 [AppError] for unique-constraint violations.
func Conflict(msg string) *AppError {
	return newError(http.StatusConflict, CodeConflict, msg, nil)
}

// PreconditionFailed creates a 409 [AppError] for a transition the current
// state does not allow, such as relocating a copy that is on loan.
func PreconditionFailed(msg string) *AppError {
	return newError(http.StatusConflict, CodePreconditionFailed, msg, nil)
}

// ValidationError creates a 400 [AppError] with optional per-field details.
func ValidationError(msg string, details ...FieldError) *AppError {
	e := newError(http.StatusBadRequest, CodeValidation, msg, nil)
	e.Details = details
	return e
}

// RateLimited creates a 429 [AppError] for a client over its request budget.
func RateLimited() *AppError {
	return newError(http.StatusTooManyRequests, CodeRateLimited, "Rate limit exceeded", nil)
}

// # Server Errors (5xx)

const serverErrorMessage = "An unexpected error occurred"

// Internal creates a 500 [AppError]. The cause is kept for logging only.
func Internal(cause error) *AppError {
	return newError(http.StatusInternalServerError, CodeInternal, serverErrorMessage, cause)
}

// StoreUnavailable creates a 500 [AppError] for a failure of the relational
// store or the search index. Like [Internal] it never exposes the cause.
func StoreUnavailable(cause error) *AppError {
	return newError(http.StatusInternalServerError, CodeStoreUnavailable, serverErrorMessage, cause)
}

// # Helpers

// IsAppError reports whether err (or any error in its chain) is an [*AppError].
func IsAppError(err error) bool {
	var ae *AppError
	return errors.As(err, &ae)
}

// HasCode reports whether err carries an [*AppError] with the given code.
func HasCode(err error, code string) bool {
	ae := As(err)
	return ae != nil && ae.Code == code
}

// As extracts the [*AppError] from err's chain. It returns nil if not found.
func As(err error) *AppError {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae
	}
	return nil
}
