// SPDX-License-Identifier: AGPL-3.0-only

// Package errors defines the error taxonomy shared by the task store, the
// storage backends and the MCP tool handlers.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind classifies an application error
type Kind string

// Error kinds
const (
	// KindInvalidInput marks a rejected request, e.g. an empty title
	KindInvalidInput Kind = "invalid_input"
	// KindNotFound marks an operation on an id that does not exist
	KindNotFound Kind = "not_found"
	// KindAlreadyExists marks a collision on an id
	KindAlreadyExists Kind = "already_exists"
	// KindStorage marks a failed read or write of the persisted snapshot
	KindStorage Kind = "storage"
	// KindParse marks a persisted snapshot that could not be decoded
	KindParse Kind = "parse"
	// KindInternal marks anything else
	KindInternal Kind = "internal"
)

// AppError is the error type returned across package boundaries
type AppError struct {
	Kind    Kind
	Message string
	Err     error
}

// Error implements the error interface
func (e *AppError) Error() string {
	switch {
	case e.Message != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return e.Err.Error()
	default:
		return string(e.Kind)
	}
}

// Unwrap returns the wrapped cause
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches any AppError of the same kind, so errors.Is(err, &AppError{Kind: KindNotFound}) works
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Message == "" && t.Err == nil
}

// InvalidInput creates a validation error
func InvalidInput(message string) error {
	return &AppError{Kind: KindInvalidInput, Message: message}
}

// NotFound creates an error for a missing resource of the given type
func NotFound(resource string, id any) error {
	return &AppError{Kind: KindNotFound, Message: fmt.Sprintf("%s not found: %v", resource, id)}
}

// AlreadyExists creates an error for a duplicate resource
func AlreadyExists(resource string, id any) error {
	return &AppError{Kind: KindAlreadyExists, Message: fmt.Sprintf("%s already exists: %v", resource, id)}
}

// Storage wraps a failure of the underlying key-value store
func Storage(op string, err error) error {
	return &AppError{Kind: KindStorage, Message: op, Err: err}
}

// Parse wraps a snapshot decoding failure
func Parse(err error) error {
	return &AppError{Kind: KindParse, Message: "parse snapshot", Err: err}
}

// Internal wraps an unexpected failure
func Internal(err error) error {
	return &AppError{Kind: KindInternal, Err: err}
}

// KindOf returns the kind of err, or KindInternal when err is not an AppError
func KindOf(err error) Kind {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// IsInvalidInput reports whether err is a validation error
func IsInvalidInput(err error) bool { return err != nil && KindOf(err) == KindInvalidInput }

// IsNotFound reports whether err is a not-found error
func IsNotFound(err error) bool { return err != nil && KindOf(err) == KindNotFound }

// IsStorage reports whether err is a storage error
func IsStorage(err error) bool { return err != nil && KindOf(err) == KindStorage }

// IsParse reports whether err is a parse error
func IsParse(err error) bool { return err != nil && KindOf(err) == KindParse }
