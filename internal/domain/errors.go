package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies application errors for transport mapping and caller
// policy. Expected outcomes (validation, conflict, rate limit) are values,
// never panics.
type ErrorKind string

const (
	KindValidation   ErrorKind = "validation_failed"
	KindNotFound     ErrorKind = "not_found"
	KindConflict     ErrorKind = "slot_conflict"
	KindRateLimited  ErrorKind = "rate_limit_exceeded"
	KindUnauthorized ErrorKind = "unauthorized"
	KindForbidden    ErrorKind = "forbidden"
	KindInternal     ErrorKind = "system_failure"
)

// AppError is the typed error carried across service boundaries.
type AppError struct {
	Kind    ErrorKind
	Message string
	Fields  map[string]string
	cause   error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the underlying cause for errors.Is/As chains.
func (e *AppError) Unwrap() error { return e.cause }

// IsKind reports whether err is an AppError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind == kind
	}
	return false
}

// KindOf returns the kind of err, or KindInternal for untyped errors.
func KindOf(err error) ErrorKind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// NewValidationError creates a validation error with a human-readable message.
func NewValidationError(message string) *AppError {
	return &AppError{Kind: KindValidation, Message: message}
}

// NewFieldValidationError creates a validation error carrying per-field detail.
func NewFieldValidationError(message string, fields map[string]string) *AppError {
	return &AppError{Kind: KindValidation, Message: message, Fields: fields}
}

// NewNotFoundError creates a not-found error for an entity and identifier.
func NewNotFoundError(entity, id string) *AppError {
	return &AppError{Kind: KindNotFound, Message: fmt.Sprintf("%s %s not found", entity, id)}
}

// NewConflictError creates a slot-conflict error. Lock timeouts, foreign soft
// locks, capacity exhaustion and uniqueness violations all surface as this
// kind: to the caller they are indistinguishable in effect.
func NewConflictError(message string) *AppError {
	return &AppError{Kind: KindConflict, Message: message}
}

// NewRateLimitError creates a rate-limit error for the given identity scope.
func NewRateLimitError(scope string) *AppError {
	return &AppError{Kind: KindRateLimited, Message: fmt.Sprintf("too many booking attempts for %s", scope)}
}

// NewUnauthorizedError creates an authentication failure error.
func NewUnauthorizedError(message string) *AppError {
	return &AppError{Kind: KindUnauthorized, Message: message}
}

// NewForbiddenError creates an authorization failure error.
func NewForbiddenError(message string) *AppError {
	return &AppError{Kind: KindForbidden, Message: message}
}

// NewInvalidStateError creates a conflict error for an illegal state transition.
func NewInvalidStateError(from, to string) *AppError {
	return &AppError{Kind: KindConflict, Message: fmt.Sprintf("cannot transition from %s to %s", from, to)}
}

// NewInternalError wraps an unexpected infrastructure fault. The cause is
// logged internally and never exposed to callers.
func NewInternalError(message string, cause error) *AppError {
	return &AppError{Kind: KindInternal, Message: message, cause: cause}
}
