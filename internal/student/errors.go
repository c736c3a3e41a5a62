package student

import (
	"errors"
	"strings"
)

// Kind classifies a failure into the closed set consumed by the API layer.
type Kind string

// Error kinds. Everything unclassified maps to KindInternal.
const (
	KindValidation Kind = "VALIDATION"
	KindNotFound   Kind = "NOT_FOUND"
	KindStorage    Kind = "STORAGE"
	KindInternal   Kind = "INTERNAL"
)

// Error is the uniform error type returned by all public directory and store
// APIs.
//
// Msg is safe to surface to callers. Err holds the underlying cause (file
// paths, I/O detail) and is intended for logs only; the API layer must not
// serialize it. Use [errors.As] to extract the kind, or [KindOf] as a
// shortcut:
//
//	var sErr *student.Error
//	if errors.As(err, &sErr) && sErr.Kind == student.KindNotFound { ... }
type Error struct {
	// Kind is the coarse classification.
	Kind Kind

	// Msg is the sanitized, caller-facing message.
	Msg string

	// Violations holds the individual constraint messages for
	// KindValidation errors; empty otherwise.
	Violations []string

	// Err is the underlying cause. Never shown to callers.
	Err error
}

// Error formats as "<msg>: <cause>" for logs. Callers that need the
// sanitized form use Msg directly.
func (e *Error) Error() string {
	if e == nil {
		return ""
	}

	if e.Err == nil {
		return e.Msg
	}

	return e.Msg + ": " + e.Err.Error()
}

// Unwrap returns the underlying cause for use with [errors.Is] and [errors.As].
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}

	return e.Err
}

// NewValidation builds a KindValidation error aggregating all violations.
func NewValidation(violations []string) *Error {
	return &Error{
		Kind:       KindValidation,
		Msg:        strings.Join(violations, "; "),
		Violations: violations,
	}
}

// NewNotFound builds a KindNotFound error for the given record id.
func NewNotFound(id string) *Error {
	return &Error{
		Kind: KindNotFound,
		Msg:  "student not found: " + id,
	}
}

// NewStorage builds a KindStorage error. The cause stays out of Msg so file
// paths never reach callers.
func NewStorage(op string, err error) *Error {
	return &Error{
		Kind: KindStorage,
		Msg:  "storage operation failed: " + op,
		Err:  err,
	}
}

// Classify returns err as *Error, wrapping unclassified errors as
// KindInternal with a generic message. Returns nil for nil.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}

	var sErr *Error
	if errors.As(err, &sErr) {
		return sErr
	}

	return &Error{
		Kind: KindInternal,
		Msg:  "an unexpected error occurred",
		Err:  err,
	}
}

// KindOf returns the kind of err, or KindInternal for unclassified errors.
func KindOf(err error) Kind {
	return Classify(err).Kind
}
