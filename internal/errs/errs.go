// Package errs defines the error taxonomy shared by the storage layer,
// the sync engine, and the HTTP surfaces.
//
// The categories drive retry behavior: validation, not-found, conflict
// and unauthorized errors are surfaced immediately and never retried;
// storage errors propagate because a local persistence failure means
// data-loss risk; transient network errors are retried with backoff by
// the sync queue and never raised to the interactive caller.
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies an error for retry and HTTP-status mapping.
type Kind int

// Error kinds.
const (
	KindValidation Kind = iota
	KindNotFound
	KindUnauthorized
	KindConflict
	KindStorage
	KindTransient
)

// String returns a short label for the kind.
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindUnauthorized:
		return "unauthorized"
	case KindConflict:
		return "conflict"
	case KindStorage:
		return "storage"
	case KindTransient:
		return "transient"
	default:
		return "unknown"
	}
}

// Error is a classified error. Use the constructors below rather than
// building values directly.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

// Unwrap returns the wrapped cause, if any.
func (e *Error) Unwrap() error {
	return e.Err
}

// Validation reports bad input shape or range.
func Validation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Msg: fmt.Sprintf(format, args...)}
}

// NotFound reports a missing entity.
func NotFound(entity string, id any) *Error {
	return &Error{Kind: KindNotFound, Msg: fmt.Sprintf("%s %v not found", entity, id)}
}

// Unauthorized reports a bad or expired token, or cross-user access.
func Unauthorized(format string, args ...any) *Error {
	return &Error{Kind: KindUnauthorized, Msg: fmt.Sprintf(format, args...)}
}

// Conflict reports a state-machine violation such as a duplicate
// clock-in.
func Conflict(format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Msg: fmt.Sprintf(format, args...)}
}

// Storage wraps a local database failure.
func Storage(op string, err error) *Error {
	return &Error{Kind: KindStorage, Msg: op, Err: err}
}

// Transient wraps a retryable network-origin failure (timeout,
// connection refused, 5xx).
func Transient(op string, err error) *Error {
	return &Error{Kind: KindTransient, Msg: op, Err: err}
}

// KindOf returns the kind of err, or KindStorage|false semantics via ok
// when err is not a classified error.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

func is(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

// IsValidation reports whether err is a validation error.
func IsValidation(err error) bool { return is(err, KindValidation) }

// IsNotFound reports whether err is a not-found error.
func IsNotFound(err error) bool { return is(err, KindNotFound) }

// IsUnauthorized reports whether err is an authorization error.
func IsUnauthorized(err error) bool { return is(err, KindUnauthorized) }

// IsConflict reports whether err is a conflict error.
func IsConflict(err error) bool { return is(err, KindConflict) }

// IsStorage reports whether err is a local storage error.
func IsStorage(err error) bool { return is(err, KindStorage) }

// IsTransient reports whether err should be retried with backoff.
func IsTransient(err error) bool { return is(err, KindTransient) }

// IsPermanent reports whether an upload failure should stop retrying:
// anything classified that is not transient.
func IsPermanent(err error) bool {
	k, ok := KindOf(err)
	return ok && k != KindTransient
}
