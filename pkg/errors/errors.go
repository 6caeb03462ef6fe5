package errors

import (
	"errors"
	"net/http"
)

// Kind classifies an application error for the presentation layer.
type Kind string

const (
	KindUnauthorized Kind = "unauthorized"
	KindValidation   Kind = "validation"
	KindNotFound     Kind = "not_found"
	KindStoreFailure Kind = "store_failure"
	KindRateLimited  Kind = "rate_limited"
	KindConflict     Kind = "conflict"
	KindUnexpected   Kind = "unexpected"
)

// Messages surfaced verbatim to callers.
const (
	MsgUnauthorized = "Unauthorized"
	MsgUnexpected   = "An unexpected error occurred"
)

var (
	// Authentication errors
	ErrUnauthorized       = New(KindUnauthorized, MsgUnauthorized)
	ErrInvalidCredentials = New(KindUnauthorized, "Invalid username or password")
	ErrAccountLocked      = New(KindUnauthorized, "Account is temporarily locked due to too many failed login attempts")
	ErrUserAlreadyExists  = New(KindConflict, "Username is already taken")

	// Validation errors
	ErrTitleRequired   = New(KindValidation, "Title is required")
	ErrTitleTooLong    = New(KindValidation, "Title must be at most 200 characters")
	ErrContentRequired = New(KindValidation, "Content is required")
	ErrIDRequired      = New(KindValidation, "Note ID is required")
	ErrInvalidUsername = New(KindValidation, "Username must be 3-20 letters, digits or underscores")
	ErrWeakPassword    = New(KindValidation, "Password must be 12-128 characters with upper, lower, digit and symbol")

	// Lookup errors
	ErrNotFound = New(KindNotFound, "Note not found")

	// Store errors
	ErrCreateFailed = New(KindStoreFailure, "Failed to create note")
	ErrFetchFailed  = New(KindStoreFailure, "Failed to fetch notes")
	ErrUpdateFailed = New(KindStoreFailure, "Failed to update note")
	ErrDeleteFailed = New(KindStoreFailure, "Failed to delete note")

	// Rate limiting errors
	ErrRateLimitExceeded = New(KindRateLimited, "Too many requests, slow down")

	ErrUnexpected = New(KindUnexpected, MsgUnexpected)

	// ErrRecordNotFound is returned by repositories when a scoped lookup or
	// write matches no row. It never reaches callers directly.
	ErrRecordNotFound = errors.New("record not found")
)

// AppError wraps errors with a kind and a user-facing message.
type AppError struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e == nil {
		return ""
	}
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Kind)
}

func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches two AppErrors by kind and message so that a wrapped copy of a
// sentinel still satisfies errors.Is against the sentinel.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok || e == nil || t == nil {
		return false
	}
	return e.Kind == t.Kind && e.Message == t.Message
}

// New creates an application error.
func New(kind Kind, message string) *AppError {
	return &AppError{Kind: kind, Message: message}
}

// Wrap attaches a cause to a copy of base.
func Wrap(base *AppError, cause error) *AppError {
	return &AppError{Kind: base.Kind, Message: base.Message, Err: cause}
}

// As returns the first AppError in err's chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// KindOf returns the error kind, defaulting to unexpected.
func KindOf(err error) Kind {
	if appErr, ok := As(err); ok && appErr.Kind != "" {
		return appErr.Kind
	}
	return KindUnexpected
}

// MessageOf returns a user-facing message. Untyped errors map to the generic
// message so driver text and file paths never reach a response.
func MessageOf(err error) string {
	if appErr, ok := As(err); ok && appErr.Message != "" {
		return appErr.Message
	}
	return MsgUnexpected
}

// HTTPStatus maps an error kind to an HTTP status.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindValidation:
		return http.StatusUnprocessableEntity
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
