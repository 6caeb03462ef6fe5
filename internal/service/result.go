package service

import (
	"encoding/json"

	"github.com/amirk1998/notes-web/pkg/errors"
)

// Result is the envelope every service operation returns: either a value or
// a user-facing error, never both.
type Result[T any] struct {
	ok    bool
	value T
	err   *errors.AppError
}

// Ok wraps a successful value.
func Ok[T any](value T) Result[T] {
	return Result[T]{ok: true, value: value}
}

// Fail wraps an error. Errors without an application kind become the generic
// unexpected error.
func Fail[T any](err error) Result[T] {
	appErr, ok := errors.As(err)
	if !ok {
		appErr = errors.Wrap(errors.ErrUnexpected, err)
	}
	return Result[T]{err: appErr}
}

// OK reports whether the operation succeeded.
func (r Result[T]) OK() bool { return r.ok }

// Value returns the payload; the zero value on failure.
func (r Result[T]) Value() T { return r.value }

// ErrorMessage returns the user-facing message; "" on success.
func (r Result[T]) ErrorMessage() string {
	if r.ok || r.err == nil {
		return ""
	}
	return r.err.Message
}

// Kind returns the failure kind; "" on success.
func (r Result[T]) Kind() errors.Kind {
	if r.ok || r.err == nil {
		return ""
	}
	return r.err.Kind
}

// Err returns the failure as an error; nil on success.
func (r Result[T]) Err() error {
	if r.ok || r.err == nil {
		return nil
	}
	return r.err
}

type envelope[T any] struct {
	Success bool   `json:"success"`
	Data    *T     `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// MarshalJSON encodes {"success":true,"data":...} or {"success":false,"error":"..."}.
func (r Result[T]) MarshalJSON() ([]byte, error) {
	if r.ok {
		v := r.value
		return json.Marshal(envelope[T]{Success: true, Data: &v})
	}
	return json.Marshal(envelope[T]{Success: false, Error: r.ErrorMessage()})
}

// Unit is the payload of operations that return nothing.
type Unit struct{}
