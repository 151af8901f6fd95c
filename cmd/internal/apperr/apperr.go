// Package apperr defines the error taxonomy shared by the auth orchestrator,
// the session manager and the HTTP boundary.
package apperr

import (
	"errors"
	"fmt"
)

// Sentinel kinds (stable for errors.Is and for mapping to API status codes).
var (
	ErrValidation   = errors.New("validation_failed")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not_found")
	ErrInternal     = errors.New("internal")
)

// FieldError is a single per-field validation message.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is a typed operation failure.
// Msg is safe to show to clients; Err carries the underlying cause for logs only.
type Error struct {
	Op     string
	Kind   error
	Msg    string
	Fields []FieldError
	Err    error
}

func (e *Error) Error() string {
	switch {
	case e.Err != nil && e.Msg != "":
		return fmt.Sprintf("%s: %v: %s: %v", e.Op, e.Kind, e.Msg, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
	case e.Msg != "":
		return fmt.Sprintf("%s: %v: %s", e.Op, e.Kind, e.Msg)
	default:
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Validation reports malformed input with per-field messages.
func Validation(op string, fields ...FieldError) *Error {
	return &Error{Op: op, Kind: ErrValidation, Msg: "validation failed", Fields: fields}
}

// Conflict reports a uniqueness violation.
func Conflict(op, msg string) *Error {
	return &Error{Op: op, Kind: ErrConflict, Msg: msg}
}

// Unauthorized reports a credential, token or session failure.
func Unauthorized(op, msg string) *Error {
	return &Error{Op: op, Kind: ErrUnauthorized, Msg: msg}
}

// NotFound reports a lookup miss where existence is not sensitive.
func NotFound(op, msg string) *Error {
	return &Error{Op: op, Kind: ErrNotFound, Msg: msg}
}

// Internal wraps an unclassified failure. The cause is never shown to clients.
func Internal(op string, err error) *Error {
	return &Error{Op: op, Kind: ErrInternal, Msg: "internal error", Err: err}
}

// KindOf returns the sentinel kind of err, or ErrInternal for anything unclassified.
func KindOf(err error) error {
	for _, k := range []error{ErrValidation, ErrConflict, ErrUnauthorized, ErrNotFound} {
		if errors.Is(err, k) {
			return k
		}
	}
	return ErrInternal
}

// Message returns the client-safe message carried by err.
func Message(err error) string {
	var ae *Error
	if errors.As(err, &ae) && ae.Msg != "" {
		return ae.Msg
	}
	return "internal error"
}

// FieldsOf returns the per-field messages carried by err, if any.
func FieldsOf(err error) []FieldError {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Fields
	}
	return nil
}
