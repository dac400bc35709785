package domain

import (
	"errors"
	"fmt"
)

// Kind classifies an error for callers that need to react to it
// (HTTP status mapping, retries, logging level).
type Kind string

const (
	KindUnauthenticated Kind = "unauthenticated"
	KindForbidden       Kind = "forbidden"
	KindNotFound        Kind = "not_found"
	KindValidation      Kind = "validation"
	KindConflict        Kind = "conflict"
	KindTransient       Kind = "transient"
	KindUnexpected      Kind = "unexpected"
)

// Error is a classified error with a message that is safe to show to API clients.
type Error struct {
	Kind    Kind
	Message string
	Err     error

	root bool
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the root sentinel of e's kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.root && t.Kind == e.Kind
}

// Root errors, one per kind. Match with errors.Is.
var (
	ErrUnauthenticated = &Error{Kind: KindUnauthenticated, Message: "authentication required", root: true}
	ErrForbidden       = &Error{Kind: KindForbidden, Message: "you don't have permission to access this resource", root: true}
	ErrNotFound        = &Error{Kind: KindNotFound, Message: "resource not found", root: true}
	ErrValidation      = &Error{Kind: KindValidation, Message: "invalid input", root: true}
	ErrConflict        = &Error{Kind: KindConflict, Message: "resource already exists", root: true}
	ErrTransient       = &Error{Kind: KindTransient, Message: "service temporarily unavailable, please retry", root: true}
	ErrUnexpected      = &Error{Kind: KindUnexpected, Message: "internal server error", root: true}
)

// NewError creates a classified sentinel error.
func NewError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap classifies err under kind, keeping it in the chain.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Validationf builds a validation error with a formatted message.
func Validationf(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of the first classified error in err's chain.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindUnexpected
}

// PublicMessage returns the client-facing message for err.
func PublicMessage(err error) string {
	var de *Error
	if errors.As(err, &de) && de.Kind != KindUnexpected {
		return de.Message
	}
	return ErrUnexpected.Message
}
