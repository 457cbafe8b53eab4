// Package errors defines the catalog error taxonomy and its HTTP mapping.
package errors

import (
	"errors"
	"fmt"
)

// Kind classifies an error for callers that must react to it.
type Kind string

const (
	// KindValidation marks input rejected before any store access.
	KindValidation Kind = "validation"
	// KindNotFound marks an identifier that does not resolve.
	KindNotFound Kind = "not_found"
	// KindStoreUnavailable marks a connection or transport failure of the store.
	KindStoreUnavailable Kind = "store_unavailable"
	// KindParse marks loader input that could not be read or decoded.
	KindParse Kind = "parse"
	// KindInternal is reported for errors that carry no Kind.
	KindInternal Kind = "internal"
)

// Error is a classified error. Message is safe to show to API clients.
type Error struct {
	Kind    Kind
	Message string
	Err     error
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

// Validation returns a KindValidation error.
func Validation(format string, args ...any) error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// NotFound returns a KindNotFound error.
func NotFound(message string) error {
	return &Error{Kind: KindNotFound, Message: message}
}

// StoreUnavailable wraps a store failure observed during op.
func StoreUnavailable(op string, err error) error {
	return &Error{Kind: KindStoreUnavailable, Message: op, Err: err}
}

// Parse wraps an input decoding failure.
func Parse(message string, err error) error {
	return &Error{Kind: KindParse, Message: message, Err: err}
}

// KindOf reports the Kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given Kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Message returns the client-facing message of a classified error,
// or fallback for anything else.
func Message(err error, fallback string) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != KindStoreUnavailable {
		return e.Message
	}
	return fallback
}
