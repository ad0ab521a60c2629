// Package errors defines the typed error kinds of the service.
package errors

import (
	"errors"
	"fmt"
)

// Kind identifies the category of error
type Kind string

const (
	// KindBadInput indicates missing or non-integer request parameters
	KindBadInput Kind = "BAD_INPUT"

	// KindInvalidAge indicates a negative age
	KindInvalidAge Kind = "INVALID_AGE"

	// KindBracketMissing indicates no bracket covers the requested salary
	KindBracketMissing Kind = "BRACKET_MISSING"

	// KindMalformedBracket indicates nulls or negatives in a fetched row
	KindMalformedBracket Kind = "MALFORMED_BRACKET"

	// KindStorage indicates a storage backend I/O or connectivity failure
	KindStorage Kind = "STORAGE_ERROR"

	// KindInternal indicates anything else
	KindInternal Kind = "INTERNAL_ERROR"
)

// Error is a domain error carrying its kind and an optional cause
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new error
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf creates a new formatted error
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps an error with a kind and context message
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// KindOf extracts the kind of an error. Untyped errors are KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// MessageOf extracts the human-readable message of an error without the
// kind prefix. Untyped errors report their Error() text.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Cause != nil {
			return fmt.Sprintf("%s: %v", e.Message, e.Cause)
		}
		return e.Message
	}
	return err.Error()
}

// IsKind checks whether an error is of a specific kind
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// BadInput creates a bad input error
func BadInput(message string) *Error {
	return New(KindBadInput, message)
}

// BadInputf creates a formatted bad input error
func BadInputf(format string, args ...interface{}) *Error {
	return Newf(KindBadInput, format, args...)
}

// InvalidAge creates an invalid age error
func InvalidAge(age int) *Error {
	return Newf(KindInvalidAge, "age must not be negative, got %d", age)
}

// BracketMissing creates an error for a salary no bracket covers
func BracketMissing(monthlySalary int) *Error {
	return Newf(KindBracketMissing, "no premium bracket found for monthly salary %d", monthlySalary)
}

// MalformedBracket creates an error for an unusable bracket row
func MalformedBracket(message string) *Error {
	return New(KindMalformedBracket, message)
}

// Storage creates a storage failure error
func Storage(message string, cause error) *Error {
	return Wrap(KindStorage, message, cause)
}

// Internal creates an internal error
func Internal(message string, cause error) *Error {
	return Wrap(KindInternal, message, cause)
}
