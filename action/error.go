package action

import (
	"errors"
	"fmt"
)

// Error represents a structured action failure that preserves message and
// causal context while implementing the standard error interface. Errors
// may be nested via Cause to retain diagnostics across a delegation chain
// or a retried action dispatch.
type Error struct {
	Message string
	Cause   *Error
}

// NewError constructs an Error with the given message.
func NewError(message string) *Error {
	if message == "" {
		message = "action error"
	}
	return &Error{Message: message}
}

// NewErrorWithCause constructs an Error wrapping an underlying error,
// converting it into an Error chain so Unwrap keeps working after a
// round-trip through an action reply message.
func NewErrorWithCause(message string, cause error) *Error {
	if message == "" && cause != nil {
		message = cause.Error()
	}
	return &Error{Message: message, Cause: FromError(cause)}
}

// FromError converts an arbitrary error into an Error chain.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return &Error{Message: err.Error(), Cause: FromError(errors.Unwrap(err))}
}

// Errorf formats according to a format specifier and returns an Error.
func Errorf(format string, args ...any) *Error {
	return NewError(fmt.Sprintf(format, args...))
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

// Unwrap returns the underlying cause to support errors.Is/As.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}
