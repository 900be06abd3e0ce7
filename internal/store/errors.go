package store

import "fmt"

// Error is a store-level failure. Callers compare against the sentinels with errors.Is.
type Error struct {
	Kind    string // stable identifier, e.g. "not_found"
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error with the same Kind, so wrapped copies still match their sentinel.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// WithMessage returns a new error with a custom message.
func (e *Error) WithMessage(msg string) *Error {
	return &Error{Kind: e.Kind, Message: msg, Err: e.Err}
}

// WithCause wraps an underlying error.
func (e *Error) WithCause(err error) *Error {
	return &Error{Kind: e.Kind, Message: e.Message, Err: err}
}

// Sentinel errors.
var (
	ErrNotFound = &Error{
		Kind:    "not_found",
		Message: "resource not found",
	}

	ErrAlreadyExists = &Error{
		Kind:    "already_exists",
		Message: "resource already exists",
	}

	ErrInvalidInput = &Error{
		Kind:    "invalid_input",
		Message: "invalid input",
	}
)
