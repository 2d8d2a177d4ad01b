package helper

import "fmt"

// Error wraps an underlying error with the operation that produced it.
type Error struct {
	Op  string
	Err error
}

// NewError creates a new wrapped error for the given operation.
func NewError(op string, err error) *Error {
	return &Error{Op: op, Err: err}
}

// Error implements the error interface
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for errors.Is/errors.As chains
func (e *Error) Unwrap() error {
	return e.Err
}
