package store

import (
	"errors"
	"fmt"
)

// Common sentinel errors
var (
	ErrNotFound      = errors.New("element not found")
	ErrAlreadyExists = errors.New("element already exists")
	ErrInvalidID     = errors.New("invalid element ID")
	ErrClosed        = errors.New("store is closed")
)

// Error provides structured error information for store operations.
type Error struct {
	Op    string // Operation that failed (e.g., "GetElement", "Duplicate")
	ID    string // Element or type the operation addressed
	Cause error  // Underlying error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.ID, e.Cause)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Cause)
}

// Unwrap returns the underlying cause for error chain support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether the target error matches this error's cause.
func (e *Error) Is(target error) bool {
	if target == nil {
		return false
	}
	return errors.Is(e.Cause, target)
}

// NewError wraps cause for operation op on id.
func NewError(op string, id fmt.Stringer, cause error) error {
	e := &Error{Op: op, Cause: cause}
	if id != nil {
		e.ID = id.String()
	}
	return e
}

// Validate rejects IDs that cannot address an element.
func (id ElementID) Validate() error {
	if id.Kind == "" || id.Name == "" {
		return fmt.Errorf("%w: %q", ErrInvalidID, id.String())
	}
	return nil
}
