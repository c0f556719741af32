package topology

import (
	"errors"
	"fmt"
)

// Common sentinel errors
var (
	ErrNodeNotFound = errors.New("node not found")
	ErrEdgeNotFound = errors.New("edge not found")
	ErrDuplicateID  = errors.New("duplicate element ID")
	ErrEmptyID      = errors.New("empty element ID")
	ErrDanglingEdge = errors.New("edge endpoint not in graph")
	ErrInvalidQName = errors.New("invalid qualified name")
	ErrTypeCycle    = errors.New("type hierarchy contains a cycle")
)

// GraphError provides structured error information for graph operations.
type GraphError struct {
	Op     string // Operation that failed (e.g., "AddEdge", "RemoveNode")
	Entity string // "node", "edge" or "type"
	ID     string
	Cause  error
}

// Error implements the error interface.
func (e *GraphError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s %s %q: %v", e.Op, e.Entity, e.ID, e.Cause)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Entity, e.Cause)
}

// Unwrap returns the underlying cause for error chain support.
func (e *GraphError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target error matches this error's cause.
func (e *GraphError) Is(target error) bool {
	if target == nil {
		return false
	}
	return errors.Is(e.Cause, target)
}

// ErrorBuilder provides a fluent interface for building GraphErrors.
type ErrorBuilder struct {
	err GraphError
}

// NewError creates a new error builder with the given operation.
func NewError(op string) *ErrorBuilder {
	return &ErrorBuilder{err: GraphError{Op: op}}
}

// Node sets the entity to "node" with the given ID.
func (b *ErrorBuilder) Node(id string) *ErrorBuilder {
	b.err.Entity = "node"
	b.err.ID = id
	return b
}

// Edge sets the entity to "edge" with the given ID.
func (b *ErrorBuilder) Edge(id string) *ErrorBuilder {
	b.err.Entity = "edge"
	b.err.ID = id
	return b
}

// Type sets the entity to "type" with the given name.
func (b *ErrorBuilder) Type(name QName) *ErrorBuilder {
	b.err.Entity = "type"
	b.err.ID = name.String()
	return b
}

// Cause sets the underlying error cause.
func (b *ErrorBuilder) Cause(err error) *ErrorBuilder {
	b.err.Cause = err
	return b
}

// Err returns the constructed error.
func (b *ErrorBuilder) Err() error {
	e := b.err
	return &e
}

// NodeNotFoundError creates a node not found error.
func NodeNotFoundError(op, id string) error {
	return NewError(op).Node(id).Cause(ErrNodeNotFound).Err()
}

// EdgeNotFoundError creates an edge not found error.
func EdgeNotFoundError(op, id string) error {
	return NewError(op).Edge(id).Cause(ErrEdgeNotFound).Err()
}
