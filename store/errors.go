package store

import "fmt"

// Kind identifies which external store an operation ran against.
type Kind string

const (
	KindVector Kind = "vector"
	KindGraph  Kind = "graph"
)

// OpError reports a failed call against one of the two stores. Engines
// surface it unchanged for identity-defining steps and absorb it (log
// only) for enrichment steps.
type OpError struct {
	Store Kind
	Op    string
	Err   error
}

// Error implements the error interface
func (e *OpError) Error() string {
	return fmt.Sprintf("%s store %s: %v", e.Store, e.Op, e.Err)
}

// Unwrap returns the underlying error
func (e *OpError) Unwrap() error {
	return e.Err
}

// NewVectorError wraps a failed vector index call.
func NewVectorError(op string, err error) *OpError {
	return &OpError{Store: KindVector, Op: op, Err: err}
}

// NewGraphError wraps a failed graph store call.
func NewGraphError(op string, err error) *OpError {
	return &OpError{Store: KindGraph, Op: op, Err: err}
}
