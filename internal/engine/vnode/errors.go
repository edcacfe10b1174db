package vnode

import (
	"errors"
	"fmt"
)

// Errors returned by node operations.
var (
	// ErrNotAChild indicates a structural operation was given a reference
	// node that is not a child of the receiver.
	ErrNotAChild = errors.New("vnode: not a child")

	// ErrInvalidArgument indicates a construction or call precondition was
	// violated.
	ErrInvalidArgument = errors.New("vnode: invalid argument")

	// ErrAtomic indicates an attempt to give children to an atomic node.
	ErrAtomic = fmt.Errorf("%w: atomic node cannot have children", ErrInvalidArgument)
)

// ChildError describes a reference node that is not a child of the
// container it was handed to.
type ChildError struct {
	// Parent is the container the operation was called on.
	Parent *Node
	// Child is the offending node.
	Child *Node
}

// Error implements the error interface.
func (e *ChildError) Error() string {
	return fmt.Sprintf("vnode: %s is not a child of %s", e.Child, e.Parent)
}

// Unwrap returns ErrNotAChild.
func (e *ChildError) Unwrap() error {
	return ErrNotAChild
}

// ArgumentError describes a violated precondition.
type ArgumentError struct {
	// Op is the operation that rejected its argument.
	Op string
	// Reason explains the rejection.
	Reason string
}

// Error implements the error interface.
func (e *ArgumentError) Error() string {
	return fmt.Sprintf("vnode: %s: %s", e.Op, e.Reason)
}

// Unwrap returns ErrInvalidArgument.
func (e *ArgumentError) Unwrap() error {
	return ErrInvalidArgument
}

func argError(op, reason string) error {
	return &ArgumentError{Op: op, Reason: reason}
}
