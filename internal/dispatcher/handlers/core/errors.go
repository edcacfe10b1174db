package core

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArg indicates a command argument has an unusable value.
	ErrInvalidArg = errors.New("core: invalid argument")

	// ErrNoSuchNode indicates a path does not lead to a node.
	ErrNoSuchNode = errors.New("core: no node at path")

	// ErrUnknownKind indicates a kind name missing from the schema.
	ErrUnknownKind = errors.New("core: unknown kind")
)

// ArgError reports an invalid argument value.
type ArgError struct {
	Arg   string
	Value string
}

func (e *ArgError) Error() string {
	return fmt.Sprintf("core: invalid argument %s=%q", e.Arg, e.Value)
}

func (e *ArgError) Unwrap() error {
	return ErrInvalidArg
}
