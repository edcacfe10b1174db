package schema

import (
	"errors"
	"fmt"
)

// Schema errors.
var (
	// ErrDuplicateKind indicates a kind name is already registered.
	ErrDuplicateKind = errors.New("schema: duplicate kind")

	// ErrDuplicateTag indicates a tag is already bound to a kind or format.
	ErrDuplicateTag = errors.New("schema: duplicate tag")

	// ErrUnknownTag indicates a tag that maps to neither a kind nor a format.
	ErrUnknownTag = errors.New("schema: unknown tag")

	// ErrInvalidDefinition indicates a kind definition is self-contradictory.
	ErrInvalidDefinition = errors.New("schema: invalid kind definition")
)

// DefinitionError describes why a definition was rejected.
type DefinitionError struct {
	Name   string
	Reason string
}

func (e *DefinitionError) Error() string {
	return fmt.Sprintf("schema: kind %q: %s", e.Name, e.Reason)
}

func (e *DefinitionError) Unwrap() error {
	return ErrInvalidDefinition
}
