package markup

import (
	"errors"
	"fmt"
)

// Markup errors.
var (
	// ErrDuplicateMarker indicates more than one "[" or "]" in a document.
	ErrDuplicateMarker = errors.New("markup: duplicate range marker")

	// ErrMarkerOrder indicates "]" appearing before "[".
	ErrMarkerOrder = errors.New("markup: end marker precedes start marker")

	// ErrUnknownKind indicates a JSON node whose kind is not registered.
	ErrUnknownKind = errors.New("markup: unknown kind")

	// ErrInvalidJSON indicates malformed JSON input.
	ErrInvalidJSON = errors.New("markup: invalid JSON")
)

// SyntaxError reports malformed markup.
type SyntaxError struct {
	Line int
	Err  error
}

func (e *SyntaxError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("markup: line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("markup: %v", e.Err)
}

func (e *SyntaxError) Unwrap() error {
	return e.Err
}
