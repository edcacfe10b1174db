package history

import (
	"errors"
	"fmt"
)

// Common errors for history operations.
var (
	ErrNothingToUndo = errors.New("nothing to undo")
	ErrNothingToRedo = errors.New("nothing to redo")
	ErrStaleLocation = errors.New("history: location does not resolve")
)

// LocationError reports a marker location that does not exist in the
// restored tree.
type LocationError struct {
	Location Location
}

func (e *LocationError) Error() string {
	return fmt.Sprintf("history: location %v+%d does not resolve", e.Location.Path, e.Location.Offset)
}

func (e *LocationError) Unwrap() error {
	return ErrStaleLocation
}
