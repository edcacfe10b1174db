package engine

import "errors"

// Errors returned by engine operations.
var (
	// ErrNothingToUndo indicates the undo stack is empty.
	ErrNothingToUndo = errors.New("nothing to undo")

	// ErrNothingToRedo indicates the redo stack is empty.
	ErrNothingToRedo = errors.New("nothing to redo")

	// ErrReadOnly indicates an operation was attempted on a read-only engine.
	ErrReadOnly = errors.New("engine is read-only")
)

// EditError reports a failed edit. The document was rolled back to its
// state before the edit.
type EditError struct {
	Name string
	Err  error
}

func (e *EditError) Error() string {
	return "edit " + e.Name + ": " + e.Err.Error()
}

func (e *EditError) Unwrap() error {
	return e.Err
}
