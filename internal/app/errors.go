package app

import (
	"errors"
	"fmt"
)

// Application errors.
var (
	// ErrClosed indicates the application has been shut down.
	ErrClosed = errors.New("application closed")

	// ErrNoFilePath indicates a save of a document that was never given a path.
	ErrNoFilePath = errors.New("document has no file path")

	// ErrReadOnly indicates a write to a read-only document.
	ErrReadOnly = errors.New("document is read-only")

	// ErrUnknownFormat indicates an output format other than markup, json or text.
	ErrUnknownFormat = errors.New("unknown document format")

	// ErrGroupOpen indicates BeginGroup while an undo group is open.
	ErrGroupOpen = errors.New("undo group already open")

	// ErrNoGroup indicates EndGroup without an open undo group.
	ErrNoGroup = errors.New("no undo group open")
)

// InitError reports a component that failed to start.
type InitError struct {
	Component string
	Err       error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("initializing %s: %v", e.Component, e.Err)
}

func (e *InitError) Unwrap() error {
	return e.Err
}

// FileError reports a failed document read or write.
type FileError struct {
	Op   string
	Path string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}
