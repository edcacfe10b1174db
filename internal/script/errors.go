package script

import (
	"errors"
	"fmt"
)

var (
	// ErrStateClosed is returned when using a closed state.
	ErrStateClosed = errors.New("script: state is closed")

	// ErrCallLimit is returned when a script exceeds its API call budget.
	ErrCallLimit = errors.New("script: call limit exceeded")

	// ErrTimeout is returned when a script runs past its deadline.
	ErrTimeout = errors.New("script: execution timeout")

	// ErrInvalidCommand is returned for a malformed command registration.
	ErrInvalidCommand = errors.New("script: invalid command")
)

// Error reports a failure while loading a script or running one of its
// commands.
type Error struct {
	// Source is the script file or chunk name.
	Source string
	// Command is set when the failure happened inside a command.
	Command string
	Err     error
}

func (e *Error) Error() string {
	if e.Command != "" {
		return fmt.Sprintf("script %s: command %s: %v", e.Source, e.Command, e.Err)
	}
	return fmt.Sprintf("script %s: %v", e.Source, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
