package dispatcher

import (
	"errors"
	"fmt"
)

// Dispatcher errors.
var (
	// ErrNoHandler indicates no command is registered under the name.
	ErrNoHandler = errors.New("dispatcher: no handler for command")

	// ErrNoMatch indicates commands exist under the name but none of their
	// selectors or checks match the current range.
	ErrNoMatch = errors.New("dispatcher: no definition matches the context")

	// ErrCommandCancelled indicates the command was cancelled by a hook.
	ErrCommandCancelled = errors.New("dispatcher: command cancelled by hook")

	// ErrPanic indicates the handler panicked.
	ErrPanic = errors.New("dispatcher: handler panic")

	// ErrInvalidCommand indicates the command definition is unusable.
	ErrInvalidCommand = errors.New("dispatcher: invalid command")

	// ErrTooDeep indicates nested dispatches exceeded Config.MaxDepth.
	ErrTooDeep = errors.New("dispatcher: nested dispatch too deep")
)

// PanicError records a recovered handler panic.
type PanicError struct {
	Command string
	Value   any
	Stack   []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("handler panic for %s: %v", e.Command, e.Value)
}

func (e *PanicError) Unwrap() error {
	return ErrPanic
}
