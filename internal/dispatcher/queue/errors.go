package queue

import "errors"

var (
	// ErrQueueClosed is returned when using a closed queue.
	ErrQueueClosed = errors.New("queue: closed")

	// ErrQueueFull is returned by ExecuteAsync when no slot is free.
	ErrQueueFull = errors.New("queue: full")

	// ErrPanic wraps a panic raised by a queued function.
	ErrPanic = errors.New("queue: panic in queued call")
)
