package event

import "errors"

// Errors returned by the bus.
var (
	ErrBusNotRunning        = errors.New("event: bus not running")
	ErrBusAlreadyRunning    = errors.New("event: bus already running")
	ErrQueueFull            = errors.New("event: async queue full")
	ErrNilHandler           = errors.New("event: handler is nil")
	ErrInvalidTopic         = errors.New("event: invalid topic")
	ErrSubscriptionNotFound = errors.New("event: subscription not found")
)

// PanicError wraps a value recovered from a handler.
type PanicError struct {
	Topic Topic
	Value any
}

func (e *PanicError) Error() string {
	return "event: handler for " + string(e.Topic) + " panicked"
}
