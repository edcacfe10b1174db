package event

import (
	"time"

	"github.com/google/uuid"
)

// Event is one notification. Events are immutable once published.
type Event struct {
	Topic   Topic
	Payload any

	// ID is unique per event.
	ID        string
	Timestamp time.Time
	// Source names the publishing component.
	Source string
}

// New creates an event stamped with a fresh id and the current time.
func New(t Topic, payload any, source string) Event {
	return Event{
		Topic:     t,
		Payload:   payload,
		ID:        uuid.NewString(),
		Timestamp: time.Now(),
		Source:    source,
	}
}

// CommandDispatched is the payload of TopicCommandDispatched.
type CommandDispatched struct {
	Command     string
	Args        map[string]any
	ExecutionID string
	// Nested is set for commands dispatched by another command.
	Nested   bool
	Status   string
	Message  string
	Duration time.Duration
}

// DocumentChanged is the payload of TopicDocumentChanged.
type DocumentChanged struct {
	// Container is the kind name of the node whose children changed.
	Container string
	NodeID    uint64
}

// DocumentSaved is the payload of TopicDocumentSaved.
type DocumentSaved struct {
	// Path is empty for a save to the store; Name is then set.
	Path   string
	Name   string
	Format string
}
