package event

import (
	"sync/atomic"

	"github.com/google/uuid"
)

// Handler receives events.
type Handler interface {
	Handle(ev Event) error
}

// HandlerFunc is a function adapter for Handler.
type HandlerFunc func(ev Event) error

// Handle implements Handler.
func (f HandlerFunc) Handle(ev Event) error {
	return f(ev)
}

// Priority orders synchronous handlers; higher runs first.
type Priority int

// Common priorities.
const (
	PriorityLow      Priority = 25
	PriorityNormal   Priority = 50
	PriorityHigh     Priority = 75
	PriorityCritical Priority = 100
)

// DeliveryMode selects how a subscription receives events.
type DeliveryMode uint8

const (
	// DeliverySync runs the handler on the publisher's goroutine.
	DeliverySync DeliveryMode = iota
	// DeliveryAsync runs the handler on the bus worker.
	DeliveryAsync
)

type subscriptionConfig struct {
	priority Priority
	mode     DeliveryMode
	once     bool
	filter   func(Event) bool
}

// SubscriptionOption configures a subscription.
type SubscriptionOption func(*subscriptionConfig)

// WithPriority sets the delivery priority.
func WithPriority(p Priority) SubscriptionOption {
	return func(c *subscriptionConfig) { c.priority = p }
}

// WithAsync delivers on the bus worker.
func WithAsync() SubscriptionOption {
	return func(c *subscriptionConfig) { c.mode = DeliveryAsync }
}

// WithOnce cancels the subscription after the first successful delivery.
func WithOnce() SubscriptionOption {
	return func(c *subscriptionConfig) { c.once = true }
}

// WithFilter skips events for which fn returns false.
func WithFilter(fn func(Event) bool) SubscriptionOption {
	return func(c *subscriptionConfig) { c.filter = fn }
}

// Subscription is a registered handler.
type Subscription struct {
	id      string
	pattern Topic
	handler Handler
	config  subscriptionConfig
	seq     uint64

	cancelled atomic.Bool
	paused    atomic.Bool
}

func newSubscription(pattern Topic, h Handler, seq uint64, opts []SubscriptionOption) *Subscription {
	cfg := subscriptionConfig{priority: PriorityNormal}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Subscription{id: uuid.NewString(), pattern: pattern, handler: h, config: cfg, seq: seq}
}

// ID returns the subscription id.
func (s *Subscription) ID() string { return s.id }

// Topic returns the subscribed pattern.
func (s *Subscription) Topic() Topic { return s.pattern }

// Pause stops delivery until Resume.
func (s *Subscription) Pause() { s.paused.Store(true) }

// Resume restarts delivery.
func (s *Subscription) Resume() { s.paused.Store(false) }

// Cancel stops delivery for good.
func (s *Subscription) Cancel() { s.cancelled.Store(true) }

// IsActive reports whether the subscription receives events.
func (s *Subscription) IsActive() bool {
	return !s.cancelled.Load() && !s.paused.Load()
}

func (s *Subscription) accepts(ev Event) bool {
	if !s.IsActive() || !ev.Topic.Matches(s.pattern) {
		return false
	}
	return s.config.filter == nil || s.config.filter(ev)
}
