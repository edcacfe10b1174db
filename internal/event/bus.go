package event

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/dshills/quire/internal/logging"
)

// DefaultQueueSize bounds the async queue when no size is given.
const DefaultQueueSize = 256

// BusOption configures a Bus.
type BusOption func(*Bus)

// WithQueueSize sets the async queue capacity.
func WithQueueSize(n int) BusOption {
	return func(b *Bus) {
		if n > 0 {
			b.queueSize = n
		}
	}
}

// WithLogger sets the logger for handler failures.
func WithLogger(l *logging.Logger) BusOption {
	return func(b *Bus) {
		b.logger = logging.OrNop(l).WithComponent("event")
	}
}

// Stats reports bus counters.
type Stats struct {
	Published uint64
	Delivered uint64
	Dropped   uint64
	Errors    uint64
	Panics    uint64
}

type delivery struct {
	ev  Event
	sub *Subscription
}

// Bus routes events to subscriptions.
type Bus struct {
	mu   sync.RWMutex
	subs []*Subscription
	seq  uint64

	queueSize int
	queue     chan delivery
	done      chan struct{}
	running   atomic.Bool
	logger    *logging.Logger

	published atomic.Uint64
	delivered atomic.Uint64
	dropped   atomic.Uint64
	errors    atomic.Uint64
	panics    atomic.Uint64
}

// NewBus creates a stopped bus. Synchronous delivery works without Start.
func NewBus(opts ...BusOption) *Bus {
	b := &Bus{queueSize: DefaultQueueSize, logger: logging.Nop()}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Start launches the async worker.
func (b *Bus) Start() error {
	if !b.running.CompareAndSwap(false, true) {
		return ErrBusAlreadyRunning
	}
	b.queue = make(chan delivery, b.queueSize)
	b.done = make(chan struct{})
	go b.work(b.queue, b.done)
	return nil
}

func (b *Bus) work(queue <-chan delivery, done chan<- struct{}) {
	defer close(done)
	for d := range queue {
		b.deliver(d.ev, d.sub)
	}
}

// Stop closes the async queue and waits until queued events are handled
// or ctx ends.
func (b *Bus) Stop(ctx context.Context) error {
	if !b.running.CompareAndSwap(true, false) {
		return ErrBusNotRunning
	}
	b.mu.Lock()
	close(b.queue)
	b.mu.Unlock()
	select {
	case <-b.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// IsRunning reports whether the async worker is running.
func (b *Bus) IsRunning() bool {
	return b.running.Load()
}

// Subscribe registers h for topics matching pattern.
func (b *Bus) Subscribe(pattern Topic, h Handler, opts ...SubscriptionOption) (*Subscription, error) {
	if h == nil {
		return nil, ErrNilHandler
	}
	if !pattern.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTopic, pattern)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.seq++
	sub := newSubscription(pattern, h, b.seq, opts)
	b.subs = append(b.subs, sub)
	return sub, nil
}

// SubscribeFunc registers fn for topics matching pattern.
func (b *Bus) SubscribeFunc(pattern Topic, fn func(Event) error, opts ...SubscriptionOption) (*Subscription, error) {
	if fn == nil {
		return nil, ErrNilHandler
	}
	return b.Subscribe(pattern, HandlerFunc(fn), opts...)
}

// Unsubscribe cancels and removes sub.
func (b *Bus) Unsubscribe(sub *Subscription) error {
	if sub == nil {
		return ErrSubscriptionNotFound
	}
	sub.Cancel()
	b.mu.Lock()
	defer b.mu.Unlock()
	n := len(b.subs)
	b.subs = slices.DeleteFunc(b.subs, func(s *Subscription) bool { return s == sub })
	if len(b.subs) == n {
		return ErrSubscriptionNotFound
	}
	return nil
}

// matching returns the subscriptions accepting ev, highest priority first
// and in subscription order within a priority.
func (b *Bus) matching(ev Event) []*Subscription {
	b.mu.RLock()
	defer b.mu.RUnlock()
	var out []*Subscription
	for _, s := range b.subs {
		if s.accepts(ev) {
			out = append(out, s)
		}
	}
	slices.SortStableFunc(out, func(x, y *Subscription) int {
		return int(y.config.priority) - int(x.config.priority)
	})
	return out
}

// Publish delivers ev to synchronous subscribers before returning and
// queues it for asynchronous ones. Async subscribers miss events published
// while the bus is stopped or its queue is full.
func (b *Bus) Publish(ctx context.Context, ev Event) error {
	if !ev.Topic.Valid() || ev.Topic.IsPattern() {
		return fmt.Errorf("%w: %q", ErrInvalidTopic, ev.Topic)
	}
	b.published.Add(1)

	var dropped bool
	for _, sub := range b.matching(ev) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if sub.config.mode == DeliverySync {
			b.deliver(ev, sub)
			continue
		}
		if !b.enqueue(delivery{ev: ev, sub: sub}) {
			b.dropped.Add(1)
			dropped = true
		}
	}
	if dropped {
		return ErrQueueFull
	}
	return nil
}

func (b *Bus) enqueue(d delivery) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.running.Load() {
		return false
	}
	select {
	case b.queue <- d:
		return true
	default:
		return false
	}
}

func (b *Bus) deliver(ev Event, sub *Subscription) {
	if !sub.IsActive() {
		return
	}
	if err := b.call(ev, sub.handler); err != nil {
		b.errors.Add(1)
		b.logger.Warn("handler for %s failed: %v", ev.Topic, err)
		return
	}
	b.delivered.Add(1)
	if sub.config.once {
		sub.Cancel()
		_ = b.Unsubscribe(sub)
	}
}

func (b *Bus) call(ev Event, h Handler) (err error) {
	defer func() {
		if r := recover(); r != nil {
			b.panics.Add(1)
			err = &PanicError{Topic: ev.Topic, Value: r}
		}
	}()
	return h.Handle(ev)
}

// Stats returns the bus counters.
func (b *Bus) Stats() Stats {
	return Stats{
		Published: b.published.Load(),
		Delivered: b.delivered.Load(),
		Dropped:   b.dropped.Load(),
		Errors:    b.errors.Load(),
		Panics:    b.panics.Load(),
	}
}
