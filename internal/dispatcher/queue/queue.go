// Package queue serializes edit commands through a single goroutine, so
// that commands derived from concurrent input run one at a time.
//
// Usage:
//
//	q := queue.New(64, logger)
//	go q.Run(ctx)
//	defer q.Close()
//
//	// From any goroutine:
//	result := q.Dispatch(ctx, d, handler.NewAction("insertText", "text", "x"))
package queue

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/dshills/quire/internal/dispatcher"
	"github.com/dshills/quire/internal/dispatcher/handler"
	"github.com/dshills/quire/internal/logging"
)

// DefaultSize is the buffer size used when New is given a non-positive
// size.
const DefaultSize = 100

// Func is a unit of work run on the queue goroutine. Its context carries
// the caller's values but is never cancelled: a started call runs to
// completion.
type Func func(ctx context.Context) error

type call struct {
	ctx    context.Context
	fn     Func
	result chan error
}

// Queue runs calls one at a time in submission order.
type Queue struct {
	queue     chan *call
	done      chan struct{}
	closed    atomic.Bool
	closeOnce sync.Once
	logger    *logging.Logger

	// stopped is closed once Run has returned and drained the buffer.
	stopped  chan struct{}
	started  atomic.Bool
	stopOnce sync.Once

	processed atomic.Uint64
}

// New creates a queue buffering up to size calls.
func New(size int, logger *logging.Logger) *Queue {
	if size <= 0 {
		size = DefaultSize
	}
	return &Queue{
		queue:   make(chan *call, size),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
		logger:  logging.OrNop(logger).WithComponent("queue"),
	}
}

// Run processes calls until ctx is cancelled or Close is called. Calls
// still buffered at that point fail with the cancellation cause or
// ErrQueueClosed. Either way the queue is closed when Run returns.
func (q *Queue) Run(ctx context.Context) {
	q.started.Store(true)
	q.logger.Debug("queue started")
	defer q.stopOnce.Do(func() { close(q.stopped) })
	for {
		select {
		case <-ctx.Done():
			q.Close()
			q.drain(ctx.Err())
			return
		case <-q.done:
			q.drain(ErrQueueClosed)
			return
		case c := <-q.queue:
			q.finish(c, q.execute(c))
		}
	}
}

func (q *Queue) execute(c *call) (err error) {
	defer func() {
		if r := recover(); r != nil {
			q.logger.Error("recovered panic in queued call: %v", r)
			err = fmt.Errorf("%w: %v", ErrPanic, r)
		}
	}()
	defer q.processed.Add(1)
	return c.fn(c.ctx)
}

func (q *Queue) finish(c *call, err error) {
	// Buffered with room for one, so this never blocks.
	c.result <- err
	close(c.result)
}

func (q *Queue) drain(err error) {
	for {
		select {
		case c := <-q.queue:
			q.finish(c, err)
		default:
			return
		}
	}
}

// wait returns the result of a queued call. A call that slipped into the
// buffer after the final drain fails with ErrQueueClosed.
func (q *Queue) wait(ctx context.Context, c *call) error {
	if q.closed.Load() && !q.started.Load() {
		q.drain(ErrQueueClosed)
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-c.result:
		return err
	case <-q.stopped:
		select {
		case err := <-c.result:
			return err
		default:
			return ErrQueueClosed
		}
	}
}

func (q *Queue) newCall(ctx context.Context, fn Func) *call {
	return &call{
		ctx:    context.WithoutCancel(ctx),
		fn:     fn,
		result: make(chan error, 1),
	}
}

// Execute queues fn and waits for it to finish. If ctx is cancelled first,
// Execute returns ctx.Err() and stops waiting; a call already queued still
// runs.
func (q *Queue) Execute(ctx context.Context, fn Func) error {
	if q.closed.Load() {
		return ErrQueueClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	c := q.newCall(ctx, fn)

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-q.done:
		return ErrQueueClosed
	case q.queue <- c:
	}
	return q.wait(ctx, c)
}

// ExecuteAsync queues fn without waiting. It fails with ErrQueueFull
// rather than block.
func (q *Queue) ExecuteAsync(fn Func) error {
	if q.closed.Load() {
		return ErrQueueClosed
	}
	c := q.newCall(context.Background(), fn)

	select {
	case <-q.done:
		return ErrQueueClosed
	case q.queue <- c:
		go func() {
			if err := q.wait(context.Background(), c); err != nil {
				q.logger.Warn("async call failed: %v", err)
			}
		}()
		return nil
	default:
		return ErrQueueFull
	}
}

// Dispatch runs action through d on the queue goroutine. Failing to queue
// or to wait yields an error result, or a cancelled one when ctx ended.
func (q *Queue) Dispatch(ctx context.Context, d *dispatcher.Dispatcher, action handler.Action) handler.Result {
	var result handler.Result
	err := q.Execute(ctx, func(ctx context.Context) error {
		result = d.Dispatch(ctx, action)
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			r := handler.CancelledWithMessage(err.Error())
			r.Error = err
			return r
		}
		return handler.Error(err)
	}
	return result
}

// Close stops the queue. Buffered calls fail with ErrQueueClosed.
func (q *Queue) Close() {
	q.closeOnce.Do(func() {
		q.closed.Store(true)
		close(q.done)
	})
}

// IsClosed reports whether Close was called or Run has stopped.
func (q *Queue) IsClosed() bool {
	return q.closed.Load()
}

// Pending returns the number of buffered calls.
func (q *Queue) Pending() int {
	return len(q.queue)
}

// Processed returns the number of calls run so far.
func (q *Queue) Processed() uint64 {
	return q.processed.Load()
}
