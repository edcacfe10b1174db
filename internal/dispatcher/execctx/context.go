// Package execctx provides the execution context handed to command handlers.
package execctx

import (
	"context"

	"github.com/google/uuid"

	"github.com/dshills/quire/internal/engine/vnode"
	"github.com/dshills/quire/internal/engine/vrange"
	"github.com/dshills/quire/internal/logging"
)

type contextKey struct{}

// ExecutionContext carries everything a command needs while it runs: the
// document root, the persistent selection range and the ancestors that
// matched the command's selector.
type ExecutionContext struct {
	// ID uniquely identifies this execution.
	ID string

	// Command is the name of the command being executed.
	Command string

	// Root is the document root.
	Root *vnode.Node

	// Range is the persistent selection. Handlers may move it.
	Range *vrange.Range

	// Selector holds the ancestors of the range start that matched the
	// command's selector, outermost first.
	Selector []*vnode.Node

	// Logger is scoped to this execution.
	Logger *logging.Logger

	// Parent is the enclosing execution for nested dispatches.
	Parent *ExecutionContext

	// Data holds handler-specific context data.
	Data map[string]any

	ctx context.Context
}

// New creates an execution context over root and rng.
func New(root *vnode.Node, rng *vrange.Range) *ExecutionContext {
	return &ExecutionContext{
		ID:     uuid.NewString(),
		Root:   root,
		Range:  rng,
		Logger: logging.Nop(),
		Data:   make(map[string]any),
	}
}

// Child creates the context for a command dispatched from inside ec. The
// child shares the root and range.
func (ec *ExecutionContext) Child(command string) *ExecutionContext {
	c := New(ec.Root, ec.Range)
	c.Command = command
	c.Parent = ec
	c.Logger = ec.Logger
	c.ctx = ec.ctx
	return c
}

// Depth returns the nesting depth, 0 for a top-level dispatch.
func (ec *ExecutionContext) Depth() int {
	d := 0
	for p := ec.Parent; p != nil; p = p.Parent {
		d++
	}
	return d
}

// WithContext binds ec to parent. The context returned by Context carries
// ec so that nested dispatches can find it.
func (ec *ExecutionContext) WithContext(parent context.Context) *ExecutionContext {
	if parent == nil {
		parent = context.Background()
	}
	ec.ctx = context.WithValue(parent, contextKey{}, ec)
	return ec
}

// WithLogger returns the context with the logger set.
func (ec *ExecutionContext) WithLogger(l *logging.Logger) *ExecutionContext {
	ec.Logger = logging.OrNop(l)
	return ec
}

// Context returns a context.Context carrying ec.
func (ec *ExecutionContext) Context() context.Context {
	if ec.ctx == nil || ec.ctx.Value(contextKey{}) != ec {
		parent := ec.ctx
		if parent == nil {
			parent = context.Background()
		}
		ec.ctx = context.WithValue(parent, contextKey{}, ec)
	}
	return ec.ctx
}

// FromContext returns the execution context stored in ctx, if any.
func FromContext(ctx context.Context) (*ExecutionContext, bool) {
	if ctx == nil {
		return nil, false
	}
	ec, ok := ctx.Value(contextKey{}).(*ExecutionContext)
	return ec, ok && ec != nil
}

// SelectorNode returns the i-th matched selector ancestor, or nil.
func (ec *ExecutionContext) SelectorNode(i int) *vnode.Node {
	if i < 0 || i >= len(ec.Selector) {
		return nil
	}
	return ec.Selector[i]
}

// IsCollapsed reports whether the range is collapsed.
func (ec *ExecutionContext) IsCollapsed() bool {
	return ec.Range != nil && ec.Range.IsCollapsed()
}

// SetData sets a context data value.
func (ec *ExecutionContext) SetData(key string, value any) {
	if ec.Data == nil {
		ec.Data = make(map[string]any)
	}
	ec.Data[key] = value
}

// GetData retrieves a context data value.
func (ec *ExecutionContext) GetData(key string) (any, bool) {
	if ec.Data == nil {
		return nil, false
	}
	v, ok := ec.Data[key]
	return v, ok
}

// GetDataString retrieves a string value from context data.
func (ec *ExecutionContext) GetDataString(key string) string {
	if v, ok := ec.GetData(key); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// GetDataInt retrieves an int value from context data.
func (ec *ExecutionContext) GetDataInt(key string) int {
	if v, ok := ec.GetData(key); ok {
		switch n := v.(type) {
		case int:
			return n
		case int64:
			return int(n)
		case float64:
			return int(n)
		}
	}
	return 0
}

// GetDataBool retrieves a bool value from context data.
func (ec *ExecutionContext) GetDataBool(key string) bool {
	if v, ok := ec.GetData(key); ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return false
}

// Validate checks that the context has a root and an attached range.
func (ec *ExecutionContext) Validate() error {
	if ec.Root == nil {
		return ErrMissingRoot
	}
	if ec.Range == nil {
		return ErrMissingRange
	}
	if !ec.Range.Attached() || ec.Range.Start().Root() != ec.Root.Root() {
		return ErrDetachedRange
	}
	return nil
}
