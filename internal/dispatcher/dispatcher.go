package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/dshills/quire/internal/dispatcher/execctx"
	"github.com/dshills/quire/internal/dispatcher/handler"
	"github.com/dshills/quire/internal/engine/vnode"
	"github.com/dshills/quire/internal/engine/vrange"
	"github.com/dshills/quire/internal/logging"
)

// ErrNoEditor indicates Dispatch was called before SetEditor.
var ErrNoEditor = errors.New("dispatcher: no editor set")

// Editor runs fn as one atomic edit of a document. A failing fn must leave
// the document unchanged.
type Editor interface {
	Edit(name string, fn func(root *vnode.Node, sel *vrange.Range) error) error
}

// Dispatcher matches named commands against the current range and runs
// them as edits.
type Dispatcher struct {
	mu sync.RWMutex

	registry *Registry
	editor   Editor
	config   Config
	logger   *logging.Logger
	metrics  *Metrics

	preHooks     []PreDispatchHook
	postHooks    []PostDispatchHook
	commandHooks map[string][]CommandHook
}

// New creates a new dispatcher with the given configuration.
func New(config Config) *Dispatcher {
	d := &Dispatcher{
		registry:     NewRegistry(),
		config:       config,
		logger:       logging.Nop(),
		commandHooks: make(map[string][]CommandHook),
	}
	if config.EnableMetrics {
		d.metrics = NewMetrics()
	}
	return d
}

// NewWithDefaults creates a new dispatcher with default configuration.
func NewWithDefaults() *Dispatcher {
	return New(DefaultConfig())
}

// SetEditor sets the document editor commands run against.
func (d *Dispatcher) SetEditor(e Editor) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.editor = e
}

// Editor returns the document editor.
func (d *Dispatcher) Editor() Editor {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.editor
}

// SetLogger sets the logger. A nil logger disables logging.
func (d *Dispatcher) SetLogger(l *logging.Logger) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.logger = logging.OrNop(l).WithComponent("dispatcher")
}

func (d *Dispatcher) log() *logging.Logger {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.logger
}

// Execute dispatches the command name with args.
func (d *Dispatcher) Execute(ctx context.Context, name string, args execctx.Args) handler.Result {
	return d.Dispatch(ctx, handler.Action{Name: name, Args: args})
}

// Dispatch runs action.
//
// At top level the command runs as a single edit of the document: when it
// fails the document and range are restored. When ctx carries the
// execution context of a running command, as returned by its Context
// method, the command runs nested inside that edit on the same range and
// its failure is reported to the caller without rollback.
func (d *Dispatcher) Dispatch(ctx context.Context, action handler.Action) handler.Result {
	start := time.Now()
	if ctx == nil {
		ctx = context.Background()
	}

	var result handler.Result
	if parent, ok := execctx.FromContext(ctx); ok {
		result = d.dispatchNested(parent, action)
	} else {
		result = d.dispatchEdit(ctx, action)
	}

	elapsed := time.Since(start)
	if d.metrics != nil {
		d.metrics.RecordDispatch(action.Name, elapsed, result.Status)
	}
	d.log().Debug("%s -> %s in %s", action.Name, result.Status, elapsed)
	return result
}

func (d *Dispatcher) dispatchEdit(ctx context.Context, action handler.Action) handler.Result {
	if err := ctx.Err(); err != nil {
		return handler.Error(err)
	}
	editor := d.Editor()
	if editor == nil {
		return handler.Error(ErrNoEditor)
	}
	if !d.registry.Has(action.Name) {
		return handler.Error(fmt.Errorf("%w: %s", ErrNoHandler, action.Name))
	}

	var (
		result handler.Result
		ran    bool
	)
	err := editor.Edit(action.Name, func(root *vnode.Node, sel *vrange.Range) error {
		ran = true
		ec := execctx.New(root, sel).WithContext(ctx)
		ec.Command = action.Name
		result = d.run(action, ec)
		return result.Err()
	})
	if err != nil {
		if !ran {
			return handler.Error(err)
		}
		result.Status = handler.StatusError
		result.Error = err
	}
	return result
}

func (d *Dispatcher) dispatchNested(parent *execctx.ExecutionContext, action handler.Action) handler.Result {
	ec := parent.Child(action.Name)
	if limit := d.config.MaxDepth; limit > 0 && ec.Depth() > limit {
		return handler.Error(fmt.Errorf("%w: %s at depth %d", ErrTooDeep, action.Name, ec.Depth()))
	}
	return d.run(action, ec)
}

// run executes the matched definition in ec: pre hooks, match, handler,
// command hooks, post hooks.
func (d *Dispatcher) run(action handler.Action, ec *execctx.ExecutionContext) handler.Result {
	ec.Logger = d.log().WithFields(map[string]any{
		"command": action.Name,
		"exec":    ec.ID,
	})

	if !d.runPreHooks(&action, ec) {
		result := handler.CancelledWithMessage("cancelled by hook")
		result.Error = ErrCommandCancelled
		return result
	}

	def, selector, err := d.registry.Match(action.Name, ec)
	if err != nil {
		return handler.Error(err)
	}
	ec.Selector = selector

	var result handler.Result
	if d.config.RecoverFromPanic {
		result = d.executeWithRecovery(def.Handler, action, ec)
	} else {
		result = def.Handler.Handle(action, ec)
	}

	if result.Status == handler.StatusOK || result.Status == handler.StatusNoOp {
		if err := d.runCommandHooks(action, ec); err != nil {
			result = handler.Error(err)
		}
	}

	d.runPostHooks(&action, ec, &result)

	if result.IsError() {
		ec.Logger.Error("command failed: %v", result.Err())
	}
	return result
}

// executeWithRecovery executes a handler with panic recovery.
func (d *Dispatcher) executeWithRecovery(h handler.Handler, action handler.Action, ec *execctx.ExecutionContext) (result handler.Result) {
	defer func() {
		if r := recover(); r != nil {
			stack := make([]byte, 4096)
			n := runtime.Stack(stack, false)

			result = handler.Error(&PanicError{Command: action.Name, Value: r, Stack: stack[:n]})
			ec.Logger.Error("handler panic: %v\n%s", r, stack[:n])

			if d.metrics != nil {
				d.metrics.RecordPanic(action.Name)
			}
		}
	}()

	return h.Handle(action, ec)
}

// Register adds a command definition.
func (d *Dispatcher) Register(name string, def handler.Definition) error {
	return d.registry.Register(name, def)
}

// RegisterHandler registers a handler with no selector.
func (d *Dispatcher) RegisterHandler(name string, h handler.Handler) error {
	return d.registry.Register(name, handler.Definition{Handler: h})
}

// RegisterHandlerFunc registers a handler function with no selector.
func (d *Dispatcher) RegisterHandlerFunc(name string, fn handler.HandlerFunc) error {
	if fn == nil {
		return fmt.Errorf("%w: %s has no handler", ErrInvalidCommand, name)
	}
	return d.registry.Register(name, handler.Definition{Handler: fn})
}

// RegisterNamespace registers every command of ns.
func (d *Dispatcher) RegisterNamespace(ns *handler.Namespace) error {
	var errs []error
	for _, name := range ns.Commands() {
		def, _ := ns.Definition(name)
		if err := d.registry.Register(name, def); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", ns.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// Unregister removes all definitions for a command name.
func (d *Dispatcher) Unregister(name string) {
	d.registry.Unregister(name)
}

// RegisterPreHook registers a pre-dispatch hook.
func (d *Dispatcher) RegisterPreHook(hook PreDispatchHook) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.preHooks = append(d.preHooks, hook)
}

// RegisterPostHook registers a post-dispatch hook.
func (d *Dispatcher) RegisterPostHook(hook PostDispatchHook) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.postHooks = append(d.postHooks, hook)
}

// RegisterCommandHook registers hook to run after the command name
// succeeds. Use AllCommands to run after every command.
func (d *Dispatcher) RegisterCommandHook(name string, hook CommandHook) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.commandHooks[name] = append(d.commandHooks[name], hook)
}

// runPreHooks runs all pre-dispatch hooks.
// Returns false if any hook cancels the command.
func (d *Dispatcher) runPreHooks(action *handler.Action, ec *execctx.ExecutionContext) bool {
	d.mu.RLock()
	hooks := make([]PreDispatchHook, len(d.preHooks))
	copy(hooks, d.preHooks)
	d.mu.RUnlock()

	for _, h := range hooks {
		if !h.PreDispatch(action, ec) {
			return false
		}
	}
	return true
}

// runPostHooks runs all post-dispatch hooks.
func (d *Dispatcher) runPostHooks(action *handler.Action, ec *execctx.ExecutionContext, result *handler.Result) {
	d.mu.RLock()
	hooks := make([]PostDispatchHook, len(d.postHooks))
	copy(hooks, d.postHooks)
	d.mu.RUnlock()

	for _, h := range hooks {
		h.PostDispatch(action, ec, result)
	}
}

// runCommandHooks runs the hooks registered for the command, then the
// hooks registered for AllCommands. The first error stops the chain.
func (d *Dispatcher) runCommandHooks(action handler.Action, ec *execctx.ExecutionContext) error {
	d.mu.RLock()
	hooks := make([]CommandHook, 0, len(d.commandHooks[action.Name])+len(d.commandHooks[AllCommands]))
	hooks = append(hooks, d.commandHooks[action.Name]...)
	hooks = append(hooks, d.commandHooks[AllCommands]...)
	d.mu.RUnlock()

	for _, h := range hooks {
		if err := h(action, ec); err != nil {
			return fmt.Errorf("hook after %s: %w", action.Name, err)
		}
	}
	return nil
}

// Registry returns the command registry.
func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

// Commands returns all registered command names.
func (d *Dispatcher) Commands() []string {
	return d.registry.List()
}

// Metrics returns the metrics collector (may be nil if disabled).
func (d *Dispatcher) Metrics() *Metrics {
	return d.metrics
}

// Config returns the dispatcher configuration.
func (d *Dispatcher) Config() Config {
	return d.config
}
