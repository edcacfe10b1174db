package dispatcher

import (
	"github.com/dshills/quire/internal/dispatcher/execctx"
	"github.com/dshills/quire/internal/dispatcher/handler"
	"github.com/dshills/quire/internal/logging"
)

// AllCommands registers a command hook that runs after every command.
const AllCommands = "*"

// PreDispatchHook is called before a command is matched and run.
// Returning false cancels the dispatch.
type PreDispatchHook interface {
	// PreDispatch may modify the action arguments.
	PreDispatch(action *handler.Action, ctx *execctx.ExecutionContext) bool
}

// PostDispatchHook is called after a command ran, whatever its outcome.
type PostDispatchHook interface {
	// PostDispatch may inspect or modify the result.
	PostDispatch(action *handler.Action, ctx *execctx.ExecutionContext, result *handler.Result)
}

// CommandHook runs after a specific command completed successfully. It
// runs inside the same edit, so changes it makes are undone together with
// the command.
type CommandHook func(action handler.Action, ctx *execctx.ExecutionContext) error

// PreDispatchFunc is a function adapter for PreDispatchHook.
type PreDispatchFunc func(action *handler.Action, ctx *execctx.ExecutionContext) bool

// PreDispatch implements PreDispatchHook.
func (f PreDispatchFunc) PreDispatch(action *handler.Action, ctx *execctx.ExecutionContext) bool {
	return f(action, ctx)
}

// PostDispatchFunc is a function adapter for PostDispatchHook.
type PostDispatchFunc func(action *handler.Action, ctx *execctx.ExecutionContext, result *handler.Result)

// PostDispatch implements PostDispatchHook.
func (f PostDispatchFunc) PostDispatch(action *handler.Action, ctx *execctx.ExecutionContext, result *handler.Result) {
	f(action, ctx, result)
}

// LoggingHook logs every dispatch at debug level.
type LoggingHook struct {
	Logger *logging.Logger
}

// NewLoggingHook creates a new logging hook.
func NewLoggingHook(l *logging.Logger) *LoggingHook {
	return &LoggingHook{Logger: logging.OrNop(l)}
}

// PreDispatch logs the command being dispatched.
func (h *LoggingHook) PreDispatch(action *handler.Action, ctx *execctx.ExecutionContext) bool {
	h.Logger.Debug("dispatching %s (depth=%d, collapsed=%t)", action.Name, ctx.Depth(), ctx.IsCollapsed())
	return true
}

// PostDispatch logs the dispatch result.
func (h *LoggingHook) PostDispatch(action *handler.Action, ctx *execctx.ExecutionContext, result *handler.Result) {
	if result.IsError() {
		h.Logger.Debug("dispatch %s -> %s: %v", action.Name, result.Status, result.Error)
		return
	}
	h.Logger.Debug("dispatch %s -> %s", action.Name, result.Status)
}

// ValidationHook rejects commands before they run.
type ValidationHook struct {
	// ValidateFunc returns true if the command may run.
	ValidateFunc func(action *handler.Action, ctx *execctx.ExecutionContext) bool
}

// PreDispatch validates the command.
func (h *ValidationHook) PreDispatch(action *handler.Action, ctx *execctx.ExecutionContext) bool {
	if h.ValidateFunc != nil {
		return h.ValidateFunc(action, ctx)
	}
	return true
}

// RangeRequiredHook cancels every command whose context has no attached
// range in the document.
type RangeRequiredHook struct{}

// PreDispatch implements PreDispatchHook.
func (RangeRequiredHook) PreDispatch(_ *handler.Action, ctx *execctx.ExecutionContext) bool {
	return ctx.Validate() == nil
}
