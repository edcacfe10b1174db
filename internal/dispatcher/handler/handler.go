// Package handler provides the handler interface and types for command
// dispatch.
package handler

import (
	"sort"

	"github.com/dshills/quire/internal/dispatcher/execctx"
	"github.com/dshills/quire/internal/engine/vnode"
)

// Action is a named command invocation with its arguments.
type Action struct {
	Name string
	Args execctx.Args
}

// NewAction creates an action with optional key/value argument pairs.
// Keys must be strings; a trailing key without value is ignored.
func NewAction(name string, kv ...any) Action {
	a := Action{Name: name}
	for i := 0; i+1 < len(kv); i += 2 {
		k, ok := kv[i].(string)
		if !ok {
			continue
		}
		if a.Args == nil {
			a.Args = make(execctx.Args)
		}
		a.Args[k] = kv[i+1]
	}
	return a
}

// Handler processes a command.
type Handler interface {
	// Handle executes the action and returns a result.
	Handle(action Action, ctx *execctx.ExecutionContext) Result
}

// HandlerFunc is a function adapter for the Handler interface.
type HandlerFunc func(action Action, ctx *execctx.ExecutionContext) Result

// Handle implements Handler.Handle.
func (f HandlerFunc) Handle(action Action, ctx *execctx.ExecutionContext) Result {
	if f == nil {
		return Errorf("handler function is nil")
	}
	return f(action, ctx)
}

// Definition describes a command registration. Several definitions may
// share a name; the dispatcher picks the one whose selector matches the
// ancestors of the range start most specifically.
type Definition struct {
	// Title is a short human-readable name.
	Title string

	// Description explains what the command does.
	Description string

	// Selector lists predicates matched, innermost last, against the
	// ancestors of the range start. An empty selector always matches.
	Selector []vnode.Predicate

	// Check, when set, must return true for the definition to apply.
	Check func(ctx *execctx.ExecutionContext) bool

	// Handler executes the command.
	Handler Handler
}

// Namespace groups related command handlers so they can be registered
// together.
type Namespace struct {
	name     string
	commands map[string]Definition
}

// NewNamespace creates an empty namespace.
func NewNamespace(name string) *Namespace {
	return &Namespace{
		name:     name,
		commands: make(map[string]Definition),
	}
}

// Name returns the namespace name.
func (n *Namespace) Name() string {
	return n.name
}

// Register registers a handler function for a command name.
func (n *Namespace) Register(command string, fn HandlerFunc) {
	n.commands[command] = Definition{Handler: fn}
}

// Define registers a full definition for a command name.
func (n *Namespace) Define(command string, def Definition) {
	n.commands[command] = def
}

// Commands returns the registered command names in sorted order.
func (n *Namespace) Commands() []string {
	names := make([]string, 0, len(n.commands))
	for name := range n.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Definition returns the definition registered for command.
func (n *Namespace) Definition(command string) (Definition, bool) {
	def, ok := n.commands[command]
	return def, ok
}
