package dispatcher

import (
	"fmt"
	"sort"
	"sync"

	"github.com/dshills/quire/internal/dispatcher/execctx"
	"github.com/dshills/quire/internal/dispatcher/handler"
	"github.com/dshills/quire/internal/engine/vnode"
)

// Registry holds command definitions by name, in registration order.
type Registry struct {
	mu       sync.RWMutex
	commands map[string][]handler.Definition
}

// NewRegistry creates a new command registry.
func NewRegistry() *Registry {
	return &Registry{
		commands: make(map[string][]handler.Definition),
	}
}

// Register adds a definition for a command name. Later registrations win
// ties in specificity.
func (r *Registry) Register(name string, def handler.Definition) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidCommand)
	}
	if def.Handler == nil {
		return fmt.Errorf("%w: %s has no handler", ErrInvalidCommand, name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands[name] = append(r.commands[name], def)
	return nil
}

// Unregister removes all definitions for a command name.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.commands, name)
}

// Definitions returns a copy of the definitions for a command name.
func (r *Registry) Definitions(name string) []handler.Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := r.commands[name]
	out := make([]handler.Definition, len(defs))
	copy(out, defs)
	return out
}

// Has returns true if a definition is registered for the command.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.commands[name]) > 0
}

// List returns all registered command names.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count returns the number of registered command names.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.commands)
}

// Clear removes all registered commands.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands = make(map[string][]handler.Definition)
}

// Match returns the definition of name that applies to ec, together with
// the ancestors its selector matched. See Match for the rules.
func (r *Registry) Match(name string, ec *execctx.ExecutionContext) (handler.Definition, []*vnode.Node, error) {
	defs := r.Definitions(name)
	if len(defs) == 0 {
		return handler.Definition{}, nil, fmt.Errorf("%w: %s", ErrNoHandler, name)
	}
	def, selector, ok := Match(defs, ec)
	if !ok {
		return handler.Definition{}, nil, fmt.Errorf("%w: %s", ErrNoMatch, name)
	}
	return def, selector, nil
}
