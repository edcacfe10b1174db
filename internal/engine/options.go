package engine

import (
	"github.com/dshills/quire/internal/engine/history"
	"github.com/dshills/quire/internal/logging"
	"github.com/dshills/quire/internal/schema"
)

// Default configuration values.
const (
	DefaultMaxUndoEntries = history.DefaultMaxEntries
)

// Option configures an Engine during creation.
type Option func(*Engine)

// WithContent sets the initial content as bracket markup, for example
// "<p>a[b]c</p>".
func WithContent(src string) Option {
	return func(e *Engine) {
		e.initContent = src
	}
}

// WithRegistry sets the schema used to parse and render markup.
func WithRegistry(reg *schema.Registry) Option {
	return func(e *Engine) {
		if reg != nil {
			e.registry = reg
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithMaxUndoEntries sets the maximum number of undo history entries.
func WithMaxUndoEntries(max int) Option {
	return func(e *Engine) {
		if max > 0 {
			e.maxUndoEntries = max
		}
	}
}

// WithReadOnly creates a read-only engine.
// Write operations will return ErrReadOnly.
func WithReadOnly() Option {
	return func(e *Engine) {
		e.readOnly = true
	}
}
