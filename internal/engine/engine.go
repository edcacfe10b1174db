package engine

import (
	"errors"
	"sync"

	"github.com/dshills/quire/internal/engine/history"
	"github.com/dshills/quire/internal/engine/vnode"
	"github.com/dshills/quire/internal/engine/vrange"
	"github.com/dshills/quire/internal/logging"
	"github.com/dshills/quire/internal/markup"
	"github.com/dshills/quire/internal/schema"
)

// Re-export commonly used types for convenience.
type (
	// Node is a document tree node.
	Node = vnode.Node

	// Range is a marker-based selection.
	Range = vrange.Range

	// OperationInfo describes an undo or redo entry.
	OperationInfo = history.OperationInfo
)

// EditFunc mutates the document. It receives the root and the persistent
// selection.
type EditFunc = func(root *vnode.Node, sel *vrange.Range) error

// Engine is the main facade for the document engine.
// It owns the document root, the persistent selection range and the
// undo history, and serializes access to them.
//
// Every method takes the engine lock, so an Engine can be shared between
// goroutines. Edit functions and change listeners run with the lock held
// and must not call back into the Engine.
type Engine struct {
	mu sync.RWMutex

	root     *vnode.Node
	sel      *vrange.Range
	history  *history.History
	registry *schema.Registry
	logger   *logging.Logger

	// Configuration
	maxUndoEntries int
	readOnly       bool
	initContent    string

	revision uint64
}

// New creates a new Engine with the given options.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{
		maxUndoEntries: DefaultMaxUndoEntries,
		registry:       schema.Default(),
		logger:         logging.Nop(),
	}

	for _, opt := range opts {
		opt(e)
	}

	e.root = vnode.NewFragment()
	e.sel = vrange.New()
	e.history = history.NewHistory(e.maxUndoEntries)
	e.logger = e.logger.WithComponent("engine")

	if err := e.load(e.initContent); err != nil {
		return nil, err
	}
	return e, nil
}

// load replaces the document with parsed markup. The root node is kept so
// that change listeners stay registered.
func (e *Engine) load(src string) error {
	doc, err := markup.NewParser(e.registry).Parse(src)
	if err != nil {
		return err
	}
	e.root.Empty()
	for _, n := range doc.Root.RawChildren() {
		if err := e.root.Append(n); err != nil {
			return err
		}
	}
	doc.Root = e.root
	if err := doc.Range(e.sel); err != nil {
		return err
	}
	e.revision++
	return nil
}

// ============================================================================
// Read Operations
// ============================================================================

// Root returns the document root. Callers must not mutate it outside Edit.
func (e *Engine) Root() *vnode.Node {
	return e.root
}

// Selection returns the persistent selection range.
func (e *Engine) Selection() *vrange.Range {
	return e.sel
}

// Registry returns the schema used by the engine.
func (e *Engine) Registry() *schema.Registry {
	return e.registry
}

// Logger returns the engine logger.
func (e *Engine) Logger() *logging.Logger {
	return e.logger
}

// Read calls fn with the root and the selection under the read lock.
func (e *Engine) Read(fn func(root *vnode.Node, sel *vrange.Range)) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	fn(e.root, e.sel)
}

// Text returns the concatenated text of the document.
func (e *Engine) Text() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.root.Text()
}

// Markup renders the document with the selection as bracket markup.
func (e *Engine) Markup() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return markup.NewRenderer(e.registry).Render(e.root, e.sel)
}

// JSON encodes the document with the selection.
func (e *Engine) JSON() ([]byte, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return markup.NewJSONCodec(e.registry).Encode(e.root, e.sel)
}

// Revision returns a counter incremented by every content change, undo and
// redo.
func (e *Engine) Revision() uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.revision
}

// OnChange registers fn for child-list notifications anywhere in the
// document. The returned function cancels the registration.
func (e *Engine) OnChange(fn func(vnode.ChildListEvent)) (cancel func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.root.OnChildListChange(fn)
}

// ============================================================================
// Edit Operations
// ============================================================================

// Edit runs fn as one undoable edit named name. When fn fails, the document
// and the selection are restored to their state before the call and the
// error is returned as an *EditError. Edits that only move the selection are
// not recorded in history.
func (e *Engine) Edit(name string, fn EditFunc) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.readOnly {
		return ErrReadOnly
	}
	return e.editLocked(name, fn)
}

func (e *Engine) editLocked(name string, fn EditFunc) error {
	before := history.Capture(e.root, e.sel)
	if err := fn(e.root, e.sel); err != nil {
		if rerr := before.Restore(e.root, e.sel); rerr != nil {
			e.logger.Error("rollback of %s failed: %v", name, rerr)
			return &EditError{Name: name, Err: errors.Join(err, rerr)}
		}
		e.logger.Debug("edit %s rolled back: %v", name, err)
		return &EditError{Name: name, Err: err}
	}

	after := history.Capture(e.root, e.sel)
	if before.SameContent(after) {
		return nil
	}
	e.history.Push(history.NewEdit(name, before, after))
	e.revision++
	e.logger.Debug("edit %s recorded at revision %d", name, e.revision)
	return nil
}

// SetContent replaces the document with parsed markup and resets history.
func (e *Engine) SetContent(src string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.readOnly {
		return ErrReadOnly
	}
	if err := e.load(src); err != nil {
		return err
	}
	e.history.Clear()
	return nil
}

// LoadJSON replaces the document with a decoded JSON tree and resets
// history.
func (e *Engine) LoadJSON(data []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.readOnly {
		return ErrReadOnly
	}
	doc, err := markup.NewJSONCodec(e.registry).Decode(data)
	if err != nil {
		return err
	}
	e.root.Empty()
	for _, n := range doc.Root.RawChildren() {
		if err := e.root.Append(n); err != nil {
			return err
		}
	}
	doc.Root = e.root
	if err := doc.Range(e.sel); err != nil {
		return err
	}
	e.revision++
	e.history.Clear()
	return nil
}

// ============================================================================
// Undo/Redo Operations
// ============================================================================

// Undo undoes the last operation.
func (e *Engine) Undo() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.readOnly {
		return ErrReadOnly
	}
	if err := e.history.Undo(e.root, e.sel); err != nil {
		if errors.Is(err, history.ErrNothingToUndo) {
			return ErrNothingToUndo
		}
		return err
	}
	e.revision++
	return nil
}

// Redo redoes the last undone operation.
func (e *Engine) Redo() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.readOnly {
		return ErrReadOnly
	}
	if err := e.history.Redo(e.root, e.sel); err != nil {
		if errors.Is(err, history.ErrNothingToRedo) {
			return ErrNothingToRedo
		}
		return err
	}
	e.revision++
	return nil
}

// CanUndo returns true if undo is available.
func (e *Engine) CanUndo() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.history.CanUndo()
}

// CanRedo returns true if redo is available.
func (e *Engine) CanRedo() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.history.CanRedo()
}

// UndoCount returns the number of available undo operations.
func (e *Engine) UndoCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.history.UndoCount()
}

// RedoCount returns the number of available redo operations.
func (e *Engine) RedoCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.history.RedoCount()
}

// UndoInfo describes the undo stack, oldest first.
func (e *Engine) UndoInfo() []OperationInfo {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.history.UndoInfo()
}

// BeginUndoGroup starts collecting edits into one undo step called name.
// It returns false when a group is already open.
func (e *Engine) BeginUndoGroup(name string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.history.BeginGroup(name)
}

// EndUndoGroup closes the open group and reports whether it recorded a
// step.
func (e *Engine) EndUndoGroup() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.history.EndGroup()
}

// CancelUndoGroup closes the open group without recording it. The
// document keeps its changes.
func (e *Engine) CancelUndoGroup() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.history.CancelGroup()
}

// InUndoGroup reports whether a group is open.
func (e *Engine) InUndoGroup() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.history.IsGrouping()
}

// ClearHistory removes all undo/redo history.
func (e *Engine) ClearHistory() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.history.Clear()
}

// IsReadOnly returns true if the engine is read-only.
func (e *Engine) IsReadOnly() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.readOnly
}
