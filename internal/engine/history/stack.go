package history

import (
	"sync"

	"github.com/dshills/quire/internal/engine/vnode"
	"github.com/dshills/quire/internal/engine/vrange"
)

// DefaultMaxEntries bounds the undo stack when no limit is configured.
const DefaultMaxEntries = 1000

// History is an undo/redo stack of edits.
type History struct {
	mu sync.Mutex

	undo []*Edit
	redo []*Edit

	// While grouping, pushed edits are coalesced into pending, which spans
	// from the first edit's Before to the last edit's After.
	grouping  bool
	groupName string
	pending   *Edit

	maxEntries int
}

// NewHistory creates a history holding at most maxEntries undo steps.
func NewHistory(maxEntries int) *History {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &History{maxEntries: maxEntries}
}

// Push records e and clears the redo stack. Inside a group e is merged
// into the group's single step.
func (h *History) Push(e *Edit) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.grouping {
		if h.pending == nil {
			h.pending = &Edit{Name: h.groupName, Before: e.Before, After: e.After, Time: e.Time}
		} else {
			h.pending.extend(e)
		}
		h.redo = nil
		return
	}
	h.pushLocked(e)
}

func (h *History) pushLocked(e *Edit) {
	h.undo = append(h.undo, e)
	h.redo = nil
	if excess := len(h.undo) - h.maxEntries; excess > 0 {
		h.undo = h.undo[excess:]
	}
}

// BeginGroup starts collecting edits into one undo step called name. It
// returns false when a group is already open; the open group continues.
func (h *History) BeginGroup(name string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.grouping {
		return false
	}
	h.grouping = true
	h.groupName = name
	h.pending = nil
	return true
}

// EndGroup closes the open group and reports whether it recorded a step.
// A group without edits records nothing.
func (h *History) EndGroup() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.endGroupLocked()
}

func (h *History) endGroupLocked() bool {
	if !h.grouping {
		return false
	}
	h.grouping = false
	e := h.pending
	h.pending = nil
	if e == nil || e.Before.SameContent(e.After) {
		return false
	}
	h.pushLocked(e)
	return true
}

// CancelGroup closes the open group without recording it. The document
// keeps the group's changes.
func (h *History) CancelGroup() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.grouping = false
	h.pending = nil
}

// IsGrouping reports whether a group is open.
func (h *History) IsGrouping() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.grouping
}

// Undo restores the state before the last step. An open group is closed
// first, so its edits are undone together.
func (h *History) Undo(root *vnode.Node, sel *vrange.Range) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.endGroupLocked()
	if len(h.undo) == 0 {
		return ErrNothingToUndo
	}
	e := h.undo[len(h.undo)-1]
	if err := e.undo(root, sel); err != nil {
		return err
	}
	h.undo = h.undo[:len(h.undo)-1]
	h.redo = append(h.redo, e)
	return nil
}

// Redo reapplies the last undone step.
func (h *History) Redo(root *vnode.Node, sel *vrange.Range) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.redo) == 0 {
		return ErrNothingToRedo
	}
	e := h.redo[len(h.redo)-1]
	if err := e.redo(root, sel); err != nil {
		return err
	}
	h.redo = h.redo[:len(h.redo)-1]
	h.undo = append(h.undo, e)
	return nil
}

// CanUndo reports whether a step can be undone.
func (h *History) CanUndo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.undo) > 0 || h.pending != nil
}

// CanRedo reports whether a step can be redone.
func (h *History) CanRedo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.redo) > 0
}

// UndoCount returns the number of recorded undo steps, not counting an
// open group.
func (h *History) UndoCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.undo)
}

// RedoCount returns the number of redo steps.
func (h *History) RedoCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.redo)
}

// UndoInfo describes the undo stack, oldest first.
func (h *History) UndoInfo() []OperationInfo {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]OperationInfo, len(h.undo))
	for i, e := range h.undo {
		out[i] = e.info()
	}
	return out
}

// Clear drops every step and any open group.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.undo, h.redo = nil, nil
	h.grouping = false
	h.pending = nil
}
