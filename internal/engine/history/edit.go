package history

import (
	"time"

	"github.com/dshills/quire/internal/engine/vnode"
	"github.com/dshills/quire/internal/engine/vrange"
)

// Edit is a recorded change: the document before and after it ran.
type Edit struct {
	Name   string
	Before Snapshot
	After  Snapshot
	Time   time.Time
}

// NewEdit creates an edit from two snapshots.
func NewEdit(name string, before, after Snapshot) *Edit {
	return &Edit{Name: name, Before: before, After: after, Time: time.Now()}
}

// extend makes e end where next ends. The two must be adjacent: next.Before
// is the state e.After describes.
func (e *Edit) extend(next *Edit) {
	e.After = next.After
	e.Time = next.Time
}

func (e *Edit) info() OperationInfo {
	return OperationInfo{Description: e.Name, Timestamp: e.Time}
}

// OperationInfo describes an undo or redo entry.
type OperationInfo struct {
	Description string
	Timestamp   time.Time
}

func (e *Edit) undo(root *vnode.Node, sel *vrange.Range) error {
	return e.Before.Restore(root, sel)
}

func (e *Edit) redo(root *vnode.Node, sel *vrange.Range) error {
	return e.After.Restore(root, sel)
}
