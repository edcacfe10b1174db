package core

import (
	"github.com/dshills/quire/internal/dispatcher/execctx"
	"github.com/dshills/quire/internal/dispatcher/handler"
	"github.com/dshills/quire/internal/engine/vnode"
	"github.com/dshills/quire/internal/engine/vrange"
)

// Command names for deletion.
const (
	ActionDeleteBackward = "deleteBackward"
	ActionDeleteForward  = "deleteForward"
)

// DeleteHandler handles deletion commands.
type DeleteHandler struct{}

// NewDeleteHandler creates a new delete handler.
func NewDeleteHandler() *DeleteHandler {
	return &DeleteHandler{}
}

// Handle implements handler.Handler.
func (h *DeleteHandler) Handle(action handler.Action, ec *execctx.ExecutionContext) handler.Result {
	if err := ec.Validate(); err != nil {
		return handler.Error(err)
	}

	rng := ec.Range
	if !rng.IsCollapsed() {
		return handler.FromError(rng.Empty())
	}

	switch action.Name {
	case ActionDeleteBackward:
		return h.deleteBackward(rng)
	case ActionDeleteForward:
		return h.deleteForward(rng)
	default:
		return handler.Errorf("unknown delete command: %s", action.Name)
	}
}

// deleteBackward removes the leaf before a collapsed range. At the start of
// a block the block is merged into the previous one.
func (h *DeleteHandler) deleteBackward(rng *vrange.Range) handler.Result {
	prev := previousLeaf(rng.Start())
	if prev == nil {
		return handler.NoOp()
	}
	if prev.Parent() == rng.StartContainer() && prev.Atomic() {
		prev.Remove()
		return handler.Success()
	}

	pos := vrange.After
	if prev.IsContainer() {
		pos = vrange.Inside
	}
	if err := rng.SetStart(prev, pos); err != nil {
		return handler.Error(err)
	}
	return handler.FromError(rng.Empty())
}

// deleteForward removes the leaf after a collapsed range. At the end of a
// block the next block is merged into it.
func (h *DeleteHandler) deleteForward(rng *vrange.Range) handler.Result {
	next := rng.End().NextLeaf(vnode.Any)
	if next == nil {
		return handler.NoOp()
	}
	if next.Parent() == rng.EndContainer() && next.Atomic() {
		next.Remove()
		return handler.Success()
	}

	if err := rng.SetEnd(next, vrange.Before); err != nil {
		return handler.Error(err)
	}
	return handler.FromError(rng.Empty())
}

// previousLeaf returns the leaf preceding marker, skipping the empty
// container that holds it.
func previousLeaf(marker *vnode.Node) *vnode.Node {
	leaf := marker.PreviousLeaf(vnode.Any)
	for leaf != nil && leaf.Contains(marker) {
		leaf = leaf.PreviousLeaf(vnode.Any)
	}
	return leaf
}
