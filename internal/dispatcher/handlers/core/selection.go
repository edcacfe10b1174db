package core

import (
	"github.com/dshills/quire/internal/dispatcher/execctx"
	"github.com/dshills/quire/internal/dispatcher/handler"
	"github.com/dshills/quire/internal/engine/vnode"
	"github.com/dshills/quire/internal/engine/vrange"
)

// Command names for selection changes.
const (
	ActionSelectAll = "selectAll"
	ActionCollapse  = "collapse"
	ActionExtendTo  = "extendTo"
)

// SelectionHandler moves the range without touching content.
type SelectionHandler struct{}

// NewSelectionHandler creates a new selection handler.
func NewSelectionHandler() *SelectionHandler {
	return &SelectionHandler{}
}

// Handle implements handler.Handler.
func (h *SelectionHandler) Handle(action handler.Action, ec *execctx.ExecutionContext) handler.Result {
	if err := ec.Validate(); err != nil {
		return handler.Error(err)
	}

	switch action.Name {
	case ActionSelectAll:
		return h.selectAll(ec)
	case ActionCollapse:
		return h.collapse(ec, action.Args.String("edge"))
	case ActionExtendTo:
		return h.extendTo(ec, action.Args.String("path"))
	default:
		return handler.Errorf("unknown selection command: %s", action.Name)
	}
}

// selectAll spans the range from the first to the last leaf of the root.
func (h *SelectionHandler) selectAll(ec *execctx.ExecutionContext) handler.Result {
	first := ec.Root.FirstLeaf(vnode.Any)
	last := ec.Root.LastLeaf(vnode.Any)
	return handler.FromError(ec.Range.SetBounds(vrange.Selecting(first, last)))
}

// collapse collapses the range onto its start (default) or end.
func (h *SelectionHandler) collapse(ec *execctx.ExecutionContext, edge string) handler.Result {
	if ec.Range.IsCollapsed() {
		return handler.NoOp()
	}
	switch edge {
	case "", "start":
		return handler.FromError(ec.Range.Collapse(vrange.StartEdge))
	case "end":
		return handler.FromError(ec.Range.Collapse(vrange.EndEdge))
	}
	return handler.Error(&ArgError{Arg: "edge", Value: edge})
}

// extendTo grows the range to include the node at path.
func (h *SelectionHandler) extendTo(ec *execctx.ExecutionContext, path string) handler.Result {
	steps, err := parsePath(path)
	if err != nil {
		return handler.Error(err)
	}
	target, err := resolvePath(ec.Root, steps)
	if err != nil {
		return handler.Error(err)
	}
	return handler.FromError(ec.Range.ExtendTo(target))
}
