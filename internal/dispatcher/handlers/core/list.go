package core

import (
	"github.com/dshills/quire/internal/dispatcher/execctx"
	"github.com/dshills/quire/internal/dispatcher/handler"
	"github.com/dshills/quire/internal/engine/vnode"
	"github.com/dshills/quire/internal/engine/vrange"
)

// isEmptyLastItem reports whether the matched list item is empty and the
// last of its list.
func isEmptyLastItem(ec *execctx.ExecutionContext) bool {
	list, item := ec.SelectorNode(0), ec.SelectorNode(1)
	if list == nil || item == nil {
		return false
	}
	return item.Text() == "" && list.LastChild(vnode.Any) == item
}

// leaveList replaces the empty last item of a list with a paragraph after
// the list and moves the range into it.
func leaveList(_ handler.Action, ec *execctx.ExecutionContext) handler.Result {
	list, item := ec.SelectorNode(0), ec.SelectorNode(1)
	if list == nil || item == nil {
		return handler.Errorf("leave list: selector did not match")
	}

	p := vnode.NewParagraph()
	if err := list.After(p); err != nil {
		return handler.Error(err)
	}
	if err := ec.Range.SetBounds(vrange.At(p, vrange.Before)); err != nil {
		return handler.Error(err)
	}
	item.Remove()
	if !list.HasChildren() {
		list.Remove()
	}
	return handler.Success()
}
