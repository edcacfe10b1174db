package core

import (
	"strconv"
	"strings"

	"github.com/dshills/quire/internal/dispatcher/handler"
	"github.com/dshills/quire/internal/engine/vnode"
	"github.com/dshills/quire/internal/schema"
)

// Namespace returns the core commands bound to reg. A nil registry uses
// schema.Default.
func Namespace(reg *schema.Registry) *handler.Namespace {
	if reg == nil {
		reg = schema.Default()
	}
	ns := handler.NewNamespace("core")

	text := NewTextHandler(reg)
	for _, name := range []string{ActionInsertText, ActionInsert, ActionInsertLineBreak, ActionInsertParagraphBreak} {
		ns.Define(name, handler.Definition{Title: titles[name], Handler: text})
	}

	del := NewDeleteHandler()
	for _, name := range []string{ActionDeleteBackward, ActionDeleteForward} {
		ns.Define(name, handler.Definition{Title: titles[name], Handler: del})
	}

	sel := NewSelectionHandler()
	for _, name := range []string{ActionSelectAll, ActionCollapse, ActionExtendTo} {
		ns.Define(name, handler.Definition{Title: titles[name], Handler: sel})
	}

	format := NewFormatHandler()
	for _, name := range []string{ActionApplyFormat, ActionRemoveFormat, ActionToggleFormat} {
		ns.Define(name, handler.Definition{Title: titles[name], Handler: format})
	}

	block := NewBlockHandler(reg)
	for _, name := range []string{ActionSetAttribute, ActionRemoveAttribute, ActionApplyBlock, ActionWrap, ActionUnwrap} {
		ns.Define(name, handler.Definition{Title: titles[name], Handler: block})
	}

	return ns
}

// ListDefinitions returns the list-specific overrides. They are separate
// from Namespace because a namespace holds one definition per name.
func ListDefinitions() map[string]handler.Definition {
	return map[string]handler.Definition{
		ActionInsertParagraphBreak: {
			Title:    "Leave list",
			Selector: []vnode.Predicate{vnode.OfKind(schema.ListKind).Or(vnode.OfKind(schema.OrderedKind)), vnode.OfKind(schema.ListItemKind)},
			Check:    isEmptyLastItem,
			Handler:  handler.HandlerFunc(leaveList),
		},
	}
}

var titles = map[string]string{
	ActionInsertText:           "Insert text",
	ActionInsert:               "Insert nodes",
	ActionInsertLineBreak:      "Insert line break",
	ActionInsertParagraphBreak: "Insert paragraph break",
	ActionDeleteBackward:       "Delete backward",
	ActionDeleteForward:        "Delete forward",
	ActionSelectAll:            "Select all",
	ActionCollapse:             "Collapse selection",
	ActionExtendTo:             "Extend selection",
	ActionApplyFormat:          "Apply format",
	ActionRemoveFormat:         "Remove format",
	ActionToggleFormat:         "Toggle format",
	ActionSetAttribute:         "Set block attribute",
	ActionRemoveAttribute:      "Remove block attribute",
	ActionApplyBlock:           "Change block kind",
	ActionWrap:                 "Wrap blocks",
	ActionUnwrap:               "Unwrap container",
}

// parsePath parses a dotted list of 1-based tangible child indexes such as
// "2.1".
func parsePath(s string) ([]int, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ".")
	out := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 1 {
			return nil, &ArgError{Arg: "path", Value: s}
		}
		out[i] = n
	}
	return out, nil
}

// resolvePath walks path from root through tangible children.
func resolvePath(root *vnode.Node, path []int) (*vnode.Node, error) {
	n := root
	for _, i := range path {
		child := n.NthChild(i)
		if child == nil {
			return nil, ErrNoSuchNode
		}
		n = child
	}
	return n, nil
}

// isBlock matches containers that hold inline content.
var isBlock = vnode.Func(func(n *vnode.Node) bool {
	return n.IsContainer() && !n.MayContainContainers() && n.Parent() != nil
})

// isStructural matches containers that may hold other blocks, excluding
// the document root.
var isStructural = vnode.Func(func(n *vnode.Node) bool {
	return n.IsContainer() && n.MayContainContainers() && n.Parent() != nil
})
