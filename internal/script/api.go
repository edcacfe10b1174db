package script

import (
	"strings"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/quire/internal/engine/vnode"
	"github.com/dshills/quire/internal/engine/vrange"
	"github.com/dshills/quire/internal/schema"
)

const (
	nodeType  = "quire.node"
	rangeType = "quire.range"
)

// api binds the document model into a Lua state.
type api struct {
	state    *State
	registry *schema.Registry
}

func newAPI(state *State, reg *schema.Registry) *api {
	a := &api{state: state, registry: reg}
	L := state.L

	nodeMT := L.NewTypeMetatable(nodeType)
	L.SetField(nodeMT, "__index", L.SetFuncs(L.NewTable(), a.wrap(map[string]lua.LGFunction{
		"id":          a.nodeID,
		"kind":        a.nodeKind,
		"is":          a.nodeIs,
		"text":        a.nodeText,
		"char":        a.nodeChar,
		"length":      a.nodeLength,
		"parent":      a.nodeParent,
		"children":    a.nodeChildren,
		"child":       a.nodeChild,
		"next":        a.nodeNext,
		"previous":    a.nodePrevious,
		"closest":     a.nodeClosest,
		"attr":        a.nodeAttr,
		"set_attr":    a.nodeSetAttr,
		"remove_attr": a.nodeRemoveAttr,
		"formats":     a.nodeFormats,
		"append":      a.nodeAppend,
		"prepend":     a.nodePrepend,
		"before":      a.nodeBefore,
		"after":       a.nodeAfter,
		"wrap":        a.nodeWrap,
		"unwrap":      a.nodeUnwrap,
		"remove":      a.nodeRemove,
	})))
	L.SetField(nodeMT, "__eq", L.NewFunction(a.nodeEq))
	L.SetField(nodeMT, "__tostring", L.NewFunction(a.nodeString))

	rangeMT := L.NewTypeMetatable(rangeType)
	L.SetField(rangeMT, "__index", L.SetFuncs(L.NewTable(), a.wrap(map[string]lua.LGFunction{
		"start_container": a.rangeStartContainer,
		"end_container":   a.rangeEndContainer,
		"collapsed":       a.rangeCollapsed,
		"text":            a.rangeText,
		"selected":        a.rangeSelected,
		"targeted":        a.rangeTargeted,
		"insert":          a.rangeInsert,
		"empty":           a.rangeEmpty,
		"collapse":        a.rangeCollapse,
		"select":          a.rangeSelect,
		"set":             a.rangeSet,
	})))
	return a
}

// wrap charges every API function against the call budget.
func (a *api) wrap(funcs map[string]lua.LGFunction) map[string]lua.LGFunction {
	out := make(map[string]lua.LGFunction, len(funcs))
	for name, fn := range funcs {
		out[name] = func(L *lua.LState) int {
			a.state.count(L)
			return fn(L)
		}
	}
	return out
}

func (a *api) node(n *vnode.Node) lua.LValue {
	if n == nil {
		return lua.LNil
	}
	L := a.state.L
	ud := L.NewUserData()
	ud.Value = n
	L.SetMetatable(ud, L.GetTypeMetatable(nodeType))
	return ud
}

func (a *api) nodes(nodes []*vnode.Node) *lua.LTable {
	t := a.state.L.NewTable()
	for _, n := range nodes {
		t.Append(a.node(n))
	}
	return t
}

func (a *api) rangeValue(r *vrange.Range) lua.LValue {
	if r == nil {
		return lua.LNil
	}
	L := a.state.L
	ud := L.NewUserData()
	ud.Value = r
	L.SetMetatable(ud, L.GetTypeMetatable(rangeType))
	return ud
}

func checkNode(L *lua.LState, n int) *vnode.Node {
	if node, ok := L.CheckUserData(n).Value.(*vnode.Node); ok {
		return node
	}
	L.ArgError(n, "node expected")
	return nil
}

func checkRange(L *lua.LState, n int) *vrange.Range {
	if r, ok := L.CheckUserData(n).Value.(*vrange.Range); ok {
		return r
	}
	L.ArgError(n, "range expected")
	return nil
}

func (a *api) checkKind(L *lua.LState, n int) *vnode.Kind {
	name := L.CheckString(n)
	k, ok := a.registry.Kind(name)
	if !ok {
		L.ArgError(n, "unknown kind "+name)
	}
	return k
}

// optPredicate reads an optional kind name; absent means any node.
func (a *api) optPredicate(L *lua.LState, n int) vnode.Predicate {
	if L.Get(n) == lua.LNil {
		return vnode.Any
	}
	return vnode.OfKind(a.checkKind(L, n))
}

func raise(L *lua.LState, op string, err error) int {
	if err != nil {
		L.RaiseError("%s: %v", op, err)
	}
	return 0
}

// node:id() -> number
func (a *api) nodeID(L *lua.LState) int {
	L.Push(lua.LNumber(checkNode(L, 1).ID()))
	return 1
}

// node:kind() -> string
func (a *api) nodeKind(L *lua.LState) int {
	L.Push(lua.LString(checkNode(L, 1).Name()))
	return 1
}

// node:is(kind) -> bool
func (a *api) nodeIs(L *lua.LState) int {
	n := checkNode(L, 1)
	L.Push(lua.LBool(n.Is(a.checkKind(L, 2))))
	return 1
}

// node:text() -> string
func (a *api) nodeText(L *lua.LState) int {
	L.Push(lua.LString(checkNode(L, 1).Text()))
	return 1
}

// node:char() -> string
func (a *api) nodeChar(L *lua.LState) int {
	L.Push(lua.LString(checkNode(L, 1).Char()))
	return 1
}

// node:length() -> number
func (a *api) nodeLength(L *lua.LState) int {
	L.Push(lua.LNumber(checkNode(L, 1).Length()))
	return 1
}

// node:parent() -> node|nil
func (a *api) nodeParent(L *lua.LState) int {
	L.Push(a.node(checkNode(L, 1).Parent()))
	return 1
}

// node:children([kind]) -> {node}
func (a *api) nodeChildren(L *lua.LState) int {
	n := checkNode(L, 1)
	L.Push(a.nodes(n.Children(a.optPredicate(L, 2))))
	return 1
}

// node:child(i) -> node|nil
// Children are numbered from 1.
func (a *api) nodeChild(L *lua.LState) int {
	n := checkNode(L, 1)
	L.Push(a.node(n.NthChild(L.CheckInt(2))))
	return 1
}

// node:next([kind]) -> node|nil
func (a *api) nodeNext(L *lua.LState) int {
	n := checkNode(L, 1)
	L.Push(a.node(n.NextSibling(a.optPredicate(L, 2))))
	return 1
}

// node:previous([kind]) -> node|nil
func (a *api) nodePrevious(L *lua.LState) int {
	n := checkNode(L, 1)
	L.Push(a.node(n.PreviousSibling(a.optPredicate(L, 2))))
	return 1
}

// node:closest(kind) -> node|nil
func (a *api) nodeClosest(L *lua.LState) int {
	n := checkNode(L, 1)
	L.Push(a.node(n.Closest(vnode.OfKind(a.checkKind(L, 2)))))
	return 1
}

// node:attr(name) -> string|nil
func (a *api) nodeAttr(L *lua.LState) int {
	v, ok := checkNode(L, 1).Attr(L.CheckString(2))
	if !ok {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(lua.LString(v))
	return 1
}

// node:set_attr(name, value)
func (a *api) nodeSetAttr(L *lua.LState) int {
	checkNode(L, 1).SetAttr(L.CheckString(2), L.CheckString(3))
	return 0
}

// node:remove_attr(name)
func (a *api) nodeRemoveAttr(L *lua.LState) int {
	checkNode(L, 1).RemoveAttr(L.CheckString(2))
	return 0
}

// node:formats() -> {string}
func (a *api) nodeFormats(L *lua.LState) int {
	t := L.NewTable()
	for _, f := range checkNode(L, 1).Formats() {
		t.Append(lua.LString(f.Name))
	}
	L.Push(t)
	return 1
}

// node:append(child)
func (a *api) nodeAppend(L *lua.LState) int {
	return raise(L, "append", checkNode(L, 1).Append(checkNode(L, 2)))
}

// node:prepend(child)
func (a *api) nodePrepend(L *lua.LState) int {
	return raise(L, "prepend", checkNode(L, 1).Prepend(checkNode(L, 2)))
}

// node:before(sibling)
func (a *api) nodeBefore(L *lua.LState) int {
	return raise(L, "before", checkNode(L, 1).Before(checkNode(L, 2)))
}

// node:after(sibling)
func (a *api) nodeAfter(L *lua.LState) int {
	return raise(L, "after", checkNode(L, 1).After(checkNode(L, 2)))
}

// node:wrap(container)
func (a *api) nodeWrap(L *lua.LState) int {
	return raise(L, "wrap", checkNode(L, 1).Wrap(checkNode(L, 2)))
}

// node:unwrap()
func (a *api) nodeUnwrap(L *lua.LState) int {
	return raise(L, "unwrap", checkNode(L, 1).Unwrap())
}

// node:remove()
func (a *api) nodeRemove(L *lua.LState) int {
	checkNode(L, 1).Remove()
	return 0
}

func (a *api) nodeEq(L *lua.LState) int {
	L.Push(lua.LBool(checkNode(L, 1) == checkNode(L, 2)))
	return 1
}

func (a *api) nodeString(L *lua.LState) int {
	L.Push(lua.LString(checkNode(L, 1).String()))
	return 1
}

// range:start_container() -> node
func (a *api) rangeStartContainer(L *lua.LState) int {
	L.Push(a.node(checkRange(L, 1).StartContainer()))
	return 1
}

// range:end_container() -> node
func (a *api) rangeEndContainer(L *lua.LState) int {
	L.Push(a.node(checkRange(L, 1).EndContainer()))
	return 1
}

// range:collapsed() -> bool
func (a *api) rangeCollapsed(L *lua.LState) int {
	L.Push(lua.LBool(checkRange(L, 1).IsCollapsed()))
	return 1
}

// range:text() -> string
// Returns the text of the selected chars.
func (a *api) rangeText(L *lua.LState) int {
	var sb strings.Builder
	for _, c := range checkRange(L, 1).SelectedNodes(vnode.OfKind(vnode.CharKind)) {
		sb.WriteString(c.Char())
	}
	L.Push(lua.LString(sb.String()))
	return 1
}

// range:selected([kind]) -> {node}
func (a *api) rangeSelected(L *lua.LState) int {
	r := checkRange(L, 1)
	L.Push(a.nodes(r.SelectedNodes(a.optPredicate(L, 2))))
	return 1
}

// range:targeted(kind) -> {node}
func (a *api) rangeTargeted(L *lua.LState) int {
	r := checkRange(L, 1)
	L.Push(a.nodes(r.TargetedNodes(vnode.OfKind(a.checkKind(L, 2)))))
	return 1
}

// range:insert(node)
// Inserts node just before the range start.
func (a *api) rangeInsert(L *lua.LState) int {
	r := checkRange(L, 1)
	return raise(L, "insert", r.Start().Before(checkNode(L, 2)))
}

// range:empty()
func (a *api) rangeEmpty(L *lua.LState) int {
	return raise(L, "empty", checkRange(L, 1).Empty())
}

// range:collapse(["start"|"end"])
func (a *api) rangeCollapse(L *lua.LState) int {
	r := checkRange(L, 1)
	edge := vrange.StartEdge
	switch L.OptString(2, "start") {
	case "start":
	case "end":
		edge = vrange.EndEdge
	default:
		L.ArgError(2, `"start" or "end" expected`)
	}
	return raise(L, "collapse", r.Collapse(edge))
}

// range:select(first, last)
// Spans the range from before first to after last.
func (a *api) rangeSelect(L *lua.LState) int {
	r := checkRange(L, 1)
	first := checkNode(L, 2)
	last := first
	if L.GetTop() >= 3 {
		last = checkNode(L, 3)
	}
	return raise(L, "select", r.SetBounds(vrange.Selecting(first, last)))
}

// range:set(node, position)
// Collapses the range at position ("before", "after" or "inside") of node.
func (a *api) rangeSet(L *lua.LState) int {
	r := checkRange(L, 1)
	n := checkNode(L, 2)
	pos, err := vrange.ParsePosition(L.OptString(3, "before"))
	if err != nil {
		L.ArgError(3, err.Error())
	}
	return raise(L, "set", r.SetBounds(vrange.At(n, pos)))
}
