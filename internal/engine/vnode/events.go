package vnode

import "slices"

// ChildListEvent reports that the tangible children of Container changed.
// It is delivered to listeners of the container and of every ancestor.
type ChildListEvent struct {
	Container *Node
}

type listener struct {
	fn func(ChildListEvent)
}

// OnChildListChange registers fn to be called after any primitive changes
// the tangible children of n or of one of its descendants. The returned
// function cancels the registration.
//
// Registrations belong to n, not to its position: they survive RemoveChild,
// Remove and every move, so a node taken out and inserted elsewhere keeps
// reporting. A detached node only hears about changes inside its own subtree.
func (n *Node) OnChildListChange(fn func(ChildListEvent)) (cancel func()) {
	l := &listener{fn: fn}
	n.listeners = append(n.listeners, l)
	return func() {
		n.listeners = slices.DeleteFunc(n.listeners, func(o *listener) bool { return o == l })
	}
}

// batch collects the containers touched by one primitive. Notifications are
// delivered only once the primitive has completed, so listeners never observe
// an intermediate state.
type batch struct {
	changed []*Node
}

func (b *batch) mark(n *Node) {
	if !slices.Contains(b.changed, n) {
		b.changed = append(b.changed, n)
	}
}

func (b *batch) flush() {
	for _, c := range b.changed {
		ev := ChildListEvent{Container: c}
		for a := c; a != nil; a = a.parent {
			for _, l := range slices.Clone(a.listeners) {
				l.fn(ev)
			}
		}
	}
	b.changed = nil
}
