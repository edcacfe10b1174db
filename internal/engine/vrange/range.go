package vrange

import (
	"slices"

	"github.com/dshills/quire/internal/engine/vnode"
)

// Range is a pair of marker nodes embedded in a document tree. The start
// marker never follows the end marker. Because the markers are ordinary
// children, every tree mutation keeps the range consistent.
type Range struct {
	start *vnode.Node
	end   *vnode.Node
}

// New creates a range whose markers are not yet in any tree.
func New() *Range {
	return &Range{
		start: vnode.NewMarker(),
		end:   vnode.NewMarker(),
	}
}

// NewAt creates a range and places it at b.
func NewAt(b Bounds) (*Range, error) {
	r := New()
	if err := r.SetBounds(b); err != nil {
		r.Remove()
		return nil, err
	}
	return r, nil
}

// SetBounds moves both markers to b. When the end is placed after its
// reference the end marker moves first, so that a start placed before the
// same reference cannot end up behind it.
func (r *Range) SetBounds(b Bounds) error {
	if b.End.Position == After {
		if err := r.SetEnd(b.End.Node, b.End.Position); err != nil {
			return err
		}
		return r.SetStart(b.Start.Node, b.Start.Position)
	}
	if err := r.SetStart(b.Start.Node, b.Start.Position); err != nil {
		return err
	}
	return r.SetEnd(b.End.Node, b.End.Position)
}

// Start returns the start marker.
func (r *Range) Start() *vnode.Node { return r.start }

// End returns the end marker.
func (r *Range) End() *vnode.Node { return r.end }

// StartContainer returns the node holding the start marker.
func (r *Range) StartContainer() *vnode.Node { return r.start.Parent() }

// EndContainer returns the node holding the end marker.
func (r *Range) EndContainer() *vnode.Node { return r.end.Parent() }

// Attached reports whether both markers are in a tree.
func (r *Range) Attached() bool {
	return r.start.Parent() != nil && r.end.Parent() != nil
}

// IsCollapsed reports whether nothing lies between the markers.
func (r *Range) IsCollapsed() bool {
	if !r.Attached() {
		return false
	}
	return vnode.Raw.NextSibling(r.start, vnode.Any) == r.end
}

// SetStart moves the start marker to pos relative to ref. Before resolves
// ref to its first leaf, the other positions to its last leaf. An empty
// non-atomic leaf receives the marker as its first child.
func (r *Range) SetStart(ref *vnode.Node, pos Position) error {
	if ref == nil {
		return errNilReference
	}
	if pos == Before {
		ref = ref.FirstLeaf(vnode.Any)
	} else {
		ref = ref.LastLeaf(vnode.Any)
	}
	switch {
	case !ref.HasChildren() && !ref.Atomic():
		return ref.Prepend(r.start)
	case pos == After && ref != r.end:
		return ref.After(r.start)
	case pos == Inside:
		return ref.Append(r.start)
	default:
		// Covers After the end marker, which would invert the range.
		return ref.Before(r.start)
	}
}

// SetEnd moves the end marker to pos relative to ref. It mirrors SetStart.
func (r *Range) SetEnd(ref *vnode.Node, pos Position) error {
	if ref == nil {
		return errNilReference
	}
	if pos == Before {
		ref = ref.FirstLeaf(vnode.Any)
	} else {
		ref = ref.LastLeaf(vnode.Any)
	}
	switch {
	case !ref.HasChildren() && !ref.Atomic():
		return ref.Append(r.end)
	case pos == Before && ref != r.start:
		return ref.Before(r.end)
	case pos == Inside:
		return ref.Append(r.end)
	default:
		return ref.After(r.end)
	}
}

// Edge names a range boundary.
type Edge int

const (
	StartEdge Edge = iota
	EndEdge
)

// Collapse moves one marker onto the other. StartEdge keeps the start.
func (r *Range) Collapse(edge Edge) error {
	if edge == EndEdge {
		return r.SetStart(r.end, Before)
	}
	return r.SetEnd(r.start, After)
}

// SelectedNodes returns the nodes fully enclosed by the range that match p,
// in document order. Containers only partially covered by the range, those
// holding the end marker, are left out.
func (r *Range) SelectedNodes(p vnode.Predicate) []*vnode.Node {
	if !r.Attached() {
		return nil
	}
	endContainers := r.end.Ancestors(vnode.Any)
	var out []*vnode.Node
	r.traverse(func(n *vnode.Node) {
		if !slices.Contains(endContainers, n) && p.Test(n) {
			out = append(out, n)
		}
	})
	return out
}

// TraversedNodes returns every node matching p met between the markers,
// including partially covered containers.
func (r *Range) TraversedNodes(p vnode.Predicate) []*vnode.Node {
	if !r.Attached() {
		return nil
	}
	var out []*vnode.Node
	r.traverse(func(n *vnode.Node) {
		if p.Test(n) {
			out = append(out, n)
		}
	})
	return out
}

// TargetedNodes is TraversedNodes preceded by the nearest ancestor of the
// start marker matching p. For a collapsed range it yields the enclosing
// node an operation should apply to.
func (r *Range) TargetedNodes(p vnode.Predicate) []*vnode.Node {
	if !r.Attached() {
		return nil
	}
	var out []*vnode.Node
	if a := r.start.Ancestor(p); a != nil {
		out = append(out, a)
	}
	return append(out, r.TraversedNodes(p)...)
}

// traverse calls fn for each tangible node after the start marker, in
// pre-order, up to and excluding the first node following the end marker.
func (r *Range) traverse(fn func(*vnode.Node)) {
	bound := r.end.Next(vnode.Any)
	for n := r.start.Next(vnode.Any); n != nil && n != bound; n = n.Next(vnode.Any) {
		fn(n)
	}
}

// ExtendTo grows the range so that it includes target. The range never
// shrinks: the start moves back when target precedes it, the end moves
// forward when target follows it.
func (r *Range) ExtendTo(target *vnode.Node) error {
	if !r.Attached() {
		return ErrDetached
	}
	switch {
	case target.IsBefore(r.start):
		prev := target.Previous(vnode.Any)
		if prev == nil {
			return r.SetStart(target, Before)
		}
		pos := After
		if prev.HasChildren() {
			prev = prev.FirstLeaf(vnode.Any)
			pos = Before
		}
		if r.end.NextSibling(vnode.Any) != prev {
			return r.SetStart(prev, pos)
		}
	case target.IsAfter(r.end):
		pos := After
		if target.HasChildren() {
			target = target.Next(vnode.Any)
			pos = Before
		}
		if target != nil {
			return r.SetEnd(target, pos)
		}
	}
	return nil
}

// Split breaks the containers of both markers up to a common boundary and
// returns the resulting top-level nodes between and including the split
// start and end, in order. Those nodes are owned entirely by the range, so
// block-level commands can restructure them.
//
// The boundary is the parent of the closest node matching p, searched from
// the common ancestor of the marker containers upward. When both markers
// share a container the search starts at that container's parent.
func (r *Range) Split(p vnode.Predicate) ([]*vnode.Node, error) {
	if !r.Attached() {
		return nil, ErrDetached
	}
	sc, ec := r.StartContainer(), r.EndContainer()
	var ancestor *vnode.Node
	if sc == ec {
		ancestor = sc.Parent()
	} else {
		ancestor = sc.CommonAncestor(ec, vnode.Any)
	}
	if ancestor == nil {
		ancestor = sc
	}
	container := ancestor
	if closest := ancestor.Closest(p); closest != nil && closest.Parent() != nil {
		container = closest.Parent()
	}

	start := r.start
	for start.Parent() != container {
		parent := start.Parent()
		if parent == nil {
			return nil, ErrDetached
		}
		// Do not split at the left edge of a node.
		if start.PreviousSibling(vnode.Any) != nil {
			dup, err := parent.SplitAt(start)
			if err != nil {
				return nil, err
			}
			parent = dup
		}
		start = parent
	}

	end := r.end
	for end.Parent() != container {
		parent := end.Parent()
		if parent == nil {
			return nil, ErrDetached
		}
		// Do not split at the right edge of a node.
		if end.NextSibling(vnode.Any) != nil {
			if _, err := parent.SplitAt(end); err != nil {
				return nil, err
			}
			if err := parent.Append(end); err != nil {
				return nil, err
			}
		}
		end = parent
	}

	var nodes []*vnode.Node
	for n := start; n != nil; n = vnode.Raw.NextSibling(n, vnode.Any) {
		if n.Tangible() {
			nodes = append(nodes, n)
		}
		if n == end {
			break
		}
	}
	return nodes, nil
}

// Empty removes the breakable nodes the range selects, then merges the
// end container back into the start container so that the range ends up
// collapsed.
func (r *Range) Empty() error {
	if !r.Attached() {
		return ErrDetached
	}
	for _, n := range r.SelectedNodes(vnode.Breakable) {
		n.Remove()
	}
	if r.StartContainer() == r.EndContainer() {
		return nil
	}
	common := r.start.CommonAncestor(r.end, vnode.Any)
	// A non-breakable end container is still split out of its ancestors,
	// it is only never merged. Each ancestor is split at the child that
	// leads down to the end container.
	for ancestor := r.EndContainer().Parent(); ancestor != nil && ancestor != common; ancestor = ancestor.Parent() {
		if len(ancestor.Children(vnode.Any)) > 1 {
			if _, err := ancestor.SplitAt(childToward(ancestor, r.EndContainer())); err != nil {
				return err
			}
		}
		if ec := r.EndContainer(); ec.Breakable() {
			if err := ec.MergeWith(ancestor); err != nil {
				return err
			}
		}
	}
	if ec := r.EndContainer(); ec.Breakable() && ec != r.StartContainer() {
		return ec.MergeWith(r.StartContainer())
	}
	return nil
}

// childToward returns the child of ancestor that is n or contains n.
func childToward(ancestor, n *vnode.Node) *vnode.Node {
	for n != nil && n.Parent() != ancestor {
		n = n.Parent()
	}
	return n
}

// Remove detaches both markers from the tree.
func (r *Range) Remove() {
	r.start.Remove()
	r.end.Remove()
}

// WithRange places a transient range at b, calls fn with it and removes the
// range afterwards, whatever fn returns.
func WithRange(b Bounds, fn func(*Range) error) error {
	r, err := NewAt(b)
	if err != nil {
		return err
	}
	defer r.Remove()
	return fn(r)
}
