package vnode

import "slices"

// Filter configures a Walker.
type Filter struct {
	// Tangible hides intangible nodes. Their children are visited in their
	// place, as if the intangible node was not there.
	Tangible bool
}

// Walker is a stateless query engine over the node graph. It follows parent
// and child links from whatever node it is given and is not bound to a root.
//
// Queries that find nothing return nil or an empty slice.
type Walker struct {
	filter Filter
}

// NewWalker creates a walker with the given filter.
func NewWalker(f Filter) *Walker {
	return &Walker{filter: f}
}

var (
	// Tangible skips markers and other intangible nodes.
	Tangible = NewWalker(Filter{Tangible: true})
	// Raw sees every node.
	Raw = NewWalker(Filter{})
)

func (w *Walker) accept(n *Node) bool {
	return !w.filter.Tangible || n.Tangible()
}

// expands reports whether n is transparent for this walker.
func (w *Walker) expands(n *Node) bool {
	return w.filter.Tangible && !n.Tangible()
}

func (w *Walker) match(n *Node, p Predicate) bool {
	return w.accept(n) && p.Test(n)
}

// IsLeaf reports whether ref has no children visible to the walker.
func (w *Walker) IsLeaf(ref *Node) bool {
	return !w.HasChildren(ref)
}

// Children returns the children of ref matching p. With the tangible filter
// intangible children are replaced by their own children.
func (w *Walker) Children(ref *Node, p Predicate) []*Node {
	var out []*Node
	stack := slices.Clone(ref.children)
	for len(stack) > 0 {
		n := stack[0]
		stack = stack[1:]
		if w.expands(n) {
			stack = append(slices.Clone(n.children), stack...)
		} else if p.Test(n) {
			out = append(out, n)
		}
	}
	return out
}

// HasChildren reports whether ref has a child visible to the walker.
func (w *Walker) HasChildren(ref *Node) bool {
	if !w.filter.Tangible {
		return len(ref.children) > 0
	}
	stack := slices.Clone(ref.children)
	for i := 0; i < len(stack); i++ {
		if stack[i].Tangible() {
			return true
		}
		stack = append(stack, stack[i].children...)
	}
	return false
}

// NthChild returns the nth child of ref, 1-based.
func (w *Walker) NthChild(ref *Node, n int) *Node {
	children := w.Children(ref, Any)
	if n < 1 || n > len(children) {
		return nil
	}
	return children[n-1]
}

// pathToRoot returns n followed by its ancestors.
func pathToRoot(n *Node) []*Node {
	var path []*Node
	for a := n; a != nil; a = a.parent {
		path = append(path, a)
	}
	return path
}

// IsBefore reports whether a strictly precedes b in pre-order. An ancestor
// precedes its descendants. Nodes of different trees are incomparable and
// IsBefore returns false in both directions.
func (w *Walker) IsBefore(a, b *Node) bool {
	pa, pb := pathToRoot(a), pathToRoot(b)
	var ancA, ancB *Node
	for {
		ancA, ancB = nil, nil
		if len(pa) > 0 {
			ancA, pa = pa[len(pa)-1], pa[:len(pa)-1]
		}
		if len(pb) > 0 {
			ancB, pb = pb[len(pb)-1], pb[:len(pb)-1]
		}
		if ancA == nil || ancB == nil || ancA != ancB {
			break
		}
	}
	if ancA != nil && ancB != nil {
		parent := ancA.parent
		if parent == nil || parent != ancB.parent {
			return false
		}
		return parent.indexOf(ancA) < parent.indexOf(ancB)
	}
	// One path was a prefix of the other.
	return ancA == nil && ancB != nil
}

// IsAfter reports whether a strictly follows b in pre-order.
func (w *Walker) IsAfter(a, b *Node) bool {
	return w.IsBefore(b, a)
}

// Closest returns ref if it matches p, and otherwise its nearest matching
// ancestor.
func (w *Walker) Closest(ref *Node, p Predicate) *Node {
	if w.match(ref, p) {
		return ref
	}
	return w.Ancestor(ref, p)
}

// Parent returns the nearest ancestor visible to the walker.
func (w *Walker) Parent(ref *Node) *Node {
	a := ref.parent
	for a != nil && !w.accept(a) {
		a = a.parent
	}
	return a
}

// Ancestor returns the nearest ancestor of ref matching p.
func (w *Walker) Ancestor(ref *Node, p Predicate) *Node {
	a := ref.parent
	for a != nil && !w.match(a, p) {
		a = a.parent
	}
	return a
}

// Ancestors returns the ancestors of ref matching p, nearest first.
func (w *Walker) Ancestors(ref *Node, p Predicate) []*Node {
	var out []*Node
	for a := ref.parent; a != nil; a = a.parent {
		if w.match(a, p) {
			out = append(out, a)
		}
	}
	return out
}

// CommonAncestor returns the lowest node that is an ancestor of, or equal
// to, both a and b and matches p. It returns nil when the nodes are in
// different trees.
func (w *Walker) CommonAncestor(a, b *Node, p Predicate) *Node {
	chain := w.Ancestors(a, p)
	if w.match(a, p) {
		chain = append([]*Node{a}, chain...)
	}
	c := b
	for c != nil && !slices.Contains(chain, c) {
		c = c.parent
	}
	return c
}

// siblingsAndRef returns the visible children of the parent of ref, with
// ref itself kept in place whatever the filter.
func (w *Walker) siblingsAndRef(ref *Node) []*Node {
	parent := w.Parent(ref)
	if parent == nil {
		return []*Node{ref}
	}
	var out []*Node
	stack := slices.Clone(parent.children)
	for len(stack) > 0 {
		n := stack[0]
		stack = stack[1:]
		switch {
		case n == ref:
			out = append(out, n)
		case w.expands(n):
			stack = append(slices.Clone(n.children), stack...)
		default:
			out = append(out, n)
		}
	}
	return out
}

// Siblings returns the siblings of ref matching p, excluding ref.
func (w *Walker) Siblings(ref *Node, p Predicate) []*Node {
	siblings := w.siblingsAndRef(ref)
	var out []*Node
	for _, s := range siblings {
		if s != ref && p.Test(s) {
			out = append(out, s)
		}
	}
	return out
}

// Adjacents returns the contiguous run of siblings matching p around ref,
// including ref if it matches. The scan stops at the first non-matching
// sibling in each direction.
func (w *Walker) Adjacents(ref *Node, p Predicate) []*Node {
	siblings := w.siblingsAndRef(ref)
	idx := slices.Index(siblings, ref)
	var out []*Node
	for i := idx - 1; i >= 0 && p.Test(siblings[i]); i-- {
		out = append(out, siblings[i])
	}
	slices.Reverse(out)
	if w.match(ref, p) {
		out = append(out, ref)
	}
	for i := idx + 1; i < len(siblings) && p.Test(siblings[i]); i++ {
		out = append(out, siblings[i])
	}
	return out
}

// PreviousSiblings returns the previous siblings of ref matching p, nearest
// first.
func (w *Walker) PreviousSiblings(ref *Node, p Predicate) []*Node {
	siblings := w.siblingsAndRef(ref)
	var out []*Node
	for i := slices.Index(siblings, ref) - 1; i >= 0; i-- {
		if p.Test(siblings[i]) {
			out = append(out, siblings[i])
		}
	}
	return out
}

// NextSiblings returns the next siblings of ref matching p, nearest first.
func (w *Walker) NextSiblings(ref *Node, p Predicate) []*Node {
	siblings := w.siblingsAndRef(ref)
	var out []*Node
	for i := slices.Index(siblings, ref) + 1; i < len(siblings); i++ {
		if p.Test(siblings[i]) {
			out = append(out, siblings[i])
		}
	}
	return out
}

// PreviousSibling returns the nearest previous sibling of ref matching p.
func (w *Walker) PreviousSibling(ref *Node, p Predicate) *Node {
	for {
		parent := ref.parent
		if parent == nil {
			return nil
		}
		idx := parent.indexOf(ref)
		if idx == 0 {
			if w.expands(parent) {
				ref = parent
				continue
			}
			return nil
		}
		ref = parent.children[idx-1]
		if w.expands(ref) {
			if last := w.LastChild(ref, Any); last != nil {
				ref = last
			}
		}
		if w.match(ref, p) {
			return ref
		}
	}
}

// NextSibling returns the nearest next sibling of ref matching p.
func (w *Walker) NextSibling(ref *Node, p Predicate) *Node {
	for {
		parent := ref.parent
		if parent == nil {
			return nil
		}
		idx := parent.indexOf(ref)
		if idx >= len(parent.children)-1 {
			if w.expands(parent) {
				ref = parent
				continue
			}
			return nil
		}
		ref = parent.children[idx+1]
		if w.expands(ref) {
			if first := w.FirstChild(ref, Any); first != nil {
				ref = first
			}
		}
		if w.match(ref, p) {
			return ref
		}
	}
}

// Previous returns the node preceding ref in a pre-order traversal of the
// whole tree that matches p.
func (w *Walker) Previous(ref *Node, p Predicate) *Node {
	node := ref
	for {
		prev := w.PreviousSibling(node, Any)
		if prev != nil {
			prev = w.LastLeaf(prev, Any)
		} else {
			prev = w.Parent(node)
		}
		if prev == nil || w.match(prev, p) {
			return prev
		}
		node = prev
	}
}

// Next returns the node following ref in a pre-order traversal of the whole
// tree that matches p.
func (w *Walker) Next(ref *Node, p Predicate) *Node {
	node := ref
	for {
		next := w.FirstChild(node, Any)
		if next == nil {
			next = w.NextSibling(node, Any)
		}
		if next == nil {
			for a := w.Parent(node); a != nil; a = w.Parent(a) {
				if next = w.NextSibling(a, Any); next != nil {
					break
				}
			}
		}
		if next == nil || w.match(next, p) {
			return next
		}
		node = next
	}
}

// PreviousLeaf returns the nearest previous leaf matching p.
func (w *Walker) PreviousLeaf(ref *Node, p Predicate) *Node {
	return w.Previous(ref, Func(func(n *Node) bool { return w.IsLeaf(n) && p.Test(n) }))
}

// NextLeaf returns the nearest next leaf matching p.
func (w *Walker) NextLeaf(ref *Node, p Predicate) *Node {
	return w.Next(ref, Func(func(n *Node) bool { return w.IsLeaf(n) && p.Test(n) }))
}

// FirstChild returns the first child of ref matching p.
func (w *Walker) FirstChild(ref *Node, p Predicate) *Node {
	if len(ref.children) == 0 {
		return nil
	}
	n := ref.children[0]
	for w.expands(n) && len(n.children) > 0 {
		n = n.children[0]
	}
	if w.match(n, p) {
		return n
	}
	return w.NextSibling(n, p)
}

// LastChild returns the last child of ref matching p.
func (w *Walker) LastChild(ref *Node, p Predicate) *Node {
	if len(ref.children) == 0 {
		return nil
	}
	n := ref.children[len(ref.children)-1]
	for w.expands(n) && len(n.children) > 0 {
		n = n.children[len(n.children)-1]
	}
	if w.match(n, p) {
		return n
	}
	return w.PreviousSibling(n, p)
}

// FirstLeaf returns ref when it is a leaf matching p, and otherwise its first
// descendant leaf matching p.
func (w *Walker) FirstLeaf(ref *Node, p Predicate) *Node {
	valid := Func(func(n *Node) bool { return w.IsLeaf(n) && p.Test(n) })
	if valid.Test(ref) {
		return ref
	}
	return w.FirstDescendant(ref, valid)
}

// LastLeaf is the mirror of FirstLeaf.
func (w *Walker) LastLeaf(ref *Node, p Predicate) *Node {
	valid := Func(func(n *Node) bool { return w.IsLeaf(n) && p.Test(n) })
	if valid.Test(ref) {
		return ref
	}
	return w.LastDescendant(ref, valid)
}

// Descendants returns every descendant of ref matching p, in pre-order.
func (w *Walker) Descendants(ref *Node, p Predicate) []*Node {
	var out []*Node
	stack := slices.Clone(ref.children)
	for len(stack) > 0 {
		n := stack[0]
		stack = stack[1:]
		if w.match(n, p) {
			out = append(out, n)
		}
		if len(n.children) > 0 {
			stack = append(slices.Clone(n.children), stack...)
		}
	}
	return out
}

// FirstDescendant returns the first descendant of ref matching p.
func (w *Walker) FirstDescendant(ref *Node, p Predicate) *Node {
	stack := slices.Clone(ref.children)
	for len(stack) > 0 {
		n := stack[0]
		stack = stack[1:]
		if w.match(n, p) {
			return n
		}
		if len(n.children) > 0 {
			stack = append(slices.Clone(n.children), stack...)
		}
	}
	return nil
}

// LastDescendant returns the last descendant of ref, in pre-order, matching
// p.
func (w *Walker) LastDescendant(ref *Node, p Predicate) *Node {
	expanded := make(map[*Node]bool)
	stack := slices.Clone(ref.children)
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !expanded[n] && len(n.children) > 0 {
			expanded[n] = true
			stack = append(stack, n)
			stack = append(stack, n.children...)
		} else if w.match(n, p) {
			return n
		}
	}
	return nil
}
