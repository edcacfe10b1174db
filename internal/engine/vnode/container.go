package vnode

import "slices"

// Children returns the tangible direct children matching p. Intangible
// children are skipped, not expanded.
func (n *Node) Children(p Predicate) []*Node {
	var out []*Node
	for _, child := range n.children {
		if child.Tangible() && p.Test(child) {
			out = append(out, child)
		}
	}
	return out
}

// HasChildren reports whether n has at least one tangible child.
func (n *Node) HasChildren() bool {
	return slices.ContainsFunc(n.children, (*Node).Tangible)
}

// NthChild returns the nth tangible child, 1-based, or nil.
func (n *Node) NthChild(i int) *Node {
	children := n.Children(Any)
	if i < 1 || i > len(children) {
		return nil
	}
	return children[i-1]
}

// FirstChild returns the first tangible child matching p.
func (n *Node) FirstChild(p Predicate) *Node {
	for _, child := range n.children {
		if child.Tangible() && p.Test(child) {
			return child
		}
	}
	return nil
}

// LastChild returns the last tangible child matching p.
func (n *Node) LastChild(p Predicate) *Node {
	for i := len(n.children) - 1; i >= 0; i-- {
		if child := n.children[i]; child.Tangible() && p.Test(child) {
			return child
		}
	}
	return nil
}

func (n *Node) isLeafMatching(p Predicate) bool {
	return !n.HasChildren() && p.Test(n)
}

// FirstLeaf returns n itself when it is a leaf matching p, and otherwise the
// first descendant leaf matching p.
func (n *Node) FirstLeaf(p Predicate) *Node {
	if n.isLeafMatching(p) {
		return n
	}
	return n.FirstDescendant(Func(func(d *Node) bool { return d.isLeafMatching(p) }))
}

// LastLeaf is the mirror of FirstLeaf.
func (n *Node) LastLeaf(p Predicate) *Node {
	if n.isLeafMatching(p) {
		return n
	}
	return n.LastDescendant(Func(func(d *Node) bool { return d.isLeafMatching(p) }))
}

// FirstDescendant returns the first tangible descendant of n, in pre-order,
// that matches p.
func (n *Node) FirstDescendant(p Predicate) *Node {
	d := n.FirstChild(Any)
	for d != nil && !p.Test(d) {
		d = n.DescendantAfter(d)
	}
	return d
}

// LastDescendant returns the last tangible descendant of n, in pre-order,
// that matches p.
func (n *Node) LastDescendant(p Predicate) *Node {
	d := n.LastChild(Any)
	for d != nil && d.HasChildren() {
		d = d.LastChild(Any)
	}
	for d != nil && !p.Test(d) {
		d = n.DescendantBefore(d)
	}
	return d
}

// Descendants returns every tangible descendant matching p in pre-order.
// Intangible nodes are not returned but their children are visited.
func (n *Node) Descendants(p Predicate) []*Node {
	var out []*Node
	stack := slices.Clone(n.children)
	for len(stack) > 0 {
		d := stack[0]
		stack = stack[1:]
		if d.Tangible() && p.Test(d) {
			out = append(out, d)
		}
		if len(d.children) > 0 {
			stack = append(slices.Clone(d.children), stack...)
		}
	}
	return out
}

// DescendantBefore returns the node preceding d in a pre-order traversal
// bounded at n. It returns nil when d is the first descendant of n.
func (n *Node) DescendantBefore(d *Node) *Node {
	if prev := Tangible.PreviousSibling(d, Any); prev != nil {
		return prev.LastLeaf(Any)
	}
	if d.parent != n {
		return d.parent
	}
	return nil
}

// DescendantAfter returns the node following d in a pre-order traversal
// bounded at n. It returns nil when d is the last descendant of n.
func (n *Node) DescendantAfter(d *Node) *Node {
	if next := d.FirstChild(Any); next != nil {
		return next
	}
	if next := Tangible.NextSibling(d, Any); next != nil {
		return next
	}
	ancestor := d.parent
	for ancestor != nil && ancestor != n {
		if next := Tangible.NextSibling(ancestor, Any); next != nil {
			return next
		}
		ancestor = ancestor.parent
	}
	return nil
}

// checkInsert validates that child may be inserted into n.
func (n *Node) checkInsert(op string, child *Node) error {
	switch {
	case child == nil:
		return argError(op, "nil node")
	case n.Atomic():
		return ErrAtomic
	case child.Contains(n):
		return argError(op, "cannot insert a node into itself or its descendants")
	}
	return nil
}

// Prepend inserts each node at index 0, in argument order, so that the last
// argument ends up first. A single child-list notification is emitted if any
// of the nodes is tangible.
func (n *Node) Prepend(nodes ...*Node) error {
	for _, child := range nodes {
		if err := n.checkInsert("prepend", child); err != nil {
			return err
		}
	}
	b := &batch{}
	for _, child := range nodes {
		n.insertAtIndex(child, 0, b)
	}
	b.flush()
	return nil
}

// Append inserts the nodes at the end of the child sequence, in order.
func (n *Node) Append(nodes ...*Node) error {
	for _, child := range nodes {
		if err := n.checkInsert("append", child); err != nil {
			return err
		}
	}
	b := &batch{}
	for _, child := range nodes {
		n.insertAtIndex(child, len(n.children), b)
	}
	b.flush()
	return nil
}

// InsertBefore inserts node right before ref, which must be a child of n.
func (n *Node) InsertBefore(node, ref *Node) error {
	return n.insertRelative("insert before", node, ref, 0)
}

// InsertAfter inserts node right after ref, which must be a child of n.
func (n *Node) InsertAfter(node, ref *Node) error {
	return n.insertRelative("insert after", node, ref, 1)
}

func (n *Node) insertRelative(op string, node, ref *Node, offset int) error {
	idx := n.indexOf(ref)
	if ref == nil || idx < 0 {
		return &ChildError{Parent: n, Child: ref}
	}
	if err := n.checkInsert(op, node); err != nil {
		return err
	}
	if node == ref {
		return nil
	}
	b := &batch{}
	n.insertAtIndex(node, idx+offset, b)
	b.flush()
	return nil
}

// RemoveChild detaches child from n. Listeners registered on child and its
// descendants stay registered.
func (n *Node) RemoveChild(child *Node) error {
	idx := n.indexOf(child)
	if child == nil || idx < 0 {
		return &ChildError{Parent: n, Child: child}
	}
	b := &batch{}
	n.removeAtIndex(idx, b)
	b.flush()
	return nil
}

// Empty removes every child of n, markers included.
func (n *Node) Empty() {
	if len(n.children) == 0 {
		return
	}
	b := &batch{}
	for len(n.children) > 0 {
		n.removeAtIndex(len(n.children)-1, b)
	}
	b.flush()
}

// SplitAt moves child and every following sibling into a shallow clone of n
// inserted right after n, and returns the clone.
func (n *Node) SplitAt(child *Node) (*Node, error) {
	if child == nil || child.parent != n {
		return nil, &ChildError{Parent: n, Child: child}
	}
	if n.parent == nil {
		return nil, argError("split", "detached container cannot be split")
	}
	b := &batch{}
	dup := n.splitAt(child, b)
	b.flush()
	return dup, nil
}

func (n *Node) splitAt(child *Node, b *batch) *Node {
	dup := n.Clone(false)
	idx := n.indexOf(child)
	moved := slices.Clone(n.children[idx:])
	clear(n.children[idx:])
	n.children = n.children[:idx]
	dup.children = moved
	for _, c := range moved {
		c.parent = dup
		if c.Tangible() {
			b.mark(n)
			b.mark(dup)
		}
	}
	n.parent.insertAtIndex(dup, n.Index()+1, b)
	return dup
}

// MergeWith moves the children of n into target and removes n. When n is a
// child of target the children take the place of n; otherwise they are
// appended to target. Merging a node with itself does nothing.
func (n *Node) MergeWith(target *Node) error {
	if target == n {
		return nil
	}
	if target == nil {
		return argError("merge", "nil target")
	}
	if target.Atomic() && len(n.children) > 0 {
		return ErrAtomic
	}
	if n.Contains(target) {
		return argError("merge", "target is a descendant")
	}
	b := &batch{}
	for _, child := range slices.Clone(n.children) {
		if n.parent == target {
			target.insertAtIndex(child, target.indexOf(n), b)
		} else {
			target.insertAtIndex(child, len(target.children), b)
		}
	}
	n.remove(b)
	b.flush()
	return nil
}

// Unwrap moves every child of n in front of n, preserving order, then
// removes n.
func (n *Node) Unwrap() error {
	if n.parent == nil {
		return argError("unwrap", "detached node")
	}
	b := &batch{}
	parent := n.parent
	for _, child := range slices.Clone(n.children) {
		parent.insertAtIndex(child, parent.indexOf(n), b)
	}
	n.remove(b)
	b.flush()
	return nil
}

// Remove detaches n from its parent. Removing a detached node does nothing.
func (n *Node) Remove() {
	b := &batch{}
	n.remove(b)
	b.flush()
}

func (n *Node) remove(b *batch) {
	if n.parent == nil {
		return
	}
	n.parent.removeAtIndex(n.Index(), b)
}

// Before inserts node as the previous sibling of n.
func (n *Node) Before(node *Node) error {
	if n.parent == nil {
		return argError("before", "detached node has no siblings")
	}
	return n.parent.InsertBefore(node, n)
}

// After inserts node as the next sibling of n.
func (n *Node) After(node *Node) error {
	if n.parent == nil {
		return argError("after", "detached node has no siblings")
	}
	return n.parent.InsertAfter(node, n)
}

// ReplaceWith puts node at the position of n and removes n.
func (n *Node) ReplaceWith(node *Node) error {
	if node == n {
		return nil
	}
	if n.parent == nil {
		return argError("replace", "detached node cannot be replaced")
	}
	if err := n.parent.checkInsert("replace", node); err != nil {
		return err
	}
	if node.Contains(n) {
		return argError("replace", "replacement contains the node")
	}
	b := &batch{}
	n.replaceWith(node, b)
	b.flush()
	return nil
}

func (n *Node) replaceWith(node *Node, b *batch) {
	parent := n.parent
	parent.insertAtIndex(node, parent.indexOf(n), b)
	n.remove(b)
}

// Wrap inserts container in place of n and moves n inside it.
func (n *Node) Wrap(container *Node) error {
	if container == nil {
		return argError("wrap", "nil container")
	}
	if container.Atomic() {
		return ErrAtomic
	}
	if err := n.Before(container); err != nil {
		return err
	}
	return container.Append(n)
}

// insertAtIndex is the primitive every insertion funnels through. index is a
// raw index, markers included.
//
// A container that may not hold containers is split around an incoming
// container instead of nesting it. Detached trees are never split, so
// parsers can assemble fragments freely before attaching them.
func (n *Node) insertAtIndex(child *Node, index int, b *batch) {
	if n.parent != nil && !n.MayContainContainers() && child.IsContainer() {
		n.splitAround(child, index, b)
		return
	}
	if old := child.parent; old != nil {
		cur := old.indexOf(child)
		if index > 0 && old == n && cur < index {
			index--
		}
		old.removeAtIndex(cur, b)
	}
	index = min(max(index, 0), len(n.children))
	n.children = slices.Insert(n.children, index, child)
	child.parent = n
	if child.Tangible() {
		b.mark(n)
	}
}

func (n *Node) splitAround(child *Node, index int, b *batch) {
	if !n.HasChildren() {
		n.replaceKeepingMarkers(child, b)
		return
	}
	var dup *Node
	if index < len(n.children) {
		dup = n.splitAt(n.children[index], b)
	}
	switch {
	case !n.HasChildren():
		n.replaceKeepingMarkers(child, b)
	case dup != nil && !dup.HasChildren():
		dup.replaceKeepingMarkers(child, b)
	default:
		n.parent.insertAtIndex(child, n.Index()+1, b)
	}
}

// replaceKeepingMarkers replaces n with node after moving the intangible
// children of n in front of it, so range markers stay in the tree.
func (n *Node) replaceKeepingMarkers(node *Node, b *batch) {
	parent := n.parent
	for _, c := range slices.Clone(n.children) {
		parent.insertAtIndex(c, parent.indexOf(n), b)
	}
	n.replaceWith(node, b)
}

func (n *Node) removeAtIndex(index int, b *batch) {
	child := n.children[index]
	n.children = slices.Delete(n.children, index, index+1)
	child.parent = nil
	if child.Tangible() {
		b.mark(n)
	}
}
