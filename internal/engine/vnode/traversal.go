package vnode

// The methods below are shorthands for the Tangible walker.

// Closest returns n or its nearest ancestor matching p.
func (n *Node) Closest(p Predicate) *Node { return Tangible.Closest(n, p) }

// Ancestor returns the nearest tangible ancestor matching p.
func (n *Node) Ancestor(p Predicate) *Node { return Tangible.Ancestor(n, p) }

// Ancestors returns the tangible ancestors matching p, nearest first.
func (n *Node) Ancestors(p Predicate) []*Node { return Tangible.Ancestors(n, p) }

// CommonAncestor returns the lowest node containing both n and other.
func (n *Node) CommonAncestor(other *Node, p Predicate) *Node {
	return Tangible.CommonAncestor(n, other, p)
}

func (n *Node) Siblings(p Predicate) []*Node         { return Tangible.Siblings(n, p) }
func (n *Node) Adjacents(p Predicate) []*Node        { return Tangible.Adjacents(n, p) }
func (n *Node) PreviousSibling(p Predicate) *Node    { return Tangible.PreviousSibling(n, p) }
func (n *Node) NextSibling(p Predicate) *Node        { return Tangible.NextSibling(n, p) }
func (n *Node) PreviousSiblings(p Predicate) []*Node { return Tangible.PreviousSiblings(n, p) }
func (n *Node) NextSiblings(p Predicate) []*Node     { return Tangible.NextSiblings(n, p) }

// Previous returns the previous tangible node in pre-order matching p.
func (n *Node) Previous(p Predicate) *Node { return Tangible.Previous(n, p) }

// Next returns the next tangible node in pre-order matching p.
func (n *Node) Next(p Predicate) *Node { return Tangible.Next(n, p) }

func (n *Node) PreviousLeaf(p Predicate) *Node { return Tangible.PreviousLeaf(n, p) }
func (n *Node) NextLeaf(p Predicate) *Node     { return Tangible.NextLeaf(n, p) }

// IsBefore reports whether n precedes other in pre-order.
func (n *Node) IsBefore(other *Node) bool { return Tangible.IsBefore(n, other) }

// IsAfter reports whether n follows other in pre-order.
func (n *Node) IsAfter(other *Node) bool { return Tangible.IsAfter(n, other) }
