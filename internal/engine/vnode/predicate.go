package vnode

// Predicate filters nodes. The zero value matches every node; a predicate
// built with OfKind matches a kind tag; one built with Func delegates to an
// arbitrary function.
type Predicate struct {
	kind *Kind
	fn   func(*Node) bool
}

// Any matches every node.
var Any = Predicate{}

// OfKind returns a predicate matching nodes of the given kind.
func OfKind(k *Kind) Predicate {
	return Predicate{kind: k}
}

// Func returns a predicate delegating to fn. A nil fn matches everything.
func Func(fn func(*Node) bool) Predicate {
	return Predicate{fn: fn}
}

// IsZero reports whether p matches every node unconditionally.
func (p Predicate) IsZero() bool {
	return p.kind == nil && p.fn == nil
}

// Test reports whether n satisfies p.
func (p Predicate) Test(n *Node) bool {
	switch {
	case n == nil:
		return false
	case p.kind != nil:
		return n.kind == p.kind
	case p.fn != nil:
		return p.fn(n)
	default:
		return true
	}
}

// And returns a predicate matching nodes that satisfy both p and q.
func (p Predicate) And(q Predicate) Predicate {
	if p.IsZero() {
		return q
	}
	if q.IsZero() {
		return p
	}
	return Func(func(n *Node) bool {
		return p.Test(n) && q.Test(n)
	})
}

// Or returns a predicate matching nodes that satisfy p or q.
func (p Predicate) Or(q Predicate) Predicate {
	if p.IsZero() || q.IsZero() {
		return Any
	}
	return Func(func(n *Node) bool {
		return p.Test(n) || q.Test(n)
	})
}

// Not returns a predicate matching nodes that do not satisfy p.
func (p Predicate) Not() Predicate {
	return Func(func(n *Node) bool {
		return !p.Test(n)
	})
}

// Leaf matches nodes without tangible children.
var Leaf = Func(func(n *Node) bool { return !n.HasChildren() })

// Breakable matches breakable nodes.
var Breakable = Func(func(n *Node) bool { return n.Breakable() })

// Container matches nodes that own a child sequence.
var Container = Func(func(n *Node) bool { return n.IsContainer() })
