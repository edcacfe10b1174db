// Package vnode implements the abstract document tree.
//
// A document is a tree of *Node values. Every node has a Kind that decides
// whether it owns children (Container), can never own children (Atomic) and
// whether it represents real content (Tangible). Range markers are
// intangible atomic nodes spliced into the child sequences like any other
// node, so ordinary mutations keep selections consistent.
//
// # Queries
//
// Node methods such as Children, FirstLeaf and Descendants work on tangible
// children and skip markers. The Walker type generalizes them and can see
// through intangible nodes (Tangible) or see everything (Raw):
//
//	p := vnode.NewParagraph()
//	p.Append(vnode.NewChars("abc")...)
//	vnode.Tangible.NextLeaf(p.FirstLeaf(vnode.Any), vnode.Any) // "b"
//
// Queries that find nothing return nil or an empty slice.
//
// # Mutations
//
// Prepend, Append, InsertBefore, InsertAfter, RemoveChild, Empty, SplitAt,
// MergeWith and Unwrap validate their arguments before touching any link and
// return ErrNotAChild or ErrInvalidArgument (wrapped in *ChildError or
// *ArgumentError) on failure. Child-list notifications registered with
// OnChildListChange are delivered only after a mutation completes. Removing
// a node does not cancel its registrations; the cancel function does.
//
// The package is not safe for concurrent use. Callers serialize edits.
package vnode
