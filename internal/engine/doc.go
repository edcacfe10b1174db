// Package engine provides the document engine facade.
//
// The engine owns one document tree and one persistent selection. The tree
// is a vnode fragment whose children are the blocks of the document; the
// selection is a vrange.Range whose markers live inside the tree, so every
// mutation keeps it consistent without any bookkeeping.
//
// # Architecture
//
// The engine is built on several sub-packages:
//
//   - vnode: nodes, containers, mutation primitives and the Walker
//   - vrange: marker-based ranges
//   - history: snapshot-based undo/redo
//
// # Thread Safety
//
// All Engine operations are thread-safe. Reads share a read lock; Edit,
// Undo and Redo take the write lock for their whole duration.
//
// # Basic Usage
//
//	e, _ := engine.New(engine.WithContent("<p>a[b]c</p>"))
//
//	e.Edit("Delete", func(root *vnode.Node, sel *vrange.Range) error {
//		return sel.Empty()
//	})
//	e.Markup() // "<p>a[]c</p>"
//
//	e.Undo()
//	e.Markup() // "<p>a[b]c</p>"
//
// A failing EditFunc leaves the document as it was before the call.
package engine
