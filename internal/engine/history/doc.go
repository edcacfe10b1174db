// Package history provides undo/redo for the document engine.
//
// History records edits as pairs of snapshots. A Snapshot is a deep copy of
// the tangible document content together with the location of the selection
// markers, stored as a path of tangible child indexes so that it can be
// re-seated in a freshly cloned tree:
//
//	before := history.Capture(root, sel)
//	// ... mutate the tree ...
//	h.Push(history.NewEdit("Insert Text", before, history.Capture(root, sel)))
//
//	h.Undo(root, sel) // restores before
//	h.Redo(root, sel) // restores after
//
// # Grouping
//
// Edits pushed between BeginGroup and EndGroup are coalesced into a single
// Edit running from the first edit's Before snapshot to the last one's
// After snapshot:
//
//	h.BeginGroup("Paste")
//	// ... multiple edits ...
//	h.EndGroup()
//
// Restoring a snapshot replaces the children of the document root rather
// than the root itself, so listeners registered on the root stay attached.
package history
