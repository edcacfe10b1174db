// Package core provides the built-in editing commands.
//
// Every command works on the persistent selection range of the execution
// context and is registered without a selector unless noted.
//
// # Text
//
//   - insertText (text, select, formats): replace the selection with text.
//     Inserted chars copy the formats of the neighbouring char unless
//     formats is given as a comma-separated list of names.
//   - insert (markup | kind): insert parsed markup or a new node of kind.
//   - insertLineBreak: insert a line break.
//   - insertParagraphBreak: split the block holding the range.
//
// # Deletion
//
//   - deleteBackward, deleteForward: remove the selection, or the leaf
//     before or after a collapsed range, merging blocks at their edges.
//
// # Selection
//
//   - selectAll, collapse (edge), extendTo (path)
//
// # Formats
//
//   - applyFormat, removeFormat, toggleFormat (format, plus optional
//     attr.* arguments) on the selected chars
//
// # Blocks
//
//   - setAttribute, removeAttribute (name, value) on the targeted blocks
//   - applyBlock (kind): change the kind of the targeted paragraphs
//   - wrap (kind): move the blocks covered by the range into a new container
//   - unwrap (kind): dissolve the closest enclosing container
//
// # Lists
//
// insertParagraphBreak has a second definition with the selector
// [list, list-item] that applies in an empty last list item and moves the
// caret out of the list into a new paragraph.
//
// # Usage
//
//	d.RegisterNamespace(core.Namespace(schema.Default()))
//	d.Execute(ctx, core.ActionInsertText, execctx.Args{"text": "hello"})
package core
