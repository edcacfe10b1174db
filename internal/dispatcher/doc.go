// Package dispatcher runs named editing commands against a document.
//
// Several definitions may be registered under one command name, each with
// an optional selector: a list of node predicates matched against the
// ancestors of the range start. When a command is dispatched the most
// specific matching definition runs:
//
//  1. The deeper the ancestor matched by the last predicate, the more
//     specific the definition.
//  2. On equal depth the longer selector wins.
//  3. A definition without a selector matches anywhere with the lowest
//     specificity.
//  4. On a complete tie the later registration wins.
//
// For the document
//
//	<list><list-item><p>[]a</p></list-item></list>
//
// a definition with selector [list, p] beats [p], which beats [list],
// which beats the empty selector.
//
// # Execution
//
// A top-level Dispatch runs inside Editor.Edit, so the command is one
// undoable step and a failing command leaves the document untouched:
//
//  1. An ExecutionContext is built over the document root and selection.
//  2. Pre-dispatch hooks run and may cancel the command.
//  3. The definition is matched.
//  4. The handler runs, with optional panic recovery.
//  5. Command hooks registered for the name (then for AllCommands) run.
//  6. Post-dispatch hooks run.
//  7. Metrics are recorded (if enabled).
//
// Handlers dispatch further commands with the context of their execution:
//
//	d.Dispatch(ec.Context(), handler.NewAction("insertText", "text", "x"))
//
// Such nested commands share the running edit and range.
//
// # Usage
//
//	d := dispatcher.NewWithDefaults()
//	d.SetEditor(eng)
//	d.RegisterHandlerFunc("selectAll", selectAll)
//	d.Register("indent", handler.Definition{
//	    Selector: []vnode.Predicate{vnode.OfKind(schema.ListItemKind)},
//	    Handler:  indentListItem,
//	})
//
//	result := d.Execute(ctx, "selectAll", nil)
package dispatcher
