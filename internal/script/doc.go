// Package script runs editor commands written in Lua.
//
// A Host owns a sandboxed gopher-lua state: only the base, table, string
// and math libraries are available and nothing can be loaded from disk
// once a script is running. Scripts define commands through the global
// quire module:
//
//	quire.command("shout", {title = "Shout", selector = {"paragraph"}},
//	  function(ctx, args)
//	    local text = ctx.range:text()
//	    if text == "" then return false end
//	    return quire.dispatch("insertText", {text = string.upper(text)})
//	  end)
//
// The ctx table carries the command name, the execution id, the document
// root, the current range and the nodes matched by the selector. Nodes and
// ranges are userdata exposing the tree and range operations, for example
// node:children(), node:wrap(container) or range:selected("char").
//
// A command returns nothing or true on success, false for a no-op, a
// string as a success message or a table as result data. Raising an error
// fails the command, which rolls back its edit.
//
// Each top-level run is bounded by a deadline and by a budget of API
// calls; see WithTimeout and WithCallLimit.
package script
