// Package event is quire's notification bus.
//
// Components publish events on hierarchical dot-separated topics and
// observers subscribe with patterns:
//
//	command.dispatched   a command finished, whatever its outcome
//	document.changed     a child list of the document changed
//	document.saved       the document was written to a file
//
// Patterns may use wildcards. "*" matches exactly one segment and "**"
// matches any number of segments, including none:
//
//	document.*   matches document.changed and document.saved
//	**           matches everything
//
// Synchronous delivery runs handlers on the publisher's goroutine in
// priority order. Asynchronous delivery hands events to a single worker
// so handlers see them in publish order; the worker must be started with
// Start and drained with Stop.
//
// Handlers of events published while the document is being edited must
// not call back into the engine synchronously: subscribe with async
// delivery instead.
package event
