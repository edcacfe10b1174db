package core

import (
	"fmt"
	"strings"

	"github.com/dshills/quire/internal/dispatcher/execctx"
	"github.com/dshills/quire/internal/dispatcher/handler"
	"github.com/dshills/quire/internal/engine/vnode"
	"github.com/dshills/quire/internal/engine/vrange"
	"github.com/dshills/quire/internal/markup"
	"github.com/dshills/quire/internal/schema"
)

// Command names for insertion.
const (
	ActionInsertText           = "insertText"
	ActionInsert               = "insert"
	ActionInsertLineBreak      = "insertLineBreak"
	ActionInsertParagraphBreak = "insertParagraphBreak"
)

// TextHandler handles insertion commands.
type TextHandler struct {
	registry *schema.Registry
	parser   *markup.Parser
}

// NewTextHandler creates a text handler resolving kinds and markup with reg.
func NewTextHandler(reg *schema.Registry) *TextHandler {
	return &TextHandler{registry: reg, parser: markup.NewParser(reg)}
}

// Handle implements handler.Handler.
func (h *TextHandler) Handle(action handler.Action, ec *execctx.ExecutionContext) handler.Result {
	if err := ec.Validate(); err != nil {
		return handler.Error(err)
	}

	switch action.Name {
	case ActionInsertText:
		return h.insertText(ec, action.Args)
	case ActionInsert:
		return h.insert(ec, action.Args)
	case ActionInsertLineBreak:
		return insertNodes(ec.Range, vnode.NewLineBreak())
	case ActionInsertParagraphBreak:
		return h.insertParagraphBreak(ec)
	default:
		return handler.Errorf("unknown text command: %s", action.Name)
	}
}

// insertText replaces the selection with text. Newlines become line breaks.
func (h *TextHandler) insertText(ec *execctx.ExecutionContext, args execctx.Args) handler.Result {
	rng := ec.Range
	text := strings.ReplaceAll(args.String("text"), "\r\n", "\n")
	if text == "" && rng.IsCollapsed() {
		return handler.NoOp()
	}

	formats := inheritedFormats(rng)
	if args.Has("formats") {
		formats = parseFormats(args.String("formats"))
	}

	if !rng.IsCollapsed() {
		if err := rng.Empty(); err != nil {
			return handler.Error(err)
		}
	}

	var nodes []*vnode.Node
	for i, line := range strings.Split(text, "\n") {
		if i > 0 {
			nodes = append(nodes, vnode.NewLineBreak())
		}
		nodes = append(nodes, vnode.NewChars(line, formats...)...)
	}
	result := insertNodes(rng, nodes...)
	if result.IsError() || len(nodes) == 0 || !args.Bool("select") {
		return result
	}
	if err := rng.SetBounds(vrange.Selecting(nodes[0], nodes[len(nodes)-1])); err != nil {
		return handler.Error(err)
	}
	return result
}

// insert inserts a node given by Go callers, parsed markup or a kind name.
// Markup carrying range brackets moves the selection there.
func (h *TextHandler) insert(ec *execctx.ExecutionContext, args execctx.Args) handler.Result {
	rng := ec.Range

	switch {
	case args.Has("node"):
		n, ok := args["node"].(*vnode.Node)
		if !ok || n == nil {
			return handler.Error(&ArgError{Arg: "node", Value: fmt.Sprint(args["node"])})
		}
		return emptyThenInsert(rng, n)

	case args.Has("markup"):
		doc, err := h.parser.Parse(args.String("markup"))
		if err != nil {
			return handler.Error(err)
		}
		// Raw children, so that bracket placeholders move into the document
		// along with the content.
		if result := emptyThenInsert(rng, doc.Root.RawChildren()...); result.IsError() {
			return result
		}
		if doc.Start != nil || doc.End != nil {
			if err := doc.Range(rng); err != nil {
				return handler.Error(err)
			}
		}
		return handler.Success()

	case args.Has("kind"):
		name := args.String("kind")
		k, ok := h.registry.Kind(name)
		if !ok {
			return handler.Error(fmt.Errorf("%w: %s", ErrUnknownKind, name))
		}
		return emptyThenInsert(rng, vnode.New(k))
	}
	return handler.Error(fmt.Errorf("%w: insert needs node, markup or kind", execctx.ErrMissingArg))
}

// insertParagraphBreak splits the block holding the range start. Outside a
// breakable block a line break is inserted instead.
func (h *TextHandler) insertParagraphBreak(ec *execctx.ExecutionContext) handler.Result {
	rng := ec.Range
	if !rng.IsCollapsed() {
		if err := rng.Empty(); err != nil {
			return handler.Error(err)
		}
	}

	block := rng.StartContainer()
	if block.Parent() == nil || !block.Breakable() {
		return insertNodes(rng, vnode.NewLineBreak())
	}
	if _, err := block.SplitAt(rng.Start()); err != nil {
		return handler.Error(err)
	}
	return handler.Success()
}

func emptyThenInsert(rng *vrange.Range, nodes ...*vnode.Node) handler.Result {
	if !rng.IsCollapsed() {
		if err := rng.Empty(); err != nil {
			return handler.Error(err)
		}
	}
	return insertNodes(rng, nodes...)
}

// insertNodes inserts nodes in order just before the range start.
func insertNodes(rng *vrange.Range, nodes ...*vnode.Node) handler.Result {
	for _, n := range nodes {
		if err := rng.Start().Before(n); err != nil {
			return handler.Error(err)
		}
	}
	return handler.Success().WithData("inserted", len(nodes))
}

// inheritedFormats returns the formats of the first selected char, or of
// the char before the range, or of the char after it.
func inheritedFormats(rng *vrange.Range) []*vnode.Format {
	isChar := vnode.OfKind(vnode.CharKind)
	if !rng.IsCollapsed() {
		if chars := rng.SelectedNodes(isChar); len(chars) > 0 {
			return chars[0].Formats()
		}
	}
	if prev := rng.Start().PreviousSibling(vnode.Any); prev.Test(isChar) {
		return prev.Formats()
	}
	if next := rng.End().NextSibling(vnode.Any); next.Test(isChar) {
		return next.Formats()
	}
	return nil
}

// parseFormats parses a comma-separated list of format names.
func parseFormats(s string) []*vnode.Format {
	var out []*vnode.Format
	for name := range strings.SplitSeq(s, ",") {
		if name = strings.TrimSpace(name); name != "" {
			out = append(out, vnode.NewFormat(name))
		}
	}
	return out
}
