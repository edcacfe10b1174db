package core

import (
	"strings"

	"github.com/dshills/quire/internal/dispatcher/execctx"
	"github.com/dshills/quire/internal/dispatcher/handler"
	"github.com/dshills/quire/internal/engine/vnode"
)

// Command names for inline formats.
const (
	ActionApplyFormat  = "applyFormat"
	ActionRemoveFormat = "removeFormat"
	ActionToggleFormat = "toggleFormat"
)

// attrPrefix marks arguments that become format attributes, as in
// attr.href.
const attrPrefix = "attr."

// FormatHandler applies and removes formats on the selected chars.
type FormatHandler struct{}

// NewFormatHandler creates a new format handler.
func NewFormatHandler() *FormatHandler {
	return &FormatHandler{}
}

// Handle implements handler.Handler.
func (h *FormatHandler) Handle(action handler.Action, ec *execctx.ExecutionContext) handler.Result {
	if err := ec.Validate(); err != nil {
		return handler.Error(err)
	}

	f, err := formatArg(action.Args)
	if err != nil {
		return handler.Error(err)
	}
	chars := ec.Range.SelectedNodes(vnode.OfKind(vnode.CharKind))
	if len(chars) == 0 {
		return handler.NoOpWithMessage("no characters selected")
	}

	switch action.Name {
	case ActionApplyFormat:
		apply(chars, f)
	case ActionRemoveFormat:
		remove(chars, f)
	case ActionToggleFormat:
		if allHave(chars, f) {
			remove(chars, f)
		} else {
			apply(chars, f)
		}
	default:
		return handler.Errorf("unknown format command: %s", action.Name)
	}
	return handler.Success().WithData("chars", len(chars))
}

func apply(chars []*vnode.Node, f *vnode.Format) {
	for _, c := range chars {
		c.ApplyFormat(f.Clone())
	}
}

// remove drops formats by name so that removing "link" clears links
// whatever their attributes.
func remove(chars []*vnode.Node, f *vnode.Format) {
	for _, c := range chars {
		var kept []*vnode.Format
		for _, cf := range c.Formats() {
			if cf.Name != f.Name {
				kept = append(kept, cf)
			}
		}
		c.SetFormats(kept)
	}
}

func allHave(chars []*vnode.Node, f *vnode.Format) bool {
	for _, c := range chars {
		if !c.HasFormat(f) {
			return false
		}
	}
	return true
}

// formatArg builds the format named by the "format" argument with the
// attr.* arguments as attributes.
func formatArg(args execctx.Args) (*vnode.Format, error) {
	name, err := args.Require("format")
	if err != nil {
		return nil, err
	}
	if name == "" {
		return nil, &ArgError{Arg: "format", Value: name}
	}
	f := vnode.NewFormat(name)
	for k := range args {
		if key, ok := strings.CutPrefix(k, attrPrefix); ok && key != "" {
			if f.Attributes == nil {
				f.Attributes = make(vnode.Attributes)
			}
			f.Attributes[key] = args.String(k)
		}
	}
	return f, nil
}
