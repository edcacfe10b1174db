package core

import (
	"fmt"
	"slices"

	"github.com/dshills/quire/internal/dispatcher/execctx"
	"github.com/dshills/quire/internal/dispatcher/handler"
	"github.com/dshills/quire/internal/engine/vnode"
	"github.com/dshills/quire/internal/engine/vrange"
	"github.com/dshills/quire/internal/schema"
)

// Command names for block-level changes.
const (
	ActionSetAttribute    = "setAttribute"
	ActionRemoveAttribute = "removeAttribute"
	ActionApplyBlock      = "applyBlock"
	ActionWrap            = "wrap"
	ActionUnwrap          = "unwrap"
)

// BlockHandler handles commands on the blocks touched by the range.
type BlockHandler struct {
	registry *schema.Registry
}

// NewBlockHandler creates a block handler resolving kinds with reg.
func NewBlockHandler(reg *schema.Registry) *BlockHandler {
	return &BlockHandler{registry: reg}
}

// Handle implements handler.Handler.
func (h *BlockHandler) Handle(action handler.Action, ec *execctx.ExecutionContext) handler.Result {
	if err := ec.Validate(); err != nil {
		return handler.Error(err)
	}

	switch action.Name {
	case ActionSetAttribute, ActionRemoveAttribute:
		return h.attribute(ec, action)
	case ActionApplyBlock:
		return h.applyBlock(ec, action.Args)
	case ActionWrap:
		return h.wrap(ec, action.Args)
	case ActionUnwrap:
		return h.unwrap(ec, action.Args)
	default:
		return handler.Errorf("unknown block command: %s", action.Name)
	}
}

// targetedBlocks returns the inline-content blocks the range touches, in
// document order and without duplicates.
func targetedBlocks(rng *vrange.Range) []*vnode.Node {
	var out []*vnode.Node
	for _, n := range rng.TargetedNodes(isBlock) {
		if !slices.Contains(out, n) {
			out = append(out, n)
		}
	}
	return out
}

func (h *BlockHandler) attribute(ec *execctx.ExecutionContext, action handler.Action) handler.Result {
	name, err := action.Args.Require("name")
	if err != nil {
		return handler.Error(err)
	}
	blocks := targetedBlocks(ec.Range)
	if len(blocks) == 0 {
		return handler.NoOpWithMessage("no block at range")
	}
	value := action.Args.String("value")
	for _, b := range blocks {
		if action.Name == ActionRemoveAttribute {
			b.RemoveAttr(name)
		} else {
			b.SetAttr(name, value)
		}
	}
	return handler.Success().WithData("blocks", len(blocks))
}

// applyBlock replaces each targeted block with a node of the given kind,
// keeping its attributes and children.
func (h *BlockHandler) applyBlock(ec *execctx.ExecutionContext, args execctx.Args) handler.Result {
	k, err := h.kindArg(args)
	if err != nil {
		return handler.Error(err)
	}
	if !k.Container || k.MayContainContainers {
		return handler.Error(&ArgError{Arg: "kind", Value: k.Name})
	}

	blocks := targetedBlocks(ec.Range)
	changed := 0
	for _, b := range blocks {
		if b.Is(k) {
			continue
		}
		repl := vnode.New(k)
		for key, v := range b.Attributes() {
			repl.SetAttr(key, v)
		}
		if err := b.Before(repl); err != nil {
			return handler.Error(err)
		}
		if err := b.MergeWith(repl); err != nil {
			return handler.Error(err)
		}
		changed++
	}
	if changed == 0 {
		return handler.NoOp()
	}
	return handler.Success().WithData("blocks", changed)
}

// wrap moves the blocks covered by the range into a new container of the
// given kind. The range is first widened to whole blocks so that no block
// is split.
func (h *BlockHandler) wrap(ec *execctx.ExecutionContext, args execctx.Args) handler.Result {
	k, err := h.kindArg(args)
	if err != nil {
		return handler.Error(err)
	}
	if !k.MayContainContainers {
		return handler.Error(&ArgError{Arg: "kind", Value: k.Name})
	}
	blocks := targetedBlocks(ec.Range)
	if len(blocks) == 0 {
		return handler.NoOpWithMessage("no block at range")
	}

	var nodes []*vnode.Node
	bounds := vrange.Selecting(blocks[0], blocks[len(blocks)-1])
	err = vrange.WithRange(bounds, func(r *vrange.Range) error {
		var err error
		nodes, err = r.Split(isBlock)
		return err
	})
	if err != nil {
		return handler.Error(err)
	}
	if len(nodes) == 0 {
		return handler.NoOp()
	}

	wrapper := vnode.New(k)
	if err := nodes[0].Before(wrapper); err != nil {
		return handler.Error(err)
	}
	if err := wrapper.Append(nodes...); err != nil {
		return handler.Error(err)
	}
	return handler.Success().WithData("blocks", len(nodes))
}

// unwrap dissolves the closest container around the range start that may
// hold blocks, or the closest one of the given kind.
func (h *BlockHandler) unwrap(ec *execctx.ExecutionContext, args execctx.Args) handler.Result {
	pred := isStructural
	if args.Has("kind") {
		k, err := h.kindArg(args)
		if err != nil {
			return handler.Error(err)
		}
		pred = vnode.OfKind(k).And(isStructural)
	}
	target := ec.Range.Start().Ancestor(pred)
	if target == nil {
		return handler.NoOpWithMessage("nothing to unwrap")
	}
	return handler.FromError(target.Unwrap())
}

func (h *BlockHandler) kindArg(args execctx.Args) (*vnode.Kind, error) {
	name, err := args.Require("kind")
	if err != nil {
		return nil, err
	}
	k, ok := h.registry.Kind(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, name)
	}
	return k, nil
}
