package dispatcher

import (
	"github.com/dshills/quire/internal/dispatcher/execctx"
	"github.com/dshills/quire/internal/dispatcher/handler"
	"github.com/dshills/quire/internal/engine/vnode"
)

// Match picks the most specific definition for the ancestors of the range
// start in ec.
//
// A selector matches when its predicates can be found, innermost last,
// along the ancestor chain walking outwards. Specificity compares first the
// depth at which the last predicate matched (deeper wins) and then the
// selector length (longer wins). A definition without a selector has depth
// -1. On a tie the later definition wins. A definition whose Check returns
// false is skipped.
//
// The returned slice holds the matched ancestors, outermost first.
func Match(defs []handler.Definition, ec *execctx.ExecutionContext) (handler.Definition, []*vnode.Node, bool) {
	var ancestors []*vnode.Node
	if ec.Range != nil && ec.Range.Start() != nil {
		ancestors = ec.Range.Start().Ancestors(vnode.Any)
	}

	var (
		best      handler.Definition
		bestNodes []*vnode.Node
		found     bool
		maxDepth  = -1
		maxLen    = 0
		saved     = ec.Selector
	)
	defer func() { ec.Selector = saved }()

	for _, def := range defs {
		depth, nodes, ok := matchSelector(def.Selector, ancestors)
		if !ok {
			continue
		}
		if depth < maxDepth || len(def.Selector) < maxLen {
			continue
		}
		if def.Check != nil {
			ec.Selector = nodes
			if !def.Check(ec) {
				continue
			}
		}
		maxDepth = depth
		maxLen = len(def.Selector)
		best = def
		bestNodes = nodes
		found = true
	}
	return best, bestNodes, found
}

// matchSelector walks selector from its last predicate and ancestors from
// the nearest one. depth is measured from the outermost ancestor.
func matchSelector(selector []vnode.Predicate, ancestors []*vnode.Node) (depth int, nodes []*vnode.Node, ok bool) {
	depth = -1
	if len(selector) == 0 {
		return depth, nil, true
	}

	maxDepth := len(ancestors) - 1
	nodes = make([]*vnode.Node, len(selector))
	i := 0
	for s := len(selector) - 1; s >= 0; s-- {
		matched := false
		for !matched && i < len(ancestors) {
			if ancestors[i].Test(selector[s]) {
				matched = true
				nodes[s] = ancestors[i]
				if depth == -1 {
					depth = maxDepth - i
				}
			}
			i++
		}
		if !matched {
			return -1, nil, false
		}
	}
	return depth, nodes, true
}
