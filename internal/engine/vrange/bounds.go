package vrange

import (
	"fmt"

	"github.com/dshills/quire/internal/engine/vnode"
)

// Position places a boundary relative to a reference node.
type Position int

const (
	// Before places the boundary before the first leaf of the reference.
	Before Position = iota
	// After places the boundary after the last leaf of the reference.
	After
	// Inside places the boundary as the last child of the reference leaf.
	Inside
)

// String returns the position name.
func (p Position) String() string {
	switch p {
	case Before:
		return "before"
	case After:
		return "after"
	case Inside:
		return "inside"
	default:
		return fmt.Sprintf("Position(%d)", int(p))
	}
}

// ParsePosition parses "before", "after" or "inside".
func ParsePosition(s string) (Position, error) {
	switch s {
	case "before":
		return Before, nil
	case "after":
		return After, nil
	case "inside":
		return Inside, nil
	}
	return Before, fmt.Errorf("vrange: unknown position %q", s)
}

// Point is a boundary location: a reference node and a position relative
// to it.
type Point struct {
	Node     *vnode.Node
	Position Position
}

// Bounds describes the two boundary points of a range.
type Bounds struct {
	Start Point
	End   Point
}

// At returns collapsed bounds at pos relative to ref.
func At(ref *vnode.Node, pos Position) Bounds {
	return SelectingPoints(ref, pos, ref, pos)
}

// Selecting returns bounds spanning from before start to after end.
// Given the chars "ab", Selecting(a, a) selects "[a]b" and Selecting(a, b)
// selects "[ab]".
func Selecting(start, end *vnode.Node) Bounds {
	return SelectingPoints(start, Before, end, After)
}

// SelectingPoints returns bounds with explicit positions. Given the chars
// "ab":
//
//	SelectingPoints(a, Before, b, Before) // [a]b
//	SelectingPoints(a, After, b, Before)  // a[]b
//	SelectingPoints(a, After, b, After)   // a[b]
func SelectingPoints(start *vnode.Node, startPos Position, end *vnode.Node, endPos Position) Bounds {
	return Bounds{
		Start: Point{Node: start, Position: startPos},
		End:   Point{Node: end, Position: endPos},
	}
}

// CloneBounds returns bounds matching the current location of r.
func CloneBounds(r *Range) Bounds {
	return SelectingPoints(r.start, Before, r.end, After)
}
