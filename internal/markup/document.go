package markup

import (
	"github.com/dshills/quire/internal/engine/vnode"
	"github.com/dshills/quire/internal/engine/vrange"
)

// Document is a decoded tree with the range markers found in it.
type Document struct {
	// Root is a fragment holding the decoded nodes.
	Root *vnode.Node

	// Start and End are the markers found in the source, or nil.
	Start *vnode.Node
	End   *vnode.Node
}

// Range moves the markers of r to the positions recorded in d. When the
// source had no markers r is placed before the first leaf of the root; when
// it had only one, r is collapsed there. The placeholder markers are
// removed from the tree.
func (d *Document) Range(r *vrange.Range) error {
	defer func() {
		if d.Start != nil {
			d.Start.Remove()
		}
		if d.End != nil {
			d.End.Remove()
		}
		d.Start, d.End = nil, nil
	}()

	switch {
	case d.Start == nil && d.End == nil:
		return r.SetBounds(vrange.At(d.Root, vrange.Before))
	case d.End == nil:
		return r.SetBounds(vrange.At(d.Start, vrange.Before))
	case d.Start == nil:
		return r.SetBounds(vrange.At(d.End, vrange.After))
	}
	return r.SetBounds(vrange.SelectingPoints(d.Start, vrange.Before, d.End, vrange.After))
}

// NewRange places a new range at the recorded markers.
func (d *Document) NewRange() (*vrange.Range, error) {
	r := vrange.New()
	if err := d.Range(r); err != nil {
		return nil, err
	}
	return r, nil
}
