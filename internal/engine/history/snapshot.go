package history

import (
	"slices"

	"github.com/dshills/quire/internal/engine/vnode"
	"github.com/dshills/quire/internal/engine/vrange"
)

// Location addresses a marker position relative to a document root. Path
// holds the tangible child indexes leading from the root to the container
// of the marker; Offset counts the tangible children preceding the marker
// in that container.
type Location struct {
	Path   []int
	Offset int
}

// Snapshot is a detached copy of a document and its selection.
type Snapshot struct {
	content *vnode.Node
	start   *Location
	end     *Location
}

// Capture copies the tangible content of root and records where the markers
// of sel sit. A nil or detached selection is recorded as absent.
func Capture(root *vnode.Node, sel *vrange.Range) Snapshot {
	s := Snapshot{content: root.Clone(true)}
	if sel != nil && sel.Attached() {
		s.start = locate(root, sel.Start())
		s.end = locate(root, sel.End())
	}
	return s
}

// Content returns the copied tree. It must not be mutated.
func (s Snapshot) Content() *vnode.Node { return s.content }

// Selection returns the recorded marker locations.
func (s Snapshot) Selection() (start, end *Location) { return s.start, s.end }

// SameContent reports whether s and other hold equal trees.
func (s Snapshot) SameContent(other Snapshot) bool {
	return sameTree(s.content, other.content)
}

// Restore replaces the children of root with copies of the snapshot content
// and seats the markers of sel at the recorded locations. When no selection
// was recorded, sel is collapsed at the start of root.
func (s Snapshot) Restore(root *vnode.Node, sel *vrange.Range) error {
	root.Empty()
	for _, c := range s.content.Children(vnode.Any) {
		if err := root.Append(c.Clone(true)); err != nil {
			return err
		}
	}
	if sel == nil {
		return nil
	}
	if s.start == nil || s.end == nil {
		return sel.SetBounds(vrange.At(root, vrange.Before))
	}
	// End first: when both markers share an offset the start lands in front.
	if err := place(root, sel.End(), s.end); err != nil {
		return err
	}
	return place(root, sel.Start(), s.start)
}

func locate(root, marker *vnode.Node) *Location {
	c := marker.Parent()
	loc := &Location{Offset: tangibleBefore(c, marker)}
	for n := c; n != root; n = n.Parent() {
		if n.Parent() == nil {
			return nil
		}
		loc.Path = append(loc.Path, tangibleBefore(n.Parent(), n))
	}
	slices.Reverse(loc.Path)
	return loc
}

func tangibleBefore(parent, child *vnode.Node) int {
	k := 0
	for _, c := range parent.RawChildren() {
		if c == child {
			break
		}
		if c.Tangible() {
			k++
		}
	}
	return k
}

func tangibleChild(parent *vnode.Node, i int) *vnode.Node {
	for _, c := range parent.RawChildren() {
		if !c.Tangible() {
			continue
		}
		if i == 0 {
			return c
		}
		i--
	}
	return nil
}

func place(root, marker *vnode.Node, loc *Location) error {
	c := root
	for _, i := range loc.Path {
		if c = tangibleChild(c, i); c == nil {
			return &LocationError{Location: *loc}
		}
	}
	if loc.Offset == 0 {
		return c.Prepend(marker)
	}
	prev := tangibleChild(c, loc.Offset-1)
	if prev == nil {
		return &LocationError{Location: *loc}
	}
	return prev.After(marker)
}

func sameTree(a, b *vnode.Node) bool {
	if a.Kind() != b.Kind() || a.Char() != b.Char() {
		return false
	}
	if !a.Attributes().Equal(b.Attributes()) || !vnode.SameFormats(a.Formats(), b.Formats()) {
		return false
	}
	ac, bc := a.Children(vnode.Any), b.Children(vnode.Any)
	if len(ac) != len(bc) {
		return false
	}
	for i := range ac {
		if !sameTree(ac[i], bc[i]) {
			return false
		}
	}
	return true
}
