package vnode

import (
	"fmt"
	"slices"
	"strings"
	"sync/atomic"

	"github.com/rivo/uniseg"
	"golang.org/x/text/unicode/norm"
)

// ID is a process-unique node identifier. IDs are never reused.
type ID uint64

var lastID atomic.Uint64

func nextID() ID {
	return ID(lastID.Add(1))
}

// Node is one element of the abstract document tree.
//
// A node has at most one parent; the parent owns the node through its child
// sequence and the node keeps a non-owning back-pointer. Container kinds
// hold children; atomic kinds never do.
type Node struct {
	id     ID
	kind   *Kind
	parent *Node

	children []*Node

	// text holds the grapheme of a char node.
	text      string
	attrs     Attributes
	formats   []*Format
	breakable bool

	listeners []*listener
}

// New creates a detached node of the given kind. A nil kind yields a
// generic container.
func New(kind *Kind) *Node {
	if kind == nil {
		kind = ContainerKind
	}
	return &Node{
		id:        nextID(),
		kind:      kind,
		breakable: kind.Breakable,
	}
}

// NewContainer creates a generic container node.
func NewContainer() *Node {
	return New(ContainerKind)
}

// NewFragment creates a fragment node, used as a parse or document root.
func NewFragment() *Node {
	return New(FragmentKind)
}

// NewParagraph creates a paragraph, which cannot nest containers.
func NewParagraph() *Node {
	return New(ParagraphKind)
}

// NewLineBreak creates a line break leaf.
func NewLineBreak() *Node {
	return New(LineBreakKind)
}

// NewMarker creates a zero-width, intangible range anchor.
func NewMarker() *Node {
	return New(MarkerKind)
}

// NewChar creates a char leaf holding exactly one grapheme cluster.
func NewChar(char string, formats ...*Format) (*Node, error) {
	if uniseg.GraphemeClusterCount(char) != 1 {
		return nil, argError("new char", fmt.Sprintf("%q is not exactly one character", char))
	}
	n := New(CharKind)
	n.text = char
	n.formats = cloneFormats(formats)
	return n, nil
}

// NewChars splits text into char nodes, one per grapheme cluster. The text
// is NFC-normalized first so that combining sequences collapse where
// possible.
func NewChars(text string, formats ...*Format) []*Node {
	text = norm.NFC.String(text)
	var nodes []*Node
	g := uniseg.NewGraphemes(text)
	for g.Next() {
		n := New(CharKind)
		n.text = g.Str()
		n.formats = cloneFormats(formats)
		nodes = append(nodes, n)
	}
	return nodes
}

// ID returns the node identifier.
func (n *Node) ID() ID {
	return n.id
}

// Kind returns the node kind.
func (n *Node) Kind() *Kind {
	return n.kind
}

// Is reports whether n is of kind k.
func (n *Node) Is(k *Kind) bool {
	return n.kind == k
}

// Name returns the char for char nodes and the kind name otherwise.
func (n *Node) Name() string {
	if n.kind == CharKind {
		return n.text
	}
	return n.kind.Name
}

// Parent returns the raw parent, which may be intangible.
func (n *Node) Parent() *Node {
	return n.parent
}

// Tangible reports whether the node represents real content.
func (n *Node) Tangible() bool {
	return n.kind.Tangible
}

// Atomic reports whether the node can never have children.
func (n *Node) Atomic() bool {
	return n.kind.Atomic
}

// IsContainer reports whether the node owns a child sequence.
func (n *Node) IsContainer() bool {
	return n.kind.Container && !n.kind.Atomic
}

// MayContainContainers reports whether containers may nest directly in n.
func (n *Node) MayContainContainers() bool {
	return n.kind.MayContainContainers
}

// Breakable reports whether range operations may split or remove the node.
func (n *Node) Breakable() bool {
	return n.breakable
}

// SetBreakable overrides the breakability inherited from the kind.
func (n *Node) SetBreakable(b bool) {
	n.breakable = b
}

// Char returns the grapheme of a char node, or "".
func (n *Node) Char() string {
	return n.text
}

// Attr returns an attribute value.
func (n *Node) Attr(name string) (string, bool) {
	v, ok := n.attrs[name]
	return v, ok
}

// SetAttr sets an attribute value.
func (n *Node) SetAttr(name, value string) {
	if n.attrs == nil {
		n.attrs = make(Attributes)
	}
	n.attrs[name] = value
}

// RemoveAttr deletes an attribute.
func (n *Node) RemoveAttr(name string) {
	delete(n.attrs, name)
}

// Attributes returns a copy of the node attributes.
func (n *Node) Attributes() Attributes {
	return n.attrs.Clone()
}

// Formats returns a copy of the format list. The formats themselves are
// shared; clone them before mutating.
func (n *Node) Formats() []*Format {
	return slices.Clone(n.formats)
}

// SetFormats replaces the format list.
func (n *Node) SetFormats(formats []*Format) {
	n.formats = slices.Clone(formats)
}

// ApplyFormat adds f at the front of the format list unless an equal format
// is already present.
func (n *Node) ApplyFormat(f *Format) {
	if n.HasFormat(f) {
		return
	}
	n.formats = slices.Insert(n.formats, 0, f)
}

// RemoveFormat drops every format equal to f.
func (n *Node) RemoveFormat(f *Format) {
	n.formats = slices.DeleteFunc(n.formats, f.SameAs)
}

// HasFormat reports whether a format equal to f is applied.
func (n *Node) HasFormat(f *Format) bool {
	return slices.ContainsFunc(n.formats, f.SameAs)
}

// Test reports whether n satisfies p.
func (n *Node) Test(p Predicate) bool {
	return p.Test(n)
}

// Clone returns a new detached node of the same kind carrying copies of the
// attributes and formats. A deep clone also clones the tangible children;
// markers belong to their range and are not copied.
func (n *Node) Clone(deep bool) *Node {
	c := New(n.kind)
	c.text = n.text
	c.attrs = n.attrs.Clone()
	c.formats = cloneFormats(n.formats)
	c.breakable = n.breakable
	if deep {
		for _, child := range n.children {
			if !child.Tangible() {
				continue
			}
			cc := child.Clone(true)
			cc.parent = c
			c.children = append(c.children, cc)
		}
	}
	return c
}

// Text returns the concatenated text of the node and its tangible
// descendants.
func (n *Node) Text() string {
	var sb strings.Builder
	n.writeText(&sb)
	return sb.String()
}

func (n *Node) writeText(sb *strings.Builder) {
	switch n.kind {
	case CharKind:
		sb.WriteString(n.text)
		return
	case LineBreakKind:
		sb.WriteByte('\n')
		return
	}
	for _, child := range n.children {
		if child.Tangible() {
			child.writeText(sb)
		}
	}
}

// Length returns 1 for atomic nodes and the tangible child count otherwise.
func (n *Node) Length() int {
	if n.Atomic() {
		return 1
	}
	return len(n.Children(Any))
}

// String returns a short debugging representation.
func (n *Node) String() string {
	if n == nil {
		return "<nil>"
	}
	if n.kind == CharKind {
		return fmt.Sprintf("%q#%d", n.text, n.id)
	}
	return fmt.Sprintf("%s#%d", n.kind.Name, n.id)
}

// indexOf returns the raw index of child, or -1.
func (n *Node) indexOf(child *Node) int {
	return slices.Index(n.children, child)
}

// Index returns the raw position of n in its parent, markers included, or
// -1 when detached.
func (n *Node) Index() int {
	if n.parent == nil {
		return -1
	}
	return n.parent.indexOf(n)
}

// RawChildren returns a copy of the full child sequence, markers included.
func (n *Node) RawChildren() []*Node {
	return slices.Clone(n.children)
}

// Root returns the top-most ancestor of n, or n itself.
func (n *Node) Root() *Node {
	r := n
	for r.parent != nil {
		r = r.parent
	}
	return r
}

// Contains reports whether other is n or one of its descendants.
func (n *Node) Contains(other *Node) bool {
	for a := other; a != nil; a = a.parent {
		if a == n {
			return true
		}
	}
	return false
}
