package markup

import (
	"encoding/xml"
	"strings"

	"github.com/dshills/quire/internal/engine/vnode"
	"github.com/dshills/quire/internal/engine/vrange"
	"github.com/dshills/quire/internal/schema"
)

// Renderer encodes trees as markup.
type Renderer struct {
	reg *schema.Registry
}

// NewRenderer creates a renderer. A nil registry means schema.Default().
func NewRenderer(reg *schema.Registry) *Renderer {
	if reg == nil {
		reg = schema.Default()
	}
	return &Renderer{reg: reg}
}

// Render encodes n with the default schema.
func Render(n *vnode.Node, r *vrange.Range) string {
	return NewRenderer(nil).Render(n, r)
}

// Render encodes n. A fragment renders as the sequence of its children. The
// markers of r, if given, render as "[" and "]"; other markers are omitted.
func (rd *Renderer) Render(n *vnode.Node, r *vrange.Range) string {
	w := &writer{reg: rd.reg, r: r}
	if n.Is(vnode.FragmentKind) {
		w.children(n)
	} else {
		w.node(n)
		w.closeFormats(0)
	}
	return w.sb.String()
}

type writer struct {
	reg  *schema.Registry
	r    *vrange.Range
	sb   strings.Builder
	open []*vnode.Format
}

func (w *writer) children(n *vnode.Node) {
	for _, c := range n.RawChildren() {
		w.node(c)
	}
	w.closeFormats(0)
}

func (w *writer) node(n *vnode.Node) {
	switch {
	case n.Is(vnode.MarkerKind):
		if w.r == nil {
			return
		}
		if n == w.r.Start() {
			w.sb.WriteString(startMarker)
		} else if n == w.r.End() {
			w.sb.WriteString(endMarker)
		}
	case n.Is(vnode.CharKind):
		w.formats(n.Formats())
		xml.EscapeText(&w.sb, []byte(n.Char()))
	case n.Atomic():
		w.closeFormats(0)
		w.startTag(w.reg.TagForKind(n.Kind()), n.Attributes(), true)
	default:
		w.closeFormats(0)
		tag := w.reg.TagForKind(n.Kind())
		w.startTag(tag, n.Attributes(), false)
		w.children(n)
		w.sb.WriteString("</" + tag + ">")
	}
}

// formats closes and opens format tags so that exactly target is open.
func (w *writer) formats(target []*vnode.Format) {
	k := 0
	for k < len(w.open) && k < len(target) && w.open[k].SameAs(target[k]) {
		k++
	}
	w.closeFormats(k)
	for _, f := range target[k:] {
		w.startTag(w.reg.TagForFormat(f.Name), f.Attributes, false)
		w.open = append(w.open, f)
	}
}

// closeFormats closes open formats down to depth keep.
func (w *writer) closeFormats(keep int) {
	for i := len(w.open) - 1; i >= keep; i-- {
		w.sb.WriteString("</" + w.reg.TagForFormat(w.open[i].Name) + ">")
	}
	w.open = w.open[:keep]
}

func (w *writer) startTag(tag string, attrs vnode.Attributes, selfClose bool) {
	w.sb.WriteString("<" + tag)
	for _, k := range attrs.Keys() {
		w.sb.WriteString(" " + k + `="`)
		xml.EscapeText(&w.sb, []byte(attrs[k]))
		w.sb.WriteString(`"`)
	}
	if selfClose {
		w.sb.WriteString("/>")
		return
	}
	w.sb.WriteString(">")
}
