// Package markup converts between document trees and two external forms:
// a compact XML-like markup where "[" and "]" stand for the range markers,
// and a JSON tree.
//
//	<p>a<b>[b</b>c]</p>
package markup

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dshills/quire/internal/engine/vnode"
	"github.com/dshills/quire/internal/schema"
)

const (
	startMarker = "["
	endMarker   = "]"
)

// Parser decodes markup against a schema registry.
type Parser struct {
	reg *schema.Registry

	// KeepSpace keeps whitespace-only text between elements. By default it
	// is treated as formatting and dropped.
	KeepSpace bool
}

// NewParser creates a parser. A nil registry means schema.Default().
func NewParser(reg *schema.Registry) *Parser {
	if reg == nil {
		reg = schema.Default()
	}
	return &Parser{reg: reg}
}

// Parse decodes src with the default schema.
func Parse(src string) (*Document, error) {
	return NewParser(nil).Parse(src)
}

type frame struct {
	node *vnode.Node
	// format is set for inline format elements, which create no node.
	format *vnode.Format
}

// Parse decodes src into a detached fragment. Elements are assembled
// bottom-up: a node is attached to its parent only once its end tag is
// read, so no container is split while the document is built.
func (p *Parser) Parse(src string) (*Document, error) {
	doc := &Document{Root: vnode.NewFragment()}
	dec := xml.NewDecoder(strings.NewReader("<root>" + src + "</root>"))
	dec.Strict = true

	var stack []frame
	top := func() *vnode.Node {
		for i := len(stack) - 1; i >= 0; i-- {
			if stack[i].node != nil {
				return stack[i].node
			}
		}
		return doc.Root
	}
	formats := func() []*vnode.Format {
		var out []*vnode.Format
		for _, f := range stack {
			if f.format != nil {
				out = append(out, f.format)
			}
		}
		return out
	}

	// Skip the synthetic root element.
	if _, err := dec.Token(); err != nil {
		return nil, p.syntaxError(dec, err)
	}
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, p.syntaxError(dec, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			f, err := p.open(t)
			if err != nil {
				line, _ := dec.InputPos()
				return nil, &SyntaxError{Line: line, Err: err}
			}
			stack = append(stack, f)

		case xml.EndElement:
			if len(stack) == 0 {
				// End of the synthetic root.
				if doc.Start != nil && doc.End != nil && doc.End.IsBefore(doc.Start) {
					return nil, ErrMarkerOrder
				}
				return doc, nil
			}
			f := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if f.node != nil {
				if err := top().Append(f.node); err != nil {
					return nil, err
				}
			}

		case xml.CharData:
			if err := p.text(doc, top(), string(t), formats()); err != nil {
				line, _ := dec.InputPos()
				return nil, &SyntaxError{Line: line, Err: err}
			}
		}
	}
}

func (p *Parser) open(t xml.StartElement) (frame, error) {
	tag := t.Name.Local
	attrs := make(vnode.Attributes, len(t.Attr))
	for _, a := range t.Attr {
		attrs[a.Name.Local] = a.Value
	}
	if name, ok := p.reg.FormatForTag(tag); ok {
		f := vnode.NewFormat(name)
		if len(attrs) > 0 {
			f.Attributes = attrs
		}
		return frame{format: f}, nil
	}
	kind, ok := p.reg.KindForTag(tag)
	if !ok {
		return frame{}, fmt.Errorf("%w: <%s>", schema.ErrUnknownTag, tag)
	}
	n := vnode.New(kind)
	for _, k := range attrs.Keys() {
		n.SetAttr(k, attrs[k])
	}
	return frame{node: n}, nil
}

func (p *Parser) text(doc *Document, parent *vnode.Node, s string, formats []*vnode.Format) error {
	if !p.KeepSpace && strings.TrimSpace(s) == "" && strings.Contains(s, "\n") {
		return nil
	}
	var nodes []*vnode.Node
	for len(s) > 0 {
		i := strings.IndexAny(s, startMarker+endMarker)
		if i < 0 {
			nodes = append(nodes, vnode.NewChars(s, formats...)...)
			break
		}
		nodes = append(nodes, vnode.NewChars(s[:i], formats...)...)
		m := vnode.NewMarker()
		if s[i:i+1] == startMarker {
			if doc.Start != nil {
				return ErrDuplicateMarker
			}
			doc.Start = m
		} else {
			if doc.End != nil {
				return ErrDuplicateMarker
			}
			doc.End = m
		}
		nodes = append(nodes, m)
		s = s[i+1:]
	}
	if len(nodes) == 0 {
		return nil
	}
	return parent.Append(nodes...)
}

func (p *Parser) syntaxError(dec *xml.Decoder, err error) error {
	if errors.Is(err, io.EOF) {
		err = io.ErrUnexpectedEOF
	}
	line, _ := dec.InputPos()
	return &SyntaxError{Line: line, Err: err}
}
