package markup

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/dshills/quire/internal/engine/vnode"
	"github.com/dshills/quire/internal/engine/vrange"
	"github.com/dshills/quire/internal/schema"
)

// JSONCodec encodes trees as JSON objects:
//
//	{"kind":"paragraph","id":3,"attributes":{"class":"x"},"children":[
//	  {"kind":"char","id":4,"char":"a","formats":[{"name":"bold"}]},
//	  {"kind":"marker","edge":"start"}]}
//
// Ids are informative and ignored when decoding.
type JSONCodec struct {
	reg *schema.Registry
}

// NewJSONCodec creates a codec. A nil registry means schema.Default().
func NewJSONCodec(reg *schema.Registry) *JSONCodec {
	if reg == nil {
		reg = schema.Default()
	}
	return &JSONCodec{reg: reg}
}

// EncodeJSON encodes n with the default schema.
func EncodeJSON(n *vnode.Node, r *vrange.Range) ([]byte, error) {
	return NewJSONCodec(nil).Encode(n, r)
}

// DecodeJSON decodes data with the default schema.
func DecodeJSON(data []byte) (*Document, error) {
	return NewJSONCodec(nil).Decode(data)
}

// Encode encodes n. Markers other than those of r are omitted.
func (c *JSONCodec) Encode(n *vnode.Node, r *vrange.Range) ([]byte, error) {
	out, err := c.encode(n, r)
	if err != nil {
		return nil, err
	}
	if out == nil {
		return []byte("null"), nil
	}
	return out, nil
}

func (c *JSONCodec) encode(n *vnode.Node, r *vrange.Range) ([]byte, error) {
	out := []byte(`{}`)
	var err error
	set := func(path string, v any) {
		if err == nil {
			out, err = sjson.SetBytes(out, path, v)
		}
	}
	setRaw := func(path string, raw []byte) {
		if err == nil {
			out, err = sjson.SetRawBytes(out, path, raw)
		}
	}

	set("kind", n.Kind().Name)
	if n.Is(vnode.MarkerKind) {
		switch {
		case r != nil && n == r.Start():
			set("edge", "start")
		case r != nil && n == r.End():
			set("edge", "end")
		default:
			return nil, nil
		}
		return out, err
	}
	set("id", uint64(n.ID()))
	if n.Is(vnode.CharKind) {
		set("char", n.Char())
	}
	attrs := n.Attributes()
	for _, k := range attrs.Keys() {
		set("attributes."+escapeKey(k), attrs[k])
	}
	if formats := n.Formats(); len(formats) > 0 {
		items := make([][]byte, 0, len(formats))
		for _, f := range formats {
			fj, ferr := sjson.SetBytes([]byte(`{}`), "name", f.Name)
			for _, k := range f.Attributes.Keys() {
				if ferr == nil {
					fj, ferr = sjson.SetBytes(fj, "attributes."+escapeKey(k), f.Attributes[k])
				}
			}
			if ferr != nil {
				return nil, ferr
			}
			items = append(items, fj)
		}
		setRaw("formats", jsonArray(items))
	}
	if !n.Atomic() {
		var items [][]byte
		for _, child := range n.RawChildren() {
			cj, cerr := c.encode(child, r)
			if cerr != nil {
				return nil, cerr
			}
			if cj != nil {
				items = append(items, cj)
			}
		}
		setRaw("children", jsonArray(items))
	}
	return out, err
}

func jsonArray(items [][]byte) []byte {
	return append(append([]byte{'['}, bytes.Join(items, []byte{','})...), ']')
}

// escapeKey escapes the characters that have a meaning in gjson paths.
func escapeKey(k string) string {
	var sb strings.Builder
	for _, r := range k {
		if strings.ContainsRune(`\.*?|#@!=<>%`, r) {
			sb.WriteByte('\\')
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// Decode builds a document from JSON produced by Encode. A top-level node
// other than a fragment is wrapped in one.
func (c *JSONCodec) Decode(data []byte) (*Document, error) {
	if !gjson.ValidBytes(data) {
		return nil, ErrInvalidJSON
	}
	res := gjson.ParseBytes(data)
	if !res.IsObject() {
		return nil, fmt.Errorf("%w: top level is not an object", ErrInvalidJSON)
	}
	doc := &Document{}
	n, err := c.decode(doc, res)
	if err != nil {
		return nil, err
	}
	if n.Is(vnode.FragmentKind) {
		doc.Root = n
	} else {
		doc.Root = vnode.NewFragment()
		if err := doc.Root.Append(n); err != nil {
			return nil, err
		}
	}
	if doc.Start != nil && doc.End != nil && doc.End.IsBefore(doc.Start) {
		return nil, ErrMarkerOrder
	}
	return doc, nil
}

func (c *JSONCodec) decode(doc *Document, res gjson.Result) (*vnode.Node, error) {
	kindName := res.Get("kind").String()
	switch kindName {
	case vnode.MarkerKind.Name:
		m := vnode.NewMarker()
		switch edge := res.Get("edge").String(); edge {
		case "start":
			if doc.Start != nil {
				return nil, ErrDuplicateMarker
			}
			doc.Start = m
		case "end":
			if doc.End != nil {
				return nil, ErrDuplicateMarker
			}
			doc.End = m
		default:
			return nil, fmt.Errorf("%w: marker edge %q", ErrInvalidJSON, edge)
		}
		return m, nil

	case vnode.CharKind.Name:
		return vnode.NewChar(res.Get("char").String(), decodeFormats(res.Get("formats"))...)
	}

	kind, ok := c.reg.Kind(kindName)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kindName)
	}
	n := vnode.New(kind)
	res.Get("attributes").ForEach(func(k, v gjson.Result) bool {
		n.SetAttr(k.String(), v.String())
		return true
	})
	n.SetFormats(decodeFormats(res.Get("formats")))

	var err error
	res.Get("children").ForEach(func(_, cr gjson.Result) bool {
		var child *vnode.Node
		if child, err = c.decode(doc, cr); err != nil {
			return false
		}
		err = n.Append(child)
		return err == nil
	})
	if err != nil {
		return nil, err
	}
	return n, nil
}

func decodeFormats(res gjson.Result) []*vnode.Format {
	var formats []*vnode.Format
	res.ForEach(func(_, fr gjson.Result) bool {
		f := vnode.NewFormat(fr.Get("name").String())
		fr.Get("attributes").ForEach(func(k, v gjson.Result) bool {
			if f.Attributes == nil {
				f.Attributes = make(vnode.Attributes)
			}
			f.Attributes[k.String()] = v.String()
			return true
		})
		formats = append(formats, f)
		return true
	})
	return formats
}
