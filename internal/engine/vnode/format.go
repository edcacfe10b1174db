package vnode

import (
	"maps"
	"slices"
	"strings"
)

// Attributes is a set of string attributes attached to a node or format.
type Attributes map[string]string

// Clone returns a copy that shares no storage with a.
func (a Attributes) Clone() Attributes {
	if a == nil {
		return nil
	}
	return maps.Clone(a)
}

// Equal reports whether a and b hold the same pairs. Nil and empty are equal.
func (a Attributes) Equal(b Attributes) bool {
	return maps.Equal(a, b)
}

// Keys returns the attribute names in sorted order.
func (a Attributes) Keys() []string {
	return slices.Sorted(maps.Keys(a))
}

// Format is an opaque decoration applied to a run of nodes (bold, link...).
// The tree preserves formats across split, merge and clone without
// interpreting them.
type Format struct {
	Name       string
	Attributes Attributes
}

// NewFormat creates a format with the given name.
func NewFormat(name string) *Format {
	return &Format{Name: name}
}

// Clone returns a deep copy of the format.
func (f *Format) Clone() *Format {
	return &Format{
		Name:       f.Name,
		Attributes: f.Attributes.Clone(),
	}
}

// SameAs reports whether f and other have the same name and attributes.
func (f *Format) SameAs(other *Format) bool {
	if f == nil || other == nil {
		return f == other
	}
	return f.Name == other.Name && f.Attributes.Equal(other.Attributes)
}

// String returns the name, followed by the attribute names if any.
func (f *Format) String() string {
	if len(f.Attributes) == 0 {
		return f.Name
	}
	return f.Name + "[" + strings.Join(f.Attributes.Keys(), ", ") + "]"
}

func cloneFormats(formats []*Format) []*Format {
	if len(formats) == 0 {
		return nil
	}
	out := make([]*Format, len(formats))
	for i, f := range formats {
		out[i] = f.Clone()
	}
	return out
}

// SameFormats reports whether two format lists match pairwise.
func SameFormats(a, b []*Format) bool {
	return slices.EqualFunc(a, b, (*Format).SameAs)
}
