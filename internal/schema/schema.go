// Package schema keeps the registry of node kinds and format tags that the
// markup codec and the commands use to map between tags and tree nodes.
package schema

import (
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/dshills/quire/internal/engine/vnode"
)

// Block kinds registered by Default in addition to the vnode built-ins.
var (
	PreKind        = paragraphLike("pre")
	BlockquoteKind = containerKind("blockquote")
	ListKind       = containerKind("list")
	OrderedKind    = containerKind("ordered-list")
	ListItemKind   = containerKind("list-item")

	HeadingKinds = [6]*vnode.Kind{
		paragraphLike("heading1"),
		paragraphLike("heading2"),
		paragraphLike("heading3"),
		paragraphLike("heading4"),
		paragraphLike("heading5"),
		paragraphLike("heading6"),
	}
)

func paragraphLike(name string) *vnode.Kind {
	return &vnode.Kind{Name: name, Container: true, Tangible: true, Breakable: true}
}

func containerKind(name string) *vnode.Kind {
	return &vnode.Kind{Name: name, Container: true, Tangible: true, Breakable: true, MayContainContainers: true}
}

// Definition describes a node kind in configuration.
type Definition struct {
	Name                 string
	Tags                 []string
	Container            bool
	Atomic               bool
	Tangible             bool
	Breakable            bool
	MayContainContainers bool
}

// Kind validates d and builds the kind it describes.
func (d Definition) Kind() (*vnode.Kind, error) {
	switch {
	case d.Name == "":
		return nil, &DefinitionError{Name: d.Name, Reason: "name is required"}
	case d.Container && d.Atomic:
		return nil, &DefinitionError{Name: d.Name, Reason: "a kind cannot be both container and atomic"}
	case d.MayContainContainers && !d.Container:
		return nil, &DefinitionError{Name: d.Name, Reason: "only containers may contain containers"}
	}
	return &vnode.Kind{
		Name:                 d.Name,
		Container:            d.Container,
		Atomic:               d.Atomic,
		Tangible:             d.Tangible,
		Breakable:            d.Breakable,
		MayContainContainers: d.MayContainContainers,
	}, nil
}

// Registry maps kind names and tags to kinds, and tags to format names.
// It is safe for concurrent use.
type Registry struct {
	mu sync.RWMutex

	kinds   map[string]*vnode.Kind
	byTag   map[string]*vnode.Kind
	kindTag map[*vnode.Kind]string

	formats   map[string]string // tag -> format name
	formatTag map[string]string // format name -> primary tag
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{
		kinds:     make(map[string]*vnode.Kind),
		byTag:     make(map[string]*vnode.Kind),
		kindTag:   make(map[*vnode.Kind]string),
		formats:   make(map[string]string),
		formatTag: make(map[string]string),
	}
}

// Default returns a registry with the common block kinds and inline
// formats.
func Default() *Registry {
	r := New()
	must := func(err error) {
		if err != nil {
			panic(err)
		}
	}
	must(r.Register(vnode.FragmentKind))
	must(r.Register(vnode.ContainerKind, "div"))
	must(r.Register(vnode.ParagraphKind, "p"))
	must(r.Register(vnode.CharKind))
	must(r.Register(vnode.LineBreakKind, "br"))
	must(r.Register(PreKind, "pre"))
	must(r.Register(BlockquoteKind, "blockquote"))
	must(r.Register(ListKind, "ul"))
	must(r.Register(OrderedKind, "ol"))
	must(r.Register(ListItemKind, "li"))
	for i, k := range HeadingKinds {
		must(r.Register(k, fmt.Sprintf("h%d", i+1)))
	}

	must(r.RegisterFormat("bold", "b", "strong"))
	must(r.RegisterFormat("italic", "i", "em"))
	must(r.RegisterFormat("underline", "u"))
	must(r.RegisterFormat("link", "a"))
	must(r.RegisterFormat("subscript", "sub"))
	must(r.RegisterFormat("superscript", "sup"))
	return r
}

// Register adds a kind, reachable by name and by each tag. The first tag is
// the one used when rendering.
func (r *Registry) Register(k *vnode.Kind, tags ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.kinds[k.Name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateKind, k.Name)
	}
	for _, tag := range tags {
		if r.tagTaken(tag) {
			return fmt.Errorf("%w: %s", ErrDuplicateTag, tag)
		}
	}
	r.kinds[k.Name] = k
	for _, tag := range tags {
		r.byTag[tag] = k
	}
	if len(tags) > 0 {
		r.kindTag[k] = tags[0]
	}
	return nil
}

// RegisterFormat binds tags to a format name. The first tag is the one used
// when rendering.
func (r *Registry) RegisterFormat(name string, tags ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, tag := range tags {
		if r.tagTaken(tag) {
			return fmt.Errorf("%w: %s", ErrDuplicateTag, tag)
		}
	}
	for _, tag := range tags {
		r.formats[tag] = name
	}
	if _, ok := r.formatTag[name]; !ok && len(tags) > 0 {
		r.formatTag[name] = tags[0]
	}
	return nil
}

func (r *Registry) tagTaken(tag string) bool {
	_, isKind := r.byTag[tag]
	_, isFormat := r.formats[tag]
	return isKind || isFormat
}

// Define registers kinds built from definitions. Either all definitions are
// registered or none is.
func (r *Registry) Define(defs []Definition) error {
	kinds := make([]*vnode.Kind, len(defs))
	for i, d := range defs {
		k, err := d.Kind()
		if err != nil {
			return err
		}
		kinds[i] = k
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	seenTags := make(map[string]bool)
	for i, d := range defs {
		if _, ok := r.kinds[d.Name]; ok || slices.ContainsFunc(kinds[:i], func(k *vnode.Kind) bool { return k.Name == d.Name }) {
			return fmt.Errorf("%w: %s", ErrDuplicateKind, d.Name)
		}
		for _, tag := range d.Tags {
			if r.tagTaken(tag) || seenTags[tag] {
				return fmt.Errorf("%w: %s", ErrDuplicateTag, tag)
			}
			seenTags[tag] = true
		}
	}
	for i, d := range defs {
		r.kinds[d.Name] = kinds[i]
		for _, tag := range d.Tags {
			r.byTag[tag] = kinds[i]
		}
		if len(d.Tags) > 0 {
			r.kindTag[kinds[i]] = d.Tags[0]
		}
	}
	return nil
}

// Kind returns the kind registered under name.
func (r *Registry) Kind(name string) (*vnode.Kind, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	k, ok := r.kinds[name]
	return k, ok
}

// KindForTag returns the kind bound to tag.
func (r *Registry) KindForTag(tag string) (*vnode.Kind, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	k, ok := r.byTag[tag]
	return k, ok
}

// FormatForTag returns the format name bound to tag.
func (r *Registry) FormatForTag(tag string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	name, ok := r.formats[tag]
	return name, ok
}

// TagForKind returns the rendering tag of k. Kinds registered without a tag
// render under their name.
func (r *Registry) TagForKind(k *vnode.Kind) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if tag, ok := r.kindTag[k]; ok {
		return tag
	}
	return k.Name
}

// TagForFormat returns the rendering tag of a format name.
func (r *Registry) TagForFormat(name string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if tag, ok := r.formatTag[name]; ok {
		return tag
	}
	return name
}

// Kinds returns the registered kinds sorted by name.
func (r *Registry) Kinds() []*vnode.Kind {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*vnode.Kind, 0, len(r.kinds))
	for _, k := range r.kinds {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
