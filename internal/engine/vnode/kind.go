package vnode

// Kind describes a family of nodes. Kinds are compared by pointer identity
// and must not be modified once nodes of that kind exist.
type Kind struct {
	// Name identifies the kind (e.g. "paragraph").
	Name string

	// Container kinds own an ordered child sequence.
	Container bool

	// Atomic kinds can never have children.
	Atomic bool

	// Tangible is false for structural nodes such as range markers, which
	// are skipped by semantic queries.
	Tangible bool

	// Breakable is the default breakability of new nodes of this kind.
	Breakable bool

	// MayContainContainers is false for content models that cannot nest
	// block-level structure. Inserting a container into an attached node of
	// such a kind splits the node instead of nesting.
	MayContainContainers bool
}

// String returns the kind name.
func (k *Kind) String() string {
	if k == nil {
		return "<nil>"
	}
	return k.Name
}

// Built-in kinds.
var (
	ContainerKind = &Kind{
		Name:                 "container",
		Container:            true,
		Tangible:             true,
		Breakable:            true,
		MayContainContainers: true,
	}

	// FragmentKind is used for parse roots and document roots.
	FragmentKind = &Kind{
		Name:                 "fragment",
		Container:            true,
		Tangible:             true,
		Breakable:            true,
		MayContainContainers: true,
	}

	ParagraphKind = &Kind{
		Name:      "paragraph",
		Container: true,
		Tangible:  true,
		Breakable: true,
	}

	CharKind = &Kind{
		Name:      "char",
		Atomic:    true,
		Tangible:  true,
		Breakable: true,
	}

	LineBreakKind = &Kind{
		Name:      "linebreak",
		Atomic:    true,
		Tangible:  true,
		Breakable: true,
	}

	// MarkerKind is the zero-width anchor used for range boundaries.
	MarkerKind = &Kind{
		Name:   "marker",
		Atomic: true,
	}
)
