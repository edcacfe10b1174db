package vnode

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestInsertAtIndex(t *testing.T) {
	p := named(ParagraphKind, "P")
	a, b, c := char(t, "a"), char(t, "b"), char(t, "c")
	mustAppend(t, p, a, b)

	if got := p.FirstChild(Any); got != a {
		t.Errorf("FirstChild() = %s, want a", label(got))
	}
	p.insertAtIndex(c, 1, &batch{})
	if diff := cmp.Diff([]string{"a", "c", "b"}, labels(p.RawChildren())); diff != "" {
		t.Errorf("children mismatch (-want +got):\n%s", diff)
	}
	checkLinks(t, p)
}

func TestMoveWithinSameParent(t *testing.T) {
	tests := []struct {
		name string
		move func(root, a, b, c *Node) error
		want []string
	}{
		{"append first", func(root, a, _, _ *Node) error { return root.Append(a) }, []string{"b", "c", "a"}},
		{"after last", func(root, a, _, c *Node) error { return root.InsertAfter(a, c) }, []string{"b", "c", "a"}},
		{"before first", func(root, a, _, c *Node) error { return root.InsertBefore(c, a) }, []string{"c", "a", "b"}},
		{"before self", func(root, _, b, _ *Node) error { return root.InsertBefore(b, b) }, []string{"a", "b", "c"}},
		{"before next", func(root, a, b, _ *Node) error { return root.InsertBefore(a, b) }, []string{"a", "b", "c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := NewFragment()
			a, b, c := char(t, "a"), char(t, "b"), char(t, "c")
			mustAppend(t, root, a, b, c)
			if err := tt.move(root, a, b, c); err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tt.want, labels(root.RawChildren())); diff != "" {
				t.Errorf("children mismatch (-want +got):\n%s", diff)
			}
			checkLinks(t, root)
		})
	}
}

func TestPrependInsertsEachAtFront(t *testing.T) {
	root := NewFragment()
	mustAppend(t, root, char(t, "c"))
	if err := root.Prepend(char(t, "a"), char(t, "b")); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"b", "a", "c"}, labels(root.RawChildren())); diff != "" {
		t.Errorf("children mismatch (-want +got):\n%s", diff)
	}
}

func TestMergeWith(t *testing.T) {
	root := NewFragment()
	l1, l2 := named(ContainerKind, "L1"), named(ContainerKind, "L2")
	mustAppend(t, l1, char(t, "x"))
	mustAppend(t, l2, char(t, "y"))
	mustAppend(t, root, l1, l2)

	if err := l2.MergeWith(l1); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"x", "y"}, labels(l1.RawChildren())); diff != "" {
		t.Errorf("L1 children mismatch (-want +got):\n%s", diff)
	}
	if l2.Parent() != nil {
		t.Error("L2 should be detached")
	}
	if diff := cmp.Diff([]string{"L1"}, labels(root.RawChildren())); diff != "" {
		t.Errorf("root children mismatch (-want +got):\n%s", diff)
	}
	if err := l1.MergeWith(l1); err != nil || l1.Parent() != root {
		t.Error("merging with itself should do nothing")
	}
	checkLinks(t, root)
}

func TestMergeIntoParentKeepsPosition(t *testing.T) {
	root := named(ContainerKind, "R")
	inner := named(ContainerKind, "I")
	mustAppend(t, inner, char(t, "b"), char(t, "c"))
	mustAppend(t, root, char(t, "a"), inner, char(t, "d"))

	if err := inner.MergeWith(root); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"a", "b", "c", "d"}, labels(root.RawChildren())); diff != "" {
		t.Errorf("children mismatch (-want +got):\n%s", diff)
	}
	checkLinks(t, root)
}

func TestSplitAtThenMerge(t *testing.T) {
	root := NewFragment()
	x := named(ContainerKind, "X")
	a, b, c := char(t, "a"), char(t, "b"), char(t, "c")
	mustAppend(t, x, a, b, c)
	mustAppend(t, root, x)

	x2, err := x.SplitAt(b)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"b", "c"}, labels(x2.RawChildren())); diff != "" {
		t.Errorf("X2 children mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"a"}, labels(x.RawChildren())); diff != "" {
		t.Errorf("X children mismatch (-want +got):\n%s", diff)
	}
	if x.NextSibling(Any) != x2 {
		t.Error("X2 should follow X")
	}
	if x2.Kind() != x.Kind() {
		t.Error("split duplicate has a different kind")
	}
	checkLinks(t, root)

	if err := x2.MergeWith(x); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"a", "b", "c"}, labels(x.RawChildren())); diff != "" {
		t.Errorf("merge did not restore order (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"X"}, labels(root.RawChildren())); diff != "" {
		t.Errorf("root children mismatch (-want +got):\n%s", diff)
	}
}

func TestUnwrapThenWrap(t *testing.T) {
	root := NewFragment()
	w := named(ContainerKind, "W")
	w.SetAttr("class", "quote")
	a, b := char(t, "a"), char(t, "b")
	mustAppend(t, w, a, b)
	mustAppend(t, root, w, char(t, "c"))

	if err := w.Unwrap(); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"a", "b", "c"}, labels(root.RawChildren())); diff != "" {
		t.Errorf("unwrap mismatch (-want +got):\n%s", diff)
	}
	if w.Parent() != nil {
		t.Error("unwrapped container should be detached")
	}

	w2 := w.Clone(false)
	if err := a.Wrap(w2); err != nil {
		t.Fatal(err)
	}
	mustAppend(t, w2, b)
	if diff := cmp.Diff([]string{"W", "c"}, labels(root.RawChildren())); diff != "" {
		t.Errorf("wrap mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"a", "b"}, labels(w2.RawChildren())); diff != "" {
		t.Errorf("wrapped children mismatch (-want +got):\n%s", diff)
	}
	if !w2.Attributes().Equal(w.Attributes()) {
		t.Error("rewrapped container lost attributes")
	}
	checkLinks(t, root)
}

func TestStructuralErrors(t *testing.T) {
	root := NewFragment()
	p := NewParagraph()
	a := char(t, "a")
	stranger := char(t, "z")
	mustAppend(t, p, a)
	mustAppend(t, root, p)

	var childErr *ChildError
	if err := p.RemoveChild(stranger); !errors.Is(err, ErrNotAChild) || !errors.As(err, &childErr) {
		t.Errorf("RemoveChild(stranger) = %v, want ErrNotAChild", err)
	} else if childErr.Parent != p || childErr.Child != stranger {
		t.Errorf("ChildError = %+v", childErr)
	}
	if err := p.InsertBefore(char(t, "b"), stranger); !errors.Is(err, ErrNotAChild) {
		t.Errorf("InsertBefore = %v, want ErrNotAChild", err)
	}
	if err := p.InsertAfter(char(t, "b"), stranger); !errors.Is(err, ErrNotAChild) {
		t.Errorf("InsertAfter = %v, want ErrNotAChild", err)
	}
	if _, err := p.SplitAt(stranger); !errors.Is(err, ErrNotAChild) {
		t.Errorf("SplitAt = %v, want ErrNotAChild", err)
	}
	if err := a.Append(char(t, "b")); !errors.Is(err, ErrAtomic) || !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Append into char = %v, want ErrAtomic", err)
	}
	if err := p.Append(root); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Append ancestor = %v, want ErrInvalidArgument", err)
	}
	if err := p.Append(p); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Append self = %v, want ErrInvalidArgument", err)
	}
	if _, err := root.SplitAt(p); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("SplitAt on detached root = %v, want ErrInvalidArgument", err)
	}
	if err := stranger.Before(char(t, "b")); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Before on detached node = %v, want ErrInvalidArgument", err)
	}

	// Nothing moved.
	if diff := cmp.Diff([]string{"a"}, labels(p.RawChildren())); diff != "" {
		t.Errorf("failed operations mutated the tree (-want +got):\n%s", diff)
	}
	checkLinks(t, root)
}

func TestInsertContainerIntoParagraphSplits(t *testing.T) {
	t.Run("middle", func(t *testing.T) {
		root := named(FragmentKind, "R")
		p := named(ParagraphKind, "P")
		a, b := char(t, "a"), char(t, "b")
		mustAppend(t, p, a, b)
		mustAppend(t, root, p)
		d := named(ContainerKind, "D")

		if err := p.InsertBefore(d, b); err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff([]string{"P", "D", "P"}, labels(root.RawChildren())); diff != "" {
			t.Errorf("root children mismatch (-want +got):\n%s", diff)
		}
		if got := root.Text(); got != "ab" {
			t.Errorf("Text() = %q", got)
		}
		checkLinks(t, root)
	})

	t.Run("start", func(t *testing.T) {
		root := named(FragmentKind, "R")
		p := named(ParagraphKind, "P")
		mustAppend(t, p, char(t, "a"))
		mustAppend(t, root, p)
		d := named(ContainerKind, "D")

		if err := p.Prepend(d); err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff([]string{"D", "P"}, labels(root.RawChildren())); diff != "" {
			t.Errorf("root children mismatch (-want +got):\n%s", diff)
		}
		checkLinks(t, root)
	})

	t.Run("empty keeps markers", func(t *testing.T) {
		root := named(FragmentKind, "R")
		p := named(ParagraphKind, "P")
		mustAppend(t, p, NewMarker())
		mustAppend(t, root, p)
		d := named(ContainerKind, "D")

		if err := p.Append(d); err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff([]string{"marker", "D"}, labels(root.RawChildren())); diff != "" {
			t.Errorf("root children mismatch (-want +got):\n%s", diff)
		}
		if p.Parent() != nil {
			t.Error("replaced paragraph should be detached")
		}
		checkLinks(t, root)
	})

	t.Run("detached nests", func(t *testing.T) {
		p := NewParagraph()
		d := named(ContainerKind, "D")
		if err := p.Append(d); err != nil {
			t.Fatal(err)
		}
		if d.Parent() != p {
			t.Error("detached paragraph should nest the container")
		}
	})
}

func TestChildrenSkipsIntangible(t *testing.T) {
	p := NewParagraph()
	mustAppend(t, p, NewMarker(), NewMarker())

	if got := p.Children(Any); len(got) != 0 {
		t.Errorf("Children() = %v, want empty", labels(got))
	}
	if p.HasChildren() {
		t.Error("HasChildren() should be false with only markers")
	}
	if p.FirstLeaf(Any) != p {
		t.Error("a container with only markers is its own first leaf")
	}
	mustAppend(t, p, char(t, "a"))
	if got := p.NthChild(1); label(got) != "a" {
		t.Errorf("NthChild(1) = %s", label(got))
	}
	if p.NthChild(2) != nil || p.NthChild(0) != nil {
		t.Error("NthChild out of range should be nil")
	}
}

func TestDescendantQueries(t *testing.T) {
	root := named(FragmentKind, "R")
	p1, p2 := named(ParagraphKind, "P1"), named(ParagraphKind, "P2")
	a, b, c := char(t, "a"), char(t, "b"), char(t, "c")
	mustAppend(t, p1, a, NewMarker(), b)
	mustAppend(t, p2, c)
	mustAppend(t, root, p1, p2)

	if diff := cmp.Diff([]string{"P1", "a", "b", "P2", "c"}, labels(root.Descendants(Any))); diff != "" {
		t.Errorf("Descendants mismatch (-want +got):\n%s", diff)
	}
	if got := root.FirstLeaf(Any); got != a {
		t.Errorf("FirstLeaf() = %s", label(got))
	}
	if got := root.LastLeaf(Any); got != c {
		t.Errorf("LastLeaf() = %s", label(got))
	}
	if got := root.FirstDescendant(OfKind(CharKind)); got != a {
		t.Errorf("FirstDescendant(char) = %s", label(got))
	}
	if got := root.LastDescendant(OfKind(ParagraphKind)); got != p2 {
		t.Errorf("LastDescendant(paragraph) = %s", label(got))
	}
	if got := root.DescendantAfter(b); got != p2 {
		t.Errorf("DescendantAfter(b) = %s", label(got))
	}
	if got := p1.DescendantAfter(b); got != nil {
		t.Errorf("bounded DescendantAfter(b) = %s, want nil", label(got))
	}
	if got := root.DescendantBefore(p2); got != b {
		t.Errorf("DescendantBefore(P2) = %s", label(got))
	}
	if got := p1.DescendantBefore(a); got != nil {
		t.Errorf("bounded DescendantBefore(a) = %s, want nil", label(got))
	}
}

func TestChildListNotifications(t *testing.T) {
	root := NewFragment()
	p := NewParagraph()
	mustAppend(t, root, p)

	var events []*Node
	cancel := root.OnChildListChange(func(ev ChildListEvent) {
		events = append(events, ev.Container)
	})

	mustAppend(t, p, NewChars("abc")...)
	if len(events) != 1 || events[0] != p {
		t.Fatalf("events after append = %v, want [P]", labels(events))
	}

	events = nil
	mustAppend(t, p, NewMarker())
	if len(events) != 0 {
		t.Errorf("marker insertion notified %d times", len(events))
	}

	events = nil
	var seen []string
	p.OnChildListChange(func(ChildListEvent) {
		seen = labels(p.RawChildren())
	})
	if _, err := p.SplitAt(p.NthChild(2)); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"a"}, seen); diff != "" {
		t.Errorf("listener saw intermediate state (-want +got):\n%s", diff)
	}

	cancel()
	events = nil
	p.Empty()
	if len(events) != 0 {
		t.Error("cancelled listener still called")
	}
}

func TestListenersSurviveRemoval(t *testing.T) {
	root := NewFragment()
	p, q := NewParagraph(), NewParagraph()
	mustAppend(t, root, p, q)

	var events []*Node
	p.OnChildListChange(func(ev ChildListEvent) {
		events = append(events, ev.Container)
	})

	if err := root.RemoveChild(p); err != nil {
		t.Fatal(err)
	}
	mustAppend(t, p, NewChars("a")...)
	if len(events) != 1 || events[0] != p {
		t.Fatalf("events on detached node = %v, want [P]", labels(events))
	}

	events = nil
	mustAppend(t, q, p)
	mustAppend(t, p, NewChars("b")...)
	if len(events) != 1 || events[0] != p {
		t.Errorf("events after reinsertion = %v, want [P]", labels(events))
	}
	// Changes to the new parent do not reach a child's listeners.
	events = nil
	mustAppend(t, q, NewChars("c")...)
	if len(events) != 0 {
		t.Errorf("sibling change notified the child: %v", labels(events))
	}
}
