package vrange_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dshills/quire/internal/engine/vnode"
	"github.com/dshills/quire/internal/engine/vrange"
	"github.com/dshills/quire/internal/markup"
	"github.com/dshills/quire/internal/schema"
)

func setup(t *testing.T, src string) (*vnode.Node, *vrange.Range) {
	t.Helper()
	doc, err := markup.Parse(src)
	if err != nil {
		t.Fatalf("Parse(%q): %v", src, err)
	}
	r, err := doc.NewRange()
	if err != nil {
		t.Fatalf("NewRange: %v", err)
	}
	return doc.Root, r
}

func render(t *testing.T, root *vnode.Node, r *vrange.Range) string {
	t.Helper()
	if !r.Start().IsBefore(r.End()) {
		t.Errorf("start marker does not precede end marker")
	}
	return markup.Render(root, r)
}

func names(nodes []*vnode.Node) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.Name())
	}
	return out
}

func TestSelectedNodes(t *testing.T) {
	tests := []struct {
		name      string
		src       string
		selected  []string
		traversed []string
		collapsed bool
	}{
		{"whole paragraph", "<p>[abc]</p>", []string{"a", "b", "c"}, []string{"a", "b", "c"}, false},
		{"collapsed", "<p>a[]b</p>", []string{}, []string{}, true},
		{"single char", "<p>a[b]c</p>", []string{"b"}, []string{"b"}, false},
		{"across paragraphs", "<p>a[b</p><p>c]d</p>", []string{"b", "c"}, []string{"b", "paragraph", "c"}, false},
		{"whole block", "[<p>ab</p>]<p>c</p>", []string{"paragraph", "a", "b"}, []string{"paragraph", "a", "b"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, r := setup(t, tt.src)
			if diff := cmp.Diff(tt.selected, names(r.SelectedNodes(vnode.Any))); diff != "" {
				t.Errorf("SelectedNodes mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.traversed, names(r.TraversedNodes(vnode.Any))); diff != "" {
				t.Errorf("TraversedNodes mismatch (-want +got):\n%s", diff)
			}
			if got := r.IsCollapsed(); got != tt.collapsed {
				t.Errorf("IsCollapsed() = %v, want %v", got, tt.collapsed)
			}
		})
	}
}

func TestTargetedNodes(t *testing.T) {
	root, r := setup(t, "<p>a[]b</p><p>c</p>")
	p := root.FirstChild(vnode.Any)
	got := r.TargetedNodes(vnode.OfKind(vnode.ParagraphKind))
	if len(got) != 1 || got[0] != p {
		t.Errorf("TargetedNodes() = %v, want [first paragraph]", got)
	}

	_, r = setup(t, "<p>a[b</p><p>c]d</p>")
	if n := len(r.TargetedNodes(vnode.OfKind(vnode.ParagraphKind))); n != 2 {
		t.Errorf("TargetedNodes() returned %d paragraphs, want 2", n)
	}
}

func TestSplit(t *testing.T) {
	tests := []struct {
		name      string
		src       string
		predicate vnode.Predicate
		want      string
		returned  []string
	}{
		{
			"inside one paragraph",
			"<p>a[b]c</p>", vnode.Any,
			"<p>a</p><p>[b]</p><p>c</p>",
			[]string{"paragraph"},
		},
		{
			"at both edges",
			"<p>[abc]</p>", vnode.Any,
			"<p>[abc]</p>",
			[]string{"paragraph"},
		},
		{
			"across paragraphs",
			"<p>a[b</p><p>c]d</p>", vnode.Any,
			"<p>a</p><p>[b</p><p>c]</p><p>d</p>",
			[]string{"paragraph", "paragraph"},
		},
		{
			"stops below list",
			"<ul><li><p>[a</p></li><li><p>b]</p></li></ul>", vnode.OfKind(vnode.ParagraphKind),
			"<ul><li><p>[a</p></li><li><p>b]</p></li></ul>",
			[]string{"list-item", "list-item"},
		},
		{
			"splits list items",
			"<ul><li><p>x</p><p>a[b</p></li><li><p>c]</p><p>y</p></li></ul>", vnode.OfKind(vnode.ParagraphKind),
			"<ul><li><p>x</p><p>a</p></li><li><p>[b</p></li><li><p>c]</p></li><li><p>y</p></li></ul>",
			[]string{"list-item", "list-item"},
		},
		{
			"up to list parent",
			"<ul><li><p>[a</p></li><li><p>b]</p></li></ul><p>z</p>", vnode.OfKind(schema.ListKind),
			"<ul><li><p>[a</p></li><li><p>b]</p></li></ul><p>z</p>",
			[]string{"list"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root, r := setup(t, tt.src)
			nodes, err := r.Split(tt.predicate)
			if err != nil {
				t.Fatal(err)
			}
			if got := render(t, root, r); got != tt.want {
				t.Errorf("after Split:\n got %s\nwant %s", got, tt.want)
			}
			if diff := cmp.Diff(tt.returned, names(nodes)); diff != "" {
				t.Errorf("Split() nodes mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSplitReturnsOwnedBlock(t *testing.T) {
	root, r := setup(t, "<p>a[b]c</p>")
	nodes, err := r.Split(vnode.Any)
	if err != nil {
		t.Fatal(err)
	}
	if len(nodes) != 1 || nodes[0] != root.NthChild(2) {
		t.Fatalf("Split() = %v", nodes)
	}
	if r.StartContainer() != nodes[0] || r.EndContainer() != nodes[0] {
		t.Error("both markers should be inside the returned block")
	}
}

func TestEmpty(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"same paragraph", "<p>a[bc]d</p>", "<p>a[]d</p>"},
		{"collapsed", "<p>a[]b</p>", "<p>a[]b</p>"},
		{"across paragraphs", "<p>a[b</p><p>c]d</p>", "<p>a[]d</p>"},
		{"whole middle paragraph", "<p>a[b</p><p>x</p><p>c]d</p>", "<p>a[]d</p>"},
		{"end deeper", "<p>a[b</p><ul><li><p>c]d</p></li></ul>", "<p>a[]d</p>"},
		{"start deeper", "<ul><li><p>a[b</p></li></ul><p>c]d</p>", "<ul><li><p>a[]d</p></li></ul>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root, r := setup(t, tt.src)
			if err := r.Empty(); err != nil {
				t.Fatal(err)
			}
			if got := render(t, root, r); got != tt.want {
				t.Errorf("after Empty:\n got %s\nwant %s", got, tt.want)
			}
			if !r.IsCollapsed() {
				t.Error("range should be collapsed after Empty")
			}
		})
	}
}

func TestEmptyKeepsUnbreakable(t *testing.T) {
	root, r := setup(t, "<p>a[bc]d</p>")
	c := root.FirstChild(vnode.Any).NthChild(3)
	c.SetBreakable(false)
	if err := r.Empty(); err != nil {
		t.Fatal(err)
	}
	if got := render(t, root, r); got != "<p>a[c]d</p>" {
		t.Errorf("after Empty: %s", got)
	}
}

func TestEmptyNestedUnbreakableEnd(t *testing.T) {
	root, r := setup(t, "<p>a[b</p><ul><li><p>c]d</p><p>y</p></li></ul>")
	end := r.EndContainer()
	end.SetBreakable(false)
	if err := r.Empty(); err != nil {
		t.Fatal(err)
	}

	if r.EndContainer() != end || r.StartContainer() == end {
		t.Fatal("the unbreakable end block was merged")
	}
	if got := markup.Render(root.FirstChild(vnode.Any), r); got != "<p>a[</p>" {
		t.Errorf("start block = %s", got)
	}
	// Both the item and the list were split in front of the end block.
	if n := len(root.Children(vnode.Any)); n != 3 {
		t.Fatalf("root has %d children, want 3", n)
	}
	li := end.Parent()
	if li.FirstChild(vnode.Any) != end || len(li.Children(vnode.Any)) != 2 {
		t.Errorf("end block is not leading its own item: %s", markup.Render(li, r))
	}
	if ul := li.Parent(); ul != root.LastChild(vnode.Any) || len(ul.Children(vnode.Any)) != 1 {
		t.Errorf("end item is not alone in the trailing list: %s", markup.Render(root, r))
	}
	if got := markup.Render(end, r); got != "<p>]d</p>" {
		t.Errorf("end block = %s", got)
	}
}

func TestExtendTo(t *testing.T) {
	root, r := setup(t, "<p>xy</p><p>a[b]c</p>")
	p1, p2 := root.NthChild(1), root.NthChild(2)

	steps := []struct {
		target *vnode.Node
		want   string
	}{
		{p2.NthChild(2), "<p>xy</p><p>a[b]c</p>"},
		{p2.NthChild(3), "<p>xy</p><p>a[bc]</p>"},
		{p2.NthChild(1), "<p>xy</p><p>[abc]</p>"},
		{p1.NthChild(2), "<p>x[y</p><p>abc]</p>"},
	}
	for _, s := range steps {
		if err := r.ExtendTo(s.target); err != nil {
			t.Fatal(err)
		}
		if got := render(t, root, r); got != s.want {
			t.Errorf("ExtendTo(%s):\n got %s\nwant %s", s.target.Name(), got, s.want)
		}
	}
}

func TestSetStartEnd(t *testing.T) {
	root, r := setup(t, "<p>abc</p><p></p>")
	p1, p2 := root.NthChild(1), root.NthChild(2)

	steps := []struct {
		name string
		do   func() error
		want string
	}{
		{"empty container", func() error {
			if err := r.SetStart(p2, vrange.Before); err != nil {
				return err
			}
			return r.SetEnd(p2, vrange.After)
		}, "<p>abc</p><p>[]</p>"},
		{"select paragraph", func() error { return r.SetBounds(vrange.Selecting(p1, p1)) }, "<p>[abc]</p><p></p>"},
		{"collapse to start", func() error { return r.Collapse(vrange.StartEdge) }, "<p>[]abc</p><p></p>"},
		{"points", func() error {
			return r.SetBounds(vrange.SelectingPoints(p1.NthChild(1), vrange.After, p1.NthChild(3), vrange.Before))
		}, "<p>a[b]c</p><p></p>"},
		{"collapse to end", func() error { return r.Collapse(vrange.EndEdge) }, "<p>ab[]c</p><p></p>"},
		{"at", func() error { return r.SetBounds(vrange.At(p1, vrange.After)) }, "<p>abc[]</p><p></p>"},
	}
	for _, s := range steps {
		if err := s.do(); err != nil {
			t.Fatalf("%s: %v", s.name, err)
		}
		if got := render(t, root, r); got != s.want {
			t.Errorf("%s:\n got %s\nwant %s", s.name, got, s.want)
		}
	}
}

func TestWithRangeRemovesMarkers(t *testing.T) {
	root, r := setup(t, "<p>a[b]c</p>")
	markers := func() int {
		return len(vnode.Raw.Descendants(root, vnode.OfKind(vnode.MarkerKind)))
	}

	var inner []string
	err := vrange.WithRange(vrange.CloneBounds(r), func(tr *vrange.Range) error {
		inner = names(tr.SelectedNodes(vnode.Any))
		if markers() != 4 {
			t.Errorf("expected 4 markers inside the scope, got %d", markers())
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"b"}, inner); diff != "" {
		t.Errorf("cloned range selects (-want +got):\n%s", diff)
	}
	if markers() != 2 {
		t.Errorf("transient markers left behind: %d", markers())
	}

	sentinel := errors.New("stop")
	if err := vrange.WithRange(vrange.At(root, vrange.Before), func(*vrange.Range) error { return sentinel }); !errors.Is(err, sentinel) {
		t.Errorf("WithRange() = %v, want sentinel", err)
	}
	if markers() != 2 {
		t.Errorf("failed scope left markers behind: %d", markers())
	}
}

func TestDetachedRange(t *testing.T) {
	r := vrange.New()
	if r.IsCollapsed() {
		t.Error("a detached range is not collapsed")
	}
	if _, err := r.Split(vnode.Any); !errors.Is(err, vrange.ErrDetached) {
		t.Errorf("Split() = %v, want ErrDetached", err)
	}
	if err := r.Empty(); !errors.Is(err, vrange.ErrDetached) {
		t.Errorf("Empty() = %v, want ErrDetached", err)
	}
	if err := r.ExtendTo(vnode.NewContainer()); !errors.Is(err, vrange.ErrDetached) {
		t.Errorf("ExtendTo() = %v, want ErrDetached", err)
	}
	if r.SelectedNodes(vnode.Any) != nil {
		t.Error("detached range selects nothing")
	}
	if err := r.SetStart(nil, vrange.Before); !errors.Is(err, vnode.ErrInvalidArgument) {
		t.Errorf("SetStart(nil) = %v", err)
	}
}

func TestRemove(t *testing.T) {
	root, r := setup(t, "<p>a[b]c</p>")
	r.Remove()
	if r.Attached() {
		t.Error("markers still attached")
	}
	if got := markup.Render(root, nil); got != "<p>abc</p>" {
		t.Errorf("Render() = %s", got)
	}
}

func TestParsePosition(t *testing.T) {
	for _, p := range []vrange.Position{vrange.Before, vrange.After, vrange.Inside} {
		got, err := vrange.ParsePosition(p.String())
		if err != nil || got != p {
			t.Errorf("ParsePosition(%q) = %v, %v", p.String(), got, err)
		}
	}
	if _, err := vrange.ParsePosition("around"); err == nil {
		t.Error("expected error for unknown position")
	}
}
