package vnode

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNewCharRejectsMoreThanOneCharacter(t *testing.T) {
	tests := []struct {
		name  string
		input string
		ok    bool
	}{
		{"ascii", "a", true},
		{"combining sequence", "e\u0301", true},
		{"emoji zwj", "\U0001F469\u200d\U0001F4BB", true},
		{"empty", "", false},
		{"two letters", "ab", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := NewChar(tt.input)
			if tt.ok {
				if err != nil {
					t.Fatalf("NewChar(%q) error = %v", tt.input, err)
				}
				if n.Char() != tt.input {
					t.Errorf("Char() = %q, want %q", n.Char(), tt.input)
				}
				return
			}
			if !errors.Is(err, ErrInvalidArgument) {
				t.Errorf("NewChar(%q) error = %v, want ErrInvalidArgument", tt.input, err)
			}
			var argErr *ArgumentError
			if !errors.As(err, &argErr) {
				t.Errorf("error %T is not *ArgumentError", err)
			}
		})
	}
}

func TestNewCharsNormalizesAndSplitsGraphemes(t *testing.T) {
	nodes := NewChars("e\u0301x", NewFormat("bold"))
	got := labels(nodes)
	want := []string{"\u00e9", "x"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("NewChars mismatch (-want +got):\n%s", diff)
	}
	for _, n := range nodes {
		if !n.HasFormat(NewFormat("bold")) {
			t.Errorf("%s lost its format", label(n))
		}
	}
	if nodes[0].Formats()[0] == nodes[1].Formats()[0] {
		t.Error("formats should not be shared between chars")
	}
}

func TestNodeIDsAreUnique(t *testing.T) {
	a, b := NewContainer(), NewContainer()
	if a.ID() == b.ID() {
		t.Errorf("ids collide: %d", a.ID())
	}
	if a.Clone(false).ID() == a.ID() {
		t.Error("clone reused the original id")
	}
}

func TestPredicate(t *testing.T) {
	c := NewContainer()
	p := NewParagraph()

	if !Any.Test(c) {
		t.Error("Any should match")
	}
	if Any.Test(nil) {
		t.Error("predicates never match nil")
	}
	if !OfKind(ParagraphKind).Test(p) || OfKind(ParagraphKind).Test(c) {
		t.Error("kind predicate mismatch")
	}
	hasID := Func(func(n *Node) bool { _, ok := n.Attr("id"); return ok })
	p.SetAttr("id", "p")
	if !hasID.Test(p) || hasID.Test(c) {
		t.Error("func predicate mismatch")
	}
	if !OfKind(ParagraphKind).And(hasID).Test(p) {
		t.Error("And should match p")
	}
	if OfKind(ParagraphKind).Not().Test(p) {
		t.Error("Not should reject p")
	}
	either := OfKind(ContainerKind).Or(OfKind(ParagraphKind))
	if !either.Test(p) || !either.Test(c) || either.Test(NewLineBreak()) {
		t.Error("Or mismatch")
	}
}

func TestCloneCopiesAttributesAndSkipsMarkers(t *testing.T) {
	p := named(ParagraphKind, "p")
	a, _ := NewChar("a", &Format{Name: "link", Attributes: Attributes{"href": "x"}})
	m := NewMarker()
	mustAppend(t, p, a, m)

	shallow := p.Clone(false)
	if shallow.Parent() != nil || len(shallow.RawChildren()) != 0 {
		t.Error("shallow clone should be detached and empty")
	}

	deep := p.Clone(true)
	if got := labels(deep.RawChildren()); !cmp.Equal(got, []string{"a"}) {
		t.Errorf("deep clone children = %v, want [a]", got)
	}
	checkLinks(t, deep)

	deep.SetAttr("id", "copy")
	if label(p) != "p" {
		t.Error("clone shares attribute storage with the original")
	}
	cf := deep.FirstChild(Any).Formats()[0]
	cf.Attributes["href"] = "y"
	if v := a.Formats()[0].Attributes["href"]; v != "x" {
		t.Errorf("original format changed to %q", v)
	}
	if !SameFormats(a.Formats(), []*Format{{Name: "link", Attributes: Attributes{"href": "x"}}}) {
		t.Error("SameFormats should compare by value")
	}
}

func TestTextAndLength(t *testing.T) {
	root := NewFragment()
	p1, p2 := NewParagraph(), NewParagraph()
	mustAppend(t, p1, NewChars("ab")...)
	mustAppend(t, p1, NewMarker(), NewLineBreak())
	mustAppend(t, p2, NewChars("c")...)
	mustAppend(t, root, p1, p2)

	if got := root.Text(); got != "ab\nc" {
		t.Errorf("Text() = %q, want %q", got, "ab\nc")
	}
	if got := p1.Length(); got != 3 {
		t.Errorf("Length() = %d, want 3", got)
	}
	if got := p2.FirstChild(Any).Length(); got != 1 {
		t.Errorf("char Length() = %d, want 1", got)
	}
}

func TestFormatsOnNodes(t *testing.T) {
	a := char(t, "a")
	bold := NewFormat("bold")
	a.ApplyFormat(bold)
	a.ApplyFormat(NewFormat("bold"))
	if len(a.Formats()) != 1 {
		t.Fatalf("duplicate format applied: %v", a.Formats())
	}
	a.RemoveFormat(NewFormat("bold"))
	if a.HasFormat(bold) {
		t.Error("format not removed")
	}
	if got := (&Format{Name: "link", Attributes: Attributes{"title": "t", "href": "h"}}).String(); got != "link[href, title]" {
		t.Errorf("String() = %q", got)
	}
}
