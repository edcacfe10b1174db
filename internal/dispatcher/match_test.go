package dispatcher_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/dshills/quire/internal/dispatcher"
	"github.com/dshills/quire/internal/dispatcher/execctx"
	"github.com/dshills/quire/internal/dispatcher/handler"
	"github.com/dshills/quire/internal/engine/vnode"
	"github.com/dshills/quire/internal/markup"
	"github.com/dshills/quire/internal/schema"
)

var (
	isList      = vnode.OfKind(schema.ListKind)
	isParagraph = vnode.OfKind(vnode.ParagraphKind)
	isLineBreak = vnode.OfKind(vnode.LineBreakKind)
)

func contextFor(t *testing.T, src string) *execctx.ExecutionContext {
	t.Helper()
	doc, err := markup.Parse(src)
	if err != nil {
		t.Fatalf("Parse(%q): %v", src, err)
	}
	rng, err := doc.NewRange()
	if err != nil {
		t.Fatal(err)
	}
	return execctx.New(doc.Root, rng)
}

func named(name string, selector ...vnode.Predicate) handler.Definition {
	return handler.Definition{
		Title:    name,
		Selector: selector,
		Handler: handler.HandlerFunc(func(handler.Action, *execctx.ExecutionContext) handler.Result {
			return handler.SuccessWithData("which", name)
		}),
	}
}

func nodeNames(nodes []*vnode.Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.Name()
	}
	return out
}

func TestMatchSpecificity(t *testing.T) {
	const doc = "<ul><li><p>[]a</p></li></ul>"

	tests := []struct {
		name     string
		defs     []handler.Definition
		want     string
		selector []string
	}{
		{
			name: "deepest last predicate then longest selector",
			defs: []handler.Definition{
				named("ul p", isList, isParagraph),
				named("p", isParagraph),
				named("ul", isList),
				named("br", isLineBreak),
				named("any"),
			},
			want:     "ul p",
			selector: []string{"list", "paragraph"},
		},
		{
			name: "registration order does not beat specificity",
			defs: []handler.Definition{
				named("any"),
				named("ul", isList),
				named("p", isParagraph),
				named("ul p", isList, isParagraph),
			},
			want:     "ul p",
			selector: []string{"list", "paragraph"},
		},
		{
			name: "deeper match beats longer selector",
			defs: []handler.Definition{
				named("p", isParagraph),
				named("ul li", isList, vnode.OfKind(schema.ListItemKind)),
			},
			want:     "p",
			selector: []string{"paragraph"},
		},
		{
			name: "later registration wins a tie",
			defs: []handler.Definition{
				named("first", isParagraph),
				named("second", isParagraph),
			},
			want:     "second",
			selector: []string{"paragraph"},
		},
		{
			name: "empty selector matches anywhere",
			defs: []handler.Definition{
				named("br", isLineBreak),
				named("any"),
			},
			want: "any",
		},
		{
			name: "predicates must be found in order",
			defs: []handler.Definition{
				named("p ul", isParagraph, isList),
				named("any"),
			},
			want: "any",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ec := contextFor(t, doc)
			def, nodes, ok := dispatcher.Match(tt.defs, ec)
			if !ok {
				t.Fatal("expected a match")
			}
			if def.Title != tt.want {
				t.Errorf("matched %q, want %q", def.Title, tt.want)
			}
			if diff := cmp.Diff(tt.selector, nodeNames(nodes), cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("selector mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMatchCheck(t *testing.T) {
	ec := contextFor(t, "<ul><li><p>[]a</p></li></ul>")

	var checked []string
	strict := named("strict", isList, isParagraph)
	strict.Check = func(ec *execctx.ExecutionContext) bool {
		checked = nodeNames(ec.Selector)
		return false
	}
	defs := []handler.Definition{named("p", isParagraph), strict}

	def, _, ok := dispatcher.Match(defs, ec)
	if !ok || def.Title != "p" {
		t.Errorf("matched %q, want fallback to p", def.Title)
	}
	if diff := cmp.Diff([]string{"list", "paragraph"}, checked); diff != "" {
		t.Errorf("check should see its own selector (-want +got):\n%s", diff)
	}
	if ec.Selector != nil {
		t.Error("Match should not leave the selector set on the context")
	}
}

func TestRegistryMatchErrors(t *testing.T) {
	r := dispatcher.NewRegistry()
	ec := contextFor(t, "<p>[]a</p>")

	if _, _, err := r.Match("cmd", ec); !errors.Is(err, dispatcher.ErrNoHandler) {
		t.Errorf("unregistered: %v", err)
	}
	if err := r.Register("cmd", named("br", isLineBreak)); err != nil {
		t.Fatal(err)
	}
	if _, _, err := r.Match("cmd", ec); !errors.Is(err, dispatcher.ErrNoMatch) {
		t.Errorf("no selector match: %v", err)
	}
	if r.Count() != 1 || len(r.Definitions("cmd")) != 1 {
		t.Errorf("Count() = %d", r.Count())
	}
	r.Clear()
	if r.Has("cmd") {
		t.Error("Clear should remove commands")
	}
}
