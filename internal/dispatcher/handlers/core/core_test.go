package core_test

import (
	"context"
	"errors"
	"testing"

	"github.com/dshills/quire/internal/dispatcher"
	"github.com/dshills/quire/internal/dispatcher/execctx"
	"github.com/dshills/quire/internal/dispatcher/handler"
	"github.com/dshills/quire/internal/dispatcher/handlers/core"
	"github.com/dshills/quire/internal/engine"
	"github.com/dshills/quire/internal/engine/vnode"
)

func setup(t *testing.T, src string) (*engine.Engine, *dispatcher.Dispatcher) {
	t.Helper()
	eng, err := engine.New(engine.WithContent(src))
	if err != nil {
		t.Fatalf("engine.New(%q): %v", src, err)
	}
	d := dispatcher.NewWithDefaults()
	d.SetEditor(eng)
	if err := d.RegisterNamespace(core.Namespace(eng.Registry())); err != nil {
		t.Fatal(err)
	}
	for name, def := range core.ListDefinitions() {
		if err := d.Register(name, def); err != nil {
			t.Fatal(err)
		}
	}
	return eng, d
}

type commandCase struct {
	name    string
	src     string
	command string
	args    execctx.Args
	want    string
}

func runCases(t *testing.T, cases []commandCase) {
	t.Helper()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			eng, d := setup(t, tc.src)
			r := d.Execute(context.Background(), tc.command, tc.args)
			if r.IsError() {
				t.Fatalf("%s: %v", tc.command, r.Error)
			}
			if got := eng.Markup(); got != tc.want {
				t.Errorf("Markup() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestInsertCommands(t *testing.T) {
	runCases(t, []commandCase{
		{"text", "<p>a[]b</p>", core.ActionInsertText, execctx.Args{"text": "x"}, "<p>ax[]b</p>"},
		{"replace selection", "<p>a[bc]d</p>", core.ActionInsertText, execctx.Args{"text": "x"}, "<p>ax[]d</p>"},
		{"newline", "<p>[]</p>", core.ActionInsertText, execctx.Args{"text": "a\r\nb"}, "<p>a<br/>b[]</p>"},
		{"select inserted", "<p>[]</p>", core.ActionInsertText, execctx.Args{"text": "ab", "select": true}, "<p>[ab]</p>"},
		{"empty text", "<p>a[]</p>", core.ActionInsertText, nil, "<p>a[]</p>"},
		{"line break", "<p>a[]b</p>", core.ActionInsertLineBreak, nil, "<p>a<br/>[]b</p>"},
		{"paragraph break", "<p>a[]b</p>", core.ActionInsertParagraphBreak, nil, "<p>a</p><p>[]b</p>"},
		{"paragraph break in selection", "<p>a[bc]d</p>", core.ActionInsertParagraphBreak, nil, "<p>a</p><p>[]d</p>"},
		{"kind", "<p>a[]</p>", core.ActionInsert, execctx.Args{"kind": "linebreak"}, "<p>a<br/>[]</p>"},
		{"markup", "<p>a[]</p>", core.ActionInsert, execctx.Args{"markup": "xy"}, "<p>axy[]</p>"},
	})
}

func TestInsertTextInheritsFormats(t *testing.T) {
	eng, d := setup(t, "<p><b>a</b>[]</p>")
	if r := d.Execute(context.Background(), core.ActionInsertText, execctx.Args{"text": "b"}); !r.IsOK() {
		t.Fatalf("result = %+v", r)
	}
	bold := vnode.NewFormat("bold")
	chars := eng.Root().Descendants(vnode.OfKind(vnode.CharKind))
	if len(chars) != 2 {
		t.Fatalf("got %d chars, want 2", len(chars))
	}
	if !chars[1].HasFormat(bold) {
		t.Errorf("inserted char formats = %v, want bold", chars[1].Formats())
	}

	if r := d.Execute(context.Background(), core.ActionInsertText, execctx.Args{"text": "c", "formats": ""}); !r.IsOK() {
		t.Fatalf("result = %+v", r)
	}
	chars = eng.Root().Descendants(vnode.OfKind(vnode.CharKind))
	if got := chars[2].Formats(); len(got) != 0 {
		t.Errorf("explicit empty formats gave %v", got)
	}
}

func TestInsertErrors(t *testing.T) {
	_, d := setup(t, "<p>a[]</p>")
	tests := []struct {
		name string
		args execctx.Args
		want error
	}{
		{"no source", nil, execctx.ErrMissingArg},
		{"unknown kind", execctx.Args{"kind": "table"}, core.ErrUnknownKind},
		{"bad node", execctx.Args{"node": "x"}, core.ErrInvalidArg},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := d.Execute(context.Background(), core.ActionInsert, tt.args)
			if !errors.Is(r.Error, tt.want) {
				t.Errorf("error = %v, want %v", r.Error, tt.want)
			}
		})
	}
}

func TestDeleteCommands(t *testing.T) {
	runCases(t, []commandCase{
		{"backward char", "<p>ab[]</p>", core.ActionDeleteBackward, nil, "<p>a[]</p>"},
		{"backward merges blocks", "<p>a</p><p>[]b</p>", core.ActionDeleteBackward, nil, "<p>a[]b</p>"},
		{"backward at start", "<p>[]a</p>", core.ActionDeleteBackward, nil, "<p>[]a</p>"},
		{"forward char", "<p>[]ab</p>", core.ActionDeleteForward, nil, "<p>[]b</p>"},
		{"forward merges blocks", "<p>a[]</p><p>b</p>", core.ActionDeleteForward, nil, "<p>a[]b</p>"},
		{"forward at end", "<p>a[]</p>", core.ActionDeleteForward, nil, "<p>a[]</p>"},
		{"selection", "<p>a[b</p><p>c]d</p>", core.ActionDeleteBackward, nil, "<p>a[]d</p>"},
	})
}

func TestSelectionCommands(t *testing.T) {
	runCases(t, []commandCase{
		{"select all", "<p>ab</p><p>c[]</p>", core.ActionSelectAll, nil, "<p>[ab</p><p>c]</p>"},
		{"collapse to start", "<p>a[bc]d</p>", core.ActionCollapse, nil, "<p>a[]bcd</p>"},
		{"collapse to end", "<p>a[bc]d</p>", core.ActionCollapse, execctx.Args{"edge": "end"}, "<p>abc[]d</p>"},
		{"extend forward", "<p>a[]</p><p>b</p>", core.ActionExtendTo, execctx.Args{"path": "2.1"}, "<p>a[</p><p>b]</p>"},
	})

	_, d := setup(t, "<p>a[b]</p>")
	if r := d.Execute(context.Background(), core.ActionCollapse, execctx.Args{"edge": "middle"}); !errors.Is(r.Error, core.ErrInvalidArg) {
		t.Errorf("bad edge: %+v", r)
	}
	if r := d.Execute(context.Background(), core.ActionExtendTo, execctx.Args{"path": "9"}); !errors.Is(r.Error, core.ErrNoSuchNode) {
		t.Errorf("bad path: %+v", r)
	}
}

func TestFormatCommands(t *testing.T) {
	eng, d := setup(t, "<p>a[bc]d</p>")
	ctx := context.Background()
	bold := vnode.NewFormat("bold")
	boldCount := func() int {
		n := 0
		for _, c := range eng.Root().Descendants(vnode.OfKind(vnode.CharKind)) {
			if c.HasFormat(bold) {
				n++
			}
		}
		return n
	}

	if r := d.Execute(ctx, core.ActionApplyFormat, execctx.Args{"format": "bold"}); r.GetDataInt("chars") != 2 {
		t.Fatalf("apply: %+v", r)
	}
	if got := boldCount(); got != 2 {
		t.Errorf("after apply: %d bold chars, want 2", got)
	}
	d.Execute(ctx, core.ActionToggleFormat, execctx.Args{"format": "bold"})
	if got := boldCount(); got != 0 {
		t.Errorf("after toggle: %d bold chars, want 0", got)
	}
	d.Execute(ctx, core.ActionToggleFormat, execctx.Args{"format": "bold"})
	d.Execute(ctx, core.ActionRemoveFormat, execctx.Args{"format": "bold"})
	if got := boldCount(); got != 0 {
		t.Errorf("after remove: %d bold chars, want 0", got)
	}

	link := execctx.Args{"format": "link", "attr.href": "https://example.com"}
	d.Execute(ctx, core.ActionApplyFormat, link)
	b := eng.Root().Descendants(vnode.OfKind(vnode.CharKind))[1]
	if fs := b.Formats(); len(fs) != 1 || fs[0].Attributes["href"] != "https://example.com" {
		t.Errorf("link formats = %v", fs)
	}

	_, collapsed := setup(t, "<p>a[]b</p>")
	if r := collapsed.Execute(ctx, core.ActionApplyFormat, execctx.Args{"format": "bold"}); r.Status != handler.StatusNoOp {
		t.Errorf("collapsed apply: %+v", r)
	}
}

func TestBlockCommands(t *testing.T) {
	runCases(t, []commandCase{
		{"apply heading", "<p>a[]b</p>", core.ActionApplyBlock, execctx.Args{"kind": "heading1"}, "<h1>a[]b</h1>"},
		{"apply across blocks", "<p>a[b</p><p>c]d</p>", core.ActionApplyBlock, execctx.Args{"kind": "pre"}, "<pre>a[b</pre><pre>c]d</pre>"},
		{"wrap", "<p>a[b</p><p>c]d</p><p>e</p>", core.ActionWrap, execctx.Args{"kind": "blockquote"}, "<blockquote><p>a[b</p><p>c]d</p></blockquote><p>e</p>"},
		{"unwrap", "<blockquote><p>a[]</p></blockquote>", core.ActionUnwrap, nil, "<p>a[]</p>"},
		{"unwrap kind", "<blockquote><ul><li><p>a[]</p></li></ul></blockquote>", core.ActionUnwrap, execctx.Args{"kind": "blockquote"}, "<ul><li><p>a[]</p></li></ul>"},
	})

	eng, d := setup(t, "<p>a[b</p><p>c]d</p>")
	ctx := context.Background()
	if r := d.Execute(ctx, core.ActionSetAttribute, execctx.Args{"name": "align", "value": "center"}); r.GetDataInt("blocks") != 2 {
		t.Fatalf("setAttribute: %+v", r)
	}
	for _, p := range eng.Root().Children(vnode.Any) {
		if v, _ := p.Attr("align"); v != "center" {
			t.Errorf("align = %q, want center", v)
		}
	}
	d.Execute(ctx, core.ActionRemoveAttribute, execctx.Args{"name": "align"})
	for _, p := range eng.Root().Children(vnode.Any) {
		if _, ok := p.Attr("align"); ok {
			t.Error("align still set")
		}
	}

	if r := d.Execute(ctx, core.ActionWrap, execctx.Args{"kind": "paragraph"}); !errors.Is(r.Error, core.ErrInvalidArg) {
		t.Errorf("wrap in paragraph: %+v", r)
	}
	if r := d.Execute(ctx, core.ActionApplyBlock, execctx.Args{"kind": "nope"}); !errors.Is(r.Error, core.ErrUnknownKind) {
		t.Errorf("unknown kind: %+v", r)
	}
}

func TestParagraphBreakInList(t *testing.T) {
	runCases(t, []commandCase{
		{"leave list", "<ul><li><p>a</p></li><li><p>[]</p></li></ul>", core.ActionInsertParagraphBreak, nil, "<ul><li><p>a</p></li></ul><p>[]</p>"},
		{"only item", "<ol><li><p>[]</p></li></ol><p>z</p>", core.ActionInsertParagraphBreak, nil, "<p>[]</p><p>z</p>"},
		{"non-empty item splits", "<ul><li><p>a[]</p></li></ul>", core.ActionInsertParagraphBreak, nil, "<ul><li><p>a</p><p>[]</p></li></ul>"},
		{"empty item not last", "<ul><li><p>[]</p></li><li><p>b</p></li></ul>", core.ActionInsertParagraphBreak, nil, "<ul><li><p></p><p>[]</p></li><li><p>b</p></li></ul>"},
	})
}

func TestCommandsAreUndoable(t *testing.T) {
	eng, d := setup(t, "<p>a</p><p>[]b</p>")
	if r := d.Execute(context.Background(), core.ActionDeleteBackward, nil); !r.IsOK() {
		t.Fatalf("result = %+v", r)
	}
	if eng.UndoCount() != 1 {
		t.Errorf("UndoCount() = %d, want 1", eng.UndoCount())
	}
	if err := eng.Undo(); err != nil {
		t.Fatal(err)
	}
	if got := eng.Markup(); got != "<p>a</p><p>[]b</p>" {
		t.Errorf("after undo Markup() = %q", got)
	}
}
