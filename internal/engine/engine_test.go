package engine

import (
	"errors"
	"sync"
	"testing"

	"github.com/tidwall/gjson"

	"github.com/dshills/quire/internal/engine/vnode"
	"github.com/dshills/quire/internal/engine/vrange"
)

func newEngine(t *testing.T, src string, opts ...Option) *Engine {
	t.Helper()
	e, err := New(append([]Option{WithContent(src)}, opts...)...)
	if err != nil {
		t.Fatalf("New(%q): %v", src, err)
	}
	return e
}

// ============================================================================
// Basic Operations
// ============================================================================

func TestNew(t *testing.T) {
	e, err := New()
	if err != nil {
		t.Fatal(err)
	}
	if e.Text() != "" {
		t.Errorf("expected empty text, got %q", e.Text())
	}
	if got := e.Markup(); got != "[]" {
		t.Errorf("Markup() = %q, want %q", got, "[]")
	}
	if !e.Selection().IsCollapsed() {
		t.Error("selection should be collapsed in an empty document")
	}
}

func TestNewWithContent(t *testing.T) {
	e := newEngine(t, "<p>a[b]c</p><p>d</p>")
	if got := e.Text(); got != "abcd" {
		t.Errorf("Text() = %q", got)
	}
	if got := e.Markup(); got != "<p>a[b]c</p><p>d</p>" {
		t.Errorf("Markup() = %q", got)
	}
}

func TestNewInvalidContent(t *testing.T) {
	if _, err := New(WithContent("<p>a")); err == nil {
		t.Error("expected a parse error")
	}
}

// ============================================================================
// Edits
// ============================================================================

func TestEditRecordsHistory(t *testing.T) {
	e := newEngine(t, "<p>a[b]c</p>")
	rev := e.Revision()

	err := e.Edit("Delete", func(_ *vnode.Node, sel *vrange.Range) error {
		return sel.Empty()
	})
	if err != nil {
		t.Fatal(err)
	}
	if got := e.Markup(); got != "<p>a[]c</p>" {
		t.Fatalf("after edit: %s", got)
	}
	if e.UndoCount() != 1 || e.Revision() != rev+1 {
		t.Errorf("UndoCount=%d Revision=%d", e.UndoCount(), e.Revision())
	}
	if info := e.UndoInfo(); len(info) != 1 || info[0].Description != "Delete" {
		t.Errorf("UndoInfo() = %+v", info)
	}

	if err := e.Undo(); err != nil {
		t.Fatal(err)
	}
	if got := e.Markup(); got != "<p>a[b]c</p>" {
		t.Errorf("after Undo: %s", got)
	}
	if err := e.Redo(); err != nil {
		t.Fatal(err)
	}
	if got := e.Markup(); got != "<p>a[]c</p>" {
		t.Errorf("after Redo: %s", got)
	}
}

func TestSelectionOnlyEditIsNotRecorded(t *testing.T) {
	e := newEngine(t, "<p>a[b]c</p>")
	err := e.Edit("Collapse", func(_ *vnode.Node, sel *vrange.Range) error {
		return sel.Collapse(vrange.EndEdge)
	})
	if err != nil {
		t.Fatal(err)
	}
	if e.CanUndo() {
		t.Error("selection moves should not be undoable")
	}
	if got := e.Markup(); got != "<p>ab[]c</p>" {
		t.Errorf("Markup() = %s", got)
	}
}

func TestEditRollsBackOnError(t *testing.T) {
	e := newEngine(t, "<p>a[b]c</p>")
	boom := errors.New("boom")

	err := e.Edit("Broken", func(root *vnode.Node, sel *vrange.Range) error {
		if err := sel.Empty(); err != nil {
			return err
		}
		if err := root.Append(vnode.NewParagraph()); err != nil {
			return err
		}
		return boom
	})

	var ee *EditError
	if !errors.As(err, &ee) || ee.Name != "Broken" || !errors.Is(err, boom) {
		t.Fatalf("Edit() = %v, want *EditError wrapping boom", err)
	}
	if got := e.Markup(); got != "<p>a[b]c</p>" {
		t.Errorf("document not rolled back: %s", got)
	}
	if e.CanUndo() {
		t.Error("a failed edit should not be recorded")
	}
}

func TestUndoRedoEmpty(t *testing.T) {
	e := newEngine(t, "<p>[]</p>")
	if err := e.Undo(); !errors.Is(err, ErrNothingToUndo) {
		t.Errorf("Undo() = %v", err)
	}
	if err := e.Redo(); !errors.Is(err, ErrNothingToRedo) {
		t.Errorf("Redo() = %v", err)
	}
}

func TestUndoGroup(t *testing.T) {
	e := newEngine(t, "<p>[ab]</p>")
	if !e.BeginUndoGroup("Replace") || !e.InUndoGroup() {
		t.Fatal("group did not open")
	}
	for _, step := range []EditFunc{
		func(_ *vnode.Node, sel *vrange.Range) error { return sel.Empty() },
		func(_ *vnode.Node, sel *vrange.Range) error { return sel.Start().Before(vnode.NewChars("z")[0]) },
	} {
		if err := e.Edit("step", step); err != nil {
			t.Fatal(err)
		}
	}
	if !e.EndUndoGroup() {
		t.Fatal("EndUndoGroup() recorded nothing")
	}

	if e.UndoCount() != 1 {
		t.Fatalf("UndoCount() = %d", e.UndoCount())
	}
	if err := e.Undo(); err != nil {
		t.Fatal(err)
	}
	if got := e.Markup(); got != "<p>[ab]</p>" {
		t.Errorf("after Undo: %s", got)
	}
}

func TestUndoGroupConcurrentEdits(t *testing.T) {
	e := newEngine(t, "<p>[]</p>")
	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if i%2 == 0 {
				e.BeginUndoGroup("g")
				e.EndUndoGroup()
				return
			}
			e.Edit("para", func(root *vnode.Node, _ *vrange.Range) error {
				return root.Append(vnode.NewParagraph())
			})
		}()
	}
	wg.Wait()
	if e.InUndoGroup() {
		t.Error("a group was left open")
	}
	for e.CanUndo() {
		if err := e.Undo(); err != nil {
			t.Fatal(err)
		}
	}
	if got := e.Markup(); got != "<p>[]</p>" {
		t.Errorf("after undoing everything: %s", got)
	}
}

func TestMaxUndoEntries(t *testing.T) {
	e := newEngine(t, "<p>[]</p>", WithMaxUndoEntries(2))
	for range 3 {
		err := e.Edit("para", func(root *vnode.Node, _ *vrange.Range) error {
			return root.Append(vnode.NewParagraph())
		})
		if err != nil {
			t.Fatal(err)
		}
	}
	if e.UndoCount() != 2 {
		t.Errorf("UndoCount() = %d, want 2", e.UndoCount())
	}
}

func TestReadOnly(t *testing.T) {
	e := newEngine(t, "<p>[a]</p>", WithReadOnly())
	if !e.IsReadOnly() {
		t.Fatal("expected read-only engine")
	}
	called := false
	err := e.Edit("x", func(*vnode.Node, *vrange.Range) error { called = true; return nil })
	if !errors.Is(err, ErrReadOnly) || called {
		t.Errorf("Edit() = %v, called=%v", err, called)
	}
	for name, fn := range map[string]func() error{
		"Undo":       e.Undo,
		"Redo":       e.Redo,
		"SetContent": func() error { return e.SetContent("<p></p>") },
		"LoadJSON":   func() error { return e.LoadJSON([]byte(`{}`)) },
	} {
		if err := fn(); !errors.Is(err, ErrReadOnly) {
			t.Errorf("%s() = %v, want ErrReadOnly", name, err)
		}
	}
}

// ============================================================================
// Content
// ============================================================================

func TestSetContentKeepsListeners(t *testing.T) {
	e := newEngine(t, "<p>[a]</p>")
	var events int
	cancel := e.OnChange(func(vnode.ChildListEvent) { events++ })
	defer cancel()

	if err := e.Edit("Delete", func(_ *vnode.Node, sel *vrange.Range) error { return sel.Empty() }); err != nil {
		t.Fatal(err)
	}
	if events == 0 {
		t.Fatal("no notification for an edit")
	}

	events = 0
	if err := e.SetContent("<h1>t[]</h1>"); err != nil {
		t.Fatal(err)
	}
	if events == 0 {
		t.Error("no notification after SetContent")
	}
	if e.CanUndo() {
		t.Error("SetContent should reset history")
	}
	if got := e.Markup(); got != "<h1>t[]</h1>" {
		t.Errorf("Markup() = %s", got)
	}
}

func TestJSONRoundTrip(t *testing.T) {
	e := newEngine(t, `<p class="x">a[<b>b</b>]</p>`)
	data, err := e.JSON()
	if err != nil {
		t.Fatal(err)
	}
	if got := gjson.GetBytes(data, "children.0.attributes.class").String(); got != "x" {
		t.Errorf("class attribute = %q", got)
	}

	other := newEngine(t, "")
	if err := other.LoadJSON(data); err != nil {
		t.Fatal(err)
	}
	if got, want := other.Markup(), e.Markup(); got != want {
		t.Errorf("LoadJSON markup = %s, want %s", got, want)
	}
}

func TestConcurrentReads(t *testing.T) {
	e := newEngine(t, "<p>[]</p>")
	var wg sync.WaitGroup
	for i := range 4 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = e.Edit("insert", func(_ *vnode.Node, sel *vrange.Range) error {
				return sel.Start().Before(vnode.NewChars(string(rune('a' + i)))[0])
			})
		}()
		go func() {
			defer wg.Done()
			e.Read(func(root *vnode.Node, _ *vrange.Range) {
				_ = root.Text()
			})
		}()
	}
	wg.Wait()
	if got := len(e.Text()); got != 4 {
		t.Errorf("Text() has %d chars, want 4", got)
	}
}
