package execctx_test

import (
	"context"
	"errors"
	"testing"

	"github.com/dshills/quire/internal/dispatcher/execctx"
	"github.com/dshills/quire/internal/engine/vnode"
	"github.com/dshills/quire/internal/engine/vrange"
	"github.com/dshills/quire/internal/markup"
)

func setup(t *testing.T, src string) (*vnode.Node, *vrange.Range) {
	t.Helper()
	doc, err := markup.Parse(src)
	if err != nil {
		t.Fatalf("Parse(%q): %v", src, err)
	}
	rng, err := doc.NewRange()
	if err != nil {
		t.Fatalf("NewRange: %v", err)
	}
	return doc.Root, rng
}

func TestNew(t *testing.T) {
	root, rng := setup(t, "<p>a[b]c</p>")
	ec := execctx.New(root, rng)

	if ec.ID == "" {
		t.Error("expected a generated ID")
	}
	if ec.Data == nil {
		t.Error("expected Data to be initialized")
	}
	if ec.Logger == nil {
		t.Error("expected a non-nil logger")
	}
	if err := ec.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}

	other := execctx.New(root, rng)
	if other.ID == ec.ID {
		t.Errorf("IDs should differ, both %q", ec.ID)
	}
}

func TestValidate(t *testing.T) {
	root, rng := setup(t, "<p>a[b]c</p>")

	if err := execctx.New(nil, rng).Validate(); !errors.Is(err, execctx.ErrMissingRoot) {
		t.Errorf("nil root: got %v", err)
	}
	if err := execctx.New(root, nil).Validate(); !errors.Is(err, execctx.ErrMissingRange) {
		t.Errorf("nil range: got %v", err)
	}

	otherRoot, _ := setup(t, "<p>x</p>")
	if err := execctx.New(otherRoot, rng).Validate(); !errors.Is(err, execctx.ErrDetachedRange) {
		t.Errorf("foreign range: got %v", err)
	}

	rng.Remove()
	if err := execctx.New(root, rng).Validate(); !errors.Is(err, execctx.ErrDetachedRange) {
		t.Errorf("removed range: got %v", err)
	}
}

func TestContextRoundTrip(t *testing.T) {
	root, rng := setup(t, "<p>a[]</p>")
	ec := execctx.New(root, rng)

	if _, ok := execctx.FromContext(context.Background()); ok {
		t.Error("background context should carry no execution context")
	}
	got, ok := execctx.FromContext(ec.Context())
	if !ok || got != ec {
		t.Errorf("FromContext = %v, %v; want ec", got, ok)
	}

	type key struct{}
	parent := context.WithValue(context.Background(), key{}, "v")
	ec.WithContext(parent)
	if ec.Context().Value(key{}) != "v" {
		t.Error("WithContext should keep parent values")
	}
}

func TestChild(t *testing.T) {
	root, rng := setup(t, "<p>a[]</p>")
	ec := execctx.New(root, rng)
	ec.Command = "outer"

	child := ec.Child("inner")
	if child.Root != root || child.Range != rng {
		t.Error("child should share root and range")
	}
	if child.Parent != ec || child.Command != "inner" {
		t.Errorf("child = %+v", child)
	}
	if child.ID == ec.ID {
		t.Error("child should get its own ID")
	}
	if ec.Depth() != 0 || child.Depth() != 1 || child.Child("x").Depth() != 2 {
		t.Errorf("depths = %d, %d", ec.Depth(), child.Depth())
	}
}

func TestData(t *testing.T) {
	ec := &execctx.ExecutionContext{}

	ec.SetData("s", "hello")
	ec.SetData("i", 42)
	ec.SetData("f", 3.0)
	ec.SetData("b", true)

	if got := ec.GetDataString("s"); got != "hello" {
		t.Errorf("GetDataString = %q", got)
	}
	if got := ec.GetDataInt("i"); got != 42 {
		t.Errorf("GetDataInt = %d", got)
	}
	if got := ec.GetDataInt("f"); got != 3 {
		t.Errorf("GetDataInt(float) = %d", got)
	}
	if !ec.GetDataBool("b") {
		t.Error("GetDataBool = false")
	}
	if got := ec.GetDataString("missing"); got != "" {
		t.Errorf("missing key = %q", got)
	}
}

func TestArgs(t *testing.T) {
	args := execctx.Args{
		"text":  "abc",
		"n":     "12",
		"f":     2.0,
		"flag":  "true",
		"other": 7,
	}

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"string", args.String("text"), "abc"},
		{"string of int", args.String("other"), "7"},
		{"string missing", args.String("missing"), ""},
		{"int from string", args.Int("n"), 12},
		{"int from float", args.Int("f"), 2},
		{"bool from string", args.Bool("flag"), true},
		{"bool missing", args.Bool("missing"), false},
		{"has", args.Has("text"), true},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s: got %v, want %v", tt.name, tt.got, tt.want)
		}
	}

	if _, err := args.Require("missing"); !errors.Is(err, execctx.ErrMissingArg) {
		t.Errorf("Require(missing) = %v", err)
	}
	clone := args.Clone()
	clone["text"] = "changed"
	if args.String("text") != "abc" {
		t.Error("Clone should not alias the original")
	}
}
