package handler_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dshills/quire/internal/dispatcher/execctx"
	"github.com/dshills/quire/internal/dispatcher/handler"
)

func TestHandlerFunc(t *testing.T) {
	called := false
	fn := handler.HandlerFunc(func(action handler.Action, ctx *execctx.ExecutionContext) handler.Result {
		called = true
		return handler.Success()
	})

	result := fn.Handle(handler.Action{Name: "test"}, &execctx.ExecutionContext{})

	if !called {
		t.Error("expected handler func to be called")
	}
	if result.Status != handler.StatusOK {
		t.Errorf("expected StatusOK, got %v", result.Status)
	}
}

func TestHandlerFuncNil(t *testing.T) {
	var fn handler.HandlerFunc
	result := fn.Handle(handler.Action{Name: "test"}, &execctx.ExecutionContext{})

	if result.Status != handler.StatusError {
		t.Errorf("expected StatusError for nil func, got %v", result.Status)
	}
}

func TestNewAction(t *testing.T) {
	a := handler.NewAction("insertText", "text", "abc", 3, "ignored", "dangling")

	if a.Name != "insertText" {
		t.Errorf("Name = %q", a.Name)
	}
	want := execctx.Args{"text": "abc"}
	if diff := cmp.Diff(want, a.Args); diff != "" {
		t.Errorf("Args mismatch (-want +got):\n%s", diff)
	}

	if bare := handler.NewAction("selectAll"); bare.Args != nil {
		t.Errorf("expected nil args, got %v", bare.Args)
	}
}

func TestNamespace(t *testing.T) {
	ns := handler.NewNamespace("core")
	noop := func(handler.Action, *execctx.ExecutionContext) handler.Result { return handler.NoOp() }

	ns.Register("b", noop)
	ns.Register("a", noop)
	ns.Define("c", handler.Definition{Title: "C", Handler: handler.HandlerFunc(noop)})

	if ns.Name() != "core" {
		t.Errorf("Name = %q", ns.Name())
	}
	if diff := cmp.Diff([]string{"a", "b", "c"}, ns.Commands()); diff != "" {
		t.Errorf("Commands mismatch (-want +got):\n%s", diff)
	}
	def, ok := ns.Definition("c")
	if !ok || def.Title != "C" {
		t.Errorf("Definition(c) = %+v, %v", def, ok)
	}
	if _, ok := ns.Definition("missing"); ok {
		t.Error("unexpected definition for missing")
	}
}
