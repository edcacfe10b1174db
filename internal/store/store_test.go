package store

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "quire.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestDocuments(t *testing.T) {
	s := openTemp(t)

	if err := s.PutDocument("notes", "<p>a</p>"); err != nil {
		t.Fatal(err)
	}
	if err := s.PutDocument("draft", "<p>b</p>"); err != nil {
		t.Fatal(err)
	}
	if err := s.PutDocument("notes", "<p>c</p>"); err != nil {
		t.Fatal(err)
	}
	if err := s.PutDocument("", "x"); !errors.Is(err, ErrEmptyName) {
		t.Errorf("PutDocument(\"\") = %v", err)
	}

	got, err := s.Document("notes")
	if err != nil || got != "<p>c</p>" {
		t.Errorf("Document(notes) = %q, %v", got, err)
	}
	names, _ := s.Documents()
	if diff := cmp.Diff([]string{"draft", "notes"}, names); diff != "" {
		t.Errorf("Documents() mismatch (-want +got):\n%s", diff)
	}

	if err := s.DeleteDocument("draft"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Document("draft"); !errors.Is(err, ErrNoDocument) {
		t.Errorf("Document(draft) after delete = %v", err)
	}
	if err := s.DeleteDocument("draft"); !errors.Is(err, ErrNoDocument) {
		t.Errorf("second delete = %v", err)
	}
}

func TestJournal(t *testing.T) {
	s := openTemp(t)
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	entries := []Entry{
		{Document: "a", Command: "insertText", Args: map[string]any{"text": "x"}, Status: "ok", Time: now},
		{Document: "b", Command: "selectAll", Status: "ok", Time: now},
		{Document: "a", Command: "wrap", Args: map[string]any{"kind": "blockquote", "depth": float64(2)}, Status: "error", Time: now},
	}
	for i, e := range entries {
		seq, err := s.AddEntry(e)
		if err != nil {
			t.Fatal(err)
		}
		if seq != i+1 {
			t.Errorf("seq = %d, want %d", seq, i+1)
		}
		entries[i].Seq = seq
	}

	all, err := s.Entries(0, 0, "")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(entries, all, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("Entries mismatch (-want +got):\n%s", diff)
	}

	onlyA, _ := s.Entries(0, 0, "a")
	if len(onlyA) != 2 || onlyA[1].Command != "wrap" {
		t.Errorf("Entries(a) = %+v", onlyA)
	}
	window, _ := s.Entries(2, 3, "")
	if len(window) != 1 || window[0].Seq != 2 {
		t.Errorf("Entries(2, 3) = %+v", window)
	}

	e, err := s.Entry(1)
	if err != nil || e.Args["text"] != "x" {
		t.Errorf("Entry(1) = %+v, %v", e, err)
	}
	if _, err := s.Entry(99); !errors.Is(err, ErrNoEntry) {
		t.Errorf("Entry(99) = %v", err)
	}
}

func TestReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "q.db")
	s, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	s.PutDocument("d", "<p>z</p>")
	s.AddEntry(Entry{Command: "c", Time: time.Now()})
	s.Close()

	s, err = Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	if got, _ := s.Document("d"); got != "<p>z</p>" {
		t.Errorf("Document after reopen = %q", got)
	}
	if seq, _ := s.AddEntry(Entry{Command: "c2"}); seq != 2 {
		t.Errorf("seq after reopen = %d, want 2", seq)
	}
}
