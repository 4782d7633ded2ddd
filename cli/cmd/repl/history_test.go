package repl

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestHistory(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), baseHistory)
	h := NewHistory(path)

	for _, e := range []Entry{
		{"{{a}}", modeTemplate},
		{":data", modeCommand},
		{"{{b}}", modeTemplate},
		{"{{b}}", modeTemplate}, // repeat of the last entry
		{"{{a}}", modeTemplate}, // moves to the end
		{"  ", modeTemplate},    // ignored
	} {
		if err := h.Add(e.Line, e.Mode); err != nil {
			t.Fatalf("Add(%q) error = %v", e.Line, err)
		}
	}

	want := []Entry{
		{":data", modeCommand},
		{"{{b}}", modeTemplate},
		{"{{a}}", modeTemplate},
	}

	if diff := cmp.Diff(want, h.Entries()); diff != "" {
		t.Errorf("Entries() mismatch (-want +got):\n%s", diff)
	}

	loaded := NewHistory(path)
	if err := loaded.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if diff := cmp.Diff(want, loaded.Entries()); diff != "" {
		t.Errorf("loaded Entries() mismatch (-want +got):\n%s", diff)
	}

	if _, err := loaded.Get(3); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("Get(3) error = %v, want %v", err, ErrOutOfBounds)
	}
}

func TestHistory_Missing(t *testing.T) {
	t.Parallel()

	h := NewHistory(filepath.Join(t.TempDir(), "absent"))
	if err := h.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if h.Len() != 0 {
		t.Errorf("Len() = %d, want 0", h.Len())
	}
}

func TestHistory_InMemory(t *testing.T) {
	t.Parallel()

	h := NewHistory("")
	if err := h.Add("{{x}}", modeTemplate); err != nil {
		t.Fatal(err)
	}

	if got, _ := h.Get(0); got.Line != "{{x}}" {
		t.Errorf("Get(0) = %+v", got)
	}
}
