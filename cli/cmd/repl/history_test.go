package repl

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestHistory_WriteWithMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), baseHistory)
	h := NewHistory(path)

	for _, e := range []HistoryEntry{
		{"${today()}", modeEval},
		{"props", modeCtrl},
		{"${get([name])}", modeEval},
		{"${get([name])}", modeEval}, // repeated last entry
		{"${today()}", modeEval},     // moved to the end
		{"  ", modeEval},             // blank
		{"${today()}", modeCtrl},     // same line, other mode
	} {
		if err := h.WriteWithMode(e.Line, e.Mode); err != nil {
			t.Fatalf("WriteWithMode(%q) error: %v", e.Line, err)
		}
	}

	want := []HistoryEntry{
		{"props", modeCtrl},
		{"${get([name])}", modeEval},
		{"${today()}", modeEval},
		{"${today()}", modeCtrl},
	}

	if diff := cmp.Diff(want, h.Entries()); diff != "" {
		t.Errorf("Entries() mismatch (-want +got):\n%s", diff)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error: %v", err)
	}

	wantFile := "C:props\nE:${get([name])}\nE:${today()}\nC:${today()}\n"
	if string(data) != wantFile {
		t.Errorf("history file = %q, want %q", data, wantFile)
	}

	reloaded := NewHistory(path)
	if err := reloaded.Load(); err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if diff := cmp.Diff(want, reloaded.Entries()); diff != "" {
		t.Errorf("reloaded Entries() mismatch (-want +got):\n%s", diff)
	}
}

func TestHistory_Load(t *testing.T) {
	path := filepath.Join(t.TempDir(), baseHistory)

	content := "E:${a}\n\nC:quit\nunprefixed\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile() error: %v", err)
	}

	h := NewHistory(path)
	if err := h.Load(); err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	want := []HistoryEntry{
		{"${a}", modeEval},
		{"quit", modeCtrl},
		{"unprefixed", modeEval},
	}

	if diff := cmp.Diff(want, h.Entries()); diff != "" {
		t.Errorf("Entries() mismatch (-want +got):\n%s", diff)
	}
}

func TestHistory_LoadMissing(t *testing.T) {
	h := NewHistory(filepath.Join(t.TempDir(), "missing", baseHistory))
	if err := h.Load(); err != nil {
		t.Errorf("Load() of missing file error: %v", err)
	}

	if h.Len() != 0 {
		t.Errorf("Len() = %d, want 0", h.Len())
	}
}

func TestHistory_InMemory(t *testing.T) {
	h := NewHistory("")

	if err := h.Load(); err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if err := h.WriteWithMode("${x}", modeEval); err != nil {
		t.Fatalf("WriteWithMode() error: %v", err)
	}

	entry, err := h.Entry(0)
	if err != nil {
		t.Fatalf("Entry(0) error: %v", err)
	}

	if entry.Line != "${x}" || entry.Mode != modeEval {
		t.Errorf("Entry(0) = %+v, want ${x} in eval mode", entry)
	}

	if _, err := h.Entry(1); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("Entry(1) error = %v, want %v", err, ErrOutOfBounds)
	}

	if _, err := h.Entry(-1); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("Entry(-1) error = %v, want %v", err, ErrOutOfBounds)
	}
}
