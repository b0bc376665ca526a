package history

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(t.TempDir())
}

func TestAppendAndList(t *testing.T) {
	s := newTestStore(t)

	pcm := make([]byte, 3200) // 100ms of silence
	e, err := s.Append(Entry{
		Text:       "hello world",
		Timestamp:  time.Now().UnixMilli(),
		AppName:    "Terminal",
		DurationMs: 1200,
		ModelID:    "parakeet-tdt-0.6b-v3",
	}, pcm)
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if e.ID == "" {
		t.Fatal("expected generated id")
	}
	if e.CharCount != 11 {
		t.Fatalf("CharCount = %d, want 11", e.CharCount)
	}
	audio, err := os.ReadFile(filepath.Join(e.DirPath, "audio.flac"))
	if err != nil {
		t.Fatalf("audio artifact missing: %v", err)
	}
	if len(audio) < 4 || string(audio[:4]) != "fLaC" {
		t.Fatal("audio artifact is not a flac stream")
	}
	if _, err := os.Stat(filepath.Join(e.DirPath, "transcript.txt")); err != nil {
		t.Fatalf("transcript missing: %v", err)
	}

	got, err := s.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 1 || got[0].Text != "hello world" {
		t.Fatalf("List = %+v, want the appended entry", got)
	}
}

func TestListNewestFirst(t *testing.T) {
	s := newTestStore(t)
	for i := 0; i < 3; i++ {
		_, err := s.Append(Entry{
			Text:      fmt.Sprintf("entry %d", i),
			Timestamp: int64(1000 + i),
		}, nil)
		if err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	got, err := s.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	if got[0].Text != "entry 2" || got[2].Text != "entry 0" {
		t.Fatalf("not newest-first: %q %q %q", got[0].Text, got[1].Text, got[2].Text)
	}
}

func TestListEmptyIsNotError(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "nonexistent"))
	got, err := s.List()
	if err != nil {
		t.Fatalf("List on missing dir: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty, got %d", len(got))
	}
}

func TestDelete(t *testing.T) {
	s := newTestStore(t)
	e, err := s.Append(Entry{Text: "bye", Timestamp: 1}, nil)
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := s.Delete(e.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	got, _ := s.List()
	if len(got) != 0 {
		t.Fatalf("entry survived delete")
	}
	if err := s.Delete(e.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second Delete err = %v, want ErrNotFound", err)
	}
}

func TestDeleteRejectsPathEscapes(t *testing.T) {
	root := t.TempDir()
	victim := filepath.Join(root, "victim")
	if err := os.MkdirAll(victim, 0o755); err != nil {
		t.Fatal(err)
	}
	s := NewStore(filepath.Join(root, "store"))

	for _, id := range []string{"../victim", "..", ".", "", "a/b", `a\b`, ".hidden"} {
		if err := s.Delete(id); !errors.Is(err, ErrNotFound) {
			t.Errorf("Delete(%q) err = %v, want ErrNotFound", id, err)
		}
	}
	if _, err := os.Stat(victim); err != nil {
		t.Fatal("delete escaped the store root")
	}
}

func TestClear(t *testing.T) {
	s := newTestStore(t)
	for i := 0; i < 5; i++ {
		if _, err := s.Append(Entry{Text: "x", Timestamp: int64(i)}, nil); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	if err := s.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	got, _ := s.List()
	if len(got) != 0 {
		t.Fatalf("Clear left %d entries", len(got))
	}
	// Clearing an already-empty store is fine.
	if err := s.Clear(); err != nil {
		t.Fatalf("Clear of empty store: %v", err)
	}
}

func TestRetentionEvictsOldest(t *testing.T) {
	s := newTestStore(t)
	for i := 0; i < MaxEntries+3; i++ {
		if _, err := s.Append(Entry{Text: fmt.Sprintf("e%d", i), Timestamp: int64(i)}, nil); err != nil {
			t.Fatalf("Append %d: %v", i, err)
		}
	}
	got, err := s.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != MaxEntries {
		t.Fatalf("len = %d, want %d", len(got), MaxEntries)
	}
	// Oldest three are gone; newest survives.
	if got[0].Text != fmt.Sprintf("e%d", MaxEntries+2) {
		t.Fatalf("newest = %q", got[0].Text)
	}
	oldest := got[len(got)-1]
	if oldest.Text != "e3" {
		t.Fatalf("oldest survivor = %q, want e3", oldest.Text)
	}
}
