// Package history durably records completed transcription sessions.
// Each entry is a directory under the user's documents folder holding
// meta.json, the captured audio as FLAC, and the transcript text, a
// layout the user can browse in a file manager.
package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	"audioshift/encoder"
)

// MaxEntries is the retention cap; exceeding it evicts oldest-first.
const MaxEntries = 500

var (
	// ErrNotFound marks a delete of an id that no longer exists.
	ErrNotFound = errors.New("history entry not found")
	// ErrPersistence marks a storage failure (revoked permission, full
	// disk) as opposed to an empty history.
	ErrPersistence = errors.New("history storage unavailable")
)

// Entry is one completed session. Never mutated after creation.
type Entry struct {
	ID           string `json:"id"`
	Text         string `json:"text"`
	Timestamp    int64  `json:"timestamp"` // unix milliseconds
	AppName      string `json:"app_name,omitempty"`
	WindowTitle  string `json:"window_title,omitempty"`
	CharCount    int    `json:"char_count"`
	DurationMs   int64  `json:"duration_ms"`
	ProcessingMs int64  `json:"processing_time_ms"`
	ModelID      string `json:"model_id"`
	Language     string `json:"language,omitempty"`
	Translate    bool   `json:"translate"`
	DirPath      string `json:"dir_path,omitempty"`
}

type Store struct {
	baseDir string
}

// DefaultDir returns ~/Documents/AudioShift/Recordings, falling back to
// the home directory when the documents folder cannot be resolved.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, "Documents", "AudioShift", "Recordings")
}

func NewStore(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

// Append persists an entry with its audio artifact and evicts beyond
// the retention cap. The entry's ID, CharCount and DirPath are filled
// in here; pcm may be nil to skip the audio artifact.
func (s *Store) Append(e Entry, pcm []byte) (Entry, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if !validID(e.ID) {
		return Entry{}, fmt.Errorf("%w: bad entry id %q", ErrPersistence, e.ID)
	}
	e.CharCount = len([]rune(e.Text))

	// The entry is assembled in a hidden temp dir and renamed into
	// place, so List never sees a half-written entry.
	dir := filepath.Join(s.baseDir, e.ID)
	tmpDir := filepath.Join(s.baseDir, "."+e.ID+".tmp")
	if err := os.MkdirAll(tmpDir, 0o755); err != nil {
		return Entry{}, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	defer os.RemoveAll(tmpDir)
	e.DirPath = dir

	if pcm != nil {
		audioPath := filepath.Join(tmpDir, "audio.flac")
		f, err := os.Create(audioPath)
		if err != nil {
			return Entry{}, fmt.Errorf("%w: %v", ErrPersistence, err)
		}
		// EncodeFLAC closes f: the flac encoder closes its writer.
		if err := encoder.EncodeFLAC(f, pcm); err != nil {
			f.Close()
			return Entry{}, fmt.Errorf("encoding audio artifact: %w", err)
		}
	}

	if err := os.WriteFile(filepath.Join(tmpDir, "transcript.txt"), []byte(e.Text), 0o644); err != nil {
		return Entry{}, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	meta, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return Entry{}, err
	}
	if err := os.WriteFile(filepath.Join(tmpDir, "meta.json"), meta, 0o644); err != nil {
		return Entry{}, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	if err := os.Rename(tmpDir, dir); err != nil {
		return Entry{}, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	if err := s.evict(); err != nil {
		return Entry{}, err
	}
	return e, nil
}

// List returns all entries newest-first. A missing base directory is an
// empty history, not an error.
func (s *Store) List() ([]Entry, error) {
	dirs, err := os.ReadDir(s.baseDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	var entries []Entry
	for _, d := range dirs {
		if !d.IsDir() || strings.HasPrefix(d.Name(), ".") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.baseDir, d.Name(), "meta.json"))
		if err != nil {
			continue // stray dir or torn write; skip
		}
		var e Entry
		if err := json.Unmarshal(data, &e); err != nil {
			continue
		}
		entries = append(entries, e)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Timestamp > entries[j].Timestamp
	})
	return entries, nil
}

// validID rejects ids that would resolve outside the store root or
// collide with the hidden temp dirs Append uses.
func validID(id string) bool {
	return id != "" && !strings.HasPrefix(id, ".") &&
		!strings.ContainsAny(id, `/\`)
}

// Delete removes one entry and its artifacts.
func (s *Store) Delete(id string) error {
	if !validID(id) {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	dir := filepath.Join(s.baseDir, id)
	if _, err := os.Stat(dir); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return nil
}

// Clear removes every entry.
func (s *Store) Clear() error {
	dirs, err := os.ReadDir(s.baseDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	for _, d := range dirs {
		if d.IsDir() {
			if err := os.RemoveAll(filepath.Join(s.baseDir, d.Name())); err != nil {
				return fmt.Errorf("%w: %v", ErrPersistence, err)
			}
		}
	}
	return nil
}

// evict drops the oldest entries beyond MaxEntries.
func (s *Store) evict() error {
	entries, err := s.List()
	if err != nil {
		return err
	}
	for _, old := range entries[min(len(entries), MaxEntries):] {
		if err := os.RemoveAll(filepath.Join(s.baseDir, old.ID)); err != nil {
			return fmt.Errorf("%w: %v", ErrPersistence, err)
		}
	}
	return nil
}
