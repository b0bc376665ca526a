// Package settings is the durable key-value store for user preferences:
// the live model selection, input device, paste mode and history toggle.
// Values persist as a single settings.json, written atomically.
package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Keys used by the rest of the app.
const (
	KeyLiveModel   = "liveModel"
	KeyFileModel   = "fileModel"
	KeyInputDevice = "inputDevice"
	KeyAutoPaste   = "autoPaste"
	KeySaveHistory = "saveHistory"
	KeyLanguage    = "transcriptionLanguage"
	KeyTranslate   = "translateToEnglish"
)

type Store struct {
	path string

	mu     sync.Mutex
	values map[string]json.RawMessage
}

// DefaultDir returns the per-user config directory for the app.
func DefaultDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "audioshift"), nil
}

// Open loads settings.json from dir, creating the directory if needed.
// A missing file is not an error, the store starts empty.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating settings directory: %w", err)
	}
	s := &Store{
		path:   filepath.Join(dir, "settings.json"),
		values: make(map[string]json.RawMessage),
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return nil, fmt.Errorf("reading settings: %w", err)
	}
	if err := json.Unmarshal(data, &s.values); err != nil {
		return nil, fmt.Errorf("parsing settings: %w", err)
	}
	return s, nil
}

func (s *Store) getString(key string) (string, bool) {
	raw, ok := s.values[key]
	if !ok {
		return "", false
	}
	var v string
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", false
	}
	return v, true
}

// GetString returns the stored value for key, or def when absent.
func (s *Store) GetString(key, def string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.getString(key); ok {
		return v
	}
	return def
}

// GetBool returns the stored value for key, or def when absent.
func (s *Store) GetBool(key string, def bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, ok := s.values[key]
	if !ok {
		return def
	}
	var v bool
	if err := json.Unmarshal(raw, &v); err != nil {
		return def
	}
	return v
}

// SetString stores and persists a string value.
func (s *Store) SetString(key, value string) error {
	return s.set(key, value)
}

// SetBool stores and persists a boolean value.
func (s *Store) SetBool(key string, value bool) error {
	return s.set(key, value)
}

func (s *Store) set(key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = raw
	return s.save()
}

// save writes to a temp file in the same directory so os.Rename is atomic.
func (s *Store) save() error {
	data, err := json.MarshalIndent(s.values, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to persist settings: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), "settings-*.json.tmp")
	if err != nil {
		return fmt.Errorf("failed to persist settings: %w", err)
	}
	tmpName := tmp.Name()

	defer func() {
		if err != nil {
			os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to persist settings: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to persist settings: %w", err)
	}
	if err = os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("failed to persist settings: %w", err)
	}
	return nil
}
