// internal/prefs/prefs.go
//
// Small key/value preference store backed by a YAML file in the data directory.
// Responsibilities:
//   - Load preferences at startup (missing or unreadable file = defaults).
//   - Typed getters with caller-supplied defaults.
//   - Persist every change with a write-to-temp + rename so a crash never
//     leaves a half-written file behind.
//
// Known keys:
//   app_language  language code, default "en"
//   dark_mode     "true"/"false", default false

package prefs

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

const (
	KeyAppLanguage = "app_language"
	KeyDarkMode    = "dark_mode"

	DefaultLanguage = "en"
)

// Store holds preferences in memory and mirrors them to a YAML file.
type Store struct {
	path string

	mu     sync.RWMutex
	values map[string]string
}

// Open loads the preference file at path. A missing file yields an empty
// store; an unreadable or malformed one is logged and replaced on the next
// write.
func Open(path string) *Store {
	s := &Store{path: path, values: map[string]string{}}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return s
	case err != nil:
		log.Warn().Err(err).Str("path", path).Msg("preferences file unreadable, using defaults")
		return s
	}

	if err := yaml.Unmarshal(data, &s.values); err != nil || s.values == nil {
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("preferences file malformed, using defaults")
		}
		s.values = map[string]string{}
	}
	return s
}

// Path returns the backing file location.
func (s *Store) Path() string { return s.path }

// Get returns the stored value or def when the key is unset.
func (s *Store) Get(key, def string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.values[key]; ok {
		return v
	}
	return def
}

// GetBool parses the stored value as a bool; unset or unparsable yields def.
func (s *Store) GetBool(key string, def bool) bool {
	v := s.Get(key, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// Set stores value under key and writes the file.
// On a write failure the in-memory value is rolled back.
func (s *Store) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, had := s.values[key]
	s.values[key] = value
	if err := s.flush(); err != nil {
		if had {
			s.values[key] = prev
		} else {
			delete(s.values, key)
		}
		log.Error().Err(err).Str("key", key).Msg("save preference failed")
		return err
	}
	return nil
}

// SetBool stores a boolean preference.
func (s *Store) SetBool(key string, value bool) error {
	return s.Set(key, strconv.FormatBool(value))
}

// All returns a copy of every stored preference.
func (s *Store) All() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

// flush writes the values to disk. Callers hold mu.
func (s *Store) flush() error {
	data, err := yaml.Marshal(s.values)
	if err != nil {
		return fmt.Errorf("encode preferences: %w", err)
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".prefs-*.yaml")
	if err != nil {
		return fmt.Errorf("write preferences: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write preferences: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write preferences: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write preferences: %w", err)
	}
	return nil
}
