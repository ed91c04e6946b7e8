package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Preferences are the two persisted user toggles.
type Preferences struct {
	ShowReasoning bool `yaml:"show_reasoning"`
	DarkMode      bool `yaml:"dark_mode"`
}

// DefaultPreferences shows reasoning in a light theme.
func DefaultPreferences() Preferences {
	return Preferences{ShowReasoning: true, DarkMode: false}
}

// PreferenceStore reads and writes Preferences as YAML.
type PreferenceStore struct {
	path string
}

// NewPreferenceStore creates a store backed by the file at path.
func NewPreferenceStore(path string) *PreferenceStore {
	return &PreferenceStore{path: path}
}

// Path returns the backing file.
func (s *PreferenceStore) Path() string {
	return s.path
}

// Load returns the stored preferences. Keys missing from the file keep their defaults,
// and a missing file yields DefaultPreferences.
func (s *PreferenceStore) Load() (Preferences, error) {
	prefs := DefaultPreferences()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return prefs, nil
	}
	if err != nil {
		return prefs, fmt.Errorf("failed to read preferences %s: %w", s.path, err)
	}

	if err := yaml.Unmarshal(data, &prefs); err != nil {
		return DefaultPreferences(), fmt.Errorf("failed to parse preferences %s: %w", s.path, err)
	}
	return prefs, nil
}

// Save writes prefs, creating the directory when needed.
func (s *PreferenceStore) Save(prefs Preferences) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("failed to create preferences directory: %w", err)
	}

	data, err := yaml.Marshal(prefs)
	if err != nil {
		return fmt.Errorf("failed to encode preferences: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write preferences %s: %w", s.path, err)
	}
	return nil
}
