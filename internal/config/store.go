package config

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	"ambient-reader/internal/domain"
)

// Store defines persistence operations for the live preferences record.
type Store interface {
	GetPreferences(ctx context.Context) (domain.PreferencesLayer, error)
	SetPreferences(ctx context.Context, prefs domain.Preferences) error
}

// JSONStore persists preferences in a single JSON file on disk.
type JSONStore struct {
	path string
}

// NewJSONStore creates a JSON-backed preferences store.
func NewJSONStore(path string) *JSONStore {
	return &JSONStore{path: path}
}

// GetPreferences reads the stored layer. A missing file is an empty layer.
func (s *JSONStore) GetPreferences(ctx context.Context) (domain.PreferencesLayer, error) {
	if err := ctx.Err(); err != nil {
		return domain.PreferencesLayer{}, err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.PreferencesLayer{}, nil
		}
		return domain.PreferencesLayer{}, err
	}

	var layer domain.PreferencesLayer
	if err := json.Unmarshal(data, &layer); err != nil {
		return domain.PreferencesLayer{}, err
	}
	return layer, nil
}

// SetPreferences validates and writes preferences as indented JSON,
// replacing the file atomically.
func (s *JSONStore) SetPreferences(ctx context.Context, prefs domain.Preferences) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := Validate(prefs); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(prefs, "", "  ")
	if err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}
