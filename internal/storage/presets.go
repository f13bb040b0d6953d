package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"ambient-reader/internal/domain"
)

// FilePresets stores each preset as <dir>/<slug>.json. The display name lives
// inside the document.
type FilePresets struct {
	dir string
	log *zap.Logger
}

// NewFilePresets creates a file-backed preset store rooted at dir.
func NewFilePresets(dir string, log *zap.Logger) *FilePresets {
	if log == nil {
		log = zap.NewNop()
	}
	return &FilePresets{dir: dir, log: log}
}

// ListPresetNames returns stored preset names in file name order.
// Unreadable files are logged and skipped.
func (s *FilePresets) ListPresetNames(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read presets dir: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !isPresetFile(entry.Name()) {
			continue
		}
		name, err := s.readName(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			s.log.Warn("skip unreadable preset", zap.String("file", entry.Name()), zap.Error(err))
			continue
		}
		names = append(names, name)
	}
	return names, nil
}

// LoadPreset reads a preset by display name. Files whose stem is not the
// slug of their name, e.g. copied in by hand, are found by scanning.
func (s *FilePresets) LoadPreset(ctx context.Context, name string) (domain.Preset, error) {
	if err := ctx.Err(); err != nil {
		return domain.Preset{}, err
	}

	preset, err := s.readPreset(s.pathFor(name))
	if err == nil && preset.Name == strings.TrimSpace(name) {
		return preset, nil
	}
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return domain.Preset{}, err
	}

	path, found, scanErr := s.findByName(name)
	if scanErr != nil {
		return domain.Preset{}, scanErr
	}
	if !found {
		return domain.Preset{}, fmt.Errorf("preset %q: %w", name, ErrNotFound)
	}
	return s.readPreset(path)
}

// SavePreset writes a preset atomically. A preset keeps the file it was
// found in; a new name whose slug is taken by another preset gets a file of
// its own.
func (s *FilePresets) SavePreset(ctx context.Context, preset domain.Preset) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create presets dir: %w", err)
	}

	data, err := json.MarshalIndent(preset, "", "  ")
	if err != nil {
		return fmt.Errorf("encode preset: %w", err)
	}

	path, err := s.pathForSave(preset.Name)
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write preset: %w", err)
	}
	return os.Rename(tmp, path)
}

// DeletePreset removes a preset. Deleting a missing preset is not an error.
func (s *FilePresets) DeletePreset(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path, found, err := s.locate(name)
	if err != nil {
		return err
	}
	if !found {
		return nil
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete preset: %w", err)
	}
	return nil
}

func (s *FilePresets) pathFor(name string) string {
	return filepath.Join(s.dir, PresetSlug(name)+".json")
}

// locate finds the file holding the preset stored under name.
func (s *FilePresets) locate(name string) (string, bool, error) {
	name = strings.TrimSpace(name)
	path := s.pathFor(name)
	if stored, err := s.readName(path); err == nil && stored == name {
		return path, true, nil
	}
	return s.findByName(name)
}

// pathForSave picks the file a preset is written to. The slug file is only
// reused when it is free or already holds this name.
func (s *FilePresets) pathForSave(name string) (string, error) {
	name = strings.TrimSpace(name)
	existing, found, err := s.locate(name)
	if err != nil {
		return "", err
	}
	if found {
		return existing, nil
	}

	path := s.pathFor(name)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return path, nil
	}
	return filepath.Join(s.dir, PresetSlug(name)+"-"+presetNameSuffix(name)+".json"), nil
}

func (s *FilePresets) readPreset(path string) (domain.Preset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Preset{}, err
	}
	var preset domain.Preset
	if err := json.Unmarshal(data, &preset); err != nil {
		return domain.Preset{}, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	if preset.Name == "" {
		preset.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return preset, nil
}

// readName decodes only the name member.
func (s *FilePresets) readName(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	var head struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return "", err
	}
	if name := strings.TrimSpace(head.Name); name != "" {
		return name, nil
	}
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)), nil
}

func (s *FilePresets) findByName(name string) (string, bool, error) {
	name = strings.TrimSpace(name)
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("read presets dir: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !isPresetFile(entry.Name()) {
			continue
		}
		path := filepath.Join(s.dir, entry.Name())
		if stored, err := s.readName(path); err == nil && stored == name {
			return path, true, nil
		}
	}
	return "", false, nil
}

func isPresetFile(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".json")
}
