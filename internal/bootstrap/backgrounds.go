package bootstrap

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/samber/lo"

	"ambient-reader/internal/domain"
)

//go:embed assets/backgrounds/*.svg
var builtinBackgrounds embed.FS

const (
	builtinBackgroundsDir = "assets/backgrounds"
	seedMarker            = ".initialized"
)

// catalogExtensions are the files offered as backgrounds.
var catalogExtensions = []string{".jpg", ".jpeg", ".png", ".webp", ".svg"}

// backgroundSeeder writes the bundled backgrounds into the media directory.
type backgroundSeeder struct {
	assets    fs.FS
	stat      func(string) (os.FileInfo, error)
	mkdirAll  func(string, os.FileMode) error
	writeFile func(string, []byte, os.FileMode) error
}

func newBackgroundSeeder() *backgroundSeeder {
	return &backgroundSeeder{
		assets:    builtinBackgrounds,
		stat:      os.Stat,
		mkdirAll:  os.MkdirAll,
		writeFile: os.WriteFile,
	}
}

// Seed copies the bundled backgrounds into dir once. The marker file keeps
// later runs from restoring files the user deleted.
func (s *backgroundSeeder) Seed(dir string) error {
	if strings.TrimSpace(dir) == "" {
		return fmt.Errorf("backgrounds directory is empty")
	}
	marker := filepath.Join(dir, seedMarker)
	if _, err := s.stat(marker); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("check seed marker: %w", err)
	}

	if err := s.mkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create backgrounds directory: %w", err)
	}

	names, err := builtinBackgroundNames(s.assets)
	if err != nil {
		return err
	}
	for _, name := range names {
		data, err := fs.ReadFile(s.assets, path.Join(builtinBackgroundsDir, name))
		if err != nil {
			return fmt.Errorf("read bundled %s: %w", name, err)
		}
		if err := s.writeFile(filepath.Join(dir, name), data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}

	if err := s.writeFile(marker, nil, 0o644); err != nil {
		return fmt.Errorf("create seed marker: %w", err)
	}
	return nil
}

func builtinBackgroundNames(assets fs.FS) ([]string, error) {
	entries, err := fs.ReadDir(assets, builtinBackgroundsDir)
	if err != nil {
		return nil, fmt.Errorf("list bundled backgrounds: %w", err)
	}
	names := lo.FilterMap(entries, func(e fs.DirEntry, _ int) (string, bool) {
		return e.Name(), !e.IsDir()
	})
	sort.Strings(names)
	return names, nil
}

// listBackgrounds returns the image files in dir, bundled ones first and the
// rest by name. A missing directory is an empty catalog.
func listBackgrounds(dir string) []domain.BackgroundOption {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return []domain.BackgroundOption{}
	}

	bundled, _ := builtinBackgroundNames(builtinBackgrounds)
	options := make([]domain.BackgroundOption, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if !lo.Contains(catalogExtensions, ext) {
			continue
		}
		options = append(options, domain.BackgroundOption{
			Name:    strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name())),
			Path:    filepath.Join(dir, entry.Name()),
			Kind:    domain.ClassifyMedia(entry.Name()),
			Builtin: lo.Contains(bundled, entry.Name()),
		})
	}

	sort.SliceStable(options, func(i, j int) bool {
		if options[i].Builtin != options[j].Builtin {
			return options[i].Builtin
		}
		return options[i].Name < options[j].Name
	})
	return options
}

// ListBackgrounds returns the background images available to pick from.
func (a *App) ListBackgrounds() []domain.BackgroundOption {
	return listBackgrounds(a.paths.Backgrounds)
}
