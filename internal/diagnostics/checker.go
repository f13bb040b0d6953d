package diagnostics

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"ambient-reader/internal/config"
	"ambient-reader/internal/domain"
)

// Checker validates the data directories the native backend writes to.
type Checker struct {
	stat       func(string) (os.FileInfo, error)
	mkdirAll   func(string, os.FileMode) error
	createTemp func(string, string) (*os.File, error)
	remove     func(string) error
}

// NewChecker builds a checker using real OS dependencies.
func NewChecker() *Checker {
	return &Checker{
		stat:       os.Stat,
		mkdirAll:   os.MkdirAll,
		createTemp: os.CreateTemp,
		remove:     os.Remove,
	}
}

// Run executes all startup checks and returns a combined report. Required
// items decide whether native storage may be used; the rest only degrade
// covers and bundled media.
func (c *Checker) Run(paths config.Paths) domain.DiagnosticReport {
	items := []domain.DiagnosticItem{
		c.checkWritableDir("data_dir", "Data directory", paths.Root, true),
		c.checkWritableDir("presets_dir", "Preset directory", paths.Presets, true),
		c.checkWritableDir("library_dir", "Library database", paths.Library, true),
		c.checkWritableDir("media_dir", "Background media", paths.Backgrounds, false),
		c.checkWritableDir("covers_dir", "Cover cache", paths.Covers, false),
	}

	hasFailures := false
	for _, item := range items {
		if item.Status == domain.DiagnosticStatusFail {
			hasFailures = true
			break
		}
	}

	return domain.DiagnosticReport{
		GeneratedAt: time.Now().UTC(),
		HasFailures: hasFailures,
		Items:       items,
	}
}

// checkWritableDir validates directory existence and write access.
func (c *Checker) checkWritableDir(id, name, dir string, required bool) domain.DiagnosticItem {
	item := domain.DiagnosticItem{
		ID:       id,
		Name:     name,
		Required: required,
	}

	if strings.TrimSpace(dir) == "" {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("%s is not configured.", name)
		item.Hint = "Set data_dir in the configuration file or AMBIENT_READER_DATA_DIR."
		return item
	}

	if info, err := c.stat(dir); err == nil && !info.IsDir() {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Not a directory: %s", dir)
		item.Hint = "Move the file out of the way or choose another data directory."
		return item
	}

	if err := c.mkdirAll(dir, 0o755); err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Cannot create directory: %s", dir)
		item.Hint = "Choose a writable location or adjust filesystem permissions."
		return item
	}

	tmpFile, err := c.createTemp(dir, ".write-check-*")
	if err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Directory is not writable: %s", dir)
		item.Hint = "Adjust permissions or choose another data directory."
		return item
	}

	tmpPath := tmpFile.Name()
	_ = tmpFile.Close()
	_ = c.remove(tmpPath)

	item.Status = domain.DiagnosticStatusPass
	item.Message = fmt.Sprintf("Writable directory: %s", dir)
	return item
}

// NewCheckerForTests creates checker with injectable dependencies.
func NewCheckerForTests(
	stat func(string) (os.FileInfo, error),
	mkdirAll func(string, os.FileMode) error,
	createTemp func(string, string) (*os.File, error),
	remove func(string) error,
) *Checker {
	return &Checker{
		stat:       stat,
		mkdirAll:   mkdirAll,
		createTemp: createTemp,
		remove:     remove,
	}
}

// IsNotExist reports whether error represents file-not-found.
func IsNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
