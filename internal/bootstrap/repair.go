package bootstrap

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"ambient-reader/internal/domain"
	"ambient-reader/internal/events"
)

// RepairDiagnostic applies the remediation for one failed diagnostic item
// and returns the refreshed report. Storage stays on the backend chosen at
// startup; a repaired data directory is used from the next launch.
func (a *App) RepairDiagnostic(itemID string) (domain.DiagnosticReport, error) {
	id := strings.TrimSpace(itemID)
	if id == "" {
		return a.GetDiagnostics(), fmt.Errorf("diagnostic item id is required")
	}

	var fixErr error
	switch id {
	case "data_dir":
		fixErr = repairDir(a.paths.Root)
	case "presets_dir":
		fixErr = repairDir(a.paths.Presets)
	case "library_dir":
		fixErr = repairDir(a.paths.Library)
	case "covers_dir":
		fixErr = repairDir(a.paths.Covers)
	case "media_dir":
		fixErr = a.reseedBackgrounds()
	default:
		return a.GetDiagnostics(), fmt.Errorf("unsupported diagnostic item id: %s", id)
	}

	report := a.RefreshDiagnostics()
	if fixErr != nil {
		a.log.Warn("repair diagnostic failed", zap.String("item", id), zap.Error(fixErr))
		return report, fmt.Errorf("repair %s: %w", id, fixErr)
	}

	if report.Backend == domain.BackendMemory && report.NativeUsable() && !a.cfg.MemoryBackend {
		a.bus.Notify(events.LevelInfo, "Data directory repaired. Restart to keep your changes.")
	}
	return report, nil
}

// repairDir recreates a directory and moves a file blocking it aside.
func repairDir(dir string) error {
	if strings.TrimSpace(dir) == "" {
		return fmt.Errorf("directory is not configured")
	}
	if info, err := os.Stat(dir); err == nil && !info.IsDir() {
		if err := os.Rename(dir, dir+".bak"); err != nil {
			return fmt.Errorf("move blocking file: %w", err)
		}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	return nil
}

// reseedBackgrounds restores the bundled backgrounds even after a previous seed.
func (a *App) reseedBackgrounds() error {
	if err := repairDir(a.paths.Backgrounds); err != nil {
		return err
	}
	marker := filepath.Join(a.paths.Backgrounds, seedMarker)
	if err := os.Remove(marker); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove seed marker: %w", err)
	}
	return a.seeder.Seed(a.paths.Backgrounds)
}
