package storage

import (
	"go.uber.org/zap"

	"ambient-reader/internal/config"
	"ambient-reader/internal/domain"
)

// Select picks the backend once at startup. Native storage is used only when
// every required diagnostic passed and the library database opens; anything
// else degrades to memory.
func Select(cfg config.AppConfig, report domain.DiagnosticReport, log *zap.Logger) *Backend {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.MemoryBackend {
		log.Info("memory backend forced by configuration")
		return NewMemoryBackend()
	}
	if !report.NativeUsable() {
		log.Warn("data directory unusable, falling back to memory backend")
		return NewMemoryBackend()
	}

	backend, err := OpenNative(cfg.Paths(), log)
	if err != nil {
		log.Warn("open native backend failed, falling back to memory backend", zap.Error(err))
		return NewMemoryBackend()
	}
	return backend
}

// OpenNative opens file and badger storage under paths.
func OpenNative(paths config.Paths, log *zap.Logger) (*Backend, error) {
	if log == nil {
		log = zap.NewNop()
	}
	library, err := OpenBadgerLibrary(paths.Library, log.Named("library"))
	if err != nil {
		return nil, err
	}
	return &Backend{
		Mode:        domain.BackendNative,
		Presets:     NewFilePresets(paths.Presets, log.Named("presets")),
		Preferences: config.NewJSONStore(paths.Preferences),
		Library:     library,
		closers:     []func() error{library.Close},
	}, nil
}
