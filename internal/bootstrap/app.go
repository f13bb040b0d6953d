package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"
	"go.uber.org/zap"

	"ambient-reader/internal/atmosphere"
	"ambient-reader/internal/config"
	"ambient-reader/internal/diagnostics"
	"ambient-reader/internal/domain"
	"ambient-reader/internal/events"
	"ambient-reader/internal/ingest"
	"ambient-reader/internal/library"
	"ambient-reader/internal/preset"
	"ambient-reader/internal/render"
	"ambient-reader/internal/session"
	"ambient-reader/internal/storage"

	wailsruntime "github.com/wailsapp/wails/v2/pkg/runtime"
)

// EventReader is the runtime event every bus message is pushed on.
const EventReader = "reader:event"

// Options customizes how the application talks to its shell.
type Options struct {
	// Assets are the embedded frontend files. Nil serves ./frontend.
	Assets fs.FS
	// InitialBook is opened once the frontend asks for it.
	InitialBook string
	// Emit replaces runtime.EventsEmit.
	Emit render.EmitFunc
	// Dialogs replaces the native pickers.
	Dialogs storage.Dialogs
}

// App wires configuration, storage, the reading session and UI runtime callbacks.
type App struct {
	cfg         config.AppConfig
	paths       config.Paths
	log         *zap.Logger
	assets      fs.FS
	emit        render.EmitFunc
	checker     *diagnostics.Checker
	seeder      *backgroundSeeder
	backend     *storage.Backend
	bus         *events.Bus
	bridge      *render.Bridge
	presets     *preset.Engine
	session     *session.Orchestrator
	dispatcher  *session.Dispatcher
	dialogs     storage.Dialogs
	initialBook string

	mu          sync.Mutex
	diagnostics domain.DiagnosticReport
	runtimeCtx  context.Context
	watcher     *storage.PresetWatcher
	stopWatch   context.CancelFunc
}

// New runs startup diagnostics, selects the storage backend and builds the
// reading session on top of it. Nothing here fails: an unusable data
// directory degrades to in-memory storage.
func New(cfg config.AppConfig, log *zap.Logger, opts Options) *App {
	if log == nil {
		log = zap.NewNop()
	}

	a := &App{
		cfg:         cfg,
		paths:       cfg.Paths(),
		log:         log,
		assets:      opts.Assets,
		emit:        opts.Emit,
		checker:     diagnostics.NewChecker(),
		seeder:      newBackgroundSeeder(),
		bus:         events.NewBus(1000),
		initialBook: strings.TrimSpace(opts.InitialBook),
	}
	if a.emit == nil {
		a.emit = wailsruntime.EventsEmit
	}
	a.dialogs = opts.Dialogs
	if a.dialogs == nil {
		a.dialogs = newWailsDialogs(a.runtimeContext)
	}

	report := a.checker.Run(a.paths)
	if err := a.seeder.Seed(a.paths.Backgrounds); err != nil {
		log.Warn("seed backgrounds failed", zap.Error(err))
	}
	a.backend = storage.Select(cfg, report, log.Named("storage"))
	report.Backend = a.backend.Mode
	a.diagnostics = report

	ctx := context.Background()
	prefs := config.LoadLive(ctx, a.backend.Preferences, log.Named("preferences"))

	a.bridge = render.NewBridge(a.emit, render.DefaultTimeout, log.Named("render"))
	layers := atmosphere.NewLayers(prefs.Get(), a.bridge, log.Named("atmosphere"))
	a.presets = preset.NewEngine(a.backend.Presets, layers, prefs, preset.Options{
		MediaRoot: a.paths.Media,
		CacheTTL:  cfg.PresetCacheTTL,
		Notifier:  a.bus,
		Log:       log.Named("presets"),
	})

	lib := library.NewStore(a.backend.Library, library.Options{
		CoversDir: a.paths.Covers,
		Enricher:  ingest.NewPipeline(a.paths.Covers, log.Named("ingest")),
		Log:       log.Named("library"),
	})
	progress := library.NewProgressRecorder(lib, cfg.ProgressDebounce, log.Named("progress"))

	a.session = session.NewOrchestrator(layers, prefs, a.presets, lib, progress, a.bridge, a.bus, session.Options{
		RecentLimit: cfg.RecentLimit,
		Diagnostics: report,
		Log:         log.Named("session"),
	})
	a.dispatcher = session.NewDispatcher(a.session)
	a.bridge.OnLocation(a.session.ReportLocation)

	log.Info("application ready",
		zap.String("data_dir", a.paths.Root),
		zap.String("backend", string(a.backend.Mode)),
		zap.Bool("diagnostic_failures", report.HasFailures),
	)
	return a
}

// Run starts the Wails desktop application and binds backend methods.
func (a *App) Run() error {
	assetOptions := &assetserver.Options{}
	if a.assets != nil {
		assetOptions.Assets = a.assets
	} else {
		assetOptions.Handler = http.FileServer(http.Dir("./frontend"))
	}

	return wails.Run(&options.App{
		Title:       "Ambient Reader",
		Width:       1280,
		Height:      820,
		AssetServer: assetOptions,
		OnStartup:   a.Startup,
		OnShutdown:  a.Shutdown,
		Bind:        []interface{}{a},
	})
}

// Startup stores the Wails runtime context, routes bus messages to the
// frontend and starts following preset edits.
func (a *App) Startup(ctx context.Context) {
	a.mu.Lock()
	a.runtimeCtx = ctx
	a.mu.Unlock()

	a.bridge.Attach(ctx)
	a.bus.SetSink(func(event events.Event) {
		a.emit(ctx, EventReader, event)
	})
	a.startPresetWatcher()
}

// Shutdown saves the session and releases storage.
func (a *App) Shutdown(ctx context.Context) {
	a.session.Shutdown(ctx)

	a.mu.Lock()
	watcher, stop := a.watcher, a.stopWatch
	a.watcher, a.stopWatch = nil, nil
	a.runtimeCtx = nil
	a.mu.Unlock()

	if stop != nil {
		stop()
	}
	if watcher != nil {
		if err := watcher.Stop(); err != nil {
			a.log.Warn("stop preset watcher failed", zap.Error(err))
		}
	}
	a.bus.SetSink(nil)
	if err := a.backend.Close(); err != nil {
		a.log.Warn("close storage failed", zap.Error(err))
	}
}

func (a *App) startPresetWatcher() {
	if !a.cfg.WatchPresets || a.backend.Mode != domain.BackendNative {
		return
	}

	watcher, err := storage.NewPresetWatcher(a.paths.Presets, 0, a.log.Named("watcher"))
	if err != nil {
		a.log.Warn("preset watcher unavailable", zap.Error(err))
		return
	}
	changes, err := watcher.Start()
	if err != nil {
		a.log.Warn("preset watcher unavailable", zap.Error(err))
		_ = watcher.Stop()
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	a.mu.Lock()
	a.watcher = watcher
	a.stopWatch = cancel
	a.mu.Unlock()

	go a.presets.Follow(ctx, changes, func() {
		a.bus.Publish(events.Event{Type: events.EventTypePresets, Message: "changed"})
	})
}

// Bootstrap restores the last session and returns the first frame's state.
func (a *App) Bootstrap() session.StartupState {
	return a.session.Bootstrap(a.context())
}

// PendingBook returns the book given on the command line, once.
func (a *App) PendingBook() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	path := a.initialBook
	a.initialBook = ""
	return path
}

// Library returns the recent books with their covers.
func (a *App) Library() []session.BookView {
	return a.session.Library(a.context())
}

// OpenBook opens a file in the reader.
func (a *App) OpenBook(path string) (session.OpenedBook, error) {
	return a.session.OpenBook(a.context(), path, domain.BookMeta{})
}

// PickAndOpenBook shows the EPUB picker and opens the choice. A dismissed
// dialog opens nothing and is not an error.
func (a *App) PickAndOpenBook() (*session.OpenedBook, error) {
	ctx := a.context()
	path, err := a.dialogs.PickBook(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrNoSelection) {
			return nil, nil
		}
		return nil, fmt.Errorf("pick book: %w", err)
	}
	opened, err := a.session.OpenBook(ctx, path, domain.BookMeta{})
	if err != nil {
		return nil, err
	}
	return &opened, nil
}

// CloseBook returns to the library.
func (a *App) CloseBook() []session.BookView {
	return a.session.CloseBook(a.context())
}

// RemoveBook forgets a library entry.
func (a *App) RemoveBook(id string) ([]session.BookView, error) {
	return a.session.RemoveBook(a.context(), id)
}

// ReadEpubFile returns the raw bytes of an EPUB file.
func (a *App) ReadEpubFile(path string) ([]byte, error) {
	path = strings.TrimSpace(path)
	if !strings.EqualFold(filepath.Ext(path), ".epub") {
		return nil, fmt.Errorf("not an epub file: %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read epub: %w", err)
	}
	return data, nil
}

// ResolveRender delivers the frontend's answer to a rendering request.
func (a *App) ResolveRender(reply render.Reply) {
	a.bridge.Resolve(reply)
}

// ReportLocation receives position changes from the document engine.
func (a *App) ReportLocation(token string, fraction float64) {
	a.bridge.ReportLocation(token, fraction)
}

// PlaybackFailed is reported by the frontend when an ambient track will not play.
func (a *App) PlaybackFailed(path string) {
	a.session.PlaybackFailed(path)
}

// Events returns all bus messages with sequence greater than sinceSeq.
func (a *App) Events(sinceSeq int64) []events.Event {
	return a.bus.Since(sinceSeq)
}

// GetDiagnostics returns the latest cached diagnostics report.
func (a *App) GetDiagnostics() domain.DiagnosticReport {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.diagnostics
}

// RefreshDiagnostics reruns the data directory checks. The backend chosen at
// startup is kept.
func (a *App) RefreshDiagnostics() domain.DiagnosticReport {
	report := a.checker.Run(a.paths)
	report.Backend = a.backend.Mode

	a.mu.Lock()
	a.diagnostics = report
	a.mu.Unlock()
	return report
}

// context returns the Wails runtime context, or a background context before
// startup and after shutdown.
func (a *App) context() context.Context {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.runtimeCtx == nil {
		return context.Background()
	}
	return a.runtimeCtx
}

// runtimeContext returns current Wails runtime context for dialog APIs.
func (a *App) runtimeContext() (context.Context, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.runtimeCtx == nil {
		return nil, fmt.Errorf("runtime context is not initialized")
	}
	return a.runtimeCtx, nil
}
