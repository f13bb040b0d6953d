// Package session ties the atmosphere, presets, library and rendition into a
// running reading session: startup restore, opening and closing books,
// layout changes and user commands.
package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"ambient-reader/internal/atmosphere"
	"ambient-reader/internal/config"
	"ambient-reader/internal/domain"
	"ambient-reader/internal/events"
	"ambient-reader/internal/library"
	"ambient-reader/internal/preset"
	"ambient-reader/internal/render"
)

// ViewLibrary is the view shown after startup.
const ViewLibrary = "library"

// DefaultRecentLimit is how many books the library view loads.
const DefaultRecentLimit = 50

// BookView is a library entry with the cover the view should paint.
type BookView struct {
	domain.LibraryEntry
	Cover domain.CoverView `json:"cover"`
}

// StartupState is everything the window needs for its first frame.
type StartupState struct {
	Preferences     domain.Preferences      `json:"preferences"`
	Atmosphere      domain.Atmosphere       `json:"atmosphere"`
	Presets         []domain.Preset         `json:"presets"`
	Recent          []BookView              `json:"recent"`
	View            string                  `json:"view"`
	RestoredSession bool                    `json:"restoredSession"`
	Diagnostics     domain.DiagnosticReport `json:"diagnostics"`
}

// OpenedBook describes a book that is now being read.
type OpenedBook struct {
	Entry   domain.LibraryEntry `json:"entry"`
	Info    domain.DocumentInfo `json:"info"`
	TOC     []domain.TOCItem    `json:"toc"`
	Resumed bool                `json:"resumed"`
}

// Options tunes an Orchestrator.
type Options struct {
	RecentLimit int
	Diagnostics domain.DiagnosticReport
	ReadFile    func(name string) ([]byte, error)
	Log         *zap.Logger
}

// Orchestrator owns the session lifecycle. It is the only place that knows
// which book is open, and so the only link between library and atmosphere.
type Orchestrator struct {
	layers    *atmosphere.Layers
	prefs     *config.Live
	presets   *preset.Engine
	library   *library.Store
	progress  *library.ProgressRecorder
	rendition render.Rendition
	flow      *FlowMachine
	bus       *events.Bus
	log       *zap.Logger

	recentLimit int
	diagnostics domain.DiagnosticReport
	readFile    func(name string) ([]byte, error)

	mu          sync.Mutex
	currentBook string
	reading     bool
}

// NewOrchestrator wires a session from its collaborators.
func NewOrchestrator(
	layers *atmosphere.Layers,
	prefs *config.Live,
	presets *preset.Engine,
	lib *library.Store,
	progress *library.ProgressRecorder,
	rendition render.Rendition,
	bus *events.Bus,
	opts Options,
) *Orchestrator {
	if opts.RecentLimit <= 0 {
		opts.RecentLimit = DefaultRecentLimit
	}
	if opts.ReadFile == nil {
		opts.ReadFile = os.ReadFile
	}
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	if bus == nil {
		bus = events.NewBus(0)
	}
	return &Orchestrator{
		layers:      layers,
		prefs:       prefs,
		presets:     presets,
		library:     lib,
		progress:    progress,
		rendition:   rendition,
		flow:        NewFlowMachine(rendition, layers.Reader, prefs, opts.Log.Named("flow")),
		bus:         bus,
		log:         opts.Log,
		recentLimit: opts.RecentLimit,
		diagnostics: opts.Diagnostics,
		readFile:    opts.ReadFile,
	}
}

// Flow returns the layout state machine.
func (o *Orchestrator) Flow() *FlowMachine {
	return o.flow
}

// Bootstrap restores the last session and prepares the library view. Stored
// preferences are pushed onto the layers first and the session snapshot is
// applied over them, so the snapshot wins where it sets a field. Nothing here
// fails the startup.
func (o *Orchestrator) Bootstrap(ctx context.Context) StartupState {
	if err := o.prefs.Reload(ctx); err != nil {
		o.log.Warn("using default preferences", zap.Error(err))
	}

	presets := o.presets.List(ctx)

	o.layers.Restore(o.prefs.Get())
	restored := false
	if snapshot, ok := o.presets.Session(ctx); ok {
		if err := o.presets.ApplyPreset(snapshot); err != nil {
			o.log.Warn("session snapshot rejected", zap.Error(err))
		} else {
			restored = true
		}
	}
	o.syncPreferences()

	o.log.Info("session restored",
		zap.Bool("snapshot", restored),
		zap.Int("presets", len(presets)),
		zap.String("backend", string(o.diagnostics.Backend)),
	)

	return StartupState{
		Preferences:     o.prefs.Get(),
		Atmosphere:      o.layers.Snapshot(),
		Presets:         presets,
		Recent:          o.Library(ctx),
		View:            ViewLibrary,
		RestoredSession: restored,
		Diagnostics:     o.diagnostics,
	}
}

// Library returns the recent books with their covers resolved.
func (o *Orchestrator) Library(ctx context.Context) []BookView {
	entries := o.library.LoadRecent(ctx, o.recentLimit)
	return lo.Map(entries, func(e domain.LibraryEntry, _ int) BookView {
		return BookView{LibraryEntry: e, Cover: o.library.Cover(e)}
	})
}

// OpenBook loads a file into the rendition and resumes where the reader left
// off. A library failure does not stop the book from opening.
func (o *Orchestrator) OpenBook(ctx context.Context, path string, meta domain.BookMeta) (OpenedBook, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		o.bus.Notify(events.LevelWarning, "No book selected")
		return OpenedBook{}, errors.New("book path is required")
	}
	if o.isReading() {
		o.CloseBook(ctx)
	}

	data, err := o.readFile(path)
	if err != nil {
		o.log.Warn("read book failed", zap.String("path", path), zap.Error(err))
		o.bus.Notify(events.LevelError, "Failed to open book")
		return OpenedBook{}, fmt.Errorf("read book: %w", err)
	}

	info, err := o.rendition.Open(ctx, data)
	if err != nil {
		o.log.Warn("open book failed", zap.String("path", path), zap.Error(err))
		o.bus.Notify(events.LevelError, "Failed to open book")
		return OpenedBook{}, fmt.Errorf("open book: %w", err)
	}
	meta.Title = lo.Ternary(meta.Title != "", meta.Title, info.Title)
	meta.Author = lo.Ternary(meta.Author != "", meta.Author, info.Author)

	entry, err := o.library.AddOrTouch(ctx, path, meta)
	if err != nil {
		o.bus.Notify(events.LevelWarning, "Book could not be added to the library")
		entry = domain.LibraryEntry{Title: meta.Title, Author: meta.Author, FilePath: path}
	}

	appearance := o.layers.Reader.Appearance()
	if err := o.rendition.Create(ctx, appearance.LayoutFlow); err != nil {
		o.log.Warn("create rendition failed", zap.Error(err))
		o.bus.Notify(events.LevelError, "Failed to open book")
		return OpenedBook{}, fmt.Errorf("create rendition: %w", err)
	}
	if err := o.rendition.SetTypography(ctx, appearance); err != nil {
		o.log.Warn("apply typography failed", zap.Error(err))
	}

	resumed := false
	if token, ok := o.library.GetProgress(ctx, entry.ID); ok {
		if err := o.rendition.RenderAt(ctx, token); err != nil {
			o.log.Warn("stored position no longer resolves, showing start",
				zap.String("id", entry.ID), zap.Error(err))
		} else {
			resumed = true
		}
	}
	if !resumed {
		if err := o.rendition.RenderAt(ctx, ""); err != nil {
			o.log.Warn("render start failed", zap.Error(err))
		}
	}

	o.mu.Lock()
	o.currentBook = entry.ID
	o.reading = true
	o.mu.Unlock()

	if entry.ID != "" {
		o.prefs.Update(func(p *domain.Preferences) { p.LastBookID = entry.ID })
		_ = o.prefs.Flush(ctx)
	}
	o.bus.Publish(events.Event{Type: events.EventTypeLibrary, BookID: entry.ID, Message: "opened"})

	return OpenedBook{
		Entry:   entry,
		Info:    info,
		TOC:     o.rendition.TableOfContents(),
		Resumed: resumed,
	}, nil
}

// CloseBook writes pending progress, tears the rendition down and returns
// the refreshed library.
func (o *Orchestrator) CloseBook(ctx context.Context) []BookView {
	o.mu.Lock()
	id := o.currentBook
	o.currentBook = ""
	o.reading = false
	o.mu.Unlock()

	if err := o.progress.Flush(ctx); err != nil {
		o.bus.Notify(events.LevelWarning, "Reading position could not be saved")
	}
	if err := o.rendition.Close(ctx); err != nil {
		o.log.Warn("close rendition failed", zap.Error(err))
	}
	o.bus.Publish(events.Event{Type: events.EventTypeLibrary, BookID: id, Message: "closed"})
	return o.Library(ctx)
}

// RemoveBook deletes a library entry, closing it first if it is open.
func (o *Orchestrator) RemoveBook(ctx context.Context, id string) ([]BookView, error) {
	if o.CurrentBook() == id && id != "" {
		o.CloseBook(ctx)
	}
	if err := o.library.Remove(ctx, id); err != nil {
		o.log.Warn("remove book failed", zap.String("id", id), zap.Error(err))
		o.bus.Notify(events.LevelError, "Failed to remove book")
		return o.Library(ctx), err
	}
	o.bus.Publish(events.Event{Type: events.EventTypeLibrary, BookID: id, Message: "removed"})
	return o.Library(ctx), nil
}

// ReportLocation feeds a navigation event for the open book into the
// debounced progress writer.
func (o *Orchestrator) ReportLocation(token string, fraction float64) {
	o.progress.Record(o.CurrentBook(), token, fraction)
}

// PlaybackFailed records that the frontend could not start the ambient
// track. The track stays selected; unmuting retries playback.
func (o *Orchestrator) PlaybackFailed(path string) {
	o.layers.Background.PlaybackFailed(path)
}

// CurrentBook returns the id of the open book, empty when none is tracked.
func (o *Orchestrator) CurrentBook() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.currentBook
}

// Shutdown saves what it can: pending progress, the session snapshot and the
// preferences. It never fails.
func (o *Orchestrator) Shutdown(ctx context.Context) {
	if err := o.progress.Flush(ctx); err != nil {
		o.log.Warn("flush progress on shutdown failed", zap.Error(err))
	}
	o.syncPreferences()
	o.presets.SaveSession(ctx)
	if err := o.prefs.Flush(ctx); err != nil {
		o.log.Warn("flush preferences on shutdown failed", zap.Error(err))
	}
}

func (o *Orchestrator) isReading() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.reading
}

// syncPreferences copies the live layers into the preferences record.
func (o *Orchestrator) syncPreferences() domain.Preferences {
	snapshot := o.layers.Snapshot()
	return o.prefs.Update(func(p *domain.Preferences) { p.SetAtmosphere(snapshot) })
}
