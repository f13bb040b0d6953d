// Package preset captures the live atmosphere into named, versioned presets
// and applies them back onto the state holders.
package preset

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"ambient-reader/internal/atmosphere"
	"ambient-reader/internal/config"
	"ambient-reader/internal/domain"
	"ambient-reader/internal/events"
	"ambient-reader/internal/storage"
)

var (
	// ErrUnknownPreset is returned when no preset has the requested name.
	ErrUnknownPreset = errors.New("unknown preset")
	// ErrBuiltinPreset is returned when a built-in preset would be changed.
	ErrBuiltinPreset = errors.New("built-in presets cannot be modified")
	// ErrInvalidName is returned for empty or reserved preset names.
	ErrInvalidName = errors.New("invalid preset name")
	// ErrRejectedPreset is returned when a preset references media that cannot be shown.
	ErrRejectedPreset = errors.New("preset rejected")
)

const listCacheKey = "list"

// Options tunes an Engine.
type Options struct {
	// MediaRoot resolves relative background and track paths.
	MediaRoot string
	CacheTTL  time.Duration
	Notifier  events.Notifier
	Log       *zap.Logger
}

// Engine lists, applies, captures and persists presets.
type Engine struct {
	store     storage.PresetStore
	layers    *atmosphere.Layers
	prefs     *config.Live
	cache     *gocache.Cache
	mediaRoot string
	notes     events.Notifier
	log       *zap.Logger
}

// NewEngine wires an engine to a preset store, the live layers and the live
// preferences record.
func NewEngine(store storage.PresetStore, layers *atmosphere.Layers, prefs *config.Live, opts Options) *Engine {
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 10 * time.Minute
	}
	if opts.Notifier == nil {
		opts.Notifier = events.Discard{}
	}
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	return &Engine{
		store:     store,
		layers:    layers,
		prefs:     prefs,
		cache:     gocache.New(opts.CacheTTL, 2*opts.CacheTTL),
		mediaRoot: opts.MediaRoot,
		notes:     opts.Notifier,
		log:       opts.Log,
	}
}

// List returns user presets in store order followed by the built-ins. The
// session snapshot and unreadable presets are left out.
func (e *Engine) List(ctx context.Context) []domain.Preset {
	if cached, ok := e.cache.Get(listCacheKey); ok {
		if presets, ok := cached.([]domain.Preset); ok {
			return append([]domain.Preset(nil), presets...)
		}
	}

	names, err := e.store.ListPresetNames(ctx)
	if err != nil {
		e.logStoreError("list presets failed", err)
		names = nil
	}

	out := make([]domain.Preset, 0, len(names)+len(builtinOrder))
	for _, name := range lo.Uniq(names) {
		if name == domain.SessionPresetName || IsBuiltin(name) {
			continue
		}
		p, err := e.load(ctx, name)
		if err != nil {
			e.log.Warn("skip preset", zap.String("preset", name), zap.Error(err))
			continue
		}
		out = append(out, p)
	}
	out = append(out, Builtins()...)

	e.cache.SetDefault(listCacheKey, out)
	return append([]domain.Preset(nil), out...)
}

// Get returns one preset, from the built-ins, the cache or the store.
func (e *Engine) Get(ctx context.Context, name string) (domain.Preset, error) {
	name = strings.TrimSpace(name)
	if p, ok := builtin(name); ok {
		return p, nil
	}
	return e.load(ctx, name)
}

// Apply looks up a preset and pushes it onto the layers: background, then
// overlay, then reader, then ambient audio. Unset fields are left alone. An
// unknown or unusable preset changes nothing and returns false.
func (e *Engine) Apply(ctx context.Context, name string) bool {
	p, err := e.Get(ctx, name)
	if err != nil {
		e.log.Warn("apply preset failed", zap.String("preset", name), zap.Error(err))
		e.notes.Notify(events.LevelWarning, fmt.Sprintf("Preset %q not found", name))
		return false
	}
	if err := e.ApplyPreset(p); err != nil {
		e.log.Warn("apply preset rejected", zap.String("preset", name), zap.Error(err))
		e.notes.Notify(events.LevelWarning, fmt.Sprintf("Preset %q could not be applied", name))
		return false
	}
	return true
}

// ApplyPreset pushes an already loaded preset onto the layers and syncs the
// live preferences from the result.
func (e *Engine) ApplyPreset(p domain.Preset) error {
	if err := e.check(p); err != nil {
		return err
	}

	if bg := p.Background; bg != nil {
		if bg.Muted != nil {
			e.layers.Background.SetMediaMuted(*bg.Muted)
		}
		switch {
		case bg.Kind == domain.MediaNone:
			e.layers.Background.ClearMedia()
		case bg.Path != nil && strings.TrimSpace(*bg.Path) != "":
			e.layers.Background.SetMedia(e.resolveMedia(*bg.Path))
		}
	}

	e.layers.Overlay.Apply(p.Overlay)
	e.layers.Reader.Apply(p.Reader)

	if a := p.Audio; a != nil {
		if a.Volume != nil {
			e.layers.Background.SetVolume(*a.Volume)
		}
		if a.Muted != nil {
			e.layers.Background.SetTrackMuted(*a.Muted)
		}
		if a.Path != nil {
			if strings.TrimSpace(*a.Path) == "" {
				e.layers.Background.ClearTrack()
			} else {
				e.layers.Background.SetTrack(e.resolveMedia(*a.Path))
			}
		}
	}

	snapshot := e.layers.Snapshot()
	e.prefs.Update(func(prefs *domain.Preferences) {
		prefs.SetAtmosphere(snapshot)
		if p.Name != domain.SessionPresetName {
			prefs.LastPreset = p.Name
		}
	})
	return nil
}

// Capture reads the live layers into a new preset. Nothing is persisted.
func (e *Engine) Capture(name string) domain.Preset {
	snap := e.layers.Snapshot()

	bg := &domain.BackgroundConfig{
		Kind:  snap.Background.MediaKind,
		Muted: lo.ToPtr(snap.Background.MediaMuted),
	}
	if snap.Background.MediaPath != "" {
		bg.Path = lo.ToPtr(snap.Background.MediaPath)
	}

	return domain.Preset{
		Version:    domain.PresetSchemaVersion,
		Name:       strings.TrimSpace(name),
		Background: bg,
		Overlay: &domain.OverlayConfig{
			Color:   lo.ToPtr(snap.Overlay.Color),
			Opacity: lo.ToPtr(snap.Overlay.Opacity),
		},
		Reader: snap.Reader.Config(),
		Audio: &domain.AudioConfig{
			Path:   lo.ToPtr(snap.Background.TrackPath),
			Volume: lo.ToPtr(snap.Background.TrackVolume),
			Muted:  lo.ToPtr(snap.Background.TrackMuted),
		},
	}
}

// SaveNamed captures and persists the live atmosphere under name. Failures
// surface as notices and are returned.
func (e *Engine) SaveNamed(ctx context.Context, name string) (domain.Preset, error) {
	name = strings.TrimSpace(name)
	switch {
	case name == "" || isSessionName(name):
		e.notes.Notify(events.LevelWarning, "Please enter a preset name")
		return domain.Preset{}, fmt.Errorf("%w: %q", ErrInvalidName, name)
	case IsBuiltin(name):
		e.notes.Notify(events.LevelWarning, fmt.Sprintf("%q is a built-in preset", name))
		return domain.Preset{}, fmt.Errorf("%w: %q", ErrBuiltinPreset, name)
	}

	p := e.Capture(name)
	if err := e.store.SavePreset(ctx, p); err != nil {
		e.log.Warn("save preset failed", zap.String("preset", name), zap.Error(err))
		e.notes.Notify(events.LevelError, "Failed to save preset")
		return domain.Preset{}, fmt.Errorf("save preset %q: %w", name, err)
	}

	e.Invalidate()
	e.prefs.Update(func(prefs *domain.Preferences) { prefs.LastPreset = name })
	e.notes.Notify(events.LevelInfo, fmt.Sprintf("Preset %q saved", name))
	return p, nil
}

// SaveSession writes the reserved session snapshot. Best effort and silent.
func (e *Engine) SaveSession(ctx context.Context) {
	p := e.Capture(domain.SessionPresetName)
	if err := e.store.SavePreset(ctx, p); err != nil {
		e.log.Debug("save session snapshot failed", zap.Error(err))
		return
	}
	e.cache.Delete(presetCacheKey(domain.SessionPresetName))
}

// Session loads the session snapshot, if one exists.
func (e *Engine) Session(ctx context.Context) (domain.Preset, bool) {
	p, err := e.load(ctx, domain.SessionPresetName)
	if err != nil {
		if !errors.Is(err, ErrUnknownPreset) {
			e.logStoreError("load session snapshot failed", err)
		}
		return domain.Preset{}, false
	}
	return p, true
}

// Delete removes a user preset. Built-ins are refused with a notice.
func (e *Engine) Delete(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if IsBuiltin(name) {
		e.notes.Notify(events.LevelWarning, "Cannot delete built-in preset")
		return fmt.Errorf("%w: %q", ErrBuiltinPreset, name)
	}
	if name == "" || isSessionName(name) {
		e.notes.Notify(events.LevelWarning, "Please choose a preset to delete")
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}

	if err := e.store.DeletePreset(ctx, name); err != nil {
		e.log.Warn("delete preset failed", zap.String("preset", name), zap.Error(err))
		e.notes.Notify(events.LevelError, "Failed to delete preset")
		return fmt.Errorf("delete preset %q: %w", name, err)
	}

	e.Invalidate()
	e.prefs.Update(func(prefs *domain.Preferences) {
		if prefs.LastPreset == name {
			prefs.LastPreset = ""
		}
	})
	e.notes.Notify(events.LevelInfo, fmt.Sprintf("Preset %q deleted", name))
	return nil
}

// Invalidate drops every cached preset and listing.
func (e *Engine) Invalidate() {
	e.cache.Flush()
}

// Follow invalidates the cache whenever changes signals, until ctx ends.
func (e *Engine) Follow(ctx context.Context, changes <-chan struct{}, onChange func()) {
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-changes:
			if !ok {
				return
			}
			e.Invalidate()
			e.log.Debug("preset directory changed")
			if onChange != nil {
				onChange()
			}
		}
	}
}

// load reads a stored preset through the cache.
func (e *Engine) load(ctx context.Context, name string) (domain.Preset, error) {
	key := presetCacheKey(name)
	if cached, ok := e.cache.Get(key); ok {
		if p, ok := cached.(domain.Preset); ok {
			return p, nil
		}
	}

	p, err := e.store.LoadPreset(ctx, name)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return domain.Preset{}, fmt.Errorf("%w: %q", ErrUnknownPreset, name)
		}
		return domain.Preset{}, err
	}
	if err := p.CheckVersion(); err != nil {
		return domain.Preset{}, err
	}

	e.cache.SetDefault(key, p)
	return p, nil
}

// check rejects presets whose media cannot be shown, before anything changes.
func (e *Engine) check(p domain.Preset) error {
	if bg := p.Background; bg != nil && bg.Kind != domain.MediaNone {
		if bg.Kind == domain.MediaUnsupported {
			return fmt.Errorf("%w: unsupported background type", ErrRejectedPreset)
		}
		if bg.Path != nil && strings.TrimSpace(*bg.Path) != "" {
			kind := domain.ClassifyMedia(*bg.Path)
			if kind != domain.MediaImage && kind != domain.MediaMotion {
				return fmt.Errorf("%w: unsupported background %q", ErrRejectedPreset, *bg.Path)
			}
		}
	}
	if a := p.Audio; a != nil && a.Path != nil && strings.TrimSpace(*a.Path) != "" {
		if !domain.IsAudioTrack(*a.Path) {
			return fmt.Errorf("%w: unsupported ambient track %q", ErrRejectedPreset, *a.Path)
		}
	}
	return nil
}

func (e *Engine) resolveMedia(path string) string {
	path = strings.TrimSpace(path)
	if path == "" || filepath.IsAbs(path) || e.mediaRoot == "" {
		return path
	}
	return filepath.Join(e.mediaRoot, filepath.FromSlash(path))
}

// logStoreError keeps an absent backend quiet.
func (e *Engine) logStoreError(msg string, err error) {
	if errors.Is(err, storage.ErrUnavailable) {
		e.log.Debug(msg, zap.Error(err))
		return
	}
	e.log.Warn(msg, zap.Error(err))
}

func presetCacheKey(name string) string {
	return "preset:" + name
}

// isSessionName reports whether name would land on the session snapshot's file.
func isSessionName(name string) bool {
	return name == domain.SessionPresetName ||
		storage.PresetSlug(name) == storage.PresetSlug(domain.SessionPresetName)
}
