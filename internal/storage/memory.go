package storage

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"ambient-reader/internal/domain"
)

// NewMemoryBackend builds a backend that keeps everything for the life of
// the process. Used when the data directory is not usable.
func NewMemoryBackend() *Backend {
	return &Backend{
		Mode:        domain.BackendMemory,
		Presets:     NewMemoryPresets(),
		Preferences: &MemoryPreferences{},
		Library:     NewMemoryLibrary(),
	}
}

// MemoryPresets is an in-process preset store. Listing keeps insertion order.
type MemoryPresets struct {
	mu      sync.RWMutex
	order   []string
	presets map[string]domain.Preset
}

// NewMemoryPresets creates an empty store.
func NewMemoryPresets() *MemoryPresets {
	return &MemoryPresets{presets: make(map[string]domain.Preset)}
}

func (m *MemoryPresets) ListPresetNames(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.order...), nil
}

func (m *MemoryPresets) LoadPreset(ctx context.Context, name string) (domain.Preset, error) {
	if err := ctx.Err(); err != nil {
		return domain.Preset{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.presets[strings.TrimSpace(name)]
	if !ok {
		return domain.Preset{}, fmt.Errorf("preset %q: %w", name, ErrNotFound)
	}
	return p, nil
}

func (m *MemoryPresets) SavePreset(ctx context.Context, preset domain.Preset) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.presets[preset.Name]; !exists {
		m.order = append(m.order, preset.Name)
	}
	m.presets[preset.Name] = preset
	return nil
}

func (m *MemoryPresets) DeletePreset(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	name = strings.TrimSpace(name)
	delete(m.presets, name)
	for i, n := range m.order {
		if n == name {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

// MemoryPreferences keeps the last written preferences in process.
type MemoryPreferences struct {
	mu    sync.RWMutex
	prefs *domain.Preferences
}

func (m *MemoryPreferences) GetPreferences(ctx context.Context) (domain.PreferencesLayer, error) {
	if err := ctx.Err(); err != nil {
		return domain.PreferencesLayer{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.prefs == nil {
		return domain.PreferencesLayer{}, nil
	}
	return layerOf(*m.prefs), nil
}

func (m *MemoryPreferences) SetPreferences(ctx context.Context, prefs domain.Preferences) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prefs = &prefs
	return nil
}

// layerOf marks every field of a full record as set.
func layerOf(p domain.Preferences) domain.PreferencesLayer {
	return domain.PreferencesLayer{
		FontFamily:       &p.FontFamily,
		FontSize:         &p.FontSize,
		LastPreset:       &p.LastPreset,
		LayoutFlow:       &p.LayoutFlow,
		TextColor:        &p.TextColor,
		ContainerColor:   &p.ContainerColor,
		ContainerOpacity: &p.ContainerOpacity,
		Glass:            &p.Glass,
		GlassBlur:        &p.GlassBlur,
		ScrollbarTrack:   &p.ScrollbarTrack,
		ScrollbarThumb:   &p.ScrollbarThumb,
		OverlayColor:     &p.OverlayColor,
		OverlayOpacity:   &p.OverlayOpacity,
		BgMediaPath:      &p.BgMediaPath,
		BgMediaMuted:     &p.BgMediaMuted,
		MusicPath:        &p.MusicPath,
		MusicVolume:      &p.MusicVolume,
		MusicMuted:       &p.MusicMuted,
		LastBookID:       &p.LastBookID,
	}
}

// MemoryLibrary is an in-process library.
type MemoryLibrary struct {
	mu      sync.RWMutex
	entries map[string]domain.LibraryEntry
}

// NewMemoryLibrary creates an empty library.
func NewMemoryLibrary() *MemoryLibrary {
	return &MemoryLibrary{entries: make(map[string]domain.LibraryEntry)}
}

func (m *MemoryLibrary) ListRecentBooks(ctx context.Context, limit int) ([]domain.LibraryEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, nil
	}
	m.mu.RLock()
	out := make([]domain.LibraryEntry, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e)
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].LastOpened.Equal(out[j].LastOpened) {
			return out[i].ID < out[j].ID
		}
		return out[i].LastOpened.After(out[j].LastOpened)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryLibrary) AddBook(ctx context.Context, entry domain.LibraryEntry) (domain.LibraryEntry, error) {
	if err := ctx.Err(); err != nil {
		return domain.LibraryEntry{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.entries[entry.ID]; ok {
		entry = mergeTouched(existing, entry)
	}
	m.entries[entry.ID] = entry
	return entry, nil
}

func (m *MemoryLibrary) GetBook(ctx context.Context, id string) (domain.LibraryEntry, error) {
	if err := ctx.Err(); err != nil {
		return domain.LibraryEntry{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[id]
	if !ok {
		return domain.LibraryEntry{}, fmt.Errorf("book %s: %w", id, ErrNotFound)
	}
	return e, nil
}

func (m *MemoryLibrary) UpdateProgress(ctx context.Context, update ProgressUpdate) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[update.ID]
	if !ok {
		return fmt.Errorf("book %s: %w", update.ID, ErrNotFound)
	}
	e.Progress = domain.ClampUnit(update.Fraction)
	e.LastLocation = update.Token
	if !update.At.IsZero() {
		e.LastOpened = update.At
	}
	m.entries[update.ID] = e
	return nil
}

func (m *MemoryLibrary) GetProgress(ctx context.Context, id string) (string, error) {
	e, err := m.GetBook(ctx, id)
	if err != nil {
		return "", err
	}
	return e.LastLocation, nil
}

func (m *MemoryLibrary) RemoveBook(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, id)
	return nil
}

// UnavailableDialogs is the picker side of a backend with no native window.
type UnavailableDialogs struct{}

func (UnavailableDialogs) PickBook(context.Context) (string, error)  { return "", ErrUnavailable }
func (UnavailableDialogs) PickMedia(context.Context) (string, error) { return "", ErrUnavailable }
func (UnavailableDialogs) PickAudio(context.Context) (string, error) { return "", ErrUnavailable }
