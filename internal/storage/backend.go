// Package storage is the persistence boundary. A Backend is selected once at
// startup and injected everywhere; callers never check which one they got.
package storage

import (
	"context"
	"errors"
	"time"

	"ambient-reader/internal/config"
	"ambient-reader/internal/domain"
)

// ErrUnavailable is returned by every operation of a backend with no native side.
var ErrUnavailable = errors.New("storage backend unavailable")

// ErrNotFound is returned when a preset or library entry does not exist.
var ErrNotFound = errors.New("not found")

// ErrNoSelection is returned when the user dismisses a picker dialog.
var ErrNoSelection = errors.New("no selection")

// PresetStore persists named presets.
type PresetStore interface {
	ListPresetNames(ctx context.Context) ([]string, error)
	LoadPreset(ctx context.Context, name string) (domain.Preset, error)
	SavePreset(ctx context.Context, preset domain.Preset) error
	DeletePreset(ctx context.Context, name string) error
}

// LibraryStore persists tracked books.
type LibraryStore interface {
	ListRecentBooks(ctx context.Context, limit int) ([]domain.LibraryEntry, error)
	// AddBook creates the entry or, when one exists for the same id, refreshes
	// its recency and fills metadata it lacks.
	AddBook(ctx context.Context, entry domain.LibraryEntry) (domain.LibraryEntry, error)
	GetBook(ctx context.Context, id string) (domain.LibraryEntry, error)
	UpdateProgress(ctx context.Context, update ProgressUpdate) error
	GetProgress(ctx context.Context, id string) (string, error)
	RemoveBook(ctx context.Context, id string) error
}

// ProgressUpdate is one persisted reading position.
type ProgressUpdate struct {
	ID       string
	Fraction float64
	Token    string
	At       time.Time
}

// Dialogs opens native pickers. Each returns ErrNoSelection on cancel.
type Dialogs interface {
	PickBook(ctx context.Context) (string, error)
	PickMedia(ctx context.Context) (string, error)
	PickAudio(ctx context.Context) (string, error)
}

// Backend bundles one implementation of every boundary.
type Backend struct {
	Mode        domain.BackendMode
	Presets     PresetStore
	Preferences config.Store
	Library     LibraryStore
	closers     []func() error
}

// Close releases native resources. Safe on a memory backend.
func (b *Backend) Close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	b.closers = nil
	return errors.Join(errs...)
}
