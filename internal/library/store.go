// Package library tracks known books, their reading position and recency.
package library

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"ambient-reader/internal/domain"
	"ambient-reader/internal/storage"
)

// Enricher fills in metadata for a book seen for the first time, e.g. by
// reading its container for a title and cover.
type Enricher interface {
	Enrich(ctx context.Context, id, path string, meta domain.BookMeta) domain.BookMeta
}

// Options tunes a Store.
type Options struct {
	// CoversDir holds extracted cover files. Only files under it are removed
	// with their entry.
	CoversDir string
	Enricher  Enricher
	Now       func() time.Time
	Log       *zap.Logger
}

// Store is the library facade over a storage backend. Read failures degrade
// to empty results; write failures are returned for the caller to surface.
type Store struct {
	backend   storage.LibraryStore
	coversDir string
	enricher  Enricher
	now       func() time.Time
	log       *zap.Logger
}

// NewStore creates a library store.
func NewStore(backend storage.LibraryStore, opts Options) *Store {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	return &Store{
		backend:   backend,
		coversDir: opts.CoversDir,
		enricher:  opts.Enricher,
		now:       opts.Now,
		log:       opts.Log,
	}
}

// LoadRecent returns up to limit entries, most recently opened first.
func (s *Store) LoadRecent(ctx context.Context, limit int) []domain.LibraryEntry {
	entries, err := s.backend.ListRecentBooks(ctx, limit)
	if err != nil {
		s.log.Warn("load recent books failed", zap.Error(err))
		return []domain.LibraryEntry{}
	}
	if entries == nil {
		return []domain.LibraryEntry{}
	}
	return entries
}

// AddOrTouch refreshes recency for a known file or creates its entry.
func (s *Store) AddOrTouch(ctx context.Context, path string, meta domain.BookMeta) (domain.LibraryEntry, error) {
	canonical := storage.CanonicalPath(path)
	if canonical == "" {
		return domain.LibraryEntry{}, errors.New("book path is required")
	}
	id := storage.EntryID(canonical)

	if s.enricher != nil {
		if existing, err := s.backend.GetBook(ctx, id); errors.Is(err, storage.ErrNotFound) || (err == nil && existing.CoverRef == "") {
			meta = s.enricher.Enrich(ctx, id, canonical, meta)
		}
	}

	entry := domain.LibraryEntry{
		ID:            id,
		Title:         strings.TrimSpace(meta.Title),
		Author:        strings.TrimSpace(meta.Author),
		FilePath:      canonical,
		CoverRef:      meta.CoverRef,
		CoverBlurHash: meta.CoverBlurHash,
		LastOpened:    s.now().UTC(),
	}
	if entry.Title == "" {
		entry.Title = strings.TrimSuffix(filepath.Base(canonical), filepath.Ext(canonical))
	}

	stored, err := s.backend.AddBook(ctx, entry)
	if err != nil {
		s.log.Warn("add book failed", zap.String("path", canonical), zap.Error(err))
		return domain.LibraryEntry{}, fmt.Errorf("add book: %w", err)
	}
	return stored, nil
}

// RecordProgress stores a position for an entry. An empty id is a no-op:
// not every open document is tracked.
func (s *Store) RecordProgress(ctx context.Context, id, token string, fraction float64) error {
	if strings.TrimSpace(id) == "" {
		return nil
	}
	err := s.backend.UpdateProgress(ctx, storage.ProgressUpdate{
		ID:       id,
		Fraction: domain.ClampUnit(fraction),
		Token:    token,
		At:       s.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("record progress: %w", err)
	}
	return nil
}

// GetProgress returns the stored resume token for an entry.
func (s *Store) GetProgress(ctx context.Context, id string) (string, bool) {
	if strings.TrimSpace(id) == "" {
		return "", false
	}
	token, err := s.backend.GetProgress(ctx, id)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.log.Warn("get progress failed", zap.String("id", id), zap.Error(err))
		}
		return "", false
	}
	return token, token != ""
}

// Get returns one entry.
func (s *Store) Get(ctx context.Context, id string) (domain.LibraryEntry, error) {
	return s.backend.GetBook(ctx, id)
}

// Remove deletes an entry and its extracted cover. Removing an absent
// entry succeeds.
func (s *Store) Remove(ctx context.Context, id string) error {
	entry, err := s.backend.GetBook(ctx, id)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("remove book: %w", err)
	}
	if err := s.backend.RemoveBook(ctx, id); err != nil {
		return fmt.Errorf("remove book: %w", err)
	}
	s.removeCover(entry.CoverRef)
	return nil
}

// removeCover deletes cover files this application extracted. Best effort.
func (s *Store) removeCover(ref string) {
	if ref == "" || s.coversDir == "" {
		return
	}
	rel, err := filepath.Rel(s.coversDir, ref)
	if err != nil || strings.HasPrefix(rel, "..") || filepath.IsAbs(rel) {
		return
	}
	if err := os.Remove(ref); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.log.Warn("remove cover failed", zap.String("path", ref), zap.Error(err))
	}
}
