package library

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"ambient-reader/internal/domain"
	"ambient-reader/internal/storage"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

type countingEnricher struct {
	calls int
	meta  domain.BookMeta
}

func (e *countingEnricher) Enrich(_ context.Context, _, _ string, meta domain.BookMeta) domain.BookMeta {
	e.calls++
	if e.meta.Title != "" {
		meta.Title = e.meta.Title
	}
	meta.CoverRef = e.meta.CoverRef
	return meta
}

func newStore(t *testing.T, opts Options) *Store {
	t.Helper()
	if opts.Now == nil {
		c := &clock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
		opts.Now = c.Now
	}
	return NewStore(storage.NewMemoryLibrary(), opts)
}

func writePNG(t *testing.T, path string) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 200, A: 255})
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

// TestAddOrTouchSamePathOnce checks reopening a path keeps one entry.
func TestAddOrTouchSamePathOnce(t *testing.T) {
	s := newStore(t, Options{})
	ctx := context.Background()

	first, err := s.AddOrTouch(ctx, "/books/dune.epub", domain.BookMeta{Title: "Dune", Author: "Frank Herbert"})
	require.NoError(t, err)
	second, err := s.AddOrTouch(ctx, "/books/../books/dune.epub", domain.BookMeta{})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.True(t, second.LastOpened.After(first.LastOpened))
	assert.Equal(t, "Dune", second.Title)
	assert.Len(t, s.LoadRecent(ctx, 10), 1)
}

// TestAddOrTouchTitleFallback checks a missing title falls back to the file name.
func TestAddOrTouchTitleFallback(t *testing.T) {
	s := newStore(t, Options{})
	entry, err := s.AddOrTouch(context.Background(), "/books/the-hobbit.epub", domain.BookMeta{})
	require.NoError(t, err)
	assert.Equal(t, "the-hobbit", entry.Title)

	_, err = s.AddOrTouch(context.Background(), "  ", domain.BookMeta{})
	assert.Error(t, err)
}

// TestLoadRecentOrder checks most recently opened first and the limit.
func TestLoadRecentOrder(t *testing.T) {
	s := newStore(t, Options{})
	ctx := context.Background()
	for _, p := range []string{"/b/a.epub", "/b/b.epub", "/b/c.epub"} {
		_, err := s.AddOrTouch(ctx, p, domain.BookMeta{})
		require.NoError(t, err)
	}
	_, err := s.AddOrTouch(ctx, "/b/a.epub", domain.BookMeta{})
	require.NoError(t, err)

	recent := s.LoadRecent(ctx, 2)
	require.Len(t, recent, 2)
	assert.Equal(t, "a", recent[0].Title)
	assert.Equal(t, "c", recent[1].Title)
	assert.Empty(t, s.LoadRecent(ctx, 0))
}

// TestEnricherRunsForNewEntriesOnly checks metadata extraction is not repeated.
func TestEnricherRunsForNewEntriesOnly(t *testing.T) {
	dir := t.TempDir()
	cover := filepath.Join(dir, "cover.png")
	enricher := &countingEnricher{meta: domain.BookMeta{Title: "Emma", CoverRef: cover}}
	s := newStore(t, Options{Enricher: enricher, CoversDir: dir})
	ctx := context.Background()

	entry, err := s.AddOrTouch(ctx, "/b/emma.epub", domain.BookMeta{})
	require.NoError(t, err)
	_, err = s.AddOrTouch(ctx, "/b/emma.epub", domain.BookMeta{})
	require.NoError(t, err)

	assert.Equal(t, 1, enricher.calls)
	assert.Equal(t, "Emma", entry.Title)
	assert.Equal(t, cover, entry.CoverRef)
}

// TestProgressRoundTrip checks record then get, and the empty id no-op.
func TestProgressRoundTrip(t *testing.T) {
	s := newStore(t, Options{})
	ctx := context.Background()
	entry, err := s.AddOrTouch(ctx, "/b/a.epub", domain.BookMeta{})
	require.NoError(t, err)

	_, ok := s.GetProgress(ctx, entry.ID)
	assert.False(t, ok)

	require.NoError(t, s.RecordProgress(ctx, entry.ID, "epubcfi(/6/4)", 1.7))
	token, ok := s.GetProgress(ctx, entry.ID)
	require.True(t, ok)
	assert.Equal(t, "epubcfi(/6/4)", token)

	got, err := s.Get(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, 1.0, got.Progress)

	assert.NoError(t, s.RecordProgress(ctx, "", "x", 0.5))
	_, ok = s.GetProgress(ctx, "missing")
	assert.False(t, ok)
}

// TestRemoveDeletesOwnedCover checks the extracted cover goes with the entry.
func TestRemoveDeletesOwnedCover(t *testing.T) {
	dir := t.TempDir()
	owned := filepath.Join(dir, "owned.png")
	writePNG(t, owned)
	s := newStore(t, Options{CoversDir: dir})
	ctx := context.Background()

	entry, err := s.AddOrTouch(ctx, "/b/a.epub", domain.BookMeta{CoverRef: owned})
	require.NoError(t, err)
	require.NoError(t, s.Remove(ctx, entry.ID))

	_, err = os.Stat(owned)
	assert.True(t, os.IsNotExist(err))
	assert.Empty(t, s.LoadRecent(ctx, 10))
	assert.NoError(t, s.Remove(ctx, entry.ID))
}

// TestRemoveKeepsForeignCover checks files outside the covers dir survive.
func TestRemoveKeepsForeignCover(t *testing.T) {
	covers := t.TempDir()
	foreign := filepath.Join(t.TempDir(), "mine.png")
	writePNG(t, foreign)
	s := newStore(t, Options{CoversDir: covers})
	ctx := context.Background()

	entry, err := s.AddOrTouch(ctx, "/b/a.epub", domain.BookMeta{CoverRef: foreign})
	require.NoError(t, err)
	require.NoError(t, s.Remove(ctx, entry.ID))

	_, err = os.Stat(foreign)
	assert.NoError(t, err)
}

// TestCoverView checks a readable cover wins and anything else gets a placeholder.
func TestCoverView(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.png")
	writePNG(t, good)
	bad := filepath.Join(dir, "bad.png")
	require.NoError(t, os.WriteFile(bad, []byte("not an image"), 0o644))
	s := newStore(t, Options{})

	view := s.Cover(domain.LibraryEntry{Title: "Dune", CoverRef: good})
	assert.Equal(t, good, view.Path)
	assert.Nil(t, view.Placeholder)

	for _, ref := range []string{"", bad, filepath.Join(dir, "gone.png")} {
		view = s.Cover(domain.LibraryEntry{Title: "dune", CoverRef: ref})
		assert.Empty(t, view.Path)
		require.NotNil(t, view.Placeholder)
		assert.Equal(t, "D", view.Placeholder.Glyph)
	}
}

// TestPlaceholderStable checks placeholders are deterministic and well formed.
func TestPlaceholderStable(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		title := rapid.String().Draw(t, "title")
		a := Placeholder(title)
		b := Placeholder(title)
		if a != b {
			t.Fatalf("placeholder not stable: %+v vs %+v", a, b)
		}
		if a.Hue < 0 || a.Hue >= 360 {
			t.Fatalf("hue out of range: %d", a.Hue)
		}
		if len(a.FromColor) != 7 || len(a.ToColor) != 7 {
			t.Fatalf("bad colors: %q %q", a.FromColor, a.ToColor)
		}
		if a.Glyph == "" {
			t.Fatal("empty glyph")
		}
	})

	assert.Equal(t, "?", Placeholder("   ").Glyph)
	assert.Equal(t, "É", Placeholder("émile").Glyph)
}
