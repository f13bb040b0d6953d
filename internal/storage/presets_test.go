package storage

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ambient-reader/internal/domain"
)

// TestPresetSlug checks file stems for awkward names.
func TestPresetSlug(t *testing.T) {
	tests := map[string]string{
		"Cozy Reading":     "cozy-reading",
		"  Night  Reading": "night-reading",
		"Café Noir!":       "cafe-noir",
		"_last_session":    "_last_session",
		"../../etc/passwd": "etc-passwd",
		"日本":               "preset",
		"":                 "preset",
	}
	for name, want := range tests {
		assert.Equal(t, want, PresetSlug(name), "name %q", name)
	}
}

// TestEntryIDStable checks that one file maps to one id.
func TestEntryIDStable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "book.epub")

	assert.Equal(t, EntryID(path), EntryID(filepath.Join(dir, ".", "book.epub")))
	assert.NotEqual(t, EntryID(path), EntryID(filepath.Join(dir, "other.epub")))
}

// TestFilePresetsRoundTrip checks save, list, load and delete on disk.
func TestFilePresetsRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewFilePresets(filepath.Join(t.TempDir(), "presets"), nil)

	names, err := store.ListPresetNames(ctx)
	require.NoError(t, err)
	assert.Empty(t, names)

	preset := domain.Preset{
		Version: domain.PresetSchemaVersion,
		Name:    "Rainy Evening",
		Overlay: &domain.OverlayConfig{Color: lo.ToPtr("#223344"), Opacity: lo.ToPtr(0.3)},
		Extra:   domain.Extra{"tags": json.RawMessage(`["rain"]`)},
	}
	require.NoError(t, store.SavePreset(ctx, preset))

	names, err = store.ListPresetNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Rainy Evening"}, names)

	loaded, err := store.LoadPreset(ctx, "Rainy Evening")
	require.NoError(t, err)
	assert.Equal(t, "#223344", *loaded.Overlay.Color)
	assert.JSONEq(t, `["rain"]`, string(loaded.Extra["tags"]))

	require.NoError(t, store.DeletePreset(ctx, "Rainy Evening"))
	_, err = store.LoadPreset(ctx, "Rainy Evening")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, store.DeletePreset(ctx, "Rainy Evening"))
}

// TestFilePresetsFindsHandPlacedFiles checks lookup by inner name.
func TestFilePresetsFindsHandPlacedFiles(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	doc := `{"version":"1.0","name":"Sepia","reader":{"textColor":"#5b4636"}}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "My Theme.json"), []byte(doc), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	store := NewFilePresets(dir, nil)
	names, err := store.ListPresetNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Sepia"}, names)

	loaded, err := store.LoadPreset(ctx, "Sepia")
	require.NoError(t, err)
	assert.Equal(t, "#5b4636", *loaded.Reader.TextColor)

	require.NoError(t, store.DeletePreset(ctx, "Sepia"))
	_, err = os.Stat(filepath.Join(dir, "My Theme.json"))
	assert.True(t, os.IsNotExist(err))
}

// TestFilePresetsSharedSlugKeepsBoth checks names that slug alike never overwrite each other.
func TestFilePresetsSharedSlugKeepsBoth(t *testing.T) {
	ctx := context.Background()
	store := NewFilePresets(t.TempDir(), nil)

	save := func(name, color string) {
		t.Helper()
		require.NoError(t, store.SavePreset(ctx, domain.Preset{
			Version: domain.PresetSchemaVersion,
			Name:    name,
			Overlay: &domain.OverlayConfig{Color: lo.ToPtr(color)},
		}))
	}
	save(domain.SessionPresetName, "#000001")
	save("_Last_Session", "#000002")
	save("Rainy Day", "#000003")
	save("rainy-day", "#000004")
	save("Rainy Day", "#000005")

	names, err := store.ListPresetNames(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{domain.SessionPresetName, "_Last_Session", "Rainy Day", "rainy-day"}, names)

	for name, color := range map[string]string{
		domain.SessionPresetName: "#000001",
		"_Last_Session":          "#000002",
		"Rainy Day":              "#000005",
		"rainy-day":              "#000004",
	} {
		loaded, err := store.LoadPreset(ctx, name)
		require.NoError(t, err, name)
		assert.Equal(t, color, *loaded.Overlay.Color, name)
	}

	require.NoError(t, store.DeletePreset(ctx, "rainy-day"))
	loaded, err := store.LoadPreset(ctx, "Rainy Day")
	require.NoError(t, err)
	assert.Equal(t, "#000005", *loaded.Overlay.Color)
	_, err = store.LoadPreset(ctx, "rainy-day")
	assert.ErrorIs(t, err, ErrNotFound)
}

// TestMemoryPresetsKeepsInsertionOrder checks listing order of the stub.
func TestMemoryPresetsKeepsInsertionOrder(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryPresets()
	for _, name := range []string{"b", "a", "c"} {
		require.NoError(t, store.SavePreset(ctx, domain.Preset{Name: name}))
	}
	require.NoError(t, store.SavePreset(ctx, domain.Preset{Name: "a", Author: "me"}))
	require.NoError(t, store.DeletePreset(ctx, "c"))

	names, err := store.ListPresetNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, names)

	p, err := store.LoadPreset(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "me", p.Author)
}

// TestMemoryPreferencesLayer checks that a stored record resolves fully.
func TestMemoryPreferencesLayer(t *testing.T) {
	ctx := context.Background()
	store := &MemoryPreferences{}
	layer, err := store.GetPreferences(ctx)
	require.NoError(t, err)
	assert.Nil(t, layer.FontSize)

	require.NoError(t, store.SetPreferences(ctx, domain.Preferences{FontSize: 22, MusicMuted: true}))
	layer, err = store.GetPreferences(ctx)
	require.NoError(t, err)
	assert.Equal(t, 22, *layer.FontSize)
	assert.True(t, *layer.MusicMuted)
}
