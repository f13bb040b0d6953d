package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ambient-reader/internal/domain"
)

// TestDefaultPreferences verifies baseline defaults pass validation.
func TestDefaultPreferences(t *testing.T) {
	prefs := DefaultPreferences()
	assert.Equal(t, "serif", prefs.FontFamily)
	assert.Equal(t, 18, prefs.FontSize)
	assert.Equal(t, domain.LayoutPaginated, prefs.LayoutFlow)
	assert.True(t, prefs.MusicMuted)
	require.NoError(t, Validate(prefs))
}

// TestJSONStoreMissingFileIsEmptyLayer checks first-run behavior.
func TestJSONStoreMissingFileIsEmptyLayer(t *testing.T) {
	store := NewJSONStore(filepath.Join(t.TempDir(), "missing", "preferences.json"))

	layer, err := store.GetPreferences(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.PreferencesLayer{}, layer)
}

// TestJSONStoreSaveAndLoadRoundTrip checks persisted preferences fidelity.
func TestJSONStoreSaveAndLoadRoundTrip(t *testing.T) {
	store := NewJSONStore(filepath.Join(t.TempDir(), "cfg", "preferences.json"))
	want := DefaultPreferences()
	want.FontSize = 24
	want.LayoutFlow = domain.LayoutScrolled
	want.MusicPath = "/music/rain.mp3"

	require.NoError(t, store.SetPreferences(context.Background(), want))

	layer, err := store.GetPreferences(context.Background())
	require.NoError(t, err)
	assert.Equal(t, want, Resolve(DefaultPreferences(), layer))
}

// TestJSONStoreRejectsInvalidPreferences checks validation before write.
func TestJSONStoreRejectsInvalidPreferences(t *testing.T) {
	path := filepath.Join(t.TempDir(), "preferences.json")
	store := NewJSONStore(path)
	prefs := DefaultPreferences()
	prefs.FontFamily = "fantasy"
	prefs.FontSize = 80

	err := store.SetPreferences(context.Background(), prefs)
	require.ErrorIs(t, err, ErrInvalidPreferences)
	assert.Contains(t, err.Error(), "fontFamily")
	assert.Contains(t, err.Error(), "fontSize")

	_, statErr := os.Stat(path)
	assert.True(t, errors.Is(statErr, os.ErrNotExist))
}

// TestJSONStoreLoadInvalidJSON checks parse error handling.
func TestJSONStoreLoadInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "preferences.json")
	require.NoError(t, os.WriteFile(path, []byte("{not-json"), 0o644))

	_, err := NewJSONStore(path).GetPreferences(context.Background())
	assert.Error(t, err)
}

// TestLoadLiveFallsBackOnReadError checks that a broken store yields defaults.
func TestLoadLiveFallsBackOnReadError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "preferences.json")
	require.NoError(t, os.WriteFile(path, []byte("{not-json"), 0o644))

	live := LoadLive(context.Background(), NewJSONStore(path), nil)
	assert.Equal(t, DefaultPreferences(), live.Get())
}

// TestResolveFirstLayerWins checks per-field layered resolution.
func TestResolveFirstLayerWins(t *testing.T) {
	sessionSize := 22
	storedSize := 14
	storedColor := "#333333"
	legacyOpacity := 80.0

	got := Resolve(DefaultPreferences(),
		domain.PreferencesLayer{FontSize: &sessionSize},
		domain.PreferencesLayer{FontSize: &storedSize, TextColor: &storedColor, ContainerOpacity: &legacyOpacity},
	)

	assert.Equal(t, 22, got.FontSize)
	assert.Equal(t, "#333333", got.TextColor)
	assert.InDelta(t, 0.8, got.ContainerOpacity, 1e-9)
	assert.Equal(t, "serif", got.FontFamily)
}

// TestSanitizeContainerOpacity checks legacy percentages and out-of-range fractions.
func TestSanitizeContainerOpacity(t *testing.T) {
	tests := map[float64]float64{
		95:   0.95,
		100:  1,
		1.5:  1,
		250:  1,
		0.4:  0.4,
		-0.2: 0,
	}
	for in, want := range tests {
		prefs := DefaultPreferences()
		prefs.ContainerOpacity = in
		assert.InDelta(t, want, Sanitize(prefs).ContainerOpacity, 1e-9, "opacity %v", in)
	}
}

// TestJSONStoreRoundsFractionalNumbers checks hand-edited numbers are clamped, not rejected.
func TestJSONStoreRoundsFractionalNumbers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "preferences.json")
	doc := `{"fontSize": 18.5, "glassBlur": 1e12, "bgMusicVolume": -3.2, "textColor": "#222222"}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	live := LoadLive(context.Background(), NewJSONStore(path), nil)
	got := live.Get()
	assert.Equal(t, 19, got.FontSize)
	assert.Equal(t, domain.MaxGlassBlur, got.GlassBlur)
	assert.Equal(t, 0, got.MusicVolume)
	assert.Equal(t, "#222222", got.TextColor)
}

// TestLiveUpdateSanitizes checks that Update clamps out-of-range writes.
func TestLiveUpdateSanitizes(t *testing.T) {
	live := NewLive(DefaultPreferences(), nil, nil)
	got := live.Update(func(p *domain.Preferences) {
		p.FontSize = 4
		p.MusicVolume = 300
	})
	assert.Equal(t, domain.MinFontSize, got.FontSize)
	assert.Equal(t, domain.MaxVolume, got.MusicVolume)
	assert.NoError(t, live.Flush(context.Background()))
}

// TestLiveReload checks stored preferences replace the record and failures reset to defaults.
func TestLiveReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "preferences.json")
	store := NewJSONStore(path)
	stored := DefaultPreferences()
	stored.FontSize = 26
	require.NoError(t, store.SetPreferences(context.Background(), stored))

	live := NewLive(DefaultPreferences(), store, nil)
	require.NoError(t, live.Reload(context.Background()))
	assert.Equal(t, 26, live.Get().FontSize)

	require.NoError(t, os.WriteFile(path, []byte("{not-json"), 0o644))
	assert.Error(t, live.Reload(context.Background()))
	assert.Equal(t, DefaultPreferences(), live.Get())
}

// TestLoadAppConfigFromFile checks YAML config and derived values.
func TestLoadAppConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := "data_dir: " + dir + "\nprogress_debounce: 500ms\nrecent_limit: 5\nlog:\n  level: debug\n"
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, dir, cfg.DataDir)
	assert.Equal(t, 500*time.Millisecond, cfg.ProgressDebounce)
	assert.Equal(t, 5, cfg.RecentLimit)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, filepath.Join(dir, "logs", "reader.log"), cfg.Log.File)
	assert.Equal(t, filepath.Join(dir, "presets"), cfg.Paths().Presets)
}

// TestLoadAppConfigMissingExplicitFile checks that an explicit path must exist.
func TestLoadAppConfigMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	assert.Error(t, err)
}

// TestLoadAppConfigEnvOverride checks environment precedence.
func TestLoadAppConfigEnvOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("AMBIENT_READER_DATA_DIR", dir)
	t.Setenv("AMBIENT_READER_RECENT_LIMIT", "7")

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, dir, cfg.DataDir)
	assert.Equal(t, 7, cfg.RecentLimit)
	assert.Equal(t, 2*time.Second, cfg.ProgressDebounce)
}

// TestLoadAppConfigDataDirFlag checks the flag picks the directory config.yaml is read from.
func TestLoadAppConfigDataDirFlag(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("recent_limit: 3\n"), 0o644))

	flags := pflag.NewFlagSet("reader", pflag.ContinueOnError)
	flags.String("data-dir", "", "")
	flags.Bool("memory", false, "")
	require.NoError(t, flags.Parse([]string{"--data-dir", dir, "--memory"}))

	cfg, err := Load("", flags)
	require.NoError(t, err)
	assert.Equal(t, dir, cfg.DataDir)
	assert.Equal(t, 3, cfg.RecentLimit)
	assert.True(t, cfg.MemoryBackend)
	assert.Equal(t, filepath.Join(dir, "logs", "reader.log"), cfg.Log.File)

	unset := pflag.NewFlagSet("reader", pflag.ContinueOnError)
	unset.String("data-dir", "", "")
	require.NoError(t, unset.Parse(nil))
	cfg, err = Load("", unset)
	require.NoError(t, err)
	assert.Equal(t, DefaultDataDir(), cfg.DataDir)
}
