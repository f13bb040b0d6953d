package atmosphere

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"ambient-reader/internal/domain"
)

func baseAppearance() domain.Appearance {
	return domain.Appearance{
		Opacity:         0.95,
		BackgroundColor: "#1a1a1a",
		TextColor:       "#FFFFFF",
		FontFamily:      domain.FontSerif,
		FontSize:        18,
		LayoutFlow:      domain.LayoutPaginated,
		GlassBlur:       12,
		ScrollbarTrack:  "transparent",
		ScrollbarThumb:  "rgba(255, 255, 255, 0.25)",
	}
}

// TestReaderSettersClamp checks every numeric setter stays in range.
func TestReaderSettersClamp(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		r := NewReader(baseAppearance())
		r.SetFontSize(rapid.IntRange(-100, 200).Draw(t, "size"))
		r.SetGlassBlur(rapid.IntRange(-100, 200).Draw(t, "blur"))
		r.SetOpacity(rapid.Float64Range(-5, 5).Draw(t, "opacity"))

		a := r.Appearance()
		if a.FontSize < domain.MinFontSize || a.FontSize > domain.MaxFontSize {
			t.Fatalf("font size %d out of range", a.FontSize)
		}
		if a.GlassBlur < 0 || a.GlassBlur > domain.MaxGlassBlur {
			t.Fatalf("glass blur %d out of range", a.GlassBlur)
		}
		if a.Opacity < 0 || a.Opacity > 1 {
			t.Fatalf("opacity %v out of range", a.Opacity)
		}
	})
}

// TestReaderSanitizesEnumerations checks unknown families and flows fall back.
func TestReaderSanitizesEnumerations(t *testing.T) {
	r := NewReader(baseAppearance())
	r.SetFontFamily("Comic Sans")
	r.SetLayoutFlow("sideways")
	assert.Equal(t, domain.FontSerif, r.Appearance().FontFamily)
	assert.Equal(t, domain.LayoutPaginated, r.Appearance().LayoutFlow)

	r.SetFontFamily("Monospace")
	r.SetLayoutFlow(domain.LayoutScrolled)
	assert.Equal(t, domain.FontMonospace, r.Appearance().FontFamily)
	assert.Equal(t, domain.LayoutScrolled, r.Appearance().LayoutFlow)
}

// TestReaderApplyPartial checks nil fields leave values alone.
func TestReaderApplyPartial(t *testing.T) {
	r := NewReader(baseAppearance())
	text := "#e0e0e0"
	size := 40
	r.Apply(&domain.ReaderConfig{TextColor: &text, FontSize: &size})

	a := r.Appearance()
	assert.Equal(t, "#e0e0e0", a.TextColor)
	assert.Equal(t, domain.MaxFontSize, a.FontSize)
	assert.Equal(t, "#1a1a1a", a.BackgroundColor)
	assert.Equal(t, 0.95, a.Opacity)
}

// TestReaderApplyConfigRoundTrip checks that a full config reproduces the appearance.
func TestReaderApplyConfigRoundTrip(t *testing.T) {
	want := baseAppearance()
	want.GlassEnabled = true
	want.LayoutFlow = domain.LayoutScrolled

	r := NewReader(domain.Appearance{})
	r.Apply(want.Config())
	assert.Equal(t, want, r.Appearance())
}

// TestLayersRestoreFromPreferences checks startup restore onto every layer.
func TestLayersRestoreFromPreferences(t *testing.T) {
	surface := &recordingSurface{}
	prefs := domain.Preferences{
		FontFamily:       domain.FontSansSerif,
		FontSize:         20,
		LayoutFlow:       domain.LayoutScrolled,
		ContainerOpacity: 0.7,
		OverlayColor:     "#102030",
		OverlayOpacity:   0.25,
		BgMediaPath:      "/media/rain.mp4",
		BgMediaMuted:     true,
		MusicPath:        "/music/rain.mp3",
		MusicVolume:      30,
		MusicMuted:       true,
	}

	layers := NewLayers(prefs, surface, nil)
	snap := layers.Snapshot()

	assert.Equal(t, 20, snap.Reader.FontSize)
	assert.Equal(t, domain.LayoutScrolled, snap.Reader.LayoutFlow)
	assert.Equal(t, "#102030", snap.Overlay.Color)
	assert.Equal(t, domain.MediaMotion, snap.Background.MediaKind)
	assert.Equal(t, "/music/rain.mp3", snap.Background.TrackPath)
	assert.Equal(t, 30, snap.Background.TrackVolume)
	assert.True(t, snap.Background.TrackMuted)
}
