package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestPresetUnmarshalClampsMalformedValues checks load-time clamping.
func TestPresetUnmarshalClampsMalformedValues(t *testing.T) {
	raw := `{
		"version": "2.0",
		"name": "  Loud  ",
		"overlay": {"color": "#000000", "opacity": 3.5},
		"reader": {"opacity": -1, "fontSize": 99, "glassBlur": 400, "fontFamily": "Comic", "readingMode": "sideways"},
		"audio": {"volume": 250}
	}`

	var p Preset
	require.NoError(t, json.Unmarshal([]byte(raw), &p))

	assert.Equal(t, "Loud", p.Name)
	assert.Equal(t, 1.0, *p.Overlay.Opacity)
	assert.Equal(t, 0.0, *p.Reader.Opacity)
	assert.Equal(t, MaxFontSize, *p.Reader.FontSize)
	assert.Equal(t, MaxGlassBlur, *p.Reader.GlassBlur)
	assert.Equal(t, FontSerif, *p.Reader.FontFamily)
	assert.Equal(t, LayoutPaginated, *p.Reader.LayoutFlow)
	assert.Equal(t, MaxVolume, *p.Audio.Volume)

	fractional := `{"name": "Odd", "reader": {"fontSize": 18.5, "glassBlur": 1e12}, "audio": {"volume": 40.4}}`
	var q Preset
	require.NoError(t, json.Unmarshal([]byte(fractional), &q))
	assert.Equal(t, 19, *q.Reader.FontSize)
	assert.Equal(t, MaxGlassBlur, *q.Reader.GlassBlur)
	assert.Equal(t, 40, *q.Audio.Volume)
}

// TestPresetRoundTripKeepsUnknownFields checks forward compatibility.
func TestPresetRoundTripKeepsUnknownFields(t *testing.T) {
	raw := `{
		"version": "2.0",
		"name": "Future",
		"mood": "rainy",
		"background": {"type": "image", "path": "/a.png", "parallax": true},
		"overlay": {"color": "#112233", "opacity": 0.2, "blend": "multiply"},
		"reader": {"fontSize": 18, "lineHeight": 1.6}
	}`

	var p Preset
	require.NoError(t, json.Unmarshal([]byte(raw), &p))

	out, err := json.Marshal(p)
	require.NoError(t, err)

	var members map[string]any
	require.NoError(t, json.Unmarshal(out, &members))
	assert.Equal(t, "rainy", members["mood"])

	bg := members["background"].(map[string]any)
	assert.Equal(t, true, bg["parallax"])
	assert.Equal(t, "image", bg["type"])

	overlay := members["overlay"].(map[string]any)
	assert.Equal(t, "multiply", overlay["blend"])

	reader := members["reader"].(map[string]any)
	assert.Equal(t, 1.6, reader["lineHeight"])
	assert.EqualValues(t, 18, reader["fontSize"])
}

// TestPresetLegacyVideoKind maps the old "video" tag to motion.
func TestPresetLegacyVideoKind(t *testing.T) {
	var p Preset
	require.NoError(t, json.Unmarshal([]byte(`{"version":"1.0","name":"x","background":{"type":"video","path":"/r.mp4"}}`), &p))
	assert.Equal(t, MediaMotion, p.Background.Kind)
}

// TestPresetCheckVersion accepts 1.x and 2.x only.
func TestPresetCheckVersion(t *testing.T) {
	for _, v := range []string{"1.0", "2.0", "2.1"} {
		p := Preset{Version: v}
		assert.NoError(t, p.CheckVersion(), v)
	}
	p := Preset{Version: "3.0"}
	assert.ErrorIs(t, p.CheckVersion(), ErrUnsupportedVersion)
}

// TestClassifyMedia covers each media kind.
func TestClassifyMedia(t *testing.T) {
	assert.Equal(t, MediaImage, ClassifyMedia("/bg/Fireplace.JPG"))
	assert.Equal(t, MediaMotion, ClassifyMedia("/bg/rain.webm"))
	assert.Equal(t, MediaUnsupported, ClassifyMedia("/notes.txt"))
	assert.Equal(t, MediaNone, ClassifyMedia("  "))
	assert.True(t, IsAudioTrack("/music/loop.FLAC"))
	assert.False(t, IsAudioTrack("/music/loop.mp4"))
}
