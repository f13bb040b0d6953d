package domain

import (
	"math"
	"strings"

	"github.com/samber/lo"
)

const (
	MinFontSize  = 12
	MaxFontSize  = 32
	MinGlassBlur = 0
	MaxGlassBlur = 40
	MaxVolume    = 100
)

// Font families the reader surface can render.
const (
	FontSerif     = "serif"
	FontSansSerif = "sans-serif"
	FontMonospace = "monospace"
)

// LayoutFlow selects how the rendition lays out a document.
type LayoutFlow string

const (
	LayoutPaginated LayoutFlow = "paginated"
	LayoutScrolled  LayoutFlow = "scrolled"
)

// ClampUnit limits v to [0,1]. NaN becomes 0.
func ClampUnit(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return lo.Clamp(v, 0, 1)
}

// ClampFontSize limits a pixel font size to the supported range.
func ClampFontSize(px int) int {
	return lo.Clamp(px, MinFontSize, MaxFontSize)
}

// ClampGlassBlur limits a blur radius in pixels.
func ClampGlassBlur(px int) int {
	return lo.Clamp(px, MinGlassBlur, MaxGlassBlur)
}

// ClampVolume limits a user-facing volume to 0..100.
func ClampVolume(v int) int {
	return lo.Clamp(v, 0, MaxVolume)
}

// wholeNumber rounds a decoded JSON number to an int. Out-of-range values
// saturate so the range clamps can deal with them.
func wholeNumber(v *float64) *int {
	if v == nil {
		return nil
	}
	n := int(math.Round(lo.Clamp(*v, math.MinInt32, math.MaxInt32)))
	return &n
}

// NormalizeFontFamily maps unknown families to serif.
func NormalizeFontFamily(family string) string {
	switch f := strings.ToLower(strings.TrimSpace(family)); f {
	case FontSerif, FontSansSerif, FontMonospace:
		return f
	default:
		return FontSerif
	}
}

// NormalizeLayoutFlow maps unknown flows to paginated.
func NormalizeLayoutFlow(flow LayoutFlow) LayoutFlow {
	if LayoutFlow(strings.ToLower(strings.TrimSpace(string(flow)))) == LayoutScrolled {
		return LayoutScrolled
	}
	return LayoutPaginated
}
