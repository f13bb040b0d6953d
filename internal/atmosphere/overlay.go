package atmosphere

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"ambient-reader/internal/domain"
)

const transparentRGBA = "rgba(0, 0, 0, 0)"

// Overlay holds the single color tint painted over the background.
type Overlay struct {
	mu      sync.RWMutex
	color   string
	opacity float64
}

// NewOverlay creates an overlay with no tint.
func NewOverlay() *Overlay {
	return &Overlay{}
}

// SetTint stores a color and a clamped opacity.
func (o *Overlay) SetTint(color string, opacity float64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.color = strings.TrimSpace(color)
	o.opacity = domain.ClampUnit(opacity)
}

// ClearTint resets to the no-tint sentinel.
func (o *Overlay) ClearTint() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.color = ""
	o.opacity = 0
}

// Apply sets the fields an overlay section specifies and keeps the rest.
func (o *Overlay) Apply(cfg *domain.OverlayConfig) {
	if cfg == nil {
		return
	}
	current := o.Tint()
	color := current.Color
	opacity := current.Opacity
	if cfg.Color != nil {
		color = *cfg.Color
	}
	if cfg.Opacity != nil {
		opacity = *cfg.Opacity
	}
	o.SetTint(color, opacity)
}

// Tint returns the current tint with its derived paint.
func (o *Overlay) Tint() domain.Tint {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return domain.Tint{
		Color:   o.color,
		Opacity: o.opacity,
		RGBA:    RGBA(o.color, o.opacity),
	}
}

// RGBA derives a CSS rgba() paint from a #rgb or #rrggbb color.
// Anything unparsable paints as fully transparent.
func RGBA(color string, opacity float64) string {
	r, g, b, ok := parseHex(color)
	if !ok {
		return transparentRGBA
	}
	alpha := strconv.FormatFloat(domain.ClampUnit(opacity), 'f', -1, 64)
	return fmt.Sprintf("rgba(%d, %d, %d, %s)", r, g, b, alpha)
}

// parseHex decodes #rgb and #rrggbb color strings.
func parseHex(color string) (uint8, uint8, uint8, bool) {
	hex, found := strings.CutPrefix(strings.TrimSpace(color), "#")
	if !found {
		return 0, 0, 0, false
	}
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return 0, 0, 0, false
	}

	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, 0, 0, false
	}
	return uint8(v >> 16), uint8(v >> 8), uint8(v), true
}
