package atmosphere

import (
	"strings"
	"sync"

	"ambient-reader/internal/domain"
)

// Reader holds typography, layout and container styling. Every setter
// sanitizes its input; nothing is rejected.
type Reader struct {
	mu sync.RWMutex
	a  domain.Appearance
}

// NewReader creates a reader state from an initial appearance.
func NewReader(initial domain.Appearance) *Reader {
	return &Reader{a: SanitizeAppearance(initial)}
}

// Appearance returns a copy of the current styling.
func (r *Reader) Appearance() domain.Appearance {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.a
}

func (r *Reader) SetOpacity(opacity float64) {
	r.update(func(a *domain.Appearance) { a.Opacity = opacity })
}

func (r *Reader) SetBackgroundColor(color string) {
	r.update(func(a *domain.Appearance) { a.BackgroundColor = strings.TrimSpace(color) })
}

func (r *Reader) SetTextColor(color string) {
	r.update(func(a *domain.Appearance) { a.TextColor = strings.TrimSpace(color) })
}

func (r *Reader) SetFontFamily(family string) {
	r.update(func(a *domain.Appearance) { a.FontFamily = family })
}

func (r *Reader) SetFontSize(px int) {
	r.update(func(a *domain.Appearance) { a.FontSize = px })
}

// SetLayoutFlow only records the flow. Rebuilding the rendition for it is
// the flow machine's job.
func (r *Reader) SetLayoutFlow(flow domain.LayoutFlow) {
	r.update(func(a *domain.Appearance) { a.LayoutFlow = flow })
}

func (r *Reader) SetGlass(enabled bool) {
	r.update(func(a *domain.Appearance) { a.GlassEnabled = enabled })
}

func (r *Reader) SetGlassBlur(px int) {
	r.update(func(a *domain.Appearance) { a.GlassBlur = px })
}

func (r *Reader) SetScrollbarColors(track, thumb string) {
	r.update(func(a *domain.Appearance) {
		a.ScrollbarTrack = strings.TrimSpace(track)
		a.ScrollbarThumb = strings.TrimSpace(thumb)
	})
}

// Apply sets the fields a reader section specifies and keeps the rest.
func (r *Reader) Apply(cfg *domain.ReaderConfig) {
	if cfg == nil {
		return
	}
	r.update(func(a *domain.Appearance) {
		if cfg.Opacity != nil {
			a.Opacity = *cfg.Opacity
		}
		if cfg.BackgroundColor != nil {
			a.BackgroundColor = *cfg.BackgroundColor
		}
		if cfg.TextColor != nil {
			a.TextColor = *cfg.TextColor
		}
		if cfg.FontFamily != nil {
			a.FontFamily = *cfg.FontFamily
		}
		if cfg.FontSize != nil {
			a.FontSize = *cfg.FontSize
		}
		if cfg.LayoutFlow != nil {
			a.LayoutFlow = *cfg.LayoutFlow
		}
		if cfg.Glass != nil {
			a.GlassEnabled = *cfg.Glass
		}
		if cfg.GlassBlur != nil {
			a.GlassBlur = *cfg.GlassBlur
		}
		if cfg.ScrollbarTrack != nil {
			a.ScrollbarTrack = *cfg.ScrollbarTrack
		}
		if cfg.ScrollbarThumb != nil {
			a.ScrollbarThumb = *cfg.ScrollbarThumb
		}
	})
}

func (r *Reader) update(fn func(*domain.Appearance)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	next := r.a
	fn(&next)
	r.a = SanitizeAppearance(next)
}

// SanitizeAppearance clamps numeric ranges and normalizes enumerations.
func SanitizeAppearance(a domain.Appearance) domain.Appearance {
	a.Opacity = domain.ClampUnit(a.Opacity)
	a.FontSize = domain.ClampFontSize(a.FontSize)
	a.GlassBlur = domain.ClampGlassBlur(a.GlassBlur)
	a.FontFamily = domain.NormalizeFontFamily(a.FontFamily)
	a.LayoutFlow = domain.NormalizeLayoutFlow(a.LayoutFlow)
	return a
}
