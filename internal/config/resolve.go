package config

import (
	"math"

	"github.com/samber/lo"

	"ambient-reader/internal/domain"
)

// Resolve builds a fully populated Preferences record. For every field the
// first layer that sets it wins and base supplies whatever no layer sets.
// Values are clamped once here so nothing downstream re-checks them.
func Resolve(base domain.Preferences, layers ...domain.PreferencesLayer) domain.Preferences {
	out := base
	for i := len(layers) - 1; i >= 0; i-- {
		overlay(&out, layers[i])
	}
	return Sanitize(out)
}

// overlay copies every field the layer sets onto p.
func overlay(p *domain.Preferences, l domain.PreferencesLayer) {
	p.FontFamily = lo.FromPtrOr(l.FontFamily, p.FontFamily)
	p.FontSize = lo.FromPtrOr(l.FontSize, p.FontSize)
	p.LastPreset = lo.FromPtrOr(l.LastPreset, p.LastPreset)
	p.LayoutFlow = lo.FromPtrOr(l.LayoutFlow, p.LayoutFlow)
	p.TextColor = lo.FromPtrOr(l.TextColor, p.TextColor)
	p.ContainerColor = lo.FromPtrOr(l.ContainerColor, p.ContainerColor)
	p.ContainerOpacity = lo.FromPtrOr(l.ContainerOpacity, p.ContainerOpacity)
	p.Glass = lo.FromPtrOr(l.Glass, p.Glass)
	p.GlassBlur = lo.FromPtrOr(l.GlassBlur, p.GlassBlur)
	p.ScrollbarTrack = lo.FromPtrOr(l.ScrollbarTrack, p.ScrollbarTrack)
	p.ScrollbarThumb = lo.FromPtrOr(l.ScrollbarThumb, p.ScrollbarThumb)
	p.OverlayColor = lo.FromPtrOr(l.OverlayColor, p.OverlayColor)
	p.OverlayOpacity = lo.FromPtrOr(l.OverlayOpacity, p.OverlayOpacity)
	p.BgMediaPath = lo.FromPtrOr(l.BgMediaPath, p.BgMediaPath)
	p.BgMediaMuted = lo.FromPtrOr(l.BgMediaMuted, p.BgMediaMuted)
	p.MusicPath = lo.FromPtrOr(l.MusicPath, p.MusicPath)
	p.MusicVolume = lo.FromPtrOr(l.MusicVolume, p.MusicVolume)
	p.MusicMuted = lo.FromPtrOr(l.MusicMuted, p.MusicMuted)
	p.LastBookID = lo.FromPtrOr(l.LastBookID, p.LastBookID)
}

// Sanitize clamps numeric ranges and normalizes enumerations.
func Sanitize(p domain.Preferences) domain.Preferences {
	// preferences.json from older builds stored the container opacity as a
	// whole percentage.
	if v := p.ContainerOpacity; v > 1 && v <= 100 && v == math.Trunc(v) {
		p.ContainerOpacity = v / 100
	}
	p.ContainerOpacity = domain.ClampUnit(p.ContainerOpacity)
	p.OverlayOpacity = domain.ClampUnit(p.OverlayOpacity)
	p.FontSize = domain.ClampFontSize(p.FontSize)
	p.GlassBlur = domain.ClampGlassBlur(p.GlassBlur)
	p.MusicVolume = domain.ClampVolume(p.MusicVolume)
	p.FontFamily = domain.NormalizeFontFamily(p.FontFamily)
	p.LayoutFlow = domain.NormalizeLayoutFlow(p.LayoutFlow)
	return p
}
