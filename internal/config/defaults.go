package config

import "ambient-reader/internal/domain"

// DefaultPreferences returns the hard-coded last layer of preference resolution.
func DefaultPreferences() domain.Preferences {
	return domain.Preferences{
		FontFamily:       domain.FontSerif,
		FontSize:         18,
		LastPreset:       "Cozy Reading",
		LayoutFlow:       domain.LayoutPaginated,
		TextColor:        "#1a1a1a",
		ContainerColor:   "#FFFFFF",
		ContainerOpacity: 0.95,
		Glass:            false,
		GlassBlur:        12,
		ScrollbarTrack:   "transparent",
		ScrollbarThumb:   "rgba(255, 255, 255, 0.25)",
		OverlayColor:     "",
		OverlayOpacity:   0,
		BgMediaMuted:     true,
		MusicVolume:      50,
		MusicMuted:       true,
	}
}
