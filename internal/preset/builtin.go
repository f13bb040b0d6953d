package preset

import (
	"github.com/samber/lo"

	"ambient-reader/internal/domain"
)

// Built-in preset names in declaration order.
const (
	CozyReading  = "Cozy Reading"
	FocusMode    = "Focus Mode"
	NightReading = "Night Reading"
)

var builtinOrder = []string{CozyReading, FocusMode, NightReading}

// Builtins returns fresh copies of the built-in presets in declaration order.
// Background paths are relative to the media directory.
func Builtins() []domain.Preset {
	return []domain.Preset{cozyReading(), focusMode(), nightReading()}
}

// IsBuiltin reports whether name belongs to a built-in preset.
func IsBuiltin(name string) bool {
	return lo.Contains(builtinOrder, name)
}

// builtin returns the named built-in preset.
func builtin(name string) (domain.Preset, bool) {
	return lo.Find(Builtins(), func(p domain.Preset) bool { return p.Name == name })
}

func cozyReading() domain.Preset {
	return domain.Preset{
		Version:     "2.0",
		Name:        CozyReading,
		Author:      "Built-in",
		Description: "Warm firelight and a soft amber page",
		Builtin:     true,
		Background: &domain.BackgroundConfig{
			Kind: domain.MediaImage,
			Path: lo.ToPtr("backgrounds/fireplace.svg"),
		},
		Overlay: &domain.OverlayConfig{
			Color:   lo.ToPtr("#2b1a0f"),
			Opacity: lo.ToPtr(0.3),
		},
		Reader: &domain.ReaderConfig{
			Opacity:         lo.ToPtr(0.9),
			BackgroundColor: lo.ToPtr("#2a1f17"),
			TextColor:       lo.ToPtr("#f5e6d3"),
			FontFamily:      lo.ToPtr(domain.FontSerif),
			FontSize:        lo.ToPtr(18),
			Glass:           lo.ToPtr(true),
			GlassBlur:       lo.ToPtr(12),
		},
	}
}

func focusMode() domain.Preset {
	return domain.Preset{
		Version:     "2.0",
		Name:        FocusMode,
		Author:      "Built-in",
		Description: "Quiet gradient with high contrast text",
		Builtin:     true,
		Background: &domain.BackgroundConfig{
			Kind: domain.MediaImage,
			Path: lo.ToPtr("backgrounds/gradient.svg"),
		},
		Overlay: &domain.OverlayConfig{
			Color:   lo.ToPtr("#000000"),
			Opacity: lo.ToPtr(0.2),
		},
		Reader: &domain.ReaderConfig{
			Opacity:         lo.ToPtr(0.98),
			BackgroundColor: lo.ToPtr("#fafafa"),
			TextColor:       lo.ToPtr("#1a1a1a"),
			FontFamily:      lo.ToPtr(domain.FontSansSerif),
			FontSize:        lo.ToPtr(18),
			Glass:           lo.ToPtr(false),
		},
	}
}

func nightReading() domain.Preset {
	return domain.Preset{
		Version:     "2.0",
		Name:        NightReading,
		Author:      "Built-in",
		Description: "Dim starfield for late pages",
		Builtin:     true,
		Background: &domain.BackgroundConfig{
			Kind: domain.MediaImage,
			Path: lo.ToPtr("backgrounds/starry-night.svg"),
		},
		Overlay: &domain.OverlayConfig{
			Color:   lo.ToPtr("#1a1a2e"),
			Opacity: lo.ToPtr(0.4),
		},
		Reader: &domain.ReaderConfig{
			Opacity:         lo.ToPtr(0.85),
			BackgroundColor: lo.ToPtr("#2d2d2d"),
			TextColor:       lo.ToPtr("#e0e0e0"),
			FontFamily:      lo.ToPtr(domain.FontSerif),
			FontSize:        lo.ToPtr(20),
			Glass:           lo.ToPtr(false),
		},
	}
}
