package domain

import "encoding/json"

// Preferences is the live working copy of atmosphere and library-adjacent
// settings. A Preset is a named saved state; Preferences is the current one.
type Preferences struct {
	FontFamily       string     `json:"fontFamily" validate:"oneof=serif sans-serif monospace"`
	FontSize         int        `json:"fontSize" validate:"min=12,max=32"`
	LastPreset       string     `json:"lastPreset,omitempty"`
	LayoutFlow       LayoutFlow `json:"readingMode" validate:"oneof=paginated scrolled"`
	TextColor        string     `json:"textColor"`
	ContainerColor   string     `json:"containerColor"`
	ContainerOpacity float64    `json:"containerOpacity" validate:"min=0,max=1"`
	Glass            bool       `json:"glassmorphism"`
	GlassBlur        int        `json:"glassBlur" validate:"min=0,max=40"`
	ScrollbarTrack   string     `json:"scrollbarTrack"`
	ScrollbarThumb   string     `json:"scrollbarThumb"`
	OverlayColor     string     `json:"overlayColor,omitempty"`
	OverlayOpacity   float64    `json:"overlayOpacity" validate:"min=0,max=1"`
	BgMediaPath      string     `json:"bgMediaPath,omitempty"`
	BgMediaMuted     bool       `json:"bgAudioMuted"`
	MusicPath        string     `json:"bgMusicPath,omitempty"`
	MusicVolume      int        `json:"bgMusicVolume" validate:"min=0,max=100"`
	MusicMuted       bool       `json:"bgMusicMuted"`
	LastBookID       string     `json:"lastBookId,omitempty"`
}

// PreferencesLayer is a partially specified Preferences record. Nil means
// "not set at this layer" during layered resolution.
type PreferencesLayer struct {
	FontFamily       *string     `json:"fontFamily,omitempty"`
	FontSize         *int        `json:"fontSize,omitempty"`
	LastPreset       *string     `json:"lastPreset,omitempty"`
	LayoutFlow       *LayoutFlow `json:"readingMode,omitempty"`
	TextColor        *string     `json:"textColor,omitempty"`
	ContainerColor   *string     `json:"containerColor,omitempty"`
	ContainerOpacity *float64    `json:"containerOpacity,omitempty"`
	Glass            *bool       `json:"glassmorphism,omitempty"`
	GlassBlur        *int        `json:"glassBlur,omitempty"`
	ScrollbarTrack   *string     `json:"scrollbarTrack,omitempty"`
	ScrollbarThumb   *string     `json:"scrollbarThumb,omitempty"`
	OverlayColor     *string     `json:"overlayColor,omitempty"`
	OverlayOpacity   *float64    `json:"overlayOpacity,omitempty"`
	BgMediaPath      *string     `json:"bgMediaPath,omitempty"`
	BgMediaMuted     *bool       `json:"bgAudioMuted,omitempty"`
	MusicPath        *string     `json:"bgMusicPath,omitempty"`
	MusicVolume      *int        `json:"bgMusicVolume,omitempty"`
	MusicMuted       *bool       `json:"bgMusicMuted,omitempty"`
	LastBookID       *string     `json:"lastBookId,omitempty"`
}

// UnmarshalJSON decodes a stored layer. Integer fields accept any JSON
// number and are rounded, so a hand-edited 18.5 is not a decode error.
func (l *PreferencesLayer) UnmarshalJSON(data []byte) error {
	type plain PreferencesLayer
	var decoded struct {
		plain
		FontSize    *float64 `json:"fontSize"`
		GlassBlur   *float64 `json:"glassBlur"`
		MusicVolume *float64 `json:"bgMusicVolume"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	*l = PreferencesLayer(decoded.plain)
	l.FontSize = wholeNumber(decoded.FontSize)
	l.GlassBlur = wholeNumber(decoded.GlassBlur)
	l.MusicVolume = wholeNumber(decoded.MusicVolume)
	return nil
}

// Appearance projects the reader styling out of the preferences.
func (p Preferences) Appearance() Appearance {
	return Appearance{
		Opacity:         p.ContainerOpacity,
		BackgroundColor: p.ContainerColor,
		TextColor:       p.TextColor,
		FontFamily:      p.FontFamily,
		FontSize:        p.FontSize,
		LayoutFlow:      p.LayoutFlow,
		GlassEnabled:    p.Glass,
		GlassBlur:       p.GlassBlur,
		ScrollbarTrack:  p.ScrollbarTrack,
		ScrollbarThumb:  p.ScrollbarThumb,
	}
}

// SetAppearance copies reader styling into the preferences.
func (p *Preferences) SetAppearance(a Appearance) {
	p.ContainerOpacity = a.Opacity
	p.ContainerColor = a.BackgroundColor
	p.TextColor = a.TextColor
	p.FontFamily = a.FontFamily
	p.FontSize = a.FontSize
	p.LayoutFlow = a.LayoutFlow
	p.Glass = a.GlassEnabled
	p.GlassBlur = a.GlassBlur
	p.ScrollbarTrack = a.ScrollbarTrack
	p.ScrollbarThumb = a.ScrollbarThumb
}

// SetAtmosphere copies the live state of every layer into the preferences.
func (p *Preferences) SetAtmosphere(a Atmosphere) {
	p.SetAppearance(a.Reader)
	p.OverlayColor = a.Overlay.Color
	p.OverlayOpacity = a.Overlay.Opacity
	p.BgMediaPath = a.Background.MediaPath
	p.BgMediaMuted = a.Background.MediaMuted
	p.MusicPath = a.Background.TrackPath
	p.MusicVolume = a.Background.TrackVolume
	p.MusicMuted = a.Background.TrackMuted
}
