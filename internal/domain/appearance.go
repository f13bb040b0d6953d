package domain

// Appearance is the fully populated live reader styling.
type Appearance struct {
	Opacity         float64    `json:"opacity"`
	BackgroundColor string     `json:"backgroundColor"`
	TextColor       string     `json:"textColor"`
	FontFamily      string     `json:"fontFamily"`
	FontSize        int        `json:"fontSize"`
	LayoutFlow      LayoutFlow `json:"readingMode"`
	GlassEnabled    bool       `json:"glassmorphism"`
	GlassBlur       int        `json:"glassBlur"`
	ScrollbarTrack  string     `json:"scrollbarTrack"`
	ScrollbarThumb  string     `json:"scrollbarThumb"`
}

// Config returns a reader section with every field set.
func (a Appearance) Config() *ReaderConfig {
	opacity := a.Opacity
	bg := a.BackgroundColor
	text := a.TextColor
	family := a.FontFamily
	size := a.FontSize
	flow := a.LayoutFlow
	glass := a.GlassEnabled
	blur := a.GlassBlur
	track := a.ScrollbarTrack
	thumb := a.ScrollbarThumb

	return &ReaderConfig{
		Opacity:         &opacity,
		BackgroundColor: &bg,
		TextColor:       &text,
		FontFamily:      &family,
		FontSize:        &size,
		LayoutFlow:      &flow,
		Glass:           &glass,
		GlassBlur:       &blur,
		ScrollbarTrack:  &track,
		ScrollbarThumb:  &thumb,
	}
}

// Tint is an overlay color and its opacity. An empty color means no tint.
type Tint struct {
	Color   string  `json:"color"`
	Opacity float64 `json:"opacity"`
	RGBA    string  `json:"rgba"`
}

// BackgroundSnapshot is the observable state of the background layer.
type BackgroundSnapshot struct {
	MediaKind    MediaKind `json:"mediaKind"`
	MediaPath    string    `json:"mediaPath,omitempty"`
	MediaMuted   bool      `json:"mediaMuted"`
	TrackPath    string    `json:"trackPath,omitempty"`
	TrackVolume  int       `json:"trackVolume"`
	TrackMuted   bool      `json:"trackMuted"`
	TrackPlaying bool      `json:"trackPlaying"`
}

// Atmosphere is the combined live state of every layer.
type Atmosphere struct {
	Background BackgroundSnapshot `json:"background"`
	Overlay    Tint               `json:"overlay"`
	Reader     Appearance         `json:"reader"`
}
