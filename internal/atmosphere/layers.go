package atmosphere

import (
	"go.uber.org/zap"

	"ambient-reader/internal/domain"
)

// Layers groups the three state holders that make up the atmosphere.
type Layers struct {
	Background *Background
	Overlay    *Overlay
	Reader     *Reader
}

// NewLayers builds every layer from resolved preferences.
func NewLayers(prefs domain.Preferences, surface Surface, log *zap.Logger) *Layers {
	l := &Layers{
		Background: NewBackground(surface, log),
		Overlay:    NewOverlay(),
		Reader:     NewReader(prefs.Appearance()),
	}
	l.Restore(prefs)
	return l
}

// Restore pushes preferences onto every layer. Used at startup when there is
// no session snapshot to restore from.
func (l *Layers) Restore(prefs domain.Preferences) {
	l.Reader.Apply(prefs.Appearance().Config())

	if prefs.OverlayColor == "" {
		l.Overlay.ClearTint()
	} else {
		l.Overlay.SetTint(prefs.OverlayColor, prefs.OverlayOpacity)
	}

	l.Background.SetMediaMuted(prefs.BgMediaMuted)
	if prefs.BgMediaPath == "" {
		l.Background.ClearMedia()
	} else {
		l.Background.SetMedia(prefs.BgMediaPath)
	}

	l.Background.SetVolume(prefs.MusicVolume)
	l.Background.SetTrackMuted(prefs.MusicMuted)
	if prefs.MusicPath == "" {
		l.Background.ClearTrack()
	} else {
		l.Background.SetTrack(prefs.MusicPath)
	}
}

// Snapshot returns the combined live state.
func (l *Layers) Snapshot() domain.Atmosphere {
	return domain.Atmosphere{
		Background: l.Background.Snapshot(),
		Overlay:    l.Overlay.Tint(),
		Reader:     l.Reader.Appearance(),
	}
}
