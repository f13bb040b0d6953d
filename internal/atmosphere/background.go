package atmosphere

import (
	"math"
	"strings"
	"sync"

	"go.uber.org/zap"

	"ambient-reader/internal/domain"
)

// Surface is the playback side of the background layer. Only Background
// calls it, so media and track handles have a single owner.
type Surface interface {
	ShowMedia(kind domain.MediaKind, path string, muted bool) error
	HideMedia() error
	SetMediaMuted(muted bool) error
	PlayTrack(path string, volume float64, muted bool) error
	StopTrack() error
	SetTrackVolume(volume float64) error
	SetTrackMuted(muted bool) error
}

// Background owns one still or motion media reference and one ambient track.
type Background struct {
	mu      sync.Mutex
	surface Surface
	log     *zap.Logger

	mediaKind  domain.MediaKind
	mediaPath  string
	mediaMuted bool

	trackPath    string
	trackVolume  float64
	trackMuted   bool
	trackPlaying bool
}

// NewBackground creates an empty background layer. Motion media starts muted
// and the ambient track starts muted at half volume.
func NewBackground(surface Surface, log *zap.Logger) *Background {
	if surface == nil {
		surface = NopSurface{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Background{
		surface:     surface,
		log:         log,
		mediaKind:   domain.MediaNone,
		mediaMuted:  true,
		trackVolume: 0.5,
		trackMuted:  true,
	}
}

// SetMedia replaces the background with path. Unsupported extensions are
// logged and leave state unchanged; the return value reports acceptance.
func (b *Background) SetMedia(path string) bool {
	path = strings.TrimSpace(path)
	kind := domain.ClassifyMedia(path)
	if kind != domain.MediaImage && kind != domain.MediaMotion {
		b.log.Warn("unsupported background media", zap.String("path", path))
		return false
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.teardownMediaLocked()
	b.mediaKind = kind
	b.mediaPath = path
	if err := b.surface.ShowMedia(kind, path, b.mediaMuted); err != nil {
		b.log.Warn("show background media failed", zap.String("path", path), zap.Error(err))
	}
	return true
}

// ClearMedia returns the background to the none sentinel.
func (b *Background) ClearMedia() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.teardownMediaLocked()
}

// SetMediaMuted toggles motion media sound. Legal with no media set.
func (b *Background) SetMediaMuted(muted bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.mediaMuted = muted
	if b.mediaKind != domain.MediaMotion {
		return
	}
	if err := b.surface.SetMediaMuted(muted); err != nil {
		b.log.Warn("mute background media failed", zap.Error(err))
	}
}

// SetTrack replaces the ambient track, keeping the configured volume and mute.
func (b *Background) SetTrack(path string) bool {
	path = strings.TrimSpace(path)
	if !domain.IsAudioTrack(path) {
		b.log.Warn("unsupported ambient track", zap.String("path", path))
		return false
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.stopTrackLocked()
	b.trackPath = path
	b.playTrackLocked()
	return true
}

// ClearTrack stops and forgets the ambient track.
func (b *Background) ClearTrack() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stopTrackLocked()
}

// SetVolume sets the ambient track volume on a 0..100 scale.
func (b *Background) SetVolume(volume int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.trackVolume = float64(domain.ClampVolume(volume)) / domain.MaxVolume
	if b.trackPath == "" {
		return
	}
	if err := b.surface.SetTrackVolume(b.trackVolume); err != nil {
		b.log.Warn("set track volume failed", zap.Error(err))
	}
}

// SetTrackMuted toggles the ambient track. Unmuting a track whose playback
// never started retries playback.
func (b *Background) SetTrackMuted(muted bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.trackMuted = muted
	if b.trackPath == "" {
		return
	}
	if !muted && !b.trackPlaying {
		b.playTrackLocked()
		return
	}
	if err := b.surface.SetTrackMuted(muted); err != nil {
		b.log.Warn("mute ambient track failed", zap.Error(err))
	}
}

// Volume returns the ambient track volume on a 0..100 scale.
func (b *Background) Volume() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.volumeLocked()
}

// Snapshot returns the observable state of the layer.
func (b *Background) Snapshot() domain.BackgroundSnapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return domain.BackgroundSnapshot{
		MediaKind:    b.mediaKind,
		MediaPath:    b.mediaPath,
		MediaMuted:   b.mediaMuted,
		TrackPath:    b.trackPath,
		TrackVolume:  b.volumeLocked(),
		TrackMuted:   b.trackMuted,
		TrackPlaying: b.trackPlaying,
	}
}

// PlaybackFailed records a playback rejection reported after the fact,
// e.g. the webview refusing autoplay.
func (b *Background) PlaybackFailed(path string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if path != b.trackPath {
		return
	}
	b.trackPlaying = false
	b.log.Warn("ambient track playback rejected", zap.String("path", path))
}

func (b *Background) volumeLocked() int {
	return int(math.Round(b.trackVolume * domain.MaxVolume))
}

// teardownMediaLocked hides the current media before anything replaces it.
func (b *Background) teardownMediaLocked() {
	if b.mediaKind == domain.MediaNone {
		return
	}
	if err := b.surface.HideMedia(); err != nil {
		b.log.Warn("hide background media failed", zap.String("path", b.mediaPath), zap.Error(err))
	}
	b.mediaKind = domain.MediaNone
	b.mediaPath = ""
}

func (b *Background) stopTrackLocked() {
	if b.trackPath == "" {
		return
	}
	if err := b.surface.StopTrack(); err != nil {
		b.log.Warn("stop ambient track failed", zap.String("path", b.trackPath), zap.Error(err))
	}
	b.trackPath = ""
	b.trackPlaying = false
}

func (b *Background) playTrackLocked() {
	err := b.surface.PlayTrack(b.trackPath, b.trackVolume, b.trackMuted)
	b.trackPlaying = err == nil
	if err != nil {
		b.log.Warn("ambient track playback failed", zap.String("path", b.trackPath), zap.Error(err))
	}
}

// NopSurface accepts every playback call. Used when no window is attached.
type NopSurface struct{}

func (NopSurface) ShowMedia(domain.MediaKind, string, bool) error { return nil }
func (NopSurface) HideMedia() error                              { return nil }
func (NopSurface) SetMediaMuted(bool) error                      { return nil }
func (NopSurface) PlayTrack(string, float64, bool) error         { return nil }
func (NopSurface) StopTrack() error                              { return nil }
func (NopSurface) SetTrackVolume(float64) error                  { return nil }
func (NopSurface) SetTrackMuted(bool) error                      { return nil }
