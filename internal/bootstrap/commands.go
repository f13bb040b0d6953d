package bootstrap

import (
	"errors"
	"fmt"

	"ambient-reader/internal/domain"
	"ambient-reader/internal/session"
	"ambient-reader/internal/storage"
)

// Bound command methods. Each one forwards a typed command to the session
// dispatcher and returns the state after it ran.

func (a *App) ListPresets() []domain.Preset {
	return a.presets.List(a.context())
}

func (a *App) ApplyPreset(name string) (session.Result, error) {
	return a.dispatch(session.ApplyPreset{Name: name})
}

func (a *App) SavePreset(name string) (session.Result, error) {
	return a.dispatch(session.SavePreset{Name: name})
}

func (a *App) DeletePreset(name string) (session.Result, error) {
	return a.dispatch(session.DeletePreset{Name: name})
}

func (a *App) SetFontSize(px int) (session.Result, error) {
	return a.dispatch(session.SetFontSize{Px: px})
}

func (a *App) SetFontFamily(family string) (session.Result, error) {
	return a.dispatch(session.SetFontFamily{Family: family})
}

func (a *App) SetTextColor(color string) (session.Result, error) {
	return a.dispatch(session.SetTextColor{Color: color})
}

func (a *App) SetContainerColor(color string) (session.Result, error) {
	return a.dispatch(session.SetContainerColor{Color: color})
}

func (a *App) SetContainerOpacity(opacity float64) (session.Result, error) {
	return a.dispatch(session.SetContainerOpacity{Opacity: opacity})
}

func (a *App) SetGlass(enabled bool) (session.Result, error) {
	return a.dispatch(session.SetGlass{Enabled: enabled})
}

func (a *App) SetGlassBlur(px int) (session.Result, error) {
	return a.dispatch(session.SetGlassBlur{Px: px})
}

func (a *App) SetScrollbarColors(track, thumb string) (session.Result, error) {
	return a.dispatch(session.SetScrollbarColors{Track: track, Thumb: thumb})
}

func (a *App) SetLayoutFlow(flow string) (session.Result, error) {
	return a.dispatch(session.SetLayoutFlow{Flow: domain.LayoutFlow(flow)})
}

func (a *App) SetTint(color string, opacity float64) (session.Result, error) {
	return a.dispatch(session.SetTint{Color: color, Opacity: opacity})
}

func (a *App) ClearTint() (session.Result, error) {
	return a.dispatch(session.ClearTint{})
}

func (a *App) SetBackground(path string) (session.Result, error) {
	return a.dispatch(session.SetMedia{Path: path})
}

func (a *App) ClearBackground() (session.Result, error) {
	return a.dispatch(session.ClearMedia{})
}

func (a *App) SetBackgroundMuted(muted bool) (session.Result, error) {
	return a.dispatch(session.SetMediaMuted{Muted: muted})
}

func (a *App) SetTrack(path string) (session.Result, error) {
	return a.dispatch(session.SetTrack{Path: path})
}

func (a *App) ClearTrack() (session.Result, error) {
	return a.dispatch(session.ClearTrack{})
}

func (a *App) SetVolume(volume int) (session.Result, error) {
	return a.dispatch(session.SetVolume{Volume: volume})
}

func (a *App) SetTrackMuted(muted bool) (session.Result, error) {
	return a.dispatch(session.SetTrackMuted{Muted: muted})
}

func (a *App) NextPage() error {
	_, err := a.dispatch(session.NextPage{})
	return err
}

func (a *App) PrevPage() error {
	_, err := a.dispatch(session.PrevPage{})
	return err
}

func (a *App) GoTo(target string) error {
	_, err := a.dispatch(session.GoTo{Target: target})
	return err
}

// PickBackground shows the media picker and sets the choice as background.
// A dismissed dialog leaves everything as it was.
func (a *App) PickBackground() (session.Result, error) {
	path, err := a.dialogs.PickMedia(a.context())
	if err != nil {
		return a.pickFailed("background", err)
	}
	return a.dispatch(session.SetMedia{Path: path})
}

// PickTrack shows the audio picker and sets the choice as ambient track.
func (a *App) PickTrack() (session.Result, error) {
	path, err := a.dialogs.PickAudio(a.context())
	if err != nil {
		return a.pickFailed("track", err)
	}
	return a.dispatch(session.SetTrack{Path: path})
}

func (a *App) pickFailed(what string, err error) (session.Result, error) {
	if errors.Is(err, storage.ErrNoSelection) {
		return a.dispatcher.Current(), nil
	}
	return a.dispatcher.Current(), fmt.Errorf("pick %s: %w", what, err)
}

func (a *App) dispatch(cmd session.Command) (session.Result, error) {
	return a.dispatcher.Dispatch(a.context(), cmd)
}
