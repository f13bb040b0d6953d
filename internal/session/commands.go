package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"ambient-reader/internal/domain"
	"ambient-reader/internal/events"
	"ambient-reader/internal/render"
)

// ErrRejected is returned when a command is refused as malformed input.
var ErrRejected = errors.New("command rejected")

// Command is a user action routed through the Dispatcher.
type Command interface {
	command() string
}

type (
	ApplyPreset  struct{ Name string }
	SavePreset   struct{ Name string }
	DeletePreset struct{ Name string }

	SetFontSize         struct{ Px int }
	SetFontFamily       struct{ Family string }
	SetTextColor        struct{ Color string }
	SetContainerColor   struct{ Color string }
	SetContainerOpacity struct{ Opacity float64 }
	SetGlass            struct{ Enabled bool }
	SetGlassBlur        struct{ Px int }
	SetScrollbarColors  struct{ Track, Thumb string }
	SetLayoutFlow       struct{ Flow domain.LayoutFlow }

	SetTint struct {
		Color   string
		Opacity float64
	}
	ClearTint struct{}

	SetMedia      struct{ Path string }
	ClearMedia    struct{}
	SetMediaMuted struct{ Muted bool }
	SetTrack      struct{ Path string }
	ClearTrack    struct{}
	SetVolume     struct{ Volume int }
	SetTrackMuted struct{ Muted bool }

	NextPage struct{}
	PrevPage struct{}
	GoTo     struct{ Target string }
)

func (ApplyPreset) command() string         { return "apply_preset" }
func (SavePreset) command() string          { return "save_preset" }
func (DeletePreset) command() string        { return "delete_preset" }
func (SetFontSize) command() string         { return "set_font_size" }
func (SetFontFamily) command() string       { return "set_font_family" }
func (SetTextColor) command() string        { return "set_text_color" }
func (SetContainerColor) command() string   { return "set_container_color" }
func (SetContainerOpacity) command() string { return "set_container_opacity" }
func (SetGlass) command() string            { return "set_glass" }
func (SetGlassBlur) command() string        { return "set_glass_blur" }
func (SetScrollbarColors) command() string  { return "set_scrollbar_colors" }
func (SetLayoutFlow) command() string       { return "set_layout_flow" }
func (SetTint) command() string             { return "set_tint" }
func (ClearTint) command() string           { return "clear_tint" }
func (SetMedia) command() string            { return "set_media" }
func (ClearMedia) command() string          { return "clear_media" }
func (SetMediaMuted) command() string       { return "set_media_muted" }
func (SetTrack) command() string            { return "set_track" }
func (ClearTrack) command() string          { return "clear_track" }
func (SetVolume) command() string           { return "set_volume" }
func (SetTrackMuted) command() string       { return "set_track_muted" }
func (NextPage) command() string            { return "next_page" }
func (PrevPage) command() string            { return "prev_page" }
func (GoTo) command() string                { return "go_to" }

// Result is the state after a command ran.
type Result struct {
	Atmosphere  domain.Atmosphere  `json:"atmosphere"`
	Preferences domain.Preferences `json:"preferences"`
	Presets     []domain.Preset    `json:"presets,omitempty"`
}

// Dispatcher is the single consumer of user commands. It routes each one to
// its state holder, keeps the preferences in sync and writes them.
type Dispatcher struct {
	o *Orchestrator
}

// NewDispatcher creates a dispatcher over a session.
func NewDispatcher(o *Orchestrator) *Dispatcher {
	return &Dispatcher{o: o}
}

// Dispatch runs one command. Rejections surface as notices and leave the
// state as it was.
func (d *Dispatcher) Dispatch(ctx context.Context, cmd Command) (Result, error) {
	if cmd == nil {
		return d.result(false), fmt.Errorf("%w: nil command", ErrRejected)
	}
	o := d.o
	log := o.log.With(zap.String("command", cmd.command()))
	reader := o.layers.Reader
	overlay := o.layers.Overlay
	background := o.layers.Background

	restyle := false
	presetsChanged := false

	switch c := cmd.(type) {
	case ApplyPreset:
		before := reader.Appearance().LayoutFlow
		if !o.presets.Apply(ctx, c.Name) {
			return d.result(false), fmt.Errorf("%w: preset %q", ErrRejected, c.Name)
		}
		if after := reader.Appearance().LayoutFlow; after != before {
			reader.SetLayoutFlow(before)
			if err := o.flow.Transition(ctx, after); err != nil {
				log.Warn("preset layout change failed", zap.Error(err))
			}
		}
		restyle = true
		o.bus.Publish(events.Event{Type: events.EventTypePresets, Preset: c.Name, Message: "applied"})
	case SavePreset:
		if _, err := o.presets.SaveNamed(ctx, c.Name); err != nil {
			return d.result(false), err
		}
		presetsChanged = true
	case DeletePreset:
		if err := o.presets.Delete(ctx, c.Name); err != nil {
			return d.result(false), err
		}
		presetsChanged = true

	case SetFontSize:
		reader.SetFontSize(c.Px)
		restyle = true
	case SetFontFamily:
		reader.SetFontFamily(c.Family)
		restyle = true
	case SetTextColor:
		reader.SetTextColor(c.Color)
		restyle = true
	case SetContainerColor:
		reader.SetBackgroundColor(c.Color)
		restyle = true
	case SetContainerOpacity:
		reader.SetOpacity(c.Opacity)
		restyle = true
	case SetGlass:
		reader.SetGlass(c.Enabled)
		restyle = true
	case SetGlassBlur:
		reader.SetGlassBlur(c.Px)
		restyle = true
	case SetScrollbarColors:
		reader.SetScrollbarColors(c.Track, c.Thumb)
		restyle = true
	case SetLayoutFlow:
		if err := o.flow.Transition(ctx, c.Flow); err != nil {
			if errors.Is(err, ErrTransitionInProgress) {
				o.bus.Notify(events.LevelWarning, "Layout is still changing")
			}
			return d.result(false), err
		}
		o.bus.Publish(events.Event{Type: events.EventTypeLayout, Flow: reader.Appearance().LayoutFlow})
		return d.result(false), nil

	case SetTint:
		overlay.SetTint(c.Color, c.Opacity)
	case ClearTint:
		overlay.ClearTint()

	case SetMedia:
		if !background.SetMedia(c.Path) {
			o.bus.Notify(events.LevelWarning, "Unsupported background file")
			return d.result(false), fmt.Errorf("%w: background %q", ErrRejected, c.Path)
		}
	case ClearMedia:
		background.ClearMedia()
	case SetMediaMuted:
		background.SetMediaMuted(c.Muted)
	case SetTrack:
		if !background.SetTrack(c.Path) {
			o.bus.Notify(events.LevelWarning, "Unsupported audio file")
			return d.result(false), fmt.Errorf("%w: track %q", ErrRejected, c.Path)
		}
	case ClearTrack:
		background.ClearTrack()
	case SetVolume:
		background.SetVolume(c.Volume)
	case SetTrackMuted:
		background.SetTrackMuted(c.Muted)

	case NextPage:
		return d.result(false), d.navigate(ctx, o.rendition.Next)
	case PrevPage:
		return d.result(false), d.navigate(ctx, o.rendition.Prev)
	case GoTo:
		target := strings.TrimSpace(c.Target)
		return d.result(false), d.navigate(ctx, func(ctx context.Context) error {
			return o.rendition.RenderAt(ctx, target)
		})

	default:
		return d.result(false), fmt.Errorf("%w: unknown command %T", ErrRejected, cmd)
	}

	if restyle {
		d.restyle(ctx)
	}
	o.syncPreferences()
	if err := o.prefs.Flush(ctx); err != nil {
		o.bus.Notify(events.LevelWarning, "Preferences could not be saved")
	}

	snapshot := o.layers.Snapshot()
	o.bus.Publish(events.Event{Type: events.EventTypeAtmosphere, Atmosphere: &snapshot})
	return d.result(presetsChanged), nil
}

// Current returns the state without running a command.
func (d *Dispatcher) Current() Result {
	return d.result(false)
}

// restyle pushes reader styling to an open document.
func (d *Dispatcher) restyle(ctx context.Context) {
	err := d.o.rendition.SetTypography(ctx, d.o.layers.Reader.Appearance())
	if err != nil && !errors.Is(err, render.ErrNoDocument) {
		d.o.log.Warn("apply typography failed", zap.Error(err))
	}
}

func (d *Dispatcher) navigate(ctx context.Context, step func(context.Context) error) error {
	err := step(ctx)
	if err != nil && !errors.Is(err, render.ErrNoDocument) {
		d.o.log.Warn("navigation failed", zap.Error(err))
	}
	return err
}

func (d *Dispatcher) result(withPresets bool) Result {
	r := Result{
		Atmosphere:  d.o.layers.Snapshot(),
		Preferences: d.o.prefs.Get(),
	}
	if withPresets {
		r.Presets = d.o.presets.List(context.Background())
		d.o.bus.Publish(events.Event{Type: events.EventTypePresets, Message: "changed"})
	}
	return r
}
