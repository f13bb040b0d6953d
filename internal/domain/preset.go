package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

const (
	// SessionPresetName is the reserved autosave slot written on shutdown.
	SessionPresetName = "_last_session"
	// PresetSchemaVersion is stamped on every captured preset.
	PresetSchemaVersion = "2.1"
)

// ErrUnsupportedVersion is returned when a preset uses an unknown schema major.
var ErrUnsupportedVersion = errors.New("unsupported preset schema version")

// Preset is a named, versioned snapshot of the reading atmosphere.
// Nil sections and nil fields are "not specified" and leave live state alone.
type Preset struct {
	Version     string            `json:"version"`
	Name        string            `json:"name"`
	Author      string            `json:"author,omitempty"`
	Description string            `json:"description,omitempty"`
	Background  *BackgroundConfig `json:"background,omitempty"`
	Overlay     *OverlayConfig    `json:"overlay,omitempty"`
	Reader      *ReaderConfig     `json:"reader,omitempty"`
	Audio       *AudioConfig      `json:"audio,omitempty"`
	Builtin     bool              `json:"builtin,omitempty"`
	Extra       Extra             `json:"-"`
}

// BackgroundConfig selects the still or motion media behind the reader.
type BackgroundConfig struct {
	Kind  MediaKind `json:"type"`
	Path  *string   `json:"path,omitempty"`
	Muted *bool     `json:"muted,omitempty"`
	Extra Extra     `json:"-"`
}

// OverlayConfig is the tint painted over the background.
type OverlayConfig struct {
	Color   *string  `json:"color,omitempty"`
	Opacity *float64 `json:"opacity,omitempty"`
	Extra   Extra    `json:"-"`
}

// ReaderConfig carries typography and container styling.
type ReaderConfig struct {
	Opacity         *float64    `json:"opacity,omitempty"`
	BackgroundColor *string     `json:"backgroundColor,omitempty"`
	TextColor       *string     `json:"textColor,omitempty"`
	FontFamily      *string     `json:"fontFamily,omitempty"`
	FontSize        *int        `json:"fontSize,omitempty"`
	LayoutFlow      *LayoutFlow `json:"readingMode,omitempty"`
	Glass           *bool       `json:"glassmorphism,omitempty"`
	GlassBlur       *int        `json:"glassBlur,omitempty"`
	ScrollbarTrack  *string     `json:"scrollbarTrack,omitempty"`
	ScrollbarThumb  *string     `json:"scrollbarThumb,omitempty"`
	Extra           Extra       `json:"-"`
}

// AudioConfig is the ambient track captured with a preset.
type AudioConfig struct {
	Path   *string `json:"path,omitempty"`
	Volume *int    `json:"volume,omitempty"`
	Muted  *bool   `json:"muted,omitempty"`
	Extra  Extra   `json:"-"`
}

// CheckVersion accepts 1.x and 2.x schema tags.
func (p *Preset) CheckVersion() error {
	v := strings.TrimSpace(p.Version)
	if strings.HasPrefix(v, "1.") || strings.HasPrefix(v, "2.") || v == "1" || v == "2" {
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnsupportedVersion, p.Version)
}

// Normalize clamps every numeric field and sanitizes enumerations in place.
func (p *Preset) Normalize() {
	p.Name = strings.TrimSpace(p.Name)
	if p.Background != nil {
		kind := ParseMediaKind(string(p.Background.Kind))
		if p.Background.Kind == "" && p.Background.Path != nil {
			kind = ClassifyMedia(*p.Background.Path)
		}
		p.Background.Kind = kind
	}
	if o := p.Overlay; o != nil && o.Opacity != nil {
		v := ClampUnit(*o.Opacity)
		o.Opacity = &v
	}
	if r := p.Reader; r != nil {
		if r.Opacity != nil {
			v := ClampUnit(*r.Opacity)
			r.Opacity = &v
		}
		if r.FontSize != nil {
			v := ClampFontSize(*r.FontSize)
			r.FontSize = &v
		}
		if r.GlassBlur != nil {
			v := ClampGlassBlur(*r.GlassBlur)
			r.GlassBlur = &v
		}
		if r.FontFamily != nil {
			v := NormalizeFontFamily(*r.FontFamily)
			r.FontFamily = &v
		}
		if r.LayoutFlow != nil {
			v := NormalizeLayoutFlow(*r.LayoutFlow)
			r.LayoutFlow = &v
		}
	}
	if a := p.Audio; a != nil && a.Volume != nil {
		v := ClampVolume(*a.Volume)
		a.Volume = &v
	}
}

// UnmarshalJSON decodes a preset, keeping unknown members and clamping values.
func (p *Preset) UnmarshalJSON(data []byte) error {
	type plain Preset
	var decoded plain
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	extra, err := splitExtra(data, "version", "name", "author", "description",
		"background", "overlay", "reader", "audio", "builtin")
	if err != nil {
		return err
	}

	*p = Preset(decoded)
	p.Extra = extra
	p.Normalize()
	return nil
}

// MarshalJSON encodes a preset with its preserved unknown members.
func (p Preset) MarshalJSON() ([]byte, error) {
	type plain Preset
	encoded, err := json.Marshal(plain(p))
	if err != nil {
		return nil, err
	}
	return mergeExtra(encoded, p.Extra)
}

// UnmarshalJSON keeps unknown background members.
func (b *BackgroundConfig) UnmarshalJSON(data []byte) error {
	type plain BackgroundConfig
	var decoded plain
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	extra, err := splitExtra(data, "type", "path", "muted")
	if err != nil {
		return err
	}
	*b = BackgroundConfig(decoded)
	b.Extra = extra
	return nil
}

// MarshalJSON writes unknown background members back out.
func (b BackgroundConfig) MarshalJSON() ([]byte, error) {
	type plain BackgroundConfig
	encoded, err := json.Marshal(plain(b))
	if err != nil {
		return nil, err
	}
	return mergeExtra(encoded, b.Extra)
}

// UnmarshalJSON keeps unknown overlay members.
func (o *OverlayConfig) UnmarshalJSON(data []byte) error {
	type plain OverlayConfig
	var decoded plain
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	extra, err := splitExtra(data, "color", "opacity")
	if err != nil {
		return err
	}
	*o = OverlayConfig(decoded)
	o.Extra = extra
	return nil
}

// MarshalJSON writes unknown overlay members back out.
func (o OverlayConfig) MarshalJSON() ([]byte, error) {
	type plain OverlayConfig
	encoded, err := json.Marshal(plain(o))
	if err != nil {
		return nil, err
	}
	return mergeExtra(encoded, o.Extra)
}

// UnmarshalJSON keeps unknown reader members.
func (r *ReaderConfig) UnmarshalJSON(data []byte) error {
	type plain ReaderConfig
	var decoded struct {
		plain
		FontSize  *float64 `json:"fontSize"`
		GlassBlur *float64 `json:"glassBlur"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	extra, err := splitExtra(data, "opacity", "backgroundColor", "textColor", "fontFamily",
		"fontSize", "readingMode", "glassmorphism", "glassBlur", "scrollbarTrack", "scrollbarThumb")
	if err != nil {
		return err
	}
	*r = ReaderConfig(decoded.plain)
	r.FontSize = wholeNumber(decoded.FontSize)
	r.GlassBlur = wholeNumber(decoded.GlassBlur)
	r.Extra = extra
	return nil
}

// MarshalJSON writes unknown reader members back out.
func (r ReaderConfig) MarshalJSON() ([]byte, error) {
	type plain ReaderConfig
	encoded, err := json.Marshal(plain(r))
	if err != nil {
		return nil, err
	}
	return mergeExtra(encoded, r.Extra)
}

// UnmarshalJSON keeps unknown audio members.
func (a *AudioConfig) UnmarshalJSON(data []byte) error {
	type plain AudioConfig
	var decoded struct {
		plain
		Volume *float64 `json:"volume"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	extra, err := splitExtra(data, "path", "volume", "muted")
	if err != nil {
		return err
	}
	*a = AudioConfig(decoded.plain)
	a.Volume = wholeNumber(decoded.Volume)
	a.Extra = extra
	return nil
}

// MarshalJSON writes unknown audio members back out.
func (a AudioConfig) MarshalJSON() ([]byte, error) {
	type plain AudioConfig
	encoded, err := json.Marshal(plain(a))
	if err != nil {
		return nil, err
	}
	return mergeExtra(encoded, a.Extra)
}
