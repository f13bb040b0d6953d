package library

import (
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	_ "golang.org/x/image/webp" // Register WebP decoder
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"ambient-reader/internal/domain"
)

var upper = cases.Upper(language.Und)

// Cover decides what the library view paints for an entry: the stored cover
// when it resolves, otherwise a placeholder derived from the title.
func (s *Store) Cover(entry domain.LibraryEntry) domain.CoverView {
	if entry.CoverRef != "" && coverResolves(entry.CoverRef) {
		return domain.CoverView{Path: entry.CoverRef, BlurHash: entry.CoverBlurHash}
	}
	placeholder := Placeholder(entry.Title)
	return domain.CoverView{BlurHash: entry.CoverBlurHash, Placeholder: &placeholder}
}

// Placeholder builds a stable gradient and glyph from a title. The same title
// always yields the same placeholder.
func Placeholder(title string) domain.CoverPlaceholder {
	title = strings.TrimSpace(title)

	var h uint32
	for _, c := range title {
		h = 31*h + uint32(c)
	}
	hue := int(h % 360)

	glyph := "?"
	if r, _ := utf8.DecodeRuneInString(title); r != utf8.RuneError {
		glyph = upper.String(string(r))
	}

	return domain.CoverPlaceholder{
		Glyph:     glyph,
		Hue:       hue,
		FromColor: hslHex(float64(hue), 0.45, 0.55),
		ToColor:   hslHex(float64((hue+40)%360), 0.5, 0.3),
	}
}

// coverResolves reports whether a cover file exists and decodes.
func coverResolves(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() || info.Size() == 0 {
		return false
	}
	if strings.EqualFold(filepath.Ext(path), ".svg") {
		return true
	}

	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	_, _, err = image.DecodeConfig(f)
	return err == nil
}

func hslHex(h, s, l float64) string {
	r, g, b := hslToRGB(h, s, l)
	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}

// hslToRGB converts h in degrees and s, l in 0..1 to 8-bit channels.
func hslToRGB(h, s, l float64) (r, g, b uint8) {
	h /= 360.0

	var r1, g1, b1 float64
	if s == 0 {
		r1, g1, b1 = l, l, l
	} else {
		var q float64
		if l < 0.5 {
			q = l * (1 + s)
		} else {
			q = l + s - l*s
		}
		p := 2*l - q

		r1 = hueToRGB(p, q, h+1.0/3.0)
		g1 = hueToRGB(p, q, h)
		b1 = hueToRGB(p, q, h-1.0/3.0)
	}

	return uint8(r1 * 255), uint8(g1 * 255), uint8(b1 * 255)
}

func hueToRGB(p, q, t float64) float64 {
	if t < 0 {
		t++
	}
	if t > 1 {
		t--
	}
	switch {
	case t < 1.0/6.0:
		return p + (q-p)*6*t
	case t < 1.0/2.0:
		return q
	case t < 2.0/3.0:
		return p + (q-p)*(2.0/3.0-t)*6
	default:
		return p
	}
}
