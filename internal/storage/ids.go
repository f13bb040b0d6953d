package storage

import (
	"path/filepath"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
)

// CanonicalPath cleans a book path and makes it absolute when possible.
func CanonicalPath(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return ""
	}
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}

// EntryID derives the stable library id for a book file. Two opens of the
// same file always map to one entry.
func EntryID(path string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("file://"+filepath.ToSlash(CanonicalPath(path)))).String()
}

// PresetSlug is the file stem a preset name is stored under. Accents are
// stripped, letters lowered and runs of anything else become one hyphen.
func PresetSlug(name string) string {
	var b strings.Builder
	pendingHyphen := false
	for _, r := range norm.NFKD.String(strings.TrimSpace(name)) {
		switch {
		case unicode.Is(unicode.Mn, r):
			continue
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'):
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(unicode.ToLower(r))
		default:
			pendingHyphen = true
		}
	}
	if b.Len() == 0 {
		return "preset"
	}
	return b.String()
}

// presetNameSuffix tells apart preset names that share a slug.
func presetNameSuffix(name string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(strings.TrimSpace(name))).String()[:8]
}
