package domain

import (
	"path/filepath"
	"strings"
)

// MediaKind classifies a background media reference.
type MediaKind string

const (
	MediaNone        MediaKind = "none"
	MediaImage       MediaKind = "image"
	MediaMotion      MediaKind = "motion"
	MediaUnsupported MediaKind = "unsupported"
)

var imageExtensions = map[string]struct{}{
	".jpg": {}, ".jpeg": {}, ".png": {}, ".gif": {}, ".webp": {}, ".bmp": {}, ".svg": {},
}

var motionExtensions = map[string]struct{}{
	".mp4": {}, ".webm": {}, ".mov": {}, ".avi": {}, ".mkv": {},
}

var audioExtensions = map[string]struct{}{
	".mp3": {}, ".wav": {}, ".ogg": {}, ".flac": {}, ".aac": {}, ".m4a": {}, ".wma": {},
}

// ClassifyMedia maps a path to a background media kind by its extension.
func ClassifyMedia(path string) MediaKind {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return MediaNone
	}

	ext := strings.ToLower(filepath.Ext(trimmed))
	if _, ok := imageExtensions[ext]; ok {
		return MediaImage
	}
	if _, ok := motionExtensions[ext]; ok {
		return MediaMotion
	}
	return MediaUnsupported
}

// IsAudioTrack reports whether path has a playable ambient audio extension.
func IsAudioTrack(path string) bool {
	ext := strings.ToLower(filepath.Ext(strings.TrimSpace(path)))
	_, ok := audioExtensions[ext]
	return ok
}

// ParseMediaKind normalizes persisted kind names. Older presets used "video".
func ParseMediaKind(raw string) MediaKind {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "none":
		return MediaNone
	case "image":
		return MediaImage
	case "motion", "video":
		return MediaMotion
	default:
		return MediaUnsupported
	}
}

// BackgroundOption is one selectable image from the backgrounds folder.
type BackgroundOption struct {
	Name    string    `json:"name"`
	Path    string    `json:"path"`
	Kind    MediaKind `json:"kind"`
	Builtin bool      `json:"builtin"`
}
