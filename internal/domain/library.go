package domain

import "time"

// LibraryEntry is one tracked book.
type LibraryEntry struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Author        string    `json:"author"`
	FilePath      string    `json:"filePath"`
	CoverRef      string    `json:"coverPath,omitempty"`
	CoverBlurHash string    `json:"coverBlurHash,omitempty"`
	LastOpened    time.Time `json:"lastOpened"`
	Progress      float64   `json:"progress"`
	LastLocation  string    `json:"cfi,omitempty"`
}

// BookMeta is what the caller knows about a book when it is opened.
type BookMeta struct {
	Title         string `json:"title"`
	Author        string `json:"author"`
	CoverRef      string `json:"coverRef,omitempty"`
	CoverBlurHash string `json:"coverBlurHash,omitempty"`
}

// CoverPlaceholder is the generated stand-in for a missing cover.
type CoverPlaceholder struct {
	Glyph     string `json:"glyph"`
	Hue       int    `json:"hue"`
	FromColor string `json:"fromColor"`
	ToColor   string `json:"toColor"`
}

// CoverView tells the library view what to paint for one entry.
type CoverView struct {
	Path        string            `json:"path,omitempty"`
	BlurHash    string            `json:"blurHash,omitempty"`
	Placeholder *CoverPlaceholder `json:"placeholder,omitempty"`
}

// TOCItem is one table of contents node. Target is opaque to the core.
type TOCItem struct {
	Label    string    `json:"label"`
	Target   string    `json:"target"`
	Children []TOCItem `json:"children,omitempty"`
}

// DocumentInfo is what the rendering engine reports after opening a book.
type DocumentInfo struct {
	Title    string `json:"title"`
	Author   string `json:"author"`
	CoverRef string `json:"coverRef,omitempty"`
}
