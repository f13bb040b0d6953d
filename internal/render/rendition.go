// Package render connects the reading core to the document engine running in
// the frontend. Documents, resume tokens and TOC targets are opaque here.
package render

import (
	"context"
	"errors"

	"ambient-reader/internal/domain"
)

var (
	// ErrNoDocument is returned when an operation needs an open document.
	ErrNoDocument = errors.New("no document open")
	// ErrNotReady is returned before the frontend is attached.
	ErrNotReady = errors.New("renderer not ready")
	// ErrTimeout is returned when the frontend does not answer in time.
	ErrTimeout = errors.New("renderer did not respond")
)

// Rendition is the document engine as the core sees it.
type Rendition interface {
	// Open loads a document and reports what the engine found in it.
	Open(ctx context.Context, document []byte) (domain.DocumentInfo, error)
	// Create builds a rendering surface for the open document.
	Create(ctx context.Context, flow domain.LayoutFlow) error
	// RenderAt displays the position named by token; empty means the start.
	RenderAt(ctx context.Context, token string) error
	// CurrentResumeToken returns the last position the engine reported.
	CurrentResumeToken() (string, bool)
	// Destroy tears the rendering surface down. The document stays loaded.
	Destroy(ctx context.Context) error
	// Close destroys the surface and unloads the document.
	Close(ctx context.Context) error
	SetTypography(ctx context.Context, appearance domain.Appearance) error
	Next(ctx context.Context) error
	Prev(ctx context.Context) error
	TableOfContents() []domain.TOCItem
}
