// Package ingest extracts metadata and a cover from a book the first time it
// is added to the library.
package ingest

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"os"
	"path/filepath"
	"strings"

	"github.com/bbrks/go-blurhash"
	"go.uber.org/zap"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder

	"ambient-reader/internal/domain"
)

// Pipeline stages, in the order they run.
const (
	StageReading  = "reading"
	StageMetadata = "metadata"
	StageCover    = "cover"
	StageBlurHash = "blurhash"
)

// blurHashSize bounds the thumbnail the hash is computed from.
const blurHashSize = 64

// Request describes one book to ingest.
type Request struct {
	ID      string
	Path    string
	Meta    domain.BookMeta
	OnStage func(stage string)
}

// Result is the metadata after ingest. Warnings hold failures of the optional
// stages; the matching fields are left as they were.
type Result struct {
	Meta     domain.BookMeta
	Warnings []*Error
}

// Error is a stage-aware ingest failure.
type Error struct {
	Stage   string `json:"stage"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Error formats ingest failures for logs and UI.
func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Stage, e.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.Stage, e.Message, e.Err)
}

// Unwrap exposes underlying error for errors.Is / errors.As.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Pipeline reads EPUB containers and stores their covers.
type Pipeline struct {
	coversDir string
	log       *zap.Logger
	mkdirAll  func(path string, perm os.FileMode) error
	writeFile func(name string, data []byte, perm os.FileMode) error
}

// NewPipeline constructs the production pipeline writing covers to coversDir.
func NewPipeline(coversDir string, log *zap.Logger) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	return &Pipeline{
		coversDir: coversDir,
		log:       log,
		mkdirAll:  os.MkdirAll,
		writeFile: os.WriteFile,
	}
}

// Run performs every stage. Only a failure to read the container is returned
// as an error.
func (p *Pipeline) Run(ctx context.Context, req Request) (Result, error) {
	result := Result{Meta: req.Meta}
	if strings.TrimSpace(req.Path) == "" {
		return result, &Error{Stage: StageReading, Message: "book path is required"}
	}
	if err := ctx.Err(); err != nil {
		return result, &Error{Stage: StageReading, Message: "cancelled", Err: err}
	}

	emitStage(req.OnStage, StageReading)
	b, err := openBook(req.Path)
	if err != nil {
		return result, &Error{
			Stage:   StageReading,
			Message: fmt.Sprintf("cannot read book: %s", req.Path),
			Err:     err,
		}
	}
	defer b.Close()

	emitStage(req.OnStage, StageMetadata)
	if strings.TrimSpace(result.Meta.Title) == "" {
		result.Meta.Title = b.title()
	}
	if strings.TrimSpace(result.Meta.Author) == "" {
		result.Meta.Author = b.author()
	}

	if result.Meta.CoverRef != "" || p.coversDir == "" || req.ID == "" {
		return result, nil
	}

	emitStage(req.OnStage, StageCover)
	item, ok := b.coverItem()
	if !ok {
		return result, nil
	}
	data, err := b.readItem(item)
	if err != nil {
		result.Warnings = append(result.Warnings, &Error{Stage: StageCover, Message: "cannot read cover", Err: err})
		return result, nil
	}
	coverPath, err := p.storeCover(req.ID, coverExt(item.MediaType, item.Href), data)
	if err != nil {
		result.Warnings = append(result.Warnings, &Error{Stage: StageCover, Message: "cannot store cover", Err: err})
		return result, nil
	}
	result.Meta.CoverRef = coverPath

	emitStage(req.OnStage, StageBlurHash)
	hash, err := computeBlurHash(data)
	if err != nil {
		result.Warnings = append(result.Warnings, &Error{Stage: StageBlurHash, Message: "cannot hash cover", Err: err})
		return result, nil
	}
	result.Meta.CoverBlurHash = hash
	return result, nil
}

// Enrich runs the pipeline for a newly added book and returns whatever it
// managed to extract. Failures are logged and leave meta untouched.
func (p *Pipeline) Enrich(ctx context.Context, id, path string, meta domain.BookMeta) domain.BookMeta {
	result, err := p.Run(ctx, Request{
		ID:   id,
		Path: path,
		Meta: meta,
		OnStage: func(stage string) {
			p.log.Debug("ingest stage", zap.String("id", id), zap.String("stage", stage))
		},
	})
	if err != nil {
		p.log.Warn("ingest failed", zap.String("path", path), zap.Error(err))
		return meta
	}
	for _, w := range result.Warnings {
		p.log.Warn("ingest stage failed", zap.String("path", path), zap.String("stage", w.Stage), zap.Error(w))
	}
	return result.Meta
}

func (p *Pipeline) storeCover(id, ext string, data []byte) (string, error) {
	if err := p.mkdirAll(p.coversDir, 0o755); err != nil {
		return "", fmt.Errorf("create covers directory: %w", err)
	}
	target := filepath.Join(p.coversDir, id+"."+ext)
	if err := p.writeFile(target, data, 0o644); err != nil {
		return "", fmt.Errorf("write cover: %w", err)
	}
	return target, nil
}

// computeBlurHash hashes a downscaled copy of the cover with 4x3 components.
func computeBlurHash(data []byte) (string, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("decode image: %w", err)
	}
	hash, err := blurhash.Encode(4, 3, thumbnail(img))
	if err != nil {
		return "", fmt.Errorf("encode blurhash: %w", err)
	}
	return hash, nil
}

func thumbnail(img image.Image) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= blurHashSize && h <= blurHashSize {
		return img
	}

	dw, dh := blurHashSize, blurHashSize
	if w > h {
		dh = max(1, h*blurHashSize/w)
	} else {
		dw = max(1, w*blurHashSize/h)
	}
	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, bounds, draw.Src, nil)
	return dst
}

// emitStage forwards stage updates when callback is configured.
func emitStage(cb func(stage string), stage string) {
	if cb != nil {
		cb(stage)
	}
}
