package render

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ambient-reader/internal/domain"
)

// Frontend event names. Requests carry a Request payload and are answered
// through Bridge.Resolve; notifications expect no answer.
const (
	EventOpen       = "render:open"
	EventCreate     = "render:create"
	EventDisplay    = "render:display"
	EventDestroy    = "render:destroy"
	EventTypography = "render:typography"
	EventNext       = "render:next"
	EventPrev       = "render:prev"

	EventMediaShow   = "atmosphere:media:show"
	EventMediaHide   = "atmosphere:media:hide"
	EventMediaMuted  = "atmosphere:media:muted"
	EventTrackPlay   = "atmosphere:track:play"
	EventTrackStop   = "atmosphere:track:stop"
	EventTrackVolume = "atmosphere:track:volume"
	EventTrackMuted  = "atmosphere:track:muted"
)

// DefaultTimeout bounds how long a request waits for the frontend.
const DefaultTimeout = 10 * time.Second

// EmitFunc sends one event to the frontend. runtime.EventsEmit fits.
type EmitFunc func(ctx context.Context, eventName string, optionalData ...interface{})

// Request is the payload of every request event.
type Request struct {
	ID      string `json:"id"`
	Payload any    `json:"payload,omitempty"`
}

// Reply is what the frontend sends back for a request.
type Reply struct {
	ID    string               `json:"id"`
	Error string               `json:"error,omitempty"`
	Info  *domain.DocumentInfo `json:"info,omitempty"`
	TOC   []domain.TOCItem     `json:"toc,omitempty"`
}

type mediaPayload struct {
	Kind  domain.MediaKind `json:"kind"`
	Path  string           `json:"path"`
	Muted bool             `json:"muted"`
}

type trackPayload struct {
	Path   string  `json:"path"`
	Volume float64 `json:"volume"`
	Muted  bool    `json:"muted"`
}

// Bridge drives the frontend document engine and playback elements over
// events. It implements Rendition and the background playback surface.
type Bridge struct {
	emit    EmitFunc
	timeout time.Duration
	log     *zap.Logger

	mu       sync.Mutex
	ctx      context.Context
	pending  map[string]chan Reply
	open     bool
	created  bool
	token    string
	fraction float64
	toc      []domain.TOCItem
	onMove   func(token string, fraction float64)
}

// NewBridge creates a bridge that is not attached yet.
func NewBridge(emit EmitFunc, timeout time.Duration, log *zap.Logger) *Bridge {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Bridge{
		emit:    emit,
		timeout: timeout,
		log:     log,
		pending: make(map[string]chan Reply),
	}
}

// Attach binds the bridge to the application context events are sent on.
func (b *Bridge) Attach(ctx context.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ctx = ctx
}

// OnLocation registers the callback for position reports.
func (b *Bridge) OnLocation(fn func(token string, fraction float64)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onMove = fn
}

// Resolve delivers a frontend reply. Bound to the frontend.
func (b *Bridge) Resolve(reply Reply) {
	b.mu.Lock()
	ch, ok := b.pending[reply.ID]
	delete(b.pending, reply.ID)
	b.mu.Unlock()

	if !ok {
		b.log.Debug("reply without pending request", zap.String("id", reply.ID))
		return
	}
	ch <- reply
}

// ReportLocation records the position the engine is showing. Bound to the
// frontend; fires on every relocation.
func (b *Bridge) ReportLocation(token string, fraction float64) {
	b.mu.Lock()
	if !b.open {
		b.mu.Unlock()
		return
	}
	b.token = token
	b.fraction = domain.ClampUnit(fraction)
	fn := b.onMove
	b.mu.Unlock()

	if fn != nil {
		fn(token, domain.ClampUnit(fraction))
	}
}

func (b *Bridge) Open(ctx context.Context, document []byte) (domain.DocumentInfo, error) {
	if len(document) == 0 {
		return domain.DocumentInfo{}, errors.New("document is empty")
	}
	reply, err := b.call(ctx, EventOpen, document)
	if err != nil {
		return domain.DocumentInfo{}, err
	}

	b.mu.Lock()
	b.open = true
	b.created = false
	b.token = ""
	b.fraction = 0
	b.toc = reply.TOC
	b.mu.Unlock()

	if reply.Info == nil {
		return domain.DocumentInfo{}, nil
	}
	return *reply.Info, nil
}

func (b *Bridge) Create(ctx context.Context, flow domain.LayoutFlow) error {
	if !b.isOpen() {
		return ErrNoDocument
	}
	if _, err := b.call(ctx, EventCreate, map[string]any{"flow": domain.NormalizeLayoutFlow(flow)}); err != nil {
		return err
	}
	b.mu.Lock()
	b.created = true
	b.mu.Unlock()
	return nil
}

func (b *Bridge) RenderAt(ctx context.Context, token string) error {
	if err := b.requireSurface(); err != nil {
		return err
	}
	_, err := b.call(ctx, EventDisplay, map[string]any{"target": token})
	return err
}

func (b *Bridge) CurrentResumeToken() (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.open || !b.created || b.token == "" {
		return "", false
	}
	return b.token, true
}

func (b *Bridge) Destroy(ctx context.Context) error {
	b.mu.Lock()
	created := b.created
	b.created = false
	b.mu.Unlock()
	if !created {
		return nil
	}
	_, err := b.call(ctx, EventDestroy, nil)
	return err
}

// Close forgets the open document after destroying its surface.
func (b *Bridge) Close(ctx context.Context) error {
	err := b.Destroy(ctx)
	b.mu.Lock()
	b.open = false
	b.token = ""
	b.fraction = 0
	b.toc = nil
	b.mu.Unlock()
	return err
}

func (b *Bridge) SetTypography(ctx context.Context, appearance domain.Appearance) error {
	if err := b.requireSurface(); err != nil {
		return err
	}
	_, err := b.call(ctx, EventTypography, appearance)
	return err
}

func (b *Bridge) Next(ctx context.Context) error {
	if err := b.requireSurface(); err != nil {
		return err
	}
	_, err := b.call(ctx, EventNext, nil)
	return err
}

func (b *Bridge) Prev(ctx context.Context) error {
	if err := b.requireSurface(); err != nil {
		return err
	}
	_, err := b.call(ctx, EventPrev, nil)
	return err
}

func (b *Bridge) TableOfContents() []domain.TOCItem {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]domain.TOCItem(nil), b.toc...)
}

func (b *Bridge) ShowMedia(kind domain.MediaKind, path string, muted bool) error {
	return b.notify(EventMediaShow, mediaPayload{Kind: kind, Path: path, Muted: muted})
}

func (b *Bridge) HideMedia() error {
	return b.notify(EventMediaHide, nil)
}

func (b *Bridge) SetMediaMuted(muted bool) error {
	return b.notify(EventMediaMuted, muted)
}

// PlayTrack waits for the frontend so a refused autoplay comes back as an
// error.
func (b *Bridge) PlayTrack(path string, volume float64, muted bool) error {
	_, err := b.call(context.Background(), EventTrackPlay, trackPayload{Path: path, Volume: volume, Muted: muted})
	return err
}

func (b *Bridge) StopTrack() error {
	return b.notify(EventTrackStop, nil)
}

func (b *Bridge) SetTrackVolume(volume float64) error {
	return b.notify(EventTrackVolume, volume)
}

func (b *Bridge) SetTrackMuted(muted bool) error {
	return b.notify(EventTrackMuted, muted)
}

func (b *Bridge) isOpen() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.open
}

func (b *Bridge) requireSurface() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.open || !b.created {
		return ErrNoDocument
	}
	return nil
}

func (b *Bridge) appContext() (context.Context, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.ctx == nil || b.emit == nil {
		return nil, ErrNotReady
	}
	return b.ctx, nil
}

// notify sends an event that expects no reply.
func (b *Bridge) notify(event string, payload any) error {
	appCtx, err := b.appContext()
	if err != nil {
		return err
	}
	b.emit(appCtx, event, payload)
	return nil
}

// call sends a request and waits for its reply, the timeout or ctx.
func (b *Bridge) call(ctx context.Context, event string, payload any) (Reply, error) {
	appCtx, err := b.appContext()
	if err != nil {
		return Reply{}, err
	}

	id := uuid.NewString()
	ch := make(chan Reply, 1)
	b.mu.Lock()
	b.pending[id] = ch
	b.mu.Unlock()

	forget := func() {
		b.mu.Lock()
		delete(b.pending, id)
		b.mu.Unlock()
	}

	b.emit(appCtx, event, Request{ID: id, Payload: payload})

	timer := time.NewTimer(b.timeout)
	defer timer.Stop()

	select {
	case reply := <-ch:
		if reply.Error != "" {
			return reply, fmt.Errorf("%s: %s", event, reply.Error)
		}
		return reply, nil
	case <-timer.C:
		forget()
		return Reply{}, fmt.Errorf("%s: %w", event, ErrTimeout)
	case <-ctx.Done():
		forget()
		return Reply{}, ctx.Err()
	}
}
