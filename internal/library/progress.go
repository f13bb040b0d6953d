package library

import (
	"context"
	"sync"
	"time"

	"github.com/bep/debounce"
	"go.uber.org/zap"
)

// DefaultProgressWindow is how long navigation has to settle before its
// position is written.
const DefaultProgressWindow = 2 * time.Second

type progressEvent struct {
	id       string
	token    string
	fraction float64
}

// ProgressRecorder coalesces navigation events into one write per quiet
// window. Only the latest event survives; superseded ones are dropped.
type ProgressRecorder struct {
	store     *Store
	debounced func(f func())
	log       *zap.Logger

	mu      sync.Mutex
	pending *progressEvent
}

// NewProgressRecorder creates a recorder writing through store.
func NewProgressRecorder(store *Store, window time.Duration, log *zap.Logger) *ProgressRecorder {
	if window <= 0 {
		window = DefaultProgressWindow
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &ProgressRecorder{
		store:     store,
		debounced: debounce.New(window),
		log:       log,
	}
}

// Record schedules a write. Events for an empty id are ignored. A pending
// event for a different book is written first so switching books loses
// nothing.
func (r *ProgressRecorder) Record(id, token string, fraction float64) {
	if id == "" {
		return
	}

	r.mu.Lock()
	previous := r.pending
	r.pending = &progressEvent{id: id, token: token, fraction: fraction}
	r.mu.Unlock()

	if previous != nil && previous.id != id {
		r.write(context.Background(), previous)
	}
	r.debounced(r.fire)
}

// Flush writes the pending event now, if there is one.
func (r *ProgressRecorder) Flush(ctx context.Context) error {
	event := r.take()
	if event == nil {
		return nil
	}
	return r.write(ctx, event)
}

// Pending reports whether an event is waiting for its window to close.
func (r *ProgressRecorder) Pending() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pending != nil
}

func (r *ProgressRecorder) fire() {
	if event := r.take(); event != nil {
		_ = r.write(context.Background(), event)
	}
}

func (r *ProgressRecorder) take() *progressEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	event := r.pending
	r.pending = nil
	return event
}

func (r *ProgressRecorder) write(ctx context.Context, event *progressEvent) error {
	err := r.store.RecordProgress(ctx, event.id, event.token, event.fraction)
	if err != nil {
		r.log.Warn("save progress failed", zap.String("id", event.id), zap.Error(err))
	}
	return err
}
