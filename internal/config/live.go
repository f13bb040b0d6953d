package config

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"ambient-reader/internal/domain"
)

// Live is the single mutable preferences record for a running session. It is
// created at startup and handed by reference to every component that reads or
// writes preferences. Mutations go through Update; Flush persists.
type Live struct {
	mu    sync.RWMutex
	prefs domain.Preferences
	store Store
	log   *zap.Logger
}

// NewLive wraps an already resolved preferences record.
func NewLive(initial domain.Preferences, store Store, log *zap.Logger) *Live {
	if log == nil {
		log = zap.NewNop()
	}
	return &Live{prefs: Sanitize(initial), store: store, log: log}
}

// LoadLive reads stored preferences and resolves them over the defaults. Any
// read failure falls back to the defaults.
func LoadLive(ctx context.Context, store Store, log *zap.Logger) *Live {
	if log == nil {
		log = zap.NewNop()
	}

	base := DefaultPreferences()
	if store == nil {
		return NewLive(base, nil, log)
	}

	layer, err := store.GetPreferences(ctx)
	if err != nil {
		log.Warn("load preferences failed, using defaults", zap.Error(err))
		return NewLive(base, store, log)
	}
	return NewLive(Resolve(base, layer), store, log)
}

// Get returns a copy of the current preferences.
func (l *Live) Get() domain.Preferences {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.prefs
}

// Update mutates the preferences in place and returns the sanitized result.
func (l *Live) Update(fn func(*domain.Preferences)) domain.Preferences {
	l.mu.Lock()
	defer l.mu.Unlock()
	next := l.prefs
	fn(&next)
	l.prefs = Sanitize(next)
	return l.prefs
}

// Flush writes the current preferences through the store.
func (l *Live) Flush(ctx context.Context) error {
	if l.store == nil {
		return nil
	}
	prefs := l.Get()
	if err := l.store.SetPreferences(ctx, prefs); err != nil {
		l.log.Warn("save preferences failed", zap.Error(err))
		return fmt.Errorf("save preferences: %w", err)
	}
	return nil
}

// Reload replaces the record with stored preferences resolved over the
// defaults. On a read failure the defaults are used and the error returned.
func (l *Live) Reload(ctx context.Context) error {
	base := DefaultPreferences()
	if l.store == nil {
		l.set(base)
		return nil
	}

	layer, err := l.store.GetPreferences(ctx)
	if err != nil {
		l.log.Warn("load preferences failed, using defaults", zap.Error(err))
		l.set(base)
		return fmt.Errorf("load preferences: %w", err)
	}
	l.set(Resolve(base, layer))
	return nil
}

func (l *Live) set(p domain.Preferences) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.prefs = Sanitize(p)
}
