package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"ambient-reader/internal/atmosphere"
	"ambient-reader/internal/config"
	"ambient-reader/internal/domain"
	"ambient-reader/internal/events"
	"ambient-reader/internal/library"
	"ambient-reader/internal/preset"
	"ambient-reader/internal/render"
	"ambient-reader/internal/storage"
)

// fakeRendition records calls and fails the ones configured in failAt.
type fakeRendition struct {
	mu         sync.Mutex
	calls      []string
	open       bool
	created    bool
	token      string
	flow       domain.LayoutFlow
	typography domain.Appearance
	rendered   []string
	failAt     map[string]error
	badTokens  map[string]bool
	info       domain.DocumentInfo
}

func newFakeRendition() *fakeRendition {
	return &fakeRendition{failAt: map[string]error{}, badTokens: map[string]bool{}}
}

func (f *fakeRendition) record(call string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	return f.failAt[call]
}

func (f *fakeRendition) Open(_ context.Context, document []byte) (domain.DocumentInfo, error) {
	if err := f.record("open"); err != nil {
		return domain.DocumentInfo{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.open = true
	return f.info, nil
}

func (f *fakeRendition) Create(_ context.Context, flow domain.LayoutFlow) error {
	if err := f.record("create"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.open {
		return render.ErrNoDocument
	}
	f.created = true
	f.flow = flow
	return nil
}

func (f *fakeRendition) RenderAt(_ context.Context, token string) error {
	if err := f.record("render"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.created {
		return render.ErrNoDocument
	}
	if f.badTokens[token] {
		return errors.New("position does not resolve")
	}
	f.rendered = append(f.rendered, token)
	f.token = token
	return nil
}

func (f *fakeRendition) CurrentResumeToken() (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.created || f.token == "" {
		return "", false
	}
	return f.token, true
}

func (f *fakeRendition) Destroy(context.Context) error {
	if err := f.record("destroy"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = false
	return nil
}

func (f *fakeRendition) Close(ctx context.Context) error {
	err := f.Destroy(ctx)
	if recErr := f.record("close"); recErr != nil {
		return recErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.open = false
	f.token = ""
	return err
}

func (f *fakeRendition) SetTypography(_ context.Context, a domain.Appearance) error {
	if err := f.record("typography"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.created {
		return render.ErrNoDocument
	}
	f.typography = a
	return nil
}

func (f *fakeRendition) Next(context.Context) error { return f.record("next") }
func (f *fakeRendition) Prev(context.Context) error { return f.record("prev") }

func (f *fakeRendition) TableOfContents() []domain.TOCItem {
	return []domain.TOCItem{{Label: "Chapter 1", Target: "ch1.xhtml"}}
}

func (f *fakeRendition) relocate(token string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.token = token
}

func (f *fakeRendition) history() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeRendition) clear() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}

// failingPrefs is a preferences store whose reads and writes can fail.
type failingPrefs struct {
	storage.MemoryPreferences
	readErr  error
	writeErr error
	writes   int
}

func (p *failingPrefs) GetPreferences(ctx context.Context) (domain.PreferencesLayer, error) {
	if p.readErr != nil {
		return domain.PreferencesLayer{}, p.readErr
	}
	return p.MemoryPreferences.GetPreferences(ctx)
}

func (p *failingPrefs) SetPreferences(ctx context.Context, prefs domain.Preferences) error {
	p.writes++
	if p.writeErr != nil {
		return p.writeErr
	}
	return p.MemoryPreferences.SetPreferences(ctx, prefs)
}

type harness struct {
	o          *Orchestrator
	d          *Dispatcher
	rendition  *fakeRendition
	prefsStore *failingPrefs
	presets    *storage.MemoryPresets
	lib        *library.Store
	bus        *events.Bus
	files      map[string][]byte
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		rendition:  newFakeRendition(),
		prefsStore: &failingPrefs{},
		presets:    storage.NewMemoryPresets(),
		bus:        events.NewBus(200),
		files:      map[string][]byte{},
	}
	prefs := config.NewLive(config.DefaultPreferences(), h.prefsStore, nil)
	layers := atmosphere.NewLayers(prefs.Get(), nil, nil)
	engine := preset.NewEngine(h.presets, layers, prefs, preset.Options{MediaRoot: "/data/media", Notifier: h.bus})
	h.lib = library.NewStore(storage.NewMemoryLibrary(), library.Options{})
	progress := library.NewProgressRecorder(h.lib, time.Hour, nil)
	h.o = NewOrchestrator(layers, prefs, engine, h.lib, progress, h.rendition, h.bus, Options{
		ReadFile: func(name string) ([]byte, error) {
			data, ok := h.files[name]
			if !ok {
				return nil, errors.New("no such file")
			}
			return data, nil
		},
	})
	h.d = NewDispatcher(h.o)
	return h
}

func (h *harness) lastNotice() events.Event {
	all := h.bus.Since(0)
	for i := len(all) - 1; i >= 0; i-- {
		if all[i].Type == events.EventTypeNotice {
			return all[i]
		}
	}
	return events.Event{}
}
