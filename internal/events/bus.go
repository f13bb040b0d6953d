// Package events carries user-visible notices and state changes to the window.
package events

import (
	"sync"
	"time"

	"ambient-reader/internal/domain"
)

// EventType classifies messages pushed to the UI.
type EventType string

const (
	EventTypeNotice     EventType = "notice"
	EventTypeAtmosphere EventType = "atmosphere"
	EventTypePresets    EventType = "presets"
	EventTypeLibrary    EventType = "library"
	EventTypeLayout     EventType = "layout"
)

// Level is the severity of a notice.
type Level string

const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Event is a sequenced payload consumed by UI subscribers.
type Event struct {
	Seq        int64              `json:"seq"`
	Timestamp  time.Time          `json:"timestamp"`
	Type       EventType          `json:"type"`
	Level      Level              `json:"level,omitempty"`
	Message    string             `json:"message,omitempty"`
	Preset     string             `json:"preset,omitempty"`
	BookID     string             `json:"bookId,omitempty"`
	Flow       domain.LayoutFlow  `json:"flow,omitempty"`
	Atmosphere *domain.Atmosphere `json:"atmosphere,omitempty"`
}

// Bus keeps a fixed ring of recent events for polling readers and pushes
// each event to an optional sink. Atmosphere events carry a full snapshot,
// so a reader catching up only gets the newest one.
type Bus struct {
	mu      sync.RWMutex
	nextSeq int64
	ring    []Event
	head    int
	size    int
	// lastAtmosphere is the sequence of the newest atmosphere snapshot.
	lastAtmosphere int64
	sink           func(Event)
}

// NewBus creates a bus remembering at most capacity events.
func NewBus(capacity int) *Bus {
	if capacity <= 0 {
		capacity = 500
	}
	return &Bus{ring: make([]Event, capacity)}
}

// SetSink installs the push target, e.g. the window runtime. Nil removes it.
func (b *Bus) SetSink(sink func(Event)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sink = sink
}

// Publish stamps an event, stores it and forwards it to the sink outside
// the lock.
func (b *Bus) Publish(event Event) Event {
	b.mu.Lock()
	b.nextSeq++
	event.Seq = b.nextSeq
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if event.Type == EventTypeAtmosphere {
		b.lastAtmosphere = event.Seq
	}

	// head is the oldest slot; once full, the newest event overwrites it.
	slot := (b.head + b.size) % len(b.ring)
	b.ring[slot] = event
	if b.size < len(b.ring) {
		b.size++
	} else {
		b.head = (b.head + 1) % len(b.ring)
	}
	sink := b.sink
	b.mu.Unlock()

	if sink != nil {
		sink(event)
	}
	return event
}

// Since returns retained events with sequence strictly greater than seq,
// oldest first. Superseded atmosphere snapshots are left out.
func (b *Bus) Since(seq int64) []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var out []Event
	for i := 0; i < b.size; i++ {
		event := b.ring[(b.head+i)%len(b.ring)]
		if event.Seq <= seq {
			continue
		}
		if event.Type == EventTypeAtmosphere && event.Seq != b.lastAtmosphere {
			continue
		}
		out = append(out, event)
	}
	return out
}

// Notify publishes a user-visible notice.
func (b *Bus) Notify(level Level, message string) {
	b.Publish(Event{Type: EventTypeNotice, Level: level, Message: message})
}

// Notifier is the part of the bus components use to surface notices.
type Notifier interface {
	Notify(level Level, message string)
}

// Discard drops every notice.
type Discard struct{}

func (Discard) Notify(Level, string) {}
