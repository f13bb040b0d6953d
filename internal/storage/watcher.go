package storage

import (
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// PresetWatcher signals when preset files change outside the application.
type PresetWatcher struct {
	fsWatcher *fsnotify.Watcher
	dir       string
	debounce  time.Duration
	log       *zap.Logger
	onChange  chan struct{}
	done      chan struct{}
}

// NewPresetWatcher creates a watcher for the preset directory.
func NewPresetWatcher(dir string, debounce time.Duration, log *zap.Logger) (*PresetWatcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create preset watcher: %w", err)
	}
	if debounce <= 0 {
		debounce = 250 * time.Millisecond
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &PresetWatcher{
		fsWatcher: fsw,
		dir:       dir,
		debounce:  debounce,
		log:       log,
		onChange:  make(chan struct{}, 1),
		done:      make(chan struct{}),
	}, nil
}

// Start begins watching. The returned channel receives one signal per burst
// of changes.
func (w *PresetWatcher) Start() (<-chan struct{}, error) {
	if err := w.fsWatcher.Add(w.dir); err != nil {
		return nil, fmt.Errorf("watch %s: %w", w.dir, err)
	}
	go w.loop()
	return w.onChange, nil
}

// Stop terminates the watcher.
func (w *PresetWatcher) Stop() error {
	close(w.done)
	return w.fsWatcher.Close()
}

func (w *PresetWatcher) loop() {
	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if !isRelevantPresetEvent(event) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			select {
			case w.onChange <- struct{}{}:
			default:
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.log.Warn("preset watcher error", zap.Error(err))

		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}

// isRelevantPresetEvent ignores temp files written during atomic saves.
func isRelevantPresetEvent(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	return isPresetFile(event.Name)
}
