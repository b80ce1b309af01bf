// Package watcher reports changes to individual files. It watches the
// parent directory so that editors which save by rename are seen too.
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce collapses bursts of events from a single save.
const DefaultDebounce = 100 * time.Millisecond

type Watcher interface {
	Watch(ctx context.Context, path string) error
	Stop() error
	OnChange(callback func(path string, event EventType))
}

type EventType int

const (
	EventCreate EventType = iota
	EventModify
	EventDelete
)

func (e EventType) String() string {
	switch e {
	case EventCreate:
		return "create"
	case EventDelete:
		return "delete"
	default:
		return "modify"
	}
}

// FileWatcher is an fsnotify-backed Watcher.
type FileWatcher struct {
	logger   *slog.Logger
	debounce time.Duration

	mu       sync.Mutex
	fs       *fsnotify.Watcher
	files    map[string]bool
	callback func(path string, event EventType)
	done     chan struct{}
}

func NewFileWatcher(logger *slog.Logger) *FileWatcher {
	return &FileWatcher{
		logger:   logger,
		debounce: DefaultDebounce,
		files:    make(map[string]bool),
	}
}

// SetDebounce changes the quiet period before a change is reported.
func (w *FileWatcher) SetDebounce(d time.Duration) {
	w.mu.Lock()
	w.debounce = d
	w.mu.Unlock()
}

func (w *FileWatcher) OnChange(callback func(path string, event EventType)) {
	w.mu.Lock()
	w.callback = callback
	w.mu.Unlock()
}

// Watch starts reporting changes to path until ctx ends or Stop is called.
// Several files may be watched by one FileWatcher.
func (w *FileWatcher) Watch(ctx context.Context, path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", path, err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.fs == nil {
		fw, err := fsnotify.NewWatcher()
		if err != nil {
			return fmt.Errorf("create watcher: %w", err)
		}
		w.fs = fw
		w.done = make(chan struct{})
		go w.loop(ctx, fw, w.done)
	}
	if err := w.fs.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}
	w.files[abs] = true
	w.logger.Debug("watching file", "path", abs)
	return nil
}

func (w *FileWatcher) Stop() error {
	w.mu.Lock()
	fw, done := w.fs, w.done
	w.fs, w.done = nil, nil
	w.mu.Unlock()

	if fw == nil {
		return nil
	}
	err := fw.Close()
	<-done
	return err
}

func (w *FileWatcher) loop(ctx context.Context, fw *fsnotify.Watcher, done chan struct{}) {
	defer close(done)

	pending := make(map[string]EventType)
	timer := time.NewTimer(time.Hour)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			fw.Close()
			// Drain until Close takes effect.
			for range fw.Events {
			}
			return

		case ev, ok := <-fw.Events:
			if !ok {
				return
			}
			if !w.tracked(ev.Name) {
				continue
			}
			pending[ev.Name] = classify(ev.Op)
			timer.Reset(w.debounceValue())

		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("file watcher error", "error", err)

		case <-timer.C:
			w.mu.Lock()
			cb := w.callback
			w.mu.Unlock()
			for path, kind := range pending {
				if cb != nil {
					cb(path, kind)
				}
				delete(pending, path)
			}
		}
	}
}

func (w *FileWatcher) tracked(name string) bool {
	abs, err := filepath.Abs(name)
	if err != nil {
		return false
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.files[abs]
}

func (w *FileWatcher) debounceValue() time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.debounce
}

func classify(op fsnotify.Op) EventType {
	switch {
	case op.Has(fsnotify.Remove), op.Has(fsnotify.Rename):
		return EventDelete
	case op.Has(fsnotify.Create):
		return EventCreate
	default:
		return EventModify
	}
}
