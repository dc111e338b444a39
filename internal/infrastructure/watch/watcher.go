// Package watch reloads state when its backing files change on disk.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// ChangeEvent represents a filesystem change.
type ChangeEvent struct {
	Path       string
	ChangeType string // "create", "write", "remove", "rename"
}

// Target is a group of files in one directory handled by one callback.
// Files are replaced by rename on save, so the directory is watched rather
// than the files themselves.
type Target struct {
	Name     string
	Dir      string
	Filter   *PatternFilter
	OnChange func(ChangeEvent)
}

type target struct {
	Target
	dir string

	mu    sync.Mutex
	last  ChangeEvent
	timer *time.Timer
}

func (t *target) trigger(ev ChangeEvent, window time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.last = ev
	if t.timer != nil {
		t.timer.Stop()
	}
	t.timer = time.AfterFunc(window, t.fire)
}

func (t *target) fire() {
	t.mu.Lock()
	ev := t.last
	t.mu.Unlock()
	if t.OnChange != nil {
		t.OnChange(ev)
	}
}

func (t *target) stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.timer != nil {
		t.timer.Stop()
	}
}

// FSWatcher dispatches debounced filesystem changes to targets.
type FSWatcher struct {
	watcher  *fsnotify.Watcher
	debounce time.Duration
	logger   *zap.Logger

	mu      sync.Mutex
	targets []*target
	dirs    map[string]bool
}

// NewFSWatcher creates a new filesystem watcher.
func NewFSWatcher(debounce time.Duration, logger *zap.Logger) (*FSWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	if debounce <= 0 {
		debounce = 300 * time.Millisecond
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FSWatcher{
		watcher:  w,
		debounce: debounce,
		logger:   logger,
		dirs:     make(map[string]bool),
	}, nil
}

// Add registers a target and starts watching its directory.
func (w *FSWatcher) Add(t Target) error {
	dir, err := filepath.Abs(t.Dir)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", t.Dir, err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.dirs[dir] {
		if err := w.watcher.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
		w.dirs[dir] = true
	}
	w.targets = append(w.targets, &target{Target: t, dir: dir})
	return nil
}

// Run starts the event loop. It blocks until the context is cancelled.
func (w *FSWatcher) Run(ctx context.Context) error {
	defer w.watcher.Close()
	defer func() {
		w.mu.Lock()
		for _, t := range w.targets {
			t.stop()
		}
		w.mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			changeType := opToChangeType(event.Op)
			if changeType == "" {
				continue
			}
			w.dispatch(ChangeEvent{Path: event.Name, ChangeType: changeType})

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", zap.Error(err))
		}
	}
}

func (w *FSWatcher) dispatch(ev ChangeEvent) {
	dir, err := filepath.Abs(filepath.Dir(ev.Path))
	if err != nil {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	for _, t := range w.targets {
		if t.dir != dir || !t.Filter.Matches(ev.Path) {
			continue
		}
		w.logger.Debug("file changed",
			zap.String("target", t.Name),
			zap.String("path", ev.Path),
			zap.String("change", ev.ChangeType),
		)
		t.trigger(ev, w.debounce)
	}
}

func opToChangeType(op fsnotify.Op) string {
	switch {
	case op.Has(fsnotify.Create):
		return "create"
	case op.Has(fsnotify.Write):
		return "write"
	case op.Has(fsnotify.Remove):
		return "remove"
	case op.Has(fsnotify.Rename):
		return "rename"
	default:
		return ""
	}
}
