// Package watcher triggers dataset reloads when the catalog or index file
// changes on disk. The parent directories are watched rather than the files
// themselves, so replace-by-rename (the usual way a new catalog lands) is
// seen as well as in-place writes.
package watcher

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const defaultDebounce = 500 * time.Millisecond

// Watcher watches the dataset files and invokes a reload callback after a
// quiet period. Rapid successive writes coalesce into one reload.
type Watcher struct {
	catalogPath string
	indexPath   string
	onChange    func()
	debounce    time.Duration
	watcher     *fsnotify.Watcher
	mu          sync.Mutex
	timer       *time.Timer
	done        chan struct{}
	started     bool
	stopOnce    sync.Once
	logger      *zap.Logger
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithDebounce overrides the quiet period before a change fires.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// NewWatcher creates a watcher for the given dataset files. indexPath may be
// empty when no semantic index is in use. onChange runs on the watcher
// goroutine after the debounce window closes.
func NewWatcher(catalogPath, indexPath string, onChange func(), logger *zap.Logger, opts ...WatcherOption) *Watcher {
	w := &Watcher{
		catalogPath: catalogPath,
		indexPath:   indexPath,
		onChange:    onChange,
		debounce:    defaultDebounce,
		done:        make(chan struct{}),
		logger:      logger,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start starts watching. It runs until ctx is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		w.mu.Unlock()
		return err
	}

	dirs := map[string]bool{filepath.Dir(w.catalogPath): true}
	if w.indexPath != "" {
		dirs[filepath.Dir(w.indexPath)] = true
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			_ = watcher.Close()
			w.mu.Unlock()
			return err
		}
	}

	w.watcher = watcher
	w.started = true
	w.mu.Unlock()

	w.logger.Info("Watching dataset files",
		zap.String("catalog", w.catalogPath),
		zap.String("index", w.indexPath),
		zap.Duration("debounce", w.debounce))
	go w.run(ctx)
	return nil
}

func (w *Watcher) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return
		case <-w.done:
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(ev)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			if err != nil {
				w.logger.Debug("watcher error", zap.Error(err))
			}
		}
	}
}

func (w *Watcher) handleEvent(ev fsnotify.Event) {
	if !w.watched(ev.Name) {
		return
	}
	if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
		return
	}
	w.logger.Debug("dataset file changed",
		zap.String("op", ev.Op.String()), zap.String("path", ev.Name))
	w.scheduleChange()
}

// watched reports whether the event path is one of the dataset files.
func (w *Watcher) watched(path string) bool {
	if path == w.catalogPath {
		return true
	}
	return w.indexPath != "" && path == w.indexPath
}

// scheduleChange resets the debounce timer so that a burst of writes, such
// as a large catalog streaming to disk, fires one reload at the end.
func (w *Watcher) scheduleChange() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		select {
		case <-w.done:
			return
		default:
		}
		if w.onChange != nil {
			w.onChange()
		}
	})
}

// Stop stops the watcher. Safe to call more than once.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		w.mu.Lock()
		if w.timer != nil {
			w.timer.Stop()
			w.timer = nil
		}
		if w.watcher != nil {
			_ = w.watcher.Close()
			w.watcher = nil
		}
		w.started = false
		w.mu.Unlock()
	})
}
