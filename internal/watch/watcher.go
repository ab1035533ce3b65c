// Package watch reloads the custom exercise file when another process
// rewrites it.
package watch

import (
	"alcyxob/exercise-catalog/internal/catalog"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const DefaultDebounce = 500 * time.Millisecond

// Reloader re-reads persisted state and reports whether it changed.
// *file.Store implements it.
type Reloader interface {
	Reload(ctx context.Context) (bool, error)
}

// Rebuilder publishes a new catalog snapshot.
type Rebuilder interface {
	Rebuild(ctx context.Context) (*catalog.Snapshot, error)
}

// StoreWatcher watches the directory holding the custom exercise file.
// Bursts of events are collapsed and flushed on a ticker; a flush reloads
// the store and rebuilds the catalog only when the content changed.
type StoreWatcher struct {
	path      string
	debounce  time.Duration
	store     Reloader
	rebuilder Rebuilder
	watcher   *fsnotify.Watcher
	logger    *slog.Logger

	pendingMu sync.Mutex
	pending   bool

	done chan struct{}
}

// NewStoreWatcher creates a watcher for the file at path.
func NewStoreWatcher(path string, debounce time.Duration, store Reloader, rebuilder Rebuilder, logger *slog.Logger) (*StoreWatcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &StoreWatcher{
		path:      filepath.Clean(path),
		debounce:  debounce,
		store:     store,
		rebuilder: rebuilder,
		watcher:   fsw,
		logger:    logger.With("component", "store-watcher"),
		done:      make(chan struct{}),
	}, nil
}

// Start begins watching. Atomic writes replace the file by rename, so the
// parent directory is watched rather than the file itself.
func (w *StoreWatcher) Start(ctx context.Context) error {
	dir := filepath.Dir(w.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	if err := w.watcher.Add(dir); err != nil {
		return err
	}

	go w.processEvents(ctx)

	w.logger.Info("Custom exercise watcher started", "path", w.path, "debounce", w.debounce)
	return nil
}

// Stop stops the watcher and waits for the event loop to exit.
func (w *StoreWatcher) Stop() error {
	err := w.watcher.Close()
	<-w.done
	return err
}

func (w *StoreWatcher) processEvents(ctx context.Context) {
	defer close(w.done)
	ticker := time.NewTicker(w.debounce)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleFSEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("Watcher error", "error", err)

		case <-ticker.C:
			w.flushPending(ctx)
		}
	}
}

func (w *StoreWatcher) handleFSEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != w.path {
		return
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
		return
	}
	w.pendingMu.Lock()
	w.pending = true
	w.pendingMu.Unlock()
	w.logger.Debug("Custom exercise file change detected", "op", event.Op.String())
}

func (w *StoreWatcher) flushPending(ctx context.Context) {
	w.pendingMu.Lock()
	if !w.pending {
		w.pendingMu.Unlock()
		return
	}
	w.pending = false
	w.pendingMu.Unlock()

	changed, err := w.store.Reload(ctx)
	if err != nil {
		w.logger.Warn("Failed to reload custom exercises", "error", err)
		return
	}
	if !changed {
		return
	}
	if _, err := w.rebuilder.Rebuild(ctx); err != nil {
		w.logger.Error("Catalog rebuild after external change failed", "error", err)
	}
}
