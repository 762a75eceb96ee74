package filesystem

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/scribe-cli/internal/logger"
)

// DefaultQuietPeriod is how long a file must go unmodified before it is
// imported. Recorders often write transcripts in several passes.
const DefaultQuietPeriod = 2 * time.Second

// ImportFunc imports the transcript at path.
type ImportFunc func(ctx context.Context, path string) error

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithQuietPeriod overrides DefaultQuietPeriod.
func WithQuietPeriod(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.quietPeriod = d
		}
	}
}

// Watcher imports transcripts written into a directory.
// Each path is imported at most once per run; failed imports are not retried.
type Watcher struct {
	dir         string
	extensions  map[string]bool
	quietPeriod time.Duration
	importFn    ImportFunc

	mu       sync.Mutex
	pending  map[string]time.Time
	imported map[string]bool
}

// NewWatcher creates a watcher for dir that hands files with one of the
// given extensions to fn.
func NewWatcher(dir string, extensions []string, fn ImportFunc, opts ...WatcherOption) *Watcher {
	w := &Watcher{
		dir:         dir,
		extensions:  extensionSet(extensions),
		quietPeriod: DefaultQuietPeriod,
		importFn:    fn,
		pending:     make(map[string]time.Time),
		imported:    make(map[string]bool),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// MarkImported records paths that were imported before Run, so later
// writes to them are ignored.
func (w *Watcher) MarkImported(paths ...string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, p := range paths {
		w.imported[p] = true
	}
}

// Run watches the directory until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	info, err := os.Stat(w.dir)
	if err != nil {
		return fmt.Errorf("watch directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("watch directory: %s is not a directory", w.dir)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("watching %s: %w", w.dir, err)
	}
	logger.Debug("watching %s", w.dir)

	ticker := time.NewTicker(w.quietPeriod / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			w.observe(event, time.Now())

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error: %v", err)

		case now := <-ticker.C:
			for _, path := range w.settled(now) {
				w.importOnce(ctx, path)
			}
		}
	}
}

// observe records a create or write of a supported, visible file.
func (w *Watcher) observe(event fsnotify.Event, at time.Time) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}
	if !w.accepts(event.Name) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.imported[event.Name] {
		return
	}
	w.pending[event.Name] = at
}

func (w *Watcher) accepts(path string) bool {
	if isHidden(filepath.Base(path)) {
		return false
	}
	return w.extensions[strings.ToLower(filepath.Ext(path))]
}

// settled removes and returns the pending paths untouched for the quiet period.
func (w *Watcher) settled(now time.Time) []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	var ready []string
	for path, at := range w.pending {
		if now.Sub(at) >= w.quietPeriod {
			ready = append(ready, path)
			delete(w.pending, path)
		}
	}
	return ready
}

func (w *Watcher) importOnce(ctx context.Context, path string) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return
	}

	w.mu.Lock()
	if w.imported[path] {
		w.mu.Unlock()
		return
	}
	w.imported[path] = true
	w.mu.Unlock()

	if err := w.importFn(ctx, path); err != nil {
		logger.Error("importing %s: %v", path, err)
	}
}
