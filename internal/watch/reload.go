// Package watch triggers a callback when policy files change on disk.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the reloader waits after the last write.
const DefaultDebounce = 500 * time.Millisecond

// Reloader watches files and calls a reload function after writes settle.
// Parent directories are watched so editors that replace files by rename
// keep triggering reloads.
type Reloader struct {
	watcher  *fsnotify.Watcher
	files    map[string]bool
	reload   func() error
	debounce time.Duration
	logger   *slog.Logger

	mu    sync.Mutex
	timer *time.Timer
}

// NewReloader watches paths. Empty paths are skipped.
func NewReloader(paths []string, debounce time.Duration, logger *slog.Logger, reload func() error) (*Reloader, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = slog.Default()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}

	files := make(map[string]bool)
	dirs := make(map[string]bool)
	for _, p := range paths {
		if p == "" {
			continue
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			watcher.Close()
			return nil, fmt.Errorf("resolve %q: %w", p, err)
		}
		files[abs] = true
		dir := filepath.Dir(abs)
		if dirs[dir] {
			continue
		}
		if err := watcher.Add(dir); err != nil {
			watcher.Close()
			return nil, fmt.Errorf("watch %q: %w", dir, err)
		}
		dirs[dir] = true
	}

	return &Reloader{
		watcher:  watcher,
		files:    files,
		reload:   reload,
		debounce: debounce,
		logger:   logger.With("component", "watch"),
	}, nil
}

// Files returns the number of watched files.
func (r *Reloader) Files() int {
	return len(r.files)
}

// Run dispatches file events until ctx is cancelled.
func (r *Reloader) Run(ctx context.Context) error {
	defer r.watcher.Close()

	for {
		select {
		case <-ctx.Done():
			r.mu.Lock()
			if r.timer != nil {
				r.timer.Stop()
			}
			r.mu.Unlock()
			return nil

		case event, ok := <-r.watcher.Events:
			if !ok {
				return nil
			}
			if !r.files[filepath.Clean(event.Name)] {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				r.schedule()
			}

		case err, ok := <-r.watcher.Errors:
			if !ok {
				return nil
			}
			r.logger.Warn("file watcher error", "error", err)
		}
	}
}

func (r *Reloader) schedule() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.timer != nil {
		r.timer.Stop()
	}
	r.timer = time.AfterFunc(r.debounce, func() {
		if err := r.reload(); err != nil {
			r.logger.Error("hot-reload failed", "error", err)
			return
		}
		r.logger.Info("hot-reload: policy reloaded")
	})
}
