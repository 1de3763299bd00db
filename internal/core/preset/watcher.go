package preset

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/ocfkit/ocf/internal/core/observability/log"
)

// Poster hands a job to the goroutine owning the controllables.
type Poster interface {
	Post(job func()) error
}

// Watcher refreshes preset lists when files change on disk. Refreshes are
// posted, never run on the watcher goroutine, and at most one refresh per
// directory is pending at a time.
type Watcher struct {
	mu      sync.Mutex
	watcher *fsnotify.Watcher
	poster  Poster
	logger  log.Log

	dirs    map[string]func()
	pending map[string]bool
}

func NewWatcher(poster Poster, logger log.Log) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.Nop()
	}
	return &Watcher{
		watcher: fw,
		poster:  poster,
		logger:  logger.With(log.String("component", "preset_watcher")),
		dirs:    make(map[string]func()),
		pending: make(map[string]bool),
	}, nil
}

// Watch calls refresh, through the poster, whenever a preset file in dir
// changes.
func (w *Watcher) Watch(dir string, refresh func()) error {
	dir = filepath.Clean(dir)
	w.mu.Lock()
	_, known := w.dirs[dir]
	w.dirs[dir] = refresh
	w.mu.Unlock()
	if known {
		return nil
	}
	if err := w.watcher.Add(dir); err != nil {
		w.mu.Lock()
		delete(w.dirs, dir)
		w.mu.Unlock()
		w.logger.Warn("Failed to watch preset directory", log.String("dir", dir), log.Error(err))
		return err
	}
	w.logger.Debug("Watching preset directory", log.String("dir", dir))
	return nil
}

func (w *Watcher) Unwatch(dir string) {
	dir = filepath.Clean(dir)
	w.mu.Lock()
	_, known := w.dirs[dir]
	delete(w.dirs, dir)
	delete(w.pending, dir)
	w.mu.Unlock()
	if known {
		_ = w.watcher.Remove(dir)
	}
}

// Run delivers filesystem events until ctx is done or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handle(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("Preset watcher error", log.Error(err))
		}
	}
}

func (w *Watcher) Close() error {
	return w.watcher.Close()
}

func (w *Watcher) handle(event fsnotify.Event) {
	if filepath.Ext(event.Name) != Extension || filepath.Base(event.Name) == MarkerName {
		return
	}
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return
	}

	dir := filepath.Dir(event.Name)
	w.mu.Lock()
	refresh, ok := w.dirs[dir]
	if !ok || w.pending[dir] {
		w.mu.Unlock()
		return
	}
	w.pending[dir] = true
	w.mu.Unlock()

	err := w.poster.Post(func() {
		w.mu.Lock()
		delete(w.pending, dir)
		w.mu.Unlock()
		refresh()
	})
	if err != nil {
		w.mu.Lock()
		delete(w.pending, dir)
		w.mu.Unlock()
		w.logger.Warn("Dropped preset refresh", log.String("dir", dir), log.Error(err))
	}
}
