// Package fswatch triggers the queue cleanup pass when queued files disappear.
package fswatch

import (
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/tejashwikalptaru/tunecore/internal/domain"
)

// DefaultDebounce coalesces bursts of filesystem events (a folder delete
// produces one event per file) into a single cleanup.
const DefaultDebounce = 250 * time.Millisecond

// Watcher watches the directories holding queued tracks and calls onRemoved
// once a burst of remove/rename events has settled.
//
// Thread-safety: SetPaths may be called from any goroutine.
type Watcher struct {
	logger    *slog.Logger
	watcher   *fsnotify.Watcher
	onRemoved func()
	debounce  time.Duration

	mu     sync.Mutex
	dirs   map[string]struct{}
	timer  *time.Timer
	closed bool

	wg sync.WaitGroup
}

// New creates a watcher. Call Start to begin delivering events.
func New(onRemoved func(), debounce time.Duration, logger *slog.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Watcher{
		logger:    logger.With(slog.String("component", "fswatch")),
		watcher:   fw,
		onRemoved: onRemoved,
		debounce:  debounce,
		dirs:      make(map[string]struct{}),
	}, nil
}

// Start launches the event loop.
func (w *Watcher) Start() {
	w.wg.Add(1)
	go w.loop()
}

func (w *Watcher) loop() {
	defer w.wg.Done()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
				w.logger.Debug("queued file removed", slog.String("path", event.Name))
				w.schedule()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("fsnotify error", slog.String("error", err.Error()))
		}
	}
}

func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.onRemoved)
}

// SetPaths replaces the watched set with the parent directories of paths.
func (w *Watcher) SetPaths(paths []string) {
	wanted := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		if p != "" {
			wanted[filepath.Dir(p)] = struct{}{}
		}
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}

	for dir := range w.dirs {
		if _, keep := wanted[dir]; !keep {
			_ = w.watcher.Remove(dir)
			delete(w.dirs, dir)
		}
	}

	for dir := range wanted {
		if _, have := w.dirs[dir]; have {
			continue
		}
		if err := w.watcher.Add(dir); err != nil {
			w.logger.Debug("cannot watch directory", slog.String("dir", dir), slog.String("error", err.Error()))
			continue
		}
		w.dirs[dir] = struct{}{}
	}
}

// HandleQueueChanged is an event bus handler that follows the queue contents.
func (w *Watcher) HandleQueueChanged(event domain.Event) {
	e, ok := event.(domain.QueueChangedEvent)
	if !ok {
		return
	}
	paths := make([]string, len(e.Items))
	for i, t := range e.Items {
		paths[i] = t.Path
	}
	w.SetPaths(paths)
}

// WatchedDirs returns the number of watched directories.
func (w *Watcher) WatchedDirs() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.dirs)
}

// Close stops the watcher and cancels any pending cleanup.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()

	err := w.watcher.Close()
	w.wg.Wait()
	return err
}
