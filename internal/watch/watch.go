// Package watch turns media files dropped into a folder into work items.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/mgpai22/lecsub/internal/audio"
	"github.com/mgpai22/lecsub/internal/logging"
)

// DefaultDebounce is how long a file must stay unchanged before it is handed
// off; copies into the folder produce a burst of write events.
const DefaultDebounce = 5 * time.Second

// Handler processes one settled media file. Calls are serialized.
type Handler func(ctx context.Context, path string)

// FolderWatcher reports media files created or rewritten in a folder.
type FolderWatcher struct {
	dir          string
	debounce     time.Duration
	logger       *logging.Logger
	scanExisting bool

	mu      sync.Mutex
	pending map[string]*time.Timer
}

// Option configures a FolderWatcher.
type Option func(*FolderWatcher)

// WithDebounce overrides DefaultDebounce.
func WithDebounce(d time.Duration) Option {
	return func(w *FolderWatcher) { w.debounce = d }
}

// WithExisting also hands off media already in the folder at start.
func WithExisting() Option {
	return func(w *FolderWatcher) { w.scanExisting = true }
}

func New(dir string, logger *logging.Logger, opts ...Option) *FolderWatcher {
	if logger == nil {
		logger = logging.Nop()
	}
	w := &FolderWatcher{
		dir:      dir,
		debounce: DefaultDebounce,
		logger:   logger,
		pending:  make(map[string]*time.Timer),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run watches until ctx is done.
func (w *FolderWatcher) Run(ctx context.Context, handle Handler) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("create watch folder: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}

	ready := make(chan string)
	done := make(chan struct{})
	defer close(done)
	defer w.stopTimers()

	if w.scanExisting {
		entries, err := os.ReadDir(w.dir)
		if err != nil {
			return fmt.Errorf("scan %s: %w", w.dir, err)
		}
		for _, entry := range entries {
			path := filepath.Join(w.dir, entry.Name())
			if isTarget(path) {
				w.schedule(done, path, ready)
			}
		}
	}

	w.logger.Infow("watching folder", "dir", w.dir, "debounce", w.debounce)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if isTarget(event.Name) {
				w.logger.Debugw("media changed", "path", event.Name, "op", event.Op.String())
				w.schedule(done, event.Name, ready)
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warnw("file watcher error", "error", err)
		case path := <-ready:
			if _, err := os.Stat(path); err != nil {
				continue
			}
			handle(ctx, path)
		}
	}
}

// schedule (re)starts the settle timer for path. done is closed when Run
// returns.
func (w *FolderWatcher) schedule(done <-chan struct{}, path string, ready chan<- string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, exists := w.pending[path]; exists {
		timer.Stop()
	}
	var timer *time.Timer
	timer = time.AfterFunc(w.debounce, func() {
		w.fire(timer, path, ready, done)
	})
	w.pending[path] = timer
}

// fire hands path to Run unless timer was replaced by a later schedule.
func (w *FolderWatcher) fire(timer *time.Timer, path string, ready chan<- string, done <-chan struct{}) {
	w.mu.Lock()
	current := w.pending[path] == timer
	if current {
		delete(w.pending, path)
	}
	w.mu.Unlock()
	if !current {
		return
	}

	select {
	case ready <- path:
	case <-done:
	}
}

func (w *FolderWatcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, timer := range w.pending {
		timer.Stop()
		delete(w.pending, path)
	}
}

func isTarget(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	return audio.IsMediaFile(path)
}
