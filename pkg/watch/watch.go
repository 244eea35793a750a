// Package watch re-checks Python files as they change on disk.
package watch

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/sambeau/pyfront/config"
	"github.com/sambeau/pyfront/pkg/logging"
)

// ChangeFunc receives a batch of changed source paths, sorted. A path in
// the batch may no longer exist.
type ChangeFunc func(ctx context.Context, paths []string)

// Watcher monitors the configured roots and reports changed source files
// once they have been quiet for the debounce period.
type Watcher struct {
	watcher  *fsnotify.Watcher
	cfg      *config.Config
	onChange ChangeFunc
	logger   *logging.Logger
	debounce time.Duration

	mu      sync.Mutex
	pending map[string]bool
	batches uint64
	started bool
	done    chan struct{}
}

// New creates a watcher. Nothing is watched until Start.
func New(cfg *config.Config, onChange ChangeFunc, logger *logging.Logger) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Watcher{
		watcher:  fsWatcher,
		cfg:      cfg,
		onChange: onChange,
		logger:   logger,
		debounce: cfg.Debounce(),
		pending:  make(map[string]bool),
		done:     make(chan struct{}),
	}, nil
}

// Start watches every root and runs the event loop until ctx is done or the
// watcher is closed.
func (w *Watcher) Start(ctx context.Context) error {
	for _, root := range w.cfg.Sources.Roots {
		if err := w.watchDirRecursive(root); err != nil {
			w.logger.Error("failed to watch", "dir", root, "err", err)
			continue
		}
		w.logger.Info("watching", "dir", root)
	}
	w.mu.Lock()
	w.started = true
	w.mu.Unlock()
	go w.eventLoop(ctx)
	return nil
}

// watchDirRecursive adds a directory and its subdirectories to the watch list
func (w *Watcher) watchDirRecursive(root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return w.watcher.Add(filepath.Dir(root))
	}
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // Skip errors
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && w.cfg.IsExcluded(d.Name()) {
			return filepath.SkipDir
		}
		return w.watcher.Add(path)
	})
}

func (w *Watcher) eventLoop(ctx context.Context) {
	defer close(w.done)

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.handleEvent(event) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			w.flush(ctx)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("watcher error", "err", err)
		}
	}
}

// handleEvent records a changed source file and reports whether it did.
// New directories are watched as they appear.
func (w *Watcher) handleEvent(event fsnotify.Event) bool {
	if event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write) {
		return false
	}
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if !w.cfg.IsExcluded(filepath.Base(event.Name)) {
				if err := w.watchDirRecursive(event.Name); err != nil {
					w.logger.Error("failed to watch", "dir", event.Name, "err", err)
				}
			}
			return false
		}
	}
	if !w.cfg.IsSource(filepath.Base(event.Name)) {
		return false
	}

	w.mu.Lock()
	w.pending[event.Name] = true
	w.mu.Unlock()
	w.logger.Debug("file changed", "path", event.Name, "op", event.Op.String())
	return true
}

func (w *Watcher) flush(ctx context.Context) {
	w.mu.Lock()
	paths := make([]string, 0, len(w.pending))
	for path := range w.pending {
		paths = append(paths, path)
	}
	w.pending = make(map[string]bool)
	if len(paths) > 0 {
		w.batches++
	}
	w.mu.Unlock()

	if len(paths) == 0 {
		return
	}
	sort.Strings(paths)
	w.logger.Info("re-checking", "files", len(paths))
	w.onChange(ctx, paths)
}

// Batches returns how many debounced batches have been delivered.
func (w *Watcher) Batches() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.batches
}

// Close stops the watcher and waits for the event loop to exit if it was
// started.
func (w *Watcher) Close() error {
	err := w.watcher.Close()
	w.mu.Lock()
	started := w.started
	w.mu.Unlock()
	if !started {
		return err
	}
	select {
	case <-w.done:
	case <-time.After(time.Second):
	}
	return err
}
