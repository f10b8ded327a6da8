// Package watch observes a local checkout for file changes and signals
// the scheduler to rebuild the index early instead of waiting for the
// next periodic tick.
package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/gitseek/gitseek-cli/internal/logger"
)

// defaultDebounce is how long the checkout must stay quiet before a
// change signal fires. Bulk operations like a git checkout touch many
// files; one rebuild should cover all of them.
const defaultDebounce = 5 * time.Second

// Watcher watches a checkout tree recursively and invokes onChange
// once per quiet period after modifications.
type Watcher struct {
	root     string
	debounce time.Duration
	tick     time.Duration
	onChange func()

	watcher *fsnotify.Watcher
	cancel  context.CancelFunc

	mu      sync.Mutex
	lastHit time.Time
	dirty   bool
}

// NewWatcher creates a watcher over root. onChange runs on the
// watcher's goroutine after each debounced burst of changes.
func NewWatcher(root string, onChange func()) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		root:     root,
		debounce: defaultDebounce,
		tick:     time.Second,
		onChange: onChange,
		watcher:  fsw,
	}, nil
}

// Start registers the tree and begins processing events.
func (w *Watcher) Start() error {
	if err := w.addRecursive(w.root); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel

	go w.processEvents(ctx)
	go w.processPending(ctx)

	logger.Debug("Watching %s for changes", w.root)
	return nil
}

// Close stops watching and releases resources.
func (w *Watcher) Close() error {
	if w.cancel != nil {
		w.cancel()
	}
	return w.watcher.Close()
}

// addRecursive registers dir and every subdirectory, skipping .git.
func (w *Watcher) addRecursive(dir string) error {
	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // unreadable entries are skipped
		}
		if !info.IsDir() {
			return nil
		}
		if info.Name() == ".git" {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			logger.Debug("Watch %s: %v", path, err)
		}
		return nil
	})
}

func (w *Watcher) processEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}

			// New directories have to be registered before their own
			// contents can be observed.
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					w.addRecursive(event.Name)
				}
			}

			w.mu.Lock()
			w.lastHit = time.Now()
			w.dirty = true
			w.mu.Unlock()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("Watcher error: %v", err)
		}
	}
}

// processPending fires onChange once the checkout has been quiet for
// the debounce window.
func (w *Watcher) processPending(ctx context.Context) {
	ticker := time.NewTicker(w.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			w.mu.Lock()
			fire := w.dirty && time.Since(w.lastHit) >= w.debounce
			if fire {
				w.dirty = false
			}
			w.mu.Unlock()

			if fire {
				w.onChange()
			}
		}
	}
}
