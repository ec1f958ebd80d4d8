// Package watcher triggers re-links when files under the declared asset
// roots change.
//
// Directory roots are watched recursively; directories created later are
// picked up as they appear. File roots are watched through their parent
// directory, with events for siblings filtered out. Bursts of events are
// collapsed into one callback once the roots have been quiet for the
// debounce interval.
package watcher

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/jamesainslie/assetlink/pkg/assetlink/logging"
)

// DefaultDebounce is the quiet period before a change triggers a re-link.
const DefaultDebounce = 300 * time.Millisecond

// Options configures a Watcher.
type Options struct {
	// Debounce defaults to DefaultDebounce.
	Debounce time.Duration

	// Logger defaults to Nop.
	Logger *logging.Logger
}

// Watcher watches asset roots for changes.
type Watcher struct {
	watcher  *fsnotify.Watcher
	debounce time.Duration
	log      *logging.Logger

	mu     sync.RWMutex
	paths  map[string]bool // watched directories
	files  map[string]bool // file roots, watched via their parent
	dirs   map[string]bool // directory roots and everything below them
	closed bool
}

// New creates a Watcher.
func New(opts Options) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Logger == nil {
		opts.Logger = logging.Nop()
	}

	return &Watcher{
		watcher:  fsw,
		debounce: opts.Debounce,
		log:      opts.Logger,
		paths:    make(map[string]bool),
		files:    make(map[string]bool),
		dirs:     make(map[string]bool),
	}, nil
}

// Watch starts watching root. Directories are watched recursively.
// Symlinks are not followed.
func (w *Watcher) Watch(root string) error {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return err
	}

	info, err := os.Stat(absRoot)
	if err != nil {
		return err
	}

	if !info.IsDir() {
		w.mu.Lock()
		w.files[absRoot] = true
		w.mu.Unlock()
		return w.addWatch(filepath.Dir(absRoot))
	}

	w.mu.Lock()
	w.dirs[absRoot] = true
	w.mu.Unlock()
	return w.watchTree(absRoot)
}

// watchTree adds a watch for dir and every directory below it.
func (w *Watcher) watchTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return nil //nolint:nilerr // skip unreadable entries
		}
		if d.Type()&fs.ModeSymlink != 0 {
			return nil
		}
		if d.IsDir() {
			return w.addWatch(path)
		}
		return nil
	})
}

func (w *Watcher) addWatch(path string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed || w.paths[path] {
		return nil
	}

	if err := w.watcher.Add(path); err != nil {
		w.log.Warn("failed to add watch", "path", path, "error", err)
		return err
	}

	w.paths[path] = true
	return nil
}

// Run blocks until ctx is cancelled, calling onChange once per debounced
// burst of relevant events. onChange runs on the Run goroutine; events
// arriving meanwhile start a new burst.
func (w *Watcher) Run(ctx context.Context, onChange func(ctx context.Context)) {
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if w.handleEvent(event) {
				timer.Reset(w.debounce)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Error("watcher error", "error", err)

		case <-timer.C:
			w.log.Debug("asset roots changed")
			if onChange != nil {
				onChange(ctx)
			}
		}
	}
}

// handleEvent tracks directory churn and reports whether the event
// concerns an asset.
func (w *Watcher) handleEvent(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}
	if !w.relevant(event.Name) {
		return false
	}

	switch {
	case event.Op&fsnotify.Create != 0:
		if info, err := os.Lstat(event.Name); err == nil && info.IsDir() {
			_ = w.watchTree(event.Name)
		}
	case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		w.forget(event.Name)
	}

	w.log.Debug("change", "path", event.Name, "op", event.Op.String())
	return true
}

// relevant reports whether path is a file root or lies under a directory
// root.
func (w *Watcher) relevant(path string) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.files[path] {
		return true
	}
	for dir := range w.dirs {
		if path == dir || isSubPath(path, dir) {
			return true
		}
	}
	return false
}

// forget drops watches for a removed directory and its children.
func (w *Watcher) forget(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for p := range w.paths {
		if p == path || isSubPath(p, path) {
			_ = w.watcher.Remove(p)
			delete(w.paths, p)
		}
	}
}

// Close releases the underlying watches.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}

	w.closed = true
	w.paths = make(map[string]bool)
	return w.watcher.Close()
}

// isSubPath checks if path is under parent directory.
func isSubPath(path, parent string) bool {
	return len(path) > len(parent) && path[:len(parent)+1] == parent+string(filepath.Separator)
}
