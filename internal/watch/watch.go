// Package watch triggers a callback when source files under a root change.
package watch

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period after the last event before the callback fires.
const DefaultDebounce = 500 * time.Millisecond

// Filter decides which paths are worth reacting to. *corpus.Loader implements it.
type Filter interface {
	Matches(name string) bool
	Excluded(name string) bool
}

// Watcher observes a directory tree. Bursts of events collapse into one
// callback invocation once the tree has been quiet for the debounce period.
type Watcher struct {
	root     string
	filter   Filter
	debounce time.Duration
	logger   *slog.Logger
	fsw      *fsnotify.Watcher

	mu   sync.Mutex
	dirs map[string]struct{}
}

// New starts watching root and every directory below it that filter does not exclude.
func New(root string, filter Filter, debounce time.Duration, logger *slog.Logger) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = slog.Default()
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		root:     root,
		filter:   filter,
		debounce: debounce,
		logger:   logger.With("component", "watch"),
		fsw:      fsw,
		dirs:     make(map[string]struct{}),
	}
	if err := w.addTree(root); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

// Close stops watching.
func (w *Watcher) Close() error { return w.fsw.Close() }

// Run delivers debounced change notifications to onChange until ctx is done
// or the watcher is closed. onChange runs on the Run goroutine.
func (w *Watcher) Run(ctx context.Context, onChange func(ctx context.Context)) error {
	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if w.handle(ev) {
				timer.Reset(w.debounce)
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", "error", err)
		case <-timer.C:
			w.logger.Debug("change detected", "root", w.root)
			onChange(ctx)
		}
	}
}

// handle updates the watch list for directory events and reports whether
// the event should trigger a rescan.
func (w *Watcher) handle(ev fsnotify.Event) bool {
	name := filepath.Base(ev.Name)
	if ev.Op == fsnotify.Chmod {
		return false
	}

	if ev.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if w.filter.Excluded(name) {
				return false
			}
			if err := w.addTree(ev.Name); err != nil {
				w.logger.Warn("watch new directory", "path", ev.Name, "error", err)
			}
			return true
		}
	}

	if ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
		w.mu.Lock()
		_, wasDir := w.dirs[ev.Name]
		delete(w.dirs, ev.Name)
		w.mu.Unlock()
		if wasDir {
			return true
		}
	}

	return w.filter.Matches(name)
}

func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			w.logger.Warn("skip unreadable directory", "path", path, "error", err)
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && w.filter.Excluded(d.Name()) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		w.mu.Lock()
		w.dirs[path] = struct{}{}
		w.mu.Unlock()
		return nil
	})
}

// Dirs returns the directories currently watched.
func (w *Watcher) Dirs() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, 0, len(w.dirs))
	for d := range w.dirs {
		out = append(out, d)
	}
	return out
}
