package daemon

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	ferrors "git.home.luguber.info/inful/symdoc/internal/foundation/errors"
	"git.home.luguber.info/inful/symdoc/internal/logfields"
)

// Watcher turns filesystem events under a set of directory trees into
// debounced build requests.
type Watcher struct {
	fsw      *fsnotify.Watcher
	debounce time.Duration
	trigger  func(reason string)
	logger   *slog.Logger

	mu      sync.Mutex
	timer   *time.Timer
	pending string
}

// NewWatcher watches every directory below each of roots. Missing roots are
// skipped with a warning so that a project can be watched before all of its
// source trees exist.
func NewWatcher(roots []string, debounce time.Duration, trigger func(reason string)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to create file watcher").Build()
	}
	w := &Watcher{fsw: fsw, debounce: debounce, trigger: trigger, logger: slog.Default()}
	for _, root := range roots {
		if _, err := os.Stat(root); err != nil {
			w.logger.Warn("Watch root unavailable", slog.String("dir", root), logfields.Error(err))
			continue
		}
		w.addRecursive(root)
	}
	return w, nil
}

// Run dispatches events until ctx is done or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) {
	defer w.stopTimer()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("File watcher error", logfields.Error(err))
		}
	}
}

// Close releases the underlying watcher.
func (w *Watcher) Close() error {
	w.stopTimer()
	return w.fsw.Close()
}

func (w *Watcher) handle(event fsnotify.Event) {
	if shouldIgnore(event.Name) {
		return
	}
	if event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write) {
		return
	}
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			w.addRecursive(event.Name)
		}
	}
	w.logger.Debug("File changed", slog.String("path", event.Name), slog.String("op", event.Op.String()))
	w.schedule(event.Name)
}

// schedule restarts the quiet window; the trigger fires once no event has
// arrived for the debounce duration.
func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending = path
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.fire)
}

func (w *Watcher) fire() {
	w.mu.Lock()
	path := w.pending
	w.pending = ""
	w.timer = nil
	w.mu.Unlock()
	if path == "" {
		return
	}
	w.trigger("change: " + path)
}

func (w *Watcher) stopTimer() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	w.pending = ""
}

func (w *Watcher) addRecursive(root string) {
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			w.logger.Warn("Failed to watch directory", slog.String("dir", path), logfields.Error(err))
		}
		return nil
	})
}

// shouldIgnore reports paths that never affect a build: hidden files and
// editor swap or backup files.
func shouldIgnore(path string) bool {
	base := filepath.Base(path)
	switch {
	case strings.HasPrefix(base, "."):
		return true
	case strings.HasSuffix(base, "~"),
		strings.HasSuffix(base, ".swp"),
		strings.HasSuffix(base, ".swx"),
		strings.HasSuffix(base, ".tmp"):
		return true
	case strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#"):
		return true
	}
	return false
}
