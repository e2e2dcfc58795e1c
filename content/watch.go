package content

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher reports changes below a content directory. Bursts of events are
// collapsed into one callback after the debounce interval.
type Watcher struct {
	root     string
	debounce time.Duration
	onChange func()

	fsw   *fsnotify.Watcher
	mu    sync.Mutex
	timer *time.Timer
}

// NewWatcher watches root and every directory below it.
func NewWatcher(root string, debounce time.Duration, onChange func()) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("fsnotify: %w", err)
	}
	w := &Watcher{root: root, debounce: debounce, onChange: onChange, fsw: fsw}
	if err := w.addDirs(root); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	return w, nil
}

// Run delivers change callbacks until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.stopTimer()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handle(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			slog.Warn("content watcher error", "error", err)
		}
	}
}

// Close releases the underlying watcher.
func (w *Watcher) Close() error {
	w.stopTimer()
	return w.fsw.Close()
}

func (w *Watcher) handle(ev fsnotify.Event) {
	if ignored(ev.Name) {
		return
	}
	if ev.Op.Has(fsnotify.Create) {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			_ = w.addDirs(ev.Name)
		}
	}
	slog.Debug("content change", "path", ev.Name, "op", ev.Op.String())
	w.trigger()
}

func (w *Watcher) trigger() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.onChange)
}

func (w *Watcher) stopTimer() {
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
}

func (w *Watcher) addDirs(root string) error {
	return filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if p != root && ignored(p) {
				return filepath.SkipDir
			}
			if err := w.fsw.Add(p); err != nil {
				slog.Warn("watch add failed", "dir", p, "error", err)
			}
		}
		return nil
	})
}

// ignored reports hidden files and editor scratch files.
func ignored(p string) bool {
	base := filepath.Base(p)
	switch {
	case strings.HasPrefix(base, "."),
		strings.HasSuffix(base, "~"),
		strings.HasSuffix(base, ".swp"),
		strings.HasSuffix(base, ".swx"),
		strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#"):
		return true
	}
	return false
}
