package server

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchFilter decides which paths below root trigger rebuilds.
type watchFilter struct {
	root string
	skip map[string]bool // absolute directories
}

func newWatchFilter(root string, skipDirs ...string) *watchFilter {
	f := &watchFilter{root: absOrSelf(root), skip: map[string]bool{}}
	for _, d := range skipDirs {
		f.skip[absOrSelf(d)] = true
	}
	return f
}

func absOrSelf(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return filepath.Clean(p)
}

func (f *watchFilter) skipDir(path string) bool {
	base := filepath.Base(path)
	if base == "node_modules" || (strings.HasPrefix(base, ".") && base != "." && base != "..") {
		return true
	}
	return f.skip[absOrSelf(path)]
}

// ignore reports whether an event at path should not trigger a rebuild.
// Only directories between root and path are considered.
func (f *watchFilter) ignore(path string) bool {
	if shouldIgnoreFile(path) {
		return true
	}
	abs := absOrSelf(path)
	if f.skip[abs] {
		return true
	}
	rel, err := filepath.Rel(f.root, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return false
	}
	for dir := filepath.Dir(abs); dir != f.root && dir != filepath.Dir(dir); dir = filepath.Dir(dir) {
		if f.skipDir(dir) {
			return true
		}
	}
	return false
}

// shouldIgnoreFile returns true for hidden, editor swap and OS metadata files.
func shouldIgnoreFile(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return true
	}
	if strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".swp") ||
		strings.HasSuffix(base, ".swx") ||
		(strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#")) {
		return true
	}
	return base == "Thumbs.db"
}

func addDirsRecursive(w *fsnotify.Watcher, root string, f *watchFilter) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && f.skipDir(path) {
			return filepath.SkipDir
		}
		if err := w.Add(path); err != nil {
			slog.Warn("watch add failed", "dir", path, "error", err)
		}
		return nil
	})
}

// debouncer coalesces bursts of triggers into one signal on C.
type debouncer struct {
	mu    sync.Mutex
	timer *time.Timer
	delay time.Duration
	C     chan struct{}
}

func newDebouncer(delay time.Duration) *debouncer {
	if delay <= 0 {
		delay = 300 * time.Millisecond
	}
	return &debouncer{delay: delay, C: make(chan struct{}, 1)}
}

// Trigger restarts the quiet period.
func (d *debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, d.fire)
}

func (d *debouncer) fire() {
	select {
	case d.C <- struct{}{}:
	default:
	}
}

// Stop cancels a pending signal.
func (d *debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
}
