package watcher

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gobwas/glob"

	"archcheck/internal/shared/observability"
)

// manifest edits and override files retrigger checks just like source edits
var defaultWatchedNames = []string{
	"dependencies.json",
	".architecture-ignore",
	".archcheck-exceptions",
	".ruleof6-exceptions",
}

// Watcher re-triggers a check when relevant files under the target tree
// change, batching rapid edits behind a debounce window.
type Watcher struct {
	fsWatcher    *fsnotify.Watcher
	debounce     time.Duration
	extensions   []string
	excludeDirs  []glob.Glob
	watchedNames map[string]bool
	onChange     func([]string)
	callbackMu   sync.Mutex

	pending   map[string]struct{}
	pendingMu sync.Mutex
	timer     *time.Timer
}

// New builds a watcher. watchNames lists extensionless file names
// that retrigger checks; when empty the default manifest and override
// file names are watched.
func New(debounce time.Duration, extensions, excludeDirs, watchNames []string, onChange func([]string)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if len(watchNames) == 0 {
		watchNames = defaultWatchedNames
	}
	names := make(map[string]bool, len(watchNames))
	for _, n := range watchNames {
		if n != "" {
			names[filepath.Base(n)] = true
		}
	}

	w := &Watcher{
		fsWatcher:    fsw,
		debounce:     debounce,
		extensions:   extensions,
		watchedNames: names,
		onChange:     onChange,
		pending:      make(map[string]struct{}),
	}

	for _, pattern := range excludeDirs {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, err
		}
		w.excludeDirs = append(w.excludeDirs, g)
	}

	return w, nil
}

// Watch registers root and its subdirectories and starts the event loop.
func (w *Watcher) Watch(root string) error {
	if err := w.watchRecursive(root); err != nil {
		return err
	}
	go w.run()
	return nil
}

func (w *Watcher) watchRecursive(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if w.shouldExcludeDir(path) {
				return filepath.SkipDir
			}
			return w.fsWatcher.Add(path)
		}
		return nil
	})
}

func (w *Watcher) run() {
	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}

			if event.Op&fsnotify.Create == fsnotify.Create {
				info, err := os.Stat(event.Name)
				if err == nil && info.IsDir() {
					if !w.shouldExcludeDir(event.Name) {
						if err := w.watchRecursive(event.Name); err != nil {
							slog.Warn("failed to watch new directory", "path", event.Name, "error", err)
						} else {
							w.enqueueExistingFiles(event.Name)
						}
					}
					continue
				}
			}

			if !w.relevant(event.Name) {
				continue
			}

			if event.Op&fsnotify.Write == fsnotify.Write ||
				event.Op&fsnotify.Create == fsnotify.Create ||
				event.Op&fsnotify.Remove == fsnotify.Remove ||
				event.Op&fsnotify.Rename == fsnotify.Rename {
				observability.WatcherEventsTotal.Inc()
				w.scheduleChange(event.Name)
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			slog.Error("watcher error", "error", err)
		}
	}
}

func (w *Watcher) scheduleChange(path string) {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()

	w.pending[path] = struct{}{}

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.flushChanges)
}

func (w *Watcher) flushChanges() {
	w.pendingMu.Lock()
	paths := make([]string, 0, len(w.pending))
	for path := range w.pending {
		paths = append(paths, path)
	}
	w.pending = make(map[string]struct{})
	w.pendingMu.Unlock()

	if len(paths) > 0 {
		w.callbackMu.Lock()
		defer w.callbackMu.Unlock()
		w.onChange(paths)
	}
}

// relevant reports whether a change to path can affect check results.
func (w *Watcher) relevant(path string) bool {
	base := filepath.Base(path)
	if w.watchedNames[base] {
		return true
	}
	for _, ext := range w.extensions {
		if strings.HasSuffix(base, ext) {
			return true
		}
	}
	return false
}

func (w *Watcher) shouldExcludeDir(path string) bool {
	base := filepath.Base(path)
	for _, g := range w.excludeDirs {
		if g.Match(base) {
			return true
		}
	}
	return false
}

func (w *Watcher) enqueueExistingFiles(root string) {
	_ = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil || info == nil || info.IsDir() {
			return nil
		}
		if w.relevant(path) {
			w.scheduleChange(path)
		}
		return nil
	})
}

func (w *Watcher) Close() error {
	if w.timer != nil {
		w.timer.Stop()
	}
	return w.fsWatcher.Close()
}
