// # internal/watcher/watcher.go
package watcher

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"transmile/internal/shared/observability"
	"transmile/internal/shared/util"

	"github.com/fsnotify/fsnotify"
)

// Options configure a Watcher. Zero values mean no ignore patterns, no
// pruned roots and unthrottled callbacks.
type Options struct {
	Debounce time.Duration
	// Ignore matches base names of files and directories to skip.
	Ignore *util.NameMatcher
	// Prune lists directory trees never watched, typically the output root.
	Prune []string
	// SkipFile drops changes to matching file paths.
	SkipFile func(path string) bool
	// Limiter throttles change callbacks.
	Limiter *util.Limiter
}

type Watcher struct {
	fsWatcher  *fsnotify.Watcher
	debounce   time.Duration
	ignore     *util.NameMatcher
	prune      []string
	skipFile   func(path string) bool
	limiter    *util.Limiter
	onChange   func(context.Context, []string)
	callbackMu sync.Mutex

	ctx    context.Context
	cancel context.CancelFunc

	pending   map[string]time.Time
	pendingMu sync.Mutex
	timer     *time.Timer
}

func NewWatcher(opts Options, onChange func(context.Context, []string)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		fsWatcher: fsw,
		debounce:  opts.Debounce,
		ignore:    opts.Ignore,
		skipFile:  opts.SkipFile,
		limiter:   opts.Limiter,
		onChange:  onChange,
		pending:   make(map[string]time.Time),
	}
	for _, p := range opts.Prune {
		abs, err := filepath.Abs(p)
		if err != nil {
			_ = fsw.Close()
			return nil, err
		}
		w.prune = append(w.prune, abs)
	}
	return w, nil
}

// Watch registers every directory under paths and starts delivering batched
// change notifications until ctx is cancelled or Close is called.
func (w *Watcher) Watch(ctx context.Context, paths []string) error {
	for _, path := range paths {
		if err := w.watchRecursive(path); err != nil {
			return err
		}
	}

	w.ctx, w.cancel = context.WithCancel(ctx)
	go w.run()
	return nil
}

func (w *Watcher) watchRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			if path != root && w.shouldExcludeDir(path) {
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
		case <-w.ctx.Done():
			return

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			observability.WatcherEventsTotal.Inc()

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

			if w.shouldExcludeFile(event.Name) {
				continue
			}

			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
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

	w.pending[path] = time.Now()

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
	w.pending = make(map[string]time.Time)
	w.pendingMu.Unlock()

	if len(paths) == 0 {
		return
	}
	slices.Sort(paths)

	w.callbackMu.Lock()
	defer w.callbackMu.Unlock()

	if w.limiter != nil && !w.limiter.Allow(1) {
		observability.WatcherThrottledTotal.Inc()
		slog.Debug("rebuild throttled", "paths", len(paths))
		if err := w.limiter.Wait(w.ctx, 1); err != nil {
			return
		}
	}
	if w.ctx.Err() != nil {
		return
	}
	w.onChange(w.ctx, paths)
}

func (w *Watcher) shouldExcludeDir(path string) bool {
	if w.isPruned(path) {
		return true
	}
	return w.ignore.Match(path)
}

func (w *Watcher) shouldExcludeFile(path string) bool {
	base := filepath.Base(path)

	// editor swap and backup files
	if strings.HasPrefix(base, ".#") || strings.HasSuffix(base, "~") || strings.HasSuffix(base, ".swp") {
		return true
	}
	if w.isPruned(filepath.Dir(path)) {
		return true
	}
	if w.skipFile != nil && w.skipFile(path) {
		return true
	}
	return w.ignore.Match(path)
}

func (w *Watcher) isPruned(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	for _, p := range w.prune {
		if abs == p || strings.HasPrefix(abs, p+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func (w *Watcher) Close() error {
	if w.cancel != nil {
		w.cancel()
	}
	w.pendingMu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.pendingMu.Unlock()
	return w.fsWatcher.Close()
}

func (w *Watcher) enqueueExistingFiles(root string) {
	_ = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil || d == nil {
			return nil
		}
		if d.IsDir() {
			if path != root && w.shouldExcludeDir(path) {
				return filepath.SkipDir
			}
			return nil
		}
		if w.shouldExcludeFile(path) {
			return nil
		}
		w.scheduleChange(path)
		return nil
	})
}
