// Package watcher reports debounced batches of changed paths below a set of
// roots.
package watcher

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gobwas/glob"
	"golang.org/x/time/rate"

	"promptpack/internal/shared/observability"
)

type Options struct {
	Debounce time.Duration
	// MinInterval is the shortest time between two callbacks.
	MinInterval   time.Duration
	IncludeHidden bool
	ExcludeDirs   []string
}

type Watcher struct {
	fsWatcher     *fsnotify.Watcher
	debounce      time.Duration
	includeHidden bool
	excludeDirs   []glob.Glob
	limiter       *rate.Limiter
	onChange      func([]string)
	callbackMu    sync.Mutex

	ctx    context.Context
	cancel context.CancelFunc

	pending   map[string]time.Time
	pendingMu sync.Mutex
	timer     *time.Timer
}

func NewWatcher(opts Options, onChange func([]string)) (*Watcher, error) {
	if onChange == nil {
		return nil, os.ErrInvalid
	}

	compiledDirs := make([]glob.Glob, 0, len(opts.ExcludeDirs))
	for _, pattern := range opts.ExcludeDirs {
		g, err := glob.Compile(pattern)
		if err != nil {
			slog.Debug("ignoring uncompilable watch exclude", "pattern", pattern, "error", err)
			continue
		}
		compiledDirs = append(compiledDirs, g)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	limit := rate.Inf
	if opts.MinInterval > 0 {
		limit = rate.Every(opts.MinInterval)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Watcher{
		fsWatcher:     fsw,
		debounce:      opts.Debounce,
		includeHidden: opts.IncludeHidden,
		excludeDirs:   compiledDirs,
		limiter:       rate.NewLimiter(limit, 1),
		onChange:      onChange,
		ctx:           ctx,
		cancel:        cancel,
		pending:       make(map[string]time.Time),
	}, nil
}

func (w *Watcher) Watch(paths []string) error {
	for _, path := range paths {
		if err := w.watchRecursive(path); err != nil {
			return err
		}
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
						}
						w.scheduleChange(event.Name)
					}
					continue
				}
			}

			if !w.includeHidden && strings.HasPrefix(filepath.Base(event.Name), ".") && !isRuleFile(event.Name) {
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

// Ignore-files are hidden but change the selection, so they always count.
func isRuleFile(path string) bool {
	return strings.HasSuffix(filepath.Base(path), "ignore")
}

func (w *Watcher) scheduleChange(path string) {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()

	w.pending[path] = time.Now()

	if w.timer != nil {
		w.timer.Stop()
	}

	w.timer = time.AfterFunc(w.debounce, func() {
		w.flushChanges()
	})
}

func (w *Watcher) flushChanges() {
	w.callbackMu.Lock()
	defer w.callbackMu.Unlock()

	if err := w.limiter.Wait(w.ctx); err != nil {
		return
	}

	w.pendingMu.Lock()
	paths := make([]string, 0, len(w.pending))
	for path := range w.pending {
		paths = append(paths, path)
	}
	w.pending = make(map[string]time.Time)
	w.pendingMu.Unlock()

	if len(paths) > 0 {
		sort.Strings(paths)
		w.onChange(paths)
	}
}

func (w *Watcher) shouldExcludeDir(path string) bool {
	base := filepath.Base(path)
	if !w.includeHidden && strings.HasPrefix(base, ".") {
		return true
	}
	for _, g := range w.excludeDirs {
		if g.Match(base) {
			return true
		}
	}
	return false
}

func (w *Watcher) Close() error {
	w.cancel()
	w.pendingMu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.pendingMu.Unlock()
	return w.fsWatcher.Close()
}
