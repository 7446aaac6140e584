package app

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"promptpack/internal/core/watcher"
	"promptpack/internal/shared/observability"
)

// WatchRoots lists the directories whose changes can alter the selection:
// directory roots as given, the parent of every file root, and the project
// root when dependency inclusion is on.
func (a *App) WatchRoots() []string {
	seen := make(map[string]bool)
	add := func(p string) {
		if strings.TrimSpace(p) == "" {
			return
		}
		seen[filepath.Clean(p)] = true
	}

	for _, root := range a.opts.Paths {
		info, err := os.Stat(root)
		if err != nil {
			continue
		}
		if info.IsDir() {
			add(root)
			continue
		}
		add(filepath.Dir(root))
		if a.opts.Deps && isEntryFile(root) && strings.TrimSpace(a.opts.ProjectRoot) != "" {
			add(a.opts.ProjectRoot)
		}
	}

	out := make([]string, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// StartWatcher calls onRebuild with the changed paths after every debounced
// batch of file system events, until ctx is done. Callbacks never overlap.
func (a *App) StartWatcher(ctx context.Context, debounce, minInterval time.Duration, onRebuild func(changed []string)) (*watcher.Watcher, error) {
	w, err := watcher.NewWatcher(watcher.Options{
		Debounce:      debounce,
		MinInterval:   minInterval,
		IncludeHidden: a.opts.IncludeHidden,
		ExcludeDirs:   a.opts.Ignore,
	}, func(paths []string) {
		if ctx.Err() != nil {
			return
		}
		a.log.Debug("change detected", "paths", len(paths))
		observability.RebuildsTotal.Inc()
		onRebuild(paths)
	})
	if err != nil {
		return nil, err
	}

	roots := a.WatchRoots()
	if err := w.Watch(roots); err != nil {
		_ = w.Close()
		return nil, err
	}
	a.log.Info("watching for changes", "roots", len(roots), "debounce", debounce)

	go func() {
		<-ctx.Done()
		_ = w.Close()
	}()
	return w, nil
}
