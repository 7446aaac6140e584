package app

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"promptpack/internal/core/errors"
	"promptpack/internal/engine/deps"
	"promptpack/internal/engine/parser"
	"promptpack/internal/engine/resolver"
)

// CheckPaths fails on the first root that does not exist.
func CheckPaths(paths []string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			if os.IsNotExist(err) {
				return errors.AddContext(errors.New(errors.CodeNotFound, "Path does not exist: "+p), errors.CtxPath, p)
			}
			return errors.AddContext(errors.Wrap(err, errors.CodeIO, "stat path"), errors.CtxPath, p)
		}
	}
	return nil
}

// Select returns the deduplicated, sorted set of files for every root. Roots
// are checked up front so that a missing one aborts before any work. When
// dependency inclusion is on, every root that is a Python file also
// contributes its import closure.
func (a *App) Select(ctx context.Context) ([]string, error) {
	if err := CheckPaths(a.opts.Paths); err != nil {
		return nil, err
	}

	excluded := make(map[string]bool, len(a.opts.Exclude))
	for _, p := range a.opts.Exclude {
		excluded[absPath(p)] = true
	}

	// keyed by absolute path so differently spelled roots collapse
	selected := make(map[string]string)
	add := func(p string) {
		key := absPath(p)
		if excluded[key] {
			a.log.Debug("skipping excluded file", "path", p)
			return
		}
		if _, ok := selected[key]; !ok {
			selected[key] = p
		}
	}
	resolvers := make(map[string]*resolver.PythonResolver)

	for _, root := range a.opts.Paths {
		files, err := a.walker.Walk(ctx, root)
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			add(f)
		}
		a.log.Debug("walked root", "root", root, "selected", len(files))

		if !a.opts.Deps || !isEntryFile(root) {
			continue
		}

		projectRoot := a.opts.ProjectRoot
		if strings.TrimSpace(projectRoot) == "" {
			projectRoot = filepath.Dir(root)
		}
		projectRoot = filepath.Clean(projectRoot)
		r, ok := resolvers[projectRoot]
		if !ok {
			r, err = resolver.NewPythonResolver(projectRoot, a.opts.CacheSize)
			if err != nil {
				return nil, err
			}
			resolvers[projectRoot] = r
		}

		closure, err := deps.New(a.imports, r).Resolve(ctx, root)
		if err != nil {
			return nil, err
		}
		for _, f := range closure {
			add(f)
		}
		a.log.Debug("resolved dependencies", "entry", root, "project_root", projectRoot, "files", len(closure))
	}

	out := make([]string, 0, len(selected))
	for _, f := range selected {
		out = append(out, f)
	}
	sort.Strings(out)
	return out, nil
}

func isEntryFile(path string) bool {
	if filepath.Ext(path) != parser.SourceExtension {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return filepath.Clean(p)
}
