// Package walker selects files below one or more roots.
package walker

import (
	"context"
	"io/fs"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"promptpack/internal/core/errors"
	"promptpack/internal/engine/filter"
	"promptpack/internal/engine/rules"
	"promptpack/internal/shared/observability"
)

const hiddenPrefix = "."

type Options struct {
	IncludeHidden bool
	ApplyRules    bool
	RuleFile      string
	// MaxAgeDays is nil when the recency filter is off. Zero is a valid
	// threshold and keeps files modified within the last 24 hours.
	MaxAgeDays *int
	Now        func() time.Time
}

// Candidate is the per-step view of a path under consideration.
type Candidate struct {
	Path    string
	Name    string
	Dir     string
	ModTime time.Time
}

// Walker holds no per-walk state, so one Walker may run several walks at
// once.
type Walker struct {
	opts  Options
	files *filter.Filter
	dirs  *filter.Filter
}

func New(opts Options, f *filter.Filter) *Walker {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.RuleFile == "" {
		opts.RuleFile = rules.DefaultFileName
	}
	if f == nil {
		f = filter.New(nil, nil)
	}
	return &Walker{opts: opts, files: f, dirs: f.WithoutInclude()}
}

// Walk returns the selected files below root, or root itself when it is a
// selected file. The rules of root's parent directory apply from the start.
// Entries are visited in lexical order.
func (w *Walker) Walk(ctx context.Context, root string) ([]string, error) {
	ctx, span := observability.Tracer.Start(ctx, "walker.Walk")
	defer span.End()
	start := time.Now()
	defer func() {
		observability.WalkDuration.Observe(time.Since(start).Seconds())
	}()

	root = filepath.Clean(root)
	info, err := os.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.AddContext(errors.New(errors.CodeNotFound, "path does not exist"), errors.CtxPath, root)
		}
		return nil, errors.AddContext(errors.Wrap(err, errors.CodeIO, "stat root"), errors.CtxPath, root)
	}

	now := w.opts.Now()
	inherited := rules.Snapshot{}
	if w.opts.ApplyRules {
		inherited = inherited.Extend(filepath.Dir(root), w.opts.RuleFile)
	}

	if !info.IsDir() {
		c := Candidate{
			Path:    root,
			Name:    filepath.Base(root),
			Dir:     filepath.Dir(root),
			ModTime: info.ModTime(),
		}
		if w.selectFile(c, inherited, now) {
			return []string{root}, nil
		}
		return nil, nil
	}

	var out []string
	if err := w.walkDir(ctx, root, inherited, now, &out); err != nil {
		return out, err
	}
	return out, nil
}

func (w *Walker) walkDir(ctx context.Context, dir string, inherited rules.Snapshot, now time.Time, out *[]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	snapshot := inherited
	if w.opts.ApplyRules {
		snapshot = inherited.Extend(dir, w.opts.RuleFile)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		slog.Warn("failed to read directory", "path", dir, "error", err)
		return nil
	}

	var subdirs []string
	for _, entry := range entries {
		name := entry.Name()
		path := filepath.Join(dir, name)

		if !w.opts.IncludeHidden && strings.HasPrefix(name, hiddenPrefix) {
			observability.FilesSkipped.WithLabelValues("hidden").Inc()
			continue
		}

		isDir, info, ok := classify(path, entry)
		if !ok {
			continue
		}

		if isDir {
			if w.dirs.ShouldIgnore(path, true, snapshot) {
				slog.Debug("pruning directory", "path", path)
				observability.FilesSkipped.WithLabelValues("dir_filter").Inc()
				continue
			}
			if entry.Type()&fs.ModeSymlink != 0 {
				// symlinked directories are listed but not followed
				continue
			}
			subdirs = append(subdirs, path)
			continue
		}

		c := Candidate{Path: path, Name: name, Dir: dir, ModTime: info.ModTime()}
		if w.selectFile(c, snapshot, now) {
			*out = append(*out, path)
		}
	}

	for _, sub := range subdirs {
		if err := w.walkDir(ctx, sub, snapshot, now, out); err != nil {
			return err
		}
	}
	return nil
}

func classify(path string, entry fs.DirEntry) (isDir bool, info fs.FileInfo, ok bool) {
	if entry.Type()&fs.ModeSymlink != 0 {
		target, err := os.Stat(path)
		if err != nil {
			slog.Debug("skipping dangling symlink", "path", path, "error", err)
			return false, nil, false
		}
		return target.IsDir(), target, true
	}
	info, err := entry.Info()
	if err != nil {
		slog.Debug("skipping entry without info", "path", path, "error", err)
		return false, nil, false
	}
	return entry.IsDir(), info, true
}

func (w *Walker) selectFile(c Candidate, snapshot rules.Snapshot, now time.Time) bool {
	if !w.recent(now, c.ModTime) {
		observability.FilesSkipped.WithLabelValues("age").Inc()
		return false
	}
	if w.files.ShouldIgnore(c.Path, false, snapshot) {
		observability.FilesSkipped.WithLabelValues("filter").Inc()
		return false
	}
	observability.FilesSelected.Inc()
	return true
}

func (w *Walker) recent(now, modTime time.Time) bool {
	if w.opts.MaxAgeDays == nil {
		return true
	}
	return AgeInDays(now, modTime) <= *w.opts.MaxAgeDays
}

// AgeInDays is the number of whole days between modTime and now, rounded
// toward negative infinity. Future timestamps give negative ages.
func AgeInDays(now, modTime time.Time) int {
	return int(math.Floor(now.Sub(modTime).Hours() / 24))
}
