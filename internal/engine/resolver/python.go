// Package resolver maps Python module names to files inside a project root.
//
// Only in-project modules resolve. Anything else, the standard library and
// installed packages included, is reported as unresolved and treated as an
// external dependency by callers.
package resolver

import (
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"promptpack/internal/engine/parser"
)

const (
	DefaultCacheSize = 1024
	packageInit      = "__init__" + parser.SourceExtension
)

type PythonResolver struct {
	root string

	indexOnce sync.Once
	files     []string // slash-separated, relative to root, sorted

	cache *lru.Cache[string, string]
}

func NewPythonResolver(projectRoot string, cacheSize int) (*PythonResolver, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	cache, err := lru.New[string, string](cacheSize)
	if err != nil {
		return nil, err
	}
	return &PythonResolver{root: filepath.Clean(projectRoot), cache: cache}, nil
}

// ModulePath converts a dotted module name to its slash-separated source path.
func ModulePath(module string) string {
	return strings.ReplaceAll(module, ".", "/") + parser.SourceExtension
}

// Resolve maps an absolute module name to a file below the project root. A
// file matches when its root-relative path ends, at a segment boundary, with
// the module path ("a.b" matches ".../a/b.py"); a package "a/b/__init__.py"
// is tried when no module file exists. With several matches the one with the
// fewest path segments wins and ties go to the lexically smallest path.
func (r *PythonResolver) Resolve(module string) (string, bool) {
	module = strings.TrimSpace(module)
	if module == "" {
		return "", false
	}
	if cached, ok := r.cache.Get(module); ok {
		return cached, cached != ""
	}

	r.indexOnce.Do(r.buildIndex)

	base := strings.ReplaceAll(module, ".", "/")
	rel, ok := r.best(base + parser.SourceExtension)
	if !ok {
		rel, ok = r.best(base + "/" + packageInit)
	}

	resolved := ""
	if ok {
		resolved = filepath.Join(r.root, filepath.FromSlash(rel))
	}
	r.cache.Add(module, resolved)
	return resolved, ok
}

// ResolveRef returns every local file ref refers to. Besides the module
// itself, names bound by a "from" import are tried as submodules. Relative
// imports are anchored at the importing file's package and never fall back to
// a tree-wide search.
func (r *PythonResolver) ResolveRef(ref parser.ImportRef, fromFile string) []string {
	if ref.IsRelative() {
		return r.resolveRelative(ref, fromFile)
	}

	var out []string
	if p, ok := r.Resolve(ref.Module); ok {
		out = append(out, p)
	}
	for _, name := range ref.Names {
		if p, ok := r.Resolve(ref.Module + "." + name); ok {
			out = append(out, p)
		}
	}
	return out
}

func (r *PythonResolver) resolveRelative(ref parser.ImportRef, fromFile string) []string {
	dir := filepath.Dir(filepath.Clean(fromFile))
	for i := 1; i < ref.Level; i++ {
		dir = filepath.Dir(dir)
	}
	if ref.Module != "" {
		dir = filepath.Join(dir, filepath.FromSlash(strings.ReplaceAll(ref.Module, ".", "/")))
	}

	var out []string
	if ref.Module != "" {
		if p, ok := localModule(dir); ok {
			out = append(out, p)
		}
	}
	for _, name := range ref.Names {
		if p, ok := localModule(filepath.Join(dir, name)); ok {
			out = append(out, p)
		}
	}
	if ref.Module == "" && len(out) == 0 {
		if p := filepath.Join(dir, packageInit); isFile(p) {
			out = append(out, p)
		}
	}
	return out
}

// localModule tries base+".py" then base/__init__.py.
func localModule(base string) (string, bool) {
	if p := base + parser.SourceExtension; isFile(p) {
		return p, true
	}
	if p := filepath.Join(base, packageInit); isFile(p) {
		return p, true
	}
	return "", false
}

func isFile(p string) bool {
	info, err := os.Stat(p)
	return err == nil && !info.IsDir()
}

func (r *PythonResolver) best(target string) (string, bool) {
	var (
		best     string
		bestSegs int
		matches  int
	)
	for _, rel := range r.files {
		if rel != target && !strings.HasSuffix(rel, "/"+target) {
			continue
		}
		matches++
		segs := strings.Count(rel, "/")
		if matches == 1 || segs < bestSegs {
			best, bestSegs = rel, segs
		}
	}
	if matches > 1 {
		slog.Debug("ambiguous module path", "target", target, "matches", matches, "chosen", best)
	}
	return best, matches > 0
}

func (r *PythonResolver) buildIndex() {
	err := filepath.WalkDir(r.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			slog.Debug("skipping unreadable path while indexing", "path", p, "error", err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || path.Ext(d.Name()) != parser.SourceExtension {
			return nil
		}
		rel, err := filepath.Rel(r.root, p)
		if err != nil {
			return nil
		}
		r.files = append(r.files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		slog.Warn("failed to index project root", "root", r.root, "error", err)
	}
	sort.Strings(r.files)
	slog.Debug("indexed project root", "root", r.root, "files", len(r.files))
}
