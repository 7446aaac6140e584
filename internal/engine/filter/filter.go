// Package filter decides whether a candidate path is selected.
//
// Matching is a small subset of ignore-file semantics: every
// pattern is a case-sensitive glob tested against the basename only. There is
// no anchoring to the ignore-file's directory, no negation ("!pattern") and no
// "**" directory spanning.
//
// Patterns use gobwas/glob syntax, which differs from fnmatch in two places:
// "{a,b}" is an alternation, so "file{1,2}.txt" matches "file1.txt" and
// "file2.txt" rather than itself, and "\" escapes the next character instead
// of being literal.
package filter

import (
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/gobwas/glob"

	"promptpack/internal/engine/rules"
)

type matcher struct {
	pattern string
	g       glob.Glob
}

func (m matcher) Match(name string) bool {
	if m.g == nil {
		return name == m.pattern
	}
	return m.g.Match(name)
}

// compile never fails: a pattern gobwas/glob rejects is matched literally.
func compile(pattern string) matcher {
	g, err := glob.Compile(pattern)
	if err != nil {
		slog.Debug("glob pattern not compilable, matching literally", "pattern", pattern, "error", err)
		return matcher{pattern: pattern}
	}
	return matcher{pattern: pattern, g: g}
}

func compileAll(patterns []string) []matcher {
	out := make([]matcher, 0, len(patterns))
	for _, p := range patterns {
		out = append(out, compile(p))
	}
	return out
}

type Filter struct {
	ignore  []matcher
	include []matcher

	mu        sync.Mutex
	ruleCache map[string]matcher
}

func New(ignorePatterns, includePatterns []string) *Filter {
	return &Filter{
		ignore:    compileAll(ignorePatterns),
		include:   compileAll(includePatterns),
		ruleCache: make(map[string]matcher),
	}
}

// WithoutInclude returns a filter sharing the ignore list but with no include
// restriction. Directories are pruned with it so that "*.py" style include
// patterns do not stop traversal.
func (f *Filter) WithoutInclude() *Filter {
	return &Filter{
		ignore:    f.ignore,
		ruleCache: make(map[string]matcher),
	}
}

func (f *Filter) HasInclude() bool { return len(f.include) > 0 }

// ShouldIgnore reports whether path is excluded. Checks run in a fixed order
// and the first decisive one wins:
//
//  1. include patterns present and none matches the basename: ignored
//  2. an ignore pattern matches the basename: ignored
//  3. a rule matches the basename (or basename+"/" for directories): ignored
//
// Otherwise the path is selected.
func (f *Filter) ShouldIgnore(path string, isDir bool, snapshot rules.Snapshot) bool {
	base := filepath.Base(path)

	if len(f.include) > 0 && !anyMatch(f.include, base) {
		return true
	}

	if anyMatch(f.ignore, base) {
		return true
	}

	for _, r := range snapshot.Rules() {
		m := f.ruleMatcher(r.Pattern)
		if m.Match(base) {
			return true
		}
		if isDir && m.Match(base+"/") {
			return true
		}
	}
	return false
}

func (f *Filter) ruleMatcher(pattern string) matcher {
	f.mu.Lock()
	defer f.mu.Unlock()
	if m, ok := f.ruleCache[pattern]; ok {
		return m
	}
	m := compile(pattern)
	f.ruleCache[pattern] = m
	return m
}

func anyMatch(ms []matcher, name string) bool {
	for _, m := range ms {
		if m.Match(name) {
			return true
		}
	}
	return false
}
