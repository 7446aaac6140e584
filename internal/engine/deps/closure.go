// Package deps computes the set of local files an entry file transitively
// imports.
package deps

import (
	"context"
	"log/slog"
	"path/filepath"
	"sort"

	"promptpack/internal/engine/parser"
	"promptpack/internal/shared/observability"
)

// Resolver maps one import reference made by fromFile to local files.
type Resolver interface {
	ResolveRef(ref parser.ImportRef, fromFile string) []string
}

type Closure struct {
	source   parser.Source
	resolver Resolver
}

func New(source parser.Source, resolver Resolver) *Closure {
	if source == nil {
		source = parser.FileSource{}
	}
	return &Closure{source: source, resolver: resolver}
}

// run owns the state of one Resolve call. visited is keyed by absolute path
// and holds the spelling the file was first reached by.
type run struct {
	visited map[string]string
	stack   []string
}

func pathKey(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return filepath.Clean(p)
}

// Resolve returns entry plus every local file reachable from it through
// imports, sorted. Each file is parsed at most once, so import cycles
// terminate. A file that cannot be read or parsed stays in the result but
// contributes no further imports.
func (c *Closure) Resolve(ctx context.Context, entry string) ([]string, error) {
	ctx, span := observability.Tracer.Start(ctx, "deps.Resolve")
	defer span.End()

	r := &run{
		visited: make(map[string]string),
		stack:   []string{filepath.Clean(entry)},
	}

	for len(r.stack) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		file := r.stack[len(r.stack)-1]
		r.stack = r.stack[:len(r.stack)-1]
		key := pathKey(file)
		if _, ok := r.visited[key]; ok {
			continue
		}
		r.visited[key] = file

		refs, err := c.source.Imports(file)
		if err != nil {
			observability.ParseFailures.Inc()
			slog.Warn("skipping imports of unparsable file", "path", file, "error", err)
			continue
		}

		for _, ref := range refs {
			resolved := c.resolver.ResolveRef(ref, file)
			if len(resolved) == 0 {
				observability.ImportsResolved.WithLabelValues("external").Inc()
				slog.Debug("import treated as external", "path", file, "import", ref.String())
				continue
			}
			observability.ImportsResolved.WithLabelValues("local").Inc()
			for _, p := range resolved {
				p = filepath.Clean(p)
				if _, ok := r.visited[pathKey(p)]; !ok {
					r.stack = append(r.stack, p)
				}
			}
		}
	}

	out := make([]string, 0, len(r.visited))
	for _, p := range r.visited {
		out = append(out, p)
	}
	sort.Strings(out)
	observability.ClosureFiles.Set(float64(len(out)))
	return out, nil
}
