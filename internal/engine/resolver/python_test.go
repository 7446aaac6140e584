package resolver

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"promptpack/internal/engine/parser"
)

func writeFile(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, nil, 0o644))
}

func newResolver(t *testing.T, root string) *PythonResolver {
	t.Helper()
	r, err := NewPythonResolver(root, 16)
	require.NoError(t, err)
	return r
}

func TestModulePath(t *testing.T) {
	assert.Equal(t, "a/b/c.py", ModulePath("a.b.c"))
	assert.Equal(t, "b.py", ModulePath("b"))
}

func TestResolve(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "b.py"))
	writeFile(t, filepath.Join(root, "pkg", "__init__.py"))
	writeFile(t, filepath.Join(root, "pkg", "util.py"))
	writeFile(t, filepath.Join(root, "src", "app", "models.py"))

	r := newResolver(t, root)

	tests := []struct {
		module string
		want   string
		ok     bool
	}{
		{"b", "b.py", true},
		{"pkg.util", "pkg/util.py", true},
		{"pkg", "pkg/__init__.py", true},
		{"app.models", "src/app/models.py", true},
		{"models", "src/app/models.py", true},
		{"os", "", false},
		{"requests.adapters", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.module, func(t *testing.T) {
			got, ok := r.Resolve(tt.module)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, filepath.Join(root, filepath.FromSlash(tt.want)), got)
			}
		})
	}
}

func TestResolve_SegmentBoundary(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "mylib.py"))

	_, ok := newResolver(t, root).Resolve("lib")
	assert.False(t, ok, "lib must not match mylib.py")
}

func TestResolve_DeterministicTieBreak(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "z", "deep", "utils.py"))
	writeFile(t, filepath.Join(root, "b", "utils.py"))
	writeFile(t, filepath.Join(root, "a", "utils.py"))

	got, ok := newResolver(t, root).Resolve("utils")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(root, "a", "utils.py"), got)

	writeFile(t, filepath.Join(root, "utils.py"))
	got, ok = newResolver(t, root).Resolve("utils")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(root, "utils.py"), got)
}

func TestResolve_Memoized(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "b.py"))

	r := newResolver(t, root)
	first, ok := r.Resolve("b")
	require.True(t, ok)

	// the index is built once, so files created afterwards are not seen
	writeFile(t, filepath.Join(root, "c.py"))
	_, ok = r.Resolve("c")
	assert.False(t, ok)

	again, ok := r.Resolve("b")
	require.True(t, ok)
	assert.Equal(t, first, again)
}

func TestResolveRef_FromImportSubmodules(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "pkg", "__init__.py"))
	writeFile(t, filepath.Join(root, "pkg", "alpha.py"))

	r := newResolver(t, root)
	got := r.ResolveRef(parser.ImportRef{Module: "pkg", Names: []string{"alpha", "helper"}}, filepath.Join(root, "main.py"))
	assert.Equal(t, []string{
		filepath.Join(root, "pkg", "__init__.py"),
		filepath.Join(root, "pkg", "alpha.py"),
	}, got)
}

func TestResolveRef_Relative(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "pkg", "__init__.py"))
	writeFile(t, filepath.Join(root, "pkg", "a.py"))
	writeFile(t, filepath.Join(root, "pkg", "b.py"))
	writeFile(t, filepath.Join(root, "pkg", "sub", "c.py"))
	writeFile(t, filepath.Join(root, "shared.py"))
	writeFile(t, filepath.Join(root, "other", "b.py"))

	r := newResolver(t, root)
	from := filepath.Join(root, "pkg", "sub", "c.py")

	t.Run("dot with names", func(t *testing.T) {
		got := r.ResolveRef(parser.ImportRef{Level: 2, Names: []string{"b", "missing"}}, from)
		assert.Equal(t, []string{filepath.Join(root, "pkg", "b.py")}, got)
	})

	t.Run("dot falls back to package init", func(t *testing.T) {
		got := r.ResolveRef(parser.ImportRef{Level: 2, Names: []string{"CONSTANT"}}, from)
		assert.Equal(t, []string{filepath.Join(root, "pkg", "__init__.py")}, got)
	})

	t.Run("module text", func(t *testing.T) {
		got := r.ResolveRef(parser.ImportRef{Module: "a", Level: 2, Names: []string{"thing"}}, from)
		assert.Equal(t, []string{filepath.Join(root, "pkg", "a.py")}, got)
	})

	t.Run("three levels", func(t *testing.T) {
		got := r.ResolveRef(parser.ImportRef{Module: "shared", Level: 3}, from)
		assert.Equal(t, []string{filepath.Join(root, "shared.py")}, got)
	})

	t.Run("no tree-wide fallback", func(t *testing.T) {
		got := r.ResolveRef(parser.ImportRef{Module: "b", Level: 1}, from)
		assert.Empty(t, got)
	})
}
