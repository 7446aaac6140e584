package parser

import (
	"os"
	"path/filepath"
	"testing"

	"promptpack/internal/core/errors"
)

func TestParseImports(t *testing.T) {
	code := `
import os
import sys as system, json
import auth.utils
from auth.session import login as auth_login, logout
from . import local_mod
from ..parent import parent_mod
from .sibling import (a,
    b)
from pkg import *

def lazy():
    import inner.helpers
    return inner

class Widget:
    from typing import Any
`
	refs, err := ParseImports([]byte(code))
	if err != nil {
		t.Fatal(err)
	}

	want := []ImportRef{
		{Module: "os"},
		{Module: "sys"},
		{Module: "json"},
		{Module: "auth.utils"},
		{Module: "auth.session", Names: []string{"login", "logout"}},
		{Module: "", Level: 1, Names: []string{"local_mod"}},
		{Module: "parent", Level: 2, Names: []string{"parent_mod"}},
		{Module: "sibling", Level: 1, Names: []string{"a", "b"}},
		{Module: "pkg"},
		{Module: "inner.helpers"},
		{Module: "typing", Names: []string{"Any"}},
	}

	if len(refs) != len(want) {
		for i, r := range refs {
			t.Logf("import %d: %s %v", i, r.String(), r.Names)
		}
		t.Fatalf("expected %d imports, got %d", len(want), len(refs))
	}

	for i, w := range want {
		got := refs[i]
		if got.Module != w.Module || got.Level != w.Level {
			t.Errorf("import %d: expected %q level %d, got %q level %d", i, w.Module, w.Level, got.Module, got.Level)
		}
		if len(got.Names) != len(w.Names) {
			t.Errorf("import %d: expected names %v, got %v", i, w.Names, got.Names)
			continue
		}
		for j := range w.Names {
			if got.Names[j] != w.Names[j] {
				t.Errorf("import %d: expected names %v, got %v", i, w.Names, got.Names)
			}
		}
	}

	if refs[0].Line != 2 {
		t.Errorf("expected first import on line 2, got %d", refs[0].Line)
	}
	if !refs[5].IsRelative() || refs[5].String() != "." {
		t.Errorf("expected relative import rendered as '.', got %q", refs[5].String())
	}
	if refs[6].String() != "..parent" {
		t.Errorf("expected ..parent, got %q", refs[6].String())
	}
}

func TestParseImports_NoImports(t *testing.T) {
	refs, err := ParseImports([]byte("x = 1\nprint(x)\n"))
	if err != nil {
		t.Fatal(err)
	}
	if len(refs) != 0 {
		t.Errorf("expected no imports, got %v", Modules(refs))
	}
}

func TestParseImports_SyntaxError(t *testing.T) {
	_, err := ParseImports([]byte("import os\ndef broken(:\n    pass\n"))
	if err == nil {
		t.Fatal("expected syntax error")
	}
	if !errors.IsCode(err, errors.CodeParse) {
		t.Errorf("expected PARSE_ERROR, got %v", err)
	}
}

func TestExtractFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.py")
	if err := os.WriteFile(path, []byte("import b\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	refs, err := FileSource{}.Imports(path)
	if err != nil {
		t.Fatal(err)
	}
	if got := Modules(refs); len(got) != 1 || got[0] != "b" {
		t.Errorf("expected [b], got %v", got)
	}

	_, err = ExtractFile(filepath.Join(dir, "missing.py"))
	if !errors.IsCode(err, errors.CodeIO) {
		t.Errorf("expected IO_ERROR for missing file, got %v", err)
	}
}
