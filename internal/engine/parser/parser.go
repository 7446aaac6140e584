// Package parser extracts import references from Python source.
package parser

import (
	"fmt"
	"os"
	"time"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"

	"promptpack/internal/core/errors"
	"promptpack/internal/shared/observability"
)

// SourceExtension is the file extension modules resolve to.
const SourceExtension = ".py"

var (
	pythonLanguage = sitter.NewLanguage(tree_sitter_python.Language())
	pythonParsers  = newParserPool(pythonLanguage)
)

// ParseImports is a pure function from Python source text to the imports it
// declares, in source order. Source containing syntax errors is rejected with
// a PARSE_ERROR.
func ParseImports(source []byte) ([]ImportRef, error) {
	p, err := pythonParsers.get()
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "load python grammar")
	}
	defer pythonParsers.put(p)

	tree := p.Parse(source, nil)
	if tree == nil {
		return nil, errors.New(errors.CodeInternal, "parse failed")
	}
	defer tree.Close()

	root := tree.RootNode()
	if bad := firstError(root); bad != nil {
		pos := bad.StartPosition()
		return nil, errors.New(errors.CodeParse, fmt.Sprintf("syntax error at line %d column %d", pos.Row+1, pos.Column+1))
	}

	extractor := &PythonExtractor{}
	return extractor.Extract(root, source), nil
}

// ExtractFile reads path and returns its imports.
func ExtractFile(path string) ([]ImportRef, error) {
	start := time.Now()
	defer func() {
		observability.ParsingDuration.Observe(time.Since(start).Seconds())
	}()

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.AddContext(errors.Wrap(err, errors.CodeIO, "read source"), errors.CtxPath, path)
	}
	refs, err := ParseImports(content)
	if err != nil {
		return nil, errors.AddContext(err, errors.CtxPath, path)
	}
	return refs, nil
}

// Source supplies the imports of a file.
type Source interface {
	Imports(path string) ([]ImportRef, error)
}

// FileSource parses files from disk on every call.
type FileSource struct{}

func (FileSource) Imports(path string) ([]ImportRef, error) {
	return ExtractFile(path)
}
