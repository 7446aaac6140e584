package parser

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// PythonExtractor collects import statements anywhere in a module, including
// ones nested in functions, classes and conditional blocks.
type PythonExtractor struct{}

func (e *PythonExtractor) Extract(root *sitter.Node, source []byte) []ImportRef {
	ctx := &ExtractionContext{Source: source}
	engine := NewExtractorEngine(map[string]NodeHandler{
		"import_statement":      e.extractImport,
		"import_from_statement": e.extractFromImport,
	})
	engine.Walk(ctx, root)
	return ctx.Imports
}

func (e *PythonExtractor) extractImport(ctx *ExtractionContext, node *sitter.Node) bool {
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)

		switch child.Kind() {
		case "dotted_name", "identifier":
			ctx.Imports = append(ctx.Imports, ImportRef{
				Module: ctx.Text(child),
				Line:   ctx.Line(child),
			})
		case "aliased_import":
			name := child.ChildByFieldName("name")
			if name == nil {
				continue
			}
			ctx.Imports = append(ctx.Imports, ImportRef{
				Module: ctx.Text(name),
				Line:   ctx.Line(child),
			})
		}
	}
	return true
}

func (e *PythonExtractor) extractFromImport(ctx *ExtractionContext, node *sitter.Node) bool {
	ref := ImportRef{Line: ctx.Line(node)}
	seenImport := false

	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)

		switch child.Kind() {
		case "import":
			seenImport = true
		case "relative_import":
			ref.Module, ref.Level = e.relative(ctx, child)
		case "dotted_name", "identifier":
			if seenImport {
				ref.Names = append(ref.Names, ctx.Text(child))
			} else {
				ref.Module = ctx.Text(child)
			}
		case "aliased_import":
			if name := child.ChildByFieldName("name"); name != nil {
				ref.Names = append(ref.Names, ctx.Text(name))
			}
		}
	}

	ctx.Imports = append(ctx.Imports, ref)
	return true
}

func (e *PythonExtractor) relative(ctx *ExtractionContext, node *sitter.Node) (string, int) {
	var module string
	level := 0
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		switch child.Kind() {
		case "import_prefix":
			level = strings.Count(ctx.Text(child), ".")
		case "dotted_name":
			module = ctx.Text(child)
		}
	}
	if level == 0 {
		// grammar versions without import_prefix keep the dots in the text
		text := ctx.Text(node)
		level = len(text) - len(strings.TrimLeft(text, "."))
	}
	return module, level
}
