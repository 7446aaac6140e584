package parser

// ImportRef is one import as written in a Python source file.
type ImportRef struct {
	// Module is the dotted module name. It is empty for "from . import x".
	Module string
	// Level counts the leading dots of a relative import; 0 means absolute.
	Level int
	// Names lists what a "from" import binds, without aliases. Empty for
	// plain "import" statements and for wildcard imports.
	Names []string
	Line  int
}

func (r ImportRef) IsRelative() bool { return r.Level > 0 }

// String renders the reference roughly as it appears in source.
func (r ImportRef) String() string {
	prefix := ""
	for i := 0; i < r.Level; i++ {
		prefix += "."
	}
	return prefix + r.Module
}

// Modules flattens refs into their module names, in order. Relative imports
// without module text contribute an empty string.
func Modules(refs []ImportRef) []string {
	out := make([]string, len(refs))
	for i, r := range refs {
		out[i] = r.Module
	}
	return out
}
