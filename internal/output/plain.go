package output

import (
	"bufio"
	"io"
	"os"
	"unicode/utf8"
)

const plainSeparator = "---"

type PlainGenerator struct {
	Metadata []Metadata
	Warn     *Warner
}

// Generate writes an optional metadata header and then, per file, its path,
// a separator, the raw contents and a closing separator. Files that cannot be
// read or are not valid UTF-8 are skipped with a warning.
func (g *PlainGenerator) Generate(w io.Writer, paths []string) error {
	bw := bufio.NewWriter(w)

	if len(g.Metadata) > 0 {
		bw.WriteString("Metadata:\n")
		for _, m := range g.Metadata {
			bw.WriteString("  " + m.Key + ": " + m.Value + "\n")
		}
		bw.WriteString("\n")
	}

	for _, path := range paths {
		content, err := os.ReadFile(path)
		if err != nil {
			g.Warn.Warnf("read", "Warning: Skipping file %s: %v", path, err)
			continue
		}
		if !utf8.Valid(content) {
			g.Warn.Warnf("decode", "Warning: Skipping file %s due to invalid UTF-8", path)
			continue
		}

		bw.WriteString(path + "\n")
		bw.WriteString(plainSeparator + "\n")
		bw.Write(content)
		bw.WriteString("\n\n")
		bw.WriteString(plainSeparator + "\n")
	}

	return bw.Flush()
}
