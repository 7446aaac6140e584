package output

import (
	"bufio"
	"encoding/base64"
	"encoding/xml"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"
)

var textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

type XMLGenerator struct {
	Base64   bool
	Metadata []Metadata
	Warn     *Warner
}

// Generate writes a <documents> bundle. Each file becomes a <document> with
// its position in paths as index, the metadata as extra attributes, a
// <source> and a <document_content>. Content is escaped text, or base64 with
// encoding="base64" when Base64 is set.
func (g *XMLGenerator) Generate(w io.Writer, paths []string) error {
	bw := bufio.NewWriter(w)
	bw.WriteString("<documents>")

	for index, path := range paths {
		content, err := os.ReadFile(path)
		if err != nil {
			g.Warn.Warnf("read", "Error reading file %s: %v", path, err)
			continue
		}

		var body string
		if g.Base64 {
			body = base64.StdEncoding.EncodeToString(content)
		} else {
			if !utf8.Valid(content) {
				g.Warn.Warnf("decode", "Warning: Skipping file %s due to invalid UTF-8", path)
				continue
			}
			body = textEscaper.Replace(string(content))
		}

		bw.WriteString(`<document index="` + strconv.Itoa(index) + `"`)
		for _, m := range g.Metadata {
			bw.WriteString(" " + m.Key + `="` + attr(m.Value) + `"`)
		}
		bw.WriteString(">")
		bw.WriteString("<source>" + textEscaper.Replace(path) + "</source>")
		if g.Base64 {
			bw.WriteString(`<document_content encoding="base64">`)
		} else {
			bw.WriteString("<document_content>")
		}
		bw.WriteString("\n" + body + "\n")
		bw.WriteString("</document_content></document>")
	}

	bw.WriteString("</documents>\n")
	return bw.Flush()
}

func attr(value string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(value))
	return b.String()
}
