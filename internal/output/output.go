// Package output renders a selected file set as a plain-text dump or an XML
// document bundle.
package output

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"promptpack/internal/core/errors"
	"promptpack/internal/shared/observability"
)

type Format string

const (
	FormatPlain     Format = "plain"
	FormatXML       Format = "claude-xml"
	FormatXMLBase64 Format = "claude-xml-b64"
)

// ParseFormat accepts the format names plus "default" as an alias of plain.
func ParseFormat(value string) (Format, error) {
	switch strings.TrimSpace(value) {
	case "", "default", string(FormatPlain):
		return FormatPlain, nil
	case string(FormatXML):
		return FormatXML, nil
	case string(FormatXMLBase64):
		return FormatXMLBase64, nil
	}
	return "", errors.AddContext(
		errors.New(errors.CodeValidationError, fmt.Sprintf("unknown output format %q (want plain, claude-xml or claude-xml-b64)", value)),
		errors.CtxOperation, "output",
	)
}

// Metadata is one key/value pair copied onto every document.
type Metadata struct {
	Key   string
	Value string
}

var metadataKey = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9._-]*$`)

// ParseMetadata parses "key:value" items, splitting at the first colon.
// Keys become XML attribute names, so they must be valid names and must not
// shadow "index". A repeated key keeps its first position and its last value.
func ParseMetadata(items []string) ([]Metadata, error) {
	out := make([]Metadata, 0, len(items))
	seen := make(map[string]int, len(items))
	for _, item := range items {
		key, value, ok := strings.Cut(item, ":")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, errors.New(errors.CodeValidationError, fmt.Sprintf("metadata %q must be in key:value format", item))
		}
		if !metadataKey.MatchString(key) || key == "index" {
			return nil, errors.New(errors.CodeValidationError, fmt.Sprintf("metadata key %q is not a valid attribute name", key))
		}
		if i, ok := seen[key]; ok {
			out[i].Value = value
			continue
		}
		seen[key] = len(out)
		out = append(out, Metadata{Key: key, Value: value})
	}
	return out, nil
}

// Warner prints per-file problems to the diagnostic stream in red.
type Warner struct {
	w     io.Writer
	style lipgloss.Style
}

func NewWarner(w io.Writer) *Warner {
	if w == nil {
		return &Warner{}
	}
	r := lipgloss.NewRenderer(w)
	return &Warner{w: w, style: r.NewStyle().Foreground(lipgloss.Color("9"))}
}

func (w *Warner) Warnf(reason, format string, args ...any) {
	observability.FilesSkipped.WithLabelValues(reason).Inc()
	if w == nil || w.w == nil {
		return
	}
	fmt.Fprintln(w.w, w.style.Render(fmt.Sprintf(format, args...)))
}

type Generator interface {
	Generate(w io.Writer, paths []string) error
}

type Options struct {
	Format   Format
	Metadata []Metadata
	Warn     *Warner
}

func NewGenerator(opts Options) Generator {
	switch opts.Format {
	case FormatXML, FormatXMLBase64:
		return &XMLGenerator{Base64: opts.Format == FormatXMLBase64, Metadata: opts.Metadata, Warn: opts.Warn}
	default:
		return &PlainGenerator{Metadata: opts.Metadata, Warn: opts.Warn}
	}
}

// CountingWriter tracks how many bytes passed through it.
type CountingWriter struct {
	W io.Writer
	N int64
}

func (c *CountingWriter) Write(p []byte) (int, error) {
	n, err := c.W.Write(p)
	c.N += int64(n)
	return n, err
}
