package output

import (
	"bytes"
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"promptpack/internal/core/errors"
)

func writeFile(t *testing.T, dir, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, content, 0o644))
	return path
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{
		"":               FormatPlain,
		"default":        FormatPlain,
		"plain":          FormatPlain,
		"claude-xml":     FormatXML,
		"claude-xml-b64": FormatXMLBase64,
	} {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	_, err := ParseFormat("json")
	assert.True(t, errors.IsCode(err, errors.CodeValidationError))
}

func TestParseMetadata(t *testing.T) {
	got, err := ParseMetadata([]string{"project:demo", "url:https://example.com:8080"})
	require.NoError(t, err)
	assert.Equal(t, []Metadata{
		{Key: "project", Value: "demo"},
		{Key: "url", Value: "https://example.com:8080"},
	}, got)

	for _, bad := range []string{"novalue", ":empty", "has space:x", "index:3"} {
		_, err := ParseMetadata([]string{bad})
		assert.True(t, errors.IsCode(err, errors.CodeValidationError), bad)
	}
}

func TestParseMetadata_RepeatedKey(t *testing.T) {
	got, err := ParseMetadata([]string{"a:1", "b:2", "a:3"})
	require.NoError(t, err)
	assert.Equal(t, []Metadata{{Key: "a", Value: "3"}, {Key: "b", Value: "2"}}, got)

	dir := t.TempDir()
	f := writeFile(t, dir, "a.py", []byte("x"))
	var out bytes.Buffer
	g := &XMLGenerator{Metadata: got}
	require.NoError(t, g.Generate(&out, []string{f}))
	assert.Contains(t, out.String(), `<document index="0" a="3" b="2">`)
	assert.Equal(t, 1, strings.Count(out.String(), ` a="`))
}

func TestPlainGenerator(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.py", []byte("print('a')"))
	bin := writeFile(t, dir, "blob.bin", []byte{0xff, 0xfe, 0x00})
	missing := filepath.Join(dir, "missing.py")

	var out, warn bytes.Buffer
	g := NewGenerator(Options{
		Format:   FormatPlain,
		Metadata: []Metadata{{Key: "project", Value: "demo"}},
		Warn:     NewWarner(&warn),
	})
	require.NoError(t, g.Generate(&out, []string{a, bin, missing}))

	want := "Metadata:\n  project: demo\n\n" + a + "\n---\nprint('a')\n\n---\n"
	assert.Equal(t, want, out.String())
	assert.Contains(t, warn.String(), "Skipping file "+bin+" due to invalid UTF-8")
	assert.Contains(t, warn.String(), "Skipping file "+missing)
}

func TestXMLGenerator(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.py", []byte("if a < b & c:\n    pass"))
	b := writeFile(t, dir, "b.txt", []byte("hello"))

	var out bytes.Buffer
	g := NewGenerator(Options{
		Format:   FormatXML,
		Metadata: []Metadata{{Key: "project", Value: `say "hi"`}},
		Warn:     NewWarner(nil),
	})
	require.NoError(t, g.Generate(&out, []string{a, b}))

	want := `<documents>` +
		`<document index="0" project="say &#34;hi&#34;"><source>` + a + `</source><document_content>` +
		"\nif a &lt; b &amp; c:\n    pass\n" +
		`</document_content></document>` +
		`<document index="1" project="say &#34;hi&#34;"><source>` + b + `</source><document_content>` +
		"\nhello\n" +
		`</document_content></document>` +
		"</documents>\n"
	assert.Equal(t, want, out.String())
}

func TestXMLGenerator_Base64(t *testing.T) {
	dir := t.TempDir()
	raw := []byte{0x89, 'P', 'N', 'G', 0x00, 0xff}
	img := writeFile(t, dir, "img.png", raw)
	missing := filepath.Join(dir, "gone.png")

	var out, warn bytes.Buffer
	g := NewGenerator(Options{Format: FormatXMLBase64, Warn: NewWarner(&warn)})
	require.NoError(t, g.Generate(&out, []string{missing, img}))

	s := out.String()
	assert.True(t, strings.HasPrefix(s, `<documents><document index="1">`), s)
	assert.Contains(t, s, `<document_content encoding="base64">`+"\n"+base64.StdEncoding.EncodeToString(raw)+"\n")
	assert.Contains(t, warn.String(), "Error reading file "+missing)
}

func TestCountingWriter(t *testing.T) {
	var buf bytes.Buffer
	cw := &CountingWriter{W: &buf}
	_, err := cw.Write([]byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, int64(5), cw.N)
}
