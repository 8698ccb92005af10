package pack

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/emlapp/pkg/core"
	"github.com/aretw0/emlapp/pkg/eml"
)

func writeFiles(t *testing.T, dir string, files map[string][]byte) {
	t.Helper()
	for name, data := range files {
		p := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
		require.NoError(t, os.WriteFile(p, data, 0644))
	}
}

func TestBuildRoundTrip(t *testing.T) {
	dir := t.TempDir()
	logo := []byte{0x89, 'P', 'N', 'G', 0, 1, 2, 3, 0xff, 0xfe}
	long := []byte("var x = \"" + strings.Repeat("a", 1200) + "\";\n")
	files := map[string][]byte{
		"index.html":       []byte("<!doctype html>\n<link rel=\"stylesheet\" href=\"cid:style_css\">\n<meta name=\"viewport\" content=\"width=device-width\">\n"),
		"style.css":        []byte("body { color: #333; }\n"),
		"app.js":           []byte("console.log('café');"),
		"bundle.js":        long,
		"logo.png":         logo,
		".hidden":          []byte("secret"),
		"assets/nested.js": []byte("nested"),
	}
	writeFiles(t, dir, files)

	data, err := Build(dir, Options{Name: "Demo App", Version: "1.2.0", Boundary: "WEBAPP_BOUNDARY_test"})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("#!/bin/sh\n")))

	msg, err := eml.Parse(bytes.NewReader(data), eml.WithStrict(true))
	require.NoError(t, err)
	assert.Empty(t, msg.Warnings)
	assert.Equal(t, eml.PreambleShell, msg.PreambleKind)
	assert.Equal(t, "WEBAPP_BOUNDARY_test", msg.Boundary)
	assert.Equal(t, "Demo App", eml.DecodeHeader(msg.Header.Get("X-App-Name")))
	assert.Equal(t, "1.2.0", msg.Header.Get("X-App-Version"))
	assert.Equal(t, "emlapp", msg.Header.Get("X-Generator"))

	var names []string
	for _, p := range msg.Parts {
		names = append(names, p.Filename)
	}
	want := []string{"index.html", "app.js", "bundle.js", "logo.png", "style.css"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("part order mismatch (-want +got):\n%s", diff)
	}

	for _, name := range names {
		p, ok := msg.Part(name)
		require.True(t, ok, name)
		assert.Equal(t, files[name], p.Body, name)
		assert.False(t, p.Fallback, name)
	}

	css, _ := msg.Part("style.css")
	assert.Equal(t, "style_css", css.ContentID)
	assert.Equal(t, "8bit", css.Encoding)

	png, _ := msg.Part("logo.png")
	assert.Equal(t, "base64", png.Encoding)
	assert.Empty(t, png.ContentID)

	bundle, _ := msg.Part("bundle.js")
	assert.Equal(t, "base64", bundle.Encoding)

	check := eml.CheckShell(msg.Preamble)
	assert.Empty(t, check.Error)
	assert.Equal(t, 3, check.Statements)
}

func TestBuildFilters(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string][]byte{
		"index.html": []byte("<p>"),
		"app.js":     []byte("1"),
		"README.md":  []byte("# readme"),
	})

	data, err := Build(dir, Options{Exclude: []string{"*.MD"}})
	require.NoError(t, err)
	msg, err := eml.Parse(bytes.NewReader(data))
	require.NoError(t, err)
	require.Len(t, msg.Parts, 2)
	assert.True(t, strings.HasPrefix(msg.Boundary, "WEBAPP_BOUNDARY_"))
	assert.Equal(t, filepath.Base(dir), msg.Header.Get("X-App-Name"))

	_, err = Build(dir, Options{Include: []string{"*.png"}})
	assert.True(t, errors.Is(err, core.ErrNoFiles))

	_, err = Build(dir, Options{Include: []string{"[a-"}})
	assert.True(t, errors.Is(err, core.ErrInvalidPattern))
}

func TestBuildFileExtract(t *testing.T) {
	src := t.TempDir()
	writeFiles(t, src, map[string][]byte{"index.html": []byte("<h1>hello</h1>\n")})

	out := filepath.Join(t.TempDir(), "demo.eml.sh")
	require.NoError(t, BuildFile(src, out, Options{}))

	info, err := os.Stat(out)
	require.NoError(t, err)
	assert.NotZero(t, info.Mode()&0100)

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()
	msg, err := eml.Parse(f)
	require.NoError(t, err)
	p, ok := msg.Part("index.html")
	require.True(t, ok)
	assert.Equal(t, "<h1>hello</h1>\n", string(p.Body))
}

func TestBuildBoundaryCollision(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string][]byte{"index.html": []byte("--WEBAPP_BOUNDARY_x\n")})
	_, err := Build(dir, Options{Boundary: "WEBAPP_BOUNDARY_x"})
	assert.Error(t, err)
}

func TestContentID(t *testing.T) {
	assert.Equal(t, "style_css", ContentID("style.css"))
	assert.Equal(t, "logo_svg", ContentID("logo.svg"))
	assert.Equal(t, "app_min_js", ContentID("app.min.js"))
	assert.Equal(t, "", ContentID("index.html"))
}

func TestBuildSkipsUnsafeNames(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("backslash is a path separator on windows")
	}
	dir := t.TempDir()
	writeFiles(t, dir, map[string][]byte{
		"index.html": []byte("<p>"),
		`a\b.txt`:    []byte("shadow"),
		"b.txt":      []byte("real"),
	})

	data, err := Build(dir, Options{})
	require.NoError(t, err)
	msg, err := eml.Parse(bytes.NewReader(data), eml.WithStrict(true))
	require.NoError(t, err)

	var names []string
	for _, p := range msg.Parts {
		names = append(names, p.Filename)
	}
	if diff := cmp.Diff([]string{"index.html", "b.txt"}, names); diff != "" {
		t.Errorf("part names mismatch (-want +got):\n%s", diff)
	}
	p, ok := msg.Part("b.txt")
	require.True(t, ok)
	assert.Equal(t, "real", string(p.Body))
}
