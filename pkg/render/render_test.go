package render

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-rod/rod/lib/launcher"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileURL(t *testing.T) {
	dir := t.TempDir()
	u, err := FileURL(filepath.Join(dir, "index.html"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(u, "file:///"), u)
	assert.True(t, strings.HasSuffix(u, "/index.html"), u)
}

func TestScreenshotMissingPage(t *testing.T) {
	_, err := Screenshot(context.Background(), filepath.Join(t.TempDir(), "nope.html"), Options{})
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestScreenshot(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping browser test in short mode")
	}
	bin, ok := launcher.LookPath()
	if !ok {
		t.Skip("no local browser found")
	}

	dir := t.TempDir()
	page := filepath.Join(dir, "index.html")
	require.NoError(t, os.WriteFile(page, []byte(`<html><body style="background:#0a0"><h1>hi</h1></body></html>`), 0644))

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	out := filepath.Join(dir, "shot.png")
	require.NoError(t, ScreenshotFile(ctx, page, out, Options{Bin: bin, Width: 320, Height: 200}))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("\x89PNG\r\n\x1a\n")))
}
