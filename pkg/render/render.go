// Package render takes a screenshot of an extracted package with headless
// Chromium.
package render

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// Options configures a screenshot.
type Options struct {
	Width    int           // viewport width, defaults to 1280
	Height   int           // viewport height, defaults to 800
	FullPage bool          // capture beyond the viewport
	Bin      string        // browser binary; empty lets the launcher find or download one
	Timeout  time.Duration // load timeout, defaults to 30s
	Logger   *slog.Logger
}

func (o *Options) defaults() {
	if o.Width <= 0 {
		o.Width = 1280
	}
	if o.Height <= 0 {
		o.Height = 800
	}
	if o.Timeout <= 0 {
		o.Timeout = 30 * time.Second
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
}

// FileURL returns the file:// URL of a local path.
func FileURL(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}
	if filepath.VolumeName(abs) != "" {
		// Windows paths need a leading slash: file:///C:/...
		u.Path = "/" + u.Path
	}
	return u.String(), nil
}

// Screenshot opens page (a local HTML file) and returns a PNG of it.
func Screenshot(ctx context.Context, page string, opts Options) ([]byte, error) {
	opts.defaults()

	if _, err := os.Stat(page); err != nil {
		return nil, err
	}
	target, err := FileURL(page)
	if err != nil {
		return nil, err
	}

	l := launcher.New().Headless(true)
	if opts.Bin != "" {
		l = l.Bin(opts.Bin)
	}
	controlURL, err := l.Context(ctx).Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}
	defer l.Cleanup()

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect to browser: %w", err)
	}
	defer func() { _ = browser.Close() }()

	p, err := browser.Page(proto.TargetCreateTarget{URL: target})
	if err != nil {
		return nil, fmt.Errorf("create page: %w", err)
	}

	if err := (proto.EmulationSetDeviceMetricsOverride{
		Width:             opts.Width,
		Height:            opts.Height,
		DeviceScaleFactor: 1.0,
		Mobile:            false,
	}).Call(p); err != nil {
		opts.Logger.Warn("failed to set viewport", "error", err)
	}

	if err := p.Timeout(opts.Timeout).WaitLoad(); err != nil {
		return nil, fmt.Errorf("wait for load: %w", err)
	}

	png, err := p.Screenshot(opts.FullPage, nil)
	if err != nil {
		return nil, fmt.Errorf("screenshot: %w", err)
	}
	opts.Logger.Debug("rendered", "page", target, "bytes", len(png))
	return png, nil
}

// ScreenshotFile renders page and writes the PNG to out.
func ScreenshotFile(ctx context.Context, page, out string, opts Options) error {
	png, err := Screenshot(ctx, page, opts)
	if err != nil {
		return err
	}
	return os.WriteFile(out, png, 0644)
}
