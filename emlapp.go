package emlapp

import (
	"io"
	"log/slog"
	"time"

	"github.com/aretw0/emlapp/internal/platform"
	"github.com/aretw0/emlapp/pkg/core"
	"github.com/aretw0/emlapp/pkg/eml"
)

// --- Types ---

// Manifest is a public alias for the extraction manifest.
type Manifest = core.Manifest

// ExtractOptions is a public alias for the extraction options.
type ExtractOptions = core.ExtractOptions

// --- Configuration ---

// Option defines a functional option for configuring emlapp.
type Option = platform.Option

// WithLogger sets the logger for the service.
func WithLogger(logger *slog.Logger) Option {
	return platform.WithLogger(logger)
}

// WithSink allows injecting a custom storage adapter.
func WithSink(sink core.Sink) Option {
	return platform.WithSink(sink)
}

// WithAdapter allows specifying the storage adapter to use by name.
func WithAdapter(name string) Option {
	return platform.WithAdapter(name)
}

// WithSystemDir sets the hidden directory that holds the manifest.
func WithSystemDir(name string) Option {
	return platform.WithSystemDir(name)
}

// WithMustExist requires the output directory to exist already.
func WithMustExist(must bool) Option {
	return platform.WithMustExist(must)
}

// WithStrict rejects packages whose multipart body is not terminated.
func WithStrict(strict bool) Option {
	return platform.WithStrict(strict)
}

// WithEventBuffer sets the size of the Watch event channel.
func WithEventBuffer(size int) Option {
	return platform.WithEventBuffer(size)
}

// WithDebounce sets how long the watcher waits for writes to settle.
func WithDebounce(d time.Duration) Option {
	return platform.WithDebounce(d)
}

// WithWatcherErrorHandler registers a callback for runtime watcher failures.
func WithWatcherErrorHandler(fn func(error)) Option {
	return platform.WithWatcherErrorHandler(fn)
}

// --- Factory ---

// New creates a service that extracts into out.
func New(out string, opts ...Option) (*core.Service, error) {
	return platform.New(out, opts...)
}

// Init initializes a sink explicitly.
func Init(out string, opts ...Option) (core.Sink, error) {
	return platform.Init(out, opts...)
}

// --- Operations ---

// Parse reads a package without touching the filesystem.
func Parse(r io.Reader, strict bool) (*eml.Message, error) {
	return eml.Parse(r, eml.WithStrict(strict))
}

// ResolveOutputDir returns out, or a fresh temporary directory named after
// the package when out is empty.
func ResolveOutputDir(out, source string) (string, error) {
	return platform.ResolveOutputDir(out, source)
}

// FindOutputRoot looks upwards for a directory holding an extraction.
func FindOutputRoot(startDir string) (string, error) {
	return platform.FindOutputRoot(startDir, "")
}
