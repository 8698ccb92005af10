package platform

import (
	"log/slog"
	"time"

	"github.com/aretw0/emlapp/pkg/core"
)

// options holds the internal configuration for the emlapp service.
type options struct {
	sink    core.Sink
	logger  *slog.Logger
	adapter string
	config  map[string]any
}

// Option defines a functional option for configuring emlapp.
type Option func(*options)

// defaultOptions returns the default configuration.
func defaultOptions() *options {
	return &options{
		adapter: "fs",
		config:  make(map[string]any),
	}
}

// WithLogger sets the logger for the service and its adapter.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithSink allows injecting a custom storage adapter (e.g. in-memory).
// If provided, the default filesystem adapter is skipped.
func WithSink(sink core.Sink) Option {
	return func(o *options) {
		o.sink = sink
	}
}

// WithAdapter selects the storage adapter by name. Defaults to "fs".
func WithAdapter(name string) Option {
	return func(o *options) {
		o.adapter = name
	}
}

// WithSystemDir sets the hidden directory that holds the manifest.
// Defaults to ".emlapp".
func WithSystemDir(name string) Option {
	return func(o *options) {
		o.config["system_dir"] = name
	}
}

// WithMustExist requires the output directory to exist already.
func WithMustExist(must bool) Option {
	return func(o *options) {
		o.config["must_exist"] = must
	}
}

// WithStrict rejects packages whose multipart body is not terminated.
func WithStrict(strict bool) Option {
	return func(o *options) {
		o.config["strict"] = strict
	}
}

// WithEventBuffer sets the size of the Watch event channel.
func WithEventBuffer(size int) Option {
	return func(o *options) {
		o.config["event_buffer"] = size
	}
}

// WithDebounce sets how long the watcher waits for a burst of writes to settle.
func WithDebounce(d time.Duration) Option {
	return func(o *options) {
		o.config["debounce"] = d
	}
}

// WithWatcherErrorHandler registers a callback for runtime watcher failures
// (e.g. permission denied) which are otherwise only logged.
func WithWatcherErrorHandler(fn func(error)) Option {
	return func(o *options) {
		o.config["watcher_error_handler"] = fn
	}
}
