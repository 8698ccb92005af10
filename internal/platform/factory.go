package platform

import (
	"context"
	"fmt"
	"time"

	"github.com/aretw0/emlapp/pkg/adapters/fs"
	"github.com/aretw0/emlapp/pkg/core"
)

// New creates a service that extracts into out.
//
//	svc, err := emlapp.New("./out", emlapp.WithLogger(logger))
//
// The out argument is adapter-specific (a directory for "fs").
func New(out string, opts ...Option) (*core.Service, error) {
	sink, err := Init(out, opts...)
	if err != nil {
		return nil, err
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	strict, _ := o.config["strict"].(bool)
	buffer, _ := o.config["event_buffer"].(int)

	return core.NewService(sink, core.Config{
		Logger:      o.logger,
		Strict:      strict,
		EventBuffer: buffer,
	}), nil
}

// Init builds and initializes the configured sink.
func Init(out string, opts ...Option) (core.Sink, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	if o.sink != nil {
		return o.sink, nil
	}

	var sink core.Sink
	switch o.adapter {
	case "fs":
		sink = initFS(out, o)
	default:
		return nil, fmt.Errorf("unknown adapter: %s", o.adapter)
	}

	if err := sink.Initialize(context.Background()); err != nil {
		return nil, err
	}
	return sink, nil
}

func initFS(path string, o *options) *fs.Sink {
	systemDir, _ := o.config["system_dir"].(string)
	mustExist, _ := o.config["must_exist"].(bool)
	buffer, _ := o.config["event_buffer"].(int)
	debounce, _ := o.config["debounce"].(time.Duration)
	errorHandler, _ := o.config["watcher_error_handler"].(func(error))

	if o.logger != nil {
		o.logger.Debug("using filesystem sink", "path", path)
	}

	return fs.NewSink(fs.Config{
		Path:         path,
		SystemDir:    systemDir,
		MustExist:    mustExist,
		Logger:       o.logger,
		ErrorHandler: errorHandler,
		EventBuffer:  buffer,
		Debounce:     debounce,
	})
}
