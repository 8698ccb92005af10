package main

import (
	"context"
	"net"

	"github.com/aretw0/lifecycle"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	eventsource "github.com/aretw0/emlapp/pkg/adapters/lifecycle"
	"github.com/aretw0/emlapp/pkg/core"
	"github.com/aretw0/emlapp/pkg/serve"
)

// listen is swapped out in tests.
var listen = func(addr string) (net.Listener, error) {
	return net.Listen("tcp", addr)
}

var serveCmd = &cobra.Command{
	Use:   "serve [package]",
	Short: "Extract a package and serve it over HTTP",
	Long: `Extract the package and serve its files. "/" serves the entry page.
/healthz, /readyz, /api/manifest and /metrics are served alongside.

With --watch the package is extracted again every time it changes.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		source := args[0]
		svc, dir, err := newService(conf.GetString("out"), source)
		if err != nil {
			return err
		}

		opts := extractOptions()
		opts.RewriteCIDs = true

		srv := serve.New(serve.Config{
			Addr:      conf.GetString("addr"),
			Dir:       dir,
			SystemDir: conf.GetString("system-dir"),
			Manifests: svc,
			Logger:    logger,
		})

		ln, err := listen(conf.GetString("addr"))
		if err != nil {
			return err
		}

		if !conf.GetBool("watch") {
			m, err := svc.Extract(cmd.Context(), source, opts)
			if err != nil {
				ln.Close()
				return err
			}
			srv.Observe(core.Event{Type: core.EventExtracted, Source: source, Manifest: m})
			return srv.Serve(cmd.Context(), ln)
		}

		g, ctx := errgroup.WithContext(cmd.Context())

		events, err := svc.Watch(ctx, source, opts)
		if err != nil {
			ln.Close()
			return err
		}
		src := eventsource.NewSource(events)
		if err := src.Start(ctx); err != nil {
			ln.Close()
			return err
		}

		g.Go(func() error {
			return srv.Serve(ctx, ln)
		})
		g.Go(func() error {
			return observe(ctx, src.Events(), srv)
		})
		return g.Wait()
	},
}

// observe feeds watch events to the server metrics and the log.
func observe(ctx context.Context, events <-chan lifecycle.Event, srv *serve.Server) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case e, ok := <-events:
			if !ok {
				return nil
			}
			ce, isCore := e.(core.Event)
			if !isCore {
				continue
			}
			srv.Observe(ce)
			switch ce.Type {
			case core.EventFailed:
				logger.Error("reload failed", "source", ce.Source, "error", ce.Err)
			default:
				logger.Info("package changed", "event", ce.String())
			}
		}
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("out", "o", "", "Output directory")
	serveCmd.Flags().String("addr", "127.0.0.1:8080", "Listen address")
	serveCmd.Flags().Bool("watch", false, "Extract again when the package changes")
}
