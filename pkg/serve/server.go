// Package serve serves an extracted package over HTTP.
package serve

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aretw0/emlapp/pkg/core"
)

const shutdownTimeout = 5 * time.Second

// ManifestSource provides the manifest of the directory being served.
// core.Service and core.Sink both satisfy it.
type ManifestSource interface {
	Manifest(ctx context.Context) (*core.Manifest, error)
}

// Config holds the server configuration.
type Config struct {
	Addr      string // e.g. "127.0.0.1:8080"
	Dir       string // directory holding the extracted files
	SystemDir string // hidden from clients, defaults to ".emlapp"
	Manifests ManifestSource
	Logger    *slog.Logger
}

// Server serves extracted files plus health, manifest and metrics endpoints.
type Server struct {
	config   Config
	engine   *gin.Engine
	registry *prometheus.Registry
	metrics  *Metrics
	logger   *slog.Logger
}

// New builds the router.
func New(config Config) *Server {
	if config.Logger == nil {
		config.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if config.SystemDir == "" {
		config.SystemDir = ".emlapp"
	}

	gin.SetMode(gin.ReleaseMode)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())

	s := &Server{
		config:   config,
		registry: reg,
		metrics:  NewMetrics(reg),
		logger:   config.Logger,
	}

	r := gin.New()
	r.Use(gin.Recovery(), s.observe())

	r.GET("/healthz", s.healthz)
	r.HEAD("/healthz", s.healthz)
	r.GET("/readyz", s.readyz)
	r.HEAD("/readyz", s.readyz)
	r.GET("/api/manifest", s.manifest)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	r.NoRoute(s.static)

	s.engine = r
	return s
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Metrics returns the server's collectors.
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

// Run listens on the configured address until ctx is canceled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is canceled, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	s.logger.Info("serving", "url", "http://"+ln.Addr().String()+"/", "dir", s.config.Dir)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		s.logger.Info("server stopped")
		return nil
	}
}

// Observe records a watch event in the metrics.
func (s *Server) Observe(e core.Event) {
	switch e.Type {
	case core.EventExtracted:
		s.metrics.IncrementExtraction("success")
		if e.Manifest != nil {
			s.metrics.AddParts(len(e.Manifest.Entries))
		}
	case core.EventFailed:
		s.metrics.IncrementExtraction("failed")
	case core.EventRemoved:
		s.metrics.IncrementExtraction("removed")
	}
}

func (s *Server) observe() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "static"
		}
		status := c.Writer.Status()
		elapsed := time.Since(start)
		s.metrics.RecordHTTPRequestDuration(c.Request.Method, route, strconv.Itoa(status), elapsed)
		s.logger.Debug("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"duration", elapsed,
		)
	}
}

func (s *Server) healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) readyz(c *gin.Context) {
	if _, err := s.lookup(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

func (s *Server) manifest(c *gin.Context) {
	m, err := s.lookup(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, m)
}

func (s *Server) lookup(ctx context.Context) (*core.Manifest, error) {
	if s.config.Manifests == nil {
		return nil, core.ErrNotExtracted
	}
	return s.config.Manifests.Manifest(ctx)
}

// static serves files from the output directory. "/" maps to the
// manifest's entry point and the system directory is never exposed.
func (s *Server) static(c *gin.Context) {
	if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "method not allowed"})
		return
	}

	name := path.Clean("/" + c.Request.URL.Path)
	for _, seg := range strings.Split(name, "/") {
		if seg == s.config.SystemDir {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
	}

	if name == "/" {
		entry := "index.html"
		if m, err := s.lookup(c.Request.Context()); err == nil {
			entry = m.EntryPoint()
		}
		if entry == "" || !fileExists(filepath.Join(s.config.Dir, entry)) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no entry page"})
			return
		}
		// The file server answers "/" with index.html itself and redirects
		// "/index.html" back to "/".
		if entry != "index.html" {
			name = "/" + entry
		}
	}

	c.FileFromFS(name, http.Dir(s.config.Dir))
}

func fileExists(p string) bool {
	info, err := os.Stat(p)
	return err == nil && !info.IsDir()
}
