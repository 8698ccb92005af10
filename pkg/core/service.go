package core

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/lifecycle"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/google/uuid"

	"github.com/aretw0/emlapp/pkg/eml"
)

const defaultEventBuffer = 100

// Config holds the service configuration.
type Config struct {
	Logger *slog.Logger
	// Strict rejects packages whose multipart body is not terminated.
	Strict bool
	// EventBuffer is the size of the Watch channel. Zero means 100.
	EventBuffer int
}

// Service handles the extraction of packages into a Sink.
type Service struct {
	sink            Sink
	logger          *slog.Logger
	strict          bool
	eventBufferSize int

	mu             sync.RWMutex
	extractions    int
	failures       int
	lastSource     string
	lastExtraction *time.Time
}

// NewService creates a new Service.
func NewService(sink Sink, config Config) *Service {
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	buffer := config.EventBuffer
	if buffer <= 0 {
		buffer = defaultEventBuffer
	}
	return &Service{
		sink:            sink,
		logger:          logger,
		strict:          config.Strict,
		eventBufferSize: buffer,
	}
}

// Sink returns the storage the service extracts into.
func (s *Service) Sink() Sink {
	return s.sink
}

// Inspect reads and parses a package without writing anything.
func (s *Service) Inspect(ctx context.Context, path string) (*Package, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read package: %w", err)
	}

	msg, err := eml.Parse(bytes.NewReader(data), eml.WithStrict(s.strict))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}
	for _, w := range msg.Warnings {
		s.logger.Warn("package decode warning", "source", path, "warning", w)
	}

	sum := sha256.Sum256(data)
	return &Package{
		Source:  path,
		Size:    int64(len(data)),
		SHA256:  hex.EncodeToString(sum[:]),
		App:     readAppMetadata(msg),
		Message: msg,
	}, nil
}

// Extract parses the package at path and writes its parts to the sink.
// When the package hash and options match the last manifest the write is
// skipped and the previous manifest is returned with Skipped set.
func (s *Service) Extract(ctx context.Context, path string, opts ExtractOptions) (*Manifest, error) {
	if err := ValidatePatterns(opts.Include, opts.Exclude); err != nil {
		return nil, err
	}

	pkg, err := s.Inspect(ctx, path)
	if err != nil {
		s.recordFailure()
		return nil, err
	}

	if !opts.Force {
		if prev, err := s.sink.Manifest(ctx); err == nil && prev.SHA256 == pkg.SHA256 && prev.Options.key() == opts.key() {
			if err := s.verify(ctx, prev); err != nil {
				s.logger.Info("extracted files changed, extracting again", "source", path, "error", err)
			} else {
				s.logger.Debug("package unchanged, skipping", "source", path, "sha256", pkg.SHA256)
				prev.Skipped = true
				return prev, nil
			}
		}
	}

	files, err := s.selectFiles(pkg.Message, opts)
	if err != nil {
		s.recordFailure()
		return nil, err
	}

	batch, err := s.sink.Begin(ctx)
	if err != nil {
		s.recordFailure()
		return nil, fmt.Errorf("failed to begin batch: %w", err)
	}

	for _, f := range files {
		if err := batch.Stage(ctx, f); err != nil {
			_ = batch.Rollback(ctx)
			s.recordFailure()
			return nil, fmt.Errorf("failed to stage %s: %w", f.Name, err)
		}
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	m := &Manifest{
		ID:          uuid.NewString(),
		Source:      abs,
		SHA256:      pkg.SHA256,
		ExtractedAt: time.Now().UTC(),
		App:         pkg.App,
		Options:     opts,
		Warnings:    pkg.Message.Warnings,
		Message:     pkg.Message.Raw,
	}

	if err := batch.Commit(ctx, m); err != nil {
		_ = batch.Rollback(ctx)
		s.recordFailure()
		return nil, fmt.Errorf("failed to commit extraction: %w", err)
	}

	s.recordExtraction(abs)
	s.logger.Info("package extracted",
		"source", path,
		"files", len(m.Entries),
		"out", m.OutputDir,
		"id", m.ID,
	)
	return m, nil
}

func (s *Service) verify(ctx context.Context, m *Manifest) error {
	if v, ok := s.sink.(Verifiable); ok {
		return v.Verify(ctx, m)
	}
	return nil
}

// Manifest returns the last committed manifest.
func (s *Service) Manifest(ctx context.Context) (*Manifest, error) {
	return s.sink.Manifest(ctx)
}

// Clean removes the files of the last extraction.
func (s *Service) Clean(ctx context.Context) error {
	return s.sink.Clean(ctx)
}

// Watch extracts the package once and then again every time it changes.
// Unchanged rewrites of the file produce no event.
func (s *Service) Watch(ctx context.Context, path string, opts ExtractOptions) (<-chan Event, error) {
	w, ok := s.sink.(Watchable)
	if !ok {
		return nil, ErrNotWatchable
	}

	changes, err := w.WatchSource(ctx, path)
	if err != nil {
		return nil, err
	}

	out := make(chan Event, s.eventBufferSize)
	emit := func(ctx context.Context, e Event) {
		select {
		case out <- e:
		case <-ctx.Done():
		}
	}

	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer close(out)

		s.extractAndEmit(ctx, path, opts, emit)
		for {
			select {
			case <-ctx.Done():
				return nil
			case change, ok := <-changes:
				if !ok {
					return nil
				}
				switch change.Type {
				case EventDelete:
					s.logger.Info("package removed", "source", path)
					emit(ctx, Event{Type: EventRemoved, Source: path, Timestamp: change.Timestamp})
				case EventModify:
					s.extractAndEmit(ctx, path, opts, emit)
				}
			}
		}
	}, lifecycle.WithErrorHandler(func(err error) {
		s.logger.Error("watch panic", "error", err)
	}))

	return out, nil
}

func (s *Service) extractAndEmit(ctx context.Context, path string, opts ExtractOptions, emit func(context.Context, Event)) {
	m, err := s.Extract(ctx, path, opts)
	now := time.Now().Unix()
	switch {
	case err != nil:
		if ctx.Err() != nil {
			return
		}
		s.logger.Error("extraction failed", "source", path, "error", err)
		emit(ctx, Event{Type: EventFailed, Source: path, Timestamp: now, Err: err})
	case !m.Skipped:
		emit(ctx, Event{Type: EventExtracted, Source: path, Timestamp: now, Manifest: m})
	}
}

// selectFiles turns the message parts into files, applying the include and
// exclude globs and the optional cid: rewrite.
func (s *Service) selectFiles(msg *eml.Message, opts ExtractOptions) ([]File, error) {
	cids := msg.ContentIDs()
	files := make([]File, 0, len(msg.Parts))

	for _, p := range msg.Parts {
		if !Selected(p.Filename, opts.Include, opts.Exclude) {
			s.logger.Debug("part filtered out", "name", p.Filename)
			continue
		}

		data := p.Body
		if opts.RewriteCIDs {
			var n int
			switch p.ContentType {
			case "text/html":
				data, n = eml.RewriteCIDs(data, cids)
			case "text/css":
				data, n = eml.RewriteCSSCIDs(data, cids)
			}
			if n > 0 {
				s.logger.Debug("rewrote cid references", "name", p.Filename, "count", n)
			}
		}

		files = append(files, File{
			Name:        p.Filename,
			ContentType: p.ContentType,
			ContentID:   p.ContentID,
			Data:        data,
			Fallback:    p.Fallback,
		})
	}

	if len(files) == 0 {
		return nil, ErrNoFiles
	}
	return files, nil
}

// ValidatePatterns checks include and exclude globs.
func ValidatePatterns(include, exclude []string) error {
	for _, p := range append(append([]string(nil), include...), exclude...) {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("%w: %q", ErrInvalidPattern, p)
		}
	}
	return nil
}

// Selected reports whether name passes the filters. An empty include list
// selects everything. Matching is case-insensitive on the base name.
func Selected(name string, include, exclude []string) bool {
	lower := strings.ToLower(name)
	match := func(patterns []string) bool {
		for _, p := range patterns {
			if ok, _ := doublestar.Match(strings.ToLower(p), lower); ok {
				return true
			}
		}
		return false
	}
	if len(include) > 0 && !match(include) {
		return false
	}
	return !match(exclude)
}

func (s *Service) recordExtraction(source string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.extractions++
	s.lastSource = source
	s.lastExtraction = &now
}

func (s *Service) recordFailure() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures++
}
