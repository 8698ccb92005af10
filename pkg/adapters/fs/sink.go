package fs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/aretw0/emlapp/pkg/core"
)

// DefaultSystemDir holds the manifest and message copy inside the output dir.
const DefaultSystemDir = ".emlapp"

// Sink implements core.Sink on a local directory.
type Sink struct {
	Path   string
	cache  *manifestCache
	config Config

	// commitMu serializes batch commits on this directory.
	commitMu sync.Mutex

	mu            sync.RWMutex
	watcherActive bool
	commits       int
	lastCommit    *time.Time
}

// Config holds the configuration for the filesystem sink.
type Config struct {
	Path         string
	SystemDir    string // e.g. ".emlapp"
	MustExist    bool
	Logger       *slog.Logger
	ErrorHandler func(error) // watcher runtime errors
	EventBuffer  int
	Debounce     time.Duration
}

// NewSink creates a new filesystem-backed sink.
func NewSink(config Config) *Sink {
	if config.SystemDir == "" {
		config.SystemDir = DefaultSystemDir
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if config.EventBuffer <= 0 {
		config.EventBuffer = 16
	}
	if config.Debounce <= 0 {
		config.Debounce = 50 * time.Millisecond
	}
	return &Sink{
		Path:   config.Path,
		cache:  newManifestCache(config.Path, config.SystemDir),
		config: config,
	}
}

// Initialize creates the output directory unless MustExist is set, in which
// case it must already be a directory.
func (s *Sink) Initialize(ctx context.Context) error {
	if s.config.MustExist {
		info, err := os.Stat(s.Path)
		if os.IsNotExist(err) {
			return fmt.Errorf("output path does not exist: %s", s.Path)
		}
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return fmt.Errorf("output path is not a directory: %s", s.Path)
		}
		return nil
	}
	if err := os.MkdirAll(s.Path, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	return nil
}

// Begin starts a new batch.
func (s *Sink) Begin(ctx context.Context) (core.Batch, error) {
	return newBatch(s), nil
}

// Manifest returns the last committed manifest.
func (s *Sink) Manifest(ctx context.Context) (*core.Manifest, error) {
	m, err := s.cache.Load()
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, core.ErrNotExtracted
	}
	return m, nil
}

// MessagePath is where the located message of the last extraction is kept.
func (s *Sink) MessagePath() string {
	return s.cache.MessagePath
}

// Clean removes the files listed in the last manifest and the system
// directory. The output directory itself is removed only when empty.
func (s *Sink) Clean(ctx context.Context) error {
	m, err := s.cache.Load()
	if err != nil {
		return err
	}
	if m != nil {
		for _, e := range m.Entries {
			p, err := s.resolve(e.Name)
			if err != nil {
				continue
			}
			if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("failed to remove %s: %w", e.Name, err)
			}
		}
	}
	if err := s.cache.Clear(); err != nil {
		return err
	}
	if err := os.RemoveAll(filepath.Join(s.Path, s.config.SystemDir)); err != nil {
		return err
	}
	// Fails harmlessly when the user kept other files there.
	_ = os.Remove(s.Path)
	s.config.Logger.Debug("output cleaned", "path", s.Path)
	return nil
}

// Verify checks that every file listed in m is still in the output
// directory with the size it was written with.
func (s *Sink) Verify(ctx context.Context, m *core.Manifest) error {
	for _, e := range m.Entries {
		p, err := s.resolve(e.Name)
		if err != nil {
			return err
		}
		info, err := os.Stat(p)
		if err != nil {
			return err
		}
		if info.Size() != e.Size {
			return fmt.Errorf("%s: size %d, manifest says %d", e.Name, info.Size(), e.Size)
		}
	}
	return nil
}

// WatchSource watches the package file at source for changes.
func (s *Sink) WatchSource(ctx context.Context, source string) (<-chan core.Event, error) {
	abs, err := filepath.Abs(source)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(abs); err != nil {
		return nil, fmt.Errorf("cannot watch %s: %w", source, err)
	}

	events := make(chan core.Event, s.config.EventBuffer)
	w := newWatchWorker(s, abs, events)
	if err := w.Start(ctx); err != nil {
		return nil, err
	}
	return events, nil
}

// resolve joins name onto the output directory, refusing anything that
// would land outside of it.
func (s *Sink) resolve(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." {
		return "", fmt.Errorf("%w: %q", core.ErrUnsafeName, name)
	}
	if name == s.config.SystemDir {
		return "", fmt.Errorf("%w: %q is reserved", core.ErrUnsafeName, name)
	}
	return filepath.Join(s.Path, name), nil
}

var _ core.Sink = (*Sink)(nil)
var _ core.Watchable = (*Sink)(nil)
var _ core.Verifiable = (*Sink)(nil)
