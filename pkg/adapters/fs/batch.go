package fs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/aretw0/emlapp/pkg/core"
)

// Batch implements core.Batch for the filesystem.
type Batch struct {
	sink   *Sink
	staged []core.File
	index  map[string]int // name -> position in staged
	mu     sync.Mutex
	closed bool
}

func newBatch(sink *Sink) *Batch {
	return &Batch{
		sink:  sink,
		index: make(map[string]int),
	}
}

// Stage adds a file to the batch.
func (b *Batch) Stage(ctx context.Context, f core.File) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return core.ErrBatchClosed
	}
	if _, err := b.sink.resolve(f.Name); err != nil {
		return err
	}

	if i, ok := b.index[f.Name]; ok {
		b.staged[i] = f
		return nil
	}
	b.index[f.Name] = len(b.staged)
	b.staged = append(b.staged, f)
	return nil
}

// Commit writes every staged file. If any write fails, files written so far
// are put back the way they were. Files from the previous manifest that are
// not part of this batch are removed afterwards.
func (b *Batch) Commit(ctx context.Context, m *core.Manifest) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return core.ErrBatchClosed
	}
	logger := b.sink.config.Logger

	b.sink.commitMu.Lock()
	defer b.sink.commitMu.Unlock()

	if err := os.MkdirAll(b.sink.Path, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	prev, err := b.sink.cache.Load()
	if err != nil {
		logger.Warn("previous manifest unreadable", "error", err)
		prev = nil
	}

	var done []snapshot
	undo := func() {
		for i := len(done) - 1; i >= 0; i-- {
			if err := done[i].restore(); err != nil {
				logger.Error("failed to restore file", "path", done[i].path, "error", err)
			}
		}
	}

	entries := make([]core.ManifestEntry, 0, len(b.staged))
	for _, f := range b.staged {
		if err := ctx.Err(); err != nil {
			undo()
			return err
		}

		path, err := b.sink.resolve(f.Name)
		if err != nil {
			undo()
			return err
		}
		snap, err := takeSnapshot(path)
		if err != nil {
			undo()
			return fmt.Errorf("failed to snapshot %s: %w", f.Name, err)
		}
		if err := writeFileAtomic(path, f.Data, 0644); err != nil {
			undo()
			return fmt.Errorf("failed to write %s: %w", f.Name, err)
		}
		done = append(done, snap)

		entries = append(entries, core.ManifestEntry{
			Name:        f.Name,
			Path:        path,
			Size:        int64(len(f.Data)),
			ContentType: f.ContentType,
			ContentID:   f.ContentID,
			Fallback:    f.Fallback,
		})
	}

	m.OutputDir = b.sink.Path
	m.Entries = entries
	if err := b.sink.cache.Save(m); err != nil {
		undo()
		return fmt.Errorf("failed to save manifest: %w", err)
	}

	if prev != nil {
		b.prune(prev)
	}

	b.sink.recordCommit()
	b.staged = nil
	b.closed = true
	return nil
}

// prune removes files the previous extraction wrote that this one did not.
func (b *Batch) prune(prev *core.Manifest) {
	for _, e := range prev.Entries {
		if _, ok := b.index[e.Name]; ok {
			continue
		}
		path, err := b.sink.resolve(e.Name)
		if err != nil {
			continue
		}
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			b.sink.config.Logger.Warn("failed to prune stale file", "path", path, "error", err)
			continue
		}
		b.sink.config.Logger.Debug("pruned stale file", "name", e.Name)
	}
}

// Rollback discards all staged files.
func (b *Batch) Rollback(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.staged = nil
	b.index = nil
	b.closed = true
	return nil
}

var _ core.Batch = (*Batch)(nil)
