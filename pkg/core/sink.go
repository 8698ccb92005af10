package core

import "context"

// Sink defines the contract for storing extracted packages.
// The core does not know whether files land on disk, in memory or elsewhere.
type Sink interface {
	// Initialize ensures the underlying storage is ready (e.g. create directories).
	Initialize(ctx context.Context) error

	// Begin starts a new batch.
	Begin(ctx context.Context) (Batch, error)

	// Manifest returns the last committed manifest, or ErrNotExtracted.
	Manifest(ctx context.Context) (*Manifest, error)

	// Clean removes everything the last commit wrote.
	Clean(ctx context.Context) error
}

// Batch defines the contract for one extraction.
// Staged files are written together on Commit, or not at all.
type Batch interface {
	// Stage adds a file. A file with the same name replaces the earlier one.
	Stage(ctx context.Context, f File) error

	// Commit writes all staged files, fills in m.OutputDir and m.Entries,
	// and stores m as the current manifest.
	Commit(ctx context.Context, m *Manifest) error

	// Rollback discards all staged files.
	Rollback(ctx context.Context) error
}

// Watchable defines an interface for sinks that can watch a package file.
// The channel carries EventModify and EventDelete and is closed when ctx ends.
type Watchable interface {
	WatchSource(ctx context.Context, source string) (<-chan Event, error)
}

// Verifiable is implemented by sinks that can confirm a manifest's files are
// still in place. Extract only skips an unchanged package when Verify passes.
type Verifiable interface {
	Verify(ctx context.Context, m *Manifest) error
}
