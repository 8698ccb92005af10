package core

import (
	"errors"

	"github.com/aretw0/emlapp/pkg/eml"
)

// Common errors.
var (
	ErrNotExtracted   = errors.New("package has not been extracted")
	ErrBatchClosed    = errors.New("batch already closed")
	ErrUnsafeName     = errors.New("unsafe file name")
	ErrNoFiles        = errors.New("no files selected")
	ErrInvalidPattern = errors.New("invalid glob pattern")
	ErrNotWatchable   = errors.New("sink does not support watching")
)

// Parse errors, re-exported so callers only need this package.
var (
	ErrNoMessage    = eml.ErrNoMessage
	ErrNoBoundary   = eml.ErrNoBoundary
	ErrUnterminated = eml.ErrUnterminated
	ErrNoParts      = eml.ErrNoParts
)
