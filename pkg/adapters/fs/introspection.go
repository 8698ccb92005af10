package fs

import (
	"time"

	"github.com/aretw0/introspection"
)

// SinkState exposes internal state for observability.
type SinkState struct {
	Path          string     `json:"path"`
	SystemDir     string     `json:"system_dir"`
	Files         int        `json:"files"`
	Commits       int        `json:"commits"`
	WatcherActive bool       `json:"watcher_active"`
	LastCommit    *time.Time `json:"last_commit,omitempty"`
}

// State implements introspection.Introspectable.
func (s *Sink) State() any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return SinkState{
		Path:          s.Path,
		SystemDir:     s.config.SystemDir,
		Files:         s.cache.Len(),
		Commits:       s.commits,
		WatcherActive: s.watcherActive,
		LastCommit:    s.lastCommit,
	}
}

// ComponentType implements introspection.Component.
func (s *Sink) ComponentType() string {
	return "fs-sink"
}

var _ introspection.Introspectable = (*Sink)(nil)
var _ introspection.Component = (*Sink)(nil)

func (s *Sink) setWatcherActive(active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.watcherActive = active
}

func (s *Sink) recordCommit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.commits++
	s.lastCommit = &now
}
