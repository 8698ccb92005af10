package fs

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/aretw0/emlapp/pkg/core"
)

const (
	manifestFile = "manifest.json"
	messageFile  = "message.eml"
)

// manifestCache persists the last manifest and the located message in the
// system directory ({root}/{systemDir}/manifest.json and message.eml).
type manifestCache struct {
	Path        string
	MessagePath string

	mu       sync.RWMutex
	manifest *core.Manifest
	loaded   bool
}

func newManifestCache(root, systemDir string) *manifestCache {
	dir := filepath.Join(root, systemDir)
	return &manifestCache{
		Path:        filepath.Join(dir, manifestFile),
		MessagePath: filepath.Join(dir, messageFile),
	}
}

// Load returns the stored manifest, or nil when there is none.
// A corrupted manifest is treated as missing so the next extraction heals it.
func (c *manifestCache) Load() (*core.Manifest, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.loaded {
		return c.copy(), nil
	}

	data, err := os.ReadFile(c.Path)
	if errors.Is(err, os.ErrNotExist) {
		c.loaded = true
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var m core.Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		c.manifest = nil
	} else {
		c.manifest = &m
	}
	c.loaded = true
	return c.copy(), nil
}

// Save writes the manifest, and the message when m carries one.
func (c *manifestCache) Save(m *core.Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(c.Path), 0755); err != nil {
		return err
	}
	if len(m.Message) > 0 {
		if err := writeFileAtomic(c.MessagePath, m.Message, 0644); err != nil {
			return err
		}
	}
	if err := writeFileAtomic(c.Path, data, 0644); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	cp := *m
	cp.Message = nil
	cp.Skipped = false
	c.manifest = &cp
	c.loaded = true
	return nil
}

// Clear removes the stored manifest and message.
func (c *manifestCache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, p := range []string{c.Path, c.MessagePath} {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	c.manifest = nil
	c.loaded = true
	return nil
}

// Len returns the number of entries in the stored manifest.
func (c *manifestCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.manifest == nil {
		return 0
	}
	return len(c.manifest.Entries)
}

// copy must be called with mu held.
func (c *manifestCache) copy() *core.Manifest {
	if c.manifest == nil {
		return nil
	}
	cp := *c.manifest
	cp.Entries = append([]core.ManifestEntry(nil), c.manifest.Entries...)
	return &cp
}
