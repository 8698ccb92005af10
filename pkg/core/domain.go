// Package core holds the domain types and the extraction service.
package core

import (
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aretw0/emlapp/pkg/eml"
)

// AppMetadata describes the web app a package carries.
type AppMetadata struct {
	Name        string `json:"name,omitempty" yaml:"name,omitempty"`
	Version     string `json:"version,omitempty" yaml:"version,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Type        string `json:"type,omitempty" yaml:"type,omitempty"`
}

// Package is a parsed polyglot package.
type Package struct {
	Source  string
	Size    int64
	SHA256  string
	App     AppMetadata
	Message *eml.Message
}

// File is one asset staged for writing.
type File struct {
	Name        string
	ContentType string
	ContentID   string
	Data        []byte
	Fallback    bool
}

// ManifestEntry records one written file.
type ManifestEntry struct {
	Name        string `json:"name" yaml:"name"`
	Path        string `json:"path" yaml:"path"`
	Size        int64  `json:"size" yaml:"size"`
	ContentType string `json:"content_type" yaml:"content_type"`
	ContentID   string `json:"content_id,omitempty" yaml:"content_id,omitempty"`
	Fallback    bool   `json:"fallback,omitempty" yaml:"fallback,omitempty"`
}

// Manifest is the result of an extraction. The last one is kept next to the
// extracted files and used to skip unchanged packages.
type Manifest struct {
	ID          string          `json:"id" yaml:"id"`
	Source      string          `json:"source" yaml:"source"`
	SHA256      string          `json:"sha256" yaml:"sha256"`
	OutputDir   string          `json:"output_dir" yaml:"output_dir"`
	ExtractedAt time.Time       `json:"extracted_at" yaml:"extracted_at"`
	App         AppMetadata     `json:"app" yaml:"app"`
	Options     ExtractOptions  `json:"options" yaml:"options"`
	Entries     []ManifestEntry `json:"entries" yaml:"entries"`
	Warnings    []string        `json:"warnings,omitempty" yaml:"warnings,omitempty"`

	// Message is the located MIME message, stored beside the manifest.
	Message []byte `json:"-" yaml:"-"`
	// Skipped is set when the package was unchanged and nothing was written.
	Skipped bool `json:"-" yaml:"-"`
}

// Entry returns the entry with the given name.
func (m *Manifest) Entry(name string) (ManifestEntry, bool) {
	for _, e := range m.Entries {
		if e.Name == name {
			return e, true
		}
	}
	return ManifestEntry{}, false
}

// EntryPoint returns the page to open: index.html when present, otherwise
// the first HTML file. It returns "" when there is no HTML.
func (m *Manifest) EntryPoint() string {
	if _, ok := m.Entry("index.html"); ok {
		return "index.html"
	}
	for _, e := range m.Entries {
		if e.ContentType == "text/html" || strings.EqualFold(path.Ext(e.Name), ".html") {
			return e.Name
		}
	}
	return ""
}

// TotalSize is the sum of all entry sizes.
func (m *Manifest) TotalSize() int64 {
	var n int64
	for _, e := range m.Entries {
		n += e.Size
	}
	return n
}

// ExtractOptions controls which parts are written and how.
type ExtractOptions struct {
	Include     []string `json:"include,omitempty" yaml:"include,omitempty"`
	Exclude     []string `json:"exclude,omitempty" yaml:"exclude,omitempty"`
	RewriteCIDs bool     `json:"rewrite_cids,omitempty" yaml:"rewrite_cids,omitempty"`
	// Force extracts even when the package hash matches the last manifest.
	Force bool `json:"-" yaml:"-"`
}

func (o ExtractOptions) key() string {
	return fmt.Sprintf("%q|%q|%t", o.Include, o.Exclude, o.RewriteCIDs)
}

// EventType represents the kind of change a watcher reports.
type EventType string

const (
	// EventModify and EventDelete are raised by adapters for the source file.
	EventModify EventType = "MODIFY"
	EventDelete EventType = "DELETE"

	// EventExtracted, EventRemoved and EventFailed are raised by Service.Watch.
	EventExtracted EventType = "EXTRACTED"
	EventRemoved   EventType = "REMOVED"
	EventFailed    EventType = "FAILED"
)

// Event represents a change to a watched package.
type Event struct {
	Type      EventType
	Source    string
	Timestamp int64 // Unix timestamp
	Manifest  *Manifest
	Err       error
}

// String implements lifecycle.Event.
func (e Event) String() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("%s %s: %v", e.Type, e.Source, e.Err)
	case e.Manifest != nil:
		return fmt.Sprintf("%s %s (%d files)", e.Type, e.Source, len(e.Manifest.Entries))
	default:
		return fmt.Sprintf("%s %s", e.Type, e.Source)
	}
}
