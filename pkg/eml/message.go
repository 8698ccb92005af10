// Package eml reads self-extracting web-app packages: files that are both a
// script and a MIME message whose parts carry the application's assets.
//
// Parsing is deliberately lenient. Packages in the wild are hand-assembled,
// label plain text as quoted-printable, forget the closing boundary, or omit
// the boundary parameter altogether. Parse recovers from all of these and
// records what it had to work around in Message.Warnings.
package eml

import (
	"net/textproto"
)

// PreambleKind identifies the script that precedes the message.
type PreambleKind string

const (
	PreambleNone    PreambleKind = "none"
	PreambleShell   PreambleKind = "shell"
	PreamblePython  PreambleKind = "python"
	PreambleUnknown PreambleKind = "unknown"
)

// Part is a single decoded leaf of the message.
type Part struct {
	Index       int                  `json:"index"`
	Filename    string               `json:"filename"`
	ContentType string               `json:"content_type"`
	Params      map[string]string    `json:"params,omitempty"`
	ContentID   string               `json:"content_id,omitempty"`
	Disposition string               `json:"disposition,omitempty"`
	Encoding    string               `json:"encoding,omitempty"`
	Header      textproto.MIMEHeader `json:"-"`
	Body        []byte               `json:"-"`

	// Fallback is set when the body could not be decoded with its declared
	// transfer encoding and the raw bytes were kept instead.
	Fallback bool `json:"fallback,omitempty"`
}

// Size returns the decoded body length.
func (p Part) Size() int {
	return len(p.Body)
}

// Message is a parsed package.
type Message struct {
	Preamble     []byte               `json:"-"`
	PreambleKind PreambleKind         `json:"preamble_kind"`
	Header       textproto.MIMEHeader `json:"header"`
	ContentType  string               `json:"content_type"`
	Boundary     string               `json:"boundary,omitempty"`
	Parts        []Part               `json:"parts"`
	Warnings     []string             `json:"warnings,omitempty"`

	// Raw is the located message, without preamble and trailer.
	Raw []byte `json:"-"`
}

// Part returns the first part with the given filename.
func (m *Message) Part(filename string) (Part, bool) {
	for _, p := range m.Parts {
		if p.Filename == filename {
			return p, true
		}
	}
	return Part{}, false
}

// ContentIDs maps every Content-ID in the message to its part's filename.
func (m *Message) ContentIDs() map[string]string {
	ids := make(map[string]string)
	for _, p := range m.Parts {
		if p.ContentID != "" {
			ids[p.ContentID] = p.Filename
		}
	}
	return ids
}
