// Package pack builds self-extracting packages from a directory of web assets.
//
// The output is a POSIX shell script followed by a multipart MIME message.
// Run as a script it hands itself to emlapp. Opened as a message it shows the
// assets as attachments.
package pack

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/textproto"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/aretw0/emlapp/pkg/core"
	"github.com/aretw0/emlapp/pkg/eml"
)

// maxLineLength is the longest line an 8bit part may carry (RFC 5322).
const maxLineLength = 998

const preambleTemplate = `#!/bin/sh
# Self-extracting web application: %s
# Usage: sh <this file> [browse|extract|info|serve|run]
if command -v %s >/dev/null 2>&1; then
  exec %s "${1:-browse}" "$0"
fi
echo "%s is not installed. Install it, or open this file in a mail client." >&2
exit 0
# ============================================================
`

// Options configures Build.
type Options struct {
	Name        string // X-App-Name, defaults to the directory name
	Subject     string // defaults to Name
	Version     string
	Description string
	Type        string // X-App-Type, defaults to "web"
	Generator   string // X-Generator, defaults to "emlapp"
	Command     string // executable the preamble runs, defaults to "emlapp"
	Boundary    string // generated when empty
	Include     []string
	Exclude     []string
	Logger      *slog.Logger
}

func (o *Options) defaults(dir string) error {
	if o.Name == "" {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return err
		}
		o.Name = filepath.Base(abs)
	}
	if o.Subject == "" {
		o.Subject = o.Name
	}
	if o.Type == "" {
		o.Type = "web"
	}
	if o.Generator == "" {
		o.Generator = "emlapp"
	}
	if o.Command == "" {
		o.Command = "emlapp"
	}
	if o.Boundary == "" {
		o.Boundary = NewBoundary()
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return nil
}

// NewBoundary returns a random WEBAPP_BOUNDARY_<hex> delimiter.
func NewBoundary() string {
	id := uuid.New()
	return "WEBAPP_BOUNDARY_" + strings.ReplaceAll(id.String(), "-", "")
}

// Build packs the regular, non-hidden files at the top level of dir.
// index.html comes first and the rest follow in name order.
func Build(dir string, opts Options) ([]byte, error) {
	if err := core.ValidatePatterns(opts.Include, opts.Exclude); err != nil {
		return nil, err
	}
	if err := opts.defaults(dir); err != nil {
		return nil, err
	}

	names, err := listFiles(dir, opts)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, preambleTemplate, opts.Name, opts.Command, opts.Command, opts.Command)

	header := []string{
		"MIME-Version: 1.0",
		"Subject: " + mime.QEncoding.Encode("utf-8", opts.Subject),
		"X-App-Name: " + mime.QEncoding.Encode("utf-8", opts.Name),
		"X-App-Type: " + opts.Type,
	}
	if opts.Version != "" {
		header = append(header, "X-App-Version: "+opts.Version)
	}
	if opts.Description != "" {
		header = append(header, "X-App-Description: "+mime.QEncoding.Encode("utf-8", opts.Description))
	}
	header = append(header,
		"X-Generator: "+opts.Generator,
		`Content-Type: multipart/mixed; boundary="`+opts.Boundary+`"`,
	)
	for _, line := range header {
		buf.WriteString(line + "\r\n")
	}
	buf.WriteString("\r\nThis is a multi-part message in MIME format.\r\n")

	mw := multipart.NewWriter(&buf)
	if err := mw.SetBoundary(opts.Boundary); err != nil {
		return nil, fmt.Errorf("invalid boundary: %w", err)
	}

	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		if bytes.Contains(data, []byte("--"+opts.Boundary)) {
			return nil, fmt.Errorf("%s contains the boundary %q", name, opts.Boundary)
		}
		if err := writePart(mw, name, data); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", name, err)
		}
		opts.Logger.Debug("packed", "file", name, "bytes", len(data))
	}

	if err := mw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildFile packs dir into an executable file at out.
func BuildFile(dir, out string, opts Options) error {
	data, err := Build(dir, opts)
	if err != nil {
		return err
	}
	return os.WriteFile(out, data, 0755)
}

func listFiles(dir string, opts Options) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, ".") || !e.Type().IsRegular() {
			if e.IsDir() && !strings.HasPrefix(name, ".") {
				opts.Logger.Warn("skipping subdirectory", "dir", name)
			}
			continue
		}
		if !core.Selected(name, opts.Include, opts.Exclude) {
			continue
		}
		// Extraction would store the file under a different name.
		if eml.SafeName(name) != name {
			opts.Logger.Warn("skipping file with unsafe name", "file", name)
			continue
		}
		names = append(names, name)
	}
	if len(names) == 0 {
		return nil, core.ErrNoFiles
	}

	sort.SliceStable(names, func(i, j int) bool {
		if ii, jj := names[i] == "index.html", names[j] == "index.html"; ii != jj {
			return ii
		}
		return names[i] < names[j]
	})
	return names, nil
}

func writePart(mw *multipart.Writer, name string, data []byte) error {
	contentType := eml.TypeByFilename(name)
	h := make(textproto.MIMEHeader)

	text := isText(contentType, data)
	if text {
		h.Set("Content-Type", mime.FormatMediaType(contentType, map[string]string{"charset": "utf-8"}))
		h.Set("Content-Transfer-Encoding", "8bit")
	} else {
		h.Set("Content-Type", contentType)
		h.Set("Content-Transfer-Encoding", "base64")
	}
	h.Set("Content-Disposition", mime.FormatMediaType("inline", map[string]string{"filename": name}))
	if cid := ContentID(name); cid != "" {
		h.Set("Content-ID", "<"+cid+">")
	}

	w, err := mw.CreatePart(h)
	if err != nil {
		return err
	}
	if text {
		_, err = w.Write(data)
		return err
	}
	return writeBase64(w, data)
}

// ContentID returns the Content-ID for assets that pages reference with
// cid: URLs (style.css becomes style_css), or "" for other files.
func ContentID(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".css", ".js", ".svg":
		return strings.ReplaceAll(name, ".", "_")
	}
	return ""
}

func isText(contentType string, data []byte) bool {
	switch {
	case strings.HasPrefix(contentType, "text/"):
	case contentType == "application/javascript",
		contentType == "application/json",
		contentType == "application/xml",
		contentType == "image/svg+xml":
	default:
		return false
	}
	if !utf8.Valid(data) || bytes.IndexByte(data, 0) >= 0 {
		return false
	}
	for len(data) > 0 {
		line := data
		if i := bytes.IndexByte(data, '\n'); i >= 0 {
			line, data = data[:i], data[i+1:]
		} else {
			data = nil
		}
		if len(line) > maxLineLength {
			return false
		}
	}
	return true
}

// writeBase64 writes data in 76 character lines.
func writeBase64(w io.Writer, data []byte) error {
	encoded := base64.StdEncoding.EncodeToString(data)
	for len(encoded) > 76 {
		if _, err := io.WriteString(w, encoded[:76]+"\r\n"); err != nil {
			return err
		}
		encoded = encoded[76:]
	}
	_, err := io.WriteString(w, encoded)
	return err
}
