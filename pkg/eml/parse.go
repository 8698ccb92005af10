package eml

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/textproto"
	"strings"
)

// maxDepth bounds nested multipart containers.
const maxDepth = 8

type options struct {
	strict bool
}

// Option configures Parse.
type Option func(*options)

// WithStrict turns recoverable format problems (missing closing boundary)
// into errors.
func WithStrict(strict bool) Option {
	return func(o *options) {
		o.strict = strict
	}
}

// Parse reads a polyglot package or a plain .eml file.
func Parse(r io.Reader, opts ...Option) (*Message, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read package: %w", err)
	}

	preamble, raw, err := Locate(data)
	if err != nil {
		return nil, err
	}

	header, body, err := readHeader(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to read message header: %w", err)
	}

	msg := &Message{
		Preamble:     preamble,
		PreambleKind: DetectPreamble(preamble),
		Header:       header,
		Raw:          raw,
	}

	p := &parser{opts: o, msg: msg, names: make(map[string]int)}
	mediaType, params := contentType(header)
	msg.ContentType = mediaType

	if strings.HasPrefix(mediaType, "multipart/") {
		boundary := params["boundary"]
		if boundary == "" {
			boundary = sniffBoundary(body)
			if boundary == "" {
				return nil, ErrNoBoundary
			}
			p.warn("boundary parameter missing, using %q from body", boundary)
		}
		msg.Boundary = boundary
		if err := p.multipart(body, boundary, 0); err != nil {
			return nil, err
		}
	} else {
		p.leaf(header, body)
	}

	if len(msg.Parts) == 0 {
		return nil, ErrNoParts
	}
	return msg, nil
}

type parser struct {
	opts  *options
	msg   *Message
	names map[string]int
}

func (p *parser) warn(format string, args ...any) {
	p.msg.Warnings = append(p.msg.Warnings, fmt.Sprintf(format, args...))
}

func (p *parser) multipart(body []byte, boundary string, depth int) error {
	if depth >= maxDepth {
		return fmt.Errorf("multipart nesting deeper than %d", maxDepth)
	}

	chunks, terminated := splitParts(body, boundary)
	if !terminated {
		if p.opts.strict {
			return fmt.Errorf("%w: %q", ErrUnterminated, boundary)
		}
		p.warn("closing boundary --%s-- not found", boundary)
	}

	for _, chunk := range chunks {
		header, partBody, err := readHeader(chunk)
		if err != nil {
			// Headers we cannot read are treated as part of the body.
			p.warn("part %d: unreadable header: %v", len(p.msg.Parts), err)
			header, partBody = textproto.MIMEHeader{}, chunk
		}

		mediaType, params := contentType(header)
		if strings.HasPrefix(mediaType, "multipart/") {
			nested := params["boundary"]
			if nested == "" {
				nested = sniffBoundary(partBody)
			}
			if nested == "" {
				p.warn("nested %s without boundary skipped", mediaType)
				continue
			}
			if err := p.multipart(partBody, nested, depth+1); err != nil {
				return err
			}
			continue
		}

		p.leaf(header, partBody)
	}
	return nil
}

func (p *parser) leaf(header textproto.MIMEHeader, body []byte) {
	index := len(p.msg.Parts)
	mediaType, params := contentType(header)

	part := Part{
		Index:       index,
		ContentType: mediaType,
		Params:      params,
		ContentID:   strings.Trim(strings.TrimSpace(header.Get("Content-ID")), "<>"),
		Encoding:    strings.ToLower(strings.TrimSpace(header.Get("Content-Transfer-Encoding"))),
		Header:      header,
	}

	var dispParams map[string]string
	if cd := header.Get("Content-Disposition"); cd != "" {
		disp, dp, err := mime.ParseMediaType(cd)
		if err == nil {
			part.Disposition = disp
			dispParams = dp
		} else if name, ok := looseParam(cd, "filename"); ok {
			part.Disposition = strings.ToLower(strings.TrimSpace(strings.SplitN(cd, ";", 2)[0]))
			dispParams = map[string]string{"filename": name}
		}
	}

	decoded, err := decodeBody(body, part.Encoding)
	if err != nil {
		p.warn("part %d: %v, keeping raw bytes", index, err)
		decoded = body
		part.Fallback = true
	}
	part.Body = decoded

	part.Filename = p.unique(Filename(part, dispParams["filename"]))
	p.msg.Parts = append(p.msg.Parts, part)
}

// unique suffixes repeated filenames with -1, -2, ... in file order.
func (p *parser) unique(name string) string {
	n := p.names[name]
	p.names[name] = n + 1
	if n == 0 {
		return name
	}
	stem, ext := splitExt(name)
	for {
		candidate := fmt.Sprintf("%s-%d%s", stem, n, ext)
		if p.names[candidate] == 0 {
			p.names[candidate] = 1
			return candidate
		}
		n++
	}
}

// readHeader reads a MIME header block and returns it with the remaining body.
func readHeader(raw []byte) (textproto.MIMEHeader, []byte, error) {
	br := bufio.NewReader(bytes.NewReader(raw))
	header, err := textproto.NewReader(br).ReadMIMEHeader()
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, nil, err
	}
	if header == nil {
		header = textproto.MIMEHeader{}
	}
	body, readErr := io.ReadAll(br)
	if readErr != nil {
		return nil, nil, readErr
	}
	return header, body, nil
}

// contentType parses the Content-Type header, defaulting to text/plain as
// RFC 2045 requires.
func contentType(header textproto.MIMEHeader) (string, map[string]string) {
	value := header.Get("Content-Type")
	if value == "" {
		return "text/plain", nil
	}
	mediaType, params, err := mime.ParseMediaType(value)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(strings.SplitN(value, ";", 2)[0]))
		if b, ok := looseParam(value, "boundary"); ok {
			params = map[string]string{"boundary": b}
		}
	}
	if mediaType == "" {
		mediaType = "text/plain"
	}
	return mediaType, params
}

// looseParam pulls key=value out of a header that mime.ParseMediaType
// rejected.
func looseParam(value, key string) (string, bool) {
	lower := strings.ToLower(value)
	i := strings.Index(lower, key+"=")
	if i < 0 {
		return "", false
	}
	rest := value[i+len(key)+1:]
	if j := strings.IndexByte(rest, ';'); j >= 0 {
		rest = rest[:j]
	}
	rest = strings.Trim(strings.TrimSpace(rest), `"'`)
	return rest, rest != ""
}

// splitParts cuts a multipart body into its encapsulated parts. The line break
// before each delimiter belongs to the delimiter. terminated reports whether
// the closing delimiter was seen; without it the trailing part runs to the end
// of the body.
func splitParts(body []byte, boundary string) (chunks [][]byte, terminated bool) {
	delim := []byte("--" + boundary)
	start := -1
	pos := 0

	for pos < len(body) {
		lineEnd, next := len(body), len(body)
		if i := bytes.IndexByte(body[pos:], '\n'); i >= 0 {
			lineEnd = pos + i
			next = lineEnd + 1
		}

		line := bytes.TrimRight(body[pos:lineEnd], " \t\r")
		if bytes.HasPrefix(line, delim) {
			rest := line[len(delim):]
			closing := bytes.Equal(rest, []byte("--"))
			if closing || len(rest) == 0 {
				if start >= 0 {
					chunks = append(chunks, body[start:stripBreak(body, start, pos)])
				}
				if closing {
					return chunks, true
				}
				start = next
			}
		}
		pos = next
	}

	if start >= 0 && start < len(body) {
		if tail := body[start:]; len(bytes.TrimSpace(tail)) > 0 {
			chunks = append(chunks, tail)
		}
	}
	return chunks, false
}

func stripBreak(body []byte, start, end int) int {
	if end > start && body[end-1] == '\n' {
		end--
		if end > start && body[end-1] == '\r' {
			end--
		}
	}
	return end
}

// sniffBoundary takes the boundary from the first delimiter-looking line.
func sniffBoundary(body []byte) string {
	for _, line := range bytes.Split(body, []byte("\n")) {
		line = bytes.TrimRight(line, " \t\r")
		if len(line) > 2 && bytes.HasPrefix(line, []byte("--")) {
			return strings.TrimSuffix(string(line[2:]), "--")
		}
	}
	return ""
}
