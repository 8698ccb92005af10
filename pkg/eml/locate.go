package eml

import (
	"bytes"
)

var (
	markerPrefix      = []byte("# ====")
	mimeVersionPrefix = []byte("MIME-Version:")
	contentTypePrefix = []byte("Content-Type:")
	tripleQuote       = []byte(`"""`)
)

// Locate splits a polyglot file into the script preamble and the embedded
// message.
//
// The message starts at the first line beginning with "MIME-Version:". When the
// file carries a "# ====" marker line the search starts there, so header-like
// strings inside the script body are skipped. Files without a MIME-Version line
// fall back to the first line beginning with "Content-Type:".
//
// Trailing whitespace and a closing python triple quote are trimmed from the
// message. Anything after the closing boundary is left to Parse, which ignores
// the epilogue.
func Locate(data []byte) (preamble, message []byte, err error) {
	from := 0
	if i := lineWithPrefix(data, 0, markerPrefix); i >= 0 {
		from = i
	}

	start := lineWithPrefix(data, from, mimeVersionPrefix)
	if start < 0 && from > 0 {
		start = lineWithPrefix(data, 0, mimeVersionPrefix)
	}
	if start < 0 {
		start = lineWithPrefix(data, from, contentTypePrefix)
	}
	if start < 0 && from > 0 {
		start = lineWithPrefix(data, 0, contentTypePrefix)
	}
	if start < 0 {
		return nil, nil, ErrNoMessage
	}

	return data[:start], trimTrailer(data[start:]), nil
}

// lineWithPrefix returns the offset of the first line at or after from that
// begins with prefix, or -1.
func lineWithPrefix(data []byte, from int, prefix []byte) int {
	pos := from
	// from may point into the middle of a line; only whole lines count.
	if pos > 0 && data[pos-1] != '\n' {
		i := bytes.IndexByte(data[pos:], '\n')
		if i < 0 {
			return -1
		}
		pos += i + 1
	}

	for pos < len(data) {
		if bytes.HasPrefix(data[pos:], prefix) {
			return pos
		}
		i := bytes.IndexByte(data[pos:], '\n')
		if i < 0 {
			return -1
		}
		pos += i + 1
	}
	return -1
}

func trimTrailer(message []byte) []byte {
	message = bytes.TrimRight(message, " \t\r\n")
	if bytes.HasSuffix(message, tripleQuote) {
		message = bytes.TrimRight(message[:len(message)-len(tripleQuote)], " \t\r\n")
	}
	return message
}
