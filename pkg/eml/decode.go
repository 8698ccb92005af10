package eml

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"mime"
	"strings"
)

var wordDecoder = new(mime.WordDecoder)

// DecodeHeader decodes RFC 2047 encoded-words, returning the input unchanged
// when it is not encoded or uses an unknown charset.
func DecodeHeader(value string) string {
	decoded, err := wordDecoder.DecodeHeader(value)
	if err != nil {
		return value
	}
	return decoded
}

// decodeBody undoes the Content-Transfer-Encoding. Identity encodings and
// unknown labels return the body untouched.
func decodeBody(body []byte, encoding string) ([]byte, error) {
	switch encoding {
	case "base64":
		return decodeBase64(body)
	case "quoted-printable":
		return decodeQuotedPrintable(body), nil
	default:
		return body, nil
	}
}

func decodeBase64(body []byte) ([]byte, error) {
	compact := bytes.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\r', '\n':
			return -1
		}
		return r
	}, body)

	out := make([]byte, base64.StdEncoding.DecodedLen(len(compact)))
	n, err := base64.StdEncoding.Decode(out, compact)
	if err == nil {
		return out[:n], nil
	}

	// Some generators drop the padding.
	trimmed := bytes.TrimRight(compact, "=")
	out = make([]byte, base64.RawStdEncoding.DecodedLen(len(trimmed)))
	if n, rawErr := base64.RawStdEncoding.Decode(out, trimmed); rawErr == nil {
		return out[:n], nil
	}
	return nil, fmt.Errorf("invalid base64: %w", err)
}

// decodeQuotedPrintable decodes soft line breaks and =XX escapes.
//
// Only upper-case hex escapes are decoded. Packages frequently label plain
// HTML as quoted-printable, and lower-case sequences such as "=device-width"
// must survive. An '=' that does not start a valid escape is kept literally.
func decodeQuotedPrintable(src []byte) []byte {
	dst := make([]byte, 0, len(src))
	for i := 0; i < len(src); i++ {
		c := src[i]
		if c != '=' {
			dst = append(dst, c)
			continue
		}

		switch {
		case i+1 == len(src):
			// Soft break at end of body.
		case src[i+1] == '\n':
			i++
		case i+2 < len(src) && src[i+1] == '\r' && src[i+2] == '\n':
			i += 2
		case i+2 < len(src) && isUpperHex(src[i+1]) && isUpperHex(src[i+2]):
			dst = append(dst, unhex(src[i+1])<<4|unhex(src[i+2]))
			i += 2
		default:
			dst = append(dst, '=')
		}
	}
	return dst
}

func isUpperHex(c byte) bool {
	return ('0' <= c && c <= '9') || ('A' <= c && c <= 'F')
}

func unhex(c byte) byte {
	if c <= '9' {
		return c - '0'
	}
	return c - 'A' + 10
}

// splitExt splits "name.ext" into "name" and ".ext".
func splitExt(name string) (string, string) {
	i := strings.LastIndexByte(name, '.')
	if i <= 0 {
		return name, ""
	}
	return name[:i], name[i:]
}
