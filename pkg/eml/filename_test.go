package eml

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilename(t *testing.T) {
	tests := []struct {
		name        string
		part        Part
		disposition string
		want        string
	}{
		{
			name:        "Disposition Wins",
			part:        Part{Index: 0, ContentType: "text/html", Params: map[string]string{"name": "other.html"}},
			disposition: "index.html",
			want:        "index.html",
		},
		{
			name: "Content-Type Name",
			part: Part{Index: 1, ContentType: "image/png", Params: map[string]string{"name": "logo.png"}},
			want: "logo.png",
		},
		{
			name: "Content-ID With Extension Suffix",
			part: Part{Index: 2, ContentType: "text/css", ContentID: "style_css"},
			want: "style.css",
		},
		{
			name: "Content-ID With Domain",
			part: Part{Index: 3, ContentType: "image/svg+xml", ContentID: "icon.svg@app.local"},
			want: "icon.svg",
		},
		{
			name: "Content-ID Without Extension",
			part: Part{Index: 4, ContentType: "application/javascript", ContentID: "app"},
			want: "app.js",
		},
		{
			name: "Generated From Type",
			part: Part{Index: 5, ContentType: "image/svg+xml"},
			want: "part-5.svg",
		},
		{
			name: "Unknown Type",
			part: Part{Index: 6, ContentType: "application/x-emlapp-unknown"},
			want: "part-6.bin",
		},
		{
			name:        "Traversal Is Reduced To Base Name",
			part:        Part{Index: 7, ContentType: "text/plain"},
			disposition: `..\..\windows\evil.bat`,
			want:        "evil.bat",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Filename(tt.part, tt.disposition))
		})
	}
}

func TestSafeName(t *testing.T) {
	assert.Equal(t, "", SafeName(""))
	assert.Equal(t, "", SafeName("  "))
	assert.Equal(t, "", SafeName(".."))
	assert.Equal(t, "", SafeName("/"))
	assert.Equal(t, "passwd", SafeName("/etc/passwd"))
	assert.Equal(t, "ab.txt", SafeName("a\x00b.txt"))
	assert.Equal(t, ".env", SafeName(".env"))
}

func TestTypeByFilename(t *testing.T) {
	assert.Equal(t, "text/html", TypeByFilename("index.html"))
	assert.Equal(t, "text/css", TypeByFilename("STYLE.CSS"))
	assert.Equal(t, "application/javascript", TypeByFilename("app.js"))
	assert.Equal(t, "image/svg+xml", TypeByFilename("favicon.svg"))
	assert.Equal(t, "text/plain", TypeByFilename("Dockerfile"))
}

func TestDecodeQuotedPrintable(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "caf=C3=A9", want: "café"},
		{in: "soft=\nbreak", want: "softbreak"},
		{in: "soft=\r\nbreak", want: "softbreak"},
		{in: `charset="UTF-8"`, want: `charset="UTF-8"`},
		{in: "width=device-width", want: "width=device-width"},
		{in: "a=3Db", want: "a=b"},
		{in: "trailing=", want: "trailing"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, string(decodeQuotedPrintable([]byte(tt.in))), tt.in)
	}
}

func TestDetectPreamble(t *testing.T) {
	assert.Equal(t, PreambleNone, DetectPreamble(nil))
	assert.Equal(t, PreambleShell, DetectPreamble([]byte("#!/bin/sh\nexit 0\n")))
	assert.Equal(t, PreambleShell, DetectPreamble([]byte("#!/usr/bin/env bash\n")))
	assert.Equal(t, PreamblePython, DetectPreamble([]byte("#!/usr/bin/env python3\n")))
	assert.Equal(t, PreamblePython, DetectPreamble([]byte("import os\nprint(1)\n")))
	assert.Equal(t, PreambleUnknown, DetectPreamble([]byte("#!/usr/bin/perl\n")))
}

func TestCheckShell(t *testing.T) {
	ok := CheckShell([]byte("#!/bin/sh\nif true; then echo hi; fi\nexit 0\n"))
	assert.Empty(t, ok.Error)
	assert.Equal(t, 2, ok.Statements)

	cut := CheckShell([]byte("#!/bin/sh\ncat <<'EOF'\n"))
	assert.NotEmpty(t, cut.Error)
}
