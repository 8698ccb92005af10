package eml

import (
	"bytes"
	"fmt"

	"mvdan.cc/sh/v3/syntax"
)

// DetectPreamble classifies the script in front of the message.
func DetectPreamble(preamble []byte) PreambleKind {
	trimmed := bytes.TrimSpace(preamble)
	if len(trimmed) == 0 {
		return PreambleNone
	}

	if bytes.HasPrefix(trimmed, []byte("#!")) {
		line := trimmed
		if i := bytes.IndexByte(line, '\n'); i >= 0 {
			line = line[:i]
		}
		switch {
		case bytes.Contains(line, []byte("python")):
			return PreamblePython
		case bytes.Contains(line, []byte("sh")):
			return PreambleShell
		}
		return PreambleUnknown
	}

	for _, marker := range [][]byte{[]byte("\nimport "), []byte("\ndef "), []byte("\nfrom ")} {
		if bytes.HasPrefix(trimmed, marker[1:]) || bytes.Contains(trimmed, marker) {
			return PreamblePython
		}
	}
	return PreambleUnknown
}

// ShellCheck is the result of parsing a shell preamble.
type ShellCheck struct {
	Statements int    `json:"statements"`
	Error      string `json:"error,omitempty"`
}

// CheckShell parses a shell preamble with a POSIX parser. A preamble that
// wraps the message in a heredoc is cut mid-statement by Locate, so a parse
// error here is informational rather than fatal.
func CheckShell(preamble []byte) ShellCheck {
	parser := syntax.NewParser(syntax.Variant(syntax.LangPOSIX))
	f, err := parser.Parse(bytes.NewReader(preamble), "preamble")
	if err != nil {
		return ShellCheck{Error: fmt.Sprint(err)}
	}
	return ShellCheck{Statements: len(f.Stmts)}
}
