package platform

import (
	"os"
	"path/filepath"
	"strings"
	"unicode"
)

// PackageStem returns the package file name without directory and extension,
// reduced to characters that are safe in directory and image names.
func PackageStem(source string) string {
	base := filepath.Base(source)
	if ext := filepath.Ext(base); ext != "" && ext != base {
		base = strings.TrimSuffix(base, ext)
	}
	stem := strings.Map(func(r rune) rune {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			return unicode.ToLower(r)
		case r == '-' || r == '_' || r == '.':
			return r
		}
		return '-'
	}, base)
	stem = strings.Trim(stem, "-._")
	if stem == "" {
		return "app"
	}
	return stem
}

// ResolveOutputDir returns out when set. Otherwise it creates a fresh
// temporary directory named after the package.
func ResolveOutputDir(out, source string) (string, error) {
	if out != "" {
		return filepath.Clean(out), nil
	}
	return os.MkdirTemp("", "emlapp-"+PackageStem(source)+"-*")
}
