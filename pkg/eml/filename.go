package eml

import (
	"fmt"
	"mime"
	"path"
	"strings"
)

// knownTypes pins the extensions for the asset types packages carry, so
// naming does not depend on the host's mime.types.
var knownTypes = map[string]string{
	"text/html":                ".html",
	"text/css":                 ".css",
	"text/javascript":          ".js",
	"application/javascript":   ".js",
	"application/x-javascript": ".js",
	"application/json":         ".json",
	"image/svg+xml":            ".svg",
	"text/plain":               ".txt",
	"text/markdown":            ".md",
	"image/png":                ".png",
	"image/jpeg":               ".jpg",
	"image/gif":                ".gif",
	"image/webp":               ".webp",
	"image/x-icon":             ".ico",
	"image/vnd.microsoft.icon": ".ico",
	"application/zip":          ".zip",
	"application/octet-stream": ".bin",
}

var knownExtensions = map[string]string{
	".html": "text/html",
	".htm":  "text/html",
	".css":  "text/css",
	".js":   "application/javascript",
	".mjs":  "application/javascript",
	".json": "application/json",
	".svg":  "image/svg+xml",
	".txt":  "text/plain",
	".md":   "text/markdown",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
	".ico":  "image/x-icon",
	".zip":  "application/zip",
}

// ExtensionByType returns the file extension for a media type, or ".bin".
func ExtensionByType(mediaType string) string {
	if ext, ok := knownTypes[mediaType]; ok {
		return ext
	}
	if exts, err := mime.ExtensionsByType(mediaType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ".bin"
}

// TypeByFilename returns the media type for a filename. Dockerfile and other
// extensionless files are text/plain.
func TypeByFilename(name string) string {
	_, ext := splitExt(name)
	ext = strings.ToLower(ext)
	if ext == "" {
		return "text/plain"
	}
	if t, ok := knownExtensions[ext]; ok {
		return t
	}
	if t := mime.TypeByExtension(ext); t != "" {
		mediaType, _, err := mime.ParseMediaType(t)
		if err == nil {
			return mediaType
		}
	}
	return "application/octet-stream"
}

// Filename derives the on-disk name for a part. It takes the first of these
// that is set: the Content-Disposition filename (passed in as disposition),
// the Content-Type name parameter, the Content-ID, and finally
// part-<index><ext>.
// The result is always a bare base name.
func Filename(p Part, disposition string) string {
	candidates := []string{disposition, p.Params["name"]}
	for _, c := range candidates {
		if name := SafeName(c); name != "" {
			return name
		}
	}

	ext := ExtensionByType(p.ContentType)
	if p.ContentID != "" {
		if name := SafeName(nameFromContentID(p.ContentID, ext)); name != "" {
			return name
		}
	}

	return fmt.Sprintf("part-%d%s", p.Index, ext)
}

// nameFromContentID turns "style_css" into "style.css", "logo.svg@host" into
// "logo.svg" and "app" into "app<ext>".
func nameFromContentID(cid, ext string) string {
	if i := strings.IndexByte(cid, '@'); i > 0 {
		cid = cid[:i]
	}
	if _, e := splitExt(cid); e != "" {
		return cid
	}
	if suffix := "_" + strings.TrimPrefix(ext, "."); ext != "" && strings.HasSuffix(cid, suffix) && len(cid) > len(suffix) {
		return strings.TrimSuffix(cid, suffix) + ext
	}
	return cid + ext
}

// SafeName reduces name to its final path element and drops control
// characters. It returns "" when nothing usable remains.
func SafeName(name string) string {
	name = strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, name)
	name = strings.TrimSpace(strings.ReplaceAll(name, `\`, "/"))
	if name == "" {
		return ""
	}
	base := path.Base(name)
	switch base {
	case ".", "..", "/":
		return ""
	}
	return base
}
