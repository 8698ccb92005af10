package eml

import (
	"bytes"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

const cidScheme = "cid:"

var cidAttributes = map[string]bool{
	"src":        true,
	"href":       true,
	"poster":     true,
	"background": true,
	"data":       true,
}

// RewriteCIDs replaces cid: references in HTML attributes with the filename
// of the part carrying that Content-ID. References to unknown IDs lose their
// cid: prefix, which resolves them relative to the page. It returns the new
// document and the number of references rewritten.
func RewriteCIDs(src []byte, names map[string]string) ([]byte, int) {
	z := html.NewTokenizer(bytes.NewReader(src))
	var out bytes.Buffer
	out.Grow(len(src))
	count := 0

	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			break
		}
		// Token lower-cases the buffer in place, so copy the raw bytes first.
		raw := append([]byte(nil), z.Raw()...)
		if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
			out.Write(raw)
			continue
		}

		tok := z.Token()
		changed := false
		for i, attr := range tok.Attr {
			if !cidAttributes[attr.Key] {
				continue
			}
			if target, ok := resolveCID(attr.Val, names); ok {
				tok.Attr[i].Val = target
				changed = true
				count++
			}
		}
		if changed {
			out.WriteString(tok.String())
		} else {
			out.Write(raw)
		}
	}
	return out.Bytes(), count
}

var cssCIDPattern = regexp.MustCompile(`url\(\s*(['"]?)cid:([^'")\s]+)(['"]?)\s*\)`)

// RewriteCSSCIDs does the same for url(cid:...) references in stylesheets.
func RewriteCSSCIDs(src []byte, names map[string]string) ([]byte, int) {
	count := 0
	out := cssCIDPattern.ReplaceAllFunc(src, func(m []byte) []byte {
		sub := cssCIDPattern.FindSubmatch(m)
		target, _ := resolveCID(cidScheme+string(sub[2]), names)
		count++
		return []byte("url(" + string(sub[1]) + target + string(sub[3]) + ")")
	})
	return out, count
}

func resolveCID(value string, names map[string]string) (string, bool) {
	v := strings.TrimSpace(value)
	if len(v) < len(cidScheme) || !strings.EqualFold(v[:len(cidScheme)], cidScheme) {
		return "", false
	}
	id := strings.Trim(v[len(cidScheme):], "<>")
	if name, ok := names[id]; ok {
		return name, true
	}
	return id, true
}
