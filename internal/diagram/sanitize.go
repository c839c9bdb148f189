package diagram

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
)

// blocked elements are dropped together with everything inside them.
var blocked = map[string]bool{
	"script":        true,
	"foreignobject": true,
	"iframe":        true,
	"object":        true,
	"embed":         true,
	"set":           true,
	"animate":       true,
}

// Sanitize strips active content from SVG before it is inlined in a page.
// Link wrappers (<a>) are removed but their children kept. Blocked elements
// and any element carrying an href or an on* handler are dropped with their
// contents. Everything else is copied byte for byte, so SVG attribute case
// such as viewBox survives.
func Sanitize(svg []byte) []byte {
	z := html.NewTokenizer(bytes.NewReader(svg))
	var out bytes.Buffer
	out.Grow(len(svg))

	skip := 0
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			break
		}
		// TagName and TagAttr lower-case the token in place.
		raw := append([]byte(nil), z.Raw()...)

		switch tt {
		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			tag := string(name)
			if skip > 0 {
				if tt == html.StartTagToken {
					skip++
				}
				continue
			}
			if tag == "a" {
				continue
			}
			if blocked[tag] || (hasAttr && activeAttr(z)) {
				if tt == html.StartTagToken {
					skip = 1
				}
				continue
			}
		case html.EndTagToken:
			if skip > 0 {
				skip--
				continue
			}
			if name, _ := z.TagName(); string(name) == "a" {
				continue
			}
		default:
			if skip > 0 {
				continue
			}
		}
		out.Write(raw)
	}
	return out.Bytes()
}

func activeAttr(z *html.Tokenizer) bool {
	for {
		key, _, more := z.TagAttr()
		k := strings.ToLower(string(key))
		if k == "href" || strings.HasSuffix(k, ":href") || strings.HasPrefix(k, "on") {
			return true
		}
		if !more {
			return false
		}
	}
}
