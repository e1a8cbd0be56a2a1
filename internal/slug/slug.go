// Package slug turns titles and path segments into URL-safe identifiers.
package slug

import (
	"net/url"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Make lowercases s, folds diacritics to their base letters and collapses every
// run of characters that is not a letter or digit into a single hyphen.
// Leading and trailing hyphens are trimmed. Make is pure and idempotent.
func Make(s string) string {
	folded, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	b.Grow(len(folded))
	pendingHyphen := false
	for _, r := range strings.ToLower(folded) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}
	return b.String()
}

// Segment slugifies one path segment of a link target: percent escapes such
// as `%20` are decoded and a trailing extension is dropped before slugifying.
func Segment(seg string) string {
	if decoded, err := url.PathUnescape(seg); err == nil {
		seg = decoded
	}
	if i := strings.LastIndexByte(seg, '.'); i > 0 {
		seg = seg[:i]
	}
	return Make(seg)
}

// Path slugifies every segment of a slash separated relative path, keeping the
// directory structure. Only the last segment loses its extension. Empty and
// `.` segments are dropped.
func Path(rel string) string {
	parts := strings.Split(rel, "/")
	out := make([]string, 0, len(parts))
	for i, p := range parts {
		if p == "" || p == "." {
			continue
		}
		if i == len(parts)-1 {
			out = append(out, Segment(p))
			continue
		}
		if decoded, err := url.PathUnescape(p); err == nil {
			p = decoded
		}
		out = append(out, Make(p))
	}
	return strings.Join(out, "/")
}
