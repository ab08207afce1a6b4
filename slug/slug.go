// Package slug derives canonical, URL-safe identifiers from human-readable labels.
package slug

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripMarks decomposes characters and removes combining marks, so that
// "Rôle" and "Role" slug identically.
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Make converts a label to its canonical slug: lower-cased, diacritics
// stripped, and every run of non-alphanumeric characters collapsed into a
// single "-". The result contains only [a-z0-9-] with no leading or trailing
// separator, making it safe to use unescaped in URLs and query filters.
//
// Make is idempotent: Make(Make(x)) == Make(x).
func Make(label string) string {
	folded, _, err := transform.String(stripMarks, label)
	if err != nil {
		folded = label
	}

	var b strings.Builder
	b.Grow(len(folded))
	pendingSep := false
	for _, r := range strings.ToLower(folded) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if pendingSep && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingSep = false
			b.WriteRune(r)
		default:
			pendingSep = true
		}
	}
	return b.String()
}
