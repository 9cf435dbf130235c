package commission

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// foldName lowercases s and strips diacritics so "jose" matches "José".
func foldName(s string) string {
	decomposed := norm.NFD.String(strings.ToLower(strings.TrimSpace(s)))
	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
