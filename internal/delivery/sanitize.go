package delivery

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	fallbackTitle = "download"
	maxSlugLength = 60
)

// SanitizeTitle reduces title to [A-Za-z0-9_.- ] so it is safe inside a
// Content-Disposition header and a file name. Accented letters are folded to
// their base letter first.
func SanitizeTitle(title string) string {
	folded := foldAccents(title)
	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		if isAllowedTitleRune(r) {
			b.WriteRune(r)
		}
	}
	out := strings.TrimSpace(b.String())
	out = strings.TrimSpace(strings.TrimLeft(out, "."))
	if out == "" {
		return fallbackTitle
	}
	return out
}

// slug turns title into a compact path component for temporary files.
func slug(title string) string {
	s := SanitizeTitle(title)
	s = strings.Join(strings.Fields(s), "_")
	if len(s) > maxSlugLength {
		s = s[:maxSlugLength]
	}
	s = strings.Trim(s, "._-")
	if s == "" {
		return fallbackTitle
	}
	return s
}

func isAllowedTitleRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == '_', r == '.', r == '-', r == ' ':
		return true
	default:
		return false
	}
}

func foldAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
