// Package normalize cleans up catalog text before it is stored.
package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var (
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)
	multipleHyphens = regexp.MustCompile(`-+`)
)

// Name returns s in NFC form with control characters removed and runs of
// whitespace collapsed to a single space.
func Name(s string) string {
	s = norm.NFC.String(s)
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && !unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

// Text normalizes a description: NFC, trimmed, with line structure kept.
func Text(s string) string {
	return strings.TrimSpace(norm.NFC.String(s))
}

// Slug converts a title name (and optional release year) to a URL-safe slug.
// "Amélie" + 2001 -> "amelie-2001".
// "Spider-Man: No Way Home" -> "spider-man-no-way-home".
func Slug(name string, year int) string {
	// Decompose accented characters so the base letter survives the ASCII filter.
	s := norm.NFKD.String(name)
	s = strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII {
			return -1
		}
		return r
	}, s)
	s = strings.ToLower(s)
	s = nonAlphanumeric.ReplaceAllString(s, "-")
	s = multipleHyphens.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")

	if year > 0 {
		if s == "" {
			return strconv.Itoa(year)
		}
		s += "-" + strconv.Itoa(year)
	}
	return s
}
