package utils

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	// Any run of characters outside [a-z0-9] becomes a single hyphen
	nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)
)

// Slugify converts an arbitrary title into a URL slug.
//
// Accents are stripped (NFD + removal of non-spacing marks), the result is
// lowercased, every run of non-alphanumeric characters collapses to a single
// hyphen, and leading/trailing hyphens are trimmed. The function is pure:
// the same input always yields the same slug.
func Slugify(s string) string {
	t := transform.Chain(norm.NFD, transform.RemoveFunc(isNonSpacingMark))
	result, _, err := transform.String(t, s)
	if err != nil {
		result = s
	}

	result = strings.ToLower(result)
	result = nonSlugChars.ReplaceAllString(result, "-")
	return strings.Trim(result, "-")
}

// SuffixSlug returns base with a numeric suffix, e.g. "book" -> "book-2".
// n <= 1 returns base unchanged.
func SuffixSlug(base string, n int) string {
	if n <= 1 {
		return base
	}
	return base + "-" + strconv.Itoa(n)
}

func isNonSpacingMark(r rune) bool {
	return unicode.Is(unicode.Mn, r)
}
