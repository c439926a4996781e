package utils

import (
	"strings"
	"unicode"
)

// NaturalLess compares two strings treating embedded digit runs as numbers,
// so "chapter-2" sorts before "chapter-10". Comparison of non-digit runs is
// case-insensitive; ties fall back to plain byte order for a stable result.
func NaturalLess(a, b string) bool {
	ra, rb := []rune(a), []rune(b)
	i, j := 0, 0

	for i < len(ra) && j < len(rb) {
		ca, cb := ra[i], rb[j]

		if unicode.IsDigit(ca) && unicode.IsDigit(cb) {
			si := i
			for i < len(ra) && unicode.IsDigit(ra[i]) {
				i++
			}
			sj := j
			for j < len(rb) && unicode.IsDigit(rb[j]) {
				j++
			}
			if c := compareDigits(string(ra[si:i]), string(rb[sj:j])); c != 0 {
				return c < 0
			}
			continue
		}

		la, lb := unicode.ToLower(ca), unicode.ToLower(cb)
		if la != lb {
			return la < lb
		}
		i++
		j++
	}

	if len(ra)-i != len(rb)-j {
		return len(ra)-i < len(rb)-j
	}
	return a < b
}

// compareDigits compares two digit strings by numeric value without
// converting them, so arbitrarily long runs are handled.
func compareDigits(a, b string) int {
	a = strings.TrimLeft(a, "0")
	b = strings.TrimLeft(b, "0")
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	return strings.Compare(a, b)
}
