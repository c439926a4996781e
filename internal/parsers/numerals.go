package parsers

import (
	"strconv"
	"strings"
)

var unitWords = map[string]int{
	"zero": 0, "one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
	"six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10,
	"eleven": 11, "twelve": 12, "thirteen": 13, "fourteen": 14, "fifteen": 15,
	"sixteen": 16, "seventeen": 17, "eighteen": 18, "nineteen": 19,
}

var tensWords = map[string]int{
	"twenty": 20, "thirty": 30, "forty": 40, "fifty": 50,
	"sixty": 60, "seventy": 70, "eighty": 80, "ninety": 90,
}

var romanValues = map[rune]int{
	'i': 1, 'v': 5, 'x': 10, 'l': 50, 'c': 100, 'd': 500, 'm': 1000,
}

// ParseChapterNumber converts a chapter label to an integer.
// It accepts arabic digits ("12"), roman numerals ("XII", "xii") and
// English number words up to ninety-nine ("twelve", "Twenty-One", "forty two").
func ParseChapterNumber(label string) (int, bool) {
	label = strings.ToLower(strings.TrimSpace(label))
	if label == "" {
		return 0, false
	}

	if n, err := strconv.Atoi(label); err == nil {
		return n, n > 0
	}
	if n, ok := parseRoman(label); ok {
		return n, true
	}
	if n, ok := parseNumberWords(label); ok {
		return n, n > 0
	}
	return 0, false
}

// parseRoman accepts canonical roman numerals only (1..3999), so ordinary
// words made of roman letters such as "civil" or "dim" are rejected.
func parseRoman(s string) (int, bool) {
	total := 0
	prev := 0
	for i := len(s) - 1; i >= 0; i-- {
		v, ok := romanValues[rune(s[i])]
		if !ok {
			return 0, false
		}
		if v < prev {
			total -= v
		} else {
			total += v
			prev = v
		}
	}
	if total <= 0 || total > 3999 || toRoman(total) != s {
		return 0, false
	}
	return total, true
}

func toRoman(n int) string {
	numerals := []struct {
		value  int
		symbol string
	}{
		{1000, "m"}, {900, "cm"}, {500, "d"}, {400, "cd"},
		{100, "c"}, {90, "xc"}, {50, "l"}, {40, "xl"},
		{10, "x"}, {9, "ix"}, {5, "v"}, {4, "iv"}, {1, "i"},
	}
	var b strings.Builder
	for _, num := range numerals {
		for n >= num.value {
			b.WriteString(num.symbol)
			n -= num.value
		}
	}
	return b.String()
}

func parseNumberWords(s string) (int, bool) {
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return r == '-' || r == ' ' || r == '\t'
	})
	switch len(parts) {
	case 1:
		if n, ok := unitWords[parts[0]]; ok {
			return n, true
		}
		if n, ok := tensWords[parts[0]]; ok {
			return n, true
		}
	case 2:
		tens, okTens := tensWords[parts[0]]
		unit, okUnit := unitWords[parts[1]]
		if okTens && okUnit && unit > 0 && unit < 10 {
			return tens + unit, true
		}
	}
	return 0, false
}
