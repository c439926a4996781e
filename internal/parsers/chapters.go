package parsers

import (
	"regexp"
	"strings"
)

// Matches "Chapter 12", "CHAPTER XII", "Chapter Twenty-One: Title", "Chapter 3 - Title".
var chapterLabelPattern = regexp.MustCompile(`(?i)^chapter\s+([\p{L}0-9]+(?:[ -]\p{L}+)?)\s*(?:[:.\-–—]\s*(.*?))?\s*$`)

// parseChapterLabel recognises a chapter label line and returns its number
// and the title that follows it on the same line, if any.
func parseChapterLabel(s string) (number int, title string, ok bool) {
	m := chapterLabelPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, "", false
	}
	label, title := m[1], strings.TrimSpace(m[2])

	if n, ok := ParseChapterNumber(label); ok {
		return n, title, true
	}

	// "Chapter One Begins": the second word belongs to the title
	if first, rest, found := strings.Cut(label, " "); found && title == "" {
		if n, ok := ParseChapterNumber(first); ok {
			return n, rest, true
		}
	}
	return 0, "", false
}
