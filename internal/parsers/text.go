package parsers

import (
	"bytes"
	"strconv"
	"strings"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// MinPreambleWords is the smallest amount of text before the first chapter
// that is kept as content rather than discarded as boilerplate.
const MinPreambleWords = 25

// decodeText validates UTF-8, strips a byte order mark and normalizes line endings.
func decodeText(source string, data []byte) (string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if len(bytes.TrimSpace(data)) == 0 {
		return "", newParseError(source, ErrEmptyFile, "")
	}
	if !utf8.Valid(data) {
		return "", newParseError(source, ErrInvalidEncoding, invalidOffset(data))
	}
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	return strings.ReplaceAll(text, "\r", "\n"), nil
}

func invalidOffset(data []byte) string {
	for i := 0; i < len(data); {
		r, size := utf8.DecodeRune(data[i:])
		if r == utf8.RuneError && size <= 1 {
			return "invalid byte at offset " + strconv.Itoa(i)
		}
		i += size
	}
	return ""
}

func splitLines(text string) []string {
	return strings.Split(text, "\n")
}

// joinBody joins lines and trims leading and trailing blank lines.
// Interior content, including indentation and markup, is left as-is.
func joinBody(lines []string) string {
	start, end := 0, len(lines)
	for start < end && strings.TrimSpace(lines[start]) == "" {
		start++
	}
	for end > start && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}
	if start == end {
		return ""
	}
	return strings.Join(lines[start:end], "\n")
}

// isSubstantive reports whether preamble text is worth keeping as a chapter.
func isSubstantive(text string) bool {
	return CountWords(text) >= MinPreambleWords
}
