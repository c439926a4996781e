package parsers

import (
	"strings"
	"unicode/utf8"

	"github.com/mrlokans/manuscripts/internal/utils"
)

// maxTitleRunes bounds how long a line after a chapter marker may be and
// still be read as the chapter title.
const maxTitleRunes = 80

type textMarker struct {
	line   int
	number int
	title  string
}

// parsePlainText splits a plain-text manuscript on chapter marker lines such
// as "CHAPTER IV", "Chapter 12: The Storm" or "CHAPTER TWELVE".
func parsePlainText(source string, data []byte) (*ParsedBook, error) {
	text, err := decodeText(source, data)
	if err != nil {
		return nil, err
	}

	book := &ParsedBook{Format: FormatPlainText, SourceName: source}
	lines := splitLines(text)

	var markers []textMarker
	for i, line := range lines {
		if n, title, ok := parseChapterLabel(line); ok {
			markers = append(markers, textMarker{line: i, number: n, title: title})
		}
	}
	if len(markers) == 0 {
		return nil, newParseError(source, ErrNoChapters, "no lines like \"CHAPTER I\" or \"Chapter 12\"")
	}

	// The first non-empty line is the book title unless it already is a chapter marker.
	preambleStart := 0
	for i := 0; i < markers[0].line; i++ {
		if t := strings.TrimSpace(lines[i]); t != "" {
			book.Title = t
			preambleStart = i + 1
			break
		}
	}
	if book.Title == "" {
		book.Title = utils.TitleFromFilename(source)
	}

	preamble := lines[preambleStart:markers[0].line]
	if n, after := contentsRun(lines, markers); n > 0 {
		book.warnf("skipped a table of contents with %d entries", n)
		rest := lines[after:markers[n].line]
		if isSubstantive(joinBody(preamble)) {
			preamble = append(append([]string{}, preamble...), rest...)
		} else {
			preamble = rest
		}
		markers = markers[n:]
	}

	drafts := make([]chapterDraft, 0, len(markers))
	for k, m := range markers {
		end := len(lines)
		if k+1 < len(markers) {
			end = markers[k+1].line
		}

		bodyStart := m.line + 1
		title := m.title
		if title == "" {
			if j, t, ok := nextLineTitle(lines, m.line+1, end); ok {
				title = t
				bodyStart = j + 1
			}
		}

		drafts = append(drafts, chapterDraft{
			explicit: m.number,
			title:    title,
			body:     joinBody(lines[bodyStart:end]),
		})
	}

	drafts = applyPreamblePolicy(book, plainTextPreamble(preamble), drafts)
	book.assignNumbers(drafts)
	return book, nil
}

// contentsRun detects a table of contents at the start of the manuscript: at
// least two marker lines in a row, separated by no more than one short title
// line each, whose chapter numbers all occur again further down. It returns
// the number of contents entries and the line where the text after them starts.
func contentsRun(lines []string, markers []textMarker) (int, int) {
	n := 0
	for n < len(markers) && numberRecurs(markers[n].number, markers[n+1:]) {
		if n > 0 && !isContentsGap(lines[markers[n-1].line+1:markers[n].line]) {
			break
		}
		n++
	}
	if n < 2 {
		return 0, 0
	}

	last := markers[n-1]
	after := last.line + 1
	if last.title == "" && after < markers[n].line {
		if t := strings.TrimSpace(lines[after]); t != "" && utf8.RuneCountInString(t) <= maxTitleRunes {
			after++
		}
	}
	return n, after
}

func numberRecurs(number int, rest []textMarker) bool {
	for _, m := range rest {
		if m.number == number {
			return true
		}
	}
	return false
}

func isContentsGap(gap []string) bool {
	filled := 0
	for _, line := range gap {
		t := strings.TrimSpace(line)
		if t == "" {
			continue
		}
		filled++
		if filled > 1 || utf8.RuneCountInString(t) > maxTitleRunes {
			return false
		}
	}
	return true
}

// plainTextPreamble turns the text before the first chapter into a preamble
// section. An all-caps caption on its own line, such as "PREFACE", becomes
// the section title.
func plainTextPreamble(lines []string) preambleSection {
	if j, caption, ok := nextLineTitle(lines, 0, len(lines)); ok && isCaption(caption) {
		return preambleSection{title: caption, body: joinBody(lines[j+1:])}
	}
	return preambleSection{body: joinBody(lines)}
}

func isCaption(s string) bool {
	return strings.ToUpper(s) == s && strings.ToLower(s) != s
}

// nextLineTitle looks for a chapter title on the first non-blank line after a
// marker. The line qualifies when it is short, stands alone (followed by a
// blank line), does not read like the end of a sentence, and more text follows.
func nextLineTitle(lines []string, from, end int) (int, string, bool) {
	j := from
	for j < end && strings.TrimSpace(lines[j]) == "" {
		j++
	}
	if j >= end {
		return 0, "", false
	}

	candidate := strings.TrimSpace(lines[j])
	if utf8.RuneCountInString(candidate) > maxTitleRunes {
		return 0, "", false
	}
	if j+1 < end && strings.TrimSpace(lines[j+1]) != "" {
		return 0, "", false
	}
	if strings.ContainsAny(candidate[len(candidate)-1:], ".,;\"'") || strings.HasSuffix(candidate, "”") || strings.HasSuffix(candidate, "’") {
		return 0, "", false
	}

	for k := j + 1; k < end; k++ {
		if strings.TrimSpace(lines[k]) != "" {
			return j, candidate, true
		}
	}
	return 0, "", false
}
