package parsers

import (
	"regexp"
	"strings"

	"github.com/mrlokans/manuscripts/internal/utils"
)

var (
	// Top-level ATX heading: "# Title" with an optional closing "#" sequence
	topHeadingPattern = regexp.MustCompile(`^ {0,3}#[ \t]+(.+?)(?:[ \t]+#+)?[ \t]*$`)
	// Opening or closing line of a fenced code block
	fencePattern = regexp.MustCompile("^ {0,3}(```|~~~)")
)

type markdownHeading struct {
	line      int
	text      string
	number    int
	title     string
	isChapter bool
}

// parseMarkdown splits a Markdown manuscript on top-level headings.
func parseMarkdown(source string, data []byte) (*ParsedBook, error) {
	text, err := decodeText(source, data)
	if err != nil {
		return nil, err
	}

	book := &ParsedBook{Format: FormatMarkdown, SourceName: source}
	lines := splitLines(text)

	if block, rest, ok := splitFrontMatter(lines); ok {
		fm, fmErr := parseFrontMatter(block)
		if fmErr != nil {
			book.warnf("%v; read simple key/value pairs instead", fmErr)
		}
		book.Title = fm.Title
		book.Author = fm.Author
		book.Description = fm.Description
		book.Kind = fm.Type
		lines = rest
	}

	headings := scanTopHeadings(lines)
	if len(headings) == 0 {
		return nil, newParseError(source, ErrNoChapters, "no top-level '# ' headings")
	}

	// When any heading is an explicit "Chapter N" marker, headings before the
	// first marker belong to the front of the book.
	first := 0
	var preamble []string
	for i, h := range headings {
		if h.isChapter {
			first = i
			break
		}
	}
	var section preambleSection
	if headings[first].isChapter && first > 0 {
		lead := headings[0]
		if book.Title == "" {
			book.Title = lead.text
		} else {
			// Front matter already named the book, so the leading heading
			// opens a section of its own, such as a prologue.
			section.title = lead.text
			section.headed = true
		}
		preamble = append(preamble, lines[:lead.line]...)
		preamble = append(preamble, lines[lead.line+1:headings[first].line]...)
	} else {
		first = 0
		preamble = lines[:headings[0].line]
	}
	section.body = joinBody(preamble)

	chapterHeadings := headings[first:]
	drafts := make([]chapterDraft, 0, len(chapterHeadings)+1)
	for i, h := range chapterHeadings {
		end := len(lines)
		if i+1 < len(chapterHeadings) {
			end = chapterHeadings[i+1].line
		}
		draft := chapterDraft{title: h.text, body: joinBody(lines[h.line+1 : end])}
		if h.isChapter {
			draft.explicit = h.number
			draft.title = h.title
		}
		drafts = append(drafts, draft)
	}

	drafts = applyPreamblePolicy(book, section, drafts)

	if book.Title == "" {
		book.Title = utils.TitleFromFilename(source)
	}

	book.assignNumbers(drafts)
	return book, nil
}

// preambleSection is the text found before the first chapter marker. A
// headed section was introduced by its own heading and is kept whenever it
// has any text.
type preambleSection struct {
	title  string
	body   string
	headed bool
}

// applyPreamblePolicy keeps substantive text found before the first chapter
// as chapter 1 and shifts every explicit chapter number up by one. The kept
// chapter is titled after the section heading, or "Introduction" when there
// is none. Short boilerplate is dropped. Both outcomes are reported as warnings.
func applyPreamblePolicy(book *ParsedBook, preamble preambleSection, drafts []chapterDraft) []chapterDraft {
	words := CountWords(preamble.body)
	if words == 0 {
		if preamble.headed {
			book.warnf("dropped empty section %q before the first chapter", preamble.title)
		}
		return drafts
	}
	if !preamble.headed && !isSubstantive(preamble.body) {
		book.warnf("discarded %d words of text before the first chapter", words)
		return drafts
	}

	title := preamble.title
	if title == "" {
		title = "Introduction"
	}
	shifted := make([]chapterDraft, 0, len(drafts)+1)
	shifted = append(shifted, chapterDraft{explicit: 1, title: title, body: preamble.body})
	for _, d := range drafts {
		if d.explicit > 0 {
			d.explicit++
		}
		shifted = append(shifted, d)
	}
	book.warnf("kept %d words before the first chapter as chapter 1 %q; following chapters shifted by one", words, title)
	return shifted
}

// scanTopHeadings finds "# " headings outside fenced code blocks.
func scanTopHeadings(lines []string) []markdownHeading {
	var headings []markdownHeading
	fence := ""

	for i, line := range lines {
		if m := fencePattern.FindStringSubmatch(line); m != nil {
			switch {
			case fence == "":
				fence = m[1]
			case fence == m[1]:
				fence = ""
			}
			continue
		}
		if fence != "" {
			continue
		}

		m := topHeadingPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		text := strings.TrimSpace(m[1])
		h := markdownHeading{line: i, text: text}
		if n, title, ok := parseChapterLabel(text); ok {
			h.isChapter = true
			h.number = n
			h.title = title
		}
		headings = append(headings, h)
	}
	return headings
}

// markdownEntryDraft turns a whole Markdown document into a single chapter,
// as used for archive entries. The title comes from front matter or a
// leading "# " heading, which is then removed from the body.
func markdownEntryDraft(lines []string) (chapterDraft, FrontMatter) {
	var fm FrontMatter
	if block, rest, ok := splitFrontMatter(lines); ok {
		fm, _ = parseFrontMatter(block)
		lines = rest
	}

	draft := chapterDraft{title: fm.Title}
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if m := topHeadingPattern.FindStringSubmatch(line); m != nil {
			heading := strings.TrimSpace(m[1])
			if _, title, ok := parseChapterLabel(heading); ok && title != "" {
				heading = title
			}
			if draft.title == "" {
				draft.title = heading
			}
			lines = lines[i+1:]
		}
		break
	}
	draft.body = joinBody(lines)
	return draft, fm
}
