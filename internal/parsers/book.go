package parsers

import (
	"fmt"
	"strings"
)

// ParsedChapter is one titled, numbered unit of a parsed manuscript.
// Values are created once by the parser and not modified afterwards.
type ParsedChapter struct {
	Number    int    `json:"number"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	WordCount int    `json:"word_count"`
}

// ParsedBook is the structured result of parsing a manuscript.
// Chapters are in reading order; a successfully parsed book always has at least one.
type ParsedBook struct {
	Title       string          `json:"title,omitempty"`
	Author      string          `json:"author,omitempty"`
	Description string          `json:"description,omitempty"`
	Kind        string          `json:"type,omitempty"`
	Format      Format          `json:"format"`
	SourceName  string          `json:"source_name,omitempty"`
	Chapters    []ParsedChapter `json:"chapters"`
	Warnings    []string        `json:"warnings,omitempty"`
}

// TotalWords sums the word counts of all chapters.
func (b *ParsedBook) TotalWords() int {
	total := 0
	for _, ch := range b.Chapters {
		total += ch.WordCount
	}
	return total
}

func (b *ParsedBook) warnf(format string, args ...any) {
	b.Warnings = append(b.Warnings, fmt.Sprintf(format, args...))
}

// CountWords returns the number of whitespace-delimited tokens in s.
func CountWords(s string) int {
	return len(strings.Fields(s))
}

// chapterDraft is a chapter before numbering is resolved.
// explicit is 0 when the source did not carry a chapter number.
type chapterDraft struct {
	explicit int
	title    string
	body     string
}

// assignNumbers resolves final chapter numbers for drafts in document order.
//
// The first chapter claiming an explicit number keeps it. Unnumbered chapters
// take the next free integer after the previous chapter. A later chapter that
// repeats an explicit number is moved to the next free integer above it and a
// warning is recorded on the book.
func (b *ParsedBook) assignNumbers(drafts []chapterDraft) {
	used := make(map[int]bool)
	owner := make(map[int]int)
	for i, d := range drafts {
		if d.explicit > 0 {
			if _, taken := owner[d.explicit]; !taken {
				owner[d.explicit] = i
				used[d.explicit] = true
			}
		}
	}

	nextFree := func(from int) int {
		if from < 1 {
			from = 1
		}
		for used[from] {
			from++
		}
		return from
	}

	chapters := make([]ParsedChapter, 0, len(drafts))
	cursor := 0
	for i, d := range drafts {
		var number int
		switch {
		case d.explicit > 0 && owner[d.explicit] == i:
			number = d.explicit
		case d.explicit > 0:
			number = nextFree(d.explicit + 1)
			b.warnf("duplicate chapter number %d (%q) renumbered to %d", d.explicit, displayTitle(d.title, d.explicit), number)
		default:
			number = nextFree(cursor + 1)
		}
		used[number] = true
		cursor = number

		title := strings.TrimSpace(d.title)
		if title == "" {
			title = fmt.Sprintf("Chapter %d", number)
		}
		chapters = append(chapters, ParsedChapter{
			Number:    number,
			Title:     title,
			Body:      d.body,
			WordCount: CountWords(d.body),
		})
	}
	b.Chapters = chapters
}

func displayTitle(title string, number int) string {
	if title = strings.TrimSpace(title); title != "" {
		return title
	}
	return fmt.Sprintf("Chapter %d", number)
}
