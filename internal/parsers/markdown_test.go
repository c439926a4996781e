package parsers

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkdownParser(t *testing.T) {
	parser := NewParser()

	t.Run("SequentialHeadings", func(t *testing.T) {
		src := "# Arrival\n\nThe train was late.\n\n# Departure\n\nShe left at dawn.\n\n# Return\n\nNobody noticed.\n"

		book, err := parser.Parse([]byte(src), "my-novel.md", "")
		require.NoError(t, err)

		require.Len(t, book.Chapters, 3)
		for i, ch := range book.Chapters {
			assert.Equal(t, i+1, ch.Number)
		}
		assert.Equal(t, "Arrival", book.Chapters[0].Title)
		assert.Equal(t, "The train was late.", book.Chapters[0].Body)
		assert.Equal(t, 4, book.Chapters[0].WordCount)
		assert.Equal(t, "my-novel", book.Title, "title falls back to the filename")
		assert.Equal(t, FormatMarkdown, book.Format)
		assert.Empty(t, book.Warnings)
	})

	t.Run("FrontMatter", func(t *testing.T) {
		src := "---\ntitle: The Art of Programming\nauthor: Ada Lovelace\ndescription: Notes on engines\ntype: book\n---\n# One\n\nbody one\n\n# Two\n\nbody two\n"

		book, err := parser.Parse([]byte(src), "draft.md", FormatMarkdown)
		require.NoError(t, err)

		assert.Equal(t, "The Art of Programming", book.Title)
		assert.Equal(t, "Ada Lovelace", book.Author)
		assert.Equal(t, "Notes on engines", book.Description)
		assert.Equal(t, "book", book.Kind)
		require.Len(t, book.Chapters, 2)
		assert.Equal(t, "One", book.Chapters[0].Title)
	})

	t.Run("ExplicitChapterNumbersAndTitleHeading", func(t *testing.T) {
		src := "# The Long Road\n\n# Chapter 1: Beginnings\n\nFirst.\n\n# Chapter 2\n\nSecond.\n\n# Chapter 5 - Later\n\nFifth.\n"

		book, err := parser.Parse([]byte(src), "road.md", "")
		require.NoError(t, err)

		assert.Equal(t, "The Long Road", book.Title)
		require.Len(t, book.Chapters, 3)
		assert.Equal(t, 1, book.Chapters[0].Number)
		assert.Equal(t, "Beginnings", book.Chapters[0].Title)
		assert.Equal(t, 2, book.Chapters[1].Number)
		assert.Equal(t, "Chapter 2", book.Chapters[1].Title)
		assert.Equal(t, 5, book.Chapters[2].Number)
		assert.Equal(t, "Later", book.Chapters[2].Title)
	})

	t.Run("DuplicateChapterNumberIsRenumbered", func(t *testing.T) {
		src := "# Chapter 3: First Three\n\na\n\n# Chapter 3: Second Three\n\nb\n"

		book, err := parser.Parse([]byte(src), "dup.md", "")
		require.NoError(t, err)

		require.Len(t, book.Chapters, 2)
		assert.Equal(t, 3, book.Chapters[0].Number)
		assert.Equal(t, 4, book.Chapters[1].Number)
		require.Len(t, book.Warnings, 1)
		assert.Contains(t, book.Warnings[0], "duplicate chapter number 3")
	})

	t.Run("DuplicateSkipsOccupiedNumbers", func(t *testing.T) {
		src := "# Chapter 3\n\na\n\n# Chapter 3\n\nb\n\n# Chapter 4\n\nc\n"

		book, err := parser.Parse([]byte(src), "dup.md", "")
		require.NoError(t, err)

		numbers := []int{book.Chapters[0].Number, book.Chapters[1].Number, book.Chapters[2].Number}
		assert.Equal(t, []int{3, 5, 4}, numbers)
	})

	t.Run("BoilerplatePreambleIsDiscarded", func(t *testing.T) {
		src := "Draft v2\n\n# One\n\ntext\n"

		book, err := parser.Parse([]byte(src), "short.md", "")
		require.NoError(t, err)

		require.Len(t, book.Chapters, 1)
		assert.Equal(t, 1, book.Chapters[0].Number)
		require.Len(t, book.Warnings, 1)
		assert.Contains(t, book.Warnings[0], "discarded")
	})

	t.Run("SubstantivePreambleBecomesIntroduction", func(t *testing.T) {
		preamble := strings.Repeat("word ", MinPreambleWords)
		src := preamble + "\n\n# Chapter 1\n\nfirst\n\n# Chapter 2\n\nsecond\n"

		book, err := parser.Parse([]byte(src), "long.md", "")
		require.NoError(t, err)

		require.Len(t, book.Chapters, 3)
		assert.Equal(t, "Introduction", book.Chapters[0].Title)
		assert.Equal(t, 1, book.Chapters[0].Number)
		assert.Equal(t, MinPreambleWords, book.Chapters[0].WordCount)
		assert.Equal(t, 2, book.Chapters[1].Number)
		assert.Equal(t, 3, book.Chapters[2].Number)
		assert.NotEmpty(t, book.Warnings)
	})

	t.Run("FrontMatterTitleKeepsLeadingSection", func(t *testing.T) {
		src := "---\ntitle: Book\n---\n# Prologue\n\nIt was a dark night.\n\n# Chapter 1\n\nMorning came.\n\n# Chapter 2\n\nThen noon.\n"

		book, err := parser.Parse([]byte(src), "book.md", "")
		require.NoError(t, err)

		assert.Equal(t, "Book", book.Title)
		require.Len(t, book.Chapters, 3)
		assert.Equal(t, ParsedChapter{Number: 1, Title: "Prologue", Body: "It was a dark night.", WordCount: 5}, book.Chapters[0])
		assert.Equal(t, 2, book.Chapters[1].Number)
		assert.Equal(t, "Morning came.", book.Chapters[1].Body)
		assert.Equal(t, 3, book.Chapters[2].Number)
		require.Len(t, book.Warnings, 1)
		assert.Contains(t, book.Warnings[0], `as chapter 1 "Prologue"`)
		assert.NotContains(t, book.Warnings[0], "discarded")
	})

	t.Run("FrontMatterTitleWithEmptyLeadingHeading", func(t *testing.T) {
		src := "---\ntitle: Book\n---\n# Draft\n\n# Chapter 1\n\nMorning came.\n"

		book, err := parser.Parse([]byte(src), "book.md", "")
		require.NoError(t, err)

		assert.Equal(t, "Book", book.Title)
		require.Len(t, book.Chapters, 1)
		assert.Equal(t, 1, book.Chapters[0].Number)
		require.Len(t, book.Warnings, 1)
		assert.Contains(t, book.Warnings[0], `empty section "Draft"`)
	})

	t.Run("HeadingsInsideCodeFencesAreIgnored", func(t *testing.T) {
		src := "# Setup\n\n```sh\n# not a chapter\necho hi\n```\n\n# Usage\n\nrun it\n"

		book, err := parser.Parse([]byte(src), "guide.md", "")
		require.NoError(t, err)

		require.Len(t, book.Chapters, 2)
		assert.Contains(t, book.Chapters[0].Body, "# not a chapter")
	})

	t.Run("SecondLevelHeadingsStayInBody", func(t *testing.T) {
		src := "# One\n\n## Part A\n\ntext\n"

		book, err := parser.Parse([]byte(src), "levels.md", "")
		require.NoError(t, err)

		require.Len(t, book.Chapters, 1)
		assert.Equal(t, "## Part A\n\ntext", book.Chapters[0].Body)
	})

	t.Run("NoHeadings", func(t *testing.T) {
		_, err := parser.Parse([]byte("just some text\n"), "flat.md", "")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrNoChapters)
	})

	t.Run("CRLFAndBOM", func(t *testing.T) {
		src := "\xEF\xBB\xBF# One\r\n\r\nline\r\n"

		book, err := parser.Parse([]byte(src), "win.md", "")
		require.NoError(t, err)
		assert.Equal(t, "line", book.Chapters[0].Body)
	})

	t.Run("Idempotent", func(t *testing.T) {
		src := []byte("# A\n\n  indented\n\ttabbed\n\n# B\n\nend\n")

		first, err := parser.Parse(src, "same.md", "")
		require.NoError(t, err)
		second, err := parser.Parse(src, "same.md", "")
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})
}
