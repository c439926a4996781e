package utils

import (
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "removes invalid characters",
			input:    `my<>:"|?*book.md`,
			expected: "mybook.md",
		},
		{
			name:     "strips directory components",
			input:    "../../etc/passwd.txt",
			expected: "passwd.txt",
		},
		{
			name:     "strips windows directory components",
			input:    `C:\Users\me\novel.txt`,
			expected: "novel.txt",
		},
		{
			name:     "collapses whitespace",
			input:    "my \t  novel\n.md",
			expected: "my novel.md",
		},
		{
			name:     "lowercases extension",
			input:    "Bundle.ZIP",
			expected: "Bundle.zip",
		},
		{
			name:     "falls back when name is empty",
			input:    "<>.md",
			expected: "manuscript.md",
		},
		{
			name:     "truncates long names",
			input:    strings.Repeat("a", 250) + ".txt",
			expected: strings.Repeat("a", 200) + ".txt",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SanitizeFilename(tt.input))
		})
	}
}

func TestIsManuscriptFile(t *testing.T) {
	assert.True(t, IsManuscriptFile("book.md"))
	assert.True(t, IsManuscriptFile("BOOK.MARKDOWN"))
	assert.True(t, IsManuscriptFile("novel.txt"))
	assert.True(t, IsManuscriptFile("bundle.textpack"))
	assert.True(t, IsManuscriptFile("bundle.zip"))
	assert.True(t, IsManuscriptFile("book.epub"))
	assert.False(t, IsManuscriptFile("cover.png"))
	assert.False(t, IsManuscriptFile("README"))
}

func TestTitleFromFilename(t *testing.T) {
	assert.Equal(t, "My Novel", TitleFromFilename("books/My Novel.md"))
	assert.Equal(t, "draft", TitleFromFilename("draft.txt"))
	assert.Equal(t, "archive.tar", TitleFromFilename("/tmp/archive.tar.gz"))
	assert.Equal(t, "notes", TitleFromFilename("notes"))
}

func TestNaturalLess(t *testing.T) {
	names := []string{
		"chapter-10.md",
		"chapter-2.md",
		"Chapter-1.md",
		"chapter-02b.md",
		"appendix.md",
	}

	sort.SliceStable(names, func(i, j int) bool {
		return NaturalLess(names[i], names[j])
	})

	assert.Equal(t, []string{
		"appendix.md",
		"Chapter-1.md",
		"chapter-2.md",
		"chapter-02b.md",
		"chapter-10.md",
	}, names)
}

func TestNaturalLess_LongDigitRuns(t *testing.T) {
	assert.True(t, NaturalLess("part-99999999999999999999", "part-100000000000000000000"))
	assert.False(t, NaturalLess("part-100000000000000000000", "part-99999999999999999999"))
}
