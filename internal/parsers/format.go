package parsers

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Format identifies a manuscript file format.
type Format string

const (
	FormatMarkdown  Format = "markdown"
	FormatPlainText Format = "text"
	FormatArchive   Format = "archive"
	FormatEPUB      Format = "epub"
)

var formatAliases = map[string]Format{
	"md":        FormatMarkdown,
	"markdown":  FormatMarkdown,
	"txt":       FormatPlainText,
	"text":      FormatPlainText,
	"plaintext": FormatPlainText,
	"zip":       FormatArchive,
	"textpack":  FormatArchive,
	"archive":   FormatArchive,
	"epub":      FormatEPUB,
}

// ParseFormat converts a user supplied format hint ("md", ".txt", "zip", ...)
// into a Format. An empty hint returns an empty Format and no error.
func ParseFormat(hint string) (Format, error) {
	hint = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(hint), "."))
	if hint == "" {
		return "", nil
	}
	if f, ok := formatAliases[hint]; ok {
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, hint)
}

// DetectFormat sniffs the format from the file extension.
func DetectFormat(filename string) (Format, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if ext == "" {
		return "", fmt.Errorf("%w: %q has no extension", ErrUnsupportedFormat, filepath.Base(filename))
	}
	if f, ok := formatAliases[ext]; ok && ext != "archive" && ext != "plaintext" {
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, "."+ext)
}

// Extensions returns the file extensions handled by a format.
func (f Format) Extensions() []string {
	switch f {
	case FormatMarkdown:
		return []string{".md", ".markdown"}
	case FormatPlainText:
		return []string{".txt"}
	case FormatArchive:
		return []string{".zip", ".textpack"}
	case FormatEPUB:
		return []string{".epub"}
	}
	return nil
}

func (f Format) String() string {
	return string(f)
}
