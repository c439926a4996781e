package utils

import (
	"path/filepath"
	"regexp"
	"strings"
)

var (
	// Characters invalid in filenames on most filesystems
	invalidFilenameChars = regexp.MustCompile(`[<>:"/\\|?*]`)
	// Whitespace characters to normalize
	whitespaceChars = regexp.MustCompile(`[\r\n\t]`)
	// Multiple spaces to collapse
	multipleSpaces = regexp.MustCompile(`\s+`)
)

// SanitizeFilename makes an uploaded filename safe to store on disk.
// It removes characters that are invalid on common filesystems, collapses
// whitespace and limits the length while keeping the extension.
func SanitizeFilename(filename string) string {
	filename = filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	ext := strings.ToLower(filepath.Ext(filename))
	name := strings.TrimSuffix(filename, filepath.Ext(filename))

	name = invalidFilenameChars.ReplaceAllString(name, "")
	name = whitespaceChars.ReplaceAllString(name, " ")
	name = multipleSpaces.ReplaceAllString(name, " ")
	name = strings.TrimSpace(name)
	name = strings.Trim(name, ".")

	// Leave room for the extension and a unique prefix
	if len(name) > 200 {
		name = strings.TrimSpace(name[:200])
	}

	if name == "" {
		name = "manuscript"
	}

	ext = invalidFilenameChars.ReplaceAllString(ext, "")
	return name + ext
}

// KnownManuscriptExtensions contains the file extensions the importer understands.
var KnownManuscriptExtensions = []string{
	".md",
	".markdown",
	".txt",
	".zip",
	".textpack",
	".epub",
}

// IsManuscriptFile reports whether the filename has a supported manuscript extension.
func IsManuscriptFile(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, known := range KnownManuscriptExtensions {
		if ext == known {
			return true
		}
	}
	return false
}

// TitleFromFilename derives a fallback title from a file path: the base name
// without its extension. "books/My Novel.md" -> "My Novel".
func TitleFromFilename(path string) string {
	base := filepath.Base(strings.ReplaceAll(path, "\\", "/"))
	if base == "." || base == "/" {
		return ""
	}
	title := strings.TrimSuffix(base, filepath.Ext(base))
	return strings.TrimSpace(title)
}
