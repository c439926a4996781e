package parsers

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Parser converts manuscript files into ParsedBooks. It holds no state between
// calls and is safe for concurrent use.
type Parser struct {
	archives ArchiveReader
}

func NewParser() *Parser {
	return &Parser{archives: ZipArchiveReader{}}
}

// NewParserWithArchiveReader lets callers substitute the bundle reader.
func NewParserWithArchiveReader(archives ArchiveReader) *Parser {
	return &Parser{archives: archives}
}

// Parse parses in-memory file content. When format is empty it is detected
// from the filename extension.
func (p *Parser) Parse(data []byte, filename string, format Format) (*ParsedBook, error) {
	source := filepath.Base(filename)
	if format == "" {
		detected, err := DetectFormat(filename)
		if err != nil {
			return nil, &ParseError{Source: source, Kind: ErrUnsupportedFormat, Cause: err}
		}
		format = detected
	}

	switch format {
	case FormatMarkdown:
		return parseMarkdown(source, data)
	case FormatPlainText:
		return parsePlainText(source, data)
	case FormatArchive:
		return parseArchive(source, data, p.archives)
	case FormatEPUB:
		return parseEPUB(source, data)
	default:
		return nil, newParseError(source, ErrUnsupportedFormat, fmt.Sprintf("format %q", format))
	}
}

// ParseReader reads r fully and parses the content.
func (p *Parser) ParseReader(r io.Reader, filename string, format Format) (*ParsedBook, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, wrapParseError(filepath.Base(filename), ErrUnreadable, err)
	}
	return p.Parse(data, filename, format)
}

// ParseFile reads and parses the file at path.
func (p *Parser) ParseFile(path string, format Format) (*ParsedBook, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, wrapParseError(filepath.Base(path), ErrUnreadable, err)
	}
	return p.Parse(data, path, format)
}
