package parsers

import (
	"errors"
	"fmt"
)

var (
	ErrUnreadable        = errors.New("file cannot be read")
	ErrEmptyFile         = errors.New("file is empty")
	ErrInvalidEncoding   = errors.New("file is not valid UTF-8")
	ErrUnsupportedFormat = errors.New("unsupported manuscript format")
	ErrNoChapters        = errors.New("no chapter markers found")
	ErrCorruptArchive    = errors.New("archive is corrupt")
	ErrNoEntries         = errors.New("archive contains no text entries")
)

// ParseError reports why a manuscript could not be turned into a ParsedBook.
// Kind is one of the Err* sentinels above, so callers can use errors.Is.
type ParseError struct {
	Source string // file name the error refers to
	Kind   error
	Detail string
	Cause  error
}

func (e *ParseError) Error() string {
	msg := e.Kind.Error()
	if e.Source != "" {
		msg = fmt.Sprintf("parse %s: %s", e.Source, msg)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Cause != nil {
		msg += " (" + e.Cause.Error() + ")"
	}
	return msg
}

func (e *ParseError) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Kind, e.Cause}
	}
	return []error{e.Kind}
}

func newParseError(source string, kind error, detail string) *ParseError {
	return &ParseError{Source: source, Kind: kind, Detail: detail}
}

func wrapParseError(source string, kind error, cause error) *ParseError {
	return &ParseError{Source: source, Kind: kind, Cause: cause}
}
