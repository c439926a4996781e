package cli

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/mrlokans/manuscripts/internal/parsers"
)

// ParseCommand shows how a manuscript would be split, without a database.
type ParseCommand struct {
	File     string
	Format   string
	ShowBody bool

	Out io.Writer
}

func NewParseCommand() *ParseCommand {
	return &ParseCommand{Out: os.Stdout}
}

func (cmd *ParseCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("parse", flag.ContinueOnError)

	fs.StringVar(&cmd.File, "file", "", "Manuscript to parse (required)")
	fs.StringVar(&cmd.Format, "format", "", "Override format detection: md, txt, zip, epub")
	fs.BoolVar(&cmd.ShowBody, "body", false, "Print the first lines of every chapter")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s parse [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Parse a manuscript and list its chapters without importing it.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}
	if cmd.File == "" {
		fs.Usage()
		return fmt.Errorf("file is required")
	}
	return nil
}

func (cmd *ParseCommand) Run() error {
	format, err := parsers.ParseFormat(cmd.Format)
	if err != nil {
		return err
	}

	book, err := parsers.NewParser().ParseFile(cmd.File, format)
	if err != nil {
		return err
	}

	PrintParsedBook(cmd.Out, book, cmd.ShowBody)
	return nil
}

func PrintParsedBook(w io.Writer, book *parsers.ParsedBook, showBody bool) {
	fmt.Fprintf(w, "Title:  %s\n", book.Title)
	if book.Author != "" {
		fmt.Fprintf(w, "Author: %s\n", book.Author)
	}
	fmt.Fprintf(w, "Format: %s\n", book.Format)
	fmt.Fprintf(w, "Words:  %d\n", book.TotalWords())

	fmt.Fprintf(w, "\n=== Chapters (%d) ===\n", len(book.Chapters))
	for _, ch := range book.Chapters {
		fmt.Fprintf(w, "%4d. %s (%d words)\n", ch.Number, ch.Title, ch.WordCount)
		if showBody {
			fmt.Fprintf(w, "      %s\n", excerpt(ch.Body, 120))
		}
	}

	if len(book.Warnings) > 0 {
		fmt.Fprintf(w, "\n=== Warnings (%d) ===\n", len(book.Warnings))
		for _, msg := range book.Warnings {
			fmt.Fprintf(w, "  - %s\n", msg)
		}
	}
}

func excerpt(s string, max int) string {
	runes := []rune(s)
	for i, r := range runes {
		if r == '\n' {
			runes[i] = ' '
		}
	}
	if len(runes) <= max {
		return string(runes)
	}
	return string(runes[:max]) + "..."
}
