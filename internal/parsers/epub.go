package parsers

import (
	"bytes"
	"io"
	"strings"

	"github.com/taylorskalyo/goreader/epub"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/mrlokans/manuscripts/internal/utils"
)

// parseEPUB turns every spine document that carries text into one chapter.
// Bodies are converted to plain text with blank lines between blocks.
func parseEPUB(source string, data []byte) (*ParsedBook, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, newParseError(source, ErrEmptyFile, "")
	}

	rc, err := epub.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, wrapParseError(source, ErrCorruptArchive, err)
	}
	if len(rc.Rootfiles) == 0 {
		return nil, newParseError(source, ErrCorruptArchive, "no rootfiles found in epub")
	}

	pkg := rc.Rootfiles[0]
	book := &ParsedBook{
		Format:      FormatEPUB,
		SourceName:  source,
		Title:       strings.TrimSpace(pkg.Title),
		Author:      strings.TrimSpace(pkg.Creator),
		Description: strings.TrimSpace(pkg.Description),
		Kind:        "book",
	}

	var drafts []chapterDraft
	for _, ref := range pkg.Spine.Itemrefs {
		if ref.Item == nil {
			continue
		}
		r, err := ref.Item.Open()
		if err != nil {
			book.warnf("skipped unreadable spine item %s: %v", ref.Item.HREF, err)
			continue
		}
		content, err := io.ReadAll(r)
		r.Close()
		if err != nil {
			book.warnf("skipped unreadable spine item %s: %v", ref.Item.HREF, err)
			continue
		}

		title, body, err := extractXHTML(content)
		if err != nil {
			book.warnf("skipped malformed spine item %s: %v", ref.Item.HREF, err)
			continue
		}
		if CountWords(body) == 0 {
			continue
		}
		if _, label, ok := parseChapterLabel(title); ok && label != "" {
			title = label
		}
		drafts = append(drafts, chapterDraft{title: title, body: body})
	}

	if len(drafts) == 0 {
		return nil, newParseError(source, ErrNoChapters, "no spine documents with text")
	}
	if book.Title == "" {
		book.Title = utils.TitleFromFilename(source)
	}

	book.assignNumbers(drafts)
	return book, nil
}

var blockElements = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Section: true, atom.Article: true,
	atom.Blockquote: true, atom.Li: true, atom.Pre: true, atom.Br: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Tr: true, atom.Hr: true,
}

// extractXHTML returns the first h1-h3 heading (or the document <title>) and
// the body text. The chosen heading is not repeated in the body.
func extractXHTML(content []byte) (string, string, error) {
	doc, err := html.Parse(bytes.NewReader(content))
	if err != nil {
		return "", "", err
	}

	var docTitle string
	var heading *html.Node
	var find func(*html.Node)
	find = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Title:
				if docTitle == "" {
					docTitle = collapseSpace(nodeText(n))
				}
			case atom.H1, atom.H2, atom.H3:
				if heading == nil && collapseSpace(nodeText(n)) != "" {
					heading = n
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			find(c)
		}
	}
	find(doc)

	title := docTitle
	if heading != nil {
		title = collapseSpace(nodeText(heading))
	}

	var paragraphs []string
	var current strings.Builder
	flush := func() {
		if t := collapseSpace(current.String()); t != "" {
			paragraphs = append(paragraphs, t)
		}
		current.Reset()
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n == heading {
			return
		}
		switch n.Type {
		case html.TextNode:
			current.WriteString(n.Data)
			return
		case html.ElementNode:
			switch n.DataAtom {
			case atom.Script, atom.Style, atom.Head:
				return
			}
		}
		block := n.Type == html.ElementNode && blockElements[n.DataAtom]
		if block {
			flush()
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if block {
			flush()
		}
	}
	walk(doc)
	flush()

	return title, strings.Join(paragraphs, "\n\n"), nil
}

func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteString(" ")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
