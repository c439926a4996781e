package parsers

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mrlokans/manuscripts/internal/utils"
)

// ArchiveEntry is one file inside a manuscript bundle.
type ArchiveEntry struct {
	Name string
	Data []byte
}

// ArchiveReader lists the files of an archive held in memory.
// It must not extract anything to disk.
type ArchiveReader interface {
	ListEntries(data []byte) ([]ArchiveEntry, error)
}

// ZipArchiveReader reads .zip and .textpack bundles.
type ZipArchiveReader struct {
	// MaxEntryBytes limits the uncompressed size of a single entry; 0 means 32 MB.
	MaxEntryBytes int64
}

var _ ArchiveReader = ZipArchiveReader{}

// ListEntries returns regular files in archive order, skipping directories
// and macOS resource forks.
func (z ZipArchiveReader) ListEntries(data []byte) ([]ArchiveEntry, error) {
	limit := z.MaxEntryBytes
	if limit <= 0 {
		limit = 32 << 20
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}

	entries := make([]ArchiveEntry, 0, len(zr.File))
	for _, f := range zr.File {
		if f.FileInfo().IsDir() || strings.HasPrefix(f.Name, "__MACOSX/") {
			continue
		}
		if f.UncompressedSize64 > uint64(limit) {
			return nil, fmt.Errorf("entry %s exceeds %d bytes", f.Name, limit)
		}

		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open entry %s: %w", f.Name, err)
		}
		var buf bytes.Buffer
		_, err = buf.ReadFrom(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("read entry %s: %w", f.Name, err)
		}
		entries = append(entries, ArchiveEntry{Name: f.Name, Data: buf.Bytes()})
	}
	return entries, nil
}

// archiveManifest lists chapter files in reading order and may carry book metadata.
// Both YAML and JSON manifests decode into it.
type archiveManifest struct {
	Title       string   `yaml:"title"`
	Author      string   `yaml:"author"`
	Description string   `yaml:"description"`
	Type        string   `yaml:"type"`
	Chapters    []string `yaml:"chapters"`
	Order       []string `yaml:"order"`
}

var (
	manifestNames = []string{"manifest.yaml", "manifest.yml", "manifest.json", "manifest.txt"}
	metadataNames = []string{"metadata.yaml", "metadata.yml", "metadata.json", "info.json", "book.yaml", "book.yml"}
	textEntryExts = map[string]Format{
		".md":       FormatMarkdown,
		".markdown": FormatMarkdown,
		".txt":      FormatPlainText,
		".text":     FormatPlainText,
	}
)

// parseArchive turns each qualifying text entry of a bundle into one chapter.
func parseArchive(source string, data []byte, reader ArchiveReader) (*ParsedBook, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, newParseError(source, ErrEmptyFile, "")
	}

	entries, err := reader.ListEntries(data)
	if err != nil {
		return nil, wrapParseError(source, ErrCorruptArchive, err)
	}

	book := &ParsedBook{Format: FormatArchive, SourceName: source}

	var manifest *archiveManifest
	var texts []ArchiveEntry
	for _, e := range entries {
		base := strings.ToLower(path.Base(e.Name))
		if strings.HasPrefix(base, ".") {
			continue
		}
		switch {
		case contains(manifestNames, base) && manifest == nil:
			m, err := decodeManifest(base, e.Data)
			if err != nil {
				book.warnf("ignored manifest %s: %v", e.Name, err)
				continue
			}
			manifest = m
		case contains(metadataNames, base):
			var meta archiveManifest
			if err := yaml.Unmarshal(e.Data, &meta); err != nil {
				book.warnf("ignored metadata file %s: %v", e.Name, err)
				continue
			}
			mergeMetadata(book, &meta)
		default:
			if _, ok := textEntryExts[path.Ext(base)]; ok {
				texts = append(texts, e)
			}
		}
	}
	if manifest != nil {
		mergeMetadata(book, manifest)
	}

	if len(texts) == 0 {
		return nil, newParseError(source, ErrNoEntries, "expected .md, .markdown or .txt files")
	}

	ordered := orderEntries(book, texts, manifest)

	drafts := make([]chapterDraft, 0, len(ordered))
	for _, e := range ordered {
		text, err := decodeText(e.Name, e.Data)
		if err != nil {
			if errors.Is(err, ErrEmptyFile) {
				book.warnf("skipped empty entry %s", e.Name)
				continue
			}
			return nil, newParseError(source, ErrInvalidEncoding, "entry "+e.Name)
		}
		drafts = append(drafts, entryDraft(e.Name, text))
	}
	if len(drafts) == 0 {
		return nil, newParseError(source, ErrNoEntries, "all text entries are empty")
	}

	if book.Title == "" {
		book.Title = utils.TitleFromFilename(source)
	}

	book.assignNumbers(drafts)
	return book, nil
}

func decodeManifest(base string, data []byte) (*archiveManifest, error) {
	if base == "manifest.txt" {
		m := &archiveManifest{}
		for _, line := range splitLines(strings.ReplaceAll(string(data), "\r\n", "\n")) {
			line = strings.TrimSpace(line)
			if line != "" && !strings.HasPrefix(line, "#") {
				m.Chapters = append(m.Chapters, line)
			}
		}
		return m, nil
	}

	var m archiveManifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	if len(m.Chapters) == 0 {
		m.Chapters = m.Order
	}
	return &m, nil
}

func mergeMetadata(book *ParsedBook, meta *archiveManifest) {
	if book.Title == "" {
		book.Title = strings.TrimSpace(meta.Title)
	}
	if book.Author == "" {
		book.Author = strings.TrimSpace(meta.Author)
	}
	if book.Description == "" {
		book.Description = strings.TrimSpace(meta.Description)
	}
	if book.Kind == "" {
		book.Kind = strings.TrimSpace(meta.Type)
	}
}

// orderEntries applies manifest order when one is present. Entries the
// manifest does not mention follow in natural filename order.
func orderEntries(book *ParsedBook, texts []ArchiveEntry, manifest *archiveManifest) []ArchiveEntry {
	sorted := make([]ArchiveEntry, len(texts))
	copy(sorted, texts)
	sort.SliceStable(sorted, func(i, j int) bool {
		return utils.NaturalLess(sorted[i].Name, sorted[j].Name)
	})

	if manifest == nil || len(manifest.Chapters) == 0 {
		return sorted
	}

	placed := make(map[string]bool)
	ordered := make([]ArchiveEntry, 0, len(sorted))
	for _, name := range manifest.Chapters {
		idx := findEntry(sorted, name)
		if idx < 0 {
			book.warnf("manifest lists %s, which is not in the archive", name)
			continue
		}
		if placed[sorted[idx].Name] {
			continue
		}
		placed[sorted[idx].Name] = true
		ordered = append(ordered, sorted[idx])
	}
	for _, e := range sorted {
		if !placed[e.Name] {
			book.warnf("%s is not listed in the manifest; appended after listed chapters", e.Name)
			ordered = append(ordered, e)
		}
	}
	return ordered
}

// findEntry matches a manifest name against entry paths, first exactly,
// then by path suffix, then by base name.
func findEntry(entries []ArchiveEntry, name string) int {
	name = strings.TrimPrefix(path.Clean(strings.TrimSpace(name)), "./")
	for i, e := range entries {
		if e.Name == name {
			return i
		}
	}
	for i, e := range entries {
		if strings.HasSuffix(e.Name, "/"+name) {
			return i
		}
	}
	for i, e := range entries {
		if path.Base(e.Name) == path.Base(name) {
			return i
		}
	}
	return -1
}

// entryDraft converts one archive entry into a chapter draft. Markdown
// entries take their title from front matter or a leading heading; plain-text
// entries from a leading chapter marker; otherwise the filename is used.
func entryDraft(name, text string) chapterDraft {
	lines := splitLines(text)

	if textEntryExts[strings.ToLower(path.Ext(name))] == FormatMarkdown {
		draft, _ := markdownEntryDraft(lines)
		if draft.title == "" {
			draft.title = utils.TitleFromFilename(name)
		}
		return draft
	}

	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if _, title, ok := parseChapterLabel(line); ok {
			if title == "" {
				if j, t, found := nextLineTitle(lines, i+1, len(lines)); found {
					return chapterDraft{title: t, body: joinBody(lines[j+1:])}
				}
				title = strings.TrimSpace(line)
			}
			return chapterDraft{title: title, body: joinBody(lines[i+1:])}
		}
		break
	}
	return chapterDraft{title: utils.TitleFromFilename(name), body: joinBody(lines)}
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
