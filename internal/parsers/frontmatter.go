package parsers

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// FrontMatter holds the metadata block at the top of a Markdown manuscript.
type FrontMatter struct {
	Title       string
	Author      string
	Description string
	Type        string
}

// splitFrontMatter separates a leading "---" delimited block from the rest of
// the text. The block must start on the very first line and be closed by a
// "---" or "..." line; otherwise the text is returned untouched.
func splitFrontMatter(lines []string) (block []string, rest []string, ok bool) {
	if len(lines) == 0 || strings.TrimRight(lines[0], " \t") != "---" {
		return nil, lines, false
	}
	for i := 1; i < len(lines); i++ {
		line := strings.TrimRight(lines[i], " \t")
		if line == "---" || line == "..." {
			return lines[1:i], lines[i+1:], true
		}
	}
	return nil, lines, false
}

// parseFrontMatter decodes a front matter block. YAML is tried first; if the
// block is not valid YAML, simple "key: value" lines are read instead and a
// non-nil error describes the YAML problem.
func parseFrontMatter(block []string) (FrontMatter, error) {
	raw := strings.Join(block, "\n")

	var values map[string]any
	if err := yaml.Unmarshal([]byte(raw), &values); err != nil {
		return parseKeyValueLines(block), fmt.Errorf("front matter is not valid YAML: %w", err)
	}
	return frontMatterFromMap(values), nil
}

func frontMatterFromMap(values map[string]any) FrontMatter {
	lookup := func(keys ...string) string {
		for _, key := range keys {
			for k, v := range values {
				if !strings.EqualFold(k, key) || v == nil {
					continue
				}
				return scalarString(v)
			}
		}
		return ""
	}

	return FrontMatter{
		Title:       lookup("title", "book_title"),
		Author:      lookup("author", "book_author", "authors"),
		Description: lookup("description", "summary"),
		Type:        lookup("type", "kind"),
	}
}

// scalarString renders YAML values as strings; lists are joined with ", ".
func scalarString(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case []any:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			if s := scalarString(item); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	default:
		return strings.TrimSpace(fmt.Sprint(val))
	}
}

// parseKeyValueLines reads "key: value" pairs, ignoring anything else.
func parseKeyValueLines(lines []string) FrontMatter {
	values := make(map[string]any)
	for _, line := range lines {
		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)
		if key != "" && value != "" {
			values[key] = value
		}
	}
	return frontMatterFromMap(values)
}
