// Package parser extracts the record metadata the tree needs from a note's
// Markdown content: the display title and the creation date.
package parser

import (
	"bytes"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"gopkg.in/yaml.v3"
)

// Meta holds the metadata extracted from a Markdown file.
type Meta struct {
	Frontmatter map[string]interface{}
	Body        string
	Title       string
	CreatedAt   time.Time // zero when absent or unparseable
}

// Parse extracts frontmatter metadata from raw Markdown bytes. Content with
// no or invalid frontmatter is not an error; the zero metadata is returned
// and callers fall back to filename-derived values.
func Parse(data []byte) Meta {
	fm, body := splitFrontmatter(data)
	return Meta{
		Frontmatter: fm,
		Body:        body,
		Title:       deriveTitle(fm, body),
		CreatedAt:   deriveCreated(fm),
	}
}

// splitFrontmatter separates YAML frontmatter (between leading --- delimiters)
// from the Markdown body. If no frontmatter is found the entire content is body.
func splitFrontmatter(data []byte) (map[string]interface{}, string) {
	const delim = "---"
	trimmed := bytes.TrimLeft(data, "\n\r")

	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return nil, string(data)
	}

	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		// No closing delimiter — treat everything as body.
		return nil, string(data)
	}

	yamlBlock := rest[:idx]
	afterDelim := rest[idx+1+len(delim):]
	body := strings.TrimLeft(string(afterDelim), "\n\r")

	var fm map[string]interface{}
	if err := yaml.Unmarshal(yamlBlock, &fm); err != nil {
		// Invalid YAML — body only, no error.
		return nil, string(data)
	}

	return fm, body
}

// deriveTitle returns the frontmatter "title" if present, otherwise the first
// H1 heading, otherwise empty string.
func deriveTitle(fm map[string]interface{}, body string) string {
	if fm != nil {
		if t, ok := fm["title"]; ok {
			if s, ok := t.(string); ok && s != "" {
				return s
			}
		}
	}
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(trimmed[2:])
		}
	}
	return ""
}

// deriveCreated parses the frontmatter "created" field. Users write dates in
// every shape imaginable, so parsing is lenient.
func deriveCreated(fm map[string]interface{}) time.Time {
	if fm == nil {
		return time.Time{}
	}
	raw, ok := fm["created"]
	if !ok {
		return time.Time{}
	}
	switch v := raw.(type) {
	case time.Time:
		return v
	case string:
		if ts, err := dateparse.ParseAny(v); err == nil {
			return ts
		}
	}
	return time.Time{}
}
