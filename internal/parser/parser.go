// Package parser renders vault entry files and reads them back.
package parser

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/adrg/frontmatter"
	"gopkg.in/yaml.v3"

	"github.com/starford/dayvault/internal/normalize"
)

const delim = "---"

var (
	embedRe = regexp.MustCompile(`!\[\[(.*?)\]\]`)
	tagRe   = regexp.MustCompile(`(?:^|\s)#([\p{L}\p{N}][\p{L}\p{N}_/-]*)`)
)

// Render serializes an entry file: YAML frontmatter between --- lines, a
// blank line, then the body. The result is written in one call.
func Render(fm *normalize.Frontmatter, body string) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(delim + "\n")
	if fm.Len() > 0 {
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(fm); err != nil {
			return nil, fmt.Errorf("render frontmatter: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("render frontmatter: %w", err)
		}
	}
	buf.WriteString(delim + "\n\n")
	buf.WriteString(body)
	return buf.Bytes(), nil
}

// Result holds the output of parsing an entry file.
type Result struct {
	Frontmatter map[string]interface{}
	Body        string
	Embeds      []string
	Tags        []string
	Title       string
}

// Parse splits an entry file into frontmatter and body. Content without
// frontmatter, or with frontmatter that is not valid YAML, is all body.
func Parse(data []byte) (*Result, error) {
	var fm map[string]interface{}
	rest, err := frontmatter.Parse(bytes.NewReader(data), &fm)
	body := strings.TrimLeft(string(rest), "\n\r")
	if err != nil {
		fm, body = nil, string(data)
	}

	return &Result{
		Frontmatter: fm,
		Body:        body,
		Embeds:      extractEmbeds(body),
		Tags:        extractTags(body, fm),
		Title:       deriveTitle(fm, body),
	}, nil
}

// extractEmbeds returns deduplicated ![[file]] targets, dropping size or
// alias suffixes.
func extractEmbeds(body string) []string {
	matches := embedRe.FindAllStringSubmatch(body, -1)
	seen := make(map[string]struct{}, len(matches))
	var out []string
	for _, m := range matches {
		target := m[1]
		if i := strings.Index(target, "|"); i >= 0 {
			target = target[:i]
		}
		target = strings.TrimSpace(target)
		if target == "" {
			continue
		}
		if _, ok := seen[target]; ok {
			continue
		}
		seen[target] = struct{}{}
		out = append(out, target)
	}
	return out
}

// extractTags collects tags from the frontmatter "tags" list and inline
// #tags in the body.
func extractTags(body string, fm map[string]interface{}) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(t string) {
		t = strings.TrimSpace(t)
		if t == "" {
			return
		}
		if _, dup := seen[t]; !dup {
			seen[t] = struct{}{}
			out = append(out, t)
		}
	}

	if items, ok := fm["tags"].([]interface{}); ok {
		for _, item := range items {
			if s, ok := item.(string); ok {
				add(s)
			}
		}
	}

	for _, m := range tagRe.FindAllStringSubmatch(body, -1) {
		add(m[1])
	}
	return out
}

// deriveTitle returns the frontmatter "title" if present, otherwise the first
// H1 heading, otherwise empty string.
func deriveTitle(fm map[string]interface{}, body string) string {
	if s, ok := fm["title"].(string); ok && s != "" {
		return s
	}
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(trimmed[2:])
		}
	}
	return ""
}
