// Package frontmatter splits a leading YAML block off a Markdown document and
// writes it back in canonical form.
package frontmatter

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrNoFrontMatter is returned by Split when the document does not open with
// a well-formed YAML mapping between "---" fences.
var ErrNoFrontMatter = errors.New("no front matter")

// FrontMatter is a parsed YAML mapping. Key order is kept as written.
type FrontMatter struct {
	node *yaml.Node
}

// Len returns the number of keys in the mapping.
func (f *FrontMatter) Len() int {
	if f == nil || f.node == nil {
		return 0
	}
	return len(f.node.Content) / 2
}

// Split separates front matter from the body. The document must start with
// a "---" line and the block must end with a "---" or "..." line. When there
// is no such block, or its content is not a YAML mapping, the error wraps
// ErrNoFrontMatter and callers treat the whole input as body.
func Split(raw string) (*FrontMatter, string, error) {
	first, rest, ok := cutLine(raw)
	if !ok || first != "---" {
		return nil, raw, ErrNoFrontMatter
	}

	var block strings.Builder
	for {
		line, next, ok := cutLine(rest)
		if line == "---" || line == "..." {
			fm, err := parse(block.String())
			if err != nil {
				return nil, raw, err
			}
			return fm, next, nil
		}
		if !ok {
			return nil, raw, fmt.Errorf("%w: unterminated block", ErrNoFrontMatter)
		}
		block.WriteString(line)
		block.WriteByte('\n')
		rest = next
	}
}

// cutLine splits off the first line of s, dropping its line terminator. ok
// is false when s holds no newline.
func cutLine(s string) (line, rest string, ok bool) {
	line, rest, ok = strings.Cut(s, "\n")
	return strings.TrimSuffix(line, "\r"), rest, ok
}

func parse(block string) (*FrontMatter, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(block), &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoFrontMatter, err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) != 1 || doc.Content[0].Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: not a mapping", ErrNoFrontMatter)
	}
	return &FrontMatter{node: doc.Content[0]}, nil
}

// Format returns the front matter as a fenced YAML block followed by a blank
// line. An empty mapping formats to "".
func Format(f *FrontMatter) (string, error) {
	if f.Len() == 0 {
		return "", nil
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(f.node); err != nil {
		return "", fmt.Errorf("encoding front matter: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("encoding front matter: %w", err)
	}
	return "---\n" + buf.String() + "---\n\n", nil
}
