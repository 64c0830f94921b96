package convert

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/nao1215/mdtidy/internal/dom"
	"github.com/nao1215/mdtidy/internal/frontmatter"
	"github.com/nao1215/mdtidy/internal/heading"
	"github.com/nao1215/mdtidy/internal/mdparse"
)

// Options controls a conversion.
type Options struct {
	// EnsureFirstHeaderIsH1 forces the first top-level heading to level 1.
	EnsureFirstHeaderIsH1 bool
	// AlignHeaders enables heading hierarchy repair. When false,
	// EnsureFirstHeaderIsH1 has no effect.
	AlignHeaders bool
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{
		EnsureFirstHeaderIsH1: true,
		AlignHeaders:          true,
	}
}

// Fingerprint returns a short stable encoding of the options, used to key
// cached results.
func (o Options) Fingerprint() string {
	return "h1=" + strconv.FormatBool(o.EnsureFirstHeaderIsH1) +
		";align=" + strconv.FormatBool(o.AlignHeaders)
}

// Converter converts Markdown documents with fixed options.
// A Converter is safe for concurrent use.
type Converter struct {
	opts   Options
	logger *slog.Logger
}

// Option configures a Converter.
type Option func(*Converter)

// WithLogger sets the logger that receives per-step debug records.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Converter) {
		c.logger = logger
	}
}

// New creates a Converter. Without WithLogger nothing is logged.
func New(opts Options, options ...Option) *Converter {
	c := &Converter{opts: opts}
	for _, o := range options {
		o(c)
	}
	if c.logger == nil {
		c.logger = slog.New(slog.DiscardHandler)
	}
	return c
}

// Options returns the options the converter was created with.
func (c *Converter) Options() Options {
	return c.opts
}

// Convert normalizes raw Markdown with the given options.
func Convert(raw string, opts Options) (string, error) {
	return New(opts).Convert(raw)
}

// Convert normalizes one Markdown document.
func (c *Converter) Convert(raw string) (string, error) {
	if !utf8.ValidString(raw) {
		return "", ErrInvalidUTF8
	}

	fm, body, err := frontmatter.Split(raw)
	if err != nil {
		c.logger.Debug("no front matter", "reason", err)
	}

	parsed, err := mdparse.Parse([]byte(body))
	if err != nil {
		return "", err
	}
	links := buildLinks(parsed.References)
	c.logger.Debug("rendered markdown", "references", len(links), "html", parsed.HTML)

	tree, err := dom.ParseString(parsed.HTML)
	if err != nil {
		return "", err
	}
	stripWhitespace(tree)

	if c.opts.AlignHeaders {
		headings := heading.TopLevel(tree, tree.Root())
		if err := heading.Fix(tree, headings, c.opts.EnsureFirstHeaderIsH1); err != nil {
			return "", err
		}
		c.logger.Debug("aligned headings", "count", len(headings))
	}

	e := &engine{tree: tree, links: links}
	out, err := e.run()
	if err != nil {
		return "", err
	}
	c.logger.Debug("converted tree", "elements", e.converted)

	if len(links) > 0 {
		if out != "" {
			out += "\n"
		}
		out += formatDefinitions(links)
	}

	header, err := frontmatter.Format(fm)
	if err != nil {
		return "", err
	}
	if out == "" {
		header = strings.TrimSuffix(header, "\n")
	}
	return header + out, nil
}

// annotation is the conversion result of one element.
type annotation struct {
	rule        *Rule
	replacement string
	leading     string
	trailing    string
}

type engine struct {
	tree        *dom.Tree
	links       []Link
	annotations []annotation
	itemIndexes map[dom.NodeID]int
	converted   int
}

// run converts every element and assembles the document body. The result
// ends with exactly one newline, or is empty.
func (e *engine) run() (string, error) {
	order := e.linearize()
	e.annotations = make([]annotation, e.tree.Len())
	e.itemIndexes = make(map[dom.NodeID]int)

	for i := len(order) - 1; i >= 0; i-- {
		if err := e.process(order[i]); err != nil {
			return "", err
		}
		e.converted++
	}

	content, err := e.assemble(e.tree.Root())
	if err != nil {
		return "", err
	}
	content = strings.TrimRight(content, whitespace)
	if content == "" {
		return "", nil
	}
	return content + "\n", nil
}

// linearize lists all elements below the root breadth-first. Comments are
// replaced by synthetic comment elements as they are reached.
func (e *engine) linearize() []dom.NodeID {
	var order []dom.NodeID
	queue := []dom.NodeID{e.tree.Root()}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, c := range e.tree.Children(id) {
			if e.tree.IsComment(c) {
				c = e.tree.ElementizeComment(c)
			}
			if e.tree.IsElement(c) {
				order = append(order, c)
				queue = append(queue, c)
			}
		}
	}
	return order
}

// process converts one element whose descendants are all converted.
func (e *engine) process(id dom.NodeID) error {
	rule, err := FindRule(e.tree, id)
	if err != nil {
		return err
	}

	content, err := e.assemble(id)
	if err != nil {
		return err
	}

	node := Node{Tree: e.tree, ID: id, replacement: e.replacementOf, itemIndex: e.itemIndexOf}
	replacement, err := rule.Replacement(strings.Trim(content, whitespace), node, e.links)
	if err != nil {
		return fmt.Errorf("converting <%s> with rule %s: %w", e.tree.Tag(id), rule.Name, err)
	}

	leading, trailing := e.flankingWhitespace(id, rule, content)
	e.annotations[id] = annotation{
		rule:        rule,
		replacement: replacement,
		leading:     leading,
		trailing:    trailing,
	}
	return nil
}

func (e *engine) replacementOf(id dom.NodeID) string {
	return e.annotations[id].replacement
}

// itemIndexOf returns the position of id among the siblings sharing its
// tag. The positions of a whole sibling list are recorded on first use.
func (e *engine) itemIndexOf(id dom.NodeID) int {
	if i, ok := e.itemIndexes[id]; ok {
		return i
	}
	parent := e.tree.Parent(id)
	if parent == dom.NoNode {
		return 0
	}
	counts := make(map[string]int)
	for _, c := range e.tree.Children(parent) {
		if e.tree.IsElement(c) {
			tag := e.tree.Tag(c)
			e.itemIndexes[c] = counts[tag]
			counts[tag]++
		}
	}
	return e.itemIndexes[id]
}

// errNotConverted guards against reading an element before its conversion.
var errNotConverted = errors.New("element read before conversion")
