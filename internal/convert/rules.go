package convert

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/nao1215/mdtidy/internal/dom"
	"github.com/nao1215/mdtidy/internal/heading"
	"github.com/nao1215/mdtidy/internal/table"
	"github.com/nao1215/mdtidy/internal/textutil"
)

// Filter selects the elements a Rule applies to. It is one of TagFilter,
// TagSetFilter or PredicateFilter.
type Filter any

// TagFilter matches elements with exactly this tag name.
type TagFilter string

// TagSetFilter matches elements whose tag name is in the set.
type TagSetFilter []string

// PredicateFilter matches elements for which the function returns true.
type PredicateFilter func(tree *dom.Tree, id dom.NodeID) bool

// Node is the element a Rule converts, together with read access to the
// already converted text of its descendants.
type Node struct {
	Tree *dom.Tree
	ID   dom.NodeID

	replacement func(dom.NodeID) string
	itemIndex   func(dom.NodeID) int
}

// Tag returns the element's tag name.
func (n Node) Tag() string {
	return n.Tree.Tag(n.ID)
}

// Attr returns the value of the element's attribute.
func (n Node) Attr(key string) (string, bool) {
	return n.Tree.Attr(n.ID, key)
}

// ItemIndex returns the position of the element among the siblings that
// share its tag.
func (n Node) ItemIndex() int {
	if n.itemIndex != nil {
		return n.itemIndex(n.ID)
	}
	return countPreceding(n.Tree, n.ID)
}

// countPreceding counts the siblings before id that share its tag.
func countPreceding(tree *dom.Tree, id dom.NodeID) int {
	count := 0
	for c := tree.PrevSibling(id); c != dom.NoNode; c = tree.PrevSibling(c) {
		if tree.IsElement(c) && tree.Tag(c) == tree.Tag(id) {
			count++
		}
	}
	return count
}

// Replacement returns the converted text of a descendant element.
func (n Node) Replacement(id dom.NodeID) string {
	if n.replacement == nil {
		return ""
	}
	return n.replacement(id)
}

// Rule turns one kind of element into Markdown.
type Rule struct {
	Name   string
	Filter Filter
	// SurroundingBlankLines puts the element in a block of its own.
	SurroundingBlankLines bool
	// TrailingWhitespace is appended after the element's other trailing
	// whitespace.
	TrailingWhitespace string
	// Replacement receives the element's trimmed, already converted
	// content and returns its Markdown.
	Replacement func(content string, n Node, links []Link) (string, error)
}

// Matches reports whether the rule applies to the element.
func (r *Rule) Matches(tree *dom.Tree, id dom.NodeID) (bool, error) {
	switch f := r.Filter.(type) {
	case TagFilter:
		return tree.Tag(id) == string(f), nil
	case TagSetFilter:
		return slices.Contains(f, tree.Tag(id)), nil
	case PredicateFilter:
		return f(tree, id), nil
	default:
		return false, fmt.Errorf("%w: rule %q has filter of type %T", ErrUnknownFilter, r.Name, r.Filter)
	}
}

// FindRule returns the first rule of the default table that matches the
// element. The last rule matches everything.
func FindRule(tree *dom.Tree, id dom.NodeID) (*Rule, error) {
	return findRule(rules, tree, id)
}

func findRule(rs []Rule, tree *dom.Tree, id dom.NodeID) (*Rule, error) {
	for i := range rs {
		ok, err := rs[i].Matches(tree, id)
		if err != nil {
			return nil, err
		}
		if ok {
			return &rs[i], nil
		}
	}
	return nil, fmt.Errorf("%w: no rule matches <%s>", ErrUnsupportedNode, tree.Tag(id))
}

// rules is the fixed conversion table. Order matters: the first match wins.
var rules = []Rule{
	{
		Name:                  "raw-html-block",
		Filter:                PredicateFilter(isRawBlock),
		SurroundingBlankLines: true,
		Replacement:           renderMarkup,
	},
	{
		Name:        "raw-html",
		Filter:      PredicateFilter(hasForeignAttributes),
		Replacement: renderMarkup,
	},
	{
		Name:                  "paragraph",
		Filter:                TagFilter("p"),
		SurroundingBlankLines: true,
		Replacement:           passThrough,
	},
	{
		Name:               "line-break",
		Filter:             TagFilter("br"),
		TrailingWhitespace: "\n",
		Replacement: func(string, Node, []Link) (string, error) {
			return `\`, nil
		},
	},
	{
		Name:        "table-cell",
		Filter:      TagSetFilter{"th", "td"},
		Replacement: tableCell,
	},
	{
		Name:        "table-section",
		Filter:      TagSetFilter{"thead", "tbody", "tfoot", "tr"},
		Replacement: passThrough,
	},
	{
		Name:        "strikethrough",
		Filter:      TagSetFilter{"del", "s", "strike"},
		Replacement: delimit("~~"),
	},
	{
		Name:        "emphasis",
		Filter:      TagSetFilter{"em", "i"},
		Replacement: emphasis,
	},
	{
		Name:        "strong",
		Filter:      TagSetFilter{"strong", "b"},
		Replacement: strong,
	},
	{
		Name:                  "heading",
		Filter:                TagSetFilter{"h1", "h2", "h3", "h4", "h5", "h6"},
		SurroundingBlankLines: true,
		Replacement: func(content string, n Node, _ []Link) (string, error) {
			content = closingHashes.ReplaceAllString(content, `$1\$2`)
			return strings.Repeat("#", heading.Level(n.Tag())) + " " + content, nil
		},
	},
	{
		Name:                  "horizontal-rule",
		Filter:                TagFilter("hr"),
		SurroundingBlankLines: true,
		Replacement: func(string, Node, []Link) (string, error) {
			return "---", nil
		},
	},
	{
		Name: "inline-code",
		Filter: PredicateFilter(func(tree *dom.Tree, id dom.NodeID) bool {
			return tree.Tag(id) == "code" && tree.Tag(tree.Parent(id)) != "pre"
		}),
		Replacement: inlineCode,
	},
	{
		Name:                  "fenced-code",
		Filter:                PredicateFilter(isCodeBlock),
		SurroundingBlankLines: true,
		Replacement:           fencedCode,
	},
	{
		Name:                  "preformatted",
		Filter:                TagFilter("pre"),
		SurroundingBlankLines: true,
		Replacement: func(_ string, n Node, _ []Link) (string, error) {
			return fence(strings.TrimSuffix(n.Tree.TextContent(n.ID), "\n"), ""), nil
		},
	},
	{
		Name: "link",
		Filter: PredicateFilter(func(tree *dom.Tree, id dom.NodeID) bool {
			_, ok := tree.Attr(id, "href")
			return tree.Tag(id) == "a" && ok
		}),
		Replacement: link,
	},
	{
		Name:        "image",
		Filter:      TagFilter("img"),
		Replacement: image,
	},
	{
		Name:                  "blockquote",
		Filter:                TagFilter("blockquote"),
		SurroundingBlankLines: true,
		Replacement:           blockquote,
	},
	{
		Name:               "list-item",
		Filter:             TagFilter("li"),
		TrailingWhitespace: "\n",
		Replacement:        listItem,
	},
	{
		Name: "nested-list",
		Filter: PredicateFilter(func(tree *dom.Tree, id dom.NodeID) bool {
			tag := tree.Tag(id)
			return (tag == "ul" || tag == "ol") && tree.Tag(tree.Parent(id)) == "li"
		}),
		TrailingWhitespace: "\n",
		Replacement:        passThrough,
	},
	{
		Name:                  "list",
		Filter:                TagSetFilter{"ul", "ol"},
		SurroundingBlankLines: true,
		Replacement:           passThrough,
	},
	{
		Name:                  "table",
		Filter:                TagFilter("table"),
		SurroundingBlankLines: true,
		Replacement:           formatTable,
	},
	{
		Name: "comment-block",
		Filter: PredicateFilter(func(tree *dom.Tree, id dom.NodeID) bool {
			return tree.Tag(id) == dom.CommentTag && tree.Type(tree.Parent(id)) == dom.DocumentNode
		}),
		SurroundingBlankLines: true,
		Replacement:           comment,
	},
	{
		Name:        "comment",
		Filter:      TagFilter(dom.CommentTag),
		Replacement: comment,
	},
	{
		Name: "html-block",
		Filter: PredicateFilter(func(tree *dom.Tree, id dom.NodeID) bool {
			return textutil.IsBlock(tree.Tag(id))
		}),
		SurroundingBlankLines: true,
		Replacement:           renderMarkup,
	},
	{
		Name: "fallback",
		Filter: PredicateFilter(func(*dom.Tree, dom.NodeID) bool {
			return true
		}),
		Replacement: renderMarkup,
	},
}

// allowedAttributes lists, per tag, the attributes Markdown syntax can carry.
var allowedAttributes = map[string][]string{
	"a":    {"href", "title"},
	"img":  {"src", "alt", "title"},
	"code": {"class"},
	"ol":   {"start"},
	"th":   {"style", "align"},
	"td":   {"style", "align"},
}

// closingHashes matches a trailing run of hashes that an ATX heading would
// read as its closing sequence.
var closingHashes = regexp.MustCompile(`(^|[ \t])(#+)$`)

var alignStylePattern = regexp.MustCompile(`^\s*text-align\s*:\s*(left|center|right)\s*;?\s*$`)

// hasForeignAttributes reports whether the element carries an attribute the
// Markdown form of the element would lose.
func hasForeignAttributes(tree *dom.Tree, id dom.NodeID) bool {
	tag := tree.Tag(id)
	for _, a := range tree.Attrs(id) {
		if !slices.Contains(allowedAttributes[tag], a.Key) {
			return true
		}
		switch {
		case a.Key == "style" && !alignStylePattern.MatchString(a.Val):
			return true
		case tag == "code" && tree.Tag(tree.Parent(id)) != "pre":
			return true
		}
	}
	return false
}

func isRawBlock(tree *dom.Tree, id dom.NodeID) bool {
	return textutil.IsBlock(tree.Tag(id)) && hasForeignAttributes(tree, id)
}

// isCodeBlock reports whether the element is a pre whose only element child
// is a code element.
func isCodeBlock(tree *dom.Tree, id dom.NodeID) bool {
	return tree.Tag(id) == "pre" && codeChild(tree, id) != dom.NoNode
}

func codeChild(tree *dom.Tree, pre dom.NodeID) dom.NodeID {
	code := dom.NoNode
	for _, c := range tree.Children(pre) {
		if !tree.IsElement(c) {
			continue
		}
		if code != dom.NoNode || tree.Tag(c) != "code" {
			return dom.NoNode
		}
		code = c
	}
	return code
}

func passThrough(content string, _ Node, _ []Link) (string, error) {
	return content, nil
}

// renderMarkup writes the element back as HTML.
func renderMarkup(_ string, n Node, _ []Link) (string, error) {
	return n.Tree.RenderIndented(n.ID), nil
}

func delimit(delim string) func(string, Node, []Link) (string, error) {
	return func(content string, _ Node, _ []Link) (string, error) {
		if content == "" {
			return "", nil
		}
		return delim + content + delim, nil
	}
}

func emphasis(content string, _ Node, _ []Link) (string, error) {
	if content == "" {
		return "", nil
	}
	delim := byte('_')
	if hasDelimiter(content, '_') {
		delim = '*'
	}
	d := string(delim)
	return d + escapeDelimiter(content, delim) + d, nil
}

func strong(content string, _ Node, _ []Link) (string, error) {
	if content == "" {
		return "", nil
	}
	char := byte('*')
	if hasDelimiter(content, '*') {
		char = '_'
	}
	d := strings.Repeat(string(char), 2)
	return d + escapeDelimiter(content, char) + d, nil
}

var cellBreaks = strings.NewReplacer("\\\n", "<br>", "\n", " ")

func tableCell(content string, _ Node, _ []Link) (string, error) {
	return escapeDelimiter(cellBreaks.Replace(content), '|'), nil
}

func formatTable(_ string, n Node, _ []Link) (string, error) {
	t, err := table.Extract(n.Tree, n.ID, n.Replacement)
	if err != nil {
		return "", err
	}
	return table.Format(t), nil
}

// longestRun returns the length of the longest run of c in s.
func longestRun(s string, c byte) int {
	longest, run := 0, 0
	for i := 0; i < len(s); i++ {
		if s[i] != c {
			run = 0
			continue
		}
		run++
		longest = max(longest, run)
	}
	return longest
}

func inlineCode(_ string, n Node, _ []Link) (string, error) {
	code := n.Tree.TextContent(n.ID)
	ticks := strings.Repeat("`", longestRun(code, '`')+1)
	if strings.HasPrefix(code, "`") || strings.HasSuffix(code, "`") ||
		(strings.HasPrefix(code, " ") && strings.HasSuffix(code, " ") && strings.Trim(code, " ") != "") {
		code = " " + code + " "
	}
	return ticks + code + ticks, nil
}

// fence wraps code in a backtick fence longer than any backtick run inside.
func fence(code, lang string) string {
	ticks := strings.Repeat("`", max(3, longestRun(code, '`')+1))
	return ticks + lang + "\n" + code + "\n" + ticks
}

func fencedCode(_ string, n Node, _ []Link) (string, error) {
	code := codeChild(n.Tree, n.ID)
	text := strings.TrimSuffix(n.Tree.TextContent(code), "\n")
	return fence(text, codeLanguage(n.Tree, n.ID, code)), nil
}

func link(content string, n Node, links []Link) (string, error) {
	href, _ := n.Attr("href")
	title, hasTitle := n.Attr("title")

	if l, ok := findLink(links, href, title, hasTitle); ok {
		if strings.ToLower(content) == l.Name {
			return "[" + content + "]", nil
		}
		return "[" + content + "][" + l.Name + "]", nil
	}

	if text := n.Tree.TextContent(n.ID); isAutolink(text, href, hasTitle) {
		return "<" + text + ">", nil
	}
	return "[" + content + "](" + formatDestination(href) + formatTitle(title, hasTitle) + ")", nil
}

// isAutolink reports whether a link can be written as <content>: it has no
// title, shows its own URL and the URL is absolute or an address.
func isAutolink(content, href string, hasTitle bool) bool {
	if hasTitle || (content != href && "mailto:"+content != href) {
		return false
	}
	return strings.Contains(href, "@") || strings.Contains(href, "://")
}

func image(_ string, n Node, links []Link) (string, error) {
	alt, _ := n.Attr("alt")
	alt = escapeText(textutil.CleanText(alt, false), false)
	src, _ := n.Attr("src")
	title, hasTitle := n.Attr("title")

	if l, ok := findLink(links, src, title, hasTitle); ok {
		if strings.ToLower(alt) == l.Name {
			return "![" + alt + "]", nil
		}
		return "![" + alt + "][" + l.Name + "]", nil
	}
	return "![" + alt + "](" + formatDestination(src) + formatTitle(title, hasTitle) + ")", nil
}

func blockquote(content string, _ Node, _ []Link) (string, error) {
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		if line == "" {
			lines[i] = ">"
			continue
		}
		lines[i] = "> " + line
	}
	return strings.Join(lines, "\n"), nil
}

// listItemPrefix returns "- " for unordered items and "N. " for ordered
// ones, N counting from the list's start attribute. index is the item's
// position among the li elements of its list.
func listItemPrefix(tree *dom.Tree, id dom.NodeID, index int) string {
	parent := tree.Parent(id)
	if tree.Tag(parent) != "ol" {
		return "- "
	}
	start := 1
	if v, ok := tree.Attr(parent, "start"); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			start = n
		}
	}
	return strconv.Itoa(start+index) + ". "
}

var extraBlankLines = regexp.MustCompile(`\n{3,}`)

func listItem(content string, n Node, _ []Link) (string, error) {
	prefix := listItemPrefix(n.Tree, n.ID, n.ItemIndex())
	indent := strings.Repeat(" ", len(prefix))

	lines := strings.Split(extraBlankLines.ReplaceAllString(content, "\n\n"), "\n")
	for i, line := range lines {
		switch {
		case i == 0:
			lines[i] = strings.TrimRight(prefix+line, " ")
		case line == "":
			lines[i] = ""
		default:
			lines[i] = indent + line
		}
	}
	return strings.Join(lines, "\n"), nil
}

func comment(content string, _ Node, _ []Link) (string, error) {
	return "<!-- " + content + " -->", nil
}
