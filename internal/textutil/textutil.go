// Package textutil provides character-level helpers shared by the converter:
// whitespace collapsing, typographic punctuation normalization, entity
// decoding, display width and element classification.
//
// All lookup tables in this package are read-only after initialization and
// safe for concurrent use.
package textutil

import (
	"regexp"
	"strings"

	"github.com/mattn/go-runewidth"
	"golang.org/x/net/html"
	"golang.org/x/text/unicode/norm"
)

// BlockTags are elements that always start on their own line.
var BlockTags = map[string]bool{
	"address":    true,
	"article":    true,
	"aside":      true,
	"audio":      true,
	"blockquote": true,
	"body":       true,
	"canvas":     true,
	"center":     true,
	"dd":         true,
	"details":    true,
	"dir":        true,
	"div":        true,
	"dl":         true,
	"dt":         true,
	"fieldset":   true,
	"figcaption": true,
	"figure":     true,
	"footer":     true,
	"form":       true,
	"frameset":   true,
	"h1":         true,
	"h2":         true,
	"h3":         true,
	"h4":         true,
	"h5":         true,
	"h6":         true,
	"header":     true,
	"hgroup":     true,
	"hr":         true,
	"html":       true,
	"isindex":    true,
	"li":         true,
	"main":       true,
	"menu":       true,
	"nav":        true,
	"noframes":   true,
	"noscript":   true,
	"ol":         true,
	"output":     true,
	"p":          true,
	"pre":        true,
	"section":    true,
	"summary":    true,
	"table":      true,
	"tbody":      true,
	"td":         true,
	"tfoot":      true,
	"th":         true,
	"thead":      true,
	"tr":         true,
	"ul":         true,
	"video":      true,
}

// VoidTags are elements that never have content or an end tag.
var VoidTags = map[string]bool{
	"area":    true,
	"base":    true,
	"br":      true,
	"col":     true,
	"command": true,
	"embed":   true,
	"hr":      true,
	"img":     true,
	"input":   true,
	"keygen":  true,
	"link":    true,
	"meta":    true,
	"param":   true,
	"source":  true,
	"track":   true,
	"wbr":     true,
}

// IsBlock reports whether tag names a block-level element.
func IsBlock(tag string) bool {
	return BlockTags[tag]
}

// IsVoid reports whether tag names a void element.
func IsVoid(tag string) bool {
	return VoidTags[tag]
}

var whitespaceRun = regexp.MustCompile(`[ \t\n\r\f]+`)

// CollapseWhitespace replaces every run of HTML whitespace with one space.
func CollapseWhitespace(s string) string {
	return whitespaceRun.ReplaceAllString(s, " ")
}

// IsBlank reports whether s consists only of HTML whitespace.
func IsBlank(s string) bool {
	return strings.Trim(s, " \t\n\r\f") == ""
}

var punctuation = strings.NewReplacer(
	"‘", "'", // left single quote
	"’", "'", // right single quote
	"‚", "'", // single low-9 quote
	"‛", "'", // single high-reversed-9 quote
	"“", `"`, // left double quote
	"”", `"`, // right double quote
	"„", `"`, // double low-9 quote
	"‟", `"`, // double high-reversed-9 quote
	"–", "--", // en dash
	"—", "---", // em dash
	"…", "...", // ellipsis
)

// NormalizePunctuation rewrites typographic quotes, dashes and ellipses to
// their plain ASCII spellings.
func NormalizePunctuation(s string) string {
	return punctuation.Replace(s)
}

// DecodeEntities decodes HTML character references such as "&amp;" and
// "&#8212;".
func DecodeEntities(s string) string {
	return html.UnescapeString(s)
}

// Width returns the display width of s in terminal columns; East Asian wide
// characters count as two.
func Width(s string) int {
	return runewidth.StringWidth(s)
}

// CleanText prepares the data of a text node for Markdown output. Text in
// preformatted context is returned untouched; everything else is NFC
// normalized, stripped of typographic punctuation and whitespace-collapsed.
func CleanText(s string, preformatted bool) string {
	if preformatted {
		return s
	}
	s = norm.NFC.String(s)
	s = NormalizePunctuation(s)
	return CollapseWhitespace(s)
}
