package convert

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/nao1215/mdtidy/internal/dom"
	"github.com/nao1215/mdtidy/internal/textutil"
)

// whitespace is the HTML whitespace set.
const whitespace = " \t\n\r\f"

// stripWhitespace removes blank text nodes that only separate block
// elements or pad the start or end of their parent. Preformatted elements
// are left alone.
func stripWhitespace(tree *dom.Tree) {
	queue := []dom.NodeID{tree.Root()}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]

		children := tree.Children(id)
		blank := make(map[dom.NodeID]bool)
		for i, c := range children {
			if tree.IsElement(c) {
				if tag := tree.Tag(c); tag != "pre" && tag != "code" {
					queue = append(queue, c)
				}
				continue
			}
			if !tree.IsText(c) || !textutil.IsBlank(tree.Data(c)) {
				continue
			}
			if i == 0 || i == len(children)-1 ||
				isBlockElement(tree, children[i-1]) || isBlockElement(tree, children[i+1]) {
				blank[c] = true
			}
		}
		if len(blank) > 0 {
			tree.RemoveChildren(id, func(c dom.NodeID) bool { return blank[c] })
		}
	}
}

func isBlockElement(tree *dom.Tree, id dom.NodeID) bool {
	return tree.IsElement(id) && textutil.IsBlock(tree.Tag(id))
}

func (e *engine) isBreak(id dom.NodeID) bool {
	return e.tree.IsElement(id) && e.tree.Tag(id) == "br"
}

// assemble concatenates the text of id's children: cleaned and escaped
// character data for text nodes, the recorded replacement for elements.
// Between two siblings it inserts the whitespace they ask for. The result is
// not trimmed.
func (e *engine) assemble(id dom.NodeID) (string, error) {
	var out []byte
	prev := dom.NoNode
	verbatim := e.isVerbatim(id)

	for _, c := range e.tree.Children(id) {
		var text string
		switch {
		case e.tree.IsText(c):
			text = textutil.CleanText(e.tree.Data(c), verbatim)
			if !verbatim {
				text = escapeText(text, e.startsLine(c))
			}
		case e.tree.IsElement(c):
			if e.annotations[c].rule == nil {
				return "", fmt.Errorf("%w: <%s>", errNotConverted, e.tree.Tag(c))
			}
			text = e.annotations[c].replacement
		default:
			return "", fmt.Errorf("%w: %s node inside <%s>", ErrUnsupportedNode, e.tree.Type(c), e.tree.Tag(id))
		}

		if e.isBreak(c) {
			out = bytes.TrimRight(out, " \t")
		}
		if prev != dom.NoNode {
			sep := e.separator(prev, c)
			if strings.Contains(sep, "\n") {
				out = bytes.TrimRight(out, " \t")
				if e.tree.IsText(c) {
					text = strings.TrimLeft(text, " \t")
				}
			}
			if e.isBreak(prev) && e.tree.IsText(c) {
				text = strings.TrimLeft(text, whitespace)
			}
			out = append(out, sep...)
		}
		out = append(out, text...)
		prev = c
	}
	return string(out), nil
}

// isVerbatim reports whether text below id is copied without cleaning or
// escaping: it sits in preformatted text, code or a comment.
func (e *engine) isVerbatim(id dom.NodeID) bool {
	switch e.tree.Tag(id) {
	case "pre", "code", dom.CommentTag:
		return true
	}
	return e.tree.HasAncestor(id, "pre", "code", dom.CommentTag)
}

// startsLine reports whether a text node may begin a line of output: it is
// the first child of its parent or follows a line break or a block element.
func (e *engine) startsLine(id dom.NodeID) bool {
	prev := e.tree.PrevSibling(id)
	return prev == dom.NoNode || e.isBreak(prev) || isBlockElement(e.tree, prev)
}

// separator returns the whitespace between two adjacent siblings: the
// trailing whitespace of the first plus the leading whitespace of the
// second. A block element always sits on a line of its own.
func (e *engine) separator(prev, next dom.NodeID) string {
	var sep string
	if e.tree.IsElement(prev) {
		sep += e.annotations[prev].trailing
	}
	if e.tree.IsElement(next) {
		sep += e.annotations[next].leading
	}

	newlines := strings.Count(sep, "\n")
	if newlines == 0 && (isBlockElement(e.tree, prev) || isBlockElement(e.tree, next)) {
		newlines = 1
	}
	if newlines > 0 {
		return strings.Repeat("\n", min(newlines, 2))
	}
	return sep
}

// flankingWhitespace computes the whitespace an element asks for around its
// replacement. content is the element's assembled, untrimmed content.
func (e *engine) flankingWhitespace(id dom.NodeID, rule *Rule, content string) (leading, trailing string) {
	tag := e.tree.Tag(id)

	switch {
	case rule.SurroundingBlankLines:
		leading, trailing = "\n\n", "\n\n"
	case !textutil.IsBlock(tag):
		blank := strings.Trim(content, whitespace) == ""
		if startsWithSpace(content) && !e.flankedLeft(id) {
			leading = " "
		}
		if endsWithSpace(content) && !blank && !e.flankedRight(id) {
			trailing = " "
		}
	}
	trailing += rule.TrailingWhitespace

	if first := e.tree.FirstChild(id); first != dom.NoNode && e.tree.IsElement(first) {
		leading = stronger(leading, e.annotations[first].leading)
	}
	if last := e.tree.LastChild(id); last != dom.NoNode && e.tree.IsElement(last) {
		trailing = stronger(trailing, e.annotations[last].trailing)
	}

	if tag == "li" {
		leading = ""
	}
	return leading, trailing
}

// flankedLeft reports whether the previous inline sibling already ends with
// whitespace. The sibling is not converted yet, so its raw text is used.
func (e *engine) flankedLeft(id dom.NodeID) bool {
	prev := e.tree.PrevSibling(id)
	switch {
	case prev == dom.NoNode:
		return false
	case e.tree.IsText(prev):
		return endsWithSpace(e.tree.Data(prev))
	case e.tree.IsElement(prev) && !textutil.IsBlock(e.tree.Tag(prev)):
		return endsWithSpace(e.tree.TextContent(prev))
	}
	return false
}

// flankedRight reports whether the next inline sibling already supplies
// whitespace. That sibling is converted before id, so its own leading
// whitespace decision is consulted.
func (e *engine) flankedRight(id dom.NodeID) bool {
	next := e.tree.NextSibling(id)
	switch {
	case next == dom.NoNode:
		return false
	case e.tree.IsText(next):
		return startsWithSpace(e.tree.Data(next))
	case e.tree.IsElement(next) && !textutil.IsBlock(e.tree.Tag(next)):
		return e.annotations[next].leading != ""
	}
	return false
}

func startsWithSpace(s string) bool {
	return s != "" && strings.ContainsRune(whitespace, rune(s[0]))
}

func endsWithSpace(s string) bool {
	return s != "" && strings.ContainsRune(whitespace, rune(s[len(s)-1]))
}

// stronger returns the more significant of two whitespace markers: the one
// with more newlines, then the longer one.
func stronger(a, b string) string {
	na, nb := strings.Count(a, "\n"), strings.Count(b, "\n")
	switch {
	case na != nb:
		if na > nb {
			return a
		}
		return b
	case len(b) > len(a):
		return b
	default:
		return a
	}
}
