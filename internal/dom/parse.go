package dom

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Parse parses an HTML fragment in <body> context and copies the result into
// a new arena tree. Doctype nodes are dropped; element and attribute names
// are lower-cased by the HTML parser.
func Parse(r io.Reader) (*Tree, error) {
	body := &html.Node{
		Type:     html.ElementNode,
		Data:     "body",
		DataAtom: atom.Body,
	}

	nodes, err := html.ParseFragment(r, body)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML fragment: %w", err)
	}

	t := NewTree()
	for _, n := range nodes {
		t.copyNode(t.Root(), n)
	}
	return t, nil
}

// ParseString is a convenience wrapper around Parse.
func ParseString(s string) (*Tree, error) {
	return Parse(strings.NewReader(s))
}

// copyNode appends a copy of the html.Node subtree under parent.
func (t *Tree) copyNode(parent NodeID, n *html.Node) {
	var id NodeID
	switch n.Type {
	case html.ElementNode:
		attrs := make([]Attribute, 0, len(n.Attr))
		for _, a := range n.Attr {
			attrs = append(attrs, Attribute{Key: a.Key, Val: a.Val})
		}
		id = t.NewElement(n.Data, attrs...)
	case html.TextNode:
		id = t.NewText(n.Data)
	case html.CommentNode:
		id = t.NewComment(n.Data)
	default:
		// Doctype and nested document nodes carry nothing to convert.
		return
	}
	t.AppendChild(parent, id)

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		t.copyNode(id, c)
	}
}
