package dom

import (
	"strings"

	"github.com/nao1215/mdtidy/internal/textutil"
)

// rawTextTags are elements whose text children are written without escaping.
var rawTextTags = map[string]bool{
	"iframe":    true,
	"noembed":   true,
	"noframes":  true,
	"plaintext": true,
	"script":    true,
	"style":     true,
	"xmp":       true,
}

// newlineSensitiveTags drop a leading newline when parsed, so one is written
// back when the content starts with a newline.
var newlineSensitiveTags = map[string]bool{
	"listing":  true,
	"pre":      true,
	"textarea": true,
}

// textEscaper escapes character data. Quotes are left alone since they are
// only significant inside attribute values.
var textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// attrEscaper escapes a double-quoted attribute value.
var attrEscaper = strings.NewReplacer("&", "&amp;", `"`, "&quot;")

// Render serializes the node and its subtree back to HTML markup. Synthetic
// comment elements are written as comments again.
func (t *Tree) Render(id NodeID) string {
	var sb strings.Builder
	t.render(&sb, id)
	return sb.String()
}

// RenderIndented serializes an element like Render, except that an element
// without direct text children gets every child placed on its own line,
// indented by two spaces, with the closing tag on a line of its own.
func (t *Tree) RenderIndented(id NodeID) string {
	n := &t.nodes[id]
	if n.typ != ElementNode || n.tag == CommentTag || len(n.children) == 0 || t.hasTextChild(id) {
		return t.Render(id)
	}

	var sb strings.Builder
	t.writeStartTag(&sb, id)
	for _, c := range n.children {
		sb.WriteString("\n  ")
		t.render(&sb, c)
	}
	sb.WriteString("\n</")
	sb.WriteString(n.tag)
	sb.WriteByte('>')
	return sb.String()
}

func (t *Tree) hasTextChild(id NodeID) bool {
	for _, c := range t.nodes[id].children {
		if t.nodes[c].typ == TextNode {
			return true
		}
	}
	return false
}

func (t *Tree) render(sb *strings.Builder, id NodeID) {
	n := &t.nodes[id]
	switch n.typ {
	case DocumentNode:
		for _, c := range n.children {
			t.render(sb, c)
		}
	case TextNode:
		if p := n.parent; p != NoNode && rawTextTags[t.nodes[p].tag] {
			sb.WriteString(n.data)
			return
		}
		sb.WriteString(textEscaper.Replace(n.data))
	case CommentNode:
		writeComment(sb, n.data)
	case ElementNode:
		if n.tag == CommentTag {
			writeComment(sb, t.TextContent(id))
			return
		}
		t.writeStartTag(sb, id)
		if textutil.IsVoid(n.tag) {
			return
		}
		if newlineSensitiveTags[n.tag] && len(n.children) > 0 {
			first := &t.nodes[n.children[0]]
			if first.typ == TextNode && strings.HasPrefix(first.data, "\n") {
				sb.WriteByte('\n')
			}
		}
		for _, c := range n.children {
			t.render(sb, c)
		}
		sb.WriteString("</")
		sb.WriteString(n.tag)
		sb.WriteByte('>')
	}
}

func (t *Tree) writeStartTag(sb *strings.Builder, id NodeID) {
	n := &t.nodes[id]
	sb.WriteByte('<')
	sb.WriteString(n.tag)
	for _, a := range n.attrs {
		sb.WriteByte(' ')
		sb.WriteString(a.Key)
		sb.WriteString(`="`)
		sb.WriteString(attrEscaper.Replace(a.Val))
		sb.WriteByte('"')
	}
	sb.WriteByte('>')
}

func writeComment(sb *strings.Builder, data string) {
	sb.WriteString("<!--")
	sb.WriteString(data)
	sb.WriteString("-->")
}
