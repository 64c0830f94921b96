package dom

import (
	"slices"
	"strings"
)

// NodeType identifies the variant of a node.
type NodeType int

const (
	// DocumentNode is the root of a parsed fragment.
	DocumentNode NodeType = iota
	// ElementNode is an HTML element.
	ElementNode
	// TextNode holds character data.
	TextNode
	// CommentNode holds the data of an HTML comment.
	CommentNode
)

// String returns a human-readable name of the node type.
func (t NodeType) String() string {
	switch t {
	case DocumentNode:
		return "document"
	case ElementNode:
		return "element"
	case TextNode:
		return "text"
	case CommentNode:
		return "comment"
	default:
		return "unknown"
	}
}

// NodeID is the stable identity of a node inside a Tree.
type NodeID int

// NoNode is returned by navigation methods when there is no such node.
const NoNode NodeID = -1

// CommentTag is the tag name of the synthetic element that replaces a comment
// node when comments are converted like any other element.
const CommentTag = "_comment"

// Attribute is a single element attribute.
type Attribute struct {
	Key string
	Val string
}

// node is the arena record behind a NodeID.
type node struct {
	typ      NodeType
	tag      string
	data     string
	attrs    []Attribute
	parent   NodeID
	index    int // position in the parent's children
	children []NodeID
}

// Tree is an arena of nodes rooted at a DocumentNode.
type Tree struct {
	nodes []node
}

// NewTree creates a tree containing only the document root.
func NewTree() *Tree {
	return &Tree{
		nodes: []node{{typ: DocumentNode, parent: NoNode}},
	}
}

// Root returns the ID of the document root.
func (t *Tree) Root() NodeID {
	return 0
}

// Len returns the number of nodes ever allocated in the tree, including
// detached ones. It is the size a side table indexed by NodeID needs.
func (t *Tree) Len() int {
	return len(t.nodes)
}

// Type returns the variant of the node.
func (t *Tree) Type(id NodeID) NodeType {
	return t.nodes[id].typ
}

// IsElement reports whether the node is an element.
func (t *Tree) IsElement(id NodeID) bool {
	return t.nodes[id].typ == ElementNode
}

// IsText reports whether the node is a text node.
func (t *Tree) IsText(id NodeID) bool {
	return t.nodes[id].typ == TextNode
}

// IsComment reports whether the node is a comment node.
func (t *Tree) IsComment(id NodeID) bool {
	return t.nodes[id].typ == CommentNode
}

// IsParent reports whether the node can own children.
func (t *Tree) IsParent(id NodeID) bool {
	typ := t.nodes[id].typ
	return typ == DocumentNode || typ == ElementNode
}

// Tag returns the lower-case tag name of an element, or "" for other nodes.
func (t *Tree) Tag(id NodeID) string {
	return t.nodes[id].tag
}

// SetTag renames an element.
func (t *Tree) SetTag(id NodeID, tag string) {
	t.nodes[id].tag = strings.ToLower(tag)
}

// Data returns the character data of a text or comment node.
func (t *Tree) Data(id NodeID) string {
	return t.nodes[id].data
}

// SetData replaces the character data of a text or comment node.
func (t *Tree) SetData(id NodeID, data string) {
	t.nodes[id].data = data
}

// Attr returns the value of the named attribute and whether it is present.
func (t *Tree) Attr(id NodeID, key string) (string, bool) {
	for _, a := range t.nodes[id].attrs {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// Attrs returns a copy of the element's attributes in source order.
func (t *Tree) Attrs(id NodeID) []Attribute {
	return slices.Clone(t.nodes[id].attrs)
}

// Parent returns the parent of the node, or NoNode for the root and for
// detached nodes.
func (t *Tree) Parent(id NodeID) NodeID {
	return t.nodes[id].parent
}

// Children returns a snapshot of the node's children. Mutating the tree does
// not affect a snapshot already returned.
func (t *Tree) Children(id NodeID) []NodeID {
	return slices.Clone(t.nodes[id].children)
}

// ChildCount returns the number of children of the node.
func (t *Tree) ChildCount(id NodeID) int {
	return len(t.nodes[id].children)
}

// FirstChild returns the first child of the node or NoNode.
func (t *Tree) FirstChild(id NodeID) NodeID {
	children := t.nodes[id].children
	if len(children) == 0 {
		return NoNode
	}
	return children[0]
}

// LastChild returns the last child of the node or NoNode.
func (t *Tree) LastChild(id NodeID) NodeID {
	children := t.nodes[id].children
	if len(children) == 0 {
		return NoNode
	}
	return children[len(children)-1]
}

// PrevSibling returns the sibling before the node or NoNode.
func (t *Tree) PrevSibling(id NodeID) NodeID {
	siblings, i := t.position(id)
	if i <= 0 {
		return NoNode
	}
	return siblings[i-1]
}

// NextSibling returns the sibling after the node or NoNode.
func (t *Tree) NextSibling(id NodeID) NodeID {
	siblings, i := t.position(id)
	if i < 0 || i+1 >= len(siblings) {
		return NoNode
	}
	return siblings[i+1]
}

// position returns the parent's child list and the index of id in it.
func (t *Tree) position(id NodeID) ([]NodeID, int) {
	parent := t.nodes[id].parent
	if parent == NoNode {
		return nil, -1
	}
	return t.nodes[parent].children, t.nodes[id].index
}

// Index returns the position of the node among its siblings, or -1 for the
// root and detached nodes.
func (t *Tree) Index(id NodeID) int {
	_, i := t.position(id)
	return i
}

// reindex renumbers the children of parent from position start on.
func (t *Tree) reindex(parent NodeID, start int) {
	for i := start; i < len(t.nodes[parent].children); i++ {
		t.nodes[t.nodes[parent].children[i]].index = i
	}
}

// NewElement allocates a detached element.
func (t *Tree) NewElement(tag string, attrs ...Attribute) NodeID {
	return t.alloc(node{
		typ:   ElementNode,
		tag:   strings.ToLower(tag),
		attrs: slices.Clone(attrs),
	})
}

// NewText allocates a detached text node.
func (t *Tree) NewText(data string) NodeID {
	return t.alloc(node{typ: TextNode, data: data})
}

// NewComment allocates a detached comment node.
func (t *Tree) NewComment(data string) NodeID {
	return t.alloc(node{typ: CommentNode, data: data})
}

func (t *Tree) alloc(n node) NodeID {
	n.parent = NoNode
	t.nodes = append(t.nodes, n)
	return NodeID(len(t.nodes) - 1)
}

// AppendChild attaches child as the last child of parent. A child that is
// still attached elsewhere is detached first.
func (t *Tree) AppendChild(parent, child NodeID) {
	t.Detach(child)
	t.nodes[parent].children = append(t.nodes[parent].children, child)
	t.nodes[child].parent = parent
	t.nodes[child].index = len(t.nodes[parent].children) - 1
}

// InsertBefore attaches child to parent immediately before ref. When ref is
// NoNode the child is appended.
func (t *Tree) InsertBefore(parent, child, ref NodeID) {
	if ref == NoNode {
		t.AppendChild(parent, child)
		return
	}
	t.Detach(child)
	if t.nodes[ref].parent != parent {
		t.AppendChild(parent, child)
		return
	}
	i := t.nodes[ref].index
	t.nodes[parent].children = slices.Insert(t.nodes[parent].children, i, child)
	t.nodes[child].parent = parent
	t.reindex(parent, i)
}

// Detach removes the node from its parent. The node and its subtree stay in
// the arena and can be attached again.
func (t *Tree) Detach(id NodeID) {
	parent := t.nodes[id].parent
	if parent == NoNode {
		return
	}
	i := t.nodes[id].index
	t.nodes[parent].children = slices.Delete(t.nodes[parent].children, i, i+1)
	t.reindex(parent, i)
	t.nodes[id].parent = NoNode
	t.nodes[id].index = 0
}

// RemoveChildren detaches every child of parent for which remove returns
// true, in one pass over the child list.
func (t *Tree) RemoveChildren(parent NodeID, remove func(NodeID) bool) {
	kept := t.nodes[parent].children[:0]
	for _, c := range t.nodes[parent].children {
		if remove(c) {
			t.nodes[c].parent = NoNode
			t.nodes[c].index = 0
			continue
		}
		t.nodes[c].index = len(kept)
		kept = append(kept, c)
	}
	clear(t.nodes[parent].children[len(kept):])
	t.nodes[parent].children = kept
}

// ReplaceWith puts replacement at the position of old and detaches old.
func (t *Tree) ReplaceWith(old, replacement NodeID) {
	parent := t.nodes[old].parent
	if parent == NoNode || old == replacement {
		return
	}
	t.Detach(replacement)
	i := t.nodes[old].index
	t.nodes[parent].children[i] = replacement
	t.nodes[replacement].parent = parent
	t.nodes[replacement].index = i
	t.nodes[old].parent = NoNode
	t.nodes[old].index = 0
}

// ElementizeComment replaces a comment node with a CommentTag element that
// carries the comment data as its only text child, and returns the new
// element.
func (t *Tree) ElementizeComment(id NodeID) NodeID {
	el := t.NewElement(CommentTag)
	t.AppendChild(el, t.NewText(t.nodes[id].data))
	t.ReplaceWith(id, el)
	return el
}

// TextContent returns the concatenated text of all descendant text nodes.
func (t *Tree) TextContent(id NodeID) string {
	if t.nodes[id].typ == TextNode {
		return t.nodes[id].data
	}
	var sb strings.Builder
	t.writeText(&sb, id)
	return sb.String()
}

func (t *Tree) writeText(sb *strings.Builder, id NodeID) {
	for _, c := range t.nodes[id].children {
		switch t.nodes[c].typ {
		case TextNode:
			sb.WriteString(t.nodes[c].data)
		case ElementNode:
			t.writeText(sb, c)
		}
	}
}

// HasAncestor reports whether any ancestor of the node is an element with
// one of the given tag names.
func (t *Tree) HasAncestor(id NodeID, tags ...string) bool {
	for p := t.nodes[id].parent; p != NoNode; p = t.nodes[p].parent {
		if t.nodes[p].typ == ElementNode && slices.Contains(tags, t.nodes[p].tag) {
			return true
		}
	}
	return false
}
