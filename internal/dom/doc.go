// Package dom provides the document tree mdtidy converts to Markdown.
//
// The tree is an arena: every node lives in a single slice owned by Tree and
// is addressed by a NodeID. Parents own an ordered list of child IDs; parent
// and sibling navigation are lookups, never owning references. This keeps the
// tree free of pointer cycles and gives every node a stable identity that the
// conversion engine can key its side tables on.
//
// Node variants form a tagged union selected by NodeType:
//
//   - DocumentNode: the fragment root
//   - ElementNode: a tag name plus ordered attributes
//   - TextNode: character data (entities already decoded)
//   - CommentNode: comment data
//
// # Usage
//
//	tree, err := dom.Parse(strings.NewReader("<p>Hello <em>world</em></p>"))
//	for _, id := range tree.Children(tree.Root()) {
//	    fmt.Println(tree.Tag(id))
//	}
package dom
