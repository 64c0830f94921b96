// Package heading repairs the level hierarchy of a document's top-level
// headings.
//
// A document may only deepen one level at a time and may never climb above
// its first heading. Violations are fixed by shifting the offending heading
// together with the run of deeper headings that follows it, so that the
// relation between neighbouring headings the author wrote is preserved.
package heading

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/nao1215/mdtidy/internal/dom"
)

// Level returns the depth of an h1-h6 tag name, or 0 for any other tag.
func Level(tag string) int {
	if len(tag) != 2 || tag[0] != 'h' || tag[1] < '1' || tag[1] > '6' {
		return 0
	}
	return int(tag[1] - '0')
}

// Tag returns the tag name of a heading of the given depth.
func Tag(level int) string {
	return "h" + strconv.Itoa(level)
}

// Normalize returns levels with every jump repaired. When
// forceFirstToLevelOne is set the first heading becomes level 1, shifted
// together with the run of headings that follows it; otherwise its own level
// is the root depth nothing may climb above.
//
// Scanning left to right, a heading deeper than the previous accepted level
// plus one is shifted up by the excess, and one shallower than the root is
// shifted down to it. The shift covers the offending heading and the
// following run of headings at least as deep as it originally was. The
// shifted heading is examined again before the scan moves on.
func Normalize(levels []int, forceFirstToLevelOne bool) []int {
	out := slices.Clone(levels)
	if len(out) == 0 {
		return out
	}
	if forceFirstToLevelOne {
		shiftRun(out, 0, 1-out[0])
	}

	root := out[0]
	prev := root
	for i := 1; i < len(out); {
		switch d := out[i]; {
		case d > prev+1:
			shiftRun(out, i, prev+1-d)
		case d < root:
			shiftRun(out, i, root-d)
		default:
			prev = d
			i++
		}
	}
	return out
}

// shiftRun adds delta to out[start] and to every following entry that is at
// least as deep as out[start] was before the shift.
func shiftRun(out []int, start, delta int) {
	orig := out[start]
	out[start] += delta
	for j := start + 1; j < len(out) && out[j] >= orig; j++ {
		out[j] += delta
	}
}

// TopLevel returns the heading elements that are direct children of root, in
// document order.
func TopLevel(tree *dom.Tree, root dom.NodeID) []dom.NodeID {
	var ids []dom.NodeID
	for _, id := range tree.Children(root) {
		if tree.IsElement(id) && Level(tree.Tag(id)) > 0 {
			ids = append(ids, id)
		}
	}
	return ids
}

// Fix normalizes the given heading elements and rewrites their tag names in
// place. Every id must be an h1-h6 element.
func Fix(tree *dom.Tree, headings []dom.NodeID, forceFirstToLevelOne bool) error {
	levels := make([]int, len(headings))
	for i, id := range headings {
		levels[i] = Level(tree.Tag(id))
		if levels[i] == 0 {
			return fmt.Errorf("node %d is not a heading: <%s>", id, tree.Tag(id))
		}
	}

	for i, level := range Normalize(levels, forceFirstToLevelOne) {
		if level != levels[i] {
			tree.SetTag(headings[i], Tag(level))
		}
	}
	return nil
}
