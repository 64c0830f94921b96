// Package convert turns Markdown into canonical Markdown by rendering it to
// HTML and converting the resulting tree back with a fixed, ordered table of
// rules.
//
// # Pipeline
//
// A conversion splits off YAML front matter, renders the body with goldmark,
// parses the HTML into a dom.Tree, strips structural whitespace, repairs the
// heading hierarchy and then converts the tree bottom-up:
//
//  1. Elements are linearized breadth-first. Comments become synthetic
//     "_comment" elements on the way.
//  2. The linearized order is walked in reverse, so every element is
//     converted after all of its descendants.
//  3. Converting an element assembles the text of its children, passes the
//     trimmed result to the first matching Rule and records the replacement
//     together with the whitespace the element wants around it.
//
// Per-element results live in a side table indexed by dom.NodeID and are
// written exactly once. The rule table, the tag sets in textutil and
// LanguageAliases are read-only, so independent conversions may run
// concurrently.
//
// # Errors
//
// A conversion either returns a complete document or an error; partial
// output is never returned. Malformed front matter is not an error: the
// whole input is then treated as body.
package convert
