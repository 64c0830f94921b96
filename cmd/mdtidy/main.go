// Package main provides the entry point for the mdtidy CLI.
//
// mdtidy normalizes Markdown documents: it parses them, rebuilds them from
// the document tree with one canonical syntax for every construct, repairs
// the heading hierarchy and keeps front matter and link definitions.
//
// Usage:
//
//	mdtidy < README.md
//	mdtidy -w docs/
//	mdtidy --check README.md docs/
//
// See --help for all available options.
package main

// main is the entry point for mdtidy.
func main() {
	Execute()
}
