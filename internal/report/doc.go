// Package report writes the summary of a run.
//
// This package contains writers for different output formats:
//   - SimpleWriter: Human-readable text output for terminal display
//   - JSONWriter: Structured JSON output for tool integration
//   - MarkdownWriter: A Markdown document for CI job summaries
//
// Writers implement the Writer interface, allowing them to be used
// interchangeably.
package report
