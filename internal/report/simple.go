package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/mdtidy/internal/model"
)

// SimpleWriter outputs a plain text summary for the terminal.
type SimpleWriter struct {
	baseWriter

	// verbose lists every document, not only changed and failed ones.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose lists unchanged documents too.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the summary.
func (w *SimpleWriter) Write(summary *model.Summary) (int, error) {
	var sb strings.Builder

	for _, d := range summary.Documents {
		switch {
		case d.Failed():
			fmt.Fprintf(&sb, "%-9s %s: %s\n", status(d), d.DisplayPath(), d.ErrorMessage)
		case d.Changed || w.verbose:
			fmt.Fprintf(&sb, "%-9s %s\n", status(d), d.DisplayPath())
		}
	}

	fmt.Fprintf(&sb, "%d file(s): %d changed, %d unchanged, %d failed",
		summary.Total, summary.Changed, summary.Unchanged, summary.Failed)
	if summary.Cached > 0 {
		fmt.Fprintf(&sb, " (%d from cache)", summary.Cached)
	}
	sb.WriteString("\n")

	return io.WriteString(w.output, sb.String())
}
