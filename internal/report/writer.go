package report

import (
	"io"

	"github.com/nao1215/mdtidy/internal/model"
)

// Writer defines the interface for report output.
type Writer interface {
	// Write outputs the summary to the configured destination.
	// Returns the number of bytes written and any error encountered.
	Write(summary *model.Summary) (int, error)
}

// MultiWriter writes to multiple Writers in turn.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the summary to all configured Writers.
// Stops on first error encountered.
func (m *MultiWriter) Write(summary *model.Summary) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(summary)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// status returns the one-word outcome of a document.
func status(d *model.Document) string {
	switch {
	case d.Failed():
		return "failed"
	case d.Written:
		return "written"
	case d.Changed:
		return "changed"
	default:
		return "unchanged"
	}
}
