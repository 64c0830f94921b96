package report

import (
	"encoding/json"
	"io"

	"github.com/nao1215/mdtidy/internal/model"
)

// JSONWriter outputs the summary as JSON.
type JSONWriter struct {
	baseWriter

	// version is recorded in the output when non-empty.
	version string

	indent       bool
	indentPrefix string
	indentString string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithPrettyPrint enables indented JSON.
func WithPrettyPrint() JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = ""
		w.indentString = "  "
	}
}

// WithVersion records the mdtidy version in the output.
func WithVersion(version string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.version = version
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// JSONReport wraps the summary with output-only metadata.
type JSONReport struct {
	Version string         `json:"version,omitempty"`
	Summary *model.Summary `json:"summary"`
}

// Write outputs the summary in JSON format followed by a newline.
func (w *JSONWriter) Write(summary *model.Summary) (int, error) {
	v := JSONReport{Version: w.version, Summary: summary}

	var data []byte
	var err error
	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return 0, err
	}
	data = append(data, '\n')
	return w.output.Write(data)
}
