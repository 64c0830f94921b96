package model

import (
	"time"

	"github.com/nao1215/mdtidy/internal/convert"
)

// StdinPath is the display name used for a document read from standard input.
const StdinPath = "<stdin>"

// Document is one conversion job: the raw Markdown going in, the normalized
// Markdown coming out, and what happened on the way.
type Document struct {
	// Path is the file the document was read from. Empty means standard input.
	Path string `json:"path"`

	// Input is the raw document.
	Input string `json:"-"`

	// Output is the normalized document. It is empty until the convert step
	// (or a cache hit) fills it in.
	Output string `json:"-"`

	// Options are the conversion options resolved for this document.
	Options convert.Options `json:"options"`

	// Changed is true when Output differs from Input.
	Changed bool `json:"changed"`

	// Cached is true when Output came from the conversion cache.
	Cached bool `json:"cached"`

	// Written is true when the file was rewritten in place.
	Written bool `json:"written"`

	// Error is the error that stopped the pipeline, if any.
	Error error `json:"-"`

	// ErrorMessage is Error as text, for JSON output.
	ErrorMessage string `json:"error,omitempty"`

	// Steps lists the pipeline steps that ran, in order.
	Steps []string `json:"steps,omitempty"`

	// Duration is the wall time spent on this document.
	Duration time.Duration `json:"duration"`
}

// NewDocument creates a Document for path with the given options.
func NewDocument(path string, opts convert.Options) *Document {
	return &Document{
		Path:    path,
		Options: opts,
		Steps:   make([]string, 0),
	}
}

// DisplayPath returns Path, or StdinPath for standard input.
func (d *Document) DisplayPath() string {
	if d.Path == "" {
		return StdinPath
	}
	return d.Path
}

// IsStdin reports whether the document comes from standard input.
func (d *Document) IsStdin() bool {
	return d.Path == ""
}

// Failed reports whether the pipeline recorded an error.
func (d *Document) Failed() bool {
	return d.Error != nil
}

// SetOutput stores the normalized document and updates Changed.
func (d *Document) SetOutput(out string) {
	d.Output = out
	d.Changed = out != d.Input
}

// SetError records err on the document.
func (d *Document) SetError(err error) {
	d.Error = err
	if err != nil {
		d.ErrorMessage = err.Error()
	}
}
