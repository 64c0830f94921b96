package model

import "time"

// Summary aggregates the results of a batch.
type Summary struct {
	// Total is the number of documents processed.
	Total int `json:"total"`

	// Changed counts documents whose output differs from their input.
	Changed int `json:"changed"`

	// Unchanged counts documents that were already tidy.
	Unchanged int `json:"unchanged"`

	// Failed counts documents whose conversion failed.
	Failed int `json:"failed"`

	// Cached counts documents served from the conversion cache.
	Cached int `json:"cached"`

	// Written counts files rewritten in place.
	Written int `json:"written"`

	// Duration is the total wall time of the batch.
	Duration time.Duration `json:"duration"`

	// Documents holds the per-document results in input order.
	Documents []*Document `json:"documents"`
}

// NewSummary aggregates docs. Nil entries (documents never started because
// the batch was cancelled) are skipped.
func NewSummary(docs []*Document, elapsed time.Duration) *Summary {
	s := &Summary{
		Duration:  elapsed,
		Documents: make([]*Document, 0, len(docs)),
	}
	for _, d := range docs {
		if d == nil {
			continue
		}
		s.Total++
		s.Documents = append(s.Documents, d)
		switch {
		case d.Failed():
			s.Failed++
			continue
		case d.Changed:
			s.Changed++
		default:
			s.Unchanged++
		}
		if d.Cached {
			s.Cached++
		}
		if d.Written {
			s.Written++
		}
	}
	return s
}

// ChangedDocuments returns the documents whose output differs from input.
func (s *Summary) ChangedDocuments() []*Document {
	var out []*Document
	for _, d := range s.Documents {
		if !d.Failed() && d.Changed {
			out = append(out, d)
		}
	}
	return out
}

// FailedDocuments returns the documents whose conversion failed.
func (s *Summary) FailedDocuments() []*Document {
	var out []*Document
	for _, d := range s.Documents {
		if d.Failed() {
			out = append(out, d)
		}
	}
	return out
}

// HasFailures reports whether any document failed.
func (s *Summary) HasFailures() bool {
	return s.Failed > 0
}
