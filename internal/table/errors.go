package table

import "errors"

var (
	// ErrUnexpectedRowChild is returned when a table row holds an element
	// other than a header or data cell, or non-blank text.
	ErrUnexpectedRowChild = errors.New("unexpected child in table row")

	// ErrAlignmentMismatch is returned when two rows disagree about the
	// alignment of the same column.
	ErrAlignmentMismatch = errors.New("inconsistent column alignment")
)
