package pipeline

import "errors"

var (
	// ErrNoInput is returned by ReadStep for a standard input document when
	// no reader was configured.
	ErrNoInput = errors.New("no input reader for standard input")

	// ErrWriteStdin is returned by WriteStep for a document read from
	// standard input, which has no file to rewrite.
	ErrWriteStdin = errors.New("cannot write standard input in place")
)
