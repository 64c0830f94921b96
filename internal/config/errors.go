package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and name the one setting
// that is wrong, so callers can use errors.Is() and users get a message that
// points at the flag to fix.
var (
	// ErrInvalidConcurrency is returned when the number of parallel
	// conversions is not positive.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified. Only one output format can be used at a time.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrConflictingModes is returned when --write and --check are combined.
	// Check mode never modifies files.
	ErrConflictingModes = errors.New("conflicting modes: --write and --check cannot be used together")

	// ErrWriteWithoutFiles is returned when --write is requested while reading
	// standard input, which has no file to write back to.
	ErrWriteWithoutFiles = errors.New("--write requires at least one file argument")

	// ErrInvalidPattern is returned when an override in the configuration
	// file carries a malformed glob pattern.
	ErrInvalidPattern = errors.New("invalid override pattern")
)
