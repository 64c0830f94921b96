// Package log provides the application's structured logger, built on top of
// the standard slog package.
//
// The ExcerptHandler wraps any slog.Handler and keeps every record on one
// line: long string attributes (document excerpts, rendered HTML) are cut to
// a fixed number of runes and line breaks are escaped. Converting a large
// document in verbose mode therefore never floods the terminal with its body.
//
// # Usage
//
//	logger := log.NewLogger(os.Stderr, verbose)
//	logger.Debug("rendered markdown", "html", html) // html is shortened
//	slog.SetDefault(logger)
package log
