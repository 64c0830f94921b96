package log

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"unicode/utf8"
)

// DefaultExcerptRunes is the number of runes kept from a long string
// attribute.
const DefaultExcerptRunes = 120

// lineBreaks escapes line breaks so a record stays on one line.
var lineBreaks = strings.NewReplacer("\r", `\r`, "\n", `\n`)

// ExcerptHandler wraps an slog.Handler and shortens string attribute values
// before passing records on.
//
// Shortened values keep their first runes and end with a marker naming how
// many bytes were dropped, so the full length stays visible in the log.
type ExcerptHandler struct {
	handler  slog.Handler
	maxRunes int
}

// NewExcerptHandler creates an ExcerptHandler wrapping handler. A maxRunes of
// zero or less selects DefaultExcerptRunes. If handler is nil,
// slog.Default().Handler() is used.
func NewExcerptHandler(handler slog.Handler, maxRunes int) *ExcerptHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	if maxRunes <= 0 {
		maxRunes = DefaultExcerptRunes
	}
	return &ExcerptHandler{handler: handler, maxRunes: maxRunes}
}

// Enabled reports whether the underlying handler handles the level.
func (h *ExcerptHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle shortens the record's attributes and passes it on.
func (h *ExcerptHandler) Handle(ctx context.Context, r slog.Record) error {
	shortened := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		shortened.AddAttrs(h.shorten(a))
		return true
	})
	return h.handler.Handle(ctx, shortened)
}

// WithAttrs returns a handler with the shortened attributes added.
func (h *ExcerptHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	shortened := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		shortened[i] = h.shorten(a)
	}
	return &ExcerptHandler{handler: h.handler.WithAttrs(shortened), maxRunes: h.maxRunes}
}

// WithGroup returns a handler with the given group name.
func (h *ExcerptHandler) WithGroup(name string) slog.Handler {
	return &ExcerptHandler{handler: h.handler.WithGroup(name), maxRunes: h.maxRunes}
}

func (h *ExcerptHandler) shorten(a slog.Attr) slog.Attr {
	a.Value = a.Value.Resolve()
	switch a.Value.Kind() {
	case slog.KindGroup:
		attrs := a.Value.Group()
		shortened := make([]slog.Attr, len(attrs))
		for i, ga := range attrs {
			shortened[i] = h.shorten(ga)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(shortened...)}
	case slog.KindString:
		return slog.String(a.Key, Excerpt(a.Value.String(), h.maxRunes))
	default:
		return a
	}
}

// Excerpt returns s with line breaks escaped, cut to maxRunes runes. A cut
// value ends with "…(+N bytes)".
func Excerpt(s string, maxRunes int) string {
	if utf8.RuneCountInString(s) <= maxRunes {
		return lineBreaks.Replace(s)
	}
	cut := 0
	for range maxRunes {
		_, size := utf8.DecodeRuneInString(s[cut:])
		cut += size
	}
	return lineBreaks.Replace(s[:cut]) + "…(+" + strconv.Itoa(len(s)-cut) + " bytes)"
}

func level(verbose bool) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	return slog.LevelWarn
}

// NewLogger creates a text logger writing to w. When verbose is set the
// level is Debug, otherwise Warn.
func NewLogger(w io.Writer, verbose bool) *slog.Logger {
	h := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level(verbose)})
	return slog.New(NewExcerptHandler(h, DefaultExcerptRunes))
}

// NewJSONLogger is like NewLogger but writes JSON records, for log
// aggregation.
func NewJSONLogger(w io.Writer, verbose bool) *slog.Logger {
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level(verbose)})
	return slog.New(NewExcerptHandler(h, DefaultExcerptRunes))
}
