// Package mdparse renders Markdown to HTML with goldmark and exposes the link
// reference definitions the document declares.
//
// Raw HTML in the source is passed through untouched so the converter can
// keep constructs Markdown has no syntax for.
package mdparse

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

// Reference is a link reference definition as written in the source:
// [Label]: Destination "Title". Title is nil when the definition has none.
type Reference struct {
	Label       string
	Destination []byte
	Title       []byte
}

// Result is the outcome of rendering one document.
type Result struct {
	// HTML is the rendered body.
	HTML string
	// References holds every link reference definition, in no particular
	// order.
	References []Reference
}

// newMarkdown builds the goldmark instance. Tables render their alignment
// as a text-align style so cells carry one attribute the converter knows.
func newMarkdown() goldmark.Markdown {
	return goldmark.New(
		goldmark.WithExtensions(
			extension.NewTable(
				extension.WithTableCellAlignMethod(extension.TableCellAlignStyle),
			),
			extension.Strikethrough,
		),
		goldmark.WithRendererOptions(
			html.WithUnsafe(),
		),
	)
}

// Parse renders source to HTML and collects its link references.
func Parse(source []byte) (*Result, error) {
	pc := parser.NewContext()
	var buf bytes.Buffer
	if err := newMarkdown().Convert(source, &buf, parser.WithContext(pc)); err != nil {
		return nil, fmt.Errorf("rendering markdown: %w", err)
	}

	refs := pc.References()
	result := &Result{
		HTML:       buf.String(),
		References: make([]Reference, 0, len(refs)),
	}
	for _, r := range refs {
		result.References = append(result.References, Reference{
			Label:       string(r.Label()),
			Destination: r.Destination(),
			Title:       r.Title(),
		})
	}
	return result, nil
}
