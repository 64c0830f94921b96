package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/mdtidy/internal/model"
)

// MarkdownWriter outputs the summary as a Markdown document, suitable for a
// CI job summary or a pull request comment.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs the summary in Markdown format.
func (w *MarkdownWriter) Write(summary *model.Summary) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("mdtidy Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Result", "Files"},
		Rows: [][]string{
			{"Changed", strconv.Itoa(summary.Changed)},
			{"Unchanged", strconv.Itoa(summary.Unchanged)},
			{"Failed", strconv.Itoa(summary.Failed)},
			{"From cache", strconv.Itoa(summary.Cached)},
			{"**Total**", "**" + strconv.Itoa(summary.Total) + "**"},
		},
	})
	md.PlainText("")

	if summary.Total > 0 {
		w.writePieChart(md, summary)
	}
	w.writeAlert(md, summary)
	w.writeDocuments(md, summary)

	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [mdtidy](https://github.com/nao1215/mdtidy)*")

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, summary *model.Summary) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Files by result"),
		piechart.WithShowData(true),
	)
	if summary.Changed > 0 {
		chart.LabelAndIntValue("Changed", uint64(summary.Changed))
	}
	if summary.Unchanged > 0 {
		chart.LabelAndIntValue("Unchanged", uint64(summary.Unchanged))
	}
	if summary.Failed > 0 {
		chart.LabelAndIntValue("Failed", uint64(summary.Failed))
	}

	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, summary *model.Summary) {
	switch {
	case summary.Failed > 0:
		md.Cautionf("%d file(s) could not be converted.", summary.Failed)
	case summary.Changed > 0:
		md.Warningf("%d file(s) are not tidy.", summary.Changed)
	default:
		md.Tip("All files are tidy.")
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writeDocuments(md *markdown.Markdown, summary *model.Summary) {
	rows := make([][]string, 0, len(summary.Documents))
	for _, d := range summary.Documents {
		if !d.Failed() && !d.Changed {
			continue
		}
		detail := d.ErrorMessage
		if detail == "" {
			detail = "-"
		}
		rows = append(rows, []string{"`" + d.DisplayPath() + "`", status(d), detail})
	}
	if len(rows) == 0 {
		return
	}

	md.H2("Files")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"File", "Result", "Error"},
		Rows:   rows,
	})
	md.PlainText("")
}
