package table

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/nao1215/mdtidy/internal/dom"
	"github.com/nao1215/mdtidy/internal/textutil"
)

// Alignment is the horizontal alignment of a table column.
type Alignment int

const (
	// AlignNone means the column has no explicit alignment.
	AlignNone Alignment = iota
	// AlignLeft aligns cells to the left.
	AlignLeft
	// AlignCenter centers cells.
	AlignCenter
	// AlignRight aligns cells to the right.
	AlignRight
)

// String returns the CSS keyword of the alignment, or "none".
func (a Alignment) String() string {
	switch a {
	case AlignLeft:
		return "left"
	case AlignCenter:
		return "center"
	case AlignRight:
		return "right"
	default:
		return "none"
	}
}

// minColumnWidth is the narrowest column a separator row can express.
const minColumnWidth = 3

// Table is the extracted content of a table element. Rows[0] is the header.
type Table struct {
	Alignments []Alignment
	Rows       [][]string
}

var textAlignPattern = regexp.MustCompile(`(?i)text-align\s*:\s*(left|center|right)`)

// parseAlignment reads the alignment of a cell from its style declaration,
// falling back to the legacy align attribute.
func parseAlignment(tree *dom.Tree, cell dom.NodeID) Alignment {
	value := ""
	if style, ok := tree.Attr(cell, "style"); ok {
		if m := textAlignPattern.FindStringSubmatch(style); m != nil {
			value = m[1]
		}
	}
	if value == "" {
		value, _ = tree.Attr(cell, "align")
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "left":
		return AlignLeft
	case "center":
		return AlignCenter
	case "right":
		return AlignRight
	default:
		return AlignNone
	}
}

// rowIDs returns the tr elements below tableID in breadth-first order.
// Nested tables and the inside of rows are not searched.
func rowIDs(tree *dom.Tree, tableID dom.NodeID) []dom.NodeID {
	var rows []dom.NodeID
	queue := tree.Children(tableID)
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if !tree.IsElement(id) {
			continue
		}
		switch tree.Tag(id) {
		case "tr":
			rows = append(rows, id)
		case "table":
		default:
			queue = append(queue, tree.Children(id)...)
		}
	}
	return rows
}

// Extract collects the rows and column alignments of the table rooted at
// tableID. cellText supplies the already converted text of a cell.
func Extract(tree *dom.Tree, tableID dom.NodeID, cellText func(dom.NodeID) string) (*Table, error) {
	t := &Table{}
	headerWidth := 0

	for i, row := range rowIDs(tree, tableID) {
		var cells []string
		for _, child := range tree.Children(row) {
			switch {
			case tree.IsText(child):
				if !textutil.IsBlank(tree.Data(child)) {
					return nil, fmt.Errorf("%w: text %q", ErrUnexpectedRowChild, tree.Data(child))
				}
				continue
			case tree.IsElement(child) && tree.Tag(child) == dom.CommentTag:
				continue
			case !tree.IsElement(child) || (tree.Tag(child) != "th" && tree.Tag(child) != "td"):
				return nil, fmt.Errorf("%w: <%s>", ErrUnexpectedRowChild, tree.Tag(child))
			}

			col := len(cells)
			align := parseAlignment(tree, child)
			switch {
			case i == 0 || col >= len(t.Alignments):
				t.Alignments = append(t.Alignments, align)
			case t.Alignments[col] != align:
				return nil, fmt.Errorf("%w: column %d is %s in the first row but %s in row %d",
					ErrAlignmentMismatch, col+1, t.Alignments[col], align, i+1)
			}
			cells = append(cells, cellText(child))
		}
		if i == 0 {
			headerWidth = len(cells)
		}
		t.Rows = append(t.Rows, cells)
	}

	for len(t.Alignments) > headerWidth && t.Alignments[len(t.Alignments)-1] == AlignNone {
		t.Alignments = t.Alignments[:len(t.Alignments)-1]
	}
	return t, nil
}

// ColumnWidths returns the widest display width of every column, never less
// than three so the separator row stays valid.
func ColumnWidths(rows [][]string) []int {
	var widths []int
	for _, row := range rows {
		for i, cell := range row {
			if i >= len(widths) {
				widths = append(widths, minColumnWidth)
			}
			widths[i] = max(widths[i], textutil.Width(cell))
		}
	}
	return widths
}

// FormatRow pads every cell to its column width and joins the cells with
// " | ". A single-column row starts with "| " so it still reads as a table.
// Trailing padding is trimmed.
func FormatRow(row []string, alignments []Alignment, widths []int) string {
	cells := make([]string, len(widths))
	for i, width := range widths {
		cell := ""
		if i < len(row) {
			cell = row[i]
		}
		cells[i] = pad(cell, alignmentAt(alignments, i), width)
	}
	return strings.TrimRight(join(cells), " ")
}

// FormatHeaderSeparator returns the delimiter row between header and body.
func FormatHeaderSeparator(alignments []Alignment, widths []int) string {
	cells := make([]string, len(widths))
	for i, width := range widths {
		switch alignmentAt(alignments, i) {
		case AlignLeft:
			cells[i] = ":" + strings.Repeat("-", width-1)
		case AlignCenter:
			cells[i] = ":" + strings.Repeat("-", width-2) + ":"
		case AlignRight:
			cells[i] = strings.Repeat("-", width-1) + ":"
		default:
			cells[i] = strings.Repeat("-", width)
		}
	}
	return join(cells)
}

// Format lays out the whole table: header, separator and body rows joined by
// newlines, without a trailing newline. An empty table formats to "".
func Format(t *Table) string {
	if len(t.Rows) == 0 {
		return ""
	}
	widths := ColumnWidths(t.Rows)
	lines := make([]string, 0, len(t.Rows)+1)
	lines = append(lines, FormatRow(t.Rows[0], t.Alignments, widths))
	lines = append(lines, FormatHeaderSeparator(t.Alignments, widths))
	for _, row := range t.Rows[1:] {
		lines = append(lines, FormatRow(row, t.Alignments, widths))
	}
	return strings.Join(lines, "\n")
}

func alignmentAt(alignments []Alignment, i int) Alignment {
	if i < len(alignments) {
		return alignments[i]
	}
	return AlignNone
}

func join(cells []string) string {
	if len(cells) == 1 {
		return "| " + cells[0]
	}
	return strings.Join(cells, " | ")
}

func pad(cell string, align Alignment, width int) string {
	n := max(width-textutil.Width(cell), 0)
	switch align {
	case AlignRight:
		return strings.Repeat(" ", n) + cell
	case AlignCenter:
		left := n / 2
		return strings.Repeat(" ", left) + cell + strings.Repeat(" ", n-left)
	default:
		return cell + strings.Repeat(" ", n)
	}
}
