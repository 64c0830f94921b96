// Package table lays out HTML tables as pipe-delimited Markdown tables.
//
// Extraction walks a table subtree breadth-first for rows, reads each
// column's alignment from the first row and checks every later row against
// it. Layout pads each cell to its column's display width, so East Asian
// wide characters line up in a monospace editor.
package table
