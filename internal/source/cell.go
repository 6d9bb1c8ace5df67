package source

import (
	"strconv"
	"strings"
)

// CellKind tags the scalar held by a Cell.
type CellKind int

const (
	CellText CellKind = iota
	CellNumber
)

func (k CellKind) String() string {
	if k == CellNumber {
		return "number"
	}
	return "text"
}

// Cell is a single untyped spreadsheet value: text or number.
// Number cells keep the text the sheet printed for them, so a value shown
// as "007" or "1,5" is not reformatted by the reader.
type Cell struct {
	Kind   CellKind
	Text   string
	Number float64
}

// TextCell returns a text cell.
func TextCell(s string) Cell {
	return Cell{Kind: CellText, Text: s}
}

// NumberCell returns a numeric cell. printed may be empty, in which case the
// shortest decimal form of v is used when the cell is printed.
func NumberCell(v float64, printed string) Cell {
	return Cell{Kind: CellNumber, Number: v, Text: printed}
}

// String returns the printed form of the cell.
func (c Cell) String() string {
	if c.Kind == CellNumber && c.Text == "" {
		return strconv.FormatFloat(c.Number, 'f', -1, 64)
	}
	return c.Text
}

// IsBlank reports whether the cell prints as whitespace only.
func (c Cell) IsBlank() bool {
	return strings.TrimSpace(c.String()) == ""
}

// Row is an ordered sequence of cells. Rows of one grid may differ in
// length; a missing trailing cell is absent, not an error.
type Row []Cell

// At returns the cell at column i, or false when the row is shorter.
func (r Row) At(i int) (Cell, bool) {
	if i < 0 || i >= len(r) {
		return Cell{}, false
	}
	return r[i], true
}

// Text returns the printed text of column i, or "" when absent.
func (r Row) Text(i int) string {
	c, ok := r.At(i)
	if !ok {
		return ""
	}
	return c.String()
}

// Strings returns the printed form of every cell.
func (r Row) Strings() []string {
	out := make([]string, len(r))
	for i, c := range r {
		out[i] = c.String()
	}
	return out
}

// Blank reports whether every cell in the row is blank.
func (r Row) Blank() bool {
	for _, c := range r {
		if !c.IsBlank() {
			return false
		}
	}
	return true
}

// Grid is the content of one sheet or one delimited text body, rows in
// source order with fully blank rows removed.
type Grid []Row

// Width returns the length of the longest row.
func (g Grid) Width() int {
	w := 0
	for _, r := range g {
		if len(r) > w {
			w = len(r)
		}
	}
	return w
}

// Cells returns the total number of cells in the grid.
func (g Grid) Cells() int {
	n := 0
	for _, r := range g {
		n += len(r)
	}
	return n
}

// GridFromStrings builds a grid of text cells, dropping blank rows the same
// way the readers do.
func GridFromStrings(rows [][]string) Grid {
	g := make(Grid, 0, len(rows))
	for _, values := range rows {
		row := make(Row, len(values))
		for i, v := range values {
			row[i] = TextCell(v)
		}
		if row.Blank() {
			continue
		}
		g = append(g, row)
	}
	return g
}
