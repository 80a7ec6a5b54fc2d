// Package view holds the tabular dataset produced by a ledger export. The
// column order and names are the compatibility contract consumers of exported
// files depend on; sinks must write columns exactly as given here.
package view

import (
	"strconv"
	"strings"
)

type Table struct {
	columns []string
	rows    []*Row
}

func NewTable(columns ...string) *Table {
	return &Table{columns: columns}
}

func (x *Table) Columns() []string {
	return x.columns
}

func (x *Table) Rows() []*Row {
	return x.rows
}

func (x *Table) AddRow() *Row {
	row := &Row{}
	x.rows = append(x.rows, row)
	return row
}

type Row struct {
	cells []Cell
}

func (x *Row) AddText(s string) {
	x.cells = append(x.cells, Cell{Text: s})
}

func (x *Row) AddNumber(v float64) {
	x.cells = append(x.cells, Cell{Number: v, Numeric: true})
}

func (x *Row) Cells() []Cell {
	return x.cells
}

// Cell is either a numeric or a text cell. Numeric cells must reach sinks as
// numbers, not strings.
type Cell struct {
	Text    string
	Number  float64
	Numeric bool
}

func (x Cell) String() string {
	if x.Numeric {
		return strconv.FormatFloat(x.Number, 'f', -1, 64)
	}
	return x.Text
}

// String renders the table as aligned text for terminal display.
func (x *Table) String() string {
	widths := make([]int, len(x.columns))
	for i, c := range x.columns {
		widths[i] = len(c)
	}
	for _, row := range x.rows {
		for i, c := range row.cells {
			if i < len(widths) && len(c.String()) > widths[i] {
				widths[i] = len(c.String())
			}
		}
	}
	var b strings.Builder
	writeLine := func(cells []string) {
		for i, s := range cells {
			if i > 0 {
				b.WriteString("  ")
			}
			b.WriteString(s)
			if i < len(widths) {
				if n := widths[i] - len(s); n > 0 {
					b.WriteString(strings.Repeat(" ", n))
				}
			}
		}
		b.WriteString("\n")
	}
	writeLine(x.columns)
	for _, row := range x.rows {
		cells := make([]string, len(row.cells))
		for i, c := range row.cells {
			cells[i] = c.String()
		}
		writeLine(cells)
	}
	return b.String()
}
