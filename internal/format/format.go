// Package format renders the toolkit's tabular CLI output: task
// listings, parameter schemas and invocation history, as fixed-width
// terminal tables or GitHub-flavoured Markdown.
package format

import (
	"github.com/jedib0t/go-pretty/v6/table"
)

// Mode selects the render target.
type Mode int

const (
	ASCII    Mode = iota // box-drawing terminal tables
	Markdown             // GitHub-flavoured Markdown tables
)

// Table accumulates header, data and footer rows and renders them in
// one Mode. Construct with NewTable; the zero value is not usable.
type Table struct {
	w    table.Writer
	mode Mode
}

// NewTable returns an empty Table rendering in the given Mode.
func NewTable(m Mode) *Table {
	w := table.NewWriter()
	if m == ASCII {
		w.SetStyle(table.StyleLight)
	}
	return &Table{w: w, mode: m}
}

// Header sets the column titles.
func (t *Table) Header(cols ...string) {
	row := make(table.Row, len(cols))
	for i, c := range cols {
		row[i] = c
	}
	t.w.AppendHeader(row)
}

// Row appends one data row. Values render via fmt.Sprint.
func (t *Table) Row(vals ...any) {
	t.w.AppendRow(table.Row(vals))
}

// Footer appends a summary row, typically a total.
func (t *Table) Footer(vals ...any) {
	t.w.AppendFooter(table.Row(vals))
}

// Wrap wraps the content of the 1-based column col beyond width
// characters. Parameter descriptions are the only column long enough
// to need it.
func (t *Table) Wrap(col, width int) {
	t.w.SetColumnConfigs([]table.ColumnConfig{{Number: col, WidthMax: width}})
}

// String renders the accumulated table.
func (t *Table) String() string {
	if t.mode == Markdown {
		return t.w.RenderMarkdown()
	}
	return t.w.Render()
}
