package output

import (
	"fmt"
	"io"

	"github.com/pterm/pterm"
)

// Table is rows of cells under an optional header.
type Table struct {
	Headers []string
	Rows    [][]string
}

// AddRow appends a row.
func (t *Table) AddRow(cells ...string) {
	t.Rows = append(t.Rows, cells)
}

// width is the widest of the header and every row.
func (t *Table) width() int {
	n := len(t.Headers)
	for _, row := range t.Rows {
		n = max(n, len(row))
	}
	return n
}

// cells returns the header (if any) and rows, each padded to the same width.
func (t *Table) cells() [][]string {
	n := t.width()
	out := make([][]string, 0, len(t.Rows)+1)
	if len(t.Headers) > 0 {
		out = append(out, padRow(t.Headers, n))
	}
	for _, row := range t.Rows {
		out = append(out, padRow(row, n))
	}
	return out
}

// Table writes t with two spaces between columns. An empty table writes
// nothing.
func (p *Printer) Table(w io.Writer, t *Table) error {
	if t == nil {
		return fmt.Errorf("cannot print nil table")
	}
	data := t.cells()
	if len(data) == 0 {
		return nil
	}

	rendered, err := p.tablePrinter(len(t.Headers) > 0).WithData(data).Srender()
	if err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	_, err = fmt.Fprint(w, rendered)
	return err
}

// tablePrinter returns pterm's table with two spaces between columns. Without
// colors every style is empty, so nothing emits escape codes whatever the
// global pterm color setting is.
func (p *Printer) tablePrinter(header bool) *pterm.TablePrinter {
	plain := pterm.NewStyle()
	tp := pterm.DefaultTable.
		WithHasHeader(header).
		WithSeparator("  ").
		WithStyle(plain).
		WithSeparatorStyle(plain).
		WithHeaderRowSeparatorStyle(plain).
		WithRowSeparatorStyle(plain)
	if p.colors {
		return tp.WithHeaderStyle(pterm.NewStyle(pterm.FgLightCyan, pterm.Bold))
	}
	return tp.WithHeaderStyle(plain)
}

func padRow(row []string, n int) []string {
	if len(row) >= n {
		return row
	}
	out := make([]string, n)
	copy(out, row)
	return out
}
