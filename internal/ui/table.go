package ui

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// Table writes aligned columns. Cells may carry color codes; tabwriter
// counts them as width, so only color whole columns consistently.
type Table struct {
	w    *tabwriter.Writer
	rows int
}

// NewTable returns a table writing to out with the given column headers.
func NewTable(out io.Writer, headers ...string) *Table {
	t := &Table{w: tabwriter.NewWriter(out, 0, 2, 2, ' ', 0)}
	if len(headers) > 0 {
		fmt.Fprintf(t.w, "  %s\n", strings.Join(headers, "\t"))
	}
	return t
}

// Row adds one line.
func (t *Table) Row(cells ...string) {
	fmt.Fprintf(t.w, "  %s\n", strings.Join(cells, "\t"))
	t.rows++
}

// Len returns the number of rows added, not counting the header.
func (t *Table) Len() int {
	return t.rows
}

// Flush writes the aligned output.
func (t *Table) Flush() error {
	return t.w.Flush()
}
