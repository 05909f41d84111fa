// Package report renders fixed-width text tables for the command line.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
)

// Table is a list of rows under a header. Cells are padded to the display
// width of the widest cell in their column.
type Table struct {
	Header []string
	Rows   [][]string
	// MaxWidth truncates cells wider than it. Zero disables truncation.
	MaxWidth int
}

// Append adds a row.
func (t *Table) Append(cells ...string) {
	t.Rows = append(t.Rows, cells)
}

// Render writes the table to w.
func (t *Table) Render(w io.Writer) error {
	widths := make([]int, len(t.Header))
	measure := func(cells []string) {
		for i, c := range cells {
			if i >= len(widths) {
				widths = append(widths, 0)
			}
			widths[i] = max(widths[i], runewidth.StringWidth(t.cell(c)))
		}
	}
	measure(t.Header)
	for _, row := range t.Rows {
		measure(row)
	}

	total := 0
	for _, wd := range widths {
		total += wd
	}
	total += 2 * max(len(widths)-1, 0)

	if _, err := fmt.Fprintln(w, t.line(t.Header, widths)); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, strings.Repeat("─", total)); err != nil {
		return err
	}
	for _, row := range t.Rows {
		if _, err := fmt.Fprintln(w, t.line(row, widths)); err != nil {
			return err
		}
	}
	return nil
}

func (t *Table) line(cells []string, widths []int) string {
	parts := make([]string, len(cells))
	for i, c := range cells {
		if i == len(cells)-1 {
			parts[i] = t.cell(c)
			continue
		}
		parts[i] = padRight(t.cell(c), widths[i])
	}
	return strings.TrimRight(strings.Join(parts, "  "), " ")
}

func (t *Table) cell(s string) string {
	if t.MaxWidth <= 0 || runewidth.StringWidth(s) <= t.MaxWidth {
		return s
	}
	return runewidth.Truncate(s, t.MaxWidth, "…")
}

// padRight pads s with spaces so its terminal display width reaches width.
func padRight(s string, width int) string {
	sw := runewidth.StringWidth(s)
	if sw >= width {
		return s
	}
	return s + strings.Repeat(" ", width-sw)
}
