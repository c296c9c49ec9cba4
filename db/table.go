package db

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// Table renders rows as an ASCII grid:
//
//	+----+-------+
//	| id | name  |
//	+----+-------+
//	| 1  | Alice |
//	+----+-------+
type Table struct {
	writer  io.Writer
	headers []string
	rows    [][]string
}

func NewTable(w io.Writer) *Table {
	return &Table{writer: w}
}

func (t *Table) Header(headers []string) {
	t.headers = headers
}

func (t *Table) Row(row []string) {
	t.rows = append(t.rows, row)
}

func (t *Table) Bulk(rows [][]string) {
	t.rows = append(t.rows, rows...)
}

// Render writes the table. A table with headers but no rows still prints
// its header so empty results show their columns.
func (t *Table) Render() {
	if len(t.headers) == 0 && len(t.rows) == 0 {
		return
	}

	widths := t.widths()
	separator := separatorLine(widths)

	fmt.Fprintln(t.writer, separator)
	if len(t.headers) > 0 {
		fmt.Fprintln(t.writer, formatLine(t.headers, widths))
		fmt.Fprintln(t.writer, separator)
	}
	for _, row := range t.rows {
		fmt.Fprintln(t.writer, formatLine(row, widths))
	}
	if len(t.rows) > 0 || len(t.headers) == 0 {
		fmt.Fprintln(t.writer, separator)
	}
}

func (t *Table) widths() []int {
	n := len(t.headers)
	for _, row := range t.rows {
		n = max(n, len(row))
	}

	widths := make([]int, n)
	measure := func(cells []string) {
		for i, cell := range cells {
			widths[i] = max(widths[i], utf8.RuneCountInString(cell))
		}
	}
	measure(t.headers)
	for _, row := range t.rows {
		measure(row)
	}
	for i := range widths {
		widths[i] = max(widths[i], 1)
	}
	return widths
}

func separatorLine(widths []int) string {
	parts := make([]string, len(widths))
	for i, w := range widths {
		parts[i] = strings.Repeat("-", w+2)
	}
	return "+" + strings.Join(parts, "+") + "+"
}

func formatLine(cells []string, widths []int) string {
	parts := make([]string, len(widths))
	for i, w := range widths {
		cell := ""
		if i < len(cells) {
			cell = cells[i]
		}
		parts[i] = " " + cell + strings.Repeat(" ", w-utf8.RuneCountInString(cell)+1)
	}
	return "|" + strings.Join(parts, "|") + "|"
}
