// Package table lays out query results as fixed-width text or HTML
package table

import (
	"fmt"
	"html"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"
)

// Table is a heading row plus zero or more body rows of display strings
type Table struct {
	Caption  string
	Headings []string
	Rows     [][]string
}

// New creates an empty table with the given column headings
func New(headings []string) *Table {
	return &Table{Headings: headings}
}

// AddRow appends a row, formatting each value with FormatValue
func (t *Table) AddRow(values []any) error {
	if len(values) != len(t.Headings) {
		return fmt.Errorf("row has %d values, table has %d columns", len(values), len(t.Headings))
	}
	cells := make([]string, len(values))
	for i, v := range values {
		cells[i] = FormatValue(v)
	}
	t.Rows = append(t.Rows, cells)
	return nil
}

// Widths returns the display width of each column: the widest of its
// heading and its cells
func (t *Table) Widths() []int {
	widths := make([]int, len(t.Headings))
	for i, h := range t.Headings {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range t.Rows {
		for i, cell := range row {
			if w := runewidth.StringWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}
	return widths
}

// Offsets returns the x position of each column given its width, with one
// separator cell between columns, plus the total line width
func Offsets(widths []int) ([]int, int) {
	offsets := make([]int, len(widths))
	x := 0
	for i, w := range widths {
		offsets[i] = x
		x += w + 1
	}
	return offsets, x
}

// WriteText renders right-aligned cells, each followed by "|", with a
// "-"/"+" rule under the headings
func (t *Table) WriteText(w io.Writer) error {
	widths := t.Widths()

	var b strings.Builder
	if t.Caption != "" {
		b.WriteString(t.Caption)
		b.WriteByte('\n')
	}
	writeLine(&b, t.Headings, widths)
	b.WriteString(Rule(widths))
	b.WriteByte('\n')
	for _, row := range t.Rows {
		writeLine(&b, row, widths)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func writeLine(b *strings.Builder, cells []string, widths []int) {
	for i, cell := range cells {
		b.WriteString(PadLeft(cell, widths[i]))
		b.WriteByte('|')
	}
	b.WriteByte('\n')
}

// Rule is the heading underline: one "-" per display cell and a "+" per
// column separator
func Rule(widths []int) string {
	var b strings.Builder
	for _, w := range widths {
		b.WriteString(strings.Repeat("-", w))
		b.WriteByte('+')
	}
	return b.String()
}

// PadLeft right-aligns s in a field of the given display width
func PadLeft(s string, width int) string {
	if pad := width - runewidth.StringWidth(s); pad > 0 {
		return strings.Repeat(" ", pad) + s
	}
	return s
}

// WriteHTML renders the table as an HTML table with escaped values
func (t *Table) WriteHTML(w io.Writer) error {
	var b strings.Builder
	if t.Caption != "" {
		fmt.Fprintf(&b, "<h1>%s</h1>\n", html.EscapeString(t.Caption))
	}
	b.WriteString("<table border='1'>\n")
	writeHTMLRow(&b, "th", t.Headings)
	for _, row := range t.Rows {
		writeHTMLRow(&b, "td", row)
	}
	b.WriteString("</table>\n")

	_, err := io.WriteString(w, b.String())
	return err
}

func writeHTMLRow(b *strings.Builder, tag string, cells []string) {
	b.WriteString("<tr>\n")
	for _, cell := range cells {
		fmt.Fprintf(b, "<%s>%s</%s> ", tag, html.EscapeString(cell), tag)
	}
	b.WriteString("\n</tr>\n")
}

// FormatValue renders a value read back from SQLite. NULL is "NULL" and
// integral floats keep one decimal, so total() prints as 12.0.
func FormatValue(v any) string {
	switch v := v.(type) {
	case nil:
		return "NULL"
	case string:
		return v
	case []byte:
		return string(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		if v == math.Trunc(v) && !math.IsInf(v, 0) && math.Abs(v) < 1e16 {
			return strconv.FormatFloat(v, 'f', 1, 64)
		}
		return strconv.FormatFloat(v, 'g', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}
