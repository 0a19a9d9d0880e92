// Package render writes a query result non-interactively and decides
// whether a run should be interactive at all
package render

import (
	"fmt"
	"io"
	"slices"
	"sort"
	"strings"

	"squeal/internal/database"
	"squeal/internal/table"
)

// Formatter writes every row of a result to w and returns the row count
type Formatter func(res *database.Result, w io.Writer) (int, error)

// UnknownFormatterError is returned for a --format value with no formatter
type UnknownFormatterError struct {
	Name string
}

func (e *UnknownFormatterError) Error() string {
	return fmt.Sprintf("unknown formatter: %s (choose from %s)", e.Name, strings.Join(Names(), ", "))
}

var formatters = map[string]Formatter{
	"table": AsTable,
	"html":  AsHTML,
	"text":  AsText,
}

// Lookup returns the named formatter
func Lookup(name string) (Formatter, error) {
	f, ok := formatters[name]
	if !ok {
		return nil, &UnknownFormatterError{Name: name}
	}
	return f, nil
}

// Names lists the formatter names in sorted order
func Names() []string {
	names := make([]string, 0, len(formatters))
	for name := range formatters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Collect drains a result into a table
func Collect(res *database.Result) (*table.Table, error) {
	t := table.New(slices.Clone(res.Columns))
	for row, err := range res.Rows() {
		if err != nil {
			return nil, err
		}
		if err := t.AddRow(row); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// AsTable writes a fixed-width text table
func AsTable(res *database.Result, w io.Writer) (int, error) {
	t, err := Collect(res)
	if err != nil {
		return 0, err
	}
	return len(t.Rows), t.WriteText(w)
}

// AsHTML writes an HTML table
func AsHTML(res *database.Result, w io.Writer) (int, error) {
	t, err := Collect(res)
	if err != nil {
		return 0, err
	}
	return len(t.Rows), t.WriteHTML(w)
}

// AsText streams one line per row with every field double-quoted and
// followed by a space. Values are not escaped.
func AsText(res *database.Result, w io.Writer) (int, error) {
	n := 0
	var b strings.Builder
	for row, err := range res.Rows() {
		if err != nil {
			return n, err
		}
		b.Reset()
		for _, v := range row {
			b.WriteByte('"')
			b.WriteString(table.FormatValue(v))
			b.WriteString(`" `)
		}
		b.WriteByte('\n')
		if _, err := io.WriteString(w, b.String()); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// OutputMode is how results reach the user
type OutputMode int

const (
	// Static writes with a formatter
	Static OutputMode = iota
	// Interactive opens the terminal browser
	Interactive
)

func (m OutputMode) String() string {
	if m == Interactive {
		return "interactive"
	}
	return "static"
}

// Mode decides the output mode once at startup. An explicit format always
// means static output; otherwise a terminal on stdout means interactive.
func Mode(formatSet bool, isTerminal func() bool) OutputMode {
	if formatSet || isTerminal == nil || !isTerminal() {
		return Static
	}
	return Interactive
}
