// Package parser provides the per-format parsers that turn log files and CSV
// files into backends with a fixed column schema
package parser

import (
	"errors"
	"regexp"

	"squeal/internal/models"
)

// LineParser builds a line pattern programmatically: a regular expression
// plus the columns its capture groups fill, in order
type LineParser struct {
	expr    string
	columns models.Schema
}

// Column appends a column together with the pattern (one capture group) that
// captures its value
func (p *LineParser) Column(col models.Column, group string) *LineParser {
	p.expr += group
	p.columns = append(p.columns, col)
	return p
}

// Literal appends pattern text that does not produce a column
func (p *LineParser) Literal(expr string) *LineParser {
	p.expr += expr
	return p
}

// Schema returns the columns added so far
func (p *LineParser) Schema() models.Schema { return p.columns }

// Compile anchors the pattern at the start of the line and returns a line
// function that fills the schema positionally from the capture groups
func (p *LineParser) Compile() func(line string) (models.Row, error) {
	re := regexp.MustCompile("^" + p.expr)
	schema := p.columns
	return func(line string) (models.Row, error) {
		m := re.FindStringSubmatch(line)
		if m == nil {
			return nil, errNoMatch
		}
		return models.ParseFields(schema, m[1:])
	}
}

var errNoMatch = errors.New("line does not match the expected format")

// groups maps the named positions of a match to a row, skipping empty names
func groups(names []string, m []string) models.Row {
	row := make(models.Row, len(names))
	for i, name := range names {
		if name == "" || i+1 >= len(m) {
			continue
		}
		row[name] = m[i+1]
	}
	return row
}
