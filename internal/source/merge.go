package source

import (
	"iter"

	"squeal/internal/models"
)

// FilenameColumn is the column the merge adapter adds to record provenance
const FilenameColumn = "filename"

// Merge concatenates several backends that share the first one's schema.
// Rows keep their per-backend order and backends are drained in the order
// given; nothing is interleaved or sorted.
type Merge struct {
	Inputs []Backend
	column string
}

// NewMerge wraps inputs behind a single backend
func NewMerge(inputs ...Backend) *Merge {
	m := &Merge{Inputs: inputs, column: FilenameColumn}
	// Zip listings already carry a "filename" column
	if len(inputs) > 0 && inputs[0].Columns().Has(FilenameColumn) {
		m.column = FilenameColumn + "_"
	}
	return m
}

// Columns is the first input's schema plus the synthesized filename column
func (m *Merge) Columns() models.Schema {
	if len(m.Inputs) == 0 {
		return models.Schema{models.TextColumn(m.column)}
	}
	first := m.Inputs[0].Columns()
	schema := make(models.Schema, 0, len(first)+1)
	schema = append(schema, first...)
	return append(schema, models.TextColumn(m.column))
}

// FilenameColumnName returns the name of the synthesized provenance column
func (m *Merge) FilenameColumnName() string { return m.column }

func (m *Merge) Rows() iter.Seq2[models.Row, error] {
	return func(yield func(models.Row, error) bool) {
		for _, input := range m.Inputs {
			name := FilenameOf(input)
			for row, err := range input.Rows() {
				if row != nil {
					row[m.column] = name
				}
				if !yield(row, err) {
					return
				}
			}
		}
	}
}
