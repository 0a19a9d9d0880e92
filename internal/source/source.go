// Package source defines the backend contract: a typed schema plus a lazy,
// one-shot sequence of rows. It also holds the generic backends that are not
// tied to a particular data format.
package source

import (
	"iter"

	"squeal/internal/models"
)

// Backend produces rows described by a fixed schema.
// Rows may be called only once; the sequence is not restartable.
type Backend interface {
	Columns() models.Schema
	Rows() iter.Seq2[models.Row, error]
}

// Named is implemented by backends that read a specific file. The merge
// adapter uses it to stamp rows with their provenance.
type Named interface {
	Filename() string
}

// FilenameOf returns the backend's filename, or "" when it has none
func FilenameOf(b Backend) string {
	if n, ok := b.(Named); ok {
		return n.Filename()
	}
	return ""
}

// Memory is an in-memory backend. It represents fixtures in tests and lets
// programmatic callers inject data without going through the filesystem.
type Memory struct {
	Name   string
	Schema models.Schema
	Data   []models.Row
}

// NewMemory creates an in-memory backend
func NewMemory(name string, schema models.Schema, rows ...models.Row) *Memory {
	return &Memory{Name: name, Schema: schema, Data: rows}
}

func (m *Memory) Columns() models.Schema { return m.Schema }

func (m *Memory) Filename() string { return m.Name }

// Rows yields shallow copies so that stamping by the merge adapter does not
// leak back into the fixture
func (m *Memory) Rows() iter.Seq2[models.Row, error] {
	return func(yield func(models.Row, error) bool) {
		for _, row := range m.Data {
			copied := make(models.Row, len(row)+1)
			for k, v := range row {
				copied[k] = v
			}
			if !yield(copied, nil) {
				return
			}
		}
	}
}
