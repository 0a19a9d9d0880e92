// Package models defines the column model shared by every backend:
// typed column descriptors, schemas and rows.
package models

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind represents the declared type of a column
type Kind int

const (
	// Text columns hold strings verbatim
	Text Kind = iota
	// Integer columns hold int64 values
	Integer
	// SentineledInteger columns hold int64 values, except that the
	// sentinel literal maps to "no value"
	SentineledInteger
)

// Sentinel is the literal a SentineledInteger column treats as "no value".
// Apache writes it for a missing response size.
const Sentinel = "-"

// String returns the string representation of the Kind
func (k Kind) String() string {
	switch k {
	case Integer:
		return "Integer"
	case SentineledInteger:
		return "SentineledInteger"
	default:
		return "Text"
	}
}

// SQLType returns the SQLite type used when the column is created in the store
func (k Kind) SQLType() string {
	switch k {
	case Integer, SentineledInteger:
		return "INTEGER"
	default:
		return "TEXT"
	}
}

// Column describes a single named, typed column of a backend
type Column struct {
	Name string
	Kind Kind
}

// TextColumn is shorthand for a Text column
func TextColumn(name string) Column { return Column{Name: name, Kind: Text} }

// IntColumn is shorthand for an Integer column
func IntColumn(name string) Column { return Column{Name: name, Kind: Integer} }

// SentinelColumn is shorthand for a SentineledInteger column
func SentinelColumn(name string) Column { return Column{Name: name, Kind: SentineledInteger} }

// Convert coerces a captured token into the column's native value.
// A nil return with a nil error means "no value".
func (c Column) Convert(raw string) (any, error) {
	switch c.Kind {
	case Integer:
		v, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("column %s: invalid integer %q: %w", c.Name, raw, err)
		}
		return v, nil
	case SentineledInteger:
		if raw == Sentinel {
			return nil, nil
		}
		v, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("column %s: invalid integer %q: %w", c.Name, raw, err)
		}
		return v, nil
	default:
		return raw, nil
	}
}

// Schema is the ordered list of columns a backend produces
type Schema []Column

// Names returns the column names in declaration order
func (s Schema) Names() []string {
	names := make([]string, len(s))
	for i, col := range s {
		names[i] = col.Name
	}
	return names
}

// Has reports whether the schema declares a column with the given name.
// Names are compared case-insensitively, the way SQLite resolves identifiers.
func (s Schema) Has(name string) bool {
	for _, col := range s {
		if strings.EqualFold(col.Name, name) {
			return true
		}
	}
	return false
}

// Validate checks that column names are non-empty and unique
func (s Schema) Validate() error {
	seen := make(map[string]bool, len(s))
	for i, col := range s {
		if col.Name == "" {
			return fmt.Errorf("column %d has no name", i)
		}
		key := strings.ToLower(col.Name)
		if seen[key] {
			return fmt.Errorf("duplicate column name %q", col.Name)
		}
		seen[key] = true
	}
	return nil
}

// Row maps column names to native values. A missing key or a nil value
// both mean "no value".
type Row map[string]any

// Values returns the row's values aligned to the schema's column order
func (r Row) Values(schema Schema) []any {
	values := make([]any, len(schema))
	for i, col := range schema {
		values[i] = r[col.Name]
	}
	return values
}

// ParseFields converts captured tokens into a row, pairing them with the
// schema's columns positionally. Extra tokens are ignored; missing ones
// are left absent.
func ParseFields(schema Schema, fields []string) (Row, error) {
	row := make(Row, len(schema))
	for i, col := range schema {
		if i >= len(fields) {
			break
		}
		v, err := col.Convert(fields[i])
		if err != nil {
			return nil, err
		}
		row[col.Name] = v
	}
	return row, nil
}

// SanitizeName cleans up a free-form label (a CSV header, a config key)
// so it can be used as a SQL column name
func SanitizeName(name string) string {
	name = strings.TrimSpace(name)

	// Replace spaces and special characters with underscores
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		default:
			return '_'
		}
	}, name)

	name = strings.ToLower(name)

	// Ensure it doesn't start with a number
	if len(name) > 0 && name[0] >= '0' && name[0] <= '9' {
		name = "col_" + name
	}

	// Ensure it's not empty
	if name == "" {
		name = "unnamed_column"
	}

	return name
}
