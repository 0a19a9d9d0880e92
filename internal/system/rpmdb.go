package system

import (
	"errors"
	"strings"

	"squeal/internal/models"
	"squeal/internal/source"
)

// rpmQueryFormat asks rpm for one tab-separated line per installed package
const rpmQueryFormat = "%{NAME}\\t%{EPOCH}\\t%{VERSION}\\t%{RELEASE}\\t%{ARCH}\\t%{VENDOR}\\n"

// rpmNone is what rpm prints for an unset tag
const rpmNone = "(none)"

var errFieldCount = errors.New("unexpected number of fields in rpm output")

// RpmDBSchema returns the columns of the installed-package database
func RpmDBSchema() models.Schema {
	return models.Schema{
		models.TextColumn("name"),
		models.TextColumn("epoch"),
		models.TextColumn("version"),
		models.TextColumn("release"),
		models.TextColumn("arch"),
		models.TextColumn("vendor"),
	}
}

// NewRpmDB creates a backend listing the installed packages by running
// program (normally "rpm"). A missing program surfaces as
// BackendUnavailableError once rows are read.
func NewRpmDB(program string) *source.LineFile {
	lf := source.NewLineFile("rpm", RpmDBSchema(), ParseRpmQueryLine)
	lf.Open = source.CommandOutput("rpm", program, "-qa", "--queryformat", rpmQueryFormat)
	return lf
}

// ParseRpmQueryLine parses one line of rpm --queryformat output. Unset tags
// are no value.
func ParseRpmQueryLine(line string) (models.Row, error) {
	fields := strings.Split(line, "\t")
	schema := RpmDBSchema()
	if len(fields) != len(schema) {
		return nil, errFieldCount
	}

	row := make(models.Row, len(schema))
	for i, col := range schema {
		if fields[i] == rpmNone {
			continue
		}
		row[col.Name] = fields[i]
	}
	return row, nil
}
