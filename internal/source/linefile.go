package source

import (
	"bufio"
	"fmt"
	"io"
	"iter"
	"os"
	"strings"

	"squeal/internal/models"
)

// maxLineSize bounds a single input line
const maxLineSize = 1 << 20

// LineFunc parses one line of input into a row. Any error marks the line as
// unmatched.
type LineFunc func(line string) (models.Row, error)

// LineFile is a backend that parses a line-oriented input with a fixed
// schema, one row per line. Lines the parser rejects are reported as
// UnmatchedLineError and skipped by the caller.
type LineFile struct {
	Name   string
	Schema models.Schema
	Parse  LineFunc

	// Open returns the input; it defaults to opening Name
	Open func() (io.ReadCloser, error)
}

// NewLineFile creates a line-oriented backend reading the named file
func NewLineFile(name string, schema models.Schema, parse LineFunc) *LineFile {
	return &LineFile{Name: name, Schema: schema, Parse: parse}
}

func (f *LineFile) Columns() models.Schema { return f.Schema }

func (f *LineFile) Filename() string { return f.Name }

func (f *LineFile) Rows() iter.Seq2[models.Row, error] {
	return func(yield func(models.Row, error) bool) {
		open := f.Open
		if open == nil {
			open = func() (io.ReadCloser, error) { return os.Open(f.Name) }
		}
		r, err := open()
		if err != nil {
			yield(nil, fmt.Errorf("failed to open %s: %w", f.Name, err))
			return
		}

		drained := true
		err = scanLines(r, 0, func(lineNo int, line string) bool {
			row, err := f.Parse(line)
			if err != nil {
				err = &UnmatchedLineError{Source: f.Name, Line: lineNo, Text: line, Err: err}
			}
			if !yield(row, err) {
				drained = false
				return false
			}
			return true
		})
		closeErr := r.Close()
		if err != nil {
			yield(nil, fmt.Errorf("failed to read %s: %w", f.Name, err))
			return
		}
		// A command backend reports a failed exit status on close
		if drained && closeErr != nil {
			yield(nil, fmt.Errorf("failed to read %s: %w", f.Name, closeErr))
		}
	}
}

// scanLines calls fn for every line of r, numbering from first+1, until fn
// returns false. Trailing carriage returns are trimmed.
func scanLines(r io.Reader, first int, fn func(lineNo int, line string) bool) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	lineNo := first
	for scanner.Scan() {
		lineNo++
		if !fn(lineNo, strings.TrimRight(scanner.Text(), "\r")) {
			return nil
		}
	}
	return scanner.Err()
}
