package source

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"iter"
	"regexp"
	"strings"

	"squeal/internal/models"
)

// SplitOptions configure how the generic backend carves lines into fields.
// A capture pattern takes precedence over a separator; with neither, lines
// are split on runs of whitespace.
type SplitOptions struct {
	Regex     string
	Separator string
}

// Stream is the generic fallback backend for textual input. Its schema is
// col0..colN, where N is derived from the first line only.
//
// Known limitation: later lines with a different field count are not
// reconciled. Extra fields are dropped and missing ones are stored as NULL.
type Stream struct {
	name    string
	reader  *bufio.Reader
	closer  io.Closer
	matcher *regexp.Regexp
	sep     string

	first    string
	hasFirst bool
	numCols  int
}

// NewStream reads the first line of r to fix the column count. closer may
// be nil; otherwise it is closed once the rows have been drained.
func NewStream(name string, r io.Reader, closer io.Closer, opts SplitOptions) (*Stream, error) {
	s := &Stream{name: name, reader: bufio.NewReader(r), closer: closer, sep: opts.Separator}

	if opts.Regex != "" {
		// Anchored at the start of the line, like a "match" rather than a "search"
		re, err := regexp.Compile(`^(?:` + opts.Regex + `)`)
		if err != nil {
			return nil, fmt.Errorf("invalid input regex %q: %w", opts.Regex, err)
		}
		s.matcher = re
	}

	line, err := s.reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to read first line of %s: %w", name, err)
	}
	if line != "" || err == nil {
		s.first = strings.TrimRight(line, "\r\n")
		s.hasFirst = true
	}

	if fields, ok := s.split(s.first); ok {
		s.numCols = len(fields)
	} else if s.matcher != nil {
		s.numCols = s.matcher.NumSubexp()
	}
	if s.numCols == 0 {
		// An empty table cannot be created; keep a single column
		s.numCols = 1
	}

	return s, nil
}

func (s *Stream) Filename() string { return s.name }

func (s *Stream) Columns() models.Schema {
	schema := make(models.Schema, s.numCols)
	for i := range schema {
		schema[i] = models.TextColumn(fmt.Sprintf("col%d", i))
	}
	return schema
}

func (s *Stream) Rows() iter.Seq2[models.Row, error] {
	return func(yield func(models.Row, error) bool) {
		if s.closer != nil {
			defer s.closer.Close()
		}

		emit := func(lineNo int, line string) bool {
			if strings.TrimSpace(line) == "" {
				return true
			}
			fields, ok := s.split(line)
			if !ok {
				return yield(nil, &UnmatchedLineError{Source: s.name, Line: lineNo, Text: line})
			}
			row := make(models.Row, len(fields))
			for i, f := range fields {
				row[fmt.Sprintf("col%d", i)] = f
			}
			return yield(row, nil)
		}

		if s.hasFirst {
			s.hasFirst = false
			if !emit(1, s.first) {
				return
			}
		}
		if err := scanLines(s.reader, 1, emit); err != nil {
			yield(nil, fmt.Errorf("failed to read %s: %w", s.name, err))
		}
	}
}

// split carves a line into fields; ok is false when a capture pattern is
// configured and does not match
func (s *Stream) split(line string) ([]string, bool) {
	switch {
	case s.matcher != nil:
		m := s.matcher.FindStringSubmatch(line)
		if m == nil {
			return nil, false
		}
		return m[1:], true
	case s.sep != "":
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			return nil, true
		}
		return strings.Split(trimmed, s.sep), true
	default:
		return strings.Fields(line), true
	}
}
