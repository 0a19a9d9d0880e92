package parser

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"strconv"
	"strings"

	"squeal/internal/config"
	"squeal/internal/models"
	"squeal/internal/source"
)

// CSVFile is a backend for delimited files with an optional header row.
// The schema is detected from the header and a sample of records.
type CSVFile struct {
	name      string
	comma     rune
	hasHeader bool
	schema    models.Schema
}

// NewCSVFile samples the file to detect its header and column kinds.
// Tab-separated files use a tab delimiter, anything else a comma.
func NewCSVFile(filePath string) (*CSVFile, error) {
	comma := ','
	if strings.HasSuffix(strings.ToLower(filePath), ".tsv") {
		comma = '\t'
	}

	headers, records, hasHeader, err := sampleCSV(filePath, comma, config.SchemaDetectionSampleSize)
	if err != nil {
		return nil, err
	}

	schema, err := DetectSchema(headers, records)
	if err != nil {
		return nil, fmt.Errorf("failed to detect schema of %s: %w", filePath, err)
	}

	return &CSVFile{name: filePath, comma: comma, hasHeader: hasHeader, schema: schema}, nil
}

func (c *CSVFile) Columns() models.Schema { return c.schema }

func (c *CSVFile) Filename() string { return c.name }

func (c *CSVFile) Rows() iter.Seq2[models.Row, error] {
	return func(yield func(models.Row, error) bool) {
		file, err := os.Open(c.name)
		if err != nil {
			yield(nil, fmt.Errorf("failed to open CSV file: %w", err))
			return
		}
		defer file.Close()

		reader := newReader(file, c.comma)
		lineNumber := 0

		for {
			record, err := reader.Read()
			if err == io.EOF {
				return
			}
			lineNumber++

			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				if !yield(nil, &source.UnmatchedLineError{Source: c.name, Line: parseErr.Line, Err: parseErr.Err}) {
					return
				}
				continue
			}
			if err != nil {
				yield(nil, fmt.Errorf("error reading CSV at line %d: %w", lineNumber, err))
				return
			}

			// Skip header row if it exists
			if lineNumber == 1 && c.hasHeader {
				continue
			}

			row, err := c.parseRecord(record)
			if err != nil {
				err = &source.UnmatchedLineError{Source: c.name, Line: lineNumber, Text: strings.Join(record, string(c.comma)), Err: err}
			}
			if !yield(row, err) {
				return
			}
		}
	}
}

// parseRecord converts a CSV record into a row; empty fields are no value
func (c *CSVFile) parseRecord(record []string) (models.Row, error) {
	row := make(models.Row, len(c.schema))
	for i, col := range c.schema {
		if i >= len(record) {
			break
		}
		if strings.TrimSpace(record[i]) == "" && col.Kind != models.Text {
			continue
		}
		v, err := col.Convert(record[i])
		if err != nil {
			return nil, err
		}
		row[col.Name] = v
	}
	return row, nil
}

func newReader(r io.Reader, comma rune) *csv.Reader {
	reader := csv.NewReader(r)
	reader.Comma = comma
	reader.FieldsPerRecord = -1 // Allow variable number of fields for flexibility
	reader.LazyQuotes = true
	return reader
}

// sampleCSV reads up to limit records, returning headers (detected or
// generated) and the sampled data records
func sampleCSV(filePath string, comma rune, limit int) ([]string, [][]string, bool, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, nil, false, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := newReader(file, comma)

	var headers []string
	var records [][]string
	hasHeader := false
	lineNumber := 0

	for lineNumber <= limit {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, false, fmt.Errorf("error reading CSV at line %d: %w", lineNumber+1, err)
		}

		lineNumber++

		// First line determines headers
		if lineNumber == 1 {
			if isHeaderRow(record) {
				headers = record
				hasHeader = true
				continue
			}
			// Generate headers if no header row detected
			headers = make([]string, len(record))
			for i := range headers {
				headers[i] = "col" + strconv.Itoa(i)
			}
		}
		records = append(records, record)
	}

	if len(headers) == 0 {
		return nil, nil, false, fmt.Errorf("no headers found in CSV file")
	}

	return headers, records, hasHeader, nil
}

// isHeaderRow checks if the given record appears to be a header row
func isHeaderRow(record []string) bool {
	if len(record) == 0 {
		return false
	}

	headerLikeCount := 0
	for _, field := range record {
		if looksLikeHeader(field) {
			headerLikeCount++
		}
	}
	// If more than half the fields look like headers, treat as header row
	return float64(headerLikeCount)/float64(len(record)) > 0.5
}

// looksLikeHeader determines if a field looks like a column header
func looksLikeHeader(field string) bool {
	field = strings.TrimSpace(field)
	if field == "" {
		return false
	}

	// Exclude obvious data patterns
	if isPurelyNumeric(field) || isTimestampLike(field) || strings.Contains(field, "@") {
		return false
	}

	// Headers should be relatively short and contain letters
	if len(field) > 50 || !containsLetters(field) {
		return false
	}

	if isCommonHeaderWord(field) {
		return true
	}

	// Check for header-like patterns (contains underscore, all lowercase/uppercase)
	if strings.Contains(field, "_") && len(field) <= 20 {
		return true
	}

	return len(field) <= 15 && !strings.ContainsAny(field, "0123456789") &&
		(strings.ToLower(field) == field || strings.ToUpper(field) == field)
}

// isTimestampLike checks if a field looks like a timestamp
func isTimestampLike(field string) bool {
	if strings.Contains(field, ":") && (strings.Contains(field, " ") || strings.Contains(field, "T")) {
		return true
	}

	months := []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun",
		"Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}
	for _, month := range months {
		if strings.Contains(field, month) {
			return true
		}
	}

	return false
}

// isCommonHeaderWord checks if a field is a common header word
func isCommonHeaderWord(field string) bool {
	common := []string{"id", "name", "email", "age", "date", "time", "timestamp",
		"user", "status", "type", "code", "ip", "host", "address", "method",
		"path", "size", "count", "pid"}
	lower := strings.ToLower(field)
	for _, word := range common {
		if lower == word || strings.Contains(lower, word) {
			return true
		}
	}
	return false
}

// containsLetters checks if a string contains alphabetic characters
func containsLetters(s string) bool {
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			return true
		}
	}
	return false
}

// isPurelyNumeric checks if a string is purely numeric (including decimals)
func isPurelyNumeric(s string) bool {
	if s == "" {
		return false
	}
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}
