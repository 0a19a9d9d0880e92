// Package parser provides CSV parsing and schema detection functionality
package parser

import (
	"fmt"
	"strconv"
	"strings"

	"squeal/internal/config"
	"squeal/internal/models"
)

// DetectSchema analyzes CSV data to determine the column schema
// It examines headers and a sample of records to infer column kinds
func DetectSchema(headers []string, records [][]string) (models.Schema, error) {
	if len(headers) == 0 {
		return nil, fmt.Errorf("no headers found")
	}

	schema := make(models.Schema, len(headers))
	seen := make(map[string]int, len(headers))

	// Initialize columns with headers
	for i, header := range headers {
		name := models.SanitizeName(header)
		// Keep names unique: a second "size" becomes "size_2"
		seen[name]++
		if n := seen[name]; n > 1 {
			name = fmt.Sprintf("%s_%d", name, n)
		}
		schema[i] = models.Column{Name: name, Kind: models.Text}
	}

	// Analyze sample of records to determine types
	sampleSize := min(len(records), config.SchemaDetectionSampleSize)

	for i := range schema {
		schema[i].Kind = detectColumnKind(records, i, sampleSize)
	}

	return schema, nil
}

// detectColumnKind analyzes values in a column to determine the most appropriate kind
func detectColumnKind(records [][]string, columnIndex int, sampleSize int) models.Kind {
	votes := make(map[models.Kind]int)
	totalValues := 0

	for i := 0; i < sampleSize && i < len(records); i++ {
		if columnIndex >= len(records[i]) {
			continue
		}

		value := strings.TrimSpace(records[i][columnIndex])
		if value == "" {
			continue
		}

		votes[inferValueKind(value)]++
		totalValues++
	}

	return getMostCommonKind(votes, totalValues)
}

// inferValueKind examines a single value and returns the most specific kind it could represent
func inferValueKind(value string) models.Kind {
	if _, err := strconv.ParseInt(value, 10, 64); err == nil {
		return models.Integer
	}
	return models.Text
}

// getMostCommonKind returns the most frequently detected kind if it meets the confidence threshold
func getMostCommonKind(votes map[models.Kind]int, totalValues int) models.Kind {
	if totalValues == 0 {
		return models.Text
	}

	maxVotes := 0
	common := models.Text

	for kind, count := range votes {
		if count > maxVotes {
			maxVotes = count
			common = kind
		}
	}

	// Only use the detected kind if it meets the confidence threshold
	confidence := float64(maxVotes) / float64(totalValues)
	if confidence >= config.TypeInferenceThreshold {
		return common
	}

	return models.Text
}
