// Package query turns a command line into a structured query: an optional
// DISTINCT flag, a select list, the input backend and the trailing clause
// that is handed to SQLite untouched.
package query

import (
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	"squeal/internal/source"
)

// Resolver maps a token to a backend; (nil, nil) means "not an input"
type Resolver interface {
	Resolve(token any) (source.Backend, error)
}

// ParsedQuery is the structured form of a command line
type ParsedQuery struct {
	Distinct   bool
	SelectList []string
	Backend    source.Backend
	// Clause holds the tokens after the last input, e.g. "where", "size>3"
	Clause []string
}

// NoInputsError is returned when no token resolves to an input
type NoInputsError struct {
	Tokens []string
}

func (e *NoInputsError) Error() string {
	if len(e.Tokens) == 0 {
		return "no inputs: expected a file, \"proc\", \"rpm\" or \"-\""
	}
	return fmt.Sprintf("no inputs: %q is not a readable file or data source", e.Tokens[0])
}

// Tokenize splits every string argument on whitespace and commas, dropping
// empty tokens. Non-string arguments such as pre-built backends are kept as
// single tokens. Splitting is idempotent: "a, b" and "a", "b" give the same
// result.
func Tokenize(args []any) []any {
	var tokens []any
	for _, arg := range args {
		s, ok := arg.(string)
		if !ok {
			tokens = append(tokens, arg)
			continue
		}
		for _, tok := range strings.FieldsFunc(s, isSeparator) {
			tokens = append(tokens, tok)
		}
	}
	return tokens
}

func isSeparator(r rune) bool {
	return unicode.IsSpace(r) || r == ','
}

// Parse builds a query from the raw arguments, asking reg to resolve the
// inputs that follow "from"
func Parse(args []any, reg Resolver, log *slog.Logger) (*ParsedQuery, error) {
	if log == nil {
		log = slog.Default()
	}
	tokens := Tokenize(args)
	log.Debug("tokenized arguments", "args", describe(args), "tokens", describe(tokens))

	q := &ParsedQuery{}

	pivot := -1
	for i, tok := range tokens {
		if s, ok := tok.(string); ok && strings.EqualFold(s, "from") {
			pivot = i
			break
		}
	}

	start := 0
	if pivot >= 0 {
		for _, tok := range tokens[:pivot] {
			s, ok := tok.(string)
			if !ok {
				return nil, fmt.Errorf("unexpected input %v before \"from\"", tok)
			}
			if strings.EqualFold(s, "distinct") {
				q.Distinct = true
				continue
			}
			q.SelectList = append(q.SelectList, strings.TrimSuffix(s, ","))
		}
		start = pivot + 1
	}

	var inputs []source.Backend
	next := start
	for ; next < len(tokens); next++ {
		b, err := reg.Resolve(tokens[next])
		if err != nil {
			return nil, fmt.Errorf("failed to open input %v: %w", tokens[next], err)
		}
		if b == nil {
			break
		}
		inputs = append(inputs, b)
	}

	if len(inputs) == 0 {
		return nil, &NoInputsError{Tokens: stringsOf(tokens[start:])}
	}

	if len(inputs) == 1 {
		q.Backend = inputs[0]
	} else {
		q.Backend = source.NewMerge(inputs...)
	}

	for _, tok := range tokens[next:] {
		// A backend after the clause starts is just text to SQLite
		q.Clause = append(q.Clause, fmt.Sprint(tok))
	}

	schema := q.Backend.Columns()
	if len(q.SelectList) == 0 || (len(q.SelectList) == 1 && q.SelectList[0] == "*") {
		q.SelectList = schema.Names()
	}

	// "count" is a pain to quote as count(*) in a shell
	if !schema.Has("count") {
		promoteCount(q.SelectList)
		promoteCount(q.Clause)
	}

	log.Info("parsed query", "distinct", q.Distinct, "select", q.SelectList,
		"inputs", len(inputs), "clause", q.Clause)
	return q, nil
}

func promoteCount(tokens []string) {
	for i, tok := range tokens {
		if strings.EqualFold(tok, "count") {
			tokens[i] = "count(*)"
		}
	}
}

func stringsOf(tokens []any) []string {
	out := make([]string, len(tokens))
	for i, tok := range tokens {
		out[i] = fmt.Sprint(tok)
	}
	return out
}

// describe renders tokens for the debug log; backends print as their type
func describe(tokens []any) []string {
	out := make([]string, len(tokens))
	for i, tok := range tokens {
		if s, ok := tok.(string); ok {
			out[i] = s
			continue
		}
		out[i] = fmt.Sprintf("<%T>", tok)
	}
	return out
}
