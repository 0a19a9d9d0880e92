package commands

import (
	"context"
	"fmt"
	"log/slog"

	"squeal/internal/config"
	"squeal/internal/database"
	"squeal/internal/inputs"
	"squeal/internal/query"
	"squeal/internal/source"
)

// loadedQuery is a parsed query whose input has been loaded into a store
type loadedQuery struct {
	query  *query.ParsedQuery
	store  *database.Store
	handle *database.Handle
}

func (l *loadedQuery) Close() error {
	return l.store.Close()
}

// newRegistry configures input dispatch from the options
func newRegistry(env Env, opts config.Options, log *slog.Logger) *inputs.Registry {
	reg := inputs.NewRegistry(env.Stdin, source.SplitOptions{
		Regex:     opts.InputRegex,
		Separator: opts.FieldSeparator,
	}, log)
	if len(opts.ConfigDirs) > 0 {
		reg.ConfigDirs = opts.ConfigDirs
	}
	return reg
}

// loadQuery parses the arguments, resolves the inputs and loads every row
// into a fresh in-memory store
func loadQuery(ctx context.Context, env Env, opts config.Options, args []string, log *slog.Logger) (*loadedQuery, error) {
	tokens := make([]any, len(args))
	for i, arg := range args {
		tokens[i] = arg
	}

	q, err := query.Parse(tokens, newRegistry(env, opts, log), log)
	if err != nil {
		return nil, err
	}

	store, err := database.Open(ctx, opts.Driver, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	handle, err := store.Load(ctx, q.Backend)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to load %s: %w", describeInput(q.Backend), err)
	}

	return &loadedQuery{query: q, store: store, handle: handle}, nil
}

func describeInput(b source.Backend) string {
	if name := source.FilenameOf(b); name != "" {
		return name
	}
	return "input"
}
