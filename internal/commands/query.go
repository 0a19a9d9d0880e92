package commands

import (
	"context"
	"fmt"

	"squeal/internal/browser"
	"squeal/internal/config"
	"squeal/internal/render"
)

// runQuery loads the inputs, executes the query and shows the result either
// with a formatter or in the interactive browser
func runQuery(ctx context.Context, env Env, opts config.Options, mode render.OutputMode, args []string) error {
	log := config.NewLogger(env.Stderr, opts.DebugLevel)
	log.Info("options", "format", opts.Format, "debug_level", opts.DebugLevel,
		"field_separator", opts.FieldSeparator, "input_regex", opts.InputRegex,
		"driver", opts.Driver, "mode", mode)
	log.Info("arguments", "args", args)

	// Fail on a bad format before doing any work
	formatter, err := render.Lookup(opts.Format)
	if err != nil {
		return err
	}

	loaded, err := loadQuery(ctx, env, opts, args, log)
	if err != nil {
		return err
	}
	defer loaded.Close()

	q := loaded.query
	res, err := loaded.handle.Query(ctx, q.Distinct, q.SelectList, q.Clause)
	if err != nil {
		return err
	}
	defer res.Close()

	var rows int
	if mode == render.Interactive {
		rows, err = browser.Run(ctx, res, nil, env.Stdout)
	} else {
		rows, err = formatter(res, env.Stdout)
	}
	if err != nil {
		return fmt.Errorf("failed to display results: %w", err)
	}

	log.Info("query finished", "rows", rows, "skipped", loaded.handle.Stats.Skipped)
	if rows == 0 {
		return ErrNoMatches
	}
	return nil
}
