// Package main provides the CLI entry point for squeal, which runs SQL-style
// queries over log files, archives, system tables and other text sources
package main

import (
	"errors"
	"os"

	"github.com/fatih/color"

	"squeal/internal/commands"
)

func main() {
	env := commands.DefaultEnv()

	err := commands.NewRootCommand(env).Execute()
	// An empty result is not worth a message; the exit status says it
	if err != nil && !errors.Is(err, commands.ErrNoMatches) {
		color.New(color.FgRed).Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(commands.ExitCode(err))
}
