// Package commands implements the squeal command line
package commands

import (
	"errors"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"squeal/internal/config"
	"squeal/internal/query"
	"squeal/internal/render"
)

// ErrNoMatches is returned when a query ran successfully but produced no rows
var ErrNoMatches = errors.New("no matching rows")

// Env is the process environment a command runs in
type Env struct {
	Stdin      io.Reader
	Stdout     io.Writer
	Stderr     io.Writer
	IsTerminal func() bool
}

// DefaultEnv uses the process's standard streams
func DefaultEnv() Env {
	return Env{
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		IsTerminal: func() bool {
			return term.IsTerminal(int(os.Stdout.Fd()))
		},
	}
}

// ExitCode maps the result of running the root command to a process exit
// status: 0 when rows were produced, 1 for no rows, 2 for any error
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrNoMatches):
		return 1
	default:
		return 2
	}
}

// NewRootCommand creates the squeal command
// Usage: squeal [flags] [[COL1 COL2 ... | *] from] (FILE | DATASRC) ... [CLAUSE ...]
func NewRootCommand(env Env) *cobra.Command {
	var (
		configPath string
		flagOpts   config.Options
	)

	cmd := &cobra.Command{
		Use:   "squeal [flags] [[COL1 COL2 ... | *] from] (FILE | DATASRC) ... [CLAUSE ...]",
		Short: "Run SQL-style queries over log files and other data sources",
		Long: `Squeal loads a data source into an in-memory SQLite table called "lines" and
runs a SELECT over it. Everything after the last input is passed to SQLite as-is.

Data sources:
  FILE      log files (httpd, yum, syslog, maillog), tcpdump captures, zip/tar/rpm
            archives, files under /etc, CSV files, or any text file
  proc      the process table
  rpm       the installed package database
  -         standard input

Several files can be queried together; rows then get a "filename" column.
CSV files use their header row for column names; -F or -r reads them as plain
text with col0, col1, ... columns instead.

Examples:
  squeal count, host from /var/log/httpd/access_log group by host order by count desc
  squeal "*" from rpm where vendor like '%Red Hat%'
  ps aux | squeal -F ' ' col0, col10 from - where col2 > 1.0

On a terminal the result opens in an interactive browser; use --format to print it.

Exit status is 0 when rows were produced, 1 when there were none and 2 on error.`,
		Args:          cobra.ArbitraryArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := config.Load(configPath, cmd.Flags().Changed("config"))
			if err != nil {
				return err
			}
			opts = mergeFlags(cmd, opts, flagOpts)
			if err := opts.Validate(); err != nil {
				return err
			}

			if len(args) == 0 {
				return &query.NoInputsError{}
			}

			mode := render.Mode(cmd.Flags().Changed("format"), env.IsTerminal)
			return runQuery(cmd.Context(), env, opts, mode, args)
		},
	}

	// Flags must come before the query so that clause text like "size > -1"
	// is never taken for a flag
	cmd.Flags().SetInterspersed(false)

	cmd.Flags().StringVarP(&flagOpts.Format, "format", "f", config.DefaultFormat, config.FormatDescription)
	cmd.Flags().IntVarP(&flagOpts.DebugLevel, "debug-level", "d", 0, config.DebugLevelDescription)
	cmd.Flags().StringVarP(&flagOpts.FieldSeparator, "field-separator", "F", "", config.FieldSeparatorDescription)
	cmd.Flags().StringVarP(&flagOpts.InputRegex, "input-regex", "r", "", config.InputRegexDescription)
	cmd.Flags().StringVar(&flagOpts.Driver, "driver", config.DefaultDriver, config.DriverDescription)
	cmd.Flags().StringVar(&configPath, "config", config.DefaultPath(), config.ConfigDescription)

	return cmd
}

// mergeFlags overrides file options with the flags given on the command line
func mergeFlags(cmd *cobra.Command, opts, flags config.Options) config.Options {
	changed := cmd.Flags().Changed
	if changed("format") {
		opts.Format = flags.Format
	}
	if changed("debug-level") {
		opts.DebugLevel = flags.DebugLevel
	}
	if changed("field-separator") {
		opts.FieldSeparator = flags.FieldSeparator
	}
	if changed("input-regex") {
		opts.InputRegex = flags.InputRegex
	}
	if changed("driver") {
		opts.Driver = flags.Driver
	}
	return opts
}
