// Package config provides shared configuration constants, the optional
// defaults file and the logger setup for squeal
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	// AppName is used for the defaults file directory
	AppName = "squeal"

	// DefaultTableName is the table every backend is loaded into
	DefaultTableName = "lines"

	// DefaultDriver is the database/sql driver used for the in-memory store
	DefaultDriver = "sqlite3"

	// PureGoDriver is the cgo-free alternative driver
	PureGoDriver = "sqlite"

	// DefaultFormat is the non-interactive output format
	DefaultFormat = "table"

	// DefaultConfigDir is where configuration files get the config tree treatment
	DefaultConfigDir = "/etc/"

	// ConfigFileName is the defaults file looked up in the user config directory
	ConfigFileName = "config.yaml"

	// Flag descriptions
	FormatDescription         = "Output format for non-interactive use (table, html, text)"
	DebugLevelDescription     = "Diagnostic verbosity, 0-9"
	FieldSeparatorDescription = "Field separator for generic text input"
	InputRegexDescription     = "Regular expression with capture groups for generic text input (wins over --field-separator)"
	DriverDescription         = "SQLite driver: sqlite3 (cgo) or sqlite (pure Go)"
	ConfigDescription         = "Path to a YAML defaults file"

	// Debug levels
	InfoDebugLevel = 1 // options, arguments and dispatch decisions
	SQLDebugLevel  = 5 // generated SQL statements

	// Schema detection settings
	SchemaDetectionSampleSize = 1000
	TypeInferenceThreshold    = 1.0 // every sampled value must parse for a column to be INTEGER
)

// Options holds the settings that can come from the defaults file and be
// overridden by flags
type Options struct {
	Format         string   `yaml:"format"`
	DebugLevel     int      `yaml:"debug_level"`
	FieldSeparator string   `yaml:"field_separator"`
	InputRegex     string   `yaml:"input_regex"`
	Driver         string   `yaml:"driver"`
	ConfigDirs     []string `yaml:"config_dirs"`
}

// Defaults returns the built-in options
func Defaults() Options {
	return Options{
		Format:     DefaultFormat,
		Driver:     DefaultDriver,
		ConfigDirs: []string{DefaultConfigDir},
	}
}

// DefaultPath returns the per-user defaults file path, or "" when the user
// config directory cannot be determined
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, AppName, ConfigFileName)
}

// Load reads the YAML defaults file at path on top of Defaults. A missing
// file is not an error unless required is set.
func Load(path string, required bool) (Options, error) {
	opts := Defaults()
	if path == "" {
		return opts, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !required {
			return opts, nil
		}
		return opts, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &opts); err != nil {
		return opts, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := opts.Validate(); err != nil {
		return opts, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return opts, nil
}

// Validate checks option values that can be verified without running a query
func (o Options) Validate() error {
	if o.DebugLevel < 0 || o.DebugLevel > 9 {
		return fmt.Errorf("debug level %d out of range 0-9", o.DebugLevel)
	}
	switch o.Driver {
	case DefaultDriver, PureGoDriver:
	default:
		return fmt.Errorf("unknown driver %q", o.Driver)
	}
	return nil
}

// LogLevel maps a debug level to a slog level
func LogLevel(debugLevel int) slog.Level {
	switch {
	case debugLevel >= SQLDebugLevel:
		return slog.LevelDebug
	case debugLevel >= InfoDebugLevel:
		return slog.LevelInfo
	default:
		return slog.LevelWarn
	}
}

// NewLogger returns a text logger writing to w at the level for debugLevel
func NewLogger(w io.Writer, debugLevel int) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: LogLevel(debugLevel)}))
}
