// Package inputs maps query tokens to backends. A token may name a keyword
// source ("proc", "rpm"), standard input ("-") or a file, whose type is
// decided by an ordered chain of recognizers.
package inputs

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"squeal/internal/config"
	"squeal/internal/source"
	"squeal/internal/system"
)

// Recognizer maps a token to a backend. (nil, nil) means the token is not
// this recognizer's kind of input. A BackendUnavailableError makes the
// registry try the next recognizer.
type Recognizer struct {
	Name      string
	Recognize func(r *Registry, c *Candidate) (source.Backend, error)
}

// Registry resolves tokens to backends
type Registry struct {
	// Recognizers are tried in order; the first match wins
	Recognizers []Recognizer

	// Stdin is read by the "-" token
	Stdin io.Reader
	// Split configures the generic text backend
	Split source.SplitOptions
	// PathRules route well-known log files to their format backends
	PathRules []PathRule
	// ConfigDirs hold files that get the config tree treatment
	ConfigDirs []string
	Sniffer    Sniffer

	// ProcRoot and RpmProgram configure the keyword sources
	ProcRoot   string
	RpmProgram string

	Log *slog.Logger
}

// NewRegistry returns a registry with the default recognizer chain
func NewRegistry(stdin io.Reader, split source.SplitOptions, log *slog.Logger) *Registry {
	if log == nil {
		log = slog.Default()
	}
	return &Registry{
		Recognizers: DefaultRecognizers(),
		Stdin:       stdin,
		Split:       split,
		PathRules:   DefaultPathRules(),
		ConfigDirs:  []string{config.DefaultConfigDir},
		Sniffer:     DefaultSniffer(),
		ProcRoot:    system.DefaultProcRoot,
		RpmProgram:  "rpm",
		Log:         log,
	}
}

// DefaultRecognizers returns the standard chain
func DefaultRecognizers() []Recognizer {
	return []Recognizer{
		{Name: "keyword", Recognize: recognizeKeyword},
		{Name: "stdin", Recognize: recognizeStdin},
		{Name: "path rule", Recognize: recognizePathRule},
		{Name: "capture", Recognize: recognizeCapture},
		{Name: "archive", Recognize: recognizeArchive},
		{Name: "config tree", Recognize: recognizeConfigTree},
		{Name: "csv", Recognize: recognizeCSV},
		{Name: "text", Recognize: recognizeText},
	}
}

// Candidate is a token being resolved. File metadata and the content
// description are looked up at most once.
type Candidate struct {
	Token string

	statDone bool
	path     string
	regular  bool

	sniffDone bool
	desc      string
	sniffErr  error
}

// Regular reports whether the token names an existing regular file
func (c *Candidate) Regular() bool {
	if !c.statDone {
		c.statDone = true
		if info, err := os.Stat(c.Token); err == nil && info.Mode().IsRegular() {
			c.regular = true
			c.path = c.Token
			if abs, err := filepath.Abs(c.Token); err == nil {
				c.path = abs
			}
		}
	}
	return c.regular
}

// Path returns the absolute path of a regular file token
func (c *Candidate) Path() string {
	c.Regular()
	return c.path
}

func (c *Candidate) sniff(s Sniffer) (string, error) {
	if !c.sniffDone {
		c.sniffDone = true
		c.desc, c.sniffErr = s.Sniff(c.Token)
	}
	return c.desc, c.sniffErr
}

// Resolve returns the backend for a token, or (nil, nil) when the token is
// not an input. Pre-built backends are returned unchanged. If no recognizer
// matched and the last one tried reported its backend unavailable, that
// error is returned.
func (r *Registry) Resolve(token any) (source.Backend, error) {
	if b, ok := token.(source.Backend); ok {
		return b, nil
	}
	s, ok := token.(string)
	if !ok {
		return nil, nil
	}

	c := &Candidate{Token: s}
	var lastErr error
	for _, rec := range r.Recognizers {
		b, err := rec.Recognize(r, c)
		if err != nil {
			if !source.IsUnavailable(err) {
				return nil, err
			}
			r.logger().Warn("input backend unavailable", "token", s, "recognizer", rec.Name, "error", err)
			lastErr = err
			continue
		}
		lastErr = nil
		if b != nil {
			r.logger().Info("resolved input", "token", s, "recognizer", rec.Name)
			return b, nil
		}
	}
	return nil, lastErr
}

func (r *Registry) logger() *slog.Logger {
	if r.Log == nil {
		return slog.Default()
	}
	return r.Log
}

// underDir returns path relative to dir when path lies inside it
func underDir(path, dir string) (string, bool) {
	dir = filepath.Clean(dir)
	rel, err := filepath.Rel(dir, path)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", false
	}
	return filepath.ToSlash(rel), true
}
