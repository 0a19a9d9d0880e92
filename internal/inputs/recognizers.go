package inputs

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"

	"squeal/internal/archive"
	"squeal/internal/capture"
	"squeal/internal/configtree"
	"squeal/internal/parser"
	"squeal/internal/source"
	"squeal/internal/system"
)

// PathRule routes files whose absolute path matches Pattern to a format
type PathRule struct {
	Format  string
	Pattern *regexp.Regexp
	Open    func(path string) source.Backend
}

// DefaultPathRules returns the rules for the standard log locations
func DefaultPathRules() []PathRule {
	return []PathRule{
		{
			Format:  "httpd",
			Pattern: regexp.MustCompile(`^/var/log/httpd/(ssl_)?access_log`),
			Open:    func(path string) source.Backend { return parser.NewHttpdLog(path) },
		},
		{
			Format:  "yum",
			Pattern: regexp.MustCompile(`^/var/log/yum\.log`),
			Open:    func(path string) source.Backend { return parser.NewYumLog(path) },
		},
		{
			Format:  "syslog",
			Pattern: regexp.MustCompile(`^/var/log/(messages|secure)`),
			Open:    func(path string) source.Backend { return parser.NewSyslog(path) },
		},
		{
			Format:  "maillog",
			Pattern: regexp.MustCompile(`^/var/log/maillog`),
			Open:    func(path string) source.Backend { return parser.NewMailLog(path) },
		},
	}
}

func recognizeKeyword(r *Registry, c *Candidate) (source.Backend, error) {
	switch c.Token {
	case "proc":
		return system.NewProc(r.ProcRoot), nil
	case "rpm":
		return system.NewRpmDB(r.RpmProgram), nil
	}
	return nil, nil
}

func recognizeStdin(r *Registry, c *Candidate) (source.Backend, error) {
	if c.Token != "-" {
		return nil, nil
	}
	return source.NewStream("-", r.Stdin, nil, r.Split)
}

func recognizePathRule(r *Registry, c *Candidate) (source.Backend, error) {
	if !c.Regular() {
		return nil, nil
	}
	for _, rule := range r.PathRules {
		if rule.Pattern.MatchString(c.Path()) {
			r.logger().Info("path rule matched", "path", c.Path(), "format", rule.Format)
			return rule.Open(c.Token), nil
		}
	}
	return nil, nil
}

func recognizeCapture(r *Registry, c *Candidate) (source.Backend, error) {
	if !c.Regular() {
		return nil, nil
	}
	desc, err := c.sniff(r.Sniffer)
	if err != nil {
		return nil, err
	}
	if !isCapture(desc) {
		return nil, nil
	}
	if _, err := exec.LookPath(capture.Program); err != nil {
		return nil, source.Unavailable(capture.Program, err)
	}
	return capture.NewCapture(c.Token), nil
}

func recognizeArchive(r *Registry, c *Candidate) (source.Backend, error) {
	if !c.Regular() {
		return nil, nil
	}
	format, err := archive.Detect(c.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect %s: %w", c.Token, err)
	}
	if format == archive.Unknown {
		return nil, nil
	}
	return archive.Open(c.Token, format)
}

func recognizeConfigTree(r *Registry, c *Candidate) (source.Backend, error) {
	if !c.Regular() {
		return nil, nil
	}
	for _, dir := range r.ConfigDirs {
		rel, ok := underDir(c.Path(), dir)
		if !ok {
			continue
		}
		lens := configtree.Lookup(rel)
		if lens == nil {
			continue
		}
		b, err := configtree.Load(c.Token, lens)
		if err != nil {
			// Still queryable as plain text further down the chain
			r.logger().Info("config lens rejected file", "path", c.Token, "lens", lens.Name(), "error", err)
			return nil, nil
		}
		return b, nil
	}
	return nil, nil
}

// recognizeCSV applies only when the user has not asked for explicit
// splitting, which would otherwise be ignored
func recognizeCSV(r *Registry, c *Candidate) (source.Backend, error) {
	if !c.Regular() || r.Split.Regex != "" || r.Split.Separator != "" {
		return nil, nil
	}
	ext := strings.ToLower(filepath.Ext(c.Token))
	if ext != ".csv" && ext != ".tsv" {
		return nil, nil
	}
	b, err := parser.NewCSVFile(c.Token)
	if err != nil {
		r.logger().Info("csv detection failed", "path", c.Token, "error", err)
		return nil, nil
	}
	return b, nil
}

func recognizeText(r *Registry, c *Candidate) (source.Backend, error) {
	if !c.Regular() {
		return nil, nil
	}
	desc, err := c.sniff(r.Sniffer)
	if err != nil {
		return nil, err
	}
	if !isTextual(desc) {
		r.logger().Info("not a textual file", "path", c.Token, "type", desc)
		return nil, nil
	}

	f, err := os.Open(c.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", c.Token, err)
	}
	s, err := source.NewStream(c.Token, f, f, r.Split)
	if err != nil {
		f.Close()
		return nil, err
	}
	return s, nil
}
