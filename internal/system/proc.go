// Package system provides backends over the running machine: the process
// table and the installed-package database
package system

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"squeal/internal/models"
	"squeal/internal/source"
)

// DefaultProcRoot is the mount point of the proc filesystem
const DefaultProcRoot = "/proc"

// Proc is a backend with one row per running process
type Proc struct {
	Root string
}

// NewProc creates a process table backend reading root, or DefaultProcRoot
// when root is empty
func NewProc(root string) *Proc {
	if root == "" {
		root = DefaultProcRoot
	}
	return &Proc{Root: root}
}

// ProcSchema returns the columns of the process table
func ProcSchema() models.Schema {
	return models.Schema{
		models.IntColumn("pid"),
		models.IntColumn("ppid"),
		models.TextColumn("comm"),
		models.TextColumn("state"),
		models.TextColumn("cmdline"),
	}
}

func (p *Proc) Columns() models.Schema { return ProcSchema() }

func (p *Proc) Rows() iter.Seq2[models.Row, error] {
	return func(yield func(models.Row, error) bool) {
		entries, err := os.ReadDir(p.Root)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				err = source.Unavailable("proc", err)
			}
			yield(nil, err)
			return
		}

		pids := make([]int64, 0, len(entries))
		for _, e := range entries {
			if pid, err := strconv.ParseInt(e.Name(), 10, 64); err == nil && e.IsDir() {
				pids = append(pids, pid)
			}
		}
		sort.Slice(pids, func(i, j int) bool { return pids[i] < pids[j] })

		for _, pid := range pids {
			row, err := p.readProcess(pid)
			if errors.Is(err, fs.ErrNotExist) {
				// exited while we were scanning
				continue
			}
			if !yield(row, err) {
				return
			}
		}
	}
}

func (p *Proc) readProcess(pid int64) (models.Row, error) {
	dir := filepath.Join(p.Root, strconv.FormatInt(pid, 10))

	stat, err := os.ReadFile(filepath.Join(dir, "stat"))
	if err != nil {
		return nil, err
	}
	row, err := parseStat(string(stat))
	if err != nil {
		return nil, &source.UnmatchedLineError{Source: filepath.Join(dir, "stat"), Line: 1, Text: string(stat), Err: err}
	}
	row["pid"] = pid

	cmdline, err := os.ReadFile(filepath.Join(dir, "cmdline"))
	if err != nil {
		return nil, err
	}
	row["cmdline"] = formatCmdline(cmdline)
	return row, nil
}

// parseStat extracts comm, state and ppid from /proc/<pid>/stat. The command
// name is parenthesized and may itself contain spaces or parentheses.
func parseStat(stat string) (models.Row, error) {
	open := strings.IndexByte(stat, '(')
	end := strings.LastIndexByte(stat, ')')
	if open < 0 || end < open {
		return nil, fmt.Errorf("malformed stat line")
	}

	fields := strings.Fields(stat[end+1:])
	if len(fields) < 2 {
		return nil, fmt.Errorf("malformed stat line")
	}
	ppid, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid ppid %q: %w", fields[1], err)
	}

	return models.Row{
		"comm":  stat[open+1 : end],
		"state": fields[0],
		"ppid":  ppid,
	}, nil
}

// formatCmdline joins the NUL-separated argument vector with spaces
func formatCmdline(raw []byte) string {
	raw = bytes.TrimRight(raw, "\x00")
	return string(bytes.ReplaceAll(raw, []byte{0}, []byte{' '}))
}
