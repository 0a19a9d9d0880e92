package parser

import (
	"regexp"
	"strconv"

	"squeal/internal/models"
	"squeal/internal/source"
)

var (
	syslogWithPID    = regexp.MustCompile(`^(\S\S\S [ 0-9][0-9] [0-9][0-9]:[0-9][0-9]:[0-9][0-9]) (\S+) (\S+)\[([0-9]+)\]: (.+)`)
	syslogWithoutPID = regexp.MustCompile(`^(\S\S\S [ 0-9][0-9] [0-9][0-9]:[0-9][0-9]:[0-9][0-9]) (\S+) (\S+): (.+)`)
)

// SyslogSchema returns the columns of a syslog file such as /var/log/messages
func SyslogSchema() models.Schema {
	return models.Schema{
		models.TextColumn("time"),
		models.TextColumn("hostname"),
		models.TextColumn("source"),
		models.IntColumn("pid"),
		models.TextColumn("message"),
	}
}

// ParseSyslogLine parses one syslog line; the pid is absent when the
// source did not log one
func ParseSyslogLine(line string) (models.Row, error) {
	if m := syslogWithPID.FindStringSubmatch(line); m != nil {
		pid, err := strconv.ParseInt(m[4], 10, 64)
		if err != nil {
			return nil, err
		}
		return models.Row{
			"time":     m[1],
			"hostname": m[2],
			"source":   m[3],
			"pid":      pid,
			"message":  m[5],
		}, nil
	}

	if m := syslogWithoutPID.FindStringSubmatch(line); m != nil {
		return models.Row{
			"time":     m[1],
			"hostname": m[2],
			"source":   m[3],
			"message":  m[4],
		}, nil
	}

	return nil, errNoMatch
}

// NewSyslog creates a backend for a syslog file
func NewSyslog(filename string) *source.LineFile {
	return source.NewLineFile(filename, SyslogSchema(), ParseSyslogLine)
}
