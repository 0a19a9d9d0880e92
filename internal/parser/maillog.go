package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"squeal/internal/models"
	"squeal/internal/source"
)

var (
	mailLine    = regexp.MustCompile(`^(\S\S\S [ 0-9][0-9] [0-9][0-9]:[0-9][0-9]:[0-9][0-9]) (\S+) (\S+)\[([0-9]+)\]: (.+)`)
	sendmailMsg = regexp.MustCompile(`^(.*): (.*)`)
	sendmailKV  = regexp.MustCompile(`^(\S+)=(.+)`)
)

// sendmailIntKeys are the sendmail attributes stored as integers
var sendmailIntKeys = map[string]bool{"size": true, "class": true, "nrcpts": true, "pri": true}

// MailLogSchema returns the columns of /var/log/maillog. Attributes whose
// names are SQL reserved words get a trailing underscore.
func MailLogSchema() models.Schema {
	return models.Schema{
		models.TextColumn("time"),
		models.TextColumn("hostname"),
		models.TextColumn("program"),
		models.IntColumn("pid"),
		models.TextColumn("message"),

		// sendmail attributes
		models.TextColumn("from_"),
		models.TextColumn("to_"),
		models.IntColumn("size"),
		models.IntColumn("class"),
		models.IntColumn("nrcpts"),
		models.TextColumn("msgid"),
		models.TextColumn("relay"),
		models.TextColumn("stat"),
	}
}

// ParseMailLine parses one maillog line. For sendmail entries the
// "key=value, key=value" message body is split into attribute columns.
func ParseMailLine(line string) (models.Row, error) {
	m := mailLine.FindStringSubmatch(line)
	if m == nil {
		return nil, errNoMatch
	}
	pid, err := strconv.ParseInt(m[4], 10, 64)
	if err != nil {
		return nil, err
	}
	row := models.Row{
		"time":     m[1],
		"hostname": m[2],
		"program":  m[3],
		"pid":      pid,
		"message":  m[5],
	}
	if row["program"] != "sendmail" {
		return row, nil
	}

	body := sendmailMsg.FindStringSubmatch(m[5])
	if body == nil {
		return row, nil
	}
	for _, kv := range strings.Split(body[2], ", ") {
		pair := sendmailKV.FindStringSubmatch(kv)
		if pair == nil {
			continue
		}
		key, value := pair[1], pair[2]
		if key == "from" || key == "to" {
			key += "_"
		}
		if sendmailIntKeys[key] {
			n, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("sendmail %s: %w", key, err)
			}
			row[key] = n
			continue
		}
		row[key] = value
	}
	return row, nil
}

// NewMailLog creates a backend for a mail log
func NewMailLog(filename string) *source.LineFile {
	return source.NewLineFile(filename, MailLogSchema(), ParseMailLine)
}
