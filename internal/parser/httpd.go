package parser

import (
	"squeal/internal/models"
	"squeal/internal/source"
)

// httpdCombined matches the Apache "combined" LogFormat:
//
//	LogFormat "%h %l %u %t \"%r\" %>s %b \"%{Referer}i\" \"%{User-Agent}i\"" combined
//
// The referer and user agent are accepted but not captured.
var httpdCombined = new(LineParser).
	Column(models.TextColumn("host"), `([0-9]+\.[0-9]+\.[0-9]+\.[0-9]+)`).
	Literal(` `).
	Column(models.TextColumn("remote_logname"), `(.*)`).
	Literal(` `).
	Column(models.TextColumn("user"), `(.*)`).
	Literal(` `).
	Column(models.TextColumn("timestamp"), `\[(.+)\]`).
	Literal(` `).
	Column(models.TextColumn("request"), `"(.*)"`).
	Literal(` `).
	Column(models.SentinelColumn("status"), `([0-9]+)`).
	Literal(` `).
	Column(models.SentinelColumn("size"), `([0-9]+|-)`).
	Literal(`(?:.*)`)

// ParseHttpdLine parses one access log line
var ParseHttpdLine = httpdCombined.Compile()

// HttpdSchema returns the columns of an httpd access log
func HttpdSchema() models.Schema { return httpdCombined.Schema() }

// NewHttpdLog creates a backend for an Apache access log
func NewHttpdLog(filename string) *source.LineFile {
	return source.NewLineFile(filename, HttpdSchema(), ParseHttpdLine)
}
