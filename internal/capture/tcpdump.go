// Package capture decodes packet capture files by running tcpdump and
// parsing its link-level text output
package capture

import (
	"strings"

	"squeal/internal/models"
	"squeal/internal/parser"
	"squeal/internal/source"
)

// Program is the external decoder
const Program = "tcpdump"

var macGroup = `(` + strings.TrimSuffix(strings.Repeat(`\S\S:`, 6), ":") + `)`

// ouiGroup is the optional vendor annotation after a MAC address. Builds
// without the oui table, and runs with -n, leave it out.
var ouiGroup = `(?: \(oui (.+?)\))?`

// tcpdumpLine matches "tcpdump -tt -e" output such as
//
//	1238011456.245629 00:1d:7e:5a:10:22 (oui Unknown) > 00:21:5c:8e:13:2f (oui Unknown), ethertype IPv4 (0x0800), length 98: 192.168.1.1 > 192.168.1.2: ICMP echo request
//	1238011456.245629 00:1d:7e:5a:10:22 > 00:21:5c:8e:13:2f, ethertype IPv4 (0x0800), length 98: 192.168.1.1 > 192.168.1.2: ICMP echo request
//
// Frames with a named destination, such as "Broadcast", do not match.
var tcpdumpLine = new(parser.LineParser).
	Column(models.TextColumn("timestamp"), `([0-9]+\.[0-9]+)`).
	Literal(` `).
	Column(models.TextColumn("src_mac"), macGroup).
	Column(models.TextColumn("src_oui"), ouiGroup).
	Literal(` > `).
	Column(models.TextColumn("dst_mac"), macGroup).
	Column(models.TextColumn("dst_oui"), ouiGroup).
	Literal(`, ethertype `).
	Column(models.TextColumn("ethertype"), `(\S+)`).
	Literal(` `).
	Column(models.TextColumn("ethertype_hex"), `\((\S+)\)`).
	Literal(`, length `).
	Column(models.IntColumn("length"), `([0-9]+)`).
	Literal(`: `).
	Column(models.TextColumn("src_host"), `(\S+)`).
	Literal(` > `).
	Column(models.TextColumn("dst_host"), `(\S+)`).
	Literal(`: `).
	Column(models.TextColumn("details"), `(.*)$`)

var parseFields = tcpdumpLine.Compile()

// ParseLine parses one line of tcpdump output. A missing oui annotation
// leaves its column absent, so it loads as NULL.
func ParseLine(line string) (models.Row, error) {
	row, err := parseFields(line)
	if err != nil {
		return nil, err
	}
	for _, name := range []string{"src_oui", "dst_oui"} {
		if row[name] == "" {
			delete(row, name)
		}
	}
	return row, nil
}

// Schema returns the columns of a decoded capture
func Schema() models.Schema { return tcpdumpLine.Schema() }

// NewCapture creates a backend decoding the capture file with tcpdump.
// When tcpdump is not installed the rows fail with BackendUnavailableError.
func NewCapture(filename string) *source.LineFile {
	lf := source.NewLineFile(filename, Schema(), ParseLine)
	lf.Open = source.CommandOutput(Program, Program, "-tt", "-e", "-r", filename)
	return lf
}
