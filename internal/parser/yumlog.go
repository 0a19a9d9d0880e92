package parser

import (
	"regexp"

	"squeal/internal/models"
	"squeal/internal/source"
)

const yumDate = `(\S\S\S \d\d \d\d:\d\d:\d\d)`

// yumPatterns are tried in order; the first match wins. Each names the
// columns its groups fill.
var yumPatterns = []struct {
	re    *regexp.Regexp
	names []string
}{
	{
		// "Apr 04 16:04:34 Updated: eclipse-cdt.i386 1:3.0.2-1jpp_3fc"
		regexp.MustCompile(`^` + yumDate + ` (\S+): (\S+)\.(\S+) (\S+):(\S+)-(\S+)`),
		[]string{"time", "event", "name", "arch", "epoch", "version", "release"},
	},
	{
		// "Apr 04 16:08:07 Installed: kernel-devel.i686 2.6.16-1.2118_FC6"
		regexp.MustCompile(`^` + yumDate + ` (\S+): (\S+)\.(\S+) (\S+)-(\S+)`),
		[]string{"time", "event", "name", "arch", "version", "release"},
	},
	{
		// "Feb 14 19:04:59 Updated: 1:net-snmp-libs-5.4.2.1-2.fc10.i386"
		regexp.MustCompile(`^` + yumDate + ` (\S+): (\S+):(\S+)-(\S+)-(\S+)\.(\S+)`),
		[]string{"time", "event", "epoch", "name", "version", "release", "arch"},
	},
	{
		// "Mar 18 21:29:17 Installed: ipython-0.8.4-1.fc10.noarch"
		regexp.MustCompile(`^` + yumDate + ` (\S+): (\S+)-(\S+)-(\S+)\.(\S+)`),
		[]string{"time", "event", "name", "version", "release", "arch"},
	},
	{
		// "Nov 19 21:59:43 Updated: SDL_mixer - 1.2.8-4.fc8.i386"
		regexp.MustCompile(`^` + yumDate + ` (\S+): (\S+) - (\S+)-(\S+)\.(\S+)`),
		[]string{"time", "event", "name", "version", "release", "arch"},
	},
	{
		// "Dec 18 14:21:26 Erased: Django-docs"
		regexp.MustCompile(`^` + yumDate + ` (\S+): (\S+)`),
		[]string{"time", "event", "name"},
	},
}

// YumSchema returns the columns of /var/log/yum.log
func YumSchema() models.Schema {
	return models.Schema{
		models.TextColumn("time"),
		models.TextColumn("event"),
		models.TextColumn("name"),
		models.TextColumn("arch"),
		models.TextColumn("epoch"),
		models.TextColumn("version"),
		models.TextColumn("release"),
	}
}

// ParseYumLine parses one yum.log line
func ParseYumLine(line string) (models.Row, error) {
	for _, p := range yumPatterns {
		if m := p.re.FindStringSubmatch(line); m != nil {
			return groups(p.names, m), nil
		}
	}
	return nil, errNoMatch
}

// NewYumLog creates a backend for a yum transaction log
func NewYumLog(filename string) *source.LineFile {
	return source.NewLineFile(filename, YumSchema(), ParseYumLine)
}
