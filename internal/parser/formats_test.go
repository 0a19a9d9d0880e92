package parser

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"squeal/internal/models"
	"squeal/internal/source"
)

func TestParseHttpdLine(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		want    models.Row
		wantErr bool
	}{
		{
			name: "common format",
			line: `127.0.0.1 - - [16/Feb/2009:15:08:29 -0500] "GET /foo.css HTTP/1.1" 200 2261`,
			want: models.Row{
				"host":           "127.0.0.1",
				"remote_logname": "-",
				"user":           "-",
				"timestamp":      "16/Feb/2009:15:08:29 -0500",
				"request":        "GET /foo.css HTTP/1.1",
				"status":         int64(200),
				"size":           int64(2261),
			},
		},
		{
			name: "authenticated user",
			line: `127.0.0.1 - jdoe@EXAMPLE.COM [15/Apr/2009:04:26:15 +0800] "GET /favicon.ico HTTP/1.1" 404 1346`,
			want: models.Row{
				"host":           "127.0.0.1",
				"remote_logname": "-",
				"user":           "jdoe@EXAMPLE.COM",
				"timestamp":      "15/Apr/2009:04:26:15 +0800",
				"request":        "GET /favicon.ico HTTP/1.1",
				"status":         int64(404),
				"size":           int64(1346),
			},
		},
		{
			name: "missing size is no value",
			line: `10.0.0.1 - - [16/Feb/2009:15:08:29 -0500] "HEAD / HTTP/1.0" 304 -`,
			want: models.Row{
				"host":           "10.0.0.1",
				"remote_logname": "-",
				"user":           "-",
				"timestamp":      "16/Feb/2009:15:08:29 -0500",
				"request":        "HEAD / HTTP/1.0",
				"status":         int64(304),
				"size":           nil,
			},
		},
		{
			name:    "garbage",
			line:    "not an access log line",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseHttpdLine(tt.line)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseHttpdLine() error = %v, wantErr %v", err, tt.wantErr)
			}
			assertRow(t, got, tt.want)
		})
	}
}

func TestHttpdSchema(t *testing.T) {
	want := "host remote_logname user timestamp request status size"
	if got := strings.Join(HttpdSchema().Names(), " "); got != want {
		t.Errorf("HttpdSchema() = %q, want %q", got, want)
	}
	if err := HttpdSchema().Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestParseSyslogLine(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		want    models.Row
		wantErr bool
	}{
		{
			name: "with pid",
			line: "Feb 16 15:08:29 myhost sshd[2201]: Accepted publickey for root",
			want: models.Row{
				"time":     "Feb 16 15:08:29",
				"hostname": "myhost",
				"source":   "sshd",
				"pid":      int64(2201),
				"message":  "Accepted publickey for root",
			},
		},
		{
			name: "without pid",
			line: "Mar  1 04:02:01 myhost kernel: eth0: link up",
			want: models.Row{
				"time":     "Mar  1 04:02:01",
				"hostname": "myhost",
				"source":   "kernel",
				"message":  "eth0: link up",
			},
		},
		{
			name:    "garbage",
			line:    "-- MARK --",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSyslogLine(tt.line)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseSyslogLine() error = %v, wantErr %v", err, tt.wantErr)
			}
			assertRow(t, got, tt.want)
			if _, ok := got["pid"]; tt.want != nil && tt.want["pid"] == nil && ok {
				t.Errorf("pid present for a line without one: %v", got)
			}
		})
	}
}

func TestParseYumLine(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		want    models.Row
		wantErr bool
	}{
		{
			name: "name.arch epoch:version-release",
			line: "Apr 04 16:04:34 Updated: eclipse-cdt.i386 1:3.0.2-1jpp_3fc",
			want: models.Row{
				"time": "Apr 04 16:04:34", "event": "Updated", "name": "eclipse-cdt",
				"arch": "i386", "epoch": "1", "version": "3.0.2", "release": "1jpp_3fc",
			},
		},
		{
			name: "name.arch version-release",
			line: "Apr 04 16:08:07 Installed: kernel-devel.i686 2.6.16-1.2118_FC6",
			want: models.Row{
				"time": "Apr 04 16:08:07", "event": "Installed", "name": "kernel-devel",
				"arch": "i686", "version": "2.6.16", "release": "1.2118_FC6",
			},
		},
		{
			name: "name only",
			line: "Dec 18 14:21:26 Erased: Django-docs",
			want: models.Row{
				"time": "Dec 18 14:21:26", "event": "Erased", "name": "Django-docs",
			},
		},
		{
			name:    "garbage",
			line:    "yum started",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseYumLine(tt.line)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseYumLine() error = %v, wantErr %v", err, tt.wantErr)
			}
			assertRow(t, got, tt.want)
		})
	}
}

func TestParseMailLine(t *testing.T) {
	line := "Feb 15 04:02:11 myhost sendmail[1234]: n1F92BOx001234: from=<root@myhost>, size=1234, class=0, nrcpts=1, msgid=<200902150902.n1F92BOx001234@myhost>, proto=ESMTP, relay=root@localhost"

	got, err := ParseMailLine(line)
	if err != nil {
		t.Fatalf("ParseMailLine() error = %v", err)
	}
	assertRow(t, got, models.Row{
		"time":     "Feb 15 04:02:11",
		"hostname": "myhost",
		"program":  "sendmail",
		"pid":      int64(1234),
		"from_":    "<root@myhost>",
		"size":     int64(1234),
		"class":    int64(0),
		"nrcpts":   int64(1),
		"msgid":    "<200902150902.n1F92BOx001234@myhost>",
		"relay":    "root@localhost",
	})

	other, err := ParseMailLine("Feb 15 04:02:11 myhost dovecot[77]: imap-login: Login: user=<bob>")
	if err != nil {
		t.Fatalf("ParseMailLine() error = %v", err)
	}
	if _, ok := other["from_"]; ok {
		t.Errorf("non-sendmail line has sendmail attributes: %v", other)
	}

	if _, err := ParseMailLine("garbage"); err == nil {
		t.Error("ParseMailLine() accepted a malformed line")
	}
}

func TestLogFileSkipsMalformedLines(t *testing.T) {
	lines := []string{
		`127.0.0.1 - - [16/Feb/2009:15:08:29 -0500] "GET /a HTTP/1.1" 200 10`,
		`127.0.0.1 - - [16/Feb/2009:15:08:30 -0500] "GET /b HTTP/1.1" 200 20`,
		`this line is broken`,
		`127.0.0.1 - - [16/Feb/2009:15:08:31 -0500] "GET /c HTTP/1.1" 404 -`,
	}
	path := filepath.Join(t.TempDir(), "access_log")
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	rows, unmatched := 0, 0
	for _, err := range NewHttpdLog(path).Rows() {
		switch {
		case err == nil:
			rows++
		case source.IsUnmatched(err):
			unmatched++
		default:
			t.Fatalf("Rows() error = %v", err)
		}
	}

	if rows != 3 || unmatched != 1 {
		t.Errorf("got %d rows and %d unmatched, want 3 and 1", rows, unmatched)
	}
}

func TestLineParserCompile(t *testing.T) {
	p := new(LineParser).
		Column(models.TextColumn("key"), `(\w+)`).
		Literal(`=`).
		Column(models.IntColumn("value"), `(\d+)`)

	parse := p.Compile()

	got, err := parse("answer=42 trailing")
	if err != nil {
		t.Fatalf("parse() error = %v", err)
	}
	assertRow(t, got, models.Row{"key": "answer", "value": int64(42)})

	if _, err := parse(" answer=42"); err == nil {
		t.Error("parse() matched a line not starting with the pattern")
	}
}

func assertRow(t *testing.T, got, want models.Row) {
	t.Helper()
	for k, w := range want {
		if g := got[k]; g != w {
			t.Errorf("row[%q] = %#v, want %#v", k, g, w)
		}
	}
}
