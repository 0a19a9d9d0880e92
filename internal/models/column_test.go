package models

import (
	"reflect"
	"strings"
	"testing"
)

// TestColumnConvert tests coercion of captured tokens for each column kind
func TestColumnConvert(t *testing.T) {
	tests := []struct {
		name    string
		column  Column
		raw     string
		want    any
		wantErr bool
	}{
		{name: "text passes through", column: TextColumn("host"), raw: "127.0.0.1", want: "127.0.0.1"},
		{name: "text keeps dash", column: TextColumn("user"), raw: "-", want: "-"},
		{name: "integer", column: IntColumn("pid"), raw: "2599", want: int64(2599)},
		{name: "negative integer", column: IntColumn("delta"), raw: "-3", want: int64(-3)},
		{name: "invalid integer", column: IntColumn("pid"), raw: "abc", wantErr: true},
		{name: "sentinel is no value", column: SentinelColumn("size"), raw: "-", want: nil},
		{name: "sentineled integer", column: SentinelColumn("size"), raw: "2261", want: int64(2261)},
		{name: "sentineled garbage", column: SentinelColumn("size"), raw: "x", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.column.Convert(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Convert(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("Convert(%q) = %#v, want %#v", tt.raw, got, tt.want)
			}
		})
	}
}

// TestKindSQLType tests the SQL type of each kind
func TestKindSQLType(t *testing.T) {
	tests := map[Kind]string{
		Text:              "TEXT",
		Integer:           "INTEGER",
		SentineledInteger: "INTEGER",
	}
	for kind, want := range tests {
		if got := kind.SQLType(); got != want {
			t.Errorf("%s.SQLType() = %q, want %q", kind, got, want)
		}
	}
}

func TestSchemaValidate(t *testing.T) {
	good := Schema{IntColumn("size"), TextColumn("type")}
	if err := good.Validate(); err != nil {
		t.Errorf("Validate() unexpected error: %v", err)
	}

	dup := Schema{IntColumn("size"), TextColumn("SIZE")}
	err := dup.Validate()
	if err == nil || !strings.Contains(err.Error(), "duplicate") {
		t.Errorf("Validate() error = %v, want duplicate column error", err)
	}

	if err := (Schema{TextColumn("")}).Validate(); err == nil {
		t.Error("Validate() accepted an unnamed column")
	}
}

func TestSchemaHas(t *testing.T) {
	s := Schema{IntColumn("Count"), TextColumn("type")}
	if !s.Has("count") {
		t.Error("Has(count) = false, want true")
	}
	if s.Has("size") {
		t.Error("Has(size) = true, want false")
	}
}

func TestRowValues(t *testing.T) {
	s := Schema{IntColumn("size"), TextColumn("type"), TextColumn("filename")}
	row := Row{"type": "cat", "size": int64(3), "extra": "ignored"}

	got := row.Values(s)
	want := []any{int64(3), "cat", nil}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Values() = %#v, want %#v", got, want)
	}
}

func TestParseFields(t *testing.T) {
	s := Schema{TextColumn("name"), IntColumn("uid"), TextColumn("shell")}

	row, err := ParseFields(s, []string{"root", "0"})
	if err != nil {
		t.Fatalf("ParseFields() error = %v", err)
	}
	if row["name"] != "root" || row["uid"] != int64(0) {
		t.Errorf("ParseFields() = %#v", row)
	}
	if _, ok := row["shell"]; ok {
		t.Error("missing trailing field should be absent")
	}

	if _, err := ParseFields(s, []string{"root", "zero"}); err == nil {
		t.Error("ParseFields() accepted a non-integer uid")
	}
}

// TestSanitizeName tests column name cleanup
func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Host Name", "host_name"},
		{"user-agent", "user_agent"},
		{"opt.value", "opt_value"},
		{"2xx", "col_2xx"},
		{"", "unnamed_column"},
		{"  size ", "size"},
	}
	for _, tt := range tests {
		if got := SanitizeName(tt.input); got != tt.want {
			t.Errorf("SanitizeName(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
