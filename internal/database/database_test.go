package database

import (
	"context"
	"errors"
	"io"
	"iter"
	"log/slog"
	"reflect"
	"strings"
	"testing"

	"squeal/internal/models"
	"squeal/internal/query"
	"squeal/internal/source"
)

var drivers = []string{"sqlite3", "sqlite"}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func pets() *source.Memory {
	return source.NewMemory("pets", models.Schema{models.IntColumn("size"), models.TextColumn("type")},
		models.Row{"size": int64(1), "type": "cat"},
		models.Row{"size": int64(2), "type": "cat"},
		models.Row{"size": int64(3), "type": "cat"},
		models.Row{"size": int64(4), "type": "dog"},
		models.Row{"size": int64(8), "type": "dog"},
	)
}

// passThrough resolves only pre-built backends
type passThrough struct{}

func (passThrough) Resolve(token any) (source.Backend, error) {
	b, _ := token.(source.Backend)
	return b, nil
}

// run parses args and executes the query against every driver
func run(t *testing.T, driver string, args ...any) [][]any {
	t.Helper()
	ctx := context.Background()

	q, err := query.Parse(args, passThrough{}, quietLogger())
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	store, err := Open(ctx, driver, quietLogger())
	if err != nil {
		t.Fatalf("Open(%s) error = %v", driver, err)
	}
	t.Cleanup(func() { store.Close() })

	h, err := store.Load(ctx, q.Backend)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	res, err := h.Query(ctx, q.Distinct, q.SelectList, q.Clause)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	rows, err := res.All()
	if err != nil {
		t.Fatalf("All() error = %v", err)
	}
	return rows
}

func TestAggregates(t *testing.T) {
	want := [][]any{
		{"dog", int64(2), int64(8), int64(4), 12.0, 6.0},
		{"cat", int64(3), int64(3), int64(1), 6.0, 2.0},
	}

	tests := []struct {
		name string
		args func() []any
	}{
		{
			name: "separate arguments",
			args: func() []any {
				return []any{"type", "count(*)", "max(size)", "min(size)", "total(size)", "avg(size)", "from", pets(),
					"group", "by", "type", "order", "by", "max(size)", "desc"}
			},
		},
		{
			name: "combined arguments",
			args: func() []any {
				return []any{"type,count(*),max(size),min(size),\n total(size) avg(size) from", pets(),
					"group by type\n order by max(size) desc"}
			},
		},
	}

	for _, driver := range drivers {
		for _, tt := range tests {
			t.Run(driver+"/"+tt.name, func(t *testing.T) {
				got := run(t, driver, tt.args()...)
				if !reflect.DeepEqual(got, want) {
					t.Errorf("rows = %v, want %v", got, want)
				}
			})
		}
	}
}

func TestCountPromotion(t *testing.T) {
	want := [][]any{{int64(3), "cat"}, {int64(2), "dog"}}
	for _, driver := range drivers {
		t.Run(driver, func(t *testing.T) {
			got := run(t, driver, "count", "type", "from", pets(), "group", "by", "type", "order", "by", "count", "desc")
			if !reflect.DeepEqual(got, want) {
				t.Errorf("rows = %v, want %v", got, want)
			}
		})
	}
}

func TestWhereClause(t *testing.T) {
	for _, driver := range drivers {
		t.Run(driver, func(t *testing.T) {
			got := run(t, driver, "distinct size from", pets(), `where type="dog"`)
			want := [][]any{{int64(4)}, {int64(8)}}
			if !reflect.DeepEqual(got, want) {
				t.Errorf("rows = %v, want %v", got, want)
			}

			// The literal is split and rejoined with a single space
			got = run(t, driver, "distinct size from", pets(), `where type!="dog food"`)
			if len(got) != 5 {
				t.Errorf("got %d rows, want 5", len(got))
			}
		})
	}
}

func TestSplittingStringWithLimit(t *testing.T) {
	got := run(t, "sqlite3", "size, type from", pets(), "order by length(size) desc limit 3")
	if len(got) != 3 {
		t.Errorf("got %d rows, want 3", len(got))
	}
}

func TestNullsAndAbsentColumns(t *testing.T) {
	b := source.NewMemory("x", models.Schema{models.TextColumn("name"), models.SentinelColumn("size")},
		models.Row{"name": "a", "size": int64(10)},
		models.Row{"name": "b", "size": nil},
		models.Row{"name": "c"},
	)
	got := run(t, "sqlite3", "name", "size", "from", b, "order", "by", "name")
	want := [][]any{{"a", int64(10)}, {"b", nil}, {"c", nil}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("rows = %v, want %v", got, want)
	}

	got = run(t, "sqlite3", "count(size)", "total(size)", "from", b, "where", "name='zzz'")
	if !reflect.DeepEqual(got, [][]any{{int64(0), 0.0}}) {
		t.Errorf("empty aggregate = %v, want [[0 0.0]]", got)
	}
}

func TestKeywordColumnNames(t *testing.T) {
	b := source.NewMemory("x", models.Schema{models.TextColumn("order"), models.TextColumn("group")},
		models.Row{"order": "1", "group": "a"})
	got := run(t, "sqlite", `"order"`, `"group"`, "from", b)
	if !reflect.DeepEqual(got, [][]any{{"1", "a"}}) {
		t.Errorf("rows = %v", got)
	}
}

// rowsBackend yields a fixed sequence of rows and errors
type rowsBackend struct {
	schema models.Schema
	items  []struct {
		row models.Row
		err error
	}
}

func (b *rowsBackend) Columns() models.Schema { return b.schema }

func (b *rowsBackend) Rows() iter.Seq2[models.Row, error] {
	return func(yield func(models.Row, error) bool) {
		for _, it := range b.items {
			if !yield(it.row, it.err) {
				return
			}
		}
	}
}

func (b *rowsBackend) add(row models.Row, err error) *rowsBackend {
	b.items = append(b.items, struct {
		row models.Row
		err error
	}{row, err})
	return b
}

func TestLoadSkipsUnmatchedRows(t *testing.T) {
	ctx := context.Background()
	b := (&rowsBackend{schema: models.Schema{models.IntColumn("n")}}).
		add(models.Row{"n": int64(1)}, nil).
		add(nil, &source.UnmatchedLineError{Line: 2, Text: "two"}).
		add(models.Row{"n": int64(3)}, nil)

	store, err := Open(ctx, "sqlite3", quietLogger())
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	h, err := store.Load(ctx, b)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if h.Stats != (LoadStats{Inserted: 2, Skipped: 1}) {
		t.Errorf("Stats = %+v, want 2 inserted 1 skipped", h.Stats)
	}
}

func TestLoadAbortsOnOtherErrors(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("disk on fire")
	b := (&rowsBackend{schema: models.Schema{models.IntColumn("n")}}).
		add(models.Row{"n": int64(1)}, nil).
		add(nil, boom)

	store, err := Open(ctx, "sqlite3", quietLogger())
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	if _, err := store.Load(ctx, b); !errors.Is(err, boom) {
		t.Errorf("Load() error = %v, want %v", err, boom)
	}
}

func TestQueryExecutionError(t *testing.T) {
	ctx := context.Background()
	store, err := Open(ctx, "sqlite3", quietLogger())
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	h, err := store.Load(ctx, pets())
	if err != nil {
		t.Fatal(err)
	}

	_, err = h.Query(ctx, false, []string{"size"}, []string{"where", "(("})
	var qe *QueryExecutionError
	if !errors.As(err, &qe) {
		t.Fatalf("Query() error = %v, want QueryExecutionError", err)
	}
	if qe.Statement != "SELECT size FROM lines where ((" {
		t.Errorf("Statement = %q", qe.Statement)
	}
	if !strings.Contains(err.Error(), qe.Statement) {
		t.Errorf("Error() = %q, want the statement included", err.Error())
	}
}

func TestStoresAreIsolated(t *testing.T) {
	ctx := context.Background()
	a, err := Open(ctx, "sqlite3", quietLogger())
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()
	b, err := Open(ctx, "sqlite3", quietLogger())
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()

	if _, err := a.Load(ctx, pets()); err != nil {
		t.Fatal(err)
	}
	// Would fail with "table lines already exists" if the databases were shared
	if _, err := b.Load(ctx, pets()); err != nil {
		t.Errorf("second store Load() error = %v", err)
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	if _, err := Open(context.Background(), "postgres", quietLogger()); err == nil {
		t.Error("Open() accepted an unregistered driver")
	}
}

func TestCreateTableSQL(t *testing.T) {
	got := createTableSQL("lines", models.Schema{models.TextColumn("host"), models.SentinelColumn("size")})
	want := "CREATE TABLE lines (\n    \"host\" TEXT,\n    \"size\" INTEGER\n)"
	if got != want {
		t.Errorf("createTableSQL() = %q, want %q", got, want)
	}
}
