// Package database provides the SQLite bridge: each invocation loads one
// backend into a private in-memory table and runs a single SELECT over it
package database

import (
	"context"
	"database/sql"
	"fmt"
	"iter"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // SQLite driver
	_ "modernc.org/sqlite"          // pure Go SQLite driver

	"squeal/internal/config"
	"squeal/internal/models"
	"squeal/internal/source"
)

// QueryExecutionError reports a statement SQLite rejected, typically because
// of a malformed trailing clause
type QueryExecutionError struct {
	Statement string
	Err       error
}

func (e *QueryExecutionError) Error() string {
	return fmt.Sprintf("query execution failed: %v\nstatement: %s", e.Err, e.Statement)
}

func (e *QueryExecutionError) Unwrap() error { return e.Err }

// Store is an ephemeral in-memory SQLite database
type Store struct {
	db    *sql.DB
	table string
	log   *slog.Logger
}

// Open creates a private in-memory database using the named driver
// ("sqlite3" or "sqlite"). Every store gets its own database name, so two
// stores in one process never share tables.
func Open(ctx context.Context, driver string, log *slog.Logger) (*Store, error) {
	if log == nil {
		log = slog.Default()
	}

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	sqlDB, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// The in-memory database lives as long as its connection
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)

	// Test the connection
	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: sqlDB, table: config.DefaultTableName, log: log}, nil
}

// Close discards the database
func (s *Store) Close() error {
	return s.db.Close()
}

// LoadStats counts what happened to the backend's rows
type LoadStats struct {
	Inserted int
	Skipped  int
}

// Handle is a loaded table ready to be queried
type Handle struct {
	store  *Store
	schema models.Schema
	Stats  LoadStats
}

// Load creates the table from the backend's schema and inserts every row in
// one transaction. Rows that did not match their format are skipped with a
// warning; any other row error aborts the load.
func (s *Store) Load(ctx context.Context, b source.Backend) (*Handle, error) {
	schema := b.Columns()
	if err := schema.Validate(); err != nil {
		return nil, fmt.Errorf("invalid schema: %w", err)
	}

	createSQL := createTableSQL(s.table, schema)
	s.log.Debug("creating table", "sql", createSQL)
	if _, err := s.db.ExecContext(ctx, createSQL); err != nil {
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	h := &Handle{store: s, schema: schema}
	if err := h.insertRows(ctx, b); err != nil {
		return nil, err
	}

	s.log.Info("loaded rows", "inserted", h.Stats.Inserted, "skipped", h.Stats.Skipped)
	return h, nil
}

// insertRows bulk inserts the backend's rows
// Uses a transaction with a prepared statement for better performance
func (h *Handle) insertRows(ctx context.Context, b source.Backend) error {
	tx, err := h.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(h.schema)), ",")
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s VALUES (%s)", h.store.table, placeholders))
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for row, err := range b.Rows() {
		if err != nil {
			if source.IsUnmatched(err) {
				h.store.log.Warn("skipping unmatched line", "error", err)
				h.Stats.Skipped++
				continue
			}
			return fmt.Errorf("failed to read input: %w", err)
		}

		if _, err := stmt.ExecContext(ctx, row.Values(h.schema)...); err != nil {
			return fmt.Errorf("failed to insert row: %w", err)
		}
		h.Stats.Inserted++
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit rows: %w", err)
	}
	return nil
}

// Columns returns the loaded table's schema
func (h *Handle) Columns() models.Schema { return h.schema }

// Query runs SELECT [DISTINCT] <selectList> FROM lines <clause>. Neither the
// select list nor the clause is validated; SQLite is the judge.
func (h *Handle) Query(ctx context.Context, distinct bool, selectList, clause []string) (*Result, error) {
	statement := selectSQL(h.store.table, distinct, selectList, clause)
	h.store.log.Debug("generated query", "sql", statement)

	rows, err := h.store.db.QueryContext(ctx, statement)
	if err != nil {
		return nil, &QueryExecutionError{Statement: statement, Err: err}
	}

	columns, err := rows.Columns()
	if err != nil {
		rows.Close()
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}

	return &Result{Columns: columns, Statement: statement, rows: rows}, nil
}

// Result is a lazily read query result. It must be drained or closed.
type Result struct {
	Columns   []string
	Statement string
	rows      *sql.Rows
}

// Rows yields each result row in order. It can be ranged over once.
func (r *Result) Rows() iter.Seq2[[]any, error] {
	return func(yield func([]any, error) bool) {
		defer r.rows.Close()

		for r.rows.Next() {
			// Create a slice of interfaces to hold row values
			values := make([]any, len(r.Columns))
			valuePtrs := make([]any, len(r.Columns))
			for i := range values {
				valuePtrs[i] = &values[i]
			}

			if err := r.rows.Scan(valuePtrs...); err != nil {
				yield(nil, fmt.Errorf("failed to scan row: %w", err))
				return
			}

			// Convert byte slices to strings
			for i, v := range values {
				if b, ok := v.([]byte); ok {
					values[i] = string(b)
				}
			}

			if !yield(values, nil) {
				return
			}
		}

		// Check for iteration errors
		if err := r.rows.Err(); err != nil {
			yield(nil, &QueryExecutionError{Statement: r.Statement, Err: err})
		}
	}
}

// All drains the result
func (r *Result) All() ([][]any, error) {
	var all [][]any
	for row, err := range r.Rows() {
		if err != nil {
			return nil, err
		}
		all = append(all, row)
	}
	return all, nil
}

// Close releases the result without reading the remaining rows
func (r *Result) Close() error {
	return r.rows.Close()
}

func createTableSQL(table string, schema models.Schema) string {
	defs := make([]string, len(schema))
	for i, col := range schema {
		defs[i] = fmt.Sprintf("%s %s", quoteIdent(col.Name), col.Kind.SQLType())
	}
	return fmt.Sprintf("CREATE TABLE %s (\n    %s\n)", table, strings.Join(defs, ",\n    "))
}

func selectSQL(table string, distinct bool, selectList, clause []string) string {
	var b strings.Builder
	b.WriteString("SELECT ")
	if distinct {
		b.WriteString("DISTINCT ")
	}
	b.WriteString(strings.Join(selectList, ","))
	b.WriteString(" FROM ")
	b.WriteString(table)
	if len(clause) > 0 {
		b.WriteString(" ")
		b.WriteString(strings.Join(clause, " "))
	}
	return b.String()
}

// quoteIdent quotes a column name so that names which happen to be SQL
// keywords can still be declared
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
