// Package store keeps ingested book rows in an embedded SQLite table and answers the
// descriptive queries the command line needs.
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bookdata-explorer/bookdata/internal/record"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

const dropSQL = `
DROP VIEW IF EXISTS genre_summary;
DROP TABLE IF EXISTS books;
`

// extraColumn holds the JSON object of columns outside the known set.
const extraColumn = "extra"

var (
	// ErrNoBooksTable is returned by queries against a database that was never ingested.
	ErrNoBooksTable = errors.New("books table does not exist; run ingest first")
	// ErrNotFound is returned when a single-row lookup matches nothing.
	ErrNotFound = errors.New("not found")
)

// Store is the SQLite-backed book table.
type Store struct {
	db         *sql.DB
	logger     *slog.Logger
	logQueries bool
}

// Open opens (creating if needed) the database at path and configures WAL mode.
// It does not create the books table; see EnsureSchema and Reset.
func Open(ctx context.Context, path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if dir := filepath.Dir(path); path != ":memory:" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to exec pragma %q: %w", pragma, err)
		}
	}

	return &Store{db: db, logger: logger}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// SetLogQueries enables debug logging of every statement.
func (s *Store) SetLogQueries(enabled bool) {
	s.logQueries = enabled
}

// EnsureSchema creates the books table, its indexes and the summary view if missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Reset drops and recreates the books table.
func (s *Store) Reset(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, dropSQL); err != nil {
		return fmt.Errorf("failed to drop books table: %w", err)
	}
	return s.EnsureSchema(ctx)
}

// TableExists reports whether the books table has been created.
func (s *Store) TableExists(ctx context.Context) (bool, error) {
	var name string
	err := s.db.QueryRowContext(ctx, "SELECT name FROM sqlite_master WHERE type='table' AND name='books'").Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check books table: %w", err)
	}
	return true, nil
}

func (s *Store) logQuery(query string, args []any) {
	if s.logQueries {
		s.logger.Debug("Executing query", "sql", strings.Join(strings.Fields(query), " "), "args", args)
	}
}

func (s *Store) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	s.logQuery(query, args)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, s.wrapErr(ctx, err)
	}
	return rows, nil
}

func (s *Store) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	s.logQuery(query, args)
	return s.db.QueryRowContext(ctx, query, args...)
}

// wrapErr maps a missing books table to ErrNoBooksTable.
func (s *Store) wrapErr(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if strings.Contains(err.Error(), "no such table") {
		return ErrNoBooksTable
	}
	if ok, checkErr := s.TableExists(ctx); checkErr == nil && !ok {
		return ErrNoBooksTable
	}
	return err
}

// genreFilter matches the display name when set and the raw code otherwise.
func genreFilter(genres []string) (string, []any) {
	if len(genres) == 0 {
		return "", nil
	}
	args := make([]any, len(genres))
	for i, g := range genres {
		args[i] = g
	}
	return `COALESCE("genre_display", "genre") IN (` + placeholders(len(genres)) + ")", args
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// where joins non-empty conditions into a WHERE clause.
func where(conds ...string) string {
	var parts []string
	for _, c := range conds {
		if c != "" {
			parts = append(parts, c)
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(parts, " AND ")
}

// selectColumns lists every stored column in table order.
var selectColumns = func() string {
	cols := make([]string, 0, len(record.Columns)+1)
	for _, c := range record.Columns {
		cols = append(cols, quote(c.Name))
	}
	cols = append(cols, quote(extraColumn))
	return strings.Join(cols, ", ")
}()

func quote(name string) string {
	return `"` + name + `"`
}

// scanRecords reads full book rows produced by a SELECT of selectColumns.
func scanRecords(rows *sql.Rows) ([]record.Record, error) {
	defer rows.Close()

	var out []record.Record
	n := len(record.Columns) + 1
	for rows.Next() {
		values := make([]any, n)
		ptrs := make([]any, n)
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan book row: %w", err)
		}

		r := make(record.Record, n)
		for i, c := range record.Columns {
			r[c.Name] = fromColumn(c.Type, values[i])
		}
		if err := mergeExtra(r, values[n-1]); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate book rows: %w", err)
	}
	return out, nil
}

func fromColumn(t record.ColumnType, v any) any {
	if b, ok := v.([]byte); ok {
		v = string(b)
	}
	if v == nil {
		return nil
	}
	if t == record.TypeBool {
		if n, ok := record.ToInt(v); ok {
			return n != 0
		}
	}
	return v
}

func toColumn(v any) any {
	switch x := v.(type) {
	case bool:
		if x {
			return int64(1)
		}
		return int64(0)
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return nil
		}
	}
	return v
}

func mergeExtra(r record.Record, raw any) error {
	var text string
	switch v := raw.(type) {
	case nil:
		return nil
	case string:
		text = v
	case []byte:
		text = string(v)
	default:
		return nil
	}
	if text == "" {
		return nil
	}

	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	var extra map[string]any
	if err := dec.Decode(&extra); err != nil {
		return fmt.Errorf("failed to decode extra columns: %w", err)
	}
	for k, v := range extra {
		if n, ok := v.(json.Number); ok {
			if i, err := n.Int64(); err == nil {
				v = i
			} else if f, err := n.Float64(); err == nil {
				v = f
			} else {
				v = n.String()
			}
		}
		r[k] = v
	}
	return nil
}

// extraJSON encodes the scalar columns of r that are not part of the table.
func extraJSON(r record.Record) (any, error) {
	extra := map[string]any{}
	for k, v := range r {
		if _, known := record.TypeOf(k); known {
			continue
		}
		if derived(k) {
			continue
		}
		extra[k] = toColumn(v)
	}
	if len(extra) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(extra)
	if err != nil {
		return nil, fmt.Errorf("failed to encode extra columns: %w", err)
	}
	return string(b), nil
}

// derived reports whether k is produced by the enhancer and so never stored.
func derived(k string) bool {
	switch k {
	case record.AuthorName, record.AuthorURL, record.AuthorISBN, extraColumn:
		return true
	}
	return strings.HasSuffix(k, record.FormattedSuffix)
}
