// This file implements Backend on top of database/sql so the duckdb, sqlite,
// and mysql drivers only supply their catalog SQL. The postgres driver is the
// exception: it speaks pgx natively and implements Backend itself.

package backend

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"claimsdb/internal/table"
)

// Catalog supplies backend-specific catalog SQL for a database/sql driver.
//
// ColumnsQuery must yield rows of (name, type, nullable) where nullable is
// anything coercible to bool: a bool, an integer, or the information_schema
// strings "YES"/"NO".
type Catalog interface {
	DefaultSchema() string
	HasTableQuery(schema, name string) (query string, args []any)
	ColumnsQuery(schema, name string) (query string, args []any)
	SchemasQuery() string
}

// SQLBackend adapts a *sql.DB plus a Catalog into a Backend.
type SQLBackend struct {
	kind string
	db   *sql.DB
	cat  Catalog
}

var _ Backend = (*SQLBackend)(nil)

// NewSQL wraps an opened *sql.DB. Ownership of db transfers to the returned
// backend; Close closes it.
func NewSQL(kind string, db *sql.DB, cat Catalog) *SQLBackend {
	return &SQLBackend{kind: kind, db: db, cat: cat}
}

// Kind implements Backend.
func (b *SQLBackend) Kind() string { return b.kind }

// DefaultSchema implements Backend.
func (b *SQLBackend) DefaultSchema() string { return b.cat.DefaultSchema() }

// DB exposes the underlying handle for driver-specific tests.
func (b *SQLBackend) DB() *sql.DB { return b.db }

// Ping implements Backend.
func (b *SQLBackend) Ping(ctx context.Context) error {
	if err := b.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%s: ping: %w", b.kind, err)
	}
	return nil
}

// Close implements Backend.
func (b *SQLBackend) Close() { _ = b.db.Close() }

// ListSchemas implements Backend.
func (b *SQLBackend) ListSchemas(ctx context.Context) ([]string, error) {
	rows, err := b.db.QueryContext(ctx, b.cat.SchemasQuery())
	if err != nil {
		return nil, fmt.Errorf("%s: list schemas: %w", b.kind, err)
	}
	defer rows.Close()

	var schemas []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("%s: scan schema: %w", b.kind, err)
		}
		schemas = append(schemas, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: list schemas: %w", b.kind, err)
	}
	return schemas, nil
}

// Acquire implements Backend by pinning one *sql.Conn.
func (b *SQLBackend) Acquire(ctx context.Context) (Session, error) {
	conn, err := b.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: acquire connection: %w", b.kind, err)
	}
	return &sqlSession{kind: b.kind, conn: conn, cat: b.cat}, nil
}

// Query implements Backend on a pool-managed connection.
func (b *SQLBackend) Query(ctx context.Context, query string) (*table.Table, error) {
	rows, err := b.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: query: %w", b.kind, err)
	}
	return scanTable(b.kind, rows)
}

type sqlSession struct {
	kind string
	conn *sql.Conn
	cat  Catalog
}

var _ Session = (*sqlSession)(nil)

func (s *sqlSession) Release() { _ = s.conn.Close() }

func (s *sqlSession) HasTable(ctx context.Context, schema, name string) (bool, error) {
	query, args := s.cat.HasTableQuery(schema, name)
	var one int
	err := s.conn.QueryRowContext(ctx, query, args...).Scan(&one)
	switch {
	case err == sql.ErrNoRows:
		return false, nil
	case err != nil:
		return false, fmt.Errorf("%s: has table %s.%s: %w", s.kind, schema, name, err)
	}
	return true, nil
}

func (s *sqlSession) Columns(ctx context.Context, schema, name string) ([]Column, error) {
	query, args := s.cat.ColumnsQuery(schema, name)
	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: columns of %s.%s: %w", s.kind, schema, name, err)
	}
	defer rows.Close()

	var cols []Column
	for rows.Next() {
		var (
			col      Column
			nullable any
		)
		if err := rows.Scan(&col.Name, &col.Type, &nullable); err != nil {
			return nil, fmt.Errorf("%s: scan column: %w", s.kind, err)
		}
		col.Nullable = coerceBool(nullable)
		cols = append(cols, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: columns of %s.%s: %w", s.kind, schema, name, err)
	}
	return cols, nil
}

func (s *sqlSession) Query(ctx context.Context, query string) (*table.Table, error) {
	rows, err := s.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: query: %w", s.kind, err)
	}
	return scanTable(s.kind, rows)
}

// scanTable drains rows into an in-memory Table. Cell values stay whatever
// the driver produced.
func scanTable(kind string, rows *sql.Rows) (*table.Table, error) {
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("%s: result columns: %w", kind, err)
	}
	t := table.New(cols)

	for rows.Next() {
		row := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range row {
			ptrs[i] = &row[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("%s: scan row: %w", kind, err)
		}
		if err := t.Append(row); err != nil {
			return nil, fmt.Errorf("%s: %w", kind, err)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: drain rows: %w", kind, err)
	}
	return t, nil
}

// coerceBool normalizes the nullable flavors different catalogs report.
func coerceBool(v any) bool {
	switch x := v.(type) {
	case bool:
		return x
	case int64:
		return x != 0
	case string:
		return strings.EqualFold(x, "yes") || x == "1" || strings.EqualFold(x, "true")
	case []byte:
		return coerceBool(string(x))
	default:
		return false
	}
}
