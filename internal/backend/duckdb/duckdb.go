// Package duckdb implements the embedded DuckDB backend via database/sql.
//
// Opening a path that does not exist creates a fresh empty database; that is
// engine behavior, not an error. Required-table validation then fails against
// the empty catalog, which is the signal callers actually need.
package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/marcboeker/go-duckdb/v2" // registers the "duckdb" driver

	"claimsdb/internal/backend"
)

// DefaultSchema is DuckDB's conventional schema.
const DefaultSchema = "main"

const defaultPingTimeout = 5 * time.Second

type catalog struct{}

func (catalog) DefaultSchema() string { return DefaultSchema }

func (catalog) HasTableQuery(schema, name string) (string, []any) {
	return `SELECT 1 FROM information_schema.tables WHERE table_schema = ? AND table_name = ?`,
		[]any{schema, name}
}

func (catalog) ColumnsQuery(schema, name string) (string, []any) {
	return `SELECT column_name, data_type, is_nullable
		FROM information_schema.columns
		WHERE table_schema = ? AND table_name = ?
		ORDER BY ordinal_position`,
		[]any{schema, name}
}

func (catalog) SchemasQuery() string {
	return `SELECT schema_name FROM information_schema.schemata ORDER BY schema_name`
}

// Open opens (or creates) the DuckDB database file at cfg.Path.
func Open(ctx context.Context, cfg backend.Config) (backend.Backend, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, fmt.Errorf("duckdb: path must not be empty")
	}

	db, err := sql.Open("duckdb", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("duckdb: open %s: %w", cfg.Path, err)
	}

	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = defaultPingTimeout
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("duckdb: ping %s: %w", cfg.Path, err)
	}

	return backend.NewSQL("duckdb", db, catalog{}), nil
}

func init() {
	backend.Register("duckdb", Open)
}
