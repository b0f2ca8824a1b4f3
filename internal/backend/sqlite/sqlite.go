// Package sqlite implements the embedded SQLite backend via database/sql and
// the pure-Go modernc.org driver. SQLite has no schemas in the
// information_schema sense; "main" plays that role, and attached databases
// appear under their attachment name.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"claimsdb/internal/backend"
)

// DefaultSchema is the primary database of a SQLite connection.
const DefaultSchema = "main"

const defaultPingTimeout = 5 * time.Second

type catalog struct{}

func (catalog) DefaultSchema() string { return DefaultSchema }

func (catalog) HasTableQuery(schema, name string) (string, []any) {
	if schema == "" || schema == DefaultSchema {
		return `SELECT 1 FROM sqlite_master WHERE type = 'table' AND name = ?`, []any{name}
	}
	// Attached databases each carry their own sqlite_master. The schema name
	// went through identifier validation before reaching this layer.
	return fmt.Sprintf(`SELECT 1 FROM %s.sqlite_master WHERE type = 'table' AND name = ?`, schema),
		[]any{name}
}

func (catalog) ColumnsQuery(schema, name string) (string, []any) {
	if schema == "" || schema == DefaultSchema {
		return `SELECT name, type, NOT "notnull" FROM pragma_table_info(?)`, []any{name}
	}
	return fmt.Sprintf(`SELECT name, type, NOT "notnull" FROM %s.pragma_table_info(?)`, schema),
		[]any{name}
}

func (catalog) SchemasQuery() string {
	return `SELECT name FROM pragma_database_list ORDER BY seq`
}

// Open opens (or creates) the SQLite database file at cfg.Path. ":memory:"
// is accepted for tests.
func Open(ctx context.Context, cfg backend.Config) (backend.Backend, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, fmt.Errorf("sqlite: path must not be empty")
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", cfg.Path, err)
	}

	// A single writer connection keeps :memory: databases visible across the
	// pool; this layer is read-mostly, so the cap costs nothing.
	db.SetMaxOpenConns(1)

	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = defaultPingTimeout
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: ping %s: %w", cfg.Path, err)
	}

	return backend.NewSQL("sqlite", db, catalog{}), nil
}

func init() {
	backend.Register("sqlite", Open)
}
