// Package mysql implements the networked MySQL backend via database/sql.
//
// MySQL equates schema and database, so the resolved schema defaults to the
// configured database name. The go-sql-driver performs its own connection
// liveness check before reuse, which covers the pool_pre_ping option; pool
// sizing maps onto database/sql's open/idle connection limits.
package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	gomysql "github.com/go-sql-driver/mysql"

	"claimsdb/internal/backend"
)

const defaultPingTimeout = 5 * time.Second

type catalog struct {
	database string
}

func (c catalog) DefaultSchema() string { return c.database }

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

// DSN renders the driver connection string for cfg.
func DSN(cfg backend.Config) string {
	mc := gomysql.NewConfig()
	mc.User = cfg.User
	mc.Passwd = cfg.Password
	mc.Net = "tcp"
	host := cfg.Host
	if host == "" {
		host = "localhost"
	}
	port := cfg.Port
	if port == 0 {
		port = 3306
	}
	mc.Addr = fmt.Sprintf("%s:%d", host, port)
	mc.DBName = cfg.Database
	if cfg.ConnectTimeout > 0 {
		mc.Timeout = cfg.ConnectTimeout
	}
	return mc.FormatDSN()
}

// Open connects to the configured MySQL server and verifies reachability.
func Open(ctx context.Context, cfg backend.Config) (backend.Backend, error) {
	if cfg.Database == "" {
		return nil, fmt.Errorf("mysql: database must not be empty")
	}

	db, err := sql.Open("mysql", DSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("mysql: open: %w", err)
	}

	if cfg.PoolSize > 0 {
		db.SetMaxIdleConns(cfg.PoolSize)
		db.SetMaxOpenConns(cfg.PoolSize + cfg.MaxOverflow)
	}

	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = defaultPingTimeout
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("mysql: ping %s: %w", cfg.Host, err)
	}

	return backend.NewSQL("mysql", db, catalog{database: cfg.Database}), nil
}

func init() {
	backend.Register("mysql", Open)
}
