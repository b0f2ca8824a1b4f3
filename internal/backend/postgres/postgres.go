// Package postgres implements the networked Postgres backend using pgx v5
// and pgxpool. Unlike the database/sql-based drivers it speaks pgx natively,
// so pool sizing and the pre-acquire liveness check configure the pgx pool
// directly.
package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"claimsdb/internal/backend"
	"claimsdb/internal/table"
)

// DefaultSchema is Postgres' conventional default schema.
const DefaultSchema = "public"

const defaultPingTimeout = 5 * time.Second

// Backend is a pgxpool-backed implementation of backend.Backend.
type Backend struct {
	pool *pgxpool.Pool
}

var _ backend.Backend = (*Backend)(nil)

// DSN renders a keyword/value connection string for cfg. Values are quoted so
// passwords may contain spaces or quotes.
func DSN(cfg backend.Config) string {
	host := cfg.Host
	if host == "" {
		host = "localhost"
	}
	port := cfg.Port
	if port == 0 {
		port = 5432
	}

	parts := []string{
		"host=" + quoteKV(host),
		fmt.Sprintf("port=%d", port),
		"user=" + quoteKV(cfg.User),
		"dbname=" + quoteKV(cfg.Database),
	}
	if cfg.Password != "" {
		parts = append(parts, "password="+quoteKV(cfg.Password))
	}
	if cfg.ConnectTimeout > 0 {
		parts = append(parts, fmt.Sprintf("connect_timeout=%d", int(cfg.ConnectTimeout.Seconds())))
	}
	return strings.Join(parts, " ")
}

// quoteKV quotes a keyword/value connection-string value per libpq rules.
func quoteKV(v string) string {
	if v != "" && !strings.ContainsAny(v, " '\\") {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}

// Open builds the pool per cfg and verifies reachability with one ping.
//
// Pool mapping: pool_size is the baseline (MinConns) and pool_size +
// max_overflow the ceiling (MaxConns); pool_pre_ping installs a BeforeAcquire
// liveness check so dead connections are discarded instead of handed out.
func Open(ctx context.Context, cfg backend.Config) (backend.Backend, error) {
	if cfg.Database == "" {
		return nil, fmt.Errorf("postgres: database must not be empty")
	}

	pcfg, err := pgxpool.ParseConfig(DSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("postgres: parse config: %w", err)
	}
	if cfg.PoolSize > 0 {
		pcfg.MinConns = int32(cfg.PoolSize)
		pcfg.MaxConns = int32(cfg.PoolSize + cfg.MaxOverflow)
	}
	if cfg.PoolPrePing {
		pcfg.BeforeAcquire = func(ctx context.Context, conn *pgx.Conn) bool {
			return conn.Ping(ctx) == nil
		}
	}

	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: pool: %w", err)
	}

	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = defaultPingTimeout
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping %s: %w", cfg.Host, err)
	}

	return &Backend{pool: pool}, nil
}

// Kind implements backend.Backend.
func (b *Backend) Kind() string { return "postgres" }

// DefaultSchema implements backend.Backend.
func (b *Backend) DefaultSchema() string { return DefaultSchema }

// Ping implements backend.Backend.
func (b *Backend) Ping(ctx context.Context) error {
	if err := b.pool.Ping(ctx); err != nil {
		return fmt.Errorf("postgres: ping: %w", err)
	}
	return nil
}

// Close implements backend.Backend.
func (b *Backend) Close() { b.pool.Close() }

// ListSchemas implements backend.Backend.
func (b *Backend) ListSchemas(ctx context.Context) ([]string, error) {
	rows, err := b.pool.Query(ctx,
		`SELECT schema_name FROM information_schema.schemata ORDER BY schema_name`)
	if err != nil {
		return nil, fmt.Errorf("postgres: list schemas: %w", err)
	}
	defer rows.Close()

	var schemas []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("postgres: scan schema: %w", err)
		}
		schemas = append(schemas, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list schemas: %w", err)
	}
	return schemas, nil
}

// Acquire implements backend.Backend by pinning one pool connection.
func (b *Backend) Acquire(ctx context.Context) (backend.Session, error) {
	conn, err := b.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("postgres: acquire connection: %w", err)
	}
	return &session{conn: conn}, nil
}

// Query implements backend.Backend on a pool-managed connection.
func (b *Backend) Query(ctx context.Context, sql string) (*table.Table, error) {
	rows, err := b.pool.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("postgres: query: %w", err)
	}
	return scanTable(rows)
}

type session struct {
	conn *pgxpool.Conn
}

var _ backend.Session = (*session)(nil)

func (s *session) Release() { s.conn.Release() }

func (s *session) HasTable(ctx context.Context, schema, name string) (bool, error) {
	var exists bool
	err := s.conn.QueryRow(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM information_schema.tables
			WHERE table_schema = $1 AND table_name = $2
		)`, schema, name).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("postgres: has table %s.%s: %w", schema, name, err)
	}
	return exists, nil
}

func (s *session) Columns(ctx context.Context, schema, name string) ([]backend.Column, error) {
	rows, err := s.conn.Query(ctx,
		`SELECT column_name, data_type, is_nullable = 'YES'
		FROM information_schema.columns
		WHERE table_schema = $1 AND table_name = $2
		ORDER BY ordinal_position`, schema, name)
	if err != nil {
		return nil, fmt.Errorf("postgres: columns of %s.%s: %w", schema, name, err)
	}
	defer rows.Close()

	var cols []backend.Column
	for rows.Next() {
		var col backend.Column
		if err := rows.Scan(&col.Name, &col.Type, &col.Nullable); err != nil {
			return nil, fmt.Errorf("postgres: scan column: %w", err)
		}
		cols = append(cols, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: columns of %s.%s: %w", schema, name, err)
	}
	return cols, nil
}

func (s *session) Query(ctx context.Context, sql string) (*table.Table, error) {
	rows, err := s.conn.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("postgres: query: %w", err)
	}
	return scanTable(rows)
}

// scanTable drains pgx rows into an in-memory Table.
func scanTable(rows pgx.Rows) (*table.Table, error) {
	defer rows.Close()

	fields := rows.FieldDescriptions()
	cols := make([]string, len(fields))
	for i, f := range fields {
		cols[i] = f.Name
	}
	t := table.New(cols)

	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("postgres: read row: %w", err)
		}
		if err := t.Append(vals); err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: drain rows: %w", err)
	}
	return t, nil
}

func init() {
	backend.Register("postgres", Open)
}
