// Package backend defines the backend-capability abstraction the connector is
// built on: a catalog interface (table existence, column listing, schema
// listing) plus a query path that materializes full result sets.
//
// Concrete drivers (duckdb, sqlite, postgres, mysql) live in subpackages and
// register themselves with the factory at init time. Importing
// claimsdb/internal/backend/all (even blank) makes every built-in driver
// available:
//
//	import _ "claimsdb/internal/backend/all"
//
//	b, err := backend.Open(ctx, backend.Config{Kind: "duckdb", Path: "claims.db"})
//	defer b.Close()
package backend

import (
	"context"
	"fmt"
	"sync"
	"time"

	"claimsdb/internal/table"
)

// Column describes a single column as reported by the backend catalog.
type Column struct {
	Name     string
	Type     string
	Nullable bool
}

// Session is one logical session against the backend. The connector acquires
// a single Session for its validation-then-load sequence so existence checks
// and the subsequent materializing reads observe the same connection.
type Session interface {
	// HasTable reports whether the table exists under schema.
	HasTable(ctx context.Context, schema, name string) (bool, error)

	// Columns lists the ordered column descriptors of schema.name.
	Columns(ctx context.Context, schema, name string) ([]Column, error)

	// Query executes sql and materializes the full result set.
	Query(ctx context.Context, sql string) (*table.Table, error)

	// Release returns the session's connection to the pool.
	Release()
}

// Backend is an opened, poolable handle to a resolved database.
type Backend interface {
	// Kind returns the registered backend kind (e.g. "postgres").
	Kind() string

	// DefaultSchema is the schema used when the configuration names none.
	DefaultSchema() string

	// ListSchemas enumerates the schemas visible to the connection. Used by
	// the diagnostic CLI only; the production connector never auto-discovers.
	ListSchemas(ctx context.Context) ([]string, error)

	// Acquire pins one connection from the pool as a Session.
	Acquire(ctx context.Context) (Session, error)

	// Query executes sql on a pool-managed connection and materializes the
	// full result set. This is the ad hoc path callers use against tables
	// the connector left unmaterialized.
	Query(ctx context.Context, sql string) (*table.Table, error)

	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases the pool. The handle is unusable afterwards.
	Close()
}

// Config carries the union of settings the drivers understand. Each driver
// consumes the fields relevant to its kind and ignores the rest.
type Config struct {
	Kind string

	// Path is the database file for embedded kinds (duckdb, sqlite).
	Path string

	// Networked kinds (postgres, mysql).
	User     string
	Password string
	Host     string
	Port     int
	Database string

	// Pool behavior. PoolSize is the baseline number of pooled connections,
	// MaxOverflow the burst allowance above it, PoolPrePing a liveness check
	// before a connection is handed out.
	PoolPrePing bool
	PoolSize    int
	MaxOverflow int

	// ConnectTimeout bounds connection establishment; zero means the driver
	// default. Reads are not bounded at this layer.
	ConnectTimeout time.Duration
}

// Factory constructs a Backend for one kind.
type Factory func(ctx context.Context, cfg Config) (Backend, error)

var (
	regMu     sync.RWMutex
	factories = map[string]Factory{}
)

// Register registers (or replaces) the factory for a backend kind. It is
// typically called from driver packages' init() functions; tests use it to
// install fakes.
func Register(kind string, fn Factory) {
	regMu.Lock()
	defer regMu.Unlock()
	factories[kind] = fn
}

// Open constructs a Backend for cfg.Kind using the registered factory.
func Open(ctx context.Context, cfg Config) (Backend, error) {
	regMu.RLock()
	fn, ok := factories[cfg.Kind]
	regMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unsupported backend kind=%s", cfg.Kind)
	}
	return fn(ctx, cfg)
}

// ListKinds returns a snapshot of the registered kinds.
func ListKinds() []string {
	regMu.RLock()
	defer regMu.RUnlock()
	kinds := make([]string, 0, len(factories))
	for k := range factories {
		kinds = append(kinds, k)
	}
	return kinds
}
