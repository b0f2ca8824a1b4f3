// Package config defines the canonical YAML configuration model for the
// connector. It is intentionally small and explicit: one section per backend
// kind, plus ambient logging/metrics settings.
//
// A minimal embedded configuration:
//
//	duckdb:
//	  path: claims.db
//
// A networked configuration:
//
//	postgres:
//	  user: analytics
//	  password: secret
//	  host: db.internal
//	  port: 5432
//	  database: claims
//	  schema: clinical
//	  pool_pre_ping: true
//	  pool_size: 5
//	  max_overflow: 10
//
// Exactly one backend section is expected. When more than one is present, the
// top-level "backend" key selects the active one. The configuration is
// immutable once loaded; the connector that loaded it is its sole owner.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Backend kinds understood by ResolveKind. Each maps to a section below and
// to a driver registered with the backend factory.
const (
	KindDuckDB   = "duckdb"
	KindSQLite   = "sqlite"
	KindPostgres = "postgres"
	KindMySQL    = "mysql"
)

// Config is the top-level decoded configuration file.
type Config struct {
	// Backend optionally names the active backend kind. Required only when
	// more than one backend section is present.
	Backend string `yaml:"backend"`

	DuckDB   *FileBackend   `yaml:"duckdb"`
	SQLite   *FileBackend   `yaml:"sqlite"`
	Postgres *ServerBackend `yaml:"postgres"`
	MySQL    *ServerBackend `yaml:"mysql"`

	Logging Logging `yaml:"logging"`
	Metrics Metrics `yaml:"metrics"`
}

// FileBackend configures an embedded, file-backed engine (duckdb, sqlite).
type FileBackend struct {
	// Path is the database file path. Embedded engines create a fresh empty
	// database when the file does not exist; that is not an error here, but
	// required-table validation will then fail for every table.
	Path string `yaml:"path"`
}

// ServerBackend configures a networked server engine (postgres, mysql).
type ServerBackend struct {
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`

	// Schema names the schema treated as authoritative for all table lookups.
	// Empty means the backend's conventional default ("public" for postgres;
	// the database itself for mysql).
	Schema string `yaml:"schema"`

	// Pool options. PoolSize is the baseline number of pooled connections and
	// MaxOverflow the burst allowance above it. PoolPrePing verifies liveness
	// before a connection is handed out.
	PoolPrePing bool `yaml:"pool_pre_ping"`
	PoolSize    int  `yaml:"pool_size"`
	MaxOverflow int  `yaml:"max_overflow"`

	// ConnectTimeoutSeconds bounds connection establishment only; reads have
	// no timeout at this layer.
	ConnectTimeoutSeconds int `yaml:"connect_timeout_seconds"`
}

// Logging configures the structured logger.
type Logging struct {
	Level    string `yaml:"level"`    // debug, info, warn, error; default info
	Encoding string `yaml:"encoding"` // console or json; default console
}

// Metrics configures the optional metrics backend.
type Metrics struct {
	Backend        string `yaml:"backend"` // "pushgateway", "datadog" or "none" (default)
	PushgatewayURL string `yaml:"pushgateway_url"`
	StatsdAddr     string `yaml:"statsd_addr"` // datadog only; default 127.0.0.1:8125
	Job            string `yaml:"job"`
}

// Load reads and decodes the YAML configuration file at path.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML bytes into a Config.
func Parse(raw []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	return &cfg, nil
}

// ResolveKind determines the active backend kind.
//
// The explicit "backend" key wins when set (its section must exist).
// Otherwise exactly one backend section must be present; zero or several are
// configuration errors.
func (c *Config) ResolveKind() (string, error) {
	present := map[string]bool{
		KindDuckDB:   c.DuckDB != nil,
		KindSQLite:   c.SQLite != nil,
		KindPostgres: c.Postgres != nil,
		KindMySQL:    c.MySQL != nil,
	}

	if c.Backend != "" {
		ok, known := present[c.Backend]
		if !known {
			return "", fmt.Errorf("unknown backend kind %q", c.Backend)
		}
		if !ok {
			return "", fmt.Errorf("backend %q selected but its section is missing", c.Backend)
		}
		return c.Backend, nil
	}

	var kinds []string
	for _, k := range []string{KindDuckDB, KindSQLite, KindPostgres, KindMySQL} {
		if present[k] {
			kinds = append(kinds, k)
		}
	}
	switch len(kinds) {
	case 0:
		return "", fmt.Errorf("no backend section found (expected one of duckdb, sqlite, postgres, mysql)")
	case 1:
		return kinds[0], nil
	default:
		return "", fmt.Errorf("multiple backend sections present %v; set the top-level backend key", kinds)
	}
}

// Schema returns the explicitly configured schema for the active kind, or ""
// when unset. Embedded backends have no schema setting; the backend default
// applies.
func (c *Config) Schema(kind string) string {
	switch kind {
	case KindPostgres:
		if c.Postgres != nil {
			return c.Postgres.Schema
		}
	case KindMySQL:
		if c.MySQL != nil {
			return c.MySQL.Schema
		}
	}
	return ""
}

// Server returns the server section for kind, or nil for embedded kinds.
func (c *Config) Server(kind string) *ServerBackend {
	switch kind {
	case KindPostgres:
		return c.Postgres
	case KindMySQL:
		return c.MySQL
	}
	return nil
}

// File returns the file section for kind, or nil for networked kinds.
func (c *Config) File(kind string) *FileBackend {
	switch kind {
	case KindDuckDB:
		return c.DuckDB
	case KindSQLite:
		return c.SQLite
	}
	return nil
}
