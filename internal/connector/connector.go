// Package connector produces a validated, ready-to-query data-access object
// from a configuration source.
//
// Construction is all-or-nothing: the connector resolves a backend kind from
// configuration, opens the pooled backend, resolves the active schema,
// validates the table contract, and eagerly materializes the small reference
// tables - or it fails with one of three terminal errors (ConfigurationError,
// ConnectionError, MissingTableError) and no connector exists. There is no
// partially-ready state and no re-validation afterwards.
//
// Validation and materialization run on one pinned backend session so the
// existence checks and the subsequent reads observe the same connection.
//
//	cfg, err := config.Load("configs/db_connection.yaml")
//	...
//	c, err := connector.Open(ctx, cfg)
//	...
//	defer c.Close()
//
//	members := c.Tables()["members"]              // eager, in memory
//	rs, err := c.Backend().Query(ctx,             // lazy, scoped by caller
//	    "SELECT claim_entry_id FROM clinical.claims_entries WHERE ...")
package connector

import (
	"context"
	"time"

	"go.uber.org/zap"

	"claimsdb/internal/backend"
	"claimsdb/internal/config"
	"claimsdb/internal/metrics"
	"claimsdb/internal/table"
)

// Note records an informational finding from construction, e.g. an absent
// optional table. Notes never accompany an error; they exist only on a
// successfully built connector.
type Note struct {
	Table   string
	Message string
}

// Connector is the validated data-access object. It owns its backend handle
// and its configuration; both live until Close.
type Connector struct {
	cfg     *config.Config
	backend backend.Backend
	schema  string
	reqs    []Requirement
	tables  map[string]*table.Table
	notes   []Note
	log     *zap.Logger
}

type options struct {
	log       *zap.Logger
	reqs      []Requirement
	job       string
	noMetrics bool
}

// Option customizes connector construction.
type Option func(*options)

// WithLogger installs a structured logger for construction events. The
// default discards them.
func WithLogger(log *zap.Logger) Option {
	return func(o *options) {
		if log != nil {
			o.log = log
		}
	}
}

// WithRequirements replaces the default table contract.
func WithRequirements(reqs []Requirement) Option {
	return func(o *options) { o.reqs = reqs }
}

// WithMetrics toggles metric recording during construction. Metrics default
// on; recording through the nop backend is free anyway, so this matters only
// to callers that installed a real backend but want silent probes.
func WithMetrics(enabled bool) Option {
	return func(o *options) { o.noMetrics = !enabled }
}

// Open builds a connector from cfg. The configuration must already be
// parsed; Open re-checks only what the linter can check statically before
// touching the network.
func Open(ctx context.Context, cfg *config.Config, opts ...Option) (*Connector, error) {
	o := applyOptions(cfg, opts)
	start := time.Now()

	c, err := open(ctx, cfg, o)
	if !o.noMetrics {
		metrics.RecordConnect(o.job, err, time.Since(start))
	}
	return c, err
}

func open(ctx context.Context, cfg *config.Config, o *options) (*Connector, error) {
	kind, err := cfg.ResolveKind()
	if err != nil {
		return nil, &ConfigurationError{Reason: "backend selection", Err: err}
	}
	if issues := config.Validate(cfg); config.HasErrors(issues) {
		for _, iss := range issues {
			if iss.Severity == config.SeverityError {
				return nil, &ConfigurationError{Reason: iss.Path + ": " + iss.Message}
			}
		}
	}

	b, err := backend.Open(ctx, BackendConfig(cfg, kind))
	if err != nil {
		return nil, &ConnectionError{Kind: kind, Err: err}
	}

	schema := cfg.Schema(kind)
	if schema == "" {
		schema = b.DefaultSchema()
	}
	o.log.Debug("backend opened",
		zap.String("kind", kind),
		zap.String("schema", schema))

	c, err := attach(ctx, cfg, b, schema, o)
	if err != nil {
		b.Close()
		return nil, err
	}
	return c, nil
}

// Attach validates and materializes against an already-open backend. It is
// the construction path minus configuration and connection handling; Open
// uses it internally and tests use it with fakes. On error the backend is
// not closed - the caller still owns it.
func Attach(ctx context.Context, b backend.Backend, schema string, opts ...Option) (*Connector, error) {
	o := applyOptions(nil, opts)
	return attach(ctx, nil, b, schema, o)
}

func attach(ctx context.Context, cfg *config.Config, b backend.Backend, schema string, o *options) (*Connector, error) {
	if !backend.ValidIdent(schema) {
		return nil, &ConfigurationError{Reason: "invalid schema name " + schema}
	}

	sess, err := b.Acquire(ctx)
	if err != nil {
		return nil, &ConnectionError{Kind: b.Kind(), Err: err}
	}
	defer sess.Release()

	// One pass over the contract: existence for everything, collecting all
	// missing required tables rather than stopping at the first.
	present := make(map[string]bool, len(o.reqs))
	var missing []string
	var notes []Note

	for _, req := range o.reqs {
		ok, err := sess.HasTable(ctx, schema, req.Name)
		if err != nil {
			return nil, &ConnectionError{Kind: b.Kind(), Err: err}
		}
		present[req.Name] = ok
		if !o.noMetrics {
			metrics.RecordTableCheck(o.job, req.Name, req.Required, ok)
		}

		switch {
		case ok:
			o.log.Debug("table validated",
				zap.String("table", schema+"."+req.Name),
				zap.Bool("required", req.Required))
		case req.Required:
			o.log.Error("required table missing",
				zap.String("table", schema+"."+req.Name))
			missing = append(missing, req.Name)
		default:
			o.log.Info("optional table absent, skipping",
				zap.String("table", schema+"."+req.Name))
			notes = append(notes, Note{
				Table:   req.Name,
				Message: "optional table not found under schema " + schema,
			})
		}
	}

	if len(missing) > 0 {
		return nil, &MissingTableError{Schema: schema, Tables: missing}
	}

	// Materialize the eager tables on the same session. Only tables that
	// passed existence validation can reach this loop.
	tables := make(map[string]*table.Table)
	for _, req := range o.reqs {
		if !req.Eager || !present[req.Name] {
			continue
		}
		qualified, err := backend.Qualify(schema, req.Name)
		if err != nil {
			return nil, &ConfigurationError{Reason: "table contract", Err: err}
		}
		tbl, err := sess.Query(ctx, "SELECT * FROM "+qualified)
		if err != nil {
			return nil, &ConnectionError{Kind: b.Kind(), Err: err}
		}
		tables[req.Name] = tbl
		if !o.noMetrics {
			metrics.RecordMaterialized(o.job, req.Name, int64(tbl.NumRows()))
		}
		o.log.Info("table materialized",
			zap.String("table", qualified),
			zap.Int("rows", tbl.NumRows()),
			zap.Int("columns", tbl.NumCols()))
	}

	return &Connector{
		cfg:     cfg,
		backend: b,
		schema:  schema,
		reqs:    o.reqs,
		tables:  tables,
		notes:   notes,
		log:     o.log,
	}, nil
}

// Tables returns the materialized table set, keyed by logical name. The set
// is built once at construction; callers must treat it as read-only.
func (c *Connector) Tables() map[string]*table.Table { return c.tables }

// Backend returns the live backend handle for ad hoc queries against tables
// the connector left unmaterialized.
func (c *Connector) Backend() backend.Backend { return c.backend }

// Schema returns the resolved schema name, authoritative for all table
// lookups in this session.
func (c *Connector) Schema() string { return c.schema }

// Config returns the configuration this connector was built from. Nil when
// the connector was attached to an existing backend directly.
func (c *Connector) Config() *config.Config { return c.cfg }

// Notes returns the informational findings recorded during construction.
func (c *Connector) Notes() []Note {
	out := make([]Note, len(c.notes))
	copy(out, c.notes)
	return out
}

// Requirements returns the table contract this connector enforced.
func (c *Connector) Requirements() []Requirement {
	out := make([]Requirement, len(c.reqs))
	copy(out, c.reqs)
	return out
}

// Close releases the backend handle.
func (c *Connector) Close() { c.backend.Close() }

func applyOptions(cfg *config.Config, opts []Option) *options {
	o := &options{
		log:  zap.NewNop(),
		reqs: DefaultRequirements(),
		job:  "claimsdb",
	}
	if cfg != nil && cfg.Metrics.Job != "" {
		o.job = cfg.Metrics.Job
	}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}

// BackendConfig maps the decoded configuration onto the driver-facing union
// for the given kind. The diagnostic CLI uses it to open a backend without
// going through full connector construction.
func BackendConfig(cfg *config.Config, kind string) backend.Config {
	bc := backend.Config{Kind: kind}
	if f := cfg.File(kind); f != nil {
		bc.Path = f.Path
	}
	if s := cfg.Server(kind); s != nil {
		bc.User = s.User
		bc.Password = s.Password
		bc.Host = s.Host
		bc.Port = s.Port
		bc.Database = s.Database
		bc.PoolPrePing = s.PoolPrePing
		bc.PoolSize = s.PoolSize
		bc.MaxOverflow = s.MaxOverflow
		bc.ConnectTimeout = time.Duration(s.ConnectTimeoutSeconds) * time.Second
	}
	return bc
}
