package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"claimsdb/internal/backend"
	"claimsdb/internal/config"
	"claimsdb/internal/connector"
	"claimsdb/internal/logging"
	"claimsdb/internal/metrics"
	"claimsdb/internal/metrics/datadog"
	"claimsdb/internal/metrics/prompush"

	// register all backends with the factory.
	// config specifies which to use but we need to build in support for all of them.
	_ "claimsdb/internal/backend/all"
)

// main is the entry point for the database diagnostic. It loads the
// connection config, opens the configured backend, and walks the same table
// contract the connector enforces, reporting per-table detail instead of
// failing on the first problem. Exit code 0 means the backend would satisfy
// connector construction; 1 means it would not.
func main() {
	var (
		cfgPath           string
		schemaFlg         string
		sampleTable       string
		metricsBackendFlg string
		pushGatewayURLFlg string
		validate          bool
	)

	flag.StringVar(&cfgPath, "config", "configs/db_connection.yaml", "connection config YAML path")
	flag.StringVar(&schemaFlg, "schema", "", "schema to inspect (overrides config)")
	flag.StringVar(&sampleTable, "sample-table", "claims_entries", "table to row-count as a read smoke test")
	flag.StringVar(&metricsBackendFlg, "metrics-backend", "", "metrics backend to use (pushgateway, datadog, none); overrides config")
	flag.StringVar(&pushGatewayURLFlg, "pushgateway-url", "", "Pushgateway base URL (overrides env PUSHGATEWAY_URL)")
	flag.BoolVar(&validate, "validate", false, "lint the configuration and exit")
	verbose := flag.Bool("v", false, "enable debug logging")

	flag.Parse()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fatalf("%v", err)
	}

	issues := config.Validate(cfg)
	for _, iss := range issues {
		fmt.Fprintf(os.Stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
	if config.HasErrors(issues) {
		fatalf("configuration is invalid: %v", cfgPath)
	}
	if validate {
		fmt.Printf("configuration is valid: %v\n", cfgPath)
		os.Exit(0)
	}

	level := cfg.Logging.Level
	if *verbose {
		level = "debug"
	}
	log, err := logging.New(level, cfg.Logging.Encoding)
	if err != nil {
		fatalf("logging: %v", err)
	}
	defer log.Sync()

	setupMetrics(log, cfg, metricsBackendFlg, pushGatewayURLFlg)
	defer func() {
		if err := metrics.Flush(); err != nil {
			log.Warn("metrics flush failed", zap.Error(err))
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	if !run(ctx, log, cfg, schemaFlg, sampleTable) {
		os.Exit(1)
	}
}

// run performs the diagnostic walk and reports whether the backend satisfies
// the table contract.
func run(ctx context.Context, log *zap.Logger, cfg *config.Config, schemaFlg, sampleTable string) bool {
	kind, err := cfg.ResolveKind()
	if err != nil {
		log.Error("backend selection failed", zap.Error(err))
		return false
	}

	b, err := backend.Open(ctx, connector.BackendConfig(cfg, kind))
	if err != nil {
		log.Error("backend open failed", zap.String("kind", kind), zap.Error(err))
		return false
	}
	defer b.Close()

	if err := b.Ping(ctx); err != nil {
		log.Error("ping failed", zap.String("kind", kind), zap.Error(err))
		return false
	}
	fmt.Printf("connected: kind=%s\n", kind)
	reportVersion(ctx, b, kind)

	configured := schemaFlg
	if configured == "" {
		configured = cfg.Schema(kind)
	}
	schema := resolveSchema(ctx, log, b, configured)
	fmt.Printf("schema: %s\n", schema)

	sess, err := b.Acquire(ctx)
	if err != nil {
		log.Error("session acquire failed", zap.Error(err))
		return false
	}
	defer sess.Release()

	ok := checkTables(ctx, log, sess, schema)
	sampleCount(ctx, log, sess, schema, sampleTable)

	if ok {
		fmt.Println("result: OK")
	} else {
		fmt.Println("result: FAILED")
	}
	return ok
}

// reportVersion prints the server version when the backend exposes one.
// Best effort; not every dialect has the function and a miss is not a
// finding.
func reportVersion(ctx context.Context, b backend.Backend, kind string) {
	q := "SELECT version()"
	if kind == "sqlite" {
		q = "SELECT sqlite_version()"
	}
	tbl, err := b.Query(ctx, q)
	if err != nil || tbl.NumRows() != 1 || tbl.NumCols() != 1 {
		return
	}
	fmt.Printf("server version: %v\n", tbl.Rows[0][0])
}

// resolveSchema picks the schema the diagnostic will inspect. Unlike
// connector construction, which treats the configured schema as
// authoritative, the diagnostic falls back to the first visible schema so a
// misconfigured schema name still yields a useful report.
func resolveSchema(ctx context.Context, log *zap.Logger, b backend.Backend, configured string) string {
	want := configured
	if want == "" {
		want = b.DefaultSchema()
	}

	schemas, err := b.ListSchemas(ctx)
	if err != nil {
		log.Warn("schema listing failed; using configured schema unverified",
			zap.String("schema", want), zap.Error(err))
		return want
	}
	for _, s := range schemas {
		if s == want {
			return want
		}
	}
	if len(schemas) == 0 {
		log.Warn("backend reports no schemas; using configured schema unverified",
			zap.String("schema", want))
		return want
	}
	log.Warn("configured schema not found; falling back to first visible schema",
		zap.String("configured", want),
		zap.String("fallback", schemas[0]),
		zap.Strings("visible", schemas))
	return schemas[0]
}

// checkTables walks the table contract, printing per-table detail. It
// reports false when any required table is missing; checks continue past the
// first miss so the report covers the full contract.
func checkTables(ctx context.Context, log *zap.Logger, sess backend.Session, schema string) bool {
	ok := true
	for _, req := range connector.DefaultRequirements() {
		present, err := sess.HasTable(ctx, schema, req.Name)
		if err != nil {
			log.Error("table check failed",
				zap.String("table", schema+"."+req.Name), zap.Error(err))
			ok = false
			continue
		}
		metrics.RecordTableCheck("checkdb", req.Name, req.Required, present)

		switch {
		case present:
			fmt.Printf("  table %s.%s: present\n", schema, req.Name)
			cols, err := sess.Columns(ctx, schema, req.Name)
			if err != nil {
				log.Warn("column listing failed",
					zap.String("table", schema+"."+req.Name), zap.Error(err))
				continue
			}
			for _, c := range cols {
				null := "NOT NULL"
				if c.Nullable {
					null = "NULL"
				}
				fmt.Printf("    %-32s %-16s %s\n", c.Name, c.Type, null)
			}
		case req.Required:
			fmt.Printf("  table %s.%s: MISSING (required)\n", schema, req.Name)
			ok = false
		default:
			fmt.Printf("  table %s.%s: absent (optional)\n", schema, req.Name)
		}
	}
	return ok
}

// sampleCount row-counts one table as a read smoke test. Failures are
// reported but never affect the exit code; the contract check is the
// authority.
func sampleCount(ctx context.Context, log *zap.Logger, sess backend.Session, schema, name string) {
	present, err := sess.HasTable(ctx, schema, name)
	if err != nil || !present {
		return
	}
	qualified, err := backend.Qualify(schema, name)
	if err != nil {
		log.Warn("sample count skipped", zap.Error(err))
		return
	}
	tbl, err := sess.Query(ctx, "SELECT COUNT(*) FROM "+qualified)
	if err != nil {
		log.Warn("sample count failed", zap.String("table", qualified), zap.Error(err))
		return
	}
	if tbl.NumRows() == 1 && tbl.NumCols() == 1 {
		fmt.Printf("sample: %s has %v rows\n", qualified, tbl.Rows[0][0])
	}
}

// setupMetrics installs the metrics backend: flag wins, then config, then
// disabled.
func setupMetrics(log *zap.Logger, cfg *config.Config, backendFlg, gwURLFlg string) {
	name := backendFlg
	if name == "" {
		name = cfg.Metrics.Backend
	}
	job := cfg.Metrics.Job
	if job == "" {
		job = "checkdb"
	}

	switch name {
	case "pushgateway":
		gwURL := gwURLFlg
		if gwURL == "" {
			gwURL = cfg.Metrics.PushgatewayURL
		}
		if gwURL == "" {
			gwURL = os.Getenv("PUSHGATEWAY_URL")
		}
		if gwURL == "" {
			gwURL = "http://localhost:9091"
		}
		b, err := prompush.NewBackend(job, gwURL)
		if err != nil {
			log.Warn("pushgateway backend init failed; metrics disabled", zap.Error(err))
			return
		}
		log.Info("metrics enabled", zap.String("backend", name),
			zap.String("url", gwURL), zap.String("job", job))
		metrics.SetBackend(b)

	case "datadog":
		addr := cfg.Metrics.StatsdAddr
		if addr == "" {
			addr = "127.0.0.1:8125"
		}
		b, err := datadog.NewBackend(datadog.Config{
			Addr:       addr,
			Namespace:  "claimsdb.",
			GlobalTags: []string{"job:" + job},
		})
		if err != nil {
			log.Warn("datadog backend init failed; metrics disabled", zap.Error(err))
			return
		}
		log.Info("metrics enabled", zap.String("backend", name),
			zap.String("addr", addr), zap.String("job", job))
		metrics.SetBackend(b)

	case "", "none":
		// metrics disabled; nop backend remains

	default:
		log.Warn("unknown metrics backend; metrics disabled", zap.String("backend", name))
	}
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
