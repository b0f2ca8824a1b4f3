// This file adds a lightweight linter for Config values. It performs static
// checks over a decoded Config and returns a list of issues (errors and
// warnings) that callers can surface in a CLI or tests. It never mutates the
// configuration.

package config

import (
	"fmt"
	"strings"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that should block execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates a configuration warning that should be surfaced
	// to users but does not block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation finding.
//
// Path is a dotted path into the config (e.g. "postgres.database").
// Message is human-readable.
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a single
// error in contexts that expect one.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// Validate performs static validation of a Config.
//
// Callers decide whether warnings are fatal. A Config with no SeverityError
// issues is safe to hand to the connector; the connector re-checks only what
// it cannot know statically (reachability, table presence).
func Validate(c *Config) []Issue {
	var issues []Issue

	kind, err := c.ResolveKind()
	if err != nil {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "backend",
			Message:  err.Error(),
		})
		return issues
	}

	switch kind {
	case KindDuckDB, KindSQLite:
		issues = append(issues, validateFile(kind, c.File(kind))...)
	case KindPostgres, KindMySQL:
		issues = append(issues, validateServer(kind, c.Server(kind))...)
	}

	issues = append(issues, validateLogging(c.Logging)...)
	issues = append(issues, validateMetrics(c.Metrics)...)
	return issues
}

// HasErrors reports whether any issue carries SeverityError.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

func validateFile(kind string, f *FileBackend) []Issue {
	var issues []Issue
	if strings.TrimSpace(f.Path) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     kind + ".path",
			Message:  "path must not be empty",
		})
	}
	return issues
}

func validateServer(kind string, s *ServerBackend) []Issue {
	var issues []Issue

	if strings.TrimSpace(s.Database) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     kind + ".database",
			Message:  "database must not be empty",
		})
	}
	if strings.TrimSpace(s.User) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     kind + ".user",
			Message:  "user must not be empty",
		})
	}
	if s.Host == "" {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     kind + ".host",
			Message:  "host is empty; localhost assumed",
		})
	}
	if s.Port == 0 {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     kind + ".port",
			Message:  "port is unset; the backend default will be used",
		})
	} else if s.Port < 0 || s.Port > 65535 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     kind + ".port",
			Message:  fmt.Sprintf("port %d out of range", s.Port),
		})
	}
	if kind == KindPostgres && s.Schema == "" {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     kind + ".schema",
			Message:  "schema is unset; defaulting to public",
		})
	}
	if s.PoolSize < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     kind + ".pool_size",
			Message:  "pool_size must not be negative",
		})
	}
	if s.MaxOverflow < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     kind + ".max_overflow",
			Message:  "max_overflow must not be negative",
		})
	}
	if s.MaxOverflow > 0 && s.PoolSize == 0 {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     kind + ".max_overflow",
			Message:  "max_overflow set without pool_size; the driver default baseline applies",
		})
	}
	if s.ConnectTimeoutSeconds < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     kind + ".connect_timeout_seconds",
			Message:  "connect_timeout_seconds must not be negative",
		})
	}
	return issues
}

func validateLogging(l Logging) []Issue {
	var issues []Issue
	switch l.Level {
	case "", "debug", "info", "warn", "error":
	default:
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "logging.level",
			Message:  fmt.Sprintf("unknown level %q (expected debug, info, warn, or error)", l.Level),
		})
	}
	switch l.Encoding {
	case "", "console", "json":
	default:
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "logging.encoding",
			Message:  fmt.Sprintf("unknown encoding %q (expected console or json)", l.Encoding),
		})
	}
	return issues
}

func validateMetrics(m Metrics) []Issue {
	var issues []Issue
	switch m.Backend {
	case "", "none", "pushgateway", "datadog":
	default:
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "metrics.backend",
			Message:  fmt.Sprintf("unknown metrics backend %q (expected none, pushgateway or datadog)", m.Backend),
		})
	}
	if m.Backend == "pushgateway" && m.PushgatewayURL == "" {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "metrics.pushgateway_url",
			Message:  "pushgateway backend selected without a URL; the default localhost URL applies",
		})
	}
	return issues
}
