// Package metrics provides a small, backend-agnostic abstraction for
// recording operational metrics from the connector.
//
// The package is intentionally minimal and opinionated:
//
//   - It exposes a narrow interface (Backend) focused on counters and timing
//     data.
//   - It provides a global, pluggable backend that defaults to a no-op
//     implementation, so metrics are always safe to call even when no real
//     backend is configured.
//   - It mirrors the backend-driver abstraction used elsewhere in the
//     project: the rest of the codebase depends only on this interface while
//     concrete metric systems stay isolated in subpackages (prompush,
//     datadog).
//
// The primary use case is instrumentation of connector construction
// (validation, materialization) without coupling the core logic to a
// specific metrics system.
package metrics

import "time"

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records a value in a latency/duration style metric.
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush pushes or flushes metrics, if the backend needs it (e.g. Pushgateway).
	Flush() error
}

// nopBackend is used by default so metrics are optional.
type nopBackend struct{}

func (nopBackend) IncCounter(name string, delta float64, labels Labels)       {}
func (nopBackend) ObserveHistogram(name string, value float64, labels Labels) {}
func (nopBackend) Flush() error                                               { return nil }

var backend Backend = nopBackend{}

// SetBackend installs a concrete backend. Passing nil keeps the existing backend.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	backend = b
}

// Flush delegates to the current backend.
func Flush() error {
	return backend.Flush()
}

// RecordTableCheck counts one table-existence check during validation.
// Required distinguishes contract tables from optional ones; present is the
// catalog answer.
func RecordTableCheck(job, table string, required, present bool) {
	status := "present"
	if !present {
		status = "missing"
	}
	requirement := "optional"
	if required {
		requirement = "required"
	}
	backend.IncCounter("claimsdb_tables_checked_total", 1, Labels{
		"job":      job,
		"table":    table,
		"status":   status,
		"required": requirement,
	})
}

// RecordMaterialized counts a table materialized into memory and the rows it
// carried.
func RecordMaterialized(job, table string, rows int64) {
	backend.IncCounter("claimsdb_tables_materialized_total", 1, Labels{
		"job":   job,
		"table": table,
	})
	if rows > 0 {
		backend.IncCounter("claimsdb_rows_materialized_total", float64(rows), Labels{
			"job":   job,
			"table": table,
		})
	}
}

// RecordConnect measures one connector construction attempt:
// success/failure plus wall time.
func RecordConnect(job string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	lbls := Labels{
		"job":    job,
		"status": status,
	}
	backend.IncCounter("claimsdb_connect_total", 1, lbls)
	backend.ObserveHistogram("claimsdb_connect_duration_seconds", d.Seconds(), lbls)
}
