package connector

import (
	"fmt"
	"strings"
)

// The connector surfaces exactly three error classes, all terminal: a
// malformed configuration, an unreachable backend, or a violated table
// contract. None is retried or downgraded; the caller is the error boundary.

// ConfigurationError reports a malformed or missing configuration section.
type ConfigurationError struct {
	Reason string
	Err    error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("configuration: %s: %v", e.Reason, e.Err)
	}
	return "configuration: " + e.Reason
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// ConnectionError reports an unreachable backend or an authentication
// failure, as propagated from the driver.
type ConnectionError struct {
	Kind string // backend kind, e.g. "postgres"
	Err  error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection (%s): %v", e.Kind, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// MissingTableError reports required tables absent under the resolved
// schema. Validation checks every required table before failing, so Tables
// usually carries the complete set of violations in requirement order.
type MissingTableError struct {
	Schema string
	Tables []string
}

func (e *MissingTableError) Error() string {
	qualified := make([]string, len(e.Tables))
	for i, t := range e.Tables {
		qualified[i] = e.Schema + "." + t
	}
	if len(qualified) == 1 {
		return "missing required table: " + qualified[0]
	}
	return "missing required tables: " + strings.Join(qualified, ", ")
}

// Table returns the first missing table, schema-qualified.
func (e *MissingTableError) Table() string {
	if len(e.Tables) == 0 {
		return ""
	}
	return e.Schema + "." + e.Tables[0]
}
