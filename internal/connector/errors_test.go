package connector

import (
	"errors"
	"strings"
	"testing"
)

func TestMissingTableError_Message(t *testing.T) {
	t.Parallel()

	one := &MissingTableError{Schema: "clinical", Tables: []string{"members"}}
	if got := one.Error(); got != "missing required table: clinical.members" {
		t.Fatalf("Error() = %q", got)
	}
	if got := one.Table(); got != "clinical.members" {
		t.Fatalf("Table() = %q", got)
	}

	many := &MissingTableError{Schema: "clinical", Tables: []string{"claims_drugs", "members"}}
	msg := many.Error()
	for _, want := range []string{"clinical.claims_drugs", "clinical.members"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("Error() = %q, missing %q", msg, want)
		}
	}
}

func TestConfigurationError_Unwrap(t *testing.T) {
	t.Parallel()

	cause := errors.New("bad yaml")
	err := &ConfigurationError{Reason: "decode", Err: cause}
	if !errors.Is(err, cause) {
		t.Fatalf("cause not reachable through Unwrap")
	}
	bare := &ConfigurationError{Reason: "no backend section found"}
	if !strings.Contains(bare.Error(), "no backend section") {
		t.Fatalf("Error() = %q", bare.Error())
	}
}

func TestConnectionError_Message(t *testing.T) {
	t.Parallel()

	cause := errors.New("dial tcp: connection refused")
	err := &ConnectionError{Kind: "postgres", Err: cause}
	if !strings.Contains(err.Error(), "postgres") || !errors.Is(err, cause) {
		t.Fatalf("Error() = %q", err.Error())
	}
}
