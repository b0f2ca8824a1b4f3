package postgres

import (
	"strings"
	"testing"
	"time"

	"claimsdb/internal/backend"
)

func TestDSN_Full(t *testing.T) {
	t.Parallel()

	dsn := DSN(backend.Config{
		User:           "analytics",
		Password:       "secret",
		Host:           "db.internal",
		Port:           5433,
		Database:       "claims",
		ConnectTimeout: 10 * time.Second,
	})

	for _, want := range []string{
		"host=db.internal",
		"port=5433",
		"user=analytics",
		"dbname=claims",
		"password=secret",
		"connect_timeout=10",
	} {
		if !strings.Contains(dsn, want) {
			t.Fatalf("DSN %q missing %q", dsn, want)
		}
	}
}

func TestDSN_Defaults(t *testing.T) {
	t.Parallel()

	dsn := DSN(backend.Config{User: "u", Database: "claims"})
	if !strings.Contains(dsn, "host=localhost") || !strings.Contains(dsn, "port=5432") {
		t.Fatalf("DSN %q missing default host/port", dsn)
	}
	if strings.Contains(dsn, "password=") {
		t.Fatalf("DSN %q should omit empty password", dsn)
	}
	if strings.Contains(dsn, "connect_timeout=") {
		t.Fatalf("DSN %q should omit unset timeout", dsn)
	}
}

func TestQuoteKV(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in, want string
	}{
		{"plain", "plain"},
		{"with space", "'with space'"},
		{`qu'ote`, `'qu\'ote'`},
		{`back\slash`, `'back\\slash'`},
		{"", "''"},
	}
	for _, c := range cases {
		if got := quoteKV(c.in); got != c.want {
			t.Fatalf("quoteKV(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
