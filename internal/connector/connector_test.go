package connector

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"claimsdb/internal/backend"
	"claimsdb/internal/config"
	"claimsdb/internal/table"
)

// fakeBackend serves tables from an in-memory map keyed by schema.name.
type fakeBackend struct {
	kind       string
	tables     map[string]*table.Table
	acquireErr error
	hasErr     error
	queryErr   error

	acquired int
	released int
	closed   bool
}

func (f *fakeBackend) Kind() string          { return f.kind }
func (f *fakeBackend) DefaultSchema() string { return "clinical" }

func (f *fakeBackend) ListSchemas(ctx context.Context) ([]string, error) {
	return []string{"clinical"}, nil
}

func (f *fakeBackend) Acquire(ctx context.Context) (backend.Session, error) {
	if f.acquireErr != nil {
		return nil, f.acquireErr
	}
	f.acquired++
	return &fakeSession{b: f}, nil
}

func (f *fakeBackend) Query(ctx context.Context, sql string) (*table.Table, error) {
	s := fakeSession{b: f}
	return s.Query(ctx, sql)
}

func (f *fakeBackend) Ping(ctx context.Context) error { return nil }
func (f *fakeBackend) Close()                         { f.closed = true }

type fakeSession struct {
	b *fakeBackend
}

func (s *fakeSession) HasTable(ctx context.Context, schema, name string) (bool, error) {
	if s.b.hasErr != nil {
		return false, s.b.hasErr
	}
	_, ok := s.b.tables[schema+"."+name]
	return ok, nil
}

func (s *fakeSession) Columns(ctx context.Context, schema, name string) ([]backend.Column, error) {
	tbl, ok := s.b.tables[schema+"."+name]
	if !ok {
		return nil, fmt.Errorf("no such table %s.%s", schema, name)
	}
	cols := make([]backend.Column, len(tbl.Columns))
	for i, c := range tbl.Columns {
		cols[i] = backend.Column{Name: c, Type: "TEXT", Nullable: true}
	}
	return cols, nil
}

func (s *fakeSession) Query(ctx context.Context, sql string) (*table.Table, error) {
	if s.b.queryErr != nil {
		return nil, s.b.queryErr
	}
	key := strings.TrimPrefix(sql, "SELECT * FROM ")
	tbl, ok := s.b.tables[key]
	if !ok {
		return nil, fmt.Errorf("no such table %s", key)
	}
	return tbl, nil
}

func (s *fakeSession) Release() { s.b.released++ }

// fullDataset returns a fake with every contract table present under
// clinical, members carrying two rows.
func fullDataset(tb testing.TB) *fakeBackend {
	tb.Helper()
	members := table.New([]string{"member_id_hash", "age_group", "gender"})
	members.Append([]any{"a1f3", "30-39", "F"})
	members.Append([]any{"9c0d", "40-49", "M"})

	tables := map[string]*table.Table{
		"clinical.members": members,
	}
	for _, name := range []string{
		"claims_entries", "claims_diagnoses", "claims_procedures",
		"claims_drugs", "claims_members_monthly_utilization",
	} {
		tables["clinical."+name] = table.New([]string{"claim_entry_id"})
	}
	return &fakeBackend{kind: "fake", tables: tables}
}

func TestAttach_MaterializesOnlyEagerTables(t *testing.T) {
	t.Parallel()

	fb := fullDataset(t)
	c, err := Attach(context.Background(), fb, "clinical")
	if err != nil {
		t.Fatalf("attach: %v", err)
	}

	got := c.Tables()
	if len(got) != 1 {
		t.Fatalf("materialized %d tables, want 1 (members only): %v", len(got), got)
	}
	members, ok := got["members"]
	if !ok {
		t.Fatalf("members not materialized")
	}
	if members.NumRows() != 2 || members.NumCols() != 3 {
		t.Fatalf("members = %dx%d, want 2x3", members.NumRows(), members.NumCols())
	}
	if len(c.Notes()) != 0 {
		t.Fatalf("unexpected notes: %v", c.Notes())
	}
	if c.Schema() != "clinical" {
		t.Fatalf("Schema = %q, want clinical", c.Schema())
	}
	if fb.released != fb.acquired {
		t.Fatalf("session not released: acquired=%d released=%d", fb.acquired, fb.released)
	}
}

func TestAttach_OptionalTableAbsent(t *testing.T) {
	t.Parallel()

	fb := fullDataset(t)
	delete(fb.tables, "clinical.claims_members_monthly_utilization")

	c, err := Attach(context.Background(), fb, "clinical")
	if err != nil {
		t.Fatalf("attach: %v", err)
	}

	notes := c.Notes()
	if len(notes) != 1 {
		t.Fatalf("notes = %v, want exactly one", notes)
	}
	if notes[0].Table != "claims_members_monthly_utilization" {
		t.Fatalf("note names %q", notes[0].Table)
	}
	if _, ok := c.Tables()["members"]; !ok {
		t.Fatalf("members should still be materialized")
	}
}

func TestAttach_MissingRequiredTable(t *testing.T) {
	t.Parallel()

	fb := fullDataset(t)
	delete(fb.tables, "clinical.claims_drugs")

	_, err := Attach(context.Background(), fb, "clinical")
	var mte *MissingTableError
	if !errors.As(err, &mte) {
		t.Fatalf("want MissingTableError, got %v", err)
	}
	if mte.Schema != "clinical" || len(mte.Tables) != 1 || mte.Tables[0] != "claims_drugs" {
		t.Fatalf("unexpected violation set: %+v", mte)
	}
	if !strings.Contains(err.Error(), "clinical.claims_drugs") {
		t.Fatalf("error does not name the table: %v", err)
	}
	if fb.closed {
		t.Fatalf("Attach must not close a caller-owned backend")
	}
}

func TestAttach_EmptyDatabaseReportsEveryRequiredTable(t *testing.T) {
	t.Parallel()

	fb := &fakeBackend{kind: "fake", tables: map[string]*table.Table{}}

	_, err := Attach(context.Background(), fb, "clinical")
	var mte *MissingTableError
	if !errors.As(err, &mte) {
		t.Fatalf("want MissingTableError, got %v", err)
	}
	want := []string{"claims_entries", "claims_diagnoses", "claims_procedures", "claims_drugs", "members"}
	if len(mte.Tables) != len(want) {
		t.Fatalf("Tables = %v, want %v", mte.Tables, want)
	}
	for i, name := range want {
		if mte.Tables[i] != name {
			t.Fatalf("Tables[%d] = %q, want %q (contract order)", i, mte.Tables[i], name)
		}
	}
}

func TestAttach_AcquireFailure(t *testing.T) {
	t.Parallel()

	sentinel := errors.New("pool exhausted")
	fb := &fakeBackend{kind: "fake", acquireErr: sentinel}

	_, err := Attach(context.Background(), fb, "clinical")
	var ce *ConnectionError
	if !errors.As(err, &ce) {
		t.Fatalf("want ConnectionError, got %v", err)
	}
	if ce.Kind != "fake" || !errors.Is(err, sentinel) {
		t.Fatalf("cause not preserved: %+v", ce)
	}
}

func TestAttach_CatalogFailure(t *testing.T) {
	t.Parallel()

	fb := fullDataset(t)
	fb.hasErr = errors.New("catalog query failed")

	_, err := Attach(context.Background(), fb, "clinical")
	var ce *ConnectionError
	if !errors.As(err, &ce) {
		t.Fatalf("want ConnectionError, got %v", err)
	}
}

func TestAttach_MaterializationFailure(t *testing.T) {
	t.Parallel()

	fb := fullDataset(t)
	fb.queryErr = errors.New("read failed")

	_, err := Attach(context.Background(), fb, "clinical")
	var ce *ConnectionError
	if !errors.As(err, &ce) {
		t.Fatalf("want ConnectionError, got %v", err)
	}
}

func TestAttach_RejectsHostileSchemaName(t *testing.T) {
	t.Parallel()

	fb := fullDataset(t)
	_, err := Attach(context.Background(), fb, "clinical; DROP TABLE members")
	var cfe *ConfigurationError
	if !errors.As(err, &cfe) {
		t.Fatalf("want ConfigurationError, got %v", err)
	}
	if fb.acquired != 0 {
		t.Fatalf("no session should be acquired for an invalid schema")
	}
}

func TestAttach_Repeatable(t *testing.T) {
	t.Parallel()

	fb := fullDataset(t)
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		c, err := Attach(ctx, fb, "clinical")
		if err != nil {
			t.Fatalf("attach #%d: %v", i+1, err)
		}
		if c.Tables()["members"].NumRows() != 2 {
			t.Fatalf("attach #%d produced a different result", i+1)
		}
	}
}

func TestAttach_CustomRequirements(t *testing.T) {
	t.Parallel()

	fb := fullDataset(t)
	reqs := []Requirement{
		{Name: "members", Required: true, Eager: true},
		{Name: "claims_drugs", Required: true, Eager: true},
	}
	c, err := Attach(context.Background(), fb, "clinical", WithRequirements(reqs))
	if err != nil {
		t.Fatalf("attach: %v", err)
	}
	if len(c.Tables()) != 2 {
		t.Fatalf("materialized %d tables, want 2", len(c.Tables()))
	}
	if got := c.Requirements(); len(got) != 2 {
		t.Fatalf("Requirements = %v", got)
	}
}

func TestAttach_MetricsDisabled(t *testing.T) {
	t.Parallel()

	fb := fullDataset(t)
	c, err := Attach(context.Background(), fb, "clinical", WithMetrics(false))
	if err != nil {
		t.Fatalf("attach: %v", err)
	}
	if _, ok := c.Tables()["members"]; !ok {
		t.Fatalf("materialization must not depend on metrics")
	}
}

func TestOpen_AmbiguousBackendSections(t *testing.T) {
	t.Parallel()

	cfg, err := config.Parse([]byte(`
duckdb:
  path: claims.db
postgres:
  user: analytics
  password: s
  database: claims
`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	_, err = Open(context.Background(), cfg)
	var cfe *ConfigurationError
	if !errors.As(err, &cfe) {
		t.Fatalf("want ConfigurationError, got %v", err)
	}
}

func TestOpen_LintErrorBlocksConnection(t *testing.T) {
	t.Parallel()

	cfg, err := config.Parse([]byte(`
postgres:
  user: analytics
  password: s
  host: db.internal
`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	_, err = Open(context.Background(), cfg)
	var cfe *ConfigurationError
	if !errors.As(err, &cfe) {
		t.Fatalf("want ConfigurationError, got %v", err)
	}
	if !strings.Contains(err.Error(), "database") {
		t.Fatalf("error should name the offending field: %v", err)
	}
}
