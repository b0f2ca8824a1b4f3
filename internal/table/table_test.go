package table

import (
	"testing"
)

func newSample(tb testing.TB) *Table {
	tb.Helper()
	t := New([]string{"member_id_hash", "age", "region"})
	rows := [][]any{
		{"a1", int64(34), "west"},
		{"b2", int64(61), "east"},
		{"c3", int64(47), "west"},
	}
	for _, r := range rows {
		if err := t.Append(r); err != nil {
			tb.Fatalf("append: %v", err)
		}
	}
	return t
}

func TestDimensions(t *testing.T) {
	t.Parallel()

	tbl := newSample(t)
	if got, want := tbl.NumRows(), 3; got != want {
		t.Fatalf("NumRows = %d, want %d", got, want)
	}
	if got, want := tbl.NumCols(), 3; got != want {
		t.Fatalf("NumCols = %d, want %d", got, want)
	}
}

func TestColumnIndex(t *testing.T) {
	t.Parallel()

	tbl := newSample(t)
	if got, want := tbl.ColumnIndex("age"), 1; got != want {
		t.Fatalf("ColumnIndex(age) = %d, want %d", got, want)
	}
	if got := tbl.ColumnIndex("nope"); got != -1 {
		t.Fatalf("ColumnIndex(nope) = %d, want -1", got)
	}
}

func TestColumn(t *testing.T) {
	t.Parallel()

	tbl := newSample(t)
	vals, err := tbl.Column("region")
	if err != nil {
		t.Fatalf("Column: %v", err)
	}
	want := []any{"west", "east", "west"}
	if len(vals) != len(want) {
		t.Fatalf("Column length = %d, want %d", len(vals), len(want))
	}
	for i := range want {
		if vals[i] != want[i] {
			t.Fatalf("Column[%d] = %v, want %v", i, vals[i], want[i])
		}
	}

	if _, err := tbl.Column("missing"); err == nil {
		t.Fatalf("expected error for unknown column")
	}
}

func TestAppend_Misaligned(t *testing.T) {
	t.Parallel()

	tbl := New([]string{"a", "b"})
	if err := tbl.Append([]any{1}); err == nil {
		t.Fatalf("expected error for misaligned row")
	}
	if tbl.NumRows() != 0 {
		t.Fatalf("misaligned row must not be stored")
	}
}
