// Package table defines the in-memory tabular structure produced when the
// connector materializes a database table: ordered named columns plus rows of
// driver-typed values.
//
// A Table is built once by a backend driver and treated as immutable by all
// readers afterwards. It deliberately carries no backend-specific types; every
// cell is whatever the driver scanned (int64, float64, string, []byte,
// time.Time, nil, ...).
package table

import "fmt"

// Table holds a fully materialized result set: rows × named columns.
type Table struct {
	// Columns is the ordered list of column names as reported by the backend.
	Columns []string

	// Rows holds one slice per row, aligned to Columns.
	Rows [][]any
}

// New returns an empty Table with the given column names.
func New(columns []string) *Table {
	return &Table{Columns: columns}
}

// NumRows reports the number of rows.
func (t *Table) NumRows() int { return len(t.Rows) }

// NumCols reports the number of columns.
func (t *Table) NumCols() int { return len(t.Columns) }

// ColumnIndex returns the position of name in Columns, or -1 when absent.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Column returns all values of the named column in row order.
func (t *Table) Column(name string) ([]any, error) {
	idx := t.ColumnIndex(name)
	if idx < 0 {
		return nil, fmt.Errorf("table: no such column %q", name)
	}
	out := make([]any, len(t.Rows))
	for i, row := range t.Rows {
		out[i] = row[idx]
	}
	return out, nil
}

// Append adds a row. The row must be aligned to Columns; misaligned rows are
// rejected so a half-built Table cannot silently drift from its header.
func (t *Table) Append(row []any) error {
	if len(row) != len(t.Columns) {
		return fmt.Errorf("table: row length %d != columns length %d", len(row), len(t.Columns))
	}
	t.Rows = append(t.Rows, row)
	return nil
}
