// Package table holds the in-memory tabular form the exporters consume.
// Cells are nullable strings (nil = missing) so the enriched output keeps the
// source columns byte-for-byte; each column declares a kind that drives the
// Parquet schema for numeric columns.
package table

import (
	"fmt"
	"strconv"
)

// Kind is the logical type of a column, used for Parquet schema generation.
type Kind int

const (
	// KindString exports as UTF8.
	KindString Kind = iota
	// KindFloat exports as DOUBLE.
	KindFloat
	// KindInt exports as INT64.
	KindInt
)

// Column is a named, typed table column.
type Column struct {
	Name string
	Kind Kind
}

// Table is an ordered set of columns with row-major nullable string cells.
type Table struct {
	Cols []Column
	Rows [][]*string

	index map[string]int
}

// New creates an empty table with the given columns.
func New(cols ...Column) *Table {
	t := &Table{Cols: cols}
	t.rebuildIndex()
	return t
}

func (t *Table) rebuildIndex() {
	t.index = make(map[string]int, len(t.Cols))
	for i, c := range t.Cols {
		t.index[c.Name] = i
	}
}

// ColumnIndex returns the position of the named column.
func (t *Table) ColumnIndex(name string) (int, bool) {
	i, ok := t.index[name]
	return i, ok
}

// ColumnNames returns the column names in order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Cols))
	for i, c := range t.Cols {
		names[i] = c.Name
	}
	return names
}

// Append adds one row. The row length must match the column count.
func (t *Table) Append(row []*string) error {
	if len(row) != len(t.Cols) {
		return fmt.Errorf("table: row has %d cells, want %d", len(row), len(t.Cols))
	}
	t.Rows = append(t.Rows, row)
	return nil
}

// AddColumn appends a column with one value per existing row.
func (t *Table) AddColumn(col Column, values []*string) error {
	if len(values) != len(t.Rows) {
		return fmt.Errorf("table: column %s has %d values, want %d", col.Name, len(values), len(t.Rows))
	}
	if _, dup := t.index[col.Name]; dup {
		return fmt.Errorf("table: duplicate column %s", col.Name)
	}
	t.Cols = append(t.Cols, col)
	t.index[col.Name] = len(t.Cols) - 1
	for i := range t.Rows {
		t.Rows[i] = append(t.Rows[i], values[i])
	}
	return nil
}

// Cell returns the value at (row, column name), nil when missing.
func (t *Table) Cell(row int, name string) *string {
	i, ok := t.index[name]
	if !ok || row >= len(t.Rows) {
		return nil
	}
	return t.Rows[row][i]
}

// NumRows returns the row count.
func (t *Table) NumRows() int {
	return len(t.Rows)
}

// String wraps a string value as a cell.
func String(s string) *string {
	return &s
}

// Float formats a float value as a cell.
func Float(f float64) *string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	return &s
}

// Int formats an integer value as a cell.
func Int(n int64) *string {
	s := strconv.FormatInt(n, 10)
	return &s
}

// FloatPtr formats a nullable float, preserving nil.
func FloatPtr(f *float64) *string {
	if f == nil {
		return nil
	}
	return Float(*f)
}
