package core

import (
	"fmt"
	"sort"
)

// Table is a fetched dataset with ordered columns.
type Table struct {
	Name    string
	Columns []string
	Rows    [][]any
}

// NewTable creates an empty table with the given columns.
func NewTable(name string, columns []string) *Table {
	return &Table{Name: name, Columns: columns}
}

// NewTableFromMaps builds a table from row maps. When columns is empty the
// union of all keys is used, sorted by name.
func NewTableFromMaps(name string, columns []string, rows []map[string]any) *Table {
	if len(columns) == 0 {
		seen := make(map[string]struct{})
		for _, row := range rows {
			for k := range row {
				if _, ok := seen[k]; !ok {
					seen[k] = struct{}{}
					columns = append(columns, k)
				}
			}
		}
		sort.Strings(columns)
	}
	t := NewTable(name, columns)
	for _, row := range rows {
		values := make([]any, len(columns))
		for i, col := range columns {
			values[i] = row[col]
		}
		t.Rows = append(t.Rows, values)
	}
	return t
}

// AddRow appends a row, padding or truncating it to the column count.
func (t *Table) AddRow(values ...any) {
	row := make([]any, len(t.Columns))
	copy(row, values)
	t.Rows = append(t.Rows, row)
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// ColumnIndex returns the position of name, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Column returns the values of one column in row order.
func (t *Table) Column(name string) ([]any, error) {
	idx := t.ColumnIndex(name)
	if idx < 0 {
		return nil, fmt.Errorf("column '%s' not found in table '%s'", name, t.Name)
	}
	values := make([]any, len(t.Rows))
	for i, row := range t.Rows {
		values[i] = row[idx]
	}
	return values, nil
}

// ColumnNames maps 1-based column indices to names.
func (t *Table) ColumnNames(indices []int) ([]string, error) {
	names := make([]string, 0, len(indices))
	for _, i := range indices {
		if i < 1 || i > len(t.Columns) {
			return names, fmt.Errorf("column index %d out of range for table '%s' (%d columns)", i, t.Name, len(t.Columns))
		}
		names = append(names, t.Columns[i-1])
	}
	return names, nil
}

// ColumnSpan returns the names of columns start..end, 1-based and inclusive.
func (t *Table) ColumnSpan(start, end int) ([]string, error) {
	if start < 1 || end < start || end > len(t.Columns) {
		return nil, fmt.Errorf("column range %d:%d out of range for table '%s' (%d columns)", start, end, t.Name, len(t.Columns))
	}
	return append([]string(nil), t.Columns[start-1:end]...), nil
}

// RowMap returns row i keyed by column name.
func (t *Table) RowMap(i int) map[string]any {
	m := make(map[string]any, len(t.Columns))
	for j, col := range t.Columns {
		m[col] = t.Rows[i][j]
	}
	return m
}

// Copy creates a deep copy of the table rows.
func (t *Table) Copy() *Table {
	rows := make([][]any, len(t.Rows))
	for i, row := range t.Rows {
		rows[i] = append([]any(nil), row...)
	}
	return &Table{
		Name:    t.Name,
		Columns: append([]string(nil), t.Columns...),
		Rows:    rows,
	}
}

// Select keeps only the named columns, in the given order.
func (t *Table) Select(columns []string) (*Table, error) {
	idx := make([]int, len(columns))
	for i, name := range columns {
		idx[i] = t.ColumnIndex(name)
		if idx[i] < 0 {
			return nil, fmt.Errorf("column '%s' not found in table '%s'", name, t.Name)
		}
	}
	out := NewTable(t.Name, append([]string(nil), columns...))
	for _, row := range t.Rows {
		values := make([]any, len(idx))
		for i, j := range idx {
			values[i] = row[j]
		}
		out.Rows = append(out.Rows, values)
	}
	return out, nil
}
