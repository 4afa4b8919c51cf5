package core

import (
	"cmp"
	"fmt"
	"sort"
	"strings"
	"time"
)

// ValueNamesLevel names the column level holding the value column names.
const ValueNamesLevel = "__VAL_NAMES__"

// PivotTable is a table re-indexed by distinct row keys and
// (value name, column key) pairs.
type PivotTable struct {
	RowLevels    []string
	ColumnLevels []string
	Values       []string

	rowKeys [][]any
	colKeys [][]any
	cells   map[[2]int]any
}

// BuildPivot pivots t. Rows and columns name the key columns; values names
// the value columns, or every remaining column when empty.
func BuildPivot(t *Table, rows, columns, values []string) (*PivotTable, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("pivot of table '%s' needs at least one row key", t.Name)
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("pivot of table '%s' needs at least one column key", t.Name)
	}
	if len(values) == 0 {
		used := make(map[string]bool)
		for _, n := range append(append([]string(nil), rows...), columns...) {
			used[n] = true
		}
		for _, n := range t.Columns {
			if !used[n] {
				values = append(values, n)
			}
		}
	}

	rowIdx, err := columnIndices(t, rows)
	if err != nil {
		return nil, err
	}
	colIdx, err := columnIndices(t, columns)
	if err != nil {
		return nil, err
	}
	valIdx, err := columnIndices(t, values)
	if err != nil {
		return nil, err
	}

	p := &PivotTable{
		RowLevels:    append([]string(nil), rows...),
		ColumnLevels: append([]string(nil), columns...),
		Values:       append([]string(nil), values...),
		cells:        make(map[[2]int]any),
	}
	p.rowKeys = distinctTuples(t, rowIdx)
	p.colKeys = distinctTuples(t, colIdx)

	rowPos := tuplePositions(p.rowKeys)
	colPos := tuplePositions(p.colKeys)
	nc := len(p.colKeys)
	for _, row := range t.Rows {
		ri := rowPos[tupleKey(pick(row, rowIdx))]
		ci := colPos[tupleKey(pick(row, colIdx))]
		for vi, j := range valIdx {
			at := [2]int{ri, vi*nc + ci}
			if prev, dup := p.cells[at]; dup && !equalValues(prev, row[j]) {
				return nil, fmt.Errorf("pivot of table '%s' has duplicate entries for row %v, column %v",
					t.Name, p.rowKeys[ri], p.colKeys[ci])
			}
			p.cells[at] = row[j]
		}
	}
	return p, nil
}

// NumRows is the number of distinct row keys.
func (p *PivotTable) NumRows() int { return len(p.rowKeys) }

// NumColumns is the number of value columns times the column keys.
func (p *PivotTable) NumColumns() int { return len(p.Values) * len(p.colKeys) }

// RowLevel returns the values of one row key level, one per pivot row.
func (p *PivotTable) RowLevel(name string) ([]any, error) {
	idx := indexOf(p.RowLevels, name)
	if idx < 0 {
		return nil, fmt.Errorf("'%s' is not a row level of the pivot", name)
	}
	out := make([]any, len(p.rowKeys))
	for i, key := range p.rowKeys {
		out[i] = key[idx]
	}
	return out, nil
}

// ColumnLevel returns the values of one column key level, one per pivot
// column. ValueNamesLevel yields the value column names.
func (p *PivotTable) ColumnLevel(name string) ([]any, error) {
	nc := len(p.colKeys)
	out := make([]any, p.NumColumns())
	if name == ValueNamesLevel {
		for j := range out {
			out[j] = p.Values[j/nc]
		}
		return out, nil
	}
	idx := indexOf(p.ColumnLevels, name)
	if idx < 0 {
		return nil, fmt.Errorf("'%s' is not a column level of the pivot", name)
	}
	for j := range out {
		out[j] = p.colKeys[j%nc][idx]
	}
	return out, nil
}

// Column returns pivot column j; absent combinations are nil.
func (p *PivotTable) Column(j int) []any {
	out := make([]any, len(p.rowKeys))
	for i := range out {
		out[i] = p.cells[[2]int{i, j}]
	}
	return out
}

// ColumnLabel describes pivot column j as "value/key...".
func (p *PivotTable) ColumnLabel(j int) string {
	nc := len(p.colKeys)
	parts := []string{p.Values[j/nc]}
	for _, v := range p.colKeys[j%nc] {
		parts = append(parts, fmt.Sprint(v))
	}
	return strings.Join(parts, "/")
}

func columnIndices(t *Table, names []string) ([]int, error) {
	idx := make([]int, len(names))
	for i, n := range names {
		idx[i] = t.ColumnIndex(n)
		if idx[i] < 0 {
			return nil, fmt.Errorf("column '%s' not found in table '%s'", n, t.Name)
		}
	}
	return idx, nil
}

func pick(row []any, idx []int) []any {
	out := make([]any, len(idx))
	for i, j := range idx {
		out[i] = row[j]
	}
	return out
}

func distinctTuples(t *Table, idx []int) [][]any {
	seen := make(map[string]struct{})
	var keys [][]any
	for _, row := range t.Rows {
		key := pick(row, idx)
		k := tupleKey(key)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, key)
	}
	sort.SliceStable(keys, func(i, j int) bool {
		for n := range keys[i] {
			if c := compareValues(keys[i][n], keys[j][n]); c != 0 {
				return c < 0
			}
		}
		return false
	})
	return keys
}

func tuplePositions(keys [][]any) map[string]int {
	pos := make(map[string]int, len(keys))
	for i, k := range keys {
		pos[tupleKey(k)] = i
	}
	return pos
}

func tupleKey(values []any) string {
	var b strings.Builder
	for _, v := range values {
		fmt.Fprintf(&b, "%T:%v\x00", v, v)
	}
	return b.String()
}

func indexOf(names []string, name string) int {
	for i, n := range names {
		if n == name {
			return i
		}
	}
	return -1
}

func equalValues(a, b any) bool {
	if a == nil && b == nil {
		return true
	}
	return sameValue(a, b)
}

// compareValues orders numbers numerically, times chronologically and
// everything else by its text. Nil sorts first.
func compareValues(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	if x, ok := toFloat(a); ok {
		if y, ok := toFloat(b); ok {
			return cmp.Compare(x, y)
		}
	}
	if x, ok := a.(time.Time); ok {
		if y, ok := b.(time.Time); ok {
			return x.Compare(y)
		}
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case int:
		return float64(x), true
	case int8:
		return float64(x), true
	case int16:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint:
		return float64(x), true
	case uint8:
		return float64(x), true
	case uint16:
		return float64(x), true
	case uint32:
		return float64(x), true
	case uint64:
		return float64(x), true
	case float32:
		return float64(x), true
	case float64:
		return x, true
	}
	return 0, false
}
