package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quarterlySales() *Table {
	t := NewTable("sales", []string{"region", "quarter", "amount", "units"})
	t.AddRow("S", "Q1", 5, 1)
	t.AddRow("N", "Q2", 20, 4)
	t.AddRow("N", "Q1", 10, 2)
	return t
}

func TestBuildPivot(t *testing.T) {
	p, err := BuildPivot(quarterlySales(), []string{"region"}, []string{"quarter"}, []string{"amount"})
	require.NoError(t, err)

	assert.Equal(t, 2, p.NumRows())
	assert.Equal(t, 2, p.NumColumns())

	regions, err := p.RowLevel("region")
	require.NoError(t, err)
	assert.Equal(t, []any{"N", "S"}, regions)

	quarters, err := p.ColumnLevel("quarter")
	require.NoError(t, err)
	assert.Equal(t, []any{"Q1", "Q2"}, quarters)

	assert.Equal(t, []any{10, 5}, p.Column(0))
	// (S, Q2) has no source row
	assert.Equal(t, []any{20, nil}, p.Column(1))
	assert.Equal(t, "amount/Q2", p.ColumnLabel(1))

	_, err = p.RowLevel("quarter")
	assert.Error(t, err)
	_, err = p.ColumnLevel("region")
	assert.Error(t, err)
}

func TestBuildPivot_DefaultValuesAndValueNames(t *testing.T) {
	p, err := BuildPivot(quarterlySales(), []string{"region"}, []string{"quarter"}, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"amount", "units"}, p.Values)
	assert.Equal(t, 4, p.NumColumns())

	names, err := p.ColumnLevel(ValueNamesLevel)
	require.NoError(t, err)
	assert.Equal(t, []any{"amount", "amount", "units", "units"}, names)

	quarters, err := p.ColumnLevel("quarter")
	require.NoError(t, err)
	assert.Equal(t, []any{"Q1", "Q2", "Q1", "Q2"}, quarters)

	assert.Equal(t, []any{2, 1}, p.Column(2))
	assert.Equal(t, "units/Q1", p.ColumnLabel(2))
}

func TestBuildPivot_NumericKeysSortNumerically(t *testing.T) {
	tbl := NewTable("t", []string{"n", "k", "v"})
	tbl.AddRow(int64(10), "a", 1)
	tbl.AddRow(int64(9), "a", 2)
	tbl.AddRow(2.5, "a", 3)

	p, err := BuildPivot(tbl, []string{"n"}, []string{"k"}, []string{"v"})
	require.NoError(t, err)
	keys, _ := p.RowLevel("n")
	assert.Equal(t, []any{2.5, int64(9), int64(10)}, keys)
	assert.Equal(t, []any{3, 2, 1}, p.Column(0))
}

func TestBuildPivot_Errors(t *testing.T) {
	tests := []struct {
		name                 string
		table                *Table
		rows, columns, value []string
	}{
		{"No Row Keys", quarterlySales(), nil, []string{"quarter"}, nil},
		{"No Column Keys", quarterlySales(), []string{"region"}, nil, nil},
		{"Unknown Column", quarterlySales(), []string{"city"}, []string{"quarter"}, nil},
		{"Unknown Value", quarterlySales(), []string{"region"}, []string{"quarter"}, []string{"price"}},
		{
			name: "Conflicting Duplicate",
			table: func() *Table {
				t := quarterlySales()
				t.AddRow("N", "Q1", 11, 2)
				return t
			}(),
			rows:    []string{"region"},
			columns: []string{"quarter"},
			value:   []string{"amount"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildPivot(tt.table, tt.rows, tt.columns, tt.value)
			assert.Error(t, err)
		})
	}

	// an identical duplicate is not a conflict
	tbl := quarterlySales()
	tbl.AddRow("N", "Q1", 10, 2)
	_, err := BuildPivot(tbl, []string{"region"}, []string{"quarter"}, []string{"amount"})
	assert.NoError(t, err)
}

func TestBuildPivot_RevenueByQuarter(t *testing.T) {
	tbl := NewTable("revenue", []string{"region", "quarter", "revenue"})
	tbl.AddRow("N", "Q1", 10)
	tbl.AddRow("N", "Q2", 12)
	tbl.AddRow("S", "Q1", 7)

	p, err := BuildPivot(tbl, []string{"region"}, []string{"quarter"}, []string{"revenue"})
	require.NoError(t, err)
	require.Equal(t, 2, p.NumRows())
	require.Equal(t, 2, p.NumColumns())
	assert.Equal(t, []any{10, 7}, p.Column(0))
	assert.Equal(t, []any{12, nil}, p.Column(1))
}
