package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rng(ref string) Range {
	r, err := ParseRange(ref)
	if err != nil {
		panic(err)
	}
	return r
}

func TestSheet_CellsAndExtent(t *testing.T) {
	s := NewSheet("Data")
	assert.Equal(t, 0, s.MaxRow())
	assert.Nil(t, s.Value(MustCoord("A1")))

	s.SetFormula(MustCoord("C2"), "A1+1")
	s.SetValue(MustCoord("C2"), 5)
	s.SetValue(MustCoord("A1"), "x")
	s.SetStyle(MustCoord("B3"), 7)
	require.NoError(t, s.Merge(rng("E1:F4")))

	assert.Equal(t, 5, s.Value(MustCoord("C2")))
	assert.Empty(t, s.Cell(MustCoord("C2")).Formula)
	assert.Equal(t, 7, s.Style(MustCoord("B3")))
	assert.Equal(t, 4, s.MaxRow())
	assert.Equal(t, 6, s.MaxCol())
	assert.Equal(t, []Coord{MustCoord("A1"), MustCoord("C2"), MustCoord("B3")}, s.Coords())
}

func TestSheet_Merge(t *testing.T) {
	s := NewSheet("Data")
	require.NoError(t, s.Merge(rng("C3:D4")))
	require.NoError(t, s.Merge(rng("B2:A1")))
	require.NoError(t, s.Merge(rng("F6")))

	assert.Equal(t, []Range{rng("A1:B2"), rng("C3:D4")}, s.MergedRanges())

	err := s.Merge(rng("D4:E5"))
	assert.True(t, errors.Is(err, ErrOverlappingMerge))

	r, ok := s.MergeAt(MustCoord("D3"))
	require.True(t, ok)
	assert.Equal(t, rng("C3:D4"), r)

	assert.True(t, s.Unmerge(rng("C3:D4")))
	assert.False(t, s.Unmerge(rng("C3:D4")))
	_, ok = s.MergeAt(MustCoord("D3"))
	assert.False(t, ok)
}

func TestWorkbook_Sheets(t *testing.T) {
	wb := &Workbook{}
	first := wb.AddSheet("One")
	wb.AddSheet("Two")
	assert.Same(t, first, wb.Sheet("One"))
	assert.Nil(t, wb.Sheet("Three"))
	assert.Len(t, wb.Sheets, 2)
}
