package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeColumn(t *testing.T) {
	tests := []struct {
		index   int
		letters string
	}{
		{1, "A"},
		{26, "Z"},
		{27, "AA"},
		{52, "AZ"},
		{53, "BA"},
		{702, "ZZ"},
		{703, "AAA"},
		{16384, "XFD"},
	}
	for _, tt := range tests {
		t.Run(tt.letters, func(t *testing.T) {
			got, err := EncodeColumn(tt.index)
			require.NoError(t, err)
			assert.Equal(t, tt.letters, got)

			back, err := DecodeColumn(tt.letters)
			require.NoError(t, err)
			assert.Equal(t, tt.index, back)
		})
	}

	for i := 1; i <= 2000; i++ {
		letters, err := EncodeColumn(i)
		require.NoError(t, err)
		back, err := DecodeColumn(letters)
		require.NoError(t, err)
		require.Equal(t, i, back, letters)
	}

	_, err := EncodeColumn(0)
	assert.Error(t, err)
	_, err = DecodeColumn("A1")
	assert.Error(t, err)
}

func TestParseCoord(t *testing.T) {
	c, err := ParseCoord("AB12")
	require.NoError(t, err)
	assert.Equal(t, Coord{Col: 28, Row: 12}, c)
	assert.Equal(t, "AB12", c.String())

	_, err = ParseCoord("12AB")
	assert.Error(t, err)
	assert.Equal(t, "R0C3", Coord{Col: 3}.String())
}

func TestCoord_Shift(t *testing.T) {
	b := Bounds{MaxRow: 10, MaxCol: 5}
	tests := []struct {
		name       string
		from       Coord
		dRow, dCol int
		bounds     Bounds
		want       Coord
		wantErr    bool
	}{
		{"Down", Coord{Col: 1, Row: 1}, 3, 0, b, Coord{Col: 1, Row: 4}, false},
		{"Right", Coord{Col: 1, Row: 1}, 0, 4, b, Coord{Col: 5, Row: 1}, false},
		{"Past Max Row", Coord{Col: 1, Row: 10}, 1, 0, b, Coord{}, true},
		{"Past Max Col", Coord{Col: 5, Row: 1}, 0, 1, b, Coord{}, true},
		{"Above First Row", Coord{Col: 1, Row: 1}, -1, 0, b, Coord{}, true},
		{"Unbounded", Coord{Col: 5, Row: 10}, 5, 5, Bounds{}, Coord{Col: 10, Row: 15}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.from.Shift(tt.dRow, tt.dCol, tt.bounds)
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrOutOfBounds))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRange(t *testing.T) {
	r, err := ParseRange("C3:A1")
	require.NoError(t, err)
	assert.Equal(t, "A1:C3", r.String())
	assert.Equal(t, 3, r.Rows())
	assert.Equal(t, 3, r.Cols())
	assert.True(t, r.Contains(MustCoord("B2")))
	assert.False(t, r.Contains(MustCoord("D1")))

	single, err := ParseRange("B7")
	require.NoError(t, err)
	assert.True(t, single.IsCell())
	assert.Equal(t, "B7", single.String())

	_, err = ParseRange("A1:B2:C3")
	assert.Error(t, err)

	moved := r.MoveTo(MustCoord("D10"))
	assert.Equal(t, "D10:F12", moved.String())
}

func TestFindRangeAndIntersecting(t *testing.T) {
	ranges := []Range{
		{Min: MustCoord("A1"), Max: MustCoord("B2")},
		{Min: MustCoord("D1"), Max: MustCoord("D4")},
	}

	r, ok := FindRange(MustCoord("B2"), ranges)
	require.True(t, ok)
	assert.Equal(t, ranges[0], r)

	r, ok = FindRange(MustCoord("D3"), ranges)
	require.True(t, ok)
	assert.Equal(t, ranges[1], r)

	_, ok = FindRange(MustCoord("C1"), ranges)
	assert.False(t, ok)

	hits := Intersecting(Range{Min: MustCoord("B2"), Max: MustCoord("D2")}, ranges)
	assert.Equal(t, ranges, hits)
	assert.Empty(t, Intersecting(Range{Min: MustCoord("C5"), Max: MustCoord("C6")}, ranges))
}
