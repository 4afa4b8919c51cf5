package core

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrOutOfBounds is returned when a coordinate leaves the grid.
var ErrOutOfBounds = errors.New("coordinate out of bounds")

// Coord addresses a cell by 1-based column and row.
type Coord struct {
	Col int
	Row int
}

// Bounds limits a grid. A zero field leaves that dimension unbounded.
type Bounds struct {
	MaxRow int
	MaxCol int
}

// EncodeColumn converts a 1-based column index to its letters (1 -> A, 27 -> AA).
func EncodeColumn(index int) (string, error) {
	return excelize.ColumnNumberToName(index)
}

// DecodeColumn converts column letters to a 1-based index.
func DecodeColumn(letters string) (int, error) {
	return excelize.ColumnNameToNumber(letters)
}

// ParseCoord parses a cell name such as "B7".
func ParseCoord(name string) (Coord, error) {
	col, row, err := excelize.CellNameToCoordinates(name)
	if err != nil {
		return Coord{}, err
	}
	return Coord{Col: col, Row: row}, nil
}

// MustCoord is ParseCoord for literals known to be valid.
func MustCoord(name string) Coord {
	c, err := ParseCoord(name)
	if err != nil {
		panic(err)
	}
	return c
}

func (c Coord) String() string {
	name, err := excelize.CoordinatesToCellName(c.Col, c.Row)
	if err != nil {
		return fmt.Sprintf("R%dC%d", c.Row, c.Col)
	}
	return name
}

// Shift moves the coordinate by the given deltas. Rows and columns below 1,
// or beyond a non-zero bound, yield ErrOutOfBounds.
func (c Coord) Shift(dRow, dCol int, b Bounds) (Coord, error) {
	next := Coord{Col: c.Col + dCol, Row: c.Row + dRow}
	if next.Row < 1 || next.Col < 1 ||
		(b.MaxRow > 0 && next.Row > b.MaxRow) ||
		(b.MaxCol > 0 && next.Col > b.MaxCol) {
		return c, fmt.Errorf("shift %s by (%d, %d): %w", c, dRow, dCol, ErrOutOfBounds)
	}
	return next, nil
}

// Range is a rectangular block of cells, inclusive on both corners.
type Range struct {
	Min Coord
	Max Coord
}

// NewRange builds a range from two corners in any order.
func NewRange(a, b Coord) Range {
	return Range{
		Min: Coord{Col: min(a.Col, b.Col), Row: min(a.Row, b.Row)},
		Max: Coord{Col: max(a.Col, b.Col), Row: max(a.Row, b.Row)},
	}
}

// ParseRange parses "A1:C3" or a single cell "A1".
func ParseRange(ref string) (Range, error) {
	parts := strings.Split(ref, ":")
	if len(parts) > 2 {
		return Range{}, fmt.Errorf("invalid range: %s", ref)
	}
	first, err := ParseCoord(parts[0])
	if err != nil {
		return Range{}, err
	}
	if len(parts) == 1 {
		return Range{Min: first, Max: first}, nil
	}
	second, err := ParseCoord(parts[1])
	if err != nil {
		return Range{}, err
	}
	return NewRange(first, second), nil
}

func (r Range) String() string {
	if r.Min == r.Max {
		return r.Min.String()
	}
	return r.Min.String() + ":" + r.Max.String()
}

// Rows returns the number of rows the range spans.
func (r Range) Rows() int { return r.Max.Row - r.Min.Row + 1 }

// Cols returns the number of columns the range spans.
func (r Range) Cols() int { return r.Max.Col - r.Min.Col + 1 }

// IsCell reports whether the range covers exactly one cell.
func (r Range) IsCell() bool { return r.Min == r.Max }

// Contains reports whether c lies inside r.
func (r Range) Contains(c Coord) bool {
	return c.Row >= r.Min.Row && c.Row <= r.Max.Row &&
		c.Col >= r.Min.Col && c.Col <= r.Max.Col
}

// Intersects reports whether r and o share at least one cell.
func (r Range) Intersects(o Range) bool {
	return r.Min.Row <= o.Max.Row && o.Min.Row <= r.Max.Row &&
		r.Min.Col <= o.Max.Col && o.Min.Col <= r.Max.Col
}

// MoveTo returns a range of the same shape whose top-left corner is c.
func (r Range) MoveTo(c Coord) Range {
	return Range{
		Min: c,
		Max: Coord{Col: c.Col + r.Max.Col - r.Min.Col, Row: c.Row + r.Max.Row - r.Min.Row},
	}
}

// FindRange returns the range containing target, if any.
func FindRange(target Coord, ranges []Range) (Range, bool) {
	for _, r := range ranges {
		if r.Contains(target) {
			return r, true
		}
	}
	return Range{}, false
}

// Intersecting returns every range overlapping r.
func Intersecting(r Range, ranges []Range) []Range {
	var hits []Range
	for _, o := range ranges {
		if r.Intersects(o) {
			hits = append(hits, o)
		}
	}
	return hits
}
