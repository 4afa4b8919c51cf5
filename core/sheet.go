package core

import (
	"errors"
	"fmt"
	"sort"
)

// ErrOverlappingMerge is returned when a merge would overlap an existing one.
var ErrOverlappingMerge = errors.New("merged ranges overlap")

// Cell holds a value, an optional formula and an opaque style id.
type Cell struct {
	Value   any
	Formula string
	Style   int

	// written marks cells produced during the current run.
	written bool
}

// Sheet is the in-memory grid of one worksheet.
type Sheet struct {
	Name   string
	Bounds Bounds

	cells   map[Coord]*Cell
	merges  []Range
	joined  []joinedMerge
	heights map[int]float64
	widths  map[int]float64
	layout  *sheetLayout
}

// joinedMerge is a merged range created by joining equal neighbours. unit is
// the merge its first cell carried before the join, if any.
type joinedMerge struct {
	box     Range
	unit    Range
	hasUnit bool
}

// NewSheet returns an empty sheet with no bounds.
func NewSheet(name string) *Sheet {
	return &Sheet{
		Name:    name,
		cells:   make(map[Coord]*Cell),
		heights: make(map[int]float64),
		widths:  make(map[int]float64),
	}
}

// Cell returns the cell at c, or nil when nothing is stored there.
func (s *Sheet) Cell(c Coord) *Cell {
	return s.cells[c]
}

func (s *Sheet) ensure(c Coord) *Cell {
	cell, ok := s.cells[c]
	if !ok {
		cell = &Cell{}
		s.cells[c] = cell
	}
	return cell
}

// Value returns the value at c, or nil for an empty cell.
func (s *Sheet) Value(c Coord) any {
	if cell := s.cells[c]; cell != nil {
		return cell.Value
	}
	return nil
}

// SetValue stores v at c and drops any formula there.
func (s *Sheet) SetValue(c Coord, v any) {
	cell := s.ensure(c)
	cell.Value = v
	cell.Formula = ""
}

// SetFormula stores a formula at c. The cached value is kept.
func (s *Sheet) SetFormula(c Coord, formula string) {
	s.ensure(c).Formula = formula
}

// Style returns the style id at c, 0 for an unstyled cell.
func (s *Sheet) Style(c Coord) int {
	if cell := s.cells[c]; cell != nil {
		return cell.Style
	}
	return 0
}

// SetStyle sets the style id at c.
func (s *Sheet) SetStyle(c Coord, style int) {
	s.ensure(c).Style = style
}

// Coords lists stored cells in row-major order.
func (s *Sheet) Coords() []Coord {
	coords := make([]Coord, 0, len(s.cells))
	for c := range s.cells {
		coords = append(coords, c)
	}
	sort.Slice(coords, func(i, j int) bool {
		if coords[i].Row != coords[j].Row {
			return coords[i].Row < coords[j].Row
		}
		return coords[i].Col < coords[j].Col
	})
	return coords
}

// MaxRow is the last row holding a cell or a merged range.
func (s *Sheet) MaxRow() int {
	n := 0
	for c := range s.cells {
		n = max(n, c.Row)
	}
	for _, r := range s.merges {
		n = max(n, r.Max.Row)
	}
	return n
}

// MaxCol is the last column holding a cell or a merged range.
func (s *Sheet) MaxCol() int {
	n := 0
	for c := range s.cells {
		n = max(n, c.Col)
	}
	for _, r := range s.merges {
		n = max(n, r.Max.Col)
	}
	return n
}

// MergedRanges returns a copy of the merged ranges, ordered by top-left corner.
func (s *Sheet) MergedRanges() []Range {
	return append([]Range(nil), s.merges...)
}

// MergeAt returns the merged range containing c.
func (s *Sheet) MergeAt(c Coord) (Range, bool) {
	return FindRange(c, s.merges)
}

// Intersecting returns the merged ranges overlapping r.
func (s *Sheet) Intersecting(r Range) []Range {
	return Intersecting(r, s.merges)
}

// Merge registers r as a merged range. Single cells are ignored.
func (s *Sheet) Merge(r Range) error {
	r = NewRange(r.Min, r.Max)
	if r.IsCell() {
		return nil
	}
	if hits := s.Intersecting(r); len(hits) > 0 {
		return fmt.Errorf("merge %s with %s: %w", r, hits[0], ErrOverlappingMerge)
	}
	s.merges = append(s.merges, r)
	s.sortMerges()
	return nil
}

// Unmerge removes r if it is registered and reports whether it was.
func (s *Sheet) Unmerge(r Range) bool {
	for i, j := range s.joined {
		if j.box == r {
			s.joined = append(s.joined[:i], s.joined[i+1:]...)
			break
		}
	}
	for i, m := range s.merges {
		if m == r {
			s.merges = append(s.merges[:i], s.merges[i+1:]...)
			return true
		}
	}
	return false
}

// join merges box as a run of equal values whose first cell had unit.
func (s *Sheet) join(box, unit Range, hasUnit bool) error {
	if err := s.Merge(box); err != nil {
		return err
	}
	if !box.IsCell() {
		s.joined = append(s.joined, joinedMerge{box: box, unit: unit, hasUnit: hasUnit})
	}
	return nil
}

// shapeAt returns the merge c carries as a template cell. A joined run
// counts as the merge its first cell had before the join.
func (s *Sheet) shapeAt(c Coord) (Range, bool) {
	r, ok := s.MergeAt(c)
	if !ok {
		return Range{}, false
	}
	for _, j := range s.joined {
		if j.box == r {
			if j.hasUnit && j.unit.Contains(c) {
				return j.unit, true
			}
			return Range{}, false
		}
	}
	return r, true
}

// splitJoined undoes every joined run overlapping area, restoring the merge
// each run replaced at its first cell.
func (s *Sheet) splitJoined(area Range) error {
	var hits []joinedMerge
	for _, j := range s.joined {
		if j.box.Intersects(area) {
			hits = append(hits, j)
		}
	}
	for _, j := range hits {
		s.Unmerge(j.box)
		if j.hasUnit {
			if err := s.Merge(j.unit); err != nil {
				return fmt.Errorf("restore merge %s: %w", j.unit, err)
			}
		}
	}
	return nil
}

func (s *Sheet) sortMerges() {
	sort.Slice(s.merges, func(i, j int) bool {
		a, b := s.merges[i].Min, s.merges[j].Min
		if a.Row != b.Row {
			return a.Row < b.Row
		}
		return a.Col < b.Col
	})
}

// RowHeight returns the custom height of row, if set.
func (s *Sheet) RowHeight(row int) (float64, bool) {
	h, ok := s.heights[row]
	return h, ok
}

func (s *Sheet) SetRowHeight(row int, height float64) {
	s.heights[row] = height
}

// ColWidth returns the custom width of col, if set.
func (s *Sheet) ColWidth(col int) (float64, bool) {
	w, ok := s.widths[col]
	return w, ok
}

func (s *Sheet) SetColWidth(col int, width float64) {
	s.widths[col] = width
}

// axis selects the dimension rows or columns are counted along.
type axis int

const (
	rowAxis axis = iota
	colAxis
)

func (a axis) of(c Coord) int {
	if a == rowAxis {
		return c.Row
	}
	return c.Col
}

func (a axis) with(c Coord, v int) Coord {
	if a == rowAxis {
		c.Row = v
	} else {
		c.Col = v
	}
	return c
}

func (a axis) move(c Coord, d int) Coord {
	return a.with(c, a.of(c)+d)
}

// span is the extent of r along the axis.
func (a axis) span(r Range) int {
	if a == rowAxis {
		return r.Rows()
	}
	return r.Cols()
}

func (a axis) bound(b Bounds) int {
	if a == rowAxis {
		return b.MaxRow
	}
	return b.MaxCol
}

func (a axis) extent(s *Sheet) int {
	if a == rowAxis {
		return s.MaxRow()
	}
	return s.MaxCol()
}

// sizes returns the row heights or column widths map.
func (a axis) sizes(s *Sheet) map[int]float64 {
	if a == rowAxis {
		return s.heights
	}
	return s.widths
}

func (a axis) setSizes(s *Sheet, m map[int]float64) {
	if a == rowAxis {
		s.heights = m
	} else {
		s.widths = m
	}
}

func (a axis) String() string {
	if a == rowAxis {
		return "row"
	}
	return "column"
}

// Workbook is an ordered set of sheets.
type Workbook struct {
	Sheets []*Sheet

	// ErrorStyle is applied to cells marked as failed directives.
	ErrorStyle int
}

// Sheet looks a sheet up by name.
func (w *Workbook) Sheet(name string) *Sheet {
	for _, s := range w.Sheets {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// AddSheet appends a new empty sheet.
func (w *Workbook) AddSheet(name string) *Sheet {
	s := NewSheet(name)
	w.Sheets = append(w.Sheets, s)
	return s
}
