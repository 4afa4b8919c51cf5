package core

import (
	"fmt"
	"reflect"
	"time"
)

// Orientation is the direction an array is laid out in.
type Orientation int

const (
	OrientRow Orientation = iota
	OrientColumn
	// OrientValues writes every pivot column as its own row-oriented array.
	OrientValues
)

func (o Orientation) String() string {
	switch o {
	case OrientColumn:
		return "column"
	case OrientValues:
		return "values"
	default:
		return "row"
	}
}

func (o Orientation) axis() axis {
	if o == OrientColumn {
		return colAxis
	}
	return rowAxis
}

// WriteMode decides whether existing cells are overwritten or pushed away.
type WriteMode int

const (
	ModeUpdate WriteMode = iota
	ModeInsert
)

func (m WriteMode) String() string {
	if m == ModeInsert {
		return "insert"
	}
	return "update"
}

type WriteOptions struct {
	Orientation Orientation
	Mode        WriteMode
	MergeEqual  bool
	Step        int
}

// minSheetDate is the earliest date a workbook cell can hold.
var minSheetDate = time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC)

// CheckStep widens step to the anchor's merged span along the orientation.
// Runs joined by an earlier equal-value merge count as the anchor's own merge.
func CheckStep(s *Sheet, anchor Coord, step int, o Orientation) int {
	if step < 1 {
		step = 1
	}
	if r, ok := s.shapeAt(anchor); ok {
		step = max(step, o.axis().span(r))
	}
	return step
}

// WriteArray writes values starting at anchor and returns the cell after the
// last value. Every written cell takes the anchor's style, merge shape and
// row height (or column width). The step is used as given; callers widen it
// with CheckStep. A step shorter than the anchor's merge is an error.
func WriteArray(s *Sheet, values []any, opts WriteOptions, anchor Coord) (Coord, error) {
	a := opts.Orientation.axis()
	step := max(opts.Step, 1)
	src, merged := s.shapeAt(anchor)
	if merged && len(values) > 1 && step < a.span(src) {
		return anchor, fmt.Errorf("write array at %s: step %d inside %s: %w", anchor, step, src, ErrOverlappingMerge)
	}
	if len(values) > 0 {
		far := a.move(anchor, (len(values)-1)*step)
		if merged {
			far = src.MoveTo(far).Max
		}
		if err := s.splitJoined(NewRange(anchor, far)); err != nil {
			return anchor, fmt.Errorf("write array at %s: %w", anchor, err)
		}
	}
	style := s.Style(anchor)
	size, sized := a.sizes(s)[a.of(anchor)]

	cur := anchor
	written := make([]Coord, 0, len(values))
	for i, v := range values {
		cell := s.ensure(cur)
		cell.Value = normalizeValue(v)
		cell.Formula = ""
		cell.Style = style
		cell.written = true
		if cur != anchor {
			if merged {
				if err := copyMerge(s, src, cur); err != nil {
					return cur, err
				}
			}
			if sized {
				a.sizes(s)[a.of(cur)] = size
			}
		}
		written = append(written, cur)

		last := i == len(values)-1
		bounds := s.Bounds
		if last {
			bounds = Bounds{}
		}
		dRow, dCol := step, 0
		if a == colAxis {
			dRow, dCol = 0, step
		}
		next, err := cur.Shift(dRow, dCol, bounds)
		if err != nil {
			return cur, fmt.Errorf("write array at %s: %w", anchor, err)
		}
		cur = next
		if opts.Mode == ModeInsert && !last {
			if err := insertLines(s, a, a.of(cur), step, false); err != nil {
				return cur, fmt.Errorf("write array at %s: %w", anchor, err)
			}
		}
	}

	if opts.MergeEqual {
		if err := mergeEqualRuns(s, written); err != nil {
			return cur, err
		}
	}
	return cur, nil
}

// copyMerge gives target the shape of src, dropping merges in the way.
func copyMerge(s *Sheet, src Range, target Coord) error {
	dst := src.MoveTo(target)
	if dst == src {
		return nil
	}
	for _, r := range s.Intersecting(dst) {
		s.Unmerge(r)
	}
	return s.Merge(dst)
}

// mergeEqualRuns merges consecutive written cells holding equal values.
func mergeEqualRuns(s *Sheet, cells []Coord) error {
	for i := 0; i < len(cells); {
		j := i
		for j+1 < len(cells) && sameValue(s.Value(cells[i]), s.Value(cells[j+1])) {
			j++
		}
		if j > i {
			end := cells[j]
			if r, ok := s.MergeAt(end); ok {
				end = r.Max
			}
			box := NewRange(cells[i], end)
			unit, hasUnit := s.MergeAt(cells[i])
			for _, r := range s.Intersecting(box) {
				s.Unmerge(r)
			}
			if err := s.join(box, unit, hasUnit); err != nil {
				return fmt.Errorf("merge equal values %s: %w", box, err)
			}
		}
		i = j + 1
	}
	return nil
}

func sameValue(a, b any) bool {
	if a == nil || b == nil {
		return false
	}
	return reflect.DeepEqual(a, b)
}

func normalizeValue(v any) any {
	switch x := v.(type) {
	case time.Time:
		if x.Before(minSheetDate) {
			return minSheetDate
		}
	case []byte:
		return string(x)
	}
	return v
}
