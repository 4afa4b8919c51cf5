package core

import "fmt"

// InsertRows inserts count empty rows before row at. Merged ranges ending on
// the row above are repeated into every new row when copyMerge is set.
func InsertRows(s *Sheet, at, count int, copyMerge bool) error {
	return insertLines(s, rowAxis, at, count, copyMerge)
}

// InsertColumns inserts count empty columns before column at.
func InsertColumns(s *Sheet, at, count int, copyMerge bool) error {
	return insertLines(s, colAxis, at, count, copyMerge)
}

func insertLines(s *Sheet, a axis, at, count int, copyMerge bool) error {
	if at < 1 || count < 1 {
		return fmt.Errorf("insert %d %ss at %d: invalid position or count", count, a, at)
	}
	if bound := a.bound(s.Bounds); bound > 0 {
		if last := a.extent(s); last >= at && last+count > bound {
			return fmt.Errorf("insert %d %ss at %d: %w", count, a, at, ErrOutOfBounds)
		}
	}

	var templates []Range
	for i := range s.merges {
		m := &s.merges[i]
		if a.of(m.Max) == at-1 {
			templates = append(templates, *m)
		}
		shiftRange(a, m, at, count)
	}

	moved := make(map[Coord]*Cell, len(s.cells))
	for c, cell := range s.cells {
		if a.of(c) >= at {
			c = a.move(c, count)
		}
		moved[c] = cell
	}
	s.cells = moved

	for i := range s.joined {
		j := &s.joined[i]
		shiftRange(a, &j.box, at, count)
		if j.hasUnit {
			shiftRange(a, &j.unit, at, count)
		}
	}

	old := a.sizes(s)
	sizes := make(map[int]float64, len(old)+count)
	for i, v := range old {
		if i >= at {
			i += count
		}
		sizes[i] = v
	}
	if v, ok := old[at-1]; ok {
		for k := range count {
			sizes[at+k] = v
		}
	}
	a.setSizes(s, sizes)

	if at > 1 {
		var styled []Coord
		for c, cell := range s.cells {
			if a.of(c) == at-1 && cell.Style != 0 {
				styled = append(styled, c)
			}
		}
		for _, c := range styled {
			style := s.cells[c].Style
			for k := range count {
				s.ensure(a.with(c, at+k)).Style = style
			}
		}
	}

	s.sortMerges()
	if !copyMerge {
		return nil
	}
	for _, t := range templates {
		for k := range count {
			r := Range{Min: a.with(t.Min, at+k), Max: a.with(t.Max, at+k)}
			if err := s.Merge(r); err != nil {
				return fmt.Errorf("copy merge %s: %w", t, err)
			}
		}
	}
	return nil
}

// shiftRange moves r for count lines inserted before at, growing it when it
// straddles the insertion point.
func shiftRange(a axis, r *Range, at, count int) {
	lo, hi := a.of(r.Min), a.of(r.Max)
	switch {
	case hi < at:
	case lo < at:
		r.Max = a.move(r.Max, count)
	default:
		r.Min = a.move(r.Min, count)
		r.Max = a.move(r.Max, count)
	}
}
