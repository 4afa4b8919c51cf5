package core

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// Sources holds the tables (by 1-based index) and variables a run reads.
type Sources struct {
	Tables    map[int]*Table
	Variables map[string]any
}

// Renderer replaces the directives of a workbook with data from Sources.
type Renderer struct {
	Sources *Sources
}

// NewRenderer returns a Renderer reading from sources.
func NewRenderer(sources *Sources) *Renderer {
	if sources == nil {
		sources = &Sources{}
	}
	return &Renderer{Sources: sources}
}

// Render processes every sheet of wb in order. Problems are recorded in the
// returned report and marked on the sheet; rendering never stops early.
func (r *Renderer) Render(wb *Workbook) *Report {
	run := &renderRun{
		sources:    r.Sources,
		report:     NewReport(),
		errorStyle: wb.ErrorStyle,
	}
	for _, s := range wb.Sheets {
		run.renderSheet(s)
	}
	slog.Info("Render finished", "status", run.report.Status())
	return run.report
}

// pivotState is the outcome of building one pivot for a sheet.
type pivotState struct {
	pivot    *PivotTable
	category ErrorCategory
	detail   string
}

// column is one array of a 1-D or 2-D write.
type column struct {
	label    string
	values   []any
	category ErrorCategory
	detail   string
}

type renderRun struct {
	sources    *Sources
	report     *Report
	errorStyle int
	pivots     map[int]*pivotState
}

func (run *renderRun) renderSheet(s *Sheet) {
	slog.Debug("Rendering sheet", "sheet", s.Name)
	run.pivots = run.buildPivots(s)

	maxRow, maxCol := s.MaxRow(), s.MaxCol()
	for row := 1; row <= maxRow; row++ {
		for col := 1; col <= maxCol; col++ {
			c := Coord{Col: col, Row: row}
			cell := s.Cell(c)
			if cell == nil || cell.written {
				continue
			}
			text, ok := cell.Value.(string)
			if !ok || !hasDirective(text) {
				continue
			}
			run.renderCell(s, c, text)
			maxRow, maxCol = s.MaxRow(), s.MaxCol()
		}
	}
}

func hasDirective(text string) bool {
	return strings.Contains(text, scalarDelim) || strings.Contains(text, arrayOpen)
}

func (run *renderRun) renderCell(s *Sheet, c Coord, text string) {
	var directives []Directive
	for _, d := range ScanScalars(text) {
		directives = append(directives, d)
	}
	for _, d := range directives {
		text = run.resolve(s, c, d, text)
	}

	body, ok := FindArray(text)
	if !ok {
		return
	}
	d, problems, err := ParseArray(body)
	if err != nil {
		category, detail := ErrMissingSelection, err.Error()
		var de *DirectiveError
		if errors.As(err, &de) {
			category, detail = de.Category, de.Detail
		}
		run.fail(s, c, body, category, detail, WriteRecord{Kind: "array", Source: body})
		return
	}
	for _, p := range problems {
		run.report.AddError(p.Category, s.Name, c.String(), p.Detail)
		slog.Warn("Directive flags ambiguous", "sheet", s.Name, "cell", c.String(), "category", p.Category, "detail", p.Detail)
	}
	run.resolve(s, c, d, text)
}

// resolve applies one directive at c and returns the cell text left behind.
func (run *renderRun) resolve(s *Sheet, c Coord, d Directive, text string) string {
	switch d := d.(type) {
	case *ScalarDirective:
		return run.resolveScalar(s, c, d, text)
	case *ArrayDirective:
		if d.Source.Kind == SourcePivot {
			run.writePivot(s, c, d)
		} else {
			run.writeTable(s, c, d)
		}
		return ""
	default:
		panic(fmt.Sprintf("unknown directive type %T", d))
	}
}

func (run *renderRun) resolveScalar(s *Sheet, c Coord, d *ScalarDirective, text string) string {
	rec := WriteRecord{Sheet: s.Name, Cell: c.String(), Kind: KindScalar, Source: d.Name, Outcome: OutcomeSuccess}
	placeholder := scalarDelim + d.Name + scalarDelim
	value, ok := run.sources.Variables[d.Name]
	replacement := noDataMarker
	if ok {
		replacement = formatScalar(value)
	} else {
		run.report.AddError(ErrMissingScalar, s.Name, c.String(), d.Name)
		rec.Outcome = string(ErrMissingScalar)
		slog.Warn("Variable not found", "sheet", s.Name, "cell", c.String(), "name", d.Name)
	}

	whole := strings.TrimSpace(text) == placeholder
	text = strings.ReplaceAll(text, placeholder, replacement)
	cell := s.Cell(c)
	if ok && whole && value != nil {
		// a cell holding only the placeholder takes the variable's own type
		cell.Value = normalizeValue(value)
	} else {
		cell.Value = text
	}
	cell.Formula = ""
	cell.written = true
	run.report.Record(rec)
	return text
}

func (run *renderRun) writeTable(s *Sheet, c Coord, d *ArrayDirective) {
	rec := run.record(s, c, d, KindTable)
	t, ok := run.sources.Tables[d.Source.Table]
	if !ok {
		run.fail(s, c, d.Text, ErrMissingTableIndex, fmt.Sprintf("table %d not found", d.Source.Table), rec)
		return
	}
	if t.Len() == 0 {
		run.fail(s, c, d.Text, ErrEmptySourceTable, fmt.Sprintf("table %d is empty", d.Source.Table), rec)
		return
	}
	names, err := selectionNames(t, d.Selection)
	if err != nil {
		run.fail(s, c, d.Text, ErrWrongColumnReference, err.Error(), rec)
		return
	}

	cols := make([]column, len(names))
	for i, name := range names {
		cols[i] = column{label: fmt.Sprintf("%s.%s", d.Source, name)}
		values, err := t.Column(name)
		if err != nil {
			cols[i].category, cols[i].detail = ErrWrongColumnReference, err.Error()
			continue
		}
		cols[i].values = values
	}
	orientation := d.Orientation
	if orientation == OrientValues {
		orientation = OrientRow
	}
	run.writeColumns(s, c, d, orientation, cols, rec)
}

func (run *renderRun) writePivot(s *Sheet, c Coord, d *ArrayDirective) {
	rec := run.record(s, c, d, KindPivot)
	state, ok := run.pivots[d.Source.Table]
	if !ok {
		run.fail(s, c, d.Text, ErrMissingPivotIndex, fmt.Sprintf("pivot %d not built", d.Source.Table), rec)
		return
	}
	if state.pivot == nil {
		run.fail(s, c, d.Text, state.category, state.detail, rec)
		return
	}
	p := state.pivot

	if d.Orientation == OrientValues {
		cols := make([]column, p.NumColumns())
		for j := range cols {
			cols[j] = column{label: fmt.Sprintf("%s %s", d.Source, p.ColumnLabel(j)), values: p.Column(j)}
		}
		rec.Shape = Shape2D
		run.writeColumns(s, c, d, OrientRow, cols, rec)
		return
	}

	var names []string
	if d.Selection.Kind == SelectSingle {
		names = []string{d.Selection.Name}
	} else {
		var err error
		if names, err = selectionNames(run.sources.Tables[d.Source.Table], d.Selection); err != nil {
			run.fail(s, c, d.Text, ErrWrongColumnReference, err.Error(), rec)
			return
		}
	}

	cols := make([]column, len(names))
	for i, name := range names {
		cols[i] = column{label: fmt.Sprintf("%s.%s", d.Source, name)}
		var values []any
		var err error
		if d.Orientation == OrientColumn {
			values, err = p.ColumnLevel(name)
		} else {
			values, err = p.RowLevel(name)
		}
		if err != nil {
			cols[i].category, cols[i].detail = ErrWrongColumnReference, err.Error()
			continue
		}
		cols[i].values = values
	}
	run.writeColumns(s, c, d, d.Orientation, cols, rec)
}

// writeColumns lays arrays out side by side: row-oriented arrays advance one
// column step to the right, column-oriented ones one row step down. Only the
// first array uses the directive's write mode.
func (run *renderRun) writeColumns(s *Sheet, anchor Coord, d *ArrayDirective, o Orientation, cols []column, rec WriteRecord) {
	vstep := CheckStep(s, anchor, d.Step, OrientRow)
	hstep := CheckStep(s, anchor, d.Step, OrientColumn)
	src, merged := s.shapeAt(anchor)
	style := s.Style(anchor)

	cur := anchor
	for i, col := range cols {
		mode := d.Mode
		if i > 0 {
			mode = ModeUpdate
		}
		rec.Cell = cur.String()
		rec.Source = col.label
		rec.Mode = mode.String()

		if col.category != "" {
			run.fail(s, cur, d.Text, col.category, col.detail, rec)
		} else {
			step := vstep
			if o == OrientColumn {
				step = hstep
			}
			rec.Step = step
			opts := WriteOptions{Orientation: o, Mode: mode, MergeEqual: d.MergeEqual, Step: step}
			if _, err := WriteArray(s, col.values, opts, cur); err != nil {
				run.markError(s, cur, d.Text)
				rec.Outcome = "write_failed"
				run.report.Record(rec)
				slog.Error("Array write failed", "sheet", s.Name, "cell", cur.String(), "error", err)
			} else {
				rec.Outcome = OutcomeSuccess
				run.report.Record(rec)
				slog.Debug("Array written", "sheet", s.Name, "cell", cur.String(), "source", col.label, "values", len(col.values))
			}
		}

		if i == len(cols)-1 {
			break
		}
		if o == OrientColumn {
			cur = Coord{Col: cur.Col, Row: cur.Row + vstep}
		} else {
			cur = Coord{Col: cur.Col + hstep, Row: cur.Row}
		}
		s.SetStyle(cur, style)
		if merged {
			if err := copyMerge(s, src, cur); err != nil {
				slog.Error("Copy merge failed", "sheet", s.Name, "cell", cur.String(), "error", err)
			}
		}
	}
}

func (run *renderRun) record(s *Sheet, c Coord, d *ArrayDirective, kind string) WriteRecord {
	shape := Shape1D
	if d.Selection.Kind != SelectSingle {
		shape = Shape2D
	}
	return WriteRecord{
		Sheet:       s.Name,
		Cell:        c.String(),
		Kind:        kind,
		Shape:       shape,
		Orientation: d.Orientation.String(),
		Mode:        d.Mode.String(),
		MergeEqual:  d.MergeEqual,
		Step:        d.Step,
		Source:      d.Source.String() + d.Selection.String(),
	}
}

// fail marks c as an error cell and records the problem.
func (run *renderRun) fail(s *Sheet, c Coord, text string, category ErrorCategory, detail string, rec WriteRecord) {
	run.markError(s, c, text)
	run.report.AddError(category, s.Name, c.String(), detail)
	rec.Sheet = s.Name
	rec.Cell = c.String()
	rec.Outcome = string(category)
	run.report.Record(rec)
	slog.Warn("Directive failed", "sheet", s.Name, "cell", c.String(), "category", category, "detail", detail)
}

func (run *renderRun) markError(s *Sheet, c Coord, text string) {
	cell := s.ensure(c)
	cell.Value = "source or template error: " + arrayOpen + text + arrayClose
	cell.Formula = ""
	cell.Style = run.errorStyle
	cell.written = true
}

// selectionNames resolves a selection to column names of t.
func selectionNames(t *Table, sel Selection) ([]string, error) {
	switch sel.Kind {
	case SelectRange:
		return t.ColumnSpan(sel.Start, sel.End)
	case SelectList:
		if len(sel.Indices) > 0 {
			return t.ColumnNames(sel.Indices)
		}
		return sel.Names, nil
	default:
		return []string{sel.Name}, nil
	}
}

// buildPivots collects, for every pivot directive on the sheet, the columns
// it names per orientation and builds each pivot once.
func (run *renderRun) buildPivots(s *Sheet) map[int]*pivotState {
	type pivotKeys struct {
		rows, cols, values []string
	}
	wanted := make(map[int]*pivotKeys)
	var order []int

	add := func(list *[]string, name string) {
		for _, n := range *list {
			if n == name {
				return
			}
		}
		*list = append(*list, name)
	}

	for _, c := range s.Coords() {
		text, ok := s.Value(c).(string)
		if !ok {
			continue
		}
		body, ok := FindArray(text)
		if !ok {
			continue
		}
		d, _, err := ParseArray(body)
		if err != nil || d.Source.Kind != SourcePivot {
			continue
		}
		n := d.Source.Table
		sp, ok := wanted[n]
		if !ok {
			sp = &pivotKeys{}
			wanted[n] = sp
			order = append(order, n)
		}
		t := run.sources.Tables[n]
		if t == nil {
			continue
		}
		var names []string
		if d.Selection.Kind == SelectSingle {
			names = []string{d.Selection.Name}
		} else if names, err = selectionNames(t, d.Selection); err != nil {
			continue
		}
		for _, name := range names {
			if t.ColumnIndex(name) < 0 {
				continue
			}
			switch d.Orientation {
			case OrientColumn:
				add(&sp.cols, name)
			case OrientValues:
				add(&sp.values, name)
			default:
				add(&sp.rows, name)
			}
		}
	}

	states := make(map[int]*pivotState, len(wanted))
	for _, n := range order {
		sp := wanted[n]
		t := run.sources.Tables[n]
		if t == nil {
			states[n] = &pivotState{category: ErrMissingPivotIndex, detail: fmt.Sprintf("table %d for pivot not found", n)}
			continue
		}
		if t.Len() == 0 {
			states[n] = &pivotState{category: ErrEmptySourceTable, detail: fmt.Sprintf("table %d is empty", n)}
			continue
		}
		p, err := BuildPivot(t, sp.rows, sp.cols, sp.values)
		if err != nil {
			states[n] = &pivotState{category: ErrPivotBuild, detail: err.Error()}
			slog.Warn("Pivot build failed", "sheet", s.Name, "table", n, "error", err)
			continue
		}
		states[n] = &pivotState{pivot: p}
		slog.Debug("Pivot built", "sheet", s.Name, "table", n, "rows", p.NumRows(), "columns", p.NumColumns())
	}
	return states
}
