package core

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ExcelFile abstracts workbook operations to decouple rendering from excelize.
type ExcelFile interface {
	Close() error
	GetCellFormula(sheet, cell string) (string, error)
	GetCellStyle(sheet, cell string) (int, error)
	GetCellType(sheet, cell string) (excelize.CellType, error)
	GetCellValue(sheet, cell string, opts ...excelize.Options) (string, error)
	GetColWidth(sheet, col string) (float64, error)
	GetMergeCells(sheet string) ([]excelize.MergeCell, error)
	GetRowHeight(sheet string, row int) (float64, error)
	GetRows(sheet string) ([][]string, error)
	GetSheetDimension(sheet string) (string, error)
	GetSheetList() []string
	MergeCell(sheet, hcell, vcell string) error
	NewStyle(style *excelize.Style) (int, error)
	SaveAs(name string) error
	SetActiveSheet(index int)
	SetCellFormula(sheet, cell, formula string) error
	SetCellStyle(sheet, hcell, vcell string, styleID int) error
	SetCellValue(sheet, cell string, value interface{}) error
	SetColWidth(sheet, startCol, endCol string, width float64) error
	SetRowHeight(sheet string, row int, height float64) error
	SetSelection(sheetName, cell string) error
	UnmergeCell(sheet, hcell, vcell string) error
}

type ExcelizeFile struct {
	file *excelize.File
}

func openExcelFile(path string) (ExcelFile, error) {
	file, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	return &ExcelizeFile{file: file}, nil
}

func (e *ExcelizeFile) Close() error {
	return e.file.Close()
}

func (e *ExcelizeFile) GetCellFormula(sheet, cell string) (string, error) {
	return e.file.GetCellFormula(sheet, cell)
}

func (e *ExcelizeFile) GetCellStyle(sheet, cell string) (int, error) {
	return e.file.GetCellStyle(sheet, cell)
}

func (e *ExcelizeFile) GetCellType(sheet, cell string) (excelize.CellType, error) {
	return e.file.GetCellType(sheet, cell)
}

func (e *ExcelizeFile) GetCellValue(sheet, cell string, opts ...excelize.Options) (string, error) {
	return e.file.GetCellValue(sheet, cell, opts...)
}

func (e *ExcelizeFile) GetColWidth(sheet, col string) (float64, error) {
	return e.file.GetColWidth(sheet, col)
}

func (e *ExcelizeFile) GetMergeCells(sheet string) ([]excelize.MergeCell, error) {
	return e.file.GetMergeCells(sheet)
}

func (e *ExcelizeFile) GetRowHeight(sheet string, row int) (float64, error) {
	return e.file.GetRowHeight(sheet, row)
}

func (e *ExcelizeFile) GetRows(sheet string) ([][]string, error) {
	return e.file.GetRows(sheet)
}

func (e *ExcelizeFile) GetSheetDimension(sheet string) (string, error) {
	return e.file.GetSheetDimension(sheet)
}

func (e *ExcelizeFile) GetSheetList() []string {
	return e.file.GetSheetList()
}

func (e *ExcelizeFile) MergeCell(sheet, hcell, vcell string) error {
	return e.file.MergeCell(sheet, hcell, vcell)
}

func (e *ExcelizeFile) NewStyle(style *excelize.Style) (int, error) {
	return e.file.NewStyle(style)
}

func (e *ExcelizeFile) SaveAs(name string) error {
	return e.file.SaveAs(name)
}

func (e *ExcelizeFile) SetActiveSheet(index int) {
	e.file.SetActiveSheet(index)
}

func (e *ExcelizeFile) SetCellFormula(sheet, cell, formula string) error {
	return e.file.SetCellFormula(sheet, cell, formula)
}

func (e *ExcelizeFile) SetCellStyle(sheet, hcell, vcell string, styleID int) error {
	return e.file.SetCellStyle(sheet, hcell, vcell, styleID)
}

func (e *ExcelizeFile) SetCellValue(sheet, cell string, value interface{}) error {
	return e.file.SetCellValue(sheet, cell, value)
}

func (e *ExcelizeFile) SetColWidth(sheet, startCol, endCol string, width float64) error {
	return e.file.SetColWidth(sheet, startCol, endCol, width)
}

func (e *ExcelizeFile) SetRowHeight(sheet string, row int, height float64) error {
	return e.file.SetRowHeight(sheet, row, height)
}

func (e *ExcelizeFile) UnmergeCell(sheet, hcell, vcell string) error {
	return e.file.UnmergeCell(sheet, hcell, vcell)
}

func (e *ExcelizeFile) SetSelection(sheetName, cell string) error {
	// Keep frozen or split panes, only move the selection.
	panes, err := e.file.GetPanes(sheetName)
	if err == nil {
		panes.Selection = []excelize.Selection{
			{
				ActiveCell: cell,
				SQRef:      cell,
			},
		}
		return e.file.SetPanes(sheetName, &panes)
	}

	return e.file.SetPanes(sheetName, &excelize.Panes{
		Selection: []excelize.Selection{
			{
				ActiveCell: cell,
				SQRef:      cell,
			},
		},
	})
}

// errorCellStyle marks failed directives: white text on red.
var errorCellStyle = &excelize.Style{
	Font: &excelize.Font{Color: "FFFFFF", Bold: true},
	Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"FF0000"}},
}

// sheetLayout is what the loader saw in the file, needed to write it back.
type sheetLayout struct {
	extent        Coord
	defaultHeight float64
	defaultWidth  float64
	customRows    []int
	customCols    []int
}

// LoadWorkbook reads every sheet of f into the grid model.
func LoadWorkbook(f ExcelFile) (*Workbook, error) {
	wb := &Workbook{}
	style, err := f.NewStyle(errorCellStyle)
	if err != nil {
		return nil, fmt.Errorf("failed to create error style: %w", err)
	}
	wb.ErrorStyle = style

	for _, name := range f.GetSheetList() {
		s, err := loadSheet(f, name)
		if err != nil {
			return nil, fmt.Errorf("failed to load sheet %s: %w", name, err)
		}
		wb.Sheets = append(wb.Sheets, s)
	}
	return wb, nil
}

func loadSheet(f ExcelFile, name string) (*Sheet, error) {
	s := NewSheet(name)
	s.Bounds = Bounds{MaxRow: excelize.TotalRows, MaxCol: excelize.MaxColumns}

	rows, err := f.GetRows(name)
	if err != nil {
		return nil, err
	}
	extent := Coord{Row: len(rows)}
	for _, row := range rows {
		extent.Col = max(extent.Col, len(row))
	}
	if dim, err := f.GetSheetDimension(name); err == nil && dim != "" {
		if r, err := ParseRange(dim); err == nil {
			extent.Row = max(extent.Row, r.Max.Row)
			extent.Col = max(extent.Col, r.Max.Col)
		}
	}

	merges, err := f.GetMergeCells(name)
	if err != nil {
		return nil, err
	}
	for _, m := range merges {
		r, err := ParseRange(m.GetStartAxis() + ":" + m.GetEndAxis())
		if err != nil {
			return nil, err
		}
		if err := s.Merge(r); err != nil {
			slog.Warn("Skipping merged range", "sheet", name, "range", r.String(), "error", err)
			continue
		}
		extent.Row = max(extent.Row, r.Max.Row)
		extent.Col = max(extent.Col, r.Max.Col)
	}

	for row := 1; row <= extent.Row; row++ {
		for col := 1; col <= extent.Col; col++ {
			c := Coord{Col: col, Row: row}
			cell, err := loadCell(f, name, c.String())
			if err != nil {
				return nil, err
			}
			if cell != nil {
				s.cells[c] = cell
			}
		}
	}

	layout := &sheetLayout{extent: extent}
	if layout.defaultHeight, err = f.GetRowHeight(name, extent.Row+1); err != nil {
		return nil, err
	}
	for row := 1; row <= extent.Row; row++ {
		h, err := f.GetRowHeight(name, row)
		if err != nil {
			return nil, err
		}
		if h != layout.defaultHeight {
			s.heights[row] = h
			layout.customRows = append(layout.customRows, row)
		}
	}
	next, err := EncodeColumn(extent.Col + 1)
	if err != nil {
		return nil, err
	}
	if layout.defaultWidth, err = f.GetColWidth(name, next); err != nil {
		return nil, err
	}
	for col := 1; col <= extent.Col; col++ {
		letters, _ := EncodeColumn(col)
		w, err := f.GetColWidth(name, letters)
		if err != nil {
			return nil, err
		}
		if w != layout.defaultWidth {
			s.widths[col] = w
			layout.customCols = append(layout.customCols, col)
		}
	}
	s.layout = layout
	return s, nil
}

func loadCell(f ExcelFile, sheet, name string) (*Cell, error) {
	raw, err := f.GetCellValue(sheet, name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, err
	}
	style, err := f.GetCellStyle(sheet, name)
	if err != nil {
		return nil, err
	}
	formula, err := f.GetCellFormula(sheet, name)
	if err != nil {
		return nil, err
	}
	if raw == "" && style == 0 && formula == "" {
		return nil, nil
	}
	typ, err := f.GetCellType(sheet, name)
	if err != nil {
		return nil, err
	}
	return &Cell{Value: typedValue(typ, raw), Formula: formula, Style: style}, nil
}

func typedValue(typ excelize.CellType, raw string) any {
	if raw == "" {
		return nil
	}
	switch typ {
	case excelize.CellTypeBool:
		return raw == "1" || strings.EqualFold(raw, "true")
	case excelize.CellTypeNumber, excelize.CellTypeUnset:
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			return v
		}
	}
	return raw
}

// FlushWorkbook writes the grid model back into f, replacing cells, merged
// ranges and row/column sizes of every sheet.
func FlushWorkbook(f ExcelFile, wb *Workbook) error {
	for _, s := range wb.Sheets {
		if err := flushSheet(f, s); err != nil {
			return fmt.Errorf("failed to write sheet %s: %w", s.Name, err)
		}
	}
	return nil
}

func flushSheet(f ExcelFile, s *Sheet) error {
	layout := s.layout
	if layout == nil {
		layout = &sheetLayout{}
	}

	old, err := f.GetMergeCells(s.Name)
	if err != nil {
		return err
	}
	for _, m := range old {
		if err := f.UnmergeCell(s.Name, m.GetStartAxis(), m.GetEndAxis()); err != nil {
			return err
		}
	}

	maxRow := max(s.MaxRow(), layout.extent.Row)
	maxCol := max(s.MaxCol(), layout.extent.Col)
	for row := 1; row <= maxRow; row++ {
		for col := 1; col <= maxCol; col++ {
			c := Coord{Col: col, Row: row}
			name := c.String()
			cell := s.Cell(c)
			if cell == nil {
				if row > layout.extent.Row || col > layout.extent.Col {
					continue
				}
				cell = &Cell{}
			}
			if cell.Formula != "" {
				err = f.SetCellFormula(s.Name, name, cell.Formula)
			} else {
				err = f.SetCellValue(s.Name, name, cell.Value)
			}
			if err != nil {
				return err
			}
			if err := f.SetCellStyle(s.Name, name, name, cell.Style); err != nil {
				return err
			}
		}
	}

	for _, row := range layout.customRows {
		if _, ok := s.heights[row]; !ok {
			if err := f.SetRowHeight(s.Name, row, layout.defaultHeight); err != nil {
				return err
			}
		}
	}
	for row, h := range s.heights {
		if err := f.SetRowHeight(s.Name, row, h); err != nil {
			return err
		}
	}
	for _, col := range layout.customCols {
		if _, ok := s.widths[col]; !ok {
			letters, _ := EncodeColumn(col)
			if err := f.SetColWidth(s.Name, letters, letters, layout.defaultWidth); err != nil {
				return err
			}
		}
	}
	for col, w := range s.widths {
		letters, err := EncodeColumn(col)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(s.Name, letters, letters, w); err != nil {
			return err
		}
	}

	for _, r := range s.merges {
		if err := f.MergeCell(s.Name, r.Min.String(), r.Max.String()); err != nil {
			return err
		}
	}
	return nil
}
