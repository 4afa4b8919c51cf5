package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

type Generator struct {
	Context *GenerationContext
	// Now stamps default output names.
	Now func() time.Time
}

// NewGenerator returns a Generator using the wall clock.
func NewGenerator(ctx *GenerationContext) *Generator {
	return &Generator{Context: ctx, Now: time.Now}
}

// Result is what a finished run produced.
type Result struct {
	OutputPath string
	Report     *Report
}

func replacePlaceholders(input string, params map[string]string) string {
	output := input
	for k, v := range params {
		placeholder := fmt.Sprintf("${%s}", k)
		output = strings.ReplaceAll(output, placeholder, v)
	}
	return output
}

// resolveIn joins a relative path to root, or to the bundle directory when
// root is empty.
func (g *Generator) resolveIn(root, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if root != "" {
		return filepath.Join(root, path)
	}
	return g.Context.Bundle.Resolve(path)
}

// OutputPath returns where the report is saved. An output without a file
// extension is a directory: the file inside it is named after the report, or
// report_<timestamp>.xlsx when the report has no name.
func (g *Generator) OutputPath(outputRoot string) string {
	conf := g.Context.Bundle.Report
	outputPath := g.resolveIn(outputRoot, replacePlaceholders(conf.Output, g.Context.Variables))
	if filepath.Ext(outputPath) != "" {
		return outputPath
	}
	name := replacePlaceholders(conf.Name, g.Context.Variables)
	if name == "" {
		name = "report_" + g.Now().Format("02-01-06_15-04-05")
	}
	return filepath.Join(outputPath, name+".xlsx")
}

// Generate renders the template into the output file. Only a template that
// cannot be opened or read fails the run; every other problem is in the
// returned report.
func (g *Generator) Generate(ctx context.Context, templateRoot, outputRoot string) (res *Result, err error) {
	templatePath := g.resolveIn(templateRoot, g.Context.Bundle.Report.Template)
	outputPath := g.OutputPath(outputRoot)

	f, err := openExcelFile(templatePath)
	if err != nil {
		return nil, &TemplateLoadError{Path: templatePath, Err: err}
	}
	defer func(f ExcelFile) {
		if closeErr := f.Close(); closeErr != nil {
			if err == nil {
				err = fmt.Errorf("failed to close template file: %w", closeErr)
			} else {
				err = fmt.Errorf("%w; (cleanup error: %v)", err, closeErr)
			}
		}
	}(f)

	report, err := g.Render(ctx, f)
	if err != nil {
		var loadErr *TemplateLoadError
		if errors.As(err, &loadErr) {
			loadErr.Path = templatePath
		}
		return nil, err
	}

	// UX: Reset view to A1 for all sheets and set first sheet active
	if sheets := f.GetSheetList(); len(sheets) > 0 {
		for _, sheet := range sheets {
			_ = f.SetSelection(sheet, "A1")
		}
		f.SetActiveSheet(0)
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := f.SaveAs(outputPath); err != nil {
		return nil, fmt.Errorf("failed to save output: %w", err)
	}

	slog.Info("Report saved", "path", outputPath, "status", report.Status())
	return &Result{OutputPath: outputPath, Report: report}, nil
}

// Render loads f into the grid, resolves its directives and writes the grid
// back. A workbook that cannot be read is a *TemplateLoadError.
func (g *Generator) Render(ctx context.Context, f ExcelFile) (*Report, error) {
	wb, err := LoadWorkbook(f)
	if err != nil {
		return nil, &TemplateLoadError{Err: err}
	}
	sources := g.Context.LoadSources(ctx)
	report := NewRenderer(sources).Render(wb)
	if err := FlushWorkbook(f, wb); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return report, nil
}
