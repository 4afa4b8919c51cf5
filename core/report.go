package core

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrorEntry is one recorded rendering problem.
type ErrorEntry struct {
	Category ErrorCategory `yaml:"category"`
	Sheet    string        `yaml:"sheet"`
	Cell     string        `yaml:"cell"`
	Context  string        `yaml:"context"`
}

const (
	KindScalar = "scalar"
	KindTable  = "table"
	KindPivot  = "pivot"

	Shape1D = "1D"
	Shape2D = "2D"

	OutcomeSuccess = "success"
)

// WriteRecord describes one write performed (or attempted) for a directive.
type WriteRecord struct {
	Sheet       string `yaml:"sheet"`
	Cell        string `yaml:"cell"`
	Kind        string `yaml:"kind"`
	Shape       string `yaml:"shape,omitempty"`
	Orientation string `yaml:"orientation,omitempty"`
	Mode        string `yaml:"mode,omitempty"`
	MergeEqual  bool   `yaml:"mergeEqual,omitempty"`
	Step        int    `yaml:"step,omitempty"`
	Source      string `yaml:"source"`
	Outcome     string `yaml:"outcome"`
}

// Report collects the errors and write history of one run.
type Report struct {
	Errors  []ErrorEntry
	History map[string][]WriteRecord

	sheets []string
}

// NewReport returns an empty run report.
func NewReport() *Report {
	return &Report{History: make(map[string][]WriteRecord)}
}

// AddError appends an error entry.
func (r *Report) AddError(category ErrorCategory, sheet, cell, context string) {
	r.Errors = append(r.Errors, ErrorEntry{Category: category, Sheet: sheet, Cell: cell, Context: context})
}

// Record appends a write record to the history.
func (r *Report) Record(rec WriteRecord) {
	if _, ok := r.History[rec.Sheet]; !ok {
		r.sheets = append(r.sheets, rec.Sheet)
	}
	r.History[rec.Sheet] = append(r.History[rec.Sheet], rec)
}

// ByCategory groups errors by category, keeping insertion order inside each group.
func (r *Report) ByCategory() map[ErrorCategory][]ErrorEntry {
	out := make(map[ErrorCategory][]ErrorEntry)
	for _, e := range r.Errors {
		out[e.Category] = append(out[e.Category], e)
	}
	return out
}

// OK reports whether the run finished without errors.
func (r *Report) OK() bool {
	return len(r.Errors) == 0
}

// Status is "Success" or a per-category error count.
func (r *Report) Status() string {
	if r.OK() {
		return "Success"
	}
	groups := r.ByCategory()
	cats := make([]string, 0, len(groups))
	for c := range groups {
		cats = append(cats, string(c))
	}
	sort.Strings(cats)
	parts := make([]string, len(cats))
	for i, c := range cats {
		parts[i] = fmt.Sprintf("%s=%d", c, len(groups[ErrorCategory(c)]))
	}
	noun := "errors"
	if len(r.Errors) == 1 {
		noun = "error"
	}
	return fmt.Sprintf("%d %s: %s", len(r.Errors), noun, strings.Join(parts, ", "))
}

type sheetHistory struct {
	Sheet   string        `yaml:"sheet"`
	Records []WriteRecord `yaml:"records"`
}

type summary struct {
	Status  string         `yaml:"status"`
	Errors  []ErrorEntry   `yaml:"errors,omitempty"`
	History []sheetHistory `yaml:"history,omitempty"`
}

// WriteSummary encodes the report as YAML.
func (r *Report) WriteSummary(w io.Writer) error {
	s := summary{Status: r.Status(), Errors: r.Errors}
	for _, name := range r.sheets {
		s.History = append(s.History, sheetHistory{Sheet: name, Records: r.History[name]})
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&s); err != nil {
		return fmt.Errorf("failed to encode run summary: %w", err)
	}
	return enc.Close()
}
