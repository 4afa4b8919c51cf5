package core

import (
	"errors"
	"fmt"
)

// ErrorCategory classifies problems found while rendering a template.
type ErrorCategory string

const (
	ErrMissingScalar        ErrorCategory = "missing_scalar"
	ErrMissingSelection     ErrorCategory = "missing_selection"
	ErrAmbiguousOrientation ErrorCategory = "ambiguous_orientation"
	ErrAmbiguousWriteMode   ErrorCategory = "ambiguous_write_mode"
	ErrWrongColumnReference ErrorCategory = "wrong_column_reference"
	ErrMissingTableIndex    ErrorCategory = "missing_table_index"
	ErrMissingPivotIndex    ErrorCategory = "missing_pivot_index"
	ErrPivotBuild           ErrorCategory = "pivot_build_error"
	ErrEmptySourceTable     ErrorCategory = "empty_source_table"
	ErrTemplateLoadFailure  ErrorCategory = "template_load_failure"
)

// ErrTemplateLoad is wrapped by every template loading failure.
var ErrTemplateLoad = errors.New("template load failure")

// TemplateLoadError is the only fatal error of a run.
type TemplateLoadError struct {
	Path string
	Err  error
}

func (e *TemplateLoadError) Error() string {
	return fmt.Sprintf("load template %s: %v", e.Path, e.Err)
}

func (e *TemplateLoadError) Unwrap() []error {
	return []error{ErrTemplateLoad, e.Err}
}

// DirectiveError reports a directive that cannot be resolved.
type DirectiveError struct {
	Category  ErrorCategory
	Directive string
	Detail    string
}

func (e *DirectiveError) Error() string {
	return fmt.Sprintf("%s: [[%s]]: %s", e.Category, e.Directive, e.Detail)
}
