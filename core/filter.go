package core

import (
	"fmt"

	"github.com/expr-lang/expr"
)

// filterVars is the name run variables are visible under in a filter.
const filterVars = "vars"

// FilterTable keeps the rows for which condition evaluates to true. Row
// columns are visible by name; run variables are available under "vars".
// A table with a column named "vars" cannot be filtered.
func FilterTable(t *Table, condition string, vars map[string]any) (*Table, error) {
	if condition == "" {
		return t, nil
	}
	if t.ColumnIndex(filterVars) >= 0 {
		return nil, fmt.Errorf("filter %q on table '%s': column '%s' is reserved for variables", condition, t.Name, filterVars)
	}
	program, err := expr.Compile(condition, expr.AsBool(), expr.AllowUndefinedVariables())
	if err != nil {
		return nil, fmt.Errorf("compile filter %q: %w", condition, err)
	}

	out := NewTable(t.Name, t.Columns)
	for i, row := range t.Rows {
		rowEnv := t.RowMap(i)
		rowEnv[filterVars] = vars
		result, err := expr.Run(program, rowEnv)
		if err != nil {
			return nil, fmt.Errorf("evaluate filter %q on row %d: %w", condition, i+1, err)
		}
		if ok, _ := result.(bool); ok {
			out.Rows = append(out.Rows, row)
		}
	}
	return out, nil
}
