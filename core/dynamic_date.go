package core

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const dynamicDatePrefix = "$date:"

// DateRule shifts a base time by Offset units and renders it in Format.
type DateRule struct {
	Format string
	Unit   string
	Offset int
}

// ParseDateRule parses "$date:format:unit:offset".
//
// Units: day, week, month, quarter, year. Formats: day (2006-01-02), month,
// year, datetime, compact (20060102), week (2006-W01), quarter (2006-Q1),
// monthstart, monthend, or any Go layout containing "2006".
func ParseDateRule(expression string) (DateRule, error) {
	if !strings.HasPrefix(expression, dynamicDatePrefix) {
		return DateRule{}, fmt.Errorf("not a dynamic date: %s", expression)
	}
	parts := strings.SplitN(strings.TrimPrefix(expression, dynamicDatePrefix), ":", 3)
	if len(parts) < 3 {
		return DateRule{}, fmt.Errorf("invalid dynamic date format: %s", expression)
	}

	offset, err := strconv.Atoi(parts[2])
	if err != nil {
		return DateRule{}, fmt.Errorf("invalid offset in dynamic date: %s", expression)
	}
	rule := DateRule{Format: parts[0], Unit: parts[1], Offset: offset}

	switch rule.Unit {
	case "day", "week", "month", "quarter", "year":
	default:
		return DateRule{}, fmt.Errorf("unsupported unit in dynamic date: %s", rule.Unit)
	}
	if _, ok := dateLayouts[rule.Format]; !ok && !strings.Contains(rule.Format, "2006") &&
		rule.Format != "week" && rule.Format != "quarter" && rule.Format != "monthend" {
		return DateRule{}, fmt.Errorf("unsupported format in dynamic date: %s", rule.Format)
	}
	return rule, nil
}

var dateLayouts = map[string]string{
	"day":        "2006-01-02",
	"month":      "2006-01",
	"year":       "2006",
	"datetime":   "2006-01-02 15:04:05",
	"compact":    "20060102",
	"monthstart": "2006-01-02",
}

// Eval applies the rule to base.
func (r DateRule) Eval(base time.Time) string {
	t := base
	switch r.Unit {
	case "day":
		t = t.AddDate(0, 0, r.Offset)
	case "week":
		t = t.AddDate(0, 0, 7*r.Offset)
	case "month":
		t = t.AddDate(0, r.Offset, 0)
	case "quarter":
		t = t.AddDate(0, 3*r.Offset, 0)
	case "year":
		t = t.AddDate(r.Offset, 0, 0)
	}

	switch r.Format {
	case "week":
		year, week := t.ISOWeek()
		return fmt.Sprintf("%d-W%02d", year, week)
	case "quarter":
		return fmt.Sprintf("%d-Q%d", t.Year(), (int(t.Month())-1)/3+1)
	case "monthstart":
		t = time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	case "monthend":
		return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, t.Location()).Format("2006-01-02")
	}
	if layout, ok := dateLayouts[r.Format]; ok {
		return t.Format(layout)
	}
	return t.Format(r.Format)
}

// ParseDynamicDate evaluates a "$date:format:unit:offset" expression against
// baseTime. Other strings are returned unchanged.
// Example: "$date:day:day:-1" -> yesterday as "2006-01-02".
func ParseDynamicDate(expression string, baseTime time.Time) (string, error) {
	if !strings.HasPrefix(expression, dynamicDatePrefix) {
		return expression, nil
	}
	rule, err := ParseDateRule(expression)
	if err != nil {
		return "", err
	}
	return rule.Eval(baseTime), nil
}
