package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDynamicDate(t *testing.T) {
	mid := time.Date(2023, 5, 15, 10, 0, 0, 0, time.UTC)
	leap := time.Date(2024, 2, 29, 10, 0, 0, 0, time.UTC)
	eoy := time.Date(2023, 12, 31, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		expr string
		base time.Time
		want string
	}{
		{"Plain Text", "2023-01-01", mid, "2023-01-01"},
		{"Today", "$date:day:day:0", mid, "2023-05-15"},
		{"Yesterday", "$date:day:day:-1", mid, "2023-05-14"},
		{"Next Month", "$date:day:month:1", mid, "2023-06-15"},
		{"Last Year", "$date:day:year:-1", mid, "2022-05-15"},
		{"Month Format", "$date:month:day:0", mid, "2023-05"},
		{"Year Format", "$date:year:day:0", mid, "2023"},
		{"Datetime Format", "$date:datetime:day:0", mid, "2023-05-15 10:00:00"},
		{"Leap Day Next Year", "$date:day:year:1", leap, "2025-03-01"},
		{"Year Rollover", "$date:day:day:1", eoy, "2024-01-01"},
		{"Jan 31 Plus Month Normalizes", "$date:day:month:1", time.Date(2023, 1, 31, 0, 0, 0, 0, time.UTC), "2023-03-03"},
		{"1900 Has No Leap Day", "$date:day:day:1", time.Date(1900, 2, 28, 0, 0, 0, 0, time.UTC), "1900-03-01"},
		{"Two Weeks Ago", "$date:day:week:-2", mid, "2023-05-01"},
		{"ISO Week", "$date:week:day:0", mid, "2023-W20"},
		{"Previous Quarter", "$date:quarter:quarter:-1", mid, "2023-Q1"},
		{"Start Of Last Month", "$date:monthstart:month:-1", mid, "2023-04-01"},
		{"End Of Leap February", "$date:monthend:day:0", leap, "2024-02-29"},
		{"Compact", "$date:compact:day:0", mid, "20230515"},
		{"Go Layout", "$date:02.01.2006:day:0", mid, "15.05.2023"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDynamicDate(tt.expr, tt.base)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseDynamicDate_Errors(t *testing.T) {
	for _, expr := range []string{
		"$date:day:day",
		"$date:day:day:abc",
		"$date:day:century:1",
		"$date:fortnight:day:0",
	} {
		t.Run(expr, func(t *testing.T) {
			_, err := ParseDynamicDate(expr, time.Now())
			assert.Error(t, err)
		})
	}
}

func TestParseDateRule(t *testing.T) {
	rule, err := ParseDateRule("$date:month:quarter:-2")
	require.NoError(t, err)
	assert.Equal(t, DateRule{Format: "month", Unit: "quarter", Offset: -2}, rule)
	assert.Equal(t, "2022-11", rule.Eval(time.Date(2023, 5, 15, 0, 0, 0, 0, time.UTC)))

	_, err = ParseDateRule("2023-01-01")
	assert.ErrorContains(t, err, "not a dynamic date")
}
