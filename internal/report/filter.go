// Package report implements the aggregation engine: pure functions that turn
// a flat booking table into the summary tables the dashboard renders. Every
// function filters on its own copy-on-read view of the input and never
// mutates the rows it is given.
package report

import (
	"strings"

	"studiostats/internal/core"
)

const selfPractice = "self practice"

// FilterByPeriodRange keeps rows whose month lies in [start, end] inclusive.
// Rows with a missing timestamp are dropped. A reversed range yields no rows.
func FilterByPeriodRange(rows []core.Booking, start, end core.Period) []core.Booking {
	var out []core.Booking
	for _, b := range rows {
		p, ok := b.Period()
		if !ok {
			continue
		}
		if p.Before(start) || p.After(end) {
			continue
		}
		out = append(out, b)
	}
	return out
}

// ExcludeSelfPractice drops rows whose class name contains "Self Practice",
// case-insensitively. Rows with an empty class name are kept.
func ExcludeSelfPractice(rows []core.Booking) []core.Booking {
	var out []core.Booking
	for _, b := range rows {
		if strings.Contains(strings.ToLower(b.ClassName), selfPractice) {
			continue
		}
		out = append(out, b)
	}
	return out
}

// reportable applies the shared pre-filter every report starts from: window
// the rows to [start, end] and drop Self Practice.
func reportable(rows []core.Booking, start, end core.Period) []core.Booking {
	return ExcludeSelfPractice(FilterByPeriodRange(rows, start, end))
}
