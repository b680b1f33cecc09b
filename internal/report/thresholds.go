package report

import (
	"fmt"
	"sort"

	"studiostats/internal/core"
)

// ThresholdRow is one month of the threshold report. Counts is aligned with
// ThresholdReport.Thresholds; TotalBookings is the month's raw non-practice
// booking count, kept for the companion bar trace.
type ThresholdRow struct {
	Month         string
	Counts        []int
	TotalBookings int
}

// ThresholdReport counts, per month, the students whose monthly booking count
// reached each threshold.
type ThresholdReport struct {
	Thresholds []int
	Rows       []ThresholdRow
}

// ColumnName renders the contract column header for a threshold.
func ColumnName(threshold int) string {
	return fmt.Sprintf("Users_>=_%d", threshold)
}

// MonthlyThresholds computes, for every month in the window that has at least
// one qualifying booking, how many students booked >= N times that month, for
// each threshold N. Non-positive and duplicate thresholds are discarded;
// at least one valid threshold is required. Every threshold shares the same
// month domain, so a zero count is a genuine zero, not a missing cell.
func MonthlyThresholds(rows []core.Booking, start, end core.Period, thresholds []int) (ThresholdReport, error) {
	valid := make([]int, 0, len(thresholds))
	seen := make(map[int]struct{}, len(thresholds))
	for _, n := range thresholds {
		if n < 1 {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		valid = append(valid, n)
	}
	if len(valid) == 0 {
		return ThresholdReport{}, fmt.Errorf("%w: at least one positive threshold required", core.ErrEmptySelection)
	}

	qualified := reportable(rows, start, end)

	// per-student booking count and raw total per month
	perMonth := make(map[core.Period]map[string]int)
	totals := make(map[core.Period]int)
	for _, b := range qualified {
		p, _ := b.Period()
		m := perMonth[p]
		if m == nil {
			m = make(map[string]int)
			perMonth[p] = m
		}
		m[b.PersonID]++
		totals[p]++
	}

	months := make([]core.Period, 0, len(perMonth))
	for p := range perMonth {
		months = append(months, p)
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Before(months[j]) })

	report := ThresholdReport{Thresholds: valid}
	for _, p := range months {
		counts := make([]int, len(valid))
		for i, n := range valid {
			for _, c := range perMonth[p] {
				if c >= n {
					counts[i]++
				}
			}
		}
		report.Rows = append(report.Rows, ThresholdRow{
			Month:         p.String(),
			Counts:        counts,
			TotalBookings: totals[p],
		})
	}
	return report, nil
}
