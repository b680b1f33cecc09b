package report

import (
	"sort"

	"studiostats/internal/core"
)

// MonthlyStat summarizes one month's per-student booking counts.
type MonthlyStat struct {
	Month    string  `json:"Month"`
	Mean     float64 `json:"mean"`
	Median   float64 `json:"median"`
	Total    int     `json:"Total"`
	Students int     `json:"Students"`
}

// MonthlyStats computes mean and median bookings per student, total bookings
// and distinct students for every month of the window that has qualifying
// rows. With excludeSingle set, students who booked exactly once in a month
// are left out of that month's statistics.
func MonthlyStats(rows []core.Booking, start, end core.Period, excludeSingle bool) ([]MonthlyStat, error) {
	qualified := reportable(rows, start, end)

	perMonth := make(map[core.Period]map[string]int)
	for _, b := range qualified {
		p, _ := b.Period()
		m := perMonth[p]
		if m == nil {
			m = make(map[string]int)
			perMonth[p] = m
		}
		m[b.PersonID]++
	}

	months := make([]core.Period, 0, len(perMonth))
	for p := range perMonth {
		months = append(months, p)
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Before(months[j]) })

	var out []MonthlyStat
	for _, p := range months {
		var counts []int
		for _, c := range perMonth[p] {
			if excludeSingle && c == 1 {
				continue
			}
			counts = append(counts, c)
		}
		if len(counts) == 0 {
			continue
		}
		sort.Ints(counts)

		total := 0
		for _, c := range counts {
			total += c
		}
		out = append(out, MonthlyStat{
			Month:    p.String(),
			Mean:     float64(total) / float64(len(counts)),
			Median:   median(counts),
			Total:    total,
			Students: len(counts),
		})
	}
	return out, nil
}

// median expects a sorted slice; even lengths average the two middle values.
func median(sorted []int) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return float64(sorted[n/2])
	}
	return float64(sorted[n/2-1]+sorted[n/2]) / 2
}
