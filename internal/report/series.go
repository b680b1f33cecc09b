package report

import (
	"fmt"

	"studiostats/internal/core"
)

// SeriesPoint is one (month, student) cell of the per-student monthly series.
type SeriesPoint struct {
	Month    string `json:"Month"`
	PersonID string `json:"person_id"`
	Name     string `json:"display_name"`
	Bookings int    `json:"Bookings"`
}

// StudentMonthlySeries counts non-practice bookings per selected student per
// month across the full month spine of [start, end]. The result is dense:
// exactly months x students points, zero-filled where a student had no
// activity. Display names resolve from the whole table; a selected id with no
// rows anywhere fails with ErrUnknownStudent rather than inventing a blank
// name.
func StudentMonthlySeries(rows []core.Booking, personIDs []string, start, end core.Period) ([]SeriesPoint, error) {
	selected := make([]string, 0, len(personIDs))
	seen := make(map[string]struct{}, len(personIDs))
	for _, id := range personIDs {
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		selected = append(selected, id)
	}
	if len(selected) == 0 {
		return nil, fmt.Errorf("%w: at least one student required", core.ErrEmptySelection)
	}

	names := make(map[string]string, len(selected))
	for _, b := range rows {
		if _, want := seen[b.PersonID]; !want {
			continue
		}
		if _, ok := names[b.PersonID]; !ok {
			names[b.PersonID] = b.FirstName
		}
	}
	for _, id := range selected {
		if _, ok := names[id]; !ok {
			return nil, fmt.Errorf("%w: %q has no bookings in the table", core.ErrUnknownStudent, id)
		}
	}

	counts := make(map[core.Period]map[string]int)
	for _, b := range reportable(rows, start, end) {
		if _, want := seen[b.PersonID]; !want {
			continue
		}
		p, _ := b.Period()
		m := counts[p]
		if m == nil {
			m = make(map[string]int)
			counts[p] = m
		}
		m[b.PersonID]++
	}

	spine := core.PeriodRange(start, end)
	out := make([]SeriesPoint, 0, len(spine)*len(selected))
	for _, p := range spine {
		for _, id := range selected {
			out = append(out, SeriesPoint{
				Month:    p.String(),
				PersonID: id,
				Name:     names[id],
				Bookings: counts[p][id],
			})
		}
	}
	return out, nil
}
