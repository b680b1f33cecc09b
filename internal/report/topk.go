package report

import (
	"fmt"
	"sort"
	"strings"

	"studiostats/internal/core"
)

// DefaultTopLimit is the leaderboard size the dashboard renders.
const DefaultTopLimit = 20

// TopEntry is one ranked student within one month.
type TopEntry struct {
	Month    string `json:"Month"`
	Rank     int    `json:"Rank"`
	PersonID string `json:"person_id"`
	Name     string `json:"display_name"`
	Bookings int    `json:"Bookings"`
	Label    string `json:"formatted_label"`
	Details  string `json:"detail_string"`
}

// TopBookers ranks students by booking count within each month of the window
// and keeps the top `limit` per month, including everyone tied with the
// cutoff count, so a month may return more than `limit` entries. Ordering is
// deterministic: count descending, then person id ascending. Details lists
// the student's classes that month as "i. class | date | teacher" lines; a
// booking missing any of the three fields contributes no line. An empty
// window is an empty result, not an error.
func TopBookers(rows []core.Booking, start, end core.Period, limit int) ([]TopEntry, error) {
	if limit < 1 {
		return nil, fmt.Errorf("%w: limit must be at least 1", core.ErrEmptySelection)
	}

	qualified := reportable(rows, start, end)

	type personAgg struct {
		id      string
		name    string
		count   int
		details []string
	}
	byMonth := make(map[core.Period]map[string]*personAgg)
	for _, b := range qualified {
		p, _ := b.Period()
		m := byMonth[p]
		if m == nil {
			m = make(map[string]*personAgg)
			byMonth[p] = m
		}
		agg := m[b.PersonID]
		if agg == nil {
			agg = &personAgg{id: b.PersonID, name: b.FirstName}
			m[b.PersonID] = agg
		}
		agg.count++
		// windowed rows always carry a timestamp; class and teacher may not
		if b.ClassName != "" && b.Teacher != "" {
			agg.details = append(agg.details, fmt.Sprintf("%d. %s | %s | %s",
				len(agg.details)+1, b.ClassName, b.StartTime.Format("2006-01-02"), b.Teacher))
		}
	}

	months := make([]core.Period, 0, len(byMonth))
	for p := range byMonth {
		months = append(months, p)
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Before(months[j]) })

	var out []TopEntry
	for _, p := range months {
		aggs := make([]*personAgg, 0, len(byMonth[p]))
		for _, a := range byMonth[p] {
			aggs = append(aggs, a)
		}
		sort.Slice(aggs, func(i, j int) bool {
			if aggs[i].count != aggs[j].count {
				return aggs[i].count > aggs[j].count
			}
			return aggs[i].id < aggs[j].id
		})

		keep := len(aggs)
		if keep > limit {
			// tie-inclusive cutoff: keep everyone matching the limit-th count
			cutoff := aggs[limit-1].count
			keep = limit
			for keep < len(aggs) && aggs[keep].count == cutoff {
				keep++
			}
		}

		for rank, a := range aggs[:keep] {
			display := a.name + " (" + a.id + ")"
			details := "No Data"
			if len(a.details) > 0 {
				details = strings.Join(a.details, "\n")
			}
			out = append(out, TopEntry{
				Month:    p.String(),
				Rank:     rank + 1,
				PersonID: a.id,
				Name:     display,
				Bookings: a.count,
				Label:    fmt.Sprintf("%s : %d", display, a.count),
				Details:  details,
			})
		}
	}
	return out, nil
}
