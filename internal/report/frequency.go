package report

import (
	"fmt"
	"strings"

	"studiostats/internal/core"
)

// FrequencyBin is one row of the booking-frequency histogram. Freq is the
// rendered bin label: "1".."maxUpper" and the ">maxUpper" overflow bin.
type FrequencyBin struct {
	Freq       string `json:"Freq"`
	Students   int    `json:"#Students"`
	CumFromOne int    `json:"Cum 1->"`
	CumToEnd   int    `json:"Cum ->End"`
	Details    string `json:"Details"`
}

// FrequencyTable buckets students by how many times they booked inside the
// window [start, end]. The count is pooled over the whole window, not
// per-month. Bins 1..maxUpper hold students whose pooled count equals the bin
// value; the final bin holds everyone above maxUpper. Details lists
// "name : id" for each student in the bin, in the order students first appear
// in the filtered table.
func FrequencyTable(rows []core.Booking, start, end core.Period, maxUpper int) ([]FrequencyBin, error) {
	if maxUpper < 1 {
		return nil, fmt.Errorf("%w: max upper bound must be at least 1", core.ErrEmptySelection)
	}

	qualified := reportable(rows, start, end)

	counts := make(map[string]int)
	names := make(map[string]string)
	var order []string
	for _, b := range qualified {
		if _, seen := counts[b.PersonID]; !seen {
			order = append(order, b.PersonID)
			names[b.PersonID] = b.FirstName
		}
		counts[b.PersonID]++
	}
	total := len(counts)

	// cumulative count of students with frequency <= i
	cumulative := func(i int) int {
		n := 0
		for _, c := range counts {
			if c <= i {
				n++
			}
		}
		return n
	}

	details := func(match func(int) bool) string {
		var parts []string
		for _, id := range order {
			if match(counts[id]) {
				parts = append(parts, names[id]+" : "+id)
			}
		}
		return strings.Join(parts, ", ")
	}

	bins := make([]FrequencyBin, 0, maxUpper+1)
	for i := 1; i <= maxUpper; i++ {
		exact := 0
		for _, c := range counts {
			if c == i {
				exact++
			}
		}
		cum := cumulative(i)
		bins = append(bins, FrequencyBin{
			Freq:       fmt.Sprintf("%d", i),
			Students:   exact,
			CumFromOne: cum,
			CumToEnd:   total - cum,
			Details:    details(func(c int) bool { return c == i }),
		})
	}

	overflow := 0
	for _, c := range counts {
		if c > maxUpper {
			overflow++
		}
	}
	bins = append(bins, FrequencyBin{
		Freq:       fmt.Sprintf(">%d", maxUpper),
		Students:   overflow,
		CumFromOne: total,
		CumToEnd:   overflow,
		Details:    details(func(c int) bool { return c > maxUpper }),
	})

	return bins, nil
}
