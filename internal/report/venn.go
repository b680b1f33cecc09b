package report

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"studiostats/internal/core"
)

// VennCategories is the fixed category set the distribution view partitions
// on. Rows with any other category (or none) are ignored, and "Virgin" is an
// explicit trial-visit marker that never counts.
var VennCategories = [3]string{"Spin", "Sport", "Choreo"}

const virginCategory = "Virgin"

// retentionFloor is the average bookings/month at which a student counts as
// retained.
const retentionFloor = 2.0

// VennSubset is one of the seven non-empty regions of the three-set diagram.
type VennSubset struct {
	Key                  string  `json:"key"`
	Label                string  `json:"label"`
	Members              int     `json:"member_count"`
	PercentOfTotal       float64 `json:"percent_of_total_union"`
	AvgBookingsPerMonth  float64 `json:"avg_bookings_per_month"`
	RetentionPct         float64 `json:"retention_pct"`
	AvgRetentionBookings float64 `json:"avg_retention_bookings"`
	MemberLabels         string  `json:"member_labels"`
}

// VennCategoryCount is the per-category summary line.
type VennCategoryCount struct {
	Category string  `json:"Category"`
	Count    int     `json:"Count"`
	Percent  float64 `json:"Percentage"`
}

// VennReport is the category-partition analysis for a window.
type VennReport struct {
	TotalStudents int                 `json:"total_students"`
	Categories    []VennCategoryCount `json:"categories"`
	Subsets       []VennSubset        `json:"subsets"`
}

// subset keys follow Spin/Sport/Choreo membership bits, in the diagram's
// conventional render order.
var subsetOrder = []string{"100", "010", "001", "110", "101", "011", "111"}

var subsetLabels = map[string]string{
	"100": "Spin",
	"010": "Sport",
	"001": "Choreo",
	"110": "Spin, Sport",
	"101": "Spin, Choreo",
	"011": "Sport, Choreo",
	"111": "Spin, Sport, Choreo",
}

// CategoryDistribution partitions the window's students into the seven
// non-empty boolean combinations of category membership and computes
// per-partition booking and retention metrics. Average bookings/month divides
// each student's windowed total by the inclusive month count of the window.
// Empty subsets are omitted; an empty window yields an empty report.
func CategoryDistribution(rows []core.Booking, start, end core.Period) (VennReport, error) {
	totalMonths := core.MonthsBetween(start, end)

	var qualified []core.Booking
	for _, b := range reportable(rows, start, end) {
		if b.Category == "" || b.Category == virginCategory {
			continue
		}
		qualified = append(qualified, b)
	}

	sets := make(map[string]map[string]struct{}, len(VennCategories))
	for _, cat := range VennCategories {
		sets[cat] = make(map[string]struct{})
	}
	totalBookings := make(map[string]int)
	names := make(map[string]string)
	for _, b := range qualified {
		if s, ok := sets[b.Category]; ok {
			s[b.PersonID] = struct{}{}
		}
		totalBookings[b.PersonID]++
		if _, ok := names[b.PersonID]; !ok {
			names[b.PersonID] = core.NormalizeName(b.FirstName)
		}
	}

	union := make(map[string]struct{})
	for _, cat := range VennCategories {
		for id := range sets[cat] {
			union[id] = struct{}{}
		}
	}
	total := len(union)

	avgPerMonth := func(id string) float64 {
		if totalMonths == 0 {
			return 0
		}
		return round1(float64(totalBookings[id]) / float64(totalMonths))
	}

	report := VennReport{TotalStudents: total}
	for _, cat := range VennCategories {
		pct := 0.0
		if total > 0 {
			pct = float64(len(sets[cat])) / float64(total) * 100
		}
		report.Categories = append(report.Categories, VennCategoryCount{
			Category: cat,
			Count:    len(sets[cat]),
			Percent:  pct,
		})
	}

	in := func(cat, id string) bool {
		_, ok := sets[cat][id]
		return ok
	}

	for _, key := range subsetOrder {
		var members []string
		for id := range union {
			match := true
			for i, cat := range VennCategories {
				want := key[i] == '1'
				if in(cat, id) != want {
					match = false
					break
				}
			}
			if match {
				members = append(members, id)
			}
		}
		if len(members) == 0 {
			continue
		}

		var avgSum float64
		var retained []string
		for _, id := range members {
			avg := avgPerMonth(id)
			avgSum += avg
			if avg >= retentionFloor {
				retained = append(retained, id)
			}
		}
		var retainedSum float64
		for _, id := range retained {
			retainedSum += avgPerMonth(id)
		}
		avgRetention := 0.0
		if len(retained) > 0 {
			avgRetention = round1(retainedSum / float64(len(retained)))
		}

		labels := make([]string, 0, len(members))
		for _, id := range members {
			labels = append(labels, "("+id+")"+names[id]+"-"+strconv.Itoa(totalBookings[id]))
		}
		sort.Strings(labels)

		report.Subsets = append(report.Subsets, VennSubset{
			Key:                  key,
			Label:                subsetLabels[key],
			Members:              len(members),
			PercentOfTotal:       float64(len(members)) / float64(total) * 100,
			AvgBookingsPerMonth:  round1(avgSum / float64(len(members))),
			RetentionPct:         float64(len(retained)) / float64(len(members)) * 100,
			AvgRetentionBookings: avgRetention,
			MemberLabels:         strings.Join(labels, ", "),
		})
	}
	return report, nil
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
