package core

import (
	"fmt"
	"time"
)

// Period is a calendar month, the reporting time axis. Its canonical string
// form is zero-padded "YYYY-MM", which sorts lexicographically in
// chronological order.
type Period struct {
	Year  int
	Month time.Month
}

// ParsePeriod parses a canonical "YYYY-MM" string.
func ParsePeriod(s string) (Period, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Period{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, s)
	}
	return Period{Year: t.Year(), Month: t.Month()}, nil
}

// PeriodOf returns the period containing t.
func PeriodOf(t time.Time) Period {
	return Period{Year: t.Year(), Month: t.Month()}
}

func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

// Compare returns -1, 0 or +1 ordering p against o chronologically.
func (p Period) Compare(o Period) int {
	switch {
	case p.Year != o.Year:
		if p.Year < o.Year {
			return -1
		}
		return 1
	case p.Month != o.Month:
		if p.Month < o.Month {
			return -1
		}
		return 1
	default:
		return 0
	}
}

func (p Period) Before(o Period) bool { return p.Compare(o) < 0 }

func (p Period) After(o Period) bool { return p.Compare(o) > 0 }

// Next returns the following calendar month.
func (p Period) Next() Period {
	if p.Month == time.December {
		return Period{Year: p.Year + 1, Month: time.January}
	}
	return Period{Year: p.Year, Month: p.Month + 1}
}

// PeriodRange returns every month from start to end inclusive, in order.
// A reversed range yields nil.
func PeriodRange(start, end Period) []Period {
	if start.After(end) {
		return nil
	}
	var out []Period
	for p := start; !p.After(end); p = p.Next() {
		out = append(out, p)
	}
	return out
}

// MonthsBetween returns the inclusive month count of [start, end],
// zero for a reversed range.
func MonthsBetween(start, end Period) int {
	if start.After(end) {
		return 0
	}
	return (end.Year-start.Year)*12 + int(end.Month) - int(start.Month) + 1
}
