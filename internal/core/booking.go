package core

import (
	"sort"
	"strings"
	"time"
)

// Booking is one row of the uploaded booking table. A zero StartTime means the
// source timestamp was missing or unparseable; such rows are skipped by every
// date-based operation.
type Booking struct {
	PersonID  string
	FirstName string
	ClassName string
	Teacher   string
	StartTime time.Time
	Category  string
}

// HasStart reports whether the booking carries a usable timestamp.
func (b Booking) HasStart() bool {
	return !b.StartTime.IsZero()
}

// Period returns the calendar month of the booking. ok is false when the
// timestamp is missing.
func (b Booking) Period() (Period, bool) {
	if !b.HasStart() {
		return Period{}, false
	}
	return PeriodOf(b.StartTime), true
}

// DisplayName is the composite label used everywhere a student is shown:
// the display name is not unique, so the person id is always attached.
func (b Booking) DisplayName() string {
	return b.FirstName + " (" + b.PersonID + ")"
}

// Student is an id/name pair as listed for selector widgets.
type Student struct {
	PersonID  string `json:"person_id"`
	FirstName string `json:"first_name"`
}

// Label renders the student the way selectors display it.
func (s Student) Label() string {
	return s.FirstName + " (" + s.PersonID + ")"
}

// Students returns the distinct students of a table in first-occurrence
// order, keyed on person id.
func Students(rows []Booking) []Student {
	seen := make(map[string]struct{}, len(rows))
	var out []Student
	for _, b := range rows {
		if _, ok := seen[b.PersonID]; ok {
			continue
		}
		seen[b.PersonID] = struct{}{}
		out = append(out, Student{PersonID: b.PersonID, FirstName: b.FirstName})
	}
	return out
}

// Periods returns the sorted distinct periods present in a table. Rows with
// missing timestamps are ignored.
func Periods(rows []Booking) []Period {
	seen := make(map[Period]struct{})
	var out []Period
	for _, b := range rows {
		p, ok := b.Period()
		if !ok {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	sortPeriods(out)
	return out
}

func sortPeriods(ps []Period) {
	sort.Slice(ps, func(i, j int) bool { return ps[i].Before(ps[j]) })
}

// NormalizeName returns the parenthesized tag embedded in a display name when
// present, else the name unchanged. Upstream encodes a secondary identifier as
// "Name (tag)" for the category distribution view.
func NormalizeName(s string) string {
	open := strings.IndexByte(s, '(')
	if open < 0 {
		return s
	}
	n := strings.IndexByte(s[open+1:], ')')
	if n < 0 {
		return s
	}
	return s[open+1 : open+1+n]
}
