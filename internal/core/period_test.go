package core

import (
	"testing"
	"time"
)

func TestParsePeriod(t *testing.T) {
	cases := []struct {
		in   string
		ok   bool
		want Period
	}{
		{"2024-01", true, Period{2024, time.January}},
		{"2024-12", true, Period{2024, time.December}},
		{"2024-13", false, Period{}},
		{"2024-1", false, Period{}},
		{"202401", false, Period{}},
		{"", false, Period{}},
		{"jan 2024", false, Period{}},
	}
	for i, tc := range cases {
		got, err := ParsePeriod(tc.in)
		if tc.ok && err != nil {
			t.Fatalf("case %d: expected ok, got %v", i, err)
		}
		if !tc.ok {
			if err == nil {
				t.Fatalf("case %d: expected error", i)
			}
			if KindOf(err) != "invalid_period" {
				t.Fatalf("case %d: expected invalid_period kind, got %q", i, KindOf(err))
			}
			continue
		}
		if got != tc.want {
			t.Fatalf("case %d: got %v want %v", i, got, tc.want)
		}
	}
}

func TestPeriodStringZeroPadded(t *testing.T) {
	p := Period{2024, time.March}
	if p.String() != "2024-03" {
		t.Fatalf("got %q", p.String())
	}
}

func TestPeriodOrdering(t *testing.T) {
	a := Period{2023, time.December}
	b := Period{2024, time.January}
	if !a.Before(b) || b.Before(a) || a.Compare(a) != 0 {
		t.Fatalf("ordering broken: %v vs %v", a, b)
	}
	// The canonical string form must sort the same way.
	if !(a.String() < b.String()) {
		t.Fatalf("string ordering diverges from chronological ordering")
	}
}

func TestPeriodRange(t *testing.T) {
	start := Period{2023, time.November}
	end := Period{2024, time.February}
	got := PeriodRange(start, end)
	want := []string{"2023-11", "2023-12", "2024-01", "2024-02"}
	if len(got) != len(want) {
		t.Fatalf("got %d periods, want %d", len(got), len(want))
	}
	for i, p := range got {
		if p.String() != want[i] {
			t.Fatalf("index %d: got %s want %s", i, p, want[i])
		}
	}
	if n := MonthsBetween(start, end); n != 4 {
		t.Fatalf("MonthsBetween got %d want 4", n)
	}
	if PeriodRange(end, start) != nil {
		t.Fatalf("reversed range should be nil")
	}
	if MonthsBetween(end, start) != 0 {
		t.Fatalf("reversed MonthsBetween should be 0")
	}
}

func TestNormalizeName(t *testing.T) {
	cases := []struct{ in, want string }{
		{"Dana (D-17)", "D-17"},
		{"Dana", "Dana"},
		{"(only)", "only"},
		{"broken (", "broken ("},
		{"a () b", ""},
	}
	for i, tc := range cases {
		if got := NormalizeName(tc.in); got != tc.want {
			t.Fatalf("case %d: got %q want %q", i, got, tc.want)
		}
	}
}

func TestStudentsFirstOccurrenceOrder(t *testing.T) {
	rows := []Booking{
		{PersonID: "2", FirstName: "B"},
		{PersonID: "1", FirstName: "A"},
		{PersonID: "2", FirstName: "B-later"},
	}
	got := Students(rows)
	if len(got) != 2 {
		t.Fatalf("got %d students", len(got))
	}
	if got[0].PersonID != "2" || got[0].FirstName != "B" || got[1].PersonID != "1" {
		t.Fatalf("unexpected ordering: %+v", got)
	}
}

func TestPeriodsSortedDistinct(t *testing.T) {
	rows := []Booking{
		{StartTime: time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)},
		{StartTime: time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC)},
		{StartTime: time.Date(2024, 3, 9, 18, 0, 0, 0, time.UTC)},
		{}, // missing timestamp ignored
	}
	got := Periods(rows)
	if len(got) != 2 || got[0].String() != "2024-01" || got[1].String() != "2024-03" {
		t.Fatalf("unexpected periods: %v", got)
	}
}
