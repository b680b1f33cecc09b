package report

import (
	"strings"
	"testing"
	"time"

	"studiostats/internal/core"
)

func catBk(id, name, category string, t time.Time) core.Booking {
	return core.Booking{
		PersonID:  id,
		FirstName: name,
		ClassName: "Class",
		Teacher:   "T",
		StartTime: t,
		Category:  category,
	}
}

func TestCategoryDistributionPartition(t *testing.T) {
	rows := []core.Booking{
		catBk("1", "A", "Spin", day(2024, 1, 1)),
		catBk("2", "B", "Sport", day(2024, 1, 2)),
		catBk("3", "C", "Choreo", day(2024, 1, 3)),
		catBk("4", "D", "Spin", day(2024, 1, 4)),
		catBk("4", "D", "Sport", day(2024, 1, 5)),
		catBk("5", "E", "Spin", day(2024, 1, 6)),
		catBk("5", "E", "Sport", day(2024, 1, 7)),
		catBk("5", "E", "Choreo", day(2024, 1, 8)),
	}
	rep, err := CategoryDistribution(rows, mustPeriod(t, "2024-01"), mustPeriod(t, "2024-01"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rep.TotalStudents != 5 {
		t.Fatalf("total got %d, want 5", rep.TotalStudents)
	}

	byKey := make(map[string]VennSubset)
	memberSum := 0
	for _, s := range rep.Subsets {
		byKey[s.Key] = s
		memberSum += s.Members
	}
	// member counts over disjoint subsets sum to the union size
	if memberSum != rep.TotalStudents {
		t.Fatalf("subset members sum to %d, want %d", memberSum, rep.TotalStudents)
	}
	if byKey["100"].Members != 1 || byKey["010"].Members != 1 || byKey["001"].Members != 1 {
		t.Fatalf("singleton subsets wrong: %+v", rep.Subsets)
	}
	if byKey["110"].Members != 1 || byKey["111"].Members != 1 {
		t.Fatalf("intersection subsets wrong: %+v", rep.Subsets)
	}
	if _, present := byKey["011"]; present {
		t.Fatalf("empty subset must be omitted")
	}
	if byKey["110"].Label != "Spin, Sport" {
		t.Fatalf("label wrong: %q", byKey["110"].Label)
	}
	if byKey["100"].PercentOfTotal != 20 {
		t.Fatalf("percent got %v, want 20", byKey["100"].PercentOfTotal)
	}
}

func TestCategoryDistributionExcludesVirginAndMissing(t *testing.T) {
	rows := []core.Booking{
		catBk("1", "A", "Virgin", day(2024, 1, 1)),
		catBk("2", "B", "", day(2024, 1, 2)),
		catBk("3", "C", "Spin", day(2024, 1, 3)),
	}
	rep, err := CategoryDistribution(rows, mustPeriod(t, "2024-01"), mustPeriod(t, "2024-01"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rep.TotalStudents != 1 || len(rep.Subsets) != 1 || rep.Subsets[0].Key != "100" {
		t.Fatalf("virgin/missing categories leaked into partition: %+v", rep)
	}
}

func TestCategoryDistributionRetention(t *testing.T) {
	// Two-month window. A books 6 times (avg 3.0, retained), B books once
	// (avg 0.5, not retained). Both Spin only.
	var rows []core.Booking
	for d := 1; d <= 6; d++ {
		rows = append(rows, catBk("A", "Alice", "Spin", day(2024, 1, d)))
	}
	rows = append(rows, catBk("B", "Bob", "Spin", day(2024, 2, 1)))

	rep, err := CategoryDistribution(rows, mustPeriod(t, "2024-01"), mustPeriod(t, "2024-02"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rep.Subsets) != 1 {
		t.Fatalf("got %d subsets, want 1", len(rep.Subsets))
	}
	s := rep.Subsets[0]
	if s.Members != 2 {
		t.Fatalf("members got %d, want 2", s.Members)
	}
	// avg of member averages: (3.0 + 0.5) / 2 = 1.8 after rounding to one decimal
	if s.AvgBookingsPerMonth != 1.8 {
		t.Fatalf("avg got %v, want 1.8", s.AvgBookingsPerMonth)
	}
	if s.RetentionPct != 50 {
		t.Fatalf("retention got %v, want 50", s.RetentionPct)
	}
	if s.AvgRetentionBookings != 3.0 {
		t.Fatalf("avg retention bookings got %v, want 3.0", s.AvgRetentionBookings)
	}
}

func TestCategoryDistributionMemberLabels(t *testing.T) {
	rows := []core.Booking{
		catBk("9", "Zoe (Z-1)", "Spin", day(2024, 1, 1)),
		catBk("9", "Zoe (Z-1)", "Spin", day(2024, 1, 2)),
	}
	rep, err := CategoryDistribution(rows, mustPeriod(t, "2024-01"), mustPeriod(t, "2024-01"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// parenthesized tag extracted, label carries the windowed total
	if !strings.Contains(rep.Subsets[0].MemberLabels, "(9)Z-1-2") {
		t.Fatalf("labels wrong: %q", rep.Subsets[0].MemberLabels)
	}
}

func TestCategoryDistributionEmptyWindow(t *testing.T) {
	rep, err := CategoryDistribution(nil, mustPeriod(t, "2024-01"), mustPeriod(t, "2024-02"))
	if err != nil {
		t.Fatalf("empty input must not error: %v", err)
	}
	if rep.TotalStudents != 0 || len(rep.Subsets) != 0 {
		t.Fatalf("expected empty report, got %+v", rep)
	}
	if len(rep.Categories) != 3 {
		t.Fatalf("category summary should still list all categories")
	}
}
