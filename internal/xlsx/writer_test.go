package xlsx

import (
	"bytes"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"studiostats/internal/core"
	"studiostats/internal/report"
)

func reopen(t *testing.T, f *excelize.File) *excelize.File {
	t.Helper()
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	out, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	return out
}

func TestFrequencyWorkbookColumns(t *testing.T) {
	bins := []report.FrequencyBin{
		{Freq: "1", Students: 2, CumFromOne: 2, CumToEnd: 1, Details: "A : 1, B : 2"},
		{Freq: ">1", Students: 1, CumFromOne: 3, CumToEnd: 1, Details: "C : 3"},
	}
	f, err := FrequencyWorkbook(bins)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rows, err := reopen(t, f).GetRows(SheetFrequency)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}
	wantHeader := []string{"Freq", "#Students", "Cum 1->", "Cum ->End", "Details"}
	for i, h := range wantHeader {
		if rows[0][i] != h {
			t.Fatalf("header[%d] got %q, want %q", i, rows[0][i], h)
		}
	}
	if rows[2][0] != ">1" || rows[2][4] != "C : 3" {
		t.Fatalf("overflow row mismatch: %v", rows[2])
	}
}

func TestThresholdWorkbookColumns(t *testing.T) {
	rep := report.ThresholdReport{
		Thresholds: []int{3, 5},
		Rows: []report.ThresholdRow{
			{Month: "2024-01", Counts: []int{1, 0}, TotalBookings: 6},
			{Month: "2024-02", Counts: []int{2, 2}, TotalBookings: 11},
		},
	}
	f, err := ThresholdWorkbook(rep)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rows, err := reopen(t, f).GetRows(SheetThresholds)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if rows[0][1] != "Users_>=_3" || rows[0][2] != "Users_>=_5" || rows[0][3] != "Total_Bookings" {
		t.Fatalf("header mismatch: %v", rows[0])
	}
	if rows[1][0] != "2024-01" || rows[1][1] != "1" || rows[1][3] != "6" {
		t.Fatalf("row mismatch: %v", rows[1])
	}
}

func TestTopBookersWorkbookComments(t *testing.T) {
	entries := []report.TopEntry{
		{Month: "2024-01", Rank: 1, PersonID: "1", Name: "A", Bookings: 4, Label: "A (1) : 4", Details: "Spin w/ Dana"},
	}
	f, err := TopBookersWorkbook(entries)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := reopen(t, f)
	rows, err := out.GetRows(SheetTop)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if rows[1][2] != "A (1) : 4" {
		t.Fatalf("label cell mismatch: %v", rows[1])
	}
	comments, err := out.GetComments(SheetTop)
	if err != nil {
		t.Fatalf("read comments: %v", err)
	}
	if len(comments) != 1 || comments[0].Cell != "C2" {
		t.Fatalf("comment placement wrong: %+v", comments)
	}
}

func TestDistributionWorkbookSheets(t *testing.T) {
	rep := report.VennReport{
		TotalStudents: 2,
		Categories: []report.VennCategoryCount{
			{Category: "Spin", Count: 2},
			{Category: "Sport", Count: 0},
			{Category: "Choreo", Count: 0},
		},
		Subsets: []report.VennSubset{
			{Key: "100", Label: "Spin", Members: 2, PercentOfTotal: 100, MemberLabels: "(1)A-3, (2)B-1"},
		},
	}
	f, err := DistributionWorkbook(rep)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := reopen(t, f)
	cats, err := out.GetRows(SheetCategories)
	if err != nil {
		t.Fatalf("read categories: %v", err)
	}
	if len(cats) != 4 || cats[1][0] != "Spin" || cats[1][1] != "2" {
		t.Fatalf("category sheet mismatch: %v", cats)
	}
	mix, err := out.GetRows(SheetMix)
	if err != nil {
		t.Fatalf("read mix: %v", err)
	}
	if mix[1][0] != "Spin" || mix[1][6] != "(1)A-3, (2)B-1" {
		t.Fatalf("mix sheet mismatch: %v", mix[1])
	}
}

func TestFullWorkbookHasAllSheets(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2024, 1, d, 10, 0, 0, 0, time.UTC) }
	rows := []core.Booking{
		{PersonID: "1", FirstName: "A", ClassName: "Spin AM", Teacher: "T", StartTime: day(1), Category: "Spin"},
		{PersonID: "1", FirstName: "A", ClassName: "Spin AM", Teacher: "T", StartTime: day(2), Category: "Spin"},
		{PersonID: "2", FirstName: "B", ClassName: "Choreo", Teacher: "U", StartTime: day(3), Category: "Choreo"},
	}
	start, err := core.ParsePeriod("2024-01")
	if err != nil {
		t.Fatalf("parse period: %v", err)
	}
	f, err := FullWorkbook(rows, ExportOptions{
		Start:      start,
		End:        start,
		MaxUpper:   5,
		Thresholds: []int{1, 2},
		TopLimit:   report.DefaultTopLimit,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := reopen(t, f)
	for _, sheet := range []string{SheetFrequency, SheetThresholds, SheetTop, SheetCategories, SheetMix, SheetStats} {
		if _, err := out.GetRows(sheet); err != nil {
			t.Fatalf("sheet %q missing: %v", sheet, err)
		}
	}
	freq, err := out.GetRows(SheetFrequency)
	if err != nil {
		t.Fatalf("read frequency: %v", err)
	}
	// freq 1 -> one student (B), freq 2 -> one student (A)
	if freq[1][1] != "1" || freq[2][1] != "1" {
		t.Fatalf("frequency content mismatch: %v", freq)
	}
}
