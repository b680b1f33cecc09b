package xlsx

import (
	"fmt"

	"github.com/xuri/excelize/v2"
	"golang.org/x/sync/errgroup"

	"studiostats/internal/core"
	"studiostats/internal/report"
)

// Sheet names used by the workbook exports.
const (
	SheetFrequency  = "Frequency"
	SheetThresholds = "Thresholds"
	SheetSeries     = "Series"
	SheetTop        = "Top Bookers"
	SheetCategories = "Categories"
	SheetMix        = "Category Mix"
	SheetStats      = "Monthly Stats"
)

// ExportOptions selects what goes into a full-report workbook.
type ExportOptions struct {
	Start         core.Period
	End           core.Period
	MaxUpper      int
	Thresholds    []int
	TopLimit      int
	ExcludeSingle bool
}

func newWorkbook(first string) *excelize.File {
	f := excelize.NewFile()
	f.SetSheetName("Sheet1", first)
	return f
}

func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

// FrequencyWorkbook renders a frequency table as a single-sheet workbook.
func FrequencyWorkbook(bins []report.FrequencyBin) (*excelize.File, error) {
	f := newWorkbook(SheetFrequency)
	if err := writeFrequencySheet(f, SheetFrequency, bins); err != nil {
		return nil, err
	}
	return f, nil
}

func writeFrequencySheet(f *excelize.File, sheet string, bins []report.FrequencyBin) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	if err := setRow(f, sheet, 1, []interface{}{"Freq", "#Students", "Cum 1->", "Cum ->End", "Details"}); err != nil {
		return err
	}
	for i, b := range bins {
		row := []interface{}{b.Freq, b.Students, b.CumFromOne, b.CumToEnd, b.Details}
		if err := setRow(f, sheet, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

// ThresholdWorkbook renders monthly threshold counts as a single-sheet
// workbook.
func ThresholdWorkbook(rep report.ThresholdReport) (*excelize.File, error) {
	f := newWorkbook(SheetThresholds)
	if err := writeThresholdSheet(f, SheetThresholds, rep); err != nil {
		return nil, err
	}
	return f, nil
}

func writeThresholdSheet(f *excelize.File, sheet string, rep report.ThresholdReport) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	header := []interface{}{"Month"}
	for _, n := range rep.Thresholds {
		header = append(header, report.ColumnName(n))
	}
	header = append(header, "Total_Bookings")
	if err := setRow(f, sheet, 1, header); err != nil {
		return err
	}
	for i, r := range rep.Rows {
		row := []interface{}{r.Month}
		for _, c := range r.Counts {
			row = append(row, c)
		}
		row = append(row, r.TotalBookings)
		if err := setRow(f, sheet, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

// SeriesWorkbook renders a per-student monthly series as a single-sheet
// workbook.
func SeriesWorkbook(points []report.SeriesPoint) (*excelize.File, error) {
	f := newWorkbook(SheetSeries)
	if err := writeSeriesSheet(f, SheetSeries, points); err != nil {
		return nil, err
	}
	return f, nil
}

func writeSeriesSheet(f *excelize.File, sheet string, points []report.SeriesPoint) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	if err := setRow(f, sheet, 1, []interface{}{"Month", "Id_Person", "FirstName", "Bookings"}); err != nil {
		return err
	}
	for i, p := range points {
		if err := setRow(f, sheet, i+2, []interface{}{p.Month, p.PersonID, p.Name, p.Bookings}); err != nil {
			return err
		}
	}
	return nil
}

// TopBookersWorkbook renders top-booker rankings as a single-sheet workbook.
// Per-student class details ride along as cell comments on the student
// column, matching how the dashboard shows them on hover.
func TopBookersWorkbook(entries []report.TopEntry) (*excelize.File, error) {
	f := newWorkbook(SheetTop)
	if err := writeTopSheet(f, SheetTop, entries); err != nil {
		return nil, err
	}
	return f, nil
}

func writeTopSheet(f *excelize.File, sheet string, entries []report.TopEntry) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	if err := setRow(f, sheet, 1, []interface{}{"Month", "Rank", "Student", "Bookings"}); err != nil {
		return err
	}
	for i, e := range entries {
		if err := setRow(f, sheet, i+2, []interface{}{e.Month, e.Rank, e.Label, e.Bookings}); err != nil {
			return err
		}
		cell, err := excelize.CoordinatesToCellName(3, i+2)
		if err != nil {
			return err
		}
		err = f.AddComment(sheet, excelize.Comment{
			Cell:   cell,
			Author: "studiostats",
			Paragraph: []excelize.RichTextRun{
				{Text: e.Details},
			},
		})
		if err != nil {
			return fmt.Errorf("comment %s!%s: %w", sheet, cell, err)
		}
	}
	return nil
}

// DistributionWorkbook renders the category partition as two sheets: a plain
// per-category summary and the full subset breakdown.
func DistributionWorkbook(rep report.VennReport) (*excelize.File, error) {
	f := newWorkbook(SheetCategories)
	if err := writeDistributionSheets(f, rep); err != nil {
		return nil, err
	}
	return f, nil
}

func writeDistributionSheets(f *excelize.File, rep report.VennReport) error {
	if _, err := f.NewSheet(SheetCategories); err != nil {
		return err
	}
	if err := setRow(f, SheetCategories, 1, []interface{}{"Category", "Students"}); err != nil {
		return err
	}
	for i, c := range rep.Categories {
		if err := setRow(f, SheetCategories, i+2, []interface{}{c.Category, c.Count}); err != nil {
			return err
		}
	}

	if _, err := f.NewSheet(SheetMix); err != nil {
		return err
	}
	header := []interface{}{
		"Combination", "Students", "% of Total", "Avg Bookings/Month",
		"Retention %", "Avg Retention Bookings", "Members",
	}
	if err := setRow(f, SheetMix, 1, header); err != nil {
		return err
	}
	for i, s := range rep.Subsets {
		row := []interface{}{
			s.Label, s.Members, s.PercentOfTotal, s.AvgBookingsPerMonth,
			s.RetentionPct, s.AvgRetentionBookings, s.MemberLabels,
		}
		if err := setRow(f, SheetMix, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

// StatsWorkbook renders monthly summary statistics as a single-sheet
// workbook.
func StatsWorkbook(stats []report.MonthlyStat) (*excelize.File, error) {
	f := newWorkbook(SheetStats)
	if err := writeStatsSheet(f, SheetStats, stats); err != nil {
		return nil, err
	}
	return f, nil
}

func writeStatsSheet(f *excelize.File, sheet string, stats []report.MonthlyStat) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	if err := setRow(f, sheet, 1, []interface{}{"Month", "Mean", "Median", "Total_Bookings", "Students"}); err != nil {
		return err
	}
	for i, s := range stats {
		if err := setRow(f, sheet, i+2, []interface{}{s.Month, s.Mean, s.Median, s.Total, s.Students}); err != nil {
			return err
		}
	}
	return nil
}

// FullWorkbook assembles every report for the window into one workbook. The
// reports are independent aggregations over the same table, so they are
// computed concurrently before the sheets are written.
func FullWorkbook(rows []core.Booking, opts ExportOptions) (*excelize.File, error) {
	var (
		bins    []report.FrequencyBin
		thr     report.ThresholdReport
		top     []report.TopEntry
		venn    report.VennReport
		monthly []report.MonthlyStat
	)

	var g errgroup.Group
	g.Go(func() error {
		var err error
		bins, err = report.FrequencyTable(rows, opts.Start, opts.End, opts.MaxUpper)
		return err
	})
	g.Go(func() error {
		var err error
		thr, err = report.MonthlyThresholds(rows, opts.Start, opts.End, opts.Thresholds)
		return err
	})
	g.Go(func() error {
		var err error
		top, err = report.TopBookers(rows, opts.Start, opts.End, opts.TopLimit)
		return err
	})
	g.Go(func() error {
		var err error
		venn, err = report.CategoryDistribution(rows, opts.Start, opts.End)
		return err
	})
	g.Go(func() error {
		var err error
		monthly, err = report.MonthlyStats(rows, opts.Start, opts.End, opts.ExcludeSingle)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	f := newWorkbook(SheetFrequency)
	if err := writeFrequencySheet(f, SheetFrequency, bins); err != nil {
		return nil, err
	}
	if err := writeThresholdSheet(f, SheetThresholds, thr); err != nil {
		return nil, err
	}
	if err := writeTopSheet(f, SheetTop, top); err != nil {
		return nil, err
	}
	if err := writeDistributionSheets(f, venn); err != nil {
		return nil, err
	}
	if err := writeStatsSheet(f, SheetStats, monthly); err != nil {
		return nil, err
	}
	return f, nil
}
