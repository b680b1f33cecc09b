// Package xlsx converts between workbook files and the in-memory booking
// table: parsing uploads on the way in, rendering report sheets on the way
// out.
package xlsx

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"studiostats/internal/core"
)

// Upload feed column headers. The feed misspells the category column; the
// corrected spelling is accepted as well.
const (
	colPersonID  = "Id_Person"
	colFirstName = "FirstName"
	colClassName = "Class_Name"
	colTeacher   = "Teacher"
	colStart     = "Start_Date_time"
	colCategory  = "Cateory"
	colCategory2 = "Category"
)

var requiredColumns = []string{colPersonID, colFirstName, colClassName, colStart}

// ParseWorkbook reads the first sheet of an uploaded workbook into booking
// rows. The header row is matched by name; a missing required column fails
// with ErrMissingColumn. Timestamps that do not parse become missing values
// rather than failing the upload.
func ParseWorkbook(r io.Reader) ([]core.Booking, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, errors.New("workbook has no sheets")
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: empty sheet, no header row", core.ErrMissingColumn)
	}

	index := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		index[strings.TrimSpace(name)] = i
	}
	for _, name := range requiredColumns {
		if _, ok := index[name]; !ok {
			return nil, fmt.Errorf("%w: %s", core.ErrMissingColumn, name)
		}
	}
	categoryCol, hasCategory := index[colCategory]
	if !hasCategory {
		categoryCol, hasCategory = index[colCategory2]
	}
	teacherCol, hasTeacher := index[colTeacher]

	cell := func(row []string, i int) string {
		if i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	out := make([]core.Booking, 0, len(rows)-1)
	for _, row := range rows[1:] {
		b := core.Booking{
			PersonID:  cell(row, index[colPersonID]),
			FirstName: cell(row, index[colFirstName]),
			ClassName: cell(row, index[colClassName]),
			StartTime: parseTimestamp(cell(row, index[colStart])),
		}
		if hasTeacher {
			b.Teacher = cell(row, teacherCol)
		}
		if hasCategory {
			b.Category = cell(row, categoryCol)
		}
		out = append(out, b)
	}
	return out, nil
}

// timestampLayouts covers the formats the feed has been seen to produce.
var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02",
	"01-02-06 15:04",
	"1/2/06 15:04",
	"2006/01/02 15:04:05",
}

// parseTimestamp coerces a cell to a timestamp, returning the zero time when
// it cannot. Numeric cells are treated as Excel serial date numbers.
func parseTimestamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial > 0 {
		if t, err := excelize.ExcelDateToTime(serial, false); err == nil {
			return t
		}
	}
	return time.Time{}
}
