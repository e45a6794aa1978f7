package importer

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"grants/internal/core"
)

var (
	ErrEmptyGrid  = errors.New("workbook is empty")
	ErrNoPeriods  = errors.New("workbook has no period columns")
	ErrHeaderDate = errors.New("unparseable period end date")
)

// headerDateLayouts are tried in order against each header cell.
var headerDateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"1/2/2006",
	"1/2/06",
	"01/02/2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2-Jan-2006",
	"2-Jan-06",
	"02-Jan-2006",
}

// excelEpoch is day zero of spreadsheet serial dates.
var excelEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

type fundingKey struct {
	label   string
	program string
}

// Parse maps a workbook grid onto funding and education rows.
//
// Column i (i >= 1) belongs to labels[i-1]; columns without a label and
// labels without a column are ignored. Rows whose first cell names a
// section switch the current program; other rows are looked up in the
// metric names of that program and skipped when unknown. Only periods
// that end up with at least one row are returned.
func Parse(grid [][]string, labels []string) (core.ImportBatch, error) {
	if len(grid) == 0 {
		return core.ImportBatch{}, ErrEmptyGrid
	}

	header := grid[0]
	n := min(len(labels), len(header)-1)
	if n <= 0 {
		return core.ImportBatch{}, ErrNoPeriods
	}
	periods := make([]core.ReportingPeriod, n)
	for i := range n {
		end, err := parseHeaderDate(header[i+1])
		if err != nil {
			return core.ImportBatch{}, fmt.Errorf("column %d (%s): %w", i+1, labels[i], err)
		}
		periods[i] = core.ReportingPeriod{Label: labels[i], EndDate: end}
	}

	var (
		program    = CenterProgram
		fundOrder  []fundingKey
		funding    = make(map[fundingKey]*core.FundingSummaryRow)
		eduOrder   []string
		education  = make(map[string]*core.EducationAwardRow)
		referenced = make(map[string]bool)
	)

	for _, row := range grid[1:] {
		if len(row) == 0 {
			continue
		}
		name := strings.TrimSpace(row[0])
		if next, ok := sectionRows[name]; ok {
			program = next
			continue
		}

		if program == educationSection {
			field, ok := educationFields[name]
			if !ok {
				continue
			}
			for i, p := range periods {
				rec, seen := education[p.Label]
				if !seen {
					rec = &core.EducationAwardRow{}
					education[p.Label] = rec
					eduOrder = append(eduOrder, p.Label)
				}
				rec.SetMetric(field, core.ParseValue(cell(row, i+1)))
				referenced[p.Label] = true
			}
			continue
		}

		fields := programFields
		if program == CenterProgram {
			fields = centerFields
		}
		field, ok := fields[name]
		if !ok {
			continue
		}
		for i, p := range periods {
			key := fundingKey{label: p.Label, program: program}
			rec, seen := funding[key]
			if !seen {
				rec = &core.FundingSummaryRow{Category: program}
				funding[key] = rec
				fundOrder = append(fundOrder, key)
			}
			rec.SetMetric(field, core.ParseValue(cell(row, i+1)))
			referenced[p.Label] = true
		}
	}

	batch := core.ImportBatch{}
	for _, p := range periods {
		if referenced[p.Label] {
			batch.Periods = append(batch.Periods, p)
		}
	}
	for _, key := range fundOrder {
		batch.Summary = append(batch.Summary, core.PeriodSummary{Period: key.label, Row: *funding[key]})
	}
	for _, label := range eduOrder {
		batch.Education = append(batch.Education, core.PeriodEducation{Period: label, Row: *education[label]})
	}
	return batch, nil
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

// parseHeaderDate accepts the date renderings spreadsheets commonly export,
// including serial day numbers.
func parseHeaderDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: blank header cell", ErrHeaderDate)
	}
	for _, layout := range headerDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	if days, err := strconv.ParseFloat(s, 64); err == nil && days >= 1 && days < 2958466 {
		return excelEpoch.AddDate(0, 0, int(days)), nil
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrHeaderDate, s)
}
