package core

// SummaryPivot is funding_summary reshaped to category -> period label -> row.
// Categories keeps the order in which each category first appeared in the
// loaded rows; Go maps carry no order of their own.
type SummaryPivot struct {
	Categories []string
	ByCategory map[string]map[string]FundingSummaryRow
}

// Row returns the row for a category and period label, if one was loaded.
func (p SummaryPivot) Row(category, label string) (FundingSummaryRow, bool) {
	row, ok := p.ByCategory[category][label]
	return row, ok
}

// EducationPivot is education_awards keyed by period label.
type EducationPivot map[string]EducationAwardRow

// Row returns the education row for a period label, if one was loaded.
func (p EducationPivot) Row(label string) (EducationAwardRow, bool) {
	row, ok := p[label]
	return row, ok
}

// Dashboard is the pivoted view of one Dataset.
type Dashboard struct {
	Labels    []string // period labels, ordered by period end date
	Summary   SummaryPivot
	Education EducationPivot
}

// BuildDashboard pivots a Dataset. Rows that reference a period id missing
// from ds.Periods are dropped without error. When two rows land on the same
// cell the later one wins.
func BuildDashboard(ds Dataset) Dashboard {
	labels := make([]string, 0, len(ds.Periods))
	byID := make(map[int64]string, len(ds.Periods))
	for _, p := range ds.Periods {
		labels = append(labels, p.Label)
		byID[p.ID] = p.Label
	}

	summary := SummaryPivot{ByCategory: make(map[string]map[string]FundingSummaryRow)}
	for _, row := range ds.Summary {
		label, ok := byID[row.PeriodID]
		if !ok {
			continue
		}
		cells, seen := summary.ByCategory[row.Category]
		if !seen {
			cells = make(map[string]FundingSummaryRow)
			summary.ByCategory[row.Category] = cells
			summary.Categories = append(summary.Categories, row.Category)
		}
		cells[label] = row
	}

	education := make(EducationPivot)
	for _, row := range ds.Education {
		label, ok := byID[row.PeriodID]
		if !ok {
			continue
		}
		education[label] = row
	}

	return Dashboard{Labels: labels, Summary: summary, Education: education}
}
