// Package dashboard turns a pivoted core.Dashboard into view models and
// renders them as a single HTML page. It never touches the store.
package dashboard

import "grants/internal/core"

// CellLookup returns the value of one metric for one period label.
type CellLookup func(label, key string) core.Value

// SummaryLookup reads cells of one category from the summary pivot.
func SummaryLookup(p core.SummaryPivot, category string) CellLookup {
	return func(label, key string) core.Value {
		row, ok := p.Row(category, label)
		if !ok {
			return core.Value{}
		}
		return row.Metric(key)
	}
}

// EducationLookup reads cells from the education pivot.
func EducationLookup(p core.EducationPivot) CellLookup {
	return func(label, key string) core.Value {
		row, ok := p.Row(label)
		if !ok {
			return core.Value{}
		}
		return row.Metric(key)
	}
}

type Table struct {
	Header []string // "Metric" followed by the period labels
	Rows   []TableRow
}

type TableRow struct {
	Label string
	Cells []string // one per period label, "" when missing
}

// BuildTable lays out one row per metric and one column per period label.
// Cell text is final; escaping is left to the template.
func BuildTable(lookup CellLookup, metrics []core.MetricDef, labels []string) Table {
	t := Table{
		Header: append([]string{"Metric"}, labels...),
		Rows:   make([]TableRow, 0, len(metrics)),
	}
	for _, m := range metrics {
		row := TableRow{Label: m.Label, Cells: make([]string, len(labels))}
		for i, label := range labels {
			row.Cells[i] = core.FormatValue(lookup(label, m.Key))
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}
