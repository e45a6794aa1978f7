package dashboard

import (
	"strconv"
	"strings"

	"grants/internal/core"
)

// Line colors, one for every funding category and one for education.
const (
	FundingColor   = "blue"
	EducationColor = "green"
)

// Chart is one canvas element plus the Chart.js configuration drawn into it.
type Chart struct {
	ElementID string      `json:"elementId"`
	Config    ChartConfig `json:"config"`
}

type ChartConfig struct {
	Type string    `json:"type"`
	Data ChartData `json:"data"`
}

type ChartData struct {
	Labels   []string      `json:"labels"`
	Datasets []ChartSeries `json:"datasets"`
}

// ChartSeries holds one point per period label; nil points encode as null
// so Chart.js leaves a gap instead of plotting zero.
type ChartSeries struct {
	Label       string     `json:"label"`
	Data        []*float64 `json:"data"`
	BorderColor string     `json:"borderColor"`
	Fill        bool       `json:"fill"`
}

// BuildChart plots total direct costs across the period labels.
func BuildChart(elementID, seriesLabel, color string, lookup CellLookup, labels []string) Chart {
	points := make([]*float64, len(labels))
	for i, label := range labels {
		points[i] = lookup(label, core.FieldTotalDirectCosts).Ptr()
	}
	return Chart{
		ElementID: elementID,
		Config: ChartConfig{
			Type: "line",
			Data: ChartData{
				Labels: append([]string{}, labels...),
				Datasets: []ChartSeries{{
					Label:       seriesLabel,
					Data:        points,
					BorderColor: color,
					Fill:        false,
				}},
			},
		},
	}
}

// IDAllocator hands out unique, attribute-safe element ids for charts.
// Category names are free text, so they are slugged before use.
type IDAllocator struct {
	used map[string]bool
}

func NewIDAllocator() *IDAllocator {
	return &IDAllocator{used: make(map[string]bool)}
}

// Allocate returns "chart-<slug>", adding "-2", "-3"... on collisions.
func (a *IDAllocator) Allocate(name string) string {
	base := "chart-" + slug(name)
	id := base
	for n := 2; a.used[id]; n++ {
		id = base + "-" + strconv.Itoa(n)
	}
	a.used[id] = true
	return id
}

func slug(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case b.Len() > 0 && !dash:
			b.WriteByte('-')
			dash = true
		}
	}
	out := strings.TrimSuffix(b.String(), "-")
	if out == "" {
		return "category"
	}
	return out
}
