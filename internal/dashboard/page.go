package dashboard

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"io/fs"

	"grants/internal/core"
)

const (
	EducationHeading = "Education Awards"
	educationChartID = "edu"
)

// PageOptions carries the per-deployment and per-request parts of a page.
type PageOptions struct {
	Title          string
	ChartScriptURL string
	Nonce          string
}

// Section is one heading with its metric table and chart.
type Section struct {
	Heading string
	Table   Table
	Chart   Chart
}

type Page struct {
	PageOptions
	Categories []Section
	Education  Section
}

// SectionView pairs a section with the script nonce for its inline chart.
type SectionView struct {
	Section
	Nonce string
}

func (p Page) CategoryViews() []SectionView {
	views := make([]SectionView, len(p.Categories))
	for i, s := range p.Categories {
		views[i] = SectionView{Section: s, Nonce: p.Nonce}
	}
	return views
}

func (p Page) EducationView() SectionView {
	return SectionView{Section: p.Education, Nonce: p.Nonce}
}

// Charts lists every chart on the page in display order.
func (p Page) Charts() []Chart {
	charts := make([]Chart, 0, len(p.Categories)+1)
	for _, s := range p.Categories {
		charts = append(charts, s.Chart)
	}
	return append(charts, p.Education.Chart)
}

// BuildPage lays out one section per category, in pivot order, followed by
// the education section.
func BuildPage(d core.Dashboard, opts PageOptions) Page {
	ids := NewIDAllocator()
	eduID := ids.Allocate(educationChartID)

	page := Page{
		PageOptions: opts,
		Categories:  make([]Section, 0, len(d.Summary.Categories)),
	}
	for _, category := range d.Summary.Categories {
		lookup := SummaryLookup(d.Summary, category)
		page.Categories = append(page.Categories, Section{
			Heading: category,
			Table:   BuildTable(lookup, core.FundingMetrics(), d.Labels),
			Chart:   BuildChart(ids.Allocate(category), category+": Total Direct Costs", FundingColor, lookup, d.Labels),
		})
	}

	lookup := EducationLookup(d.Education)
	page.Education = Section{
		Heading: EducationHeading,
		Table:   BuildTable(lookup, core.EducationMetrics(), d.Labels),
		Chart:   BuildChart(eduID, "Education: Total Direct Costs", EducationColor, lookup, d.Labels),
	}
	return page
}

// Renderer executes the dashboard template. It is safe for concurrent use.
type Renderer struct {
	templates *template.Template
}

// NewRenderer parses templates/*.html from fsys once.
func NewRenderer(fsys fs.FS) (*Renderer, error) {
	t, err := template.ParseFS(fsys, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	if t.Lookup("dashboard.html") == nil {
		return nil, fmt.Errorf("parse templates: dashboard.html not found")
	}
	return &Renderer{templates: t}, nil
}

// Render writes the whole page or nothing: the template runs into a buffer
// and only a successful result reaches w.
func (r *Renderer) Render(w io.Writer, p Page) error {
	var buf bytes.Buffer
	if err := r.templates.ExecuteTemplate(&buf, "dashboard.html", p); err != nil {
		return fmt.Errorf("render dashboard: %w", err)
	}
	_, err := buf.WriteTo(w)
	return err
}
