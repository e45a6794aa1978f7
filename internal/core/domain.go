package core

import (
	"math"
	"time"
)

type (
	// Value is a nullable metric reading. An invalid Value means the source
	// cell was empty, which is rendered as a blank and never as zero.
	Value struct {
		Float64 float64
		Valid   bool
	}

	ReportingPeriod struct {
		ID      int64
		Label   string
		EndDate time.Time
	}

	FundingSummaryRow struct {
		PeriodID                  int64
		Category                  string
		TotalDirectCosts          Value
		PeerReviewedDirectCosts   Value
		NCIDirectCosts            Value
		PercentNCIOfPeerReviewed  Value
		R01Investigators          Value
		R01Awards                 Value
		ComplexGrants             Value
		PercentComplexGrants      Value
		MultiInstitutionalGrants  Value
		PercentMultiInstitutional Value
	}

	EducationAwardRow struct {
		PeriodID                int64
		TotalDirectCosts        Value
		PeerReviewedDirectCosts Value
		KAwards                 Value
		FAwards                 Value
		SupportedOnT32          Value
		SupportedOnCOBRE        Value
	}

	// Dataset is everything the dashboard reads from the store for one request.
	Dataset struct {
		Periods   []ReportingPeriod // ordered by EndDate ascending
		Summary   []FundingSummaryRow
		Education []EducationAwardRow
	}
)

// Some returns a valid Value.
func Some(f float64) Value {
	return Value{Float64: f, Valid: true}
}

// Present reports whether v holds a usable number. NaN and infinities are
// treated the same as an empty cell.
func (v Value) Present() bool {
	return v.Valid && !math.IsNaN(v.Float64) && !math.IsInf(v.Float64, 0)
}

// Ptr returns nil for absent values, which JSON encodes as null.
func (v Value) Ptr() *float64 {
	if !v.Present() {
		return nil
	}
	f := v.Float64
	return &f
}

// Metric returns the value stored under a funding_summary column name.
func (r FundingSummaryRow) Metric(key string) Value {
	switch key {
	case FieldTotalDirectCosts:
		return r.TotalDirectCosts
	case FieldPeerReviewedDirectCosts:
		return r.PeerReviewedDirectCosts
	case FieldNCIDirectCosts:
		return r.NCIDirectCosts
	case FieldPercentNCIOfPeerReviewed:
		return r.PercentNCIOfPeerReviewed
	case FieldR01Investigators:
		return r.R01Investigators
	case FieldR01Awards:
		return r.R01Awards
	case FieldComplexGrants:
		return r.ComplexGrants
	case FieldPercentComplexGrants:
		return r.PercentComplexGrants
	case FieldMultiInstitutionalGrants:
		return r.MultiInstitutionalGrants
	case FieldPercentMultiInstitutional:
		return r.PercentMultiInstitutional
	}
	return Value{}
}

// SetMetric stores v under a funding_summary column name. Unknown keys are ignored.
func (r *FundingSummaryRow) SetMetric(key string, v Value) {
	switch key {
	case FieldTotalDirectCosts:
		r.TotalDirectCosts = v
	case FieldPeerReviewedDirectCosts:
		r.PeerReviewedDirectCosts = v
	case FieldNCIDirectCosts:
		r.NCIDirectCosts = v
	case FieldPercentNCIOfPeerReviewed:
		r.PercentNCIOfPeerReviewed = v
	case FieldR01Investigators:
		r.R01Investigators = v
	case FieldR01Awards:
		r.R01Awards = v
	case FieldComplexGrants:
		r.ComplexGrants = v
	case FieldPercentComplexGrants:
		r.PercentComplexGrants = v
	case FieldMultiInstitutionalGrants:
		r.MultiInstitutionalGrants = v
	case FieldPercentMultiInstitutional:
		r.PercentMultiInstitutional = v
	}
}

// Metric returns the value stored under an education_awards column name.
func (r EducationAwardRow) Metric(key string) Value {
	switch key {
	case FieldTotalDirectCosts:
		return r.TotalDirectCosts
	case FieldPeerReviewedDirectCosts:
		return r.PeerReviewedDirectCosts
	case FieldKAwards:
		return r.KAwards
	case FieldFAwards:
		return r.FAwards
	case FieldSupportedOnT32:
		return r.SupportedOnT32
	case FieldSupportedOnCOBRE:
		return r.SupportedOnCOBRE
	}
	return Value{}
}

// SetMetric stores v under an education_awards column name. Unknown keys are ignored.
func (r *EducationAwardRow) SetMetric(key string, v Value) {
	switch key {
	case FieldTotalDirectCosts:
		r.TotalDirectCosts = v
	case FieldPeerReviewedDirectCosts:
		r.PeerReviewedDirectCosts = v
	case FieldKAwards:
		r.KAwards = v
	case FieldFAwards:
		r.FAwards = v
	case FieldSupportedOnT32:
		r.SupportedOnT32 = v
	case FieldSupportedOnCOBRE:
		r.SupportedOnCOBRE = v
	}
}

// PeriodSummary is a funding row addressed by period label, as produced by
// the importer before the store has assigned period ids.
type PeriodSummary struct {
	Period string
	Row    FundingSummaryRow
}

// PeriodEducation is the education counterpart of PeriodSummary.
type PeriodEducation struct {
	Period string
	Row    EducationAwardRow
}

// ImportBatch is one parsed workbook, ready to be written in a single transaction.
type ImportBatch struct {
	Periods   []ReportingPeriod // ID is assigned by the store
	Summary   []PeriodSummary
	Education []PeriodEducation
}
