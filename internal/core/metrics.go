package core

// Column names shared by the store, the importer and the renderers.
const (
	FieldTotalDirectCosts          = "total_direct_costs"
	FieldPeerReviewedDirectCosts   = "peer_reviewed_direct_costs"
	FieldNCIDirectCosts            = "nci_direct_costs"
	FieldPercentNCIOfPeerReviewed  = "percent_nci_of_peer_reviewed"
	FieldR01Investigators          = "r01_investigators"
	FieldR01Awards                 = "r01_awards"
	FieldComplexGrants             = "complex_grants"
	FieldPercentComplexGrants      = "percent_complex_grants"
	FieldMultiInstitutionalGrants  = "multi_institutional_grants"
	FieldPercentMultiInstitutional = "percent_multi_institutional"
	FieldKAwards                   = "k_awards"
	FieldFAwards                   = "f_awards"
	FieldSupportedOnT32            = "supported_on_t32"
	FieldSupportedOnCOBRE          = "supported_on_cobre"
)

// MetricDef pairs a column name with the label shown in the first table column.
type MetricDef struct {
	Key   string
	Label string
}

// FundingMetrics lists the rows of every category table, in display order.
func FundingMetrics() []MetricDef {
	return []MetricDef{
		{FieldTotalDirectCosts, "Total Direct Costs"},
		{FieldPeerReviewedDirectCosts, "Peer-Reviewed Costs"},
		{FieldNCIDirectCosts, "NCI Direct Costs"},
		{FieldPercentNCIOfPeerReviewed, "% NCI of Peer"},
		{FieldR01Investigators, "# R01 Investigators"},
		{FieldR01Awards, "# R01 Awards"},
		{FieldComplexGrants, "# Complex Grants"},
		{FieldPercentComplexGrants, "% Complex Grants"},
		{FieldMultiInstitutionalGrants, "# Multi-Institutional Grants"},
		{FieldPercentMultiInstitutional, "% Multi-Institutional"},
	}
}

// EducationMetrics lists the rows of the education table, in display order.
func EducationMetrics() []MetricDef {
	return []MetricDef{
		{FieldTotalDirectCosts, "Total Direct Costs"},
		{FieldPeerReviewedDirectCosts, "Peer-Reviewed Costs"},
		{FieldKAwards, "# K Awards"},
		{FieldFAwards, "# F Awards"},
	}
}
