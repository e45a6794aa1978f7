// Package importer loads the "grant funding over time" workbook into the
// store. The workbook has one column per reporting period (row 0 holds the
// period end dates) and one row per metric, grouped in program sections.
package importer

import "grants/internal/core"

// CenterProgram is the category of the rows before the first section row.
const CenterProgram = "UVMCC"

const educationSection = "Education"

// sectionRows switch the program that the following metric rows belong to.
var sectionRows = map[string]string{
	"PSCO":              "PSCO",
	"CHE":               "CHE",
	"CC":                "CC",
	"Education Funding": educationSection,
}

// centerFields name the cancer center metrics, most with a "- Center" suffix.
var centerFields = map[string]string{
	"Total Annual Direct Costs - Center":               core.FieldTotalDirectCosts,
	"Total Annual Peer-Reviewed Direct Costs - Center": core.FieldPeerReviewedDirectCosts,
	"Total NCI Annual Direct Costs - Center":           core.FieldNCIDirectCosts,
	"% NCI Annual Direct Costs - Center":               core.FieldPercentNCIOfPeerReviewed,
	"# R01 Investigators":                              core.FieldR01Investigators,
	"# R01 Awards":                                     core.FieldR01Awards,
	"# Complex Grants":                                 core.FieldComplexGrants,
	"% Complex Grants":                                 core.FieldPercentComplexGrants,
	"# Multi-Institutional Grants":                     core.FieldMultiInstitutionalGrants,
	"% Multi-Institutional Grants":                     core.FieldPercentMultiInstitutional,
}

// programFields are shared by the PSCO, CHE and CC sections.
var programFields = map[string]string{
	"Total Annual Direct Costs":               core.FieldTotalDirectCosts,
	"Total Annual Peer-Reviewed Direct Costs": core.FieldPeerReviewedDirectCosts,
	"Total NCI Annual Direct Costs":           core.FieldNCIDirectCosts,
	"% NCI out of Total Peer-Reviewed":        core.FieldPercentNCIOfPeerReviewed,
	"# R01 Investigators":                     core.FieldR01Investigators,
	"# R01 Awards":                            core.FieldR01Awards,
}

var educationFields = map[string]string{
	"Total Annual Direct Costs":               core.FieldTotalDirectCosts,
	"Total Annual Peer-Reviewed Direct Costs": core.FieldPeerReviewedDirectCosts,
	"#K Awards":                               core.FieldKAwards,
	"#F Awards":                               core.FieldFAwards,
}
