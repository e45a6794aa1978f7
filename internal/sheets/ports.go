// Package sheets defines the spreadsheet sources the importer reads from.
package sheets

import "context"

// Ports for inbound adapters.
type (
	// GridReader returns a worksheet as rows of cell text. Rows may have
	// different lengths; missing trailing cells are blank.
	GridReader interface {
		ReadGrid(ctx context.Context) ([][]string, error)
	}
)
