// Package file reads the funding workbook from a CSV export.
package file

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	ports "grants/internal/sheets"
)

// Reader reads a worksheet exported as CSV from Excel or Google Sheets.
type Reader struct {
	path string
}

var _ ports.GridReader = (*Reader)(nil)

func New(path string) (*Reader, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("missing import file path")
	}
	return &Reader{path: path}, nil
}

func (r *Reader) ReadGrid(ctx context.Context) ([][]string, error) {
	f, err := os.Open(r.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", r.path, err)
	}
	defer f.Close()

	grid, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", r.path, err)
	}
	return grid, ctx.Err()
}

// Parse reads CSV rows of varying width. A leading UTF-8 byte order mark,
// as Excel writes it, is dropped and cells are trimmed.
func Parse(in io.Reader) ([][]string, error) {
	cr := csv.NewReader(in)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	var grid [][]string
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		for i := range rec {
			rec[i] = strings.TrimSpace(rec[i])
		}
		if len(grid) == 0 && len(rec) > 0 {
			rec[0] = strings.TrimPrefix(rec[0], "\ufeff")
		}
		grid = append(grid, rec)
	}
	return grid, nil
}
