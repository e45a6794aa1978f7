package importer

import (
	"context"
	"fmt"

	"grants/internal/core"
	"grants/internal/log"
	"grants/internal/sheets"
	"grants/internal/storage"
)

// Repository persists a parsed workbook.
type Repository interface {
	SaveImport(ctx context.Context, batch core.ImportBatch) (storage.ImportStats, error)
}

// Importer reads a workbook from a source and writes it to the store.
type Importer struct {
	repo   Repository
	labels []string
	logger *log.Logger
}

func New(repo Repository, labels []string, logger *log.Logger) *Importer {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Importer{
		repo:   repo,
		labels: append([]string(nil), labels...),
		logger: logger.WithComponent(log.ComponentImport),
	}
}

// Run reads the grid, parses it and saves the result in one transaction.
// Nothing is written when reading or parsing fails.
func (im *Importer) Run(ctx context.Context, src sheets.GridReader) (storage.ImportStats, error) {
	grid, err := src.ReadGrid(ctx)
	if err != nil {
		return storage.ImportStats{}, fmt.Errorf("read workbook: %w", err)
	}

	batch, err := Parse(grid, im.labels)
	if err != nil {
		im.logger.ErrorContext(ctx, "Workbook parse failed",
			log.NewFields().WithError(err, log.ErrorTypeParse).WithOperation(log.OpParse).ToSlice()...)
		return storage.ImportStats{}, fmt.Errorf("parse workbook: %w", err)
	}
	im.logger.InfoContext(ctx, "Workbook parsed",
		log.FieldOperation, log.OpParse,
		log.FieldPeriods, len(batch.Periods),
		log.FieldSummary, len(batch.Summary),
		log.FieldEducation, len(batch.Education))

	stats, err := im.repo.SaveImport(ctx, batch)
	if err != nil {
		return stats, fmt.Errorf("save workbook: %w", err)
	}
	return stats, nil
}
