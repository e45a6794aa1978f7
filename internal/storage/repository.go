package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"grants/internal/core"

	_ "modernc.org/sqlite"
)

// SQLiteRepository is the read-write handle used by the importer and the
// migrate command. The dashboard itself only ever goes through Loader.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Dataset reads back everything the dashboard would see.
func (r *SQLiteRepository) Dataset(ctx context.Context) (core.Dataset, error) {
	return loadDataset(ctx, r.db)
}

// ImportStats counts what SaveImport wrote.
type ImportStats struct {
	PeriodsCreated int
	SummaryRows    int
	EducationRows  int
}

// SaveImport writes a parsed workbook in one transaction. Periods are looked
// up by label and created when missing; rows are upserted, so re-importing
// the same workbook replaces values instead of duplicating them.
func (r *SQLiteRepository) SaveImport(ctx context.Context, batch core.ImportBatch) (ImportStats, error) {
	var stats ImportStats

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return stats, fmt.Errorf("begin import: %w", err)
	}
	defer tx.Rollback()

	ids := make(map[string]int64, len(batch.Periods))
	for _, p := range batch.Periods {
		id, created, err := getOrCreatePeriod(ctx, tx, p)
		if err != nil {
			return stats, fmt.Errorf("period %q: %w", p.Label, err)
		}
		ids[p.Label] = id
		if created {
			stats.PeriodsCreated++
		}
	}

	for _, s := range batch.Summary {
		id, ok := ids[s.Period]
		if !ok {
			return stats, fmt.Errorf("funding row %q references undeclared period %q", s.Row.Category, s.Period)
		}
		if err := upsertFundingSummary(ctx, tx, id, s.Row); err != nil {
			return stats, fmt.Errorf("funding row %q/%q: %w", s.Period, s.Row.Category, err)
		}
		stats.SummaryRows++
	}

	for _, e := range batch.Education {
		id, ok := ids[e.Period]
		if !ok {
			return stats, fmt.Errorf("education row references undeclared period %q", e.Period)
		}
		if err := upsertEducationAward(ctx, tx, id, e.Row); err != nil {
			return stats, fmt.Errorf("education row %q: %w", e.Period, err)
		}
		stats.EducationRows++
	}

	if err := tx.Commit(); err != nil {
		return stats, fmt.Errorf("commit import: %w", err)
	}

	slog.InfoContext(ctx, "Funding data saved to SQLite",
		"periods_created", stats.PeriodsCreated,
		"summary_rows", stats.SummaryRows,
		"education_rows", stats.EducationRows)

	return stats, nil
}

func getOrCreatePeriod(ctx context.Context, tx *sql.Tx, p core.ReportingPeriod) (int64, bool, error) {
	var id int64
	err := tx.QueryRowContext(ctx,
		`SELECT id FROM reporting_periods WHERE period_label = ?`, p.Label).Scan(&id)
	if err == nil {
		return id, false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, false, err
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO reporting_periods (period_label, period_end_date) VALUES (?, ?)`,
		p.Label, p.EndDate.Format("2006-01-02"))
	if err != nil {
		return 0, false, err
	}
	id, err = res.LastInsertId()
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

func upsertFundingSummary(ctx context.Context, tx *sql.Tx, periodID int64, row core.FundingSummaryRow) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO funding_summary (
	period_id, category,
	total_direct_costs, peer_reviewed_direct_costs, nci_direct_costs, percent_nci_of_peer_reviewed,
	r01_investigators, r01_awards,
	complex_grants, percent_complex_grants,
	multi_institutional_grants, percent_multi_institutional
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (period_id, category) DO UPDATE SET
	total_direct_costs = excluded.total_direct_costs,
	peer_reviewed_direct_costs = excluded.peer_reviewed_direct_costs,
	nci_direct_costs = excluded.nci_direct_costs,
	percent_nci_of_peer_reviewed = excluded.percent_nci_of_peer_reviewed,
	r01_investigators = excluded.r01_investigators,
	r01_awards = excluded.r01_awards,
	complex_grants = excluded.complex_grants,
	percent_complex_grants = excluded.percent_complex_grants,
	multi_institutional_grants = excluded.multi_institutional_grants,
	percent_multi_institutional = excluded.percent_multi_institutional`,
		periodID, row.Category,
		nullable(row.TotalDirectCosts),
		nullable(row.PeerReviewedDirectCosts),
		nullable(row.NCIDirectCosts),
		nullable(row.PercentNCIOfPeerReviewed),
		nullable(row.R01Investigators),
		nullable(row.R01Awards),
		nullable(row.ComplexGrants),
		nullable(row.PercentComplexGrants),
		nullable(row.MultiInstitutionalGrants),
		nullable(row.PercentMultiInstitutional),
	)
	return err
}

func upsertEducationAward(ctx context.Context, tx *sql.Tx, periodID int64, row core.EducationAwardRow) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO education_awards (
	period_id,
	total_direct_costs, peer_reviewed_direct_costs,
	k_awards, f_awards,
	supported_on_t32, supported_on_cobre
) VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (period_id) DO UPDATE SET
	total_direct_costs = excluded.total_direct_costs,
	peer_reviewed_direct_costs = excluded.peer_reviewed_direct_costs,
	k_awards = excluded.k_awards,
	f_awards = excluded.f_awards,
	supported_on_t32 = excluded.supported_on_t32,
	supported_on_cobre = excluded.supported_on_cobre`,
		periodID,
		nullable(row.TotalDirectCosts),
		nullable(row.PeerReviewedDirectCosts),
		nullable(row.KAwards),
		nullable(row.FAwards),
		nullable(row.SupportedOnT32),
		nullable(row.SupportedOnCOBRE),
	)
	return err
}
