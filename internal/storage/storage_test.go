package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"grants/internal/core"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newTestRepo(t *testing.T) (*SQLiteRepository, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data", "grants.db")
	repo, err := NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("new repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo, path
}

func sampleBatch() core.ImportBatch {
	return core.ImportBatch{
		// Deliberately not in end-date order.
		Periods: []core.ReportingPeriod{
			{Label: "2023", EndDate: date(2023, 12, 31)},
			{Label: "FY2022", EndDate: date(2022, 6, 30)},
		},
		Summary: []core.PeriodSummary{
			{Period: "FY2022", Row: core.FundingSummaryRow{Category: "UVMCC", TotalDirectCosts: core.Some(1500000), R01Awards: core.Some(12)}},
			{Period: "FY2022", Row: core.FundingSummaryRow{Category: "CC", TotalDirectCosts: core.Some(250000)}},
			{Period: "2023", Row: core.FundingSummaryRow{Category: "UVMCC", TotalDirectCosts: core.Some(1750000)}},
		},
		Education: []core.PeriodEducation{
			{Period: "2023", Row: core.EducationAwardRow{TotalDirectCosts: core.Some(90000), KAwards: core.Some(3)}},
		},
	}
}

func TestSaveImportAndLoad(t *testing.T) {
	ctx := context.Background()
	repo, path := newTestRepo(t)

	stats, err := repo.SaveImport(ctx, sampleBatch())
	if err != nil {
		t.Fatalf("save import: %v", err)
	}
	if stats.PeriodsCreated != 2 || stats.SummaryRows != 3 || stats.EducationRows != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	ds, err := NewLoader(Options{Path: path}).Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if len(ds.Periods) != 2 || ds.Periods[0].Label != "FY2022" || ds.Periods[1].Label != "2023" {
		t.Fatalf("periods not ordered by end date: %+v", ds.Periods)
	}
	if !ds.Periods[0].EndDate.Equal(date(2022, 6, 30)) {
		t.Fatalf("end date not parsed: %v", ds.Periods[0].EndDate)
	}

	if len(ds.Summary) != 3 {
		t.Fatalf("expected 3 summary rows, got %d", len(ds.Summary))
	}
	// ORDER BY period_id, category: FY2022 was created second, so 2023 rows come first.
	first := ds.Summary[0]
	if first.PeriodID != ds.Periods[1].ID || first.Category != "UVMCC" {
		t.Fatalf("unexpected first summary row: %+v", first)
	}
	if ds.Summary[1].Category != "CC" || ds.Summary[2].Category != "UVMCC" {
		t.Fatalf("summary rows not ordered by category within period: %+v", ds.Summary)
	}
	if ds.Summary[2].R01Awards != core.Some(12) {
		t.Fatalf("metric not round-tripped: %+v", ds.Summary[2].R01Awards)
	}
	if ds.Summary[1].R01Awards.Valid {
		t.Fatalf("missing metric must load as absent, got %+v", ds.Summary[1].R01Awards)
	}

	if len(ds.Education) != 1 || ds.Education[0].KAwards != core.Some(3) || ds.Education[0].FAwards.Valid {
		t.Fatalf("unexpected education rows: %+v", ds.Education)
	}
}

func TestSaveImportUpserts(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepo(t)

	if _, err := repo.SaveImport(ctx, sampleBatch()); err != nil {
		t.Fatalf("first import: %v", err)
	}
	again := sampleBatch()
	again.Summary[0].Row.TotalDirectCosts = core.Some(1600000)
	stats, err := repo.SaveImport(ctx, again)
	if err != nil {
		t.Fatalf("second import: %v", err)
	}
	if stats.PeriodsCreated != 0 {
		t.Fatalf("periods must be reused by label, created %d", stats.PeriodsCreated)
	}

	ds, err := repo.Dataset(ctx)
	if err != nil {
		t.Fatalf("dataset: %v", err)
	}
	if len(ds.Summary) != 3 || len(ds.Education) != 1 {
		t.Fatalf("re-import duplicated rows: %d summary, %d education", len(ds.Summary), len(ds.Education))
	}
	d := core.BuildDashboard(ds)
	row, _ := d.Summary.Row("UVMCC", "FY2022")
	if row.TotalDirectCosts != core.Some(1600000) {
		t.Fatalf("expected upserted value, got %+v", row.TotalDirectCosts)
	}
}

func TestSaveImportRejectsUndeclaredPeriod(t *testing.T) {
	repo, _ := newTestRepo(t)
	batch := core.ImportBatch{
		Summary: []core.PeriodSummary{{Period: "FY2099", Row: core.FundingSummaryRow{Category: "CC"}}},
	}
	if _, err := repo.SaveImport(context.Background(), batch); err == nil {
		t.Fatalf("expected error for undeclared period")
	}
	ds, err := repo.Dataset(context.Background())
	if err != nil {
		t.Fatalf("dataset: %v", err)
	}
	if len(ds.Summary) != 0 {
		t.Fatalf("failed import must roll back, found %d rows", len(ds.Summary))
	}
}

func TestLoadMissingDatabaseIsConnectError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.db")
	_, err := Load(context.Background(), Options{Path: path})
	if !errors.Is(err, ErrConnect) {
		t.Fatalf("expected ErrConnect, got %v", err)
	}
	if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
		t.Fatalf("read-only load must not create the database file")
	}
}

func TestLoadEmptyPathIsConnectError(t *testing.T) {
	if _, err := Load(context.Background(), Options{}); !errors.Is(err, ErrConnect) {
		t.Fatalf("expected ErrConnect, got %v", err)
	}
}

func TestLoadWithoutSchemaIsQueryError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.db")
	if err := os.WriteFile(path, nil, 0644); err != nil {
		t.Fatalf("write empty db: %v", err)
	}
	_, err := Load(context.Background(), Options{Path: path})
	if err == nil {
		t.Fatalf("expected query error on database without tables")
	}
	if errors.Is(err, ErrConnect) {
		t.Fatalf("query failure must not be reported as connection failure: %v", err)
	}
}

func TestLoaderPing(t *testing.T) {
	_, path := newTestRepo(t)
	if err := NewLoader(Options{Path: path}).Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
	if err := NewLoader(Options{Path: filepath.Join(t.TempDir(), "nope.db")}).Ping(context.Background()); err == nil {
		t.Fatalf("expected ping failure for missing database")
	}
}

func TestRunMigrationsIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "m.db")
	v1, err := RunMigrations(path)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	v2, err := RunMigrations(path)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if v1 != 1 || v2 != 1 {
		t.Fatalf("unexpected versions %d, %d", v1, v2)
	}
}
