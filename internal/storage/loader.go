package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"time"

	"grants/internal/core"

	_ "modernc.org/sqlite"
)

// ErrConnect marks failures to reach the store at all, as opposed to a
// query failing on an open connection.
var ErrConnect = errors.New("connection failed")

// Options locates the store. It is passed in on every call; the loader keeps
// no connection between requests.
type Options struct {
	Path string
}

// DSN returns a read-only sqlite URI for the database file.
func (o Options) DSN() (string, error) {
	abs, err := filepath.Abs(o.Path)
	if err != nil {
		return "", fmt.Errorf("resolve database path %q: %w", o.Path, err)
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(abs), RawQuery: "mode=ro"}
	return u.String(), nil
}

// Loader reads the dashboard dataset with a connection scoped to each call.
type Loader struct {
	opts Options
}

func NewLoader(opts Options) *Loader {
	return &Loader{opts: opts}
}

// Load opens the store, runs the three dashboard queries and closes the
// store again, whatever the outcome.
func (l *Loader) Load(ctx context.Context) (core.Dataset, error) {
	return Load(ctx, l.opts)
}

// Ping checks that the store can be opened and answers.
func (l *Loader) Ping(ctx context.Context) error {
	db, err := connect(ctx, l.opts)
	if err != nil {
		return err
	}
	return db.Close()
}

// Load is the connection-per-call form used by Loader.
func Load(ctx context.Context, opts Options) (core.Dataset, error) {
	db, err := connect(ctx, opts)
	if err != nil {
		return core.Dataset{}, err
	}
	defer db.Close()

	return loadDataset(ctx, db)
}

func connect(ctx context.Context, opts Options) (*sql.DB, error) {
	if opts.Path == "" {
		return nil, fmt.Errorf("%w: database path is empty", ErrConnect)
	}
	dsn, err := opts.DSN()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnect, err)
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrConnect, opts.Path, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: ping %s: %v", ErrConnect, opts.Path, err)
	}
	return db, nil
}

const (
	queryPeriods = `SELECT id, period_label, period_end_date
FROM reporting_periods
ORDER BY period_end_date`

	querySummary = `SELECT period_id, category,
	total_direct_costs, peer_reviewed_direct_costs, nci_direct_costs, percent_nci_of_peer_reviewed,
	r01_investigators, r01_awards,
	complex_grants, percent_complex_grants,
	multi_institutional_grants, percent_multi_institutional
FROM funding_summary
ORDER BY period_id, category`

	queryEducation = `SELECT period_id,
	total_direct_costs, peer_reviewed_direct_costs,
	k_awards, f_awards,
	supported_on_t32, supported_on_cobre
FROM education_awards
ORDER BY period_id`
)

func loadDataset(ctx context.Context, db *sql.DB) (core.Dataset, error) {
	var ds core.Dataset
	var err error

	if ds.Periods, err = queryReportingPeriods(ctx, db); err != nil {
		return core.Dataset{}, fmt.Errorf("load reporting periods: %w", err)
	}
	if ds.Summary, err = queryFundingSummary(ctx, db); err != nil {
		return core.Dataset{}, fmt.Errorf("load funding summary: %w", err)
	}
	if ds.Education, err = queryEducationAwards(ctx, db); err != nil {
		return core.Dataset{}, fmt.Errorf("load education awards: %w", err)
	}
	return ds, nil
}

func queryReportingPeriods(ctx context.Context, db *sql.DB) ([]core.ReportingPeriod, error) {
	rows, err := db.QueryContext(ctx, queryPeriods)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var periods []core.ReportingPeriod
	for rows.Next() {
		var p core.ReportingPeriod
		var endDate string
		if err := rows.Scan(&p.ID, &p.Label, &endDate); err != nil {
			return nil, err
		}
		p.EndDate = parseEndDate(endDate)
		periods = append(periods, p)
	}
	return periods, rows.Err()
}

func queryFundingSummary(ctx context.Context, db *sql.DB) ([]core.FundingSummaryRow, error) {
	rows, err := db.QueryContext(ctx, querySummary)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.FundingSummaryRow
	for rows.Next() {
		var r core.FundingSummaryRow
		var m [10]sql.NullFloat64
		if err := rows.Scan(&r.PeriodID, &r.Category,
			&m[0], &m[1], &m[2], &m[3], &m[4], &m[5], &m[6], &m[7], &m[8], &m[9]); err != nil {
			return nil, err
		}
		r.TotalDirectCosts = value(m[0])
		r.PeerReviewedDirectCosts = value(m[1])
		r.NCIDirectCosts = value(m[2])
		r.PercentNCIOfPeerReviewed = value(m[3])
		r.R01Investigators = value(m[4])
		r.R01Awards = value(m[5])
		r.ComplexGrants = value(m[6])
		r.PercentComplexGrants = value(m[7])
		r.MultiInstitutionalGrants = value(m[8])
		r.PercentMultiInstitutional = value(m[9])
		out = append(out, r)
	}
	return out, rows.Err()
}

func queryEducationAwards(ctx context.Context, db *sql.DB) ([]core.EducationAwardRow, error) {
	rows, err := db.QueryContext(ctx, queryEducation)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.EducationAwardRow
	for rows.Next() {
		var r core.EducationAwardRow
		var m [6]sql.NullFloat64
		if err := rows.Scan(&r.PeriodID, &m[0], &m[1], &m[2], &m[3], &m[4], &m[5]); err != nil {
			return nil, err
		}
		r.TotalDirectCosts = value(m[0])
		r.PeerReviewedDirectCosts = value(m[1])
		r.KAwards = value(m[2])
		r.FAwards = value(m[3])
		r.SupportedOnT32 = value(m[4])
		r.SupportedOnCOBRE = value(m[5])
		out = append(out, r)
	}
	return out, rows.Err()
}

func value(n sql.NullFloat64) core.Value {
	return core.Value{Float64: n.Float64, Valid: n.Valid}
}

func nullable(v core.Value) sql.NullFloat64 {
	if !v.Present() {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v.Float64, Valid: true}
}

// parseEndDate accepts the stored ISO date, with or without a time part.
// Ordering happens in SQL, so an unreadable date only leaves EndDate zero.
func parseEndDate(s string) time.Time {
	if len(s) >= 10 {
		if t, err := time.Parse("2006-01-02", s[:10]); err == nil {
			return t
		}
	}
	return time.Time{}
}
