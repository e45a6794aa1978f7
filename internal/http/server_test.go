package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"grants/internal/core"
	"grants/internal/dashboard"
	"grants/internal/log"
	"grants/internal/storage"
	"grants/web"
)

type fakeLoader struct {
	ds  core.Dataset
	err error
}

func (f *fakeLoader) Load(ctx context.Context) (core.Dataset, error) { return f.ds, f.err }

type pingLoader struct {
	fakeLoader
	pingErr error
}

func (p *pingLoader) Ping(ctx context.Context) error { return p.pingErr }

func sampleDataset() core.Dataset {
	return core.Dataset{
		Periods: []core.ReportingPeriod{
			{ID: 1, Label: "2022", EndDate: time.Date(2022, 12, 31, 0, 0, 0, 0, time.UTC)},
			{ID: 2, Label: "2023", EndDate: time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)},
		},
		Summary: []core.FundingSummaryRow{
			{PeriodID: 1, Category: "NCI", TotalDirectCosts: core.Some(500000)},
		},
		Education: []core.EducationAwardRow{
			{PeriodID: 99, TotalDirectCosts: core.Some(1)},
		},
	}
}

func newTestServer(t *testing.T, loader DatasetLoader) *Server {
	t.Helper()
	renderer, err := dashboard.NewRenderer(web.TemplatesFS)
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	return NewServer(":0", loader, renderer, Config{
		Title:       "Funding Dashboard",
		ChartCDNURL: "https://cdn.jsdelivr.net/npm/chart.js",
		Logger:      log.New(log.Config{Output: io.Discard}),
	})
}

func serve(srv *Server, method, target string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, httptest.NewRequest(method, target, nil))
	return rr
}

var nonceHeader = regexp.MustCompile(`'nonce-([A-Za-z0-9_-]+)'`)

func TestIndexRendersDashboard(t *testing.T) {
	srv := newTestServer(t, &fakeLoader{ds: sampleDataset()})

	rr := serve(srv, http.MethodGet, "/")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("Content-Type = %q", ct)
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Fatalf("missing X-Request-ID")
	}

	body := rr.Body.String()
	for _, want := range []string{
		"<title>Funding Dashboard</title>",
		"<h2>NCI</h2>",
		"<td>500,000</td><td></td>",
		`"data":[500000,null]`,
		`"data":[null,null]`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q", want)
		}
	}

	csp := rr.Header().Get("Content-Security-Policy")
	m := nonceHeader.FindStringSubmatch(csp)
	if m == nil {
		t.Fatalf("CSP has no nonce: %q", csp)
	}
	if !strings.Contains(csp, "https://cdn.jsdelivr.net") {
		t.Errorf("CSP must allow the chart CDN: %q", csp)
	}
	if !strings.Contains(body, fmt.Sprintf(`<script nonce="%s">`, m[1])) {
		t.Errorf("inline scripts do not carry the response nonce %q", m[1])
	}

	again := serve(srv, http.MethodGet, "/")
	if n := nonceHeader.FindStringSubmatch(again.Header().Get("Content-Security-Policy")); n == nil || n[1] == m[1] {
		t.Errorf("nonce must change per request")
	}
}

func TestRoutesAndMethods(t *testing.T) {
	srv := newTestServer(t, &fakeLoader{ds: sampleDataset()})

	tests := []struct {
		method string
		target string
		want   int
	}{
		{http.MethodGet, "/", http.StatusOK},
		{http.MethodHead, "/", http.StatusOK},
		{http.MethodPost, "/", http.StatusMethodNotAllowed},
		{http.MethodDelete, "/api/charts", http.StatusMethodNotAllowed},
		{http.MethodHead, "/api/charts", http.StatusOK},
		{http.MethodGet, "/missing", http.StatusNotFound},
		{http.MethodGet, "/healthz", http.StatusOK},
		{http.MethodGet, "/readyz", http.StatusOK},
		{http.MethodGet, "/static/dashboard.css", http.StatusOK},
		{http.MethodGet, "/?q=../etc/passwd", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.target, func(t *testing.T) {
			rr := serve(srv, tt.method, tt.target)
			if rr.Code != tt.want {
				t.Fatalf("status = %d, want %d", rr.Code, tt.want)
			}
			if tt.want == http.StatusMethodNotAllowed && !strings.Contains(rr.Header().Get("Allow"), "GET") {
				t.Fatalf("Allow = %q, want GET listed", rr.Header().Get("Allow"))
			}
		})
	}

	if got := srv.metrics.suspiciousRequests.Load(); got != 1 {
		t.Errorf("suspicious requests = %d, want 1", got)
	}
}

func TestStaticAssetsAreCached(t *testing.T) {
	srv := newTestServer(t, &fakeLoader{})
	rr := serve(srv, http.MethodGet, "/static/dashboard.css")
	if got := rr.Header().Get("Cache-Control"); got != "public, max-age=3600" {
		t.Fatalf("Cache-Control = %q", got)
	}
}

func TestLoadFailureAbortsWithDiagnostic(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"connection", fmt.Errorf("%w: open /srv/secret.db: no such file", storage.ErrConnect), "connection failed"},
		{"query", errors.New("load funding summary: no such table"), "query failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, &fakeLoader{err: tt.err})
			for _, target := range []string{"/", "/api/charts"} {
				rr := serve(srv, http.MethodGet, target)
				if rr.Code != http.StatusInternalServerError {
					t.Fatalf("%s status = %d", target, rr.Code)
				}
				if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
					t.Fatalf("%s Content-Type = %q", target, ct)
				}
				body := rr.Body.String()
				if !strings.Contains(body, tt.want) {
					t.Fatalf("%s body = %q, want %q", target, body, tt.want)
				}
				if strings.Contains(body, "<") || strings.Contains(body, "/srv/secret.db") {
					t.Fatalf("%s body leaks markup or paths: %q", target, body)
				}
				if !strings.Contains(body, rr.Header().Get("X-Request-ID")) {
					t.Fatalf("%s body must name the request id", target)
				}
			}
		})
	}
}

func TestChartsEndpoint(t *testing.T) {
	srv := newTestServer(t, &fakeLoader{ds: sampleDataset()})

	rr := serve(srv, http.MethodGet, "/api/charts")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}

	var got struct {
		Labels []string `json:"labels"`
		Charts []struct {
			ElementID string `json:"elementId"`
			Config    struct {
				Type string `json:"type"`
				Data struct {
					Datasets []struct {
						Label string     `json:"label"`
						Data  []*float64 `json:"data"`
					} `json:"datasets"`
				} `json:"data"`
			} `json:"config"`
		} `json:"charts"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if diff := cmp.Diff([]string{"2022", "2023"}, got.Labels); diff != "" {
		t.Fatalf("labels mismatch (-want +got):\n%s", diff)
	}
	if len(got.Charts) != 2 {
		t.Fatalf("charts = %d, want NCI and education", len(got.Charts))
	}
	nci := got.Charts[0]
	if nci.ElementID != "chart-nci" || nci.Config.Type != "line" {
		t.Fatalf("unexpected first chart: %+v", nci)
	}
	ds := nci.Config.Data.Datasets[0]
	if ds.Label != "NCI: Total Direct Costs" {
		t.Fatalf("dataset label = %q", ds.Label)
	}
	if len(ds.Data) != 2 || ds.Data[0] == nil || *ds.Data[0] != 500000 || ds.Data[1] != nil {
		t.Fatalf("dataset data = %v, want [500000 null]", ds.Data)
	}
	if got.Charts[1].ElementID != "chart-edu" {
		t.Fatalf("education chart id = %q", got.Charts[1].ElementID)
	}
}

func TestReadiness(t *testing.T) {
	tests := []struct {
		name   string
		loader DatasetLoader
		want   int
		store  string
	}{
		{"store reachable", &pingLoader{}, http.StatusOK, "ok"},
		{"store down", &pingLoader{pingErr: storage.ErrConnect}, http.StatusServiceUnavailable, "failed: connection failed"},
		{"loader without ping", &fakeLoader{}, http.StatusOK, "not_checked"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := serve(newTestServer(t, tt.loader), http.MethodGet, "/readyz")
			if rr.Code != tt.want {
				t.Fatalf("status = %d, want %d", rr.Code, tt.want)
			}
			var body struct {
				Checks map[string]string `json:"checks"`
			}
			if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Checks["store"] != tt.store {
				t.Fatalf("store check = %q, want %q", body.Checks["store"], tt.store)
			}
		})
	}
}

func TestIndexAgainstSQLiteStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "grants.db")
	repo, err := storage.NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	_, err = repo.SaveImport(context.Background(), core.ImportBatch{
		Periods: []core.ReportingPeriod{{Label: "FY2024", EndDate: time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)}},
		Summary: []core.PeriodSummary{{Period: "FY2024", Row: core.FundingSummaryRow{Category: "Cancer Control", TotalDirectCosts: core.Some(1234567)}}},
	})
	if err != nil {
		t.Fatalf("SaveImport: %v", err)
	}
	if err := repo.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	srv := newTestServer(t, storage.NewLoader(storage.Options{Path: path}))
	rr := serve(srv, http.MethodGet, "/")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	body := rr.Body.String()
	for _, want := range []string{"<h2>Cancer Control</h2>", "<td>1,234,567</td>", `id="chart-cancer-control"`} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q", want)
		}
	}

	if rr := serve(srv, http.MethodGet, "/readyz"); rr.Code != http.StatusOK {
		t.Fatalf("readyz status = %d", rr.Code)
	}
}
