package google

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

func newTestService(t *testing.T, handler http.HandlerFunc) *gsheet.Service {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	svc, err := gsheet.NewService(context.Background(),
		goption.WithEndpoint(srv.URL),
		goption.WithoutAuthentication(),
		goption.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestReadGrid(t *testing.T) {
	var gotPath, gotRender string
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotRender = r.URL.Query().Get("valueRenderOption")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"range": "'Grant Funding'!A1:C3",
			"values": [
				["", "6/30/2022", "12/31/2022"],
				["Total Annual Direct Costs - Center", 1234567, 0.45],
				["PSCO"]
			]
		}`))
	})

	c, err := New(svc, "sheet-123", "Grant Funding")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	grid, err := c.ReadGrid(context.Background())
	if err != nil {
		t.Fatalf("ReadGrid: %v", err)
	}

	want := [][]string{
		{"", "6/30/2022", "12/31/2022"},
		{"Total Annual Direct Costs - Center", "1234567", "0.45"},
		{"PSCO"},
	}
	if diff := cmp.Diff(want, grid); diff != "" {
		t.Fatalf("grid mismatch (-want +got):\n%s", diff)
	}
	if !strings.Contains(gotPath, "/spreadsheets/sheet-123/values/") {
		t.Errorf("unexpected request path %q", gotPath)
	}
	if gotRender != "UNFORMATTED_VALUE" {
		t.Errorf("valueRenderOption = %q", gotRender)
	}
}

func TestReadGridAPIError(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":403,"message":"denied"}}`, http.StatusForbidden)
	})
	c, err := New(svc, "sheet-123", "Grid")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := c.ReadGrid(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
}

func TestNewValidatesArguments(t *testing.T) {
	svc := &gsheet.Service{}
	tests := []struct {
		name, id, sheet string
		svc             *gsheet.Service
	}{
		{"missing id", " ", "Grid", svc},
		{"missing sheet", "id", "", svc},
		{"missing service", "id", "Grid", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.svc, tt.id, tt.sheet); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestNewFromEnvRequiresCredentials(t *testing.T) {
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_JSON", "")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_FILE", "")
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	if _, err := NewFromEnv(context.Background(), "id", "Grid"); err == nil || !strings.Contains(err.Error(), "missing service account credentials") {
		t.Fatalf("err = %v, want missing credentials", err)
	}
}

func TestQuoteSheetName(t *testing.T) {
	if got := quoteSheetName("Bob's Grid"); got != "'Bob''s Grid'" {
		t.Fatalf("quoteSheetName = %q", got)
	}
}
