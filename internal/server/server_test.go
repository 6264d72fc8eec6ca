package server

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/channelwatch/channelwatch/internal/database"
)

func newTestServer(t *testing.T) (*Server, *database.DB) {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	srv, err := New(db)
	if err != nil {
		t.Fatalf("creating server: %v", err)
	}
	return srv, db
}

func get(t *testing.T, srv *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func postForm(t *testing.T, srv *Server, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestIndexEmpty(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := get(t, srv, "/")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "No reports yet") {
		t.Error("expected empty-state message")
	}
}

func TestIndexListsReports(t *testing.T) {
	srv, db := newTestServer(t)
	if _, err := db.InsertReport(database.Report{
		PeriodID:      "2026-08-29",
		Summary:       "Prices are up.",
		BodyMarkdown:  "# Report",
		ItemCount:     40,
		SelectedCount: 12,
	}); err != nil {
		t.Fatalf("InsertReport: %v", err)
	}

	rec := get(t, srv, "/")
	body := rec.Body.String()
	if !strings.Contains(body, "Aug 29, 2026") {
		t.Error("expected formatted period in listing")
	}
	if !strings.Contains(body, `/report/2026-08-29`) {
		t.Error("expected link to report page")
	}
	if !strings.Contains(body, "Prices are up.") {
		t.Error("expected summary in listing")
	}
}

func TestIndexUnknownPath(t *testing.T) {
	srv, _ := newTestServer(t)
	if rec := get(t, srv, "/nope"); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestReportPage(t *testing.T) {
	srv, db := newTestServer(t)
	period := "2026-08-29"
	if _, err := db.InsertReport(database.Report{
		PeriodID:     period,
		Summary:      "Prices are up.",
		BodyMarkdown: "# Pricing Intelligence Report\n\n**Prices are up.**",
	}); err != nil {
		t.Fatalf("InsertReport: %v", err)
	}
	if err := db.ReplaceInsights(period, []database.InsightRow{
		{Text: "Broadcom renewals doubled [forum_1]", SourceIDs: []string{"forum_1"}, ConfidenceScore: 0.9, ConfidenceLevel: "high"},
	}); err != nil {
		t.Fatalf("ReplaceInsights: %v", err)
	}
	if err := db.ReplaceSourceRecords(period, []database.SourceRecord{
		{SourceID: "forum_1", Title: "Renewal shock", URL: "https://example.com/a", Source: "forum", Relevance: 6.5},
	}); err != nil {
		t.Fatalf("ReplaceSourceRecords: %v", err)
	}

	rec := get(t, srv, "/report/"+period)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	// Markdown body renders as HTML.
	if !strings.Contains(body, "<strong>Prices are up.</strong>") {
		t.Error("expected rendered markdown")
	}
	if !strings.Contains(body, "Insight Details") || !strings.Contains(body, "high (90%)") {
		t.Error("expected insight table with confidence badge")
	}
	if !strings.Contains(body, "Renewal shock") {
		t.Error("expected source record row")
	}
}

func TestReportPageMissingPeriod(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := get(t, srv, "/report/2020-01-01")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "No report for") {
		t.Error("expected missing-report message")
	}
}

func TestReportPageEmptyPeriodRedirects(t *testing.T) {
	srv, _ := newTestServer(t)
	if rec := get(t, srv, "/report/"); rec.Code != http.StatusFound {
		t.Errorf("expected redirect, got %d", rec.Code)
	}
}

func TestVendorsAddAndList(t *testing.T) {
	srv, db := newTestServer(t)

	rec := postForm(t, srv, "/vendors/add", url.Values{"name": {"VMware"}, "tier": {"1"}})
	if rec.Code != http.StatusFound {
		t.Fatalf("expected redirect after add, got %d", rec.Code)
	}

	v, err := db.GetVendorByName("VMware")
	if err != nil {
		t.Fatalf("GetVendorByName: %v", err)
	}
	if v == nil || v.Tier != 1 {
		t.Fatalf("expected VMware at tier 1, got %+v", v)
	}

	page := get(t, srv, "/vendors")
	if page.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", page.Code)
	}
	if !strings.Contains(page.Body.String(), "VMware") {
		t.Error("expected vendor in listing")
	}
}

func TestVendorsAddInvalidTierDefaults(t *testing.T) {
	srv, db := newTestServer(t)

	postForm(t, srv, "/vendors/add", url.Values{"name": {"Proxmox"}, "tier": {"9"}})
	v, err := db.GetVendorByName("Proxmox")
	if err != nil {
		t.Fatalf("GetVendorByName: %v", err)
	}
	if v == nil || v.Tier != 3 {
		t.Errorf("expected out-of-range tier clamped to 3, got %+v", v)
	}
}

func TestVendorToggleAndDelete(t *testing.T) {
	srv, db := newTestServer(t)
	id, err := db.InsertVendor("Citrix", 2, nil)
	if err != nil {
		t.Fatalf("InsertVendor: %v", err)
	}

	postForm(t, srv, "/vendors/"+itoa(id)+"/toggle", nil)
	v, _ := db.GetVendorByName("Citrix")
	if v.IsActive {
		t.Error("expected vendor deactivated after toggle")
	}

	postForm(t, srv, "/vendors/"+itoa(id)+"/tier", url.Values{"tier": {"1"}})
	v, _ = db.GetVendorByName("Citrix")
	if v.Tier != 1 {
		t.Errorf("expected tier 1 after update, got %d", v.Tier)
	}

	postForm(t, srv, "/vendors/"+itoa(id)+"/delete", nil)
	v, _ = db.GetVendorByName("Citrix")
	if v != nil {
		t.Error("expected vendor removed")
	}
}

func TestVendorActionRequiresPost(t *testing.T) {
	srv, db := newTestServer(t)
	id, err := db.InsertVendor("Citrix", 2, nil)
	if err != nil {
		t.Fatalf("InsertVendor: %v", err)
	}

	get(t, srv, "/vendors/"+itoa(id)+"/delete")
	v, _ := db.GetVendorByName("Citrix")
	if v == nil {
		t.Error("GET must not delete a vendor")
	}
}

func TestStaticServed(t *testing.T) {
	srv, _ := newTestServer(t)
	if rec := get(t, srv, "/static/style.css"); rec.Code != http.StatusOK {
		t.Errorf("expected stylesheet, got %d", rec.Code)
	}
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
