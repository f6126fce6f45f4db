package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"finanze/internal/amqp"
	"finanze/internal/core"
	"finanze/internal/log"
	"finanze/internal/report"
	"finanze/internal/storage"
)

// referenceNow fixes the dashboard clock so month windows are deterministic.
var referenceNow = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

type capturingPublisher struct {
	published []*amqp.ExportJobMessage
	err       error
}

func (p *capturingPublisher) PublishExportJob(ctx context.Context, msg *amqp.ExportJobMessage) error {
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, msg)
	return nil
}

func newTestServer(t *testing.T, publisher JobPublisher) *Server {
	t.Helper()

	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository() error = %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	logger := log.New(log.Config{
		Component: log.ComponentHTTP,
		Handler:   slog.NewTextHandler(io.Discard, nil),
	})

	s := NewServer(":0", repo, publisher, logger, Options{
		Now: func() time.Time { return referenceNow },
	})
	t.Cleanup(func() { _ = s.Shutdown(context.Background()) })
	return s
}

func doJSON(t *testing.T, s *Server, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

func createTransaction(t *testing.T, s *Server, date string, amount string, catID, desc string) core.Transaction {
	t.Helper()
	body := map[string]any{
		"date":        date,
		"amount":      json.RawMessage(amount),
		"description": desc,
	}
	if catID != "" {
		body["category"] = catID
	}
	rec := doJSON(t, s, http.MethodPost, "/api/transactions", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create transaction status = %d, body %s", rec.Code, rec.Body.String())
	}
	return decodeBody[core.Transaction](t, rec)
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(t, nil)

	rec := doJSON(t, s, http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("/healthz status = %d, want 200", rec.Code)
	}

	rec = doJSON(t, s, http.MethodGet, "/readyz", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("/readyz status = %d, want 200", rec.Code)
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("security headers not applied")
	}
}

func TestTransactionLifecycle(t *testing.T) {
	s := newTestServer(t, nil)

	created := createTransaction(t, s, "2024-03-10", "-25.50", "cibo", "Pizza")
	if created.ID == "" {
		t.Fatal("created transaction has no id")
	}
	if created.Amount.Cents != -2550 {
		t.Errorf("Amount.Cents = %d, want -2550", created.Amount.Cents)
	}
	if created.Category.RawID() != "cibo" {
		t.Errorf("Category.RawID() = %q, want cibo", created.Category.RawID())
	}

	rec := doJSON(t, s, http.MethodGet, "/api/transactions/"+created.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get transaction status = %d", rec.Code)
	}

	rec = doJSON(t, s, http.MethodPut, "/api/transactions/"+created.ID, map[string]any{
		"date":        "2024-03-11",
		"amount":      json.RawMessage("-30"),
		"description": "Pizza e bibite",
		"category":    "cibo",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("update transaction status = %d, body %s", rec.Code, rec.Body.String())
	}
	updated := decodeBody[core.Transaction](t, rec)
	if updated.Amount.Cents != -3000 {
		t.Errorf("updated Amount.Cents = %d, want -3000", updated.Amount.Cents)
	}

	rec = doJSON(t, s, http.MethodDelete, "/api/transactions/"+created.ID, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete transaction status = %d", rec.Code)
	}

	rec = doJSON(t, s, http.MethodGet, "/api/transactions/"+created.ID, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("get deleted transaction status = %d, want 404", rec.Code)
	}
}

func TestDashboardSummaryReflectsWrites(t *testing.T) {
	s := newTestServer(t, nil)

	createTransaction(t, s, "2024-03-01", "2000", "stipendio", "Stipendio")
	createTransaction(t, s, "2024-03-10", "-500", "affitto", "Affitto")

	rec := doJSON(t, s, http.MethodGet, "/api/dashboard/summary", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("summary status = %d", rec.Code)
	}
	summary := decodeBody[DashboardSummary](t, rec)
	if summary.Balance.Cents != 150000 {
		t.Errorf("Balance.Cents = %d, want 150000", summary.Balance.Cents)
	}
	if summary.Income30Days.Cents != 200000 {
		t.Errorf("Income30Days.Cents = %d, want 200000", summary.Income30Days.Cents)
	}
	if summary.Expense30Days.Cents != 50000 {
		t.Errorf("Expense30Days.Cents = %d, want 50000", summary.Expense30Days.Cents)
	}

	// A write purges the aggregate cache; a second read must see the new
	// transaction.
	createTransaction(t, s, "2024-03-12", "-100", "cibo", "Spesa")
	rec = doJSON(t, s, http.MethodGet, "/api/dashboard/summary", nil)
	summary = decodeBody[DashboardSummary](t, rec)
	if summary.Expense30Days.Cents != 60000 {
		t.Errorf("Expense30Days.Cents after write = %d, want 60000", summary.Expense30Days.Cents)
	}
}

func TestDashboardMonthly(t *testing.T) {
	s := newTestServer(t, nil)

	createTransaction(t, s, "2024-03-01", "1000", "stipendio", "Stipendio")
	createTransaction(t, s, "2024-02-10", "-50", "cibo", "Spesa")
	// Outside the trailing 12 months from March 2024.
	createTransaction(t, s, "2022-01-01", "-999", "cibo", "Vecchia")

	rec := doJSON(t, s, http.MethodGet, "/api/dashboard/monthly", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("monthly status = %d", rec.Code)
	}
	buckets := decodeBody[[]report.MonthlyBucket](t, rec)
	if len(buckets) != 12 {
		t.Fatalf("got %d buckets, want 12", len(buckets))
	}
	if buckets[0].Label != "04/23" {
		t.Errorf("first bucket label = %q, want 04/23", buckets[0].Label)
	}
	last := buckets[len(buckets)-1]
	if last.Label != "03/24" {
		t.Errorf("last bucket label = %q, want 03/24", last.Label)
	}
	if last.Income.Cents != 100000 {
		t.Errorf("March income = %d cents, want 100000", last.Income.Cents)
	}

	feb := buckets[len(buckets)-2]
	if feb.Expense.Cents != 5000 {
		t.Errorf("February expense = %d cents, want 5000", feb.Expense.Cents)
	}
}

func TestDashboardBreakdown(t *testing.T) {
	s := newTestServer(t, nil)

	createTransaction(t, s, "2024-03-05", "-30", "cibo", "Spesa")
	createTransaction(t, s, "2024-03-06", "-30", "affitto", "Affitto")
	createTransaction(t, s, "2024-03-07", "500", "stipendio", "Entrata")

	rec := doJSON(t, s, http.MethodGet, "/api/dashboard/breakdown?from=2024-03-01&to=2024-03-31", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("breakdown status = %d", rec.Code)
	}
	breakdown := decodeBody[report.Breakdown](t, rec)
	if breakdown.Total.Cents != 6000 {
		t.Errorf("Total.Cents = %d, want 6000", breakdown.Total.Cents)
	}
	if len(breakdown.Shares) != 2 {
		t.Fatalf("got %d shares, want 2", len(breakdown.Shares))
	}
	for _, share := range breakdown.Shares {
		if share.Percentage != 50.0 {
			t.Errorf("share %s percentage = %v, want 50.0", share.Name, share.Percentage)
		}
	}
}

func TestBudgetStatusEndpoint(t *testing.T) {
	s := newTestServer(t, nil)

	rec := doJSON(t, s, http.MethodPost, "/api/budgets", map[string]any{
		"category": "cibo",
		"limit":    json.RawMessage("100"),
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create budget status = %d, body %s", rec.Code, rec.Body.String())
	}

	createTransaction(t, s, "2024-03-10", "-85", "cibo", "Spesa grossa")

	rec = doJSON(t, s, http.MethodGet, "/api/budgets/status", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("budget status = %d", rec.Code)
	}
	statuses := decodeBody[[]report.BudgetStatus](t, rec)
	if len(statuses) != 1 {
		t.Fatalf("got %d statuses, want 1", len(statuses))
	}
	if statuses[0].Tier != report.TierNear {
		t.Errorf("Tier = %q, want %q", statuses[0].Tier, report.TierNear)
	}
	if statuses[0].CategoryName != "Cibo" {
		t.Errorf("CategoryName = %q, want Cibo", statuses[0].CategoryName)
	}
}

func TestBudgetValidation(t *testing.T) {
	s := newTestServer(t, nil)

	rec := doJSON(t, s, http.MethodPost, "/api/budgets", map[string]any{
		"category": "cibo",
		"limit":    json.RawMessage("0"),
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("zero-limit budget status = %d, want 422", rec.Code)
	}
}

func TestCategoryDeleteConflict(t *testing.T) {
	s := newTestServer(t, nil)

	createTransaction(t, s, "2024-03-10", "-10", "cibo", "Spesa")

	rec := doJSON(t, s, http.MethodDelete, "/api/categories/cibo", nil)
	if rec.Code != http.StatusConflict {
		t.Errorf("delete referenced category status = %d, want 409", rec.Code)
	}

	rec = doJSON(t, s, http.MethodDelete, "/api/categories/nonexistent", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("delete missing category status = %d, want 404", rec.Code)
	}
}

func TestReportsEndpoint(t *testing.T) {
	s := newTestServer(t, nil)

	createTransaction(t, s, "2024-03-10", "-25", "cibo", "Pizza")
	createTransaction(t, s, "2024-03-01", "1000", "stipendio", "Stipendio")
	createTransaction(t, s, "2024-04-01", "-99", "cibo", "Fuori finestra")

	rec := doJSON(t, s, http.MethodGet, "/api/reports?from=2024-03-01&to=2024-03-31", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("reports status = %d", rec.Code)
	}
	resp := decodeBody[ReportResponse](t, rec)
	if len(resp.Rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(resp.Rows))
	}
	// Newest first.
	if resp.Rows[0].Description != "Pizza" {
		t.Errorf("first row = %q, want Pizza", resp.Rows[0].Description)
	}
	if resp.Rows[0].Amount != "-€ 25.00" {
		t.Errorf("first row amount = %q, want -€ 25.00", resp.Rows[0].Amount)
	}
	if resp.Summary.Net.Cents != 97500 {
		t.Errorf("Summary.Net.Cents = %d, want 97500", resp.Summary.Net.Cents)
	}

	// Category filter keeps only matching rows.
	rec = doJSON(t, s, http.MethodGet, "/api/reports?categories=stipendio", nil)
	resp = decodeBody[ReportResponse](t, rec)
	if len(resp.Rows) != 1 || resp.Rows[0].Description != "Stipendio" {
		t.Errorf("filtered rows = %+v, want only Stipendio", resp.Rows)
	}
}

func TestExportDownloadCSV(t *testing.T) {
	s := newTestServer(t, nil)

	createTransaction(t, s, "2024-03-10", "-25", "cibo", "Pizza")

	rec := doJSON(t, s, http.MethodGet, "/api/reports/export?format=csv&from=2024-03-01&to=2024-03-31", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("export status = %d, body %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Content-Disposition"); got != `attachment; filename="resoconto_01-03_31-03-24_csv.csv"` {
		t.Errorf("Content-Disposition = %q", got)
	}
	if !strings.HasPrefix(rec.Body.String(), report.CSVHeader) {
		t.Errorf("body does not start with CSV header: %q", rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "Pizza") {
		t.Errorf("body missing the exported row: %q", rec.Body.String())
	}
}

func TestExportDownloadBadFormat(t *testing.T) {
	s := newTestServer(t, nil)

	rec := doJSON(t, s, http.MethodGet, "/api/reports/export?format=xlsx", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad format status = %d, want 400", rec.Code)
	}
}

func TestExportEnqueue(t *testing.T) {
	pub := &capturingPublisher{}
	s := newTestServer(t, pub)

	rec := doJSON(t, s, http.MethodPost, "/api/reports/export", exportRequest{
		Format:      "pdf",
		From:        "2024-03-01",
		To:          "2024-03-31",
		CategoryIDs: []string{"cibo"},
	})
	if rec.Code != http.StatusAccepted {
		t.Fatalf("enqueue status = %d, body %s", rec.Code, rec.Body.String())
	}
	accepted := decodeBody[exportAccepted](t, rec)
	if accepted.JobID == "" {
		t.Error("no job id returned")
	}
	if accepted.FileName != "resoconto_01-03_31-03-24.pdf" {
		t.Errorf("FileName = %q, want resoconto_01-03_31-03-24.pdf", accepted.FileName)
	}

	if len(pub.published) != 1 {
		t.Fatalf("published %d messages, want 1", len(pub.published))
	}
	if pub.published[0].Format != "pdf" {
		t.Errorf("published format = %q, want pdf", pub.published[0].Format)
	}
}

func TestExportEnqueueWithoutPublisher(t *testing.T) {
	s := newTestServer(t, nil)

	rec := doJSON(t, s, http.MethodPost, "/api/reports/export", exportRequest{Format: "csv"})
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("enqueue without publisher status = %d, want 503", rec.Code)
	}
}

func TestExportEnqueueBadFormat(t *testing.T) {
	pub := &capturingPublisher{}
	s := newTestServer(t, pub)

	rec := doJSON(t, s, http.MethodPost, "/api/reports/export", exportRequest{Format: "doc"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad format status = %d, want 400", rec.Code)
	}
	if len(pub.published) != 0 {
		t.Errorf("published %d messages, want 0", len(pub.published))
	}
}
