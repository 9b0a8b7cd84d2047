package handler_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/salesdesk/backoffice/internal/api/handler"
	"github.com/salesdesk/backoffice/internal/core/domain"
	"github.com/salesdesk/backoffice/internal/core/ports"
)

type stubHistoryService struct {
	got ports.HistoryFilter
	out []*domain.HistoryEntry
}

func (s *stubHistoryService) List(ctx context.Context, actor domain.Identity, f ports.HistoryFilter) ([]*domain.HistoryEntry, error) {
	s.got = f
	return s.out, nil
}

type stubStatsService struct {
	year, month int
}

func (s *stubStatsService) Monthly(ctx context.Context, actor domain.Identity, year, month int) ([]ports.SalespersonStat, error) {
	s.year, s.month = year, month
	if month < 1 || month > 12 {
		return nil, domain.Invalid("month", "must be between 1 and 12")
	}
	return []ports.SalespersonStat{{UserID: 2, UserEmail: "seller@example.com", ClientCount: 3}}, nil
}

type stubExportService struct {
	got ports.ExportFilter
	err error
}

func (s *stubExportService) Export(ctx context.Context, actor domain.Identity, f ports.ExportFilter, w io.Writer) (*ports.ExportResult, error) {
	s.got = f
	if s.err != nil {
		return nil, s.err
	}
	if _, err := io.WriteString(w, "PK-workbook"); err != nil {
		return nil, err
	}
	return &ports.ExportResult{Filename: "clientes_export_1717286400000.xlsx", Rows: 1}, nil
}

func reportRoutes(h *handler.ReportHandler) *echo.Echo {
	e := newTestEcho()
	g := e.Group("/api", asIdentity(adminID))
	g.GET("/history", h.History)
	g.GET("/estatisticas", h.Statistics)
	g.POST("/export", h.Export)
	return e
}

func TestReportHandler_History(t *testing.T) {
	hist := &stubHistoryService{out: []*domain.HistoryEntry{{
		ID: 1, ClientID: 5, Field: domain.FieldStatus, OldValue: strptr("A"), NewValue: strptr("B"),
		UserID: 2, UserEmail: "seller@example.com", Client: &domain.ClientRef{ID: 5, Name: "Maria", TaxID: "123"},
		CreatedAt: time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC),
	}}}
	e := reportRoutes(handler.NewReportHandler(hist, &stubStatsService{}, &stubExportService{}))

	rec := serve(e, http.MethodGet, "/api/history?clientId=5", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if hist.got.ClientID != 5 {
		t.Fatalf("clientId not forwarded: %+v", hist.got)
	}
	var body []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(body) != 1 || body[0]["field"] != "status" || body[0]["oldValue"] != "A" || body[0]["newValue"] != "B" {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
	if user := body[0]["user"].(map[string]any); user["email"] != "seller@example.com" {
		t.Fatalf("unexpected user: %+v", user)
	}
	if client := body[0]["client"].(map[string]any); client["nome"] != "Maria" || client["cpf"] != "123" {
		t.Fatalf("unexpected client: %+v", client)
	}
}

func TestReportHandler_Statistics(t *testing.T) {
	stats := &stubStatsService{}
	e := reportRoutes(handler.NewReportHandler(&stubHistoryService{}, stats, &stubExportService{}))

	rec := serve(e, http.MethodGet, "/api/estatisticas?month=6&year=2024", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if stats.year != 2024 || stats.month != 6 {
		t.Fatalf("unexpected args: %d-%d", stats.year, stats.month)
	}
	if !strings.Contains(rec.Body.String(), `"clientCount":3`) {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}

	for _, target := range []string{
		"/api/estatisticas?year=2024",
		"/api/estatisticas?month=6",
		"/api/estatisticas?month=june&year=2024",
		"/api/estatisticas?month=13&year=2024",
	} {
		rec := serve(e, http.MethodGet, target, "")
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", target, rec.Code)
		}
	}
}

func TestReportHandler_Export(t *testing.T) {
	exp := &stubExportService{}
	e := reportRoutes(handler.NewReportHandler(&stubHistoryService{}, &stubStatsService{}, exp))

	body := `{"filters":{"startDate":"2024-01-01","endDate":"2024-06-30","status":"ativo","userId":"2","banco":"Itaú","limit":100}}`
	rec := serve(e, http.MethodPost, "/api/export", body)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get(echo.HeaderContentDisposition); got != `attachment; filename="clientes_export_1717286400000.xlsx"` {
		t.Fatalf("unexpected disposition %q", got)
	}
	if !strings.HasPrefix(rec.Header().Get(echo.HeaderContentType), "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet") {
		t.Fatalf("unexpected content type %q", rec.Header().Get(echo.HeaderContentType))
	}
	if rec.Body.String() != "PK-workbook" {
		t.Fatalf("unexpected body %q", rec.Body.String())
	}

	f := exp.got
	if f.OwnerID != 2 || f.Status != "ativo" || f.Bank != "Itaú" || f.Limit != 100 {
		t.Fatalf("unexpected filter: %+v", f)
	}
	if domain.CalendarDay(f.CreatedFrom) != "2024-01-01" || domain.CalendarDay(f.CreatedTo) != "2024-06-30" {
		t.Fatalf("unexpected range: %v - %v", f.CreatedFrom, f.CreatedTo)
	}
}

func TestReportHandler_Export_Errors(t *testing.T) {
	exp := &stubExportService{err: domain.ErrForbidden}
	e := reportRoutes(handler.NewReportHandler(&stubHistoryService{}, &stubStatsService{}, exp))

	rec := serve(e, http.MethodPost, "/api/export", `{"filters":{"userId":"all"}}`)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	if rec.Header().Get(echo.HeaderContentDisposition) != "" {
		t.Fatalf("no attachment expected on failure")
	}
	if exp.got.OwnerID != 0 {
		t.Fatalf("userId=all must not filter by owner")
	}

	rec = serve(e, http.MethodPost, "/api/export", `{"filters":{"startDate":"soon"}}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
