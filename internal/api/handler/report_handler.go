package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/salesdesk/backoffice/internal/api/metrics"
	"github.com/salesdesk/backoffice/internal/core/domain"
	"github.com/salesdesk/backoffice/internal/core/ports"
)

const mimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ReportHandler serves the admin reporting endpoints: audit history,
// monthly statistics and the spreadsheet export.
type ReportHandler struct {
	history ports.HistoryService
	stats   ports.StatsService
	export  ports.ExportService
}

func NewReportHandler(history ports.HistoryService, stats ports.StatsService, export ports.ExportService) *ReportHandler {
	return &ReportHandler{history: history, stats: stats, export: export}
}

// History godoc
//
// @Summary      Client change history
// @Tags         reports
// @Produce      json
// @Security     BearerAuth
// @Param        clientId  query     int  false  "Restrict to one client"
// @Success      200       {array}   historyResponse
// @Failure      400       {object}  map[string]string
// @Failure      403       {object}  map[string]string
// @Router       /history [get]
func (h *ReportHandler) History(c echo.Context) error {
	identity, err := actor(c)
	if err != nil {
		return err
	}
	clientID, err := queryID(c, "clientId")
	if err != nil {
		return err
	}

	entries, err := h.history.List(c.Request().Context(), identity, ports.HistoryFilter{ClientID: clientID})
	if err != nil {
		return err
	}
	out := make([]historyResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, toHistoryResponse(e))
	}
	return c.JSON(http.StatusOK, out)
}

// Statistics godoc
//
// @Summary      Clients created per salesperson in a month
// @Tags         reports
// @Produce      json
// @Security     BearerAuth
// @Param        month  query     int  true  "Month (1-12)"
// @Param        year   query     int  true  "Year"
// @Success      200    {array}   statResponse
// @Failure      400    {object}  map[string]string
// @Failure      403    {object}  map[string]string
// @Router       /estatisticas [get]
func (h *ReportHandler) Statistics(c echo.Context) error {
	identity, err := actor(c)
	if err != nil {
		return err
	}
	if strings.TrimSpace(c.QueryParam("month")) == "" || strings.TrimSpace(c.QueryParam("year")) == "" {
		return domain.Invalid("", "month and year are required")
	}
	month, err := queryInt(c, "month")
	if err != nil {
		return err
	}
	year, err := queryInt(c, "year")
	if err != nil {
		return err
	}

	stats, err := h.stats.Monthly(c.Request().Context(), identity, year, month)
	if err != nil {
		return err
	}
	out := make([]statResponse, 0, len(stats))
	for _, s := range stats {
		out = append(out, statResponse{UserID: s.UserID, UserEmail: s.UserEmail, ClientCount: s.ClientCount})
	}
	return c.JSON(http.StatusOK, out)
}

// Export godoc
//
// @Summary      Export clients as a spreadsheet
// @Description  Creation-date range, exact status, owner and exact bank. At most 5000 rows.
// @Tags         reports
// @Accept       json
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security     BearerAuth
// @Param        body  body      exportRequest  false  "Export filters"
// @Success      200   {file}    file
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Router       /export [post]
func (h *ReportHandler) Export(c echo.Context) error {
	identity, err := actor(c)
	if err != nil {
		return err
	}
	var req exportRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	filter, err := req.Filters.filter()
	if err != nil {
		return err
	}

	// Buffered so a failed export still gets a JSON error response.
	var buf bytes.Buffer
	res, err := h.export.Export(c.Request().Context(), identity, filter, &buf)
	if err != nil {
		return err
	}
	metrics.ExportedRows.Observe(float64(res.Rows))

	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", res.Filename))
	return c.Blob(http.StatusOK, mimeXLSX, buf.Bytes())
}

func (f exportFilters) filter() (ports.ExportFilter, error) {
	from, err := bodyDate("startDate", f.StartDate)
	if err != nil {
		return ports.ExportFilter{}, err
	}
	to, err := bodyDate("endDate", f.EndDate)
	if err != nil {
		return ports.ExportFilter{}, err
	}
	owner, err := ownerParam(f.UserID)
	if err != nil {
		return ports.ExportFilter{}, err
	}
	return ports.ExportFilter{
		CreatedFrom: from,
		CreatedTo:   to,
		Status:      f.Status,
		OwnerID:     owner,
		Bank:        f.Bank,
		Limit:       f.Limit,
	}, nil
}

func bodyDate(field, raw string) (t time.Time, err error) {
	if strings.TrimSpace(raw) == "" {
		return t, nil
	}
	if t, err = domain.ParseCalendarDate(raw); err != nil {
		return t, domain.Invalid(field, "must be a date (YYYY-MM-DD)")
	}
	return t, nil
}
