package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/salesdesk/backoffice/internal/api/metrics"
	"github.com/salesdesk/backoffice/internal/core/domain"
	"github.com/salesdesk/backoffice/internal/core/ports"
	"github.com/salesdesk/backoffice/internal/core/query"
)

type ClientHandler struct {
	clients ports.ClientService
	limits  PageLimits
}

func NewClientHandler(clients ports.ClientService, limits PageLimits) *ClientHandler {
	return &ClientHandler{clients: clients, limits: limits}
}

// List returns one page of clients visible to the caller.
//
// @Summary      List clients
// @Description  Salespeople only see their own clients; userId is honoured for admins only.
// @Tags         clients
// @Produce      json
// @Security     BearerAuth
// @Param        page              query     int     false  "Page number (default 1)"
// @Param        limit             query     int     false  "Page size (default 10, max 100)"
// @Param        startDate         query     string  false  "Birth date from (YYYY-MM-DD)"
// @Param        endDate           query     string  false  "Birth date through (YYYY-MM-DD)"
// @Param        createdStartDate  query     string  false  "Created from (YYYY-MM-DD)"
// @Param        createdEndDate    query     string  false  "Created through (YYYY-MM-DD)"
// @Param        cpf               query     string  false  "CPF contains"
// @Param        nome              query     string  false  "Name contains (case-insensitive)"
// @Param        status            query     string  false  "Exact status"
// @Param        banco             query     string  false  "Bank contains (case-insensitive)"
// @Param        telefone          query     string  false  "Phone contains"
// @Param        userId            query     string  false  "Owner id or 'all'"
// @Success      200  {object}  clientPageResponse
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Router       /clients [get]
func (h *ClientHandler) List(c echo.Context) error {
	identity, err := actor(c)
	if err != nil {
		return err
	}
	page, err := h.limits.page(c)
	if err != nil {
		return err
	}
	filter, err := clientFilterFromQuery(c)
	if err != nil {
		return err
	}

	res, err := h.clients.List(c.Request().Context(), identity, ports.ListClientsInput{Filter: filter, Page: page})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toClientPageResponse(res))
}

// clientFilterFromQuery folds the recognised query parameters into a filter.
func clientFilterFromQuery(c echo.Context) (query.ClientFilter, error) {
	opts := []query.Option{
		query.TaxIDContains(c.QueryParam("cpf")),
		query.NameContains(c.QueryParam("nome")),
		query.StatusIs(c.QueryParam("status")),
		query.BankContains(c.QueryParam("banco")),
		query.PhoneContains(c.QueryParam("telefone")),
	}

	dates := []struct {
		param string
		opt   func(day time.Time) query.Option
	}{
		{"startDate", query.BirthDateFrom},
		{"endDate", query.BirthDateThrough},
		{"createdStartDate", query.CreatedFrom},
		{"createdEndDate", query.CreatedThrough},
	}
	for _, d := range dates {
		day, err := queryDate(c, d.param)
		if err != nil {
			return query.ClientFilter{}, err
		}
		if !day.IsZero() {
			opts = append(opts, d.opt(day))
		}
	}

	owner, err := ownerParam(c.QueryParam("userId"))
	if err != nil {
		return query.ClientFilter{}, err
	}
	if owner > 0 {
		opts = append(opts, query.OwnedBy(owner))
	} else {
		opts = append(opts, query.AnyOwner())
	}

	return query.Build(opts...), nil
}

// ownerParam parses a userId filter. Empty and "all" mean no owner filter.
func ownerParam(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, "all") {
		return 0, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, domain.Invalid("userId", `must be a user id or "all"`)
	}
	return id, nil
}

// Create godoc
//
// @Summary      Create a client
// @Description  The caller becomes the owner. An optional nested contract is created in the same transaction.
// @Tags         clients
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createClientRequest  true  "Client details"
// @Success      201   {object}  clientResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /clients [post]
func (h *ClientHandler) Create(c echo.Context) error {
	identity, err := actor(c)
	if err != nil {
		return err
	}
	var req createClientRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	client, err := h.clients.Create(c.Request().Context(), identity, req.input())
	if err != nil {
		return err
	}
	metrics.ClientMutationsTotal.WithLabelValues("create").Inc()
	return c.JSON(http.StatusCreated, toClientResponse(client))
}

// Get godoc
//
// @Summary      Get a client
// @Tags         clients
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Client ID"
// @Success      200  {object}  clientResponse
// @Failure      400  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /clients/{id} [get]
func (h *ClientHandler) Get(c echo.Context) error {
	identity, err := actor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}

	client, err := h.clients.Get(c.Request().Context(), identity, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toClientResponse(client))
}

// Update applies a partial update and records one history entry per changed field.
//
// @Summary      Update a client
// @Description  Absent fields are untouched; null clears telefone and descricao.
// @Tags         clients
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int                  true  "Client ID"
// @Param        body  body      updateClientRequest  true  "Fields to change"
// @Success      200   {object}  clientResponse
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /clients/{id} [put]
func (h *ClientHandler) Update(c echo.Context) error {
	identity, err := actor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req updateClientRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	res, err := h.clients.Update(c.Request().Context(), identity, id, req.patch())
	if err != nil {
		return err
	}
	metrics.ClientMutationsTotal.WithLabelValues("update").Inc()
	for _, ch := range res.Changes {
		metrics.HistoryEntriesTotal.WithLabelValues(ch.Field).Inc()
	}
	return c.JSON(http.StatusOK, toClientResponse(res.Client))
}

// Delete godoc
//
// @Summary      Delete a client
// @Description  Admin only. Contracts are removed with the client; history is kept.
// @Tags         clients
// @Security     BearerAuth
// @Param        id   path  int  true  "Client ID"
// @Success      204
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /clients/{id} [delete]
func (h *ClientHandler) Delete(c echo.Context) error {
	identity, err := actor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}

	if err := h.clients.Delete(c.Request().Context(), identity, id); err != nil {
		return err
	}
	metrics.ClientMutationsTotal.WithLabelValues("delete").Inc()
	return c.NoContent(http.StatusNoContent)
}
