package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/salesdesk/backoffice/internal/api/handler"
	"github.com/salesdesk/backoffice/internal/core/domain"
	"github.com/salesdesk/backoffice/internal/core/ports"
)

type stubClientService struct {
	createFn func(ctx context.Context, actor domain.Identity, in ports.CreateClientInput) (*domain.Client, error)
	getFn    func(ctx context.Context, actor domain.Identity, id int64) (*domain.Client, error)
	listFn   func(ctx context.Context, actor domain.Identity, in ports.ListClientsInput) (*ports.ClientPage, error)
	updateFn func(ctx context.Context, actor domain.Identity, id int64, patch ports.ClientPatch) (*ports.ClientUpdate, error)
	deleteFn func(ctx context.Context, actor domain.Identity, id int64) error
}

func (s *stubClientService) Create(ctx context.Context, actor domain.Identity, in ports.CreateClientInput) (*domain.Client, error) {
	return s.createFn(ctx, actor, in)
}

func (s *stubClientService) Get(ctx context.Context, actor domain.Identity, id int64) (*domain.Client, error) {
	return s.getFn(ctx, actor, id)
}

func (s *stubClientService) List(ctx context.Context, actor domain.Identity, in ports.ListClientsInput) (*ports.ClientPage, error) {
	return s.listFn(ctx, actor, in)
}

func (s *stubClientService) Update(ctx context.Context, actor domain.Identity, id int64, patch ports.ClientPatch) (*ports.ClientUpdate, error) {
	return s.updateFn(ctx, actor, id, patch)
}

func (s *stubClientService) Delete(ctx context.Context, actor domain.Identity, id int64) error {
	return s.deleteFn(ctx, actor, id)
}

func clientRoutes(svc ports.ClientService, identity domain.Identity) *echo.Echo {
	e := newTestEcho()
	h := handler.NewClientHandler(svc, handler.PageLimits{Default: 10, Max: 100})
	g := e.Group("/api/clients", asIdentity(identity))
	g.GET("", h.List)
	g.POST("", h.Create)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
	return e
}

func sampleClient(t *testing.T) *domain.Client {
	created := time.Date(2024, 6, 1, 23, 0, 0, 0, time.UTC)
	return &domain.Client{
		ID:             5,
		TaxID:          "123.456.789-00",
		Name:           "Maria Souza",
		BirthDate:      day(t, "1980-05-17"),
		AvailableValue: dec("1500.50"),
		Status:         "ativo",
		Bank:           "Banco do Brasil",
		OwnerID:        sellerID.ID,
		OwnerEmail:     sellerID.Email,
		CreatedAt:      created,
		UpdatedAt:      created,
		Contracts: []domain.Contract{
			{ID: 9, ClientID: 5, Date: day(t, "2024-06-01"), Value: dec("10000"), Installments: 12, InterestRate: dec("1.99"), CreatedAt: created},
		},
	}
}

func TestClientHandler_List_ParsesFilters(t *testing.T) {
	var got ports.ListClientsInput
	svc := &stubClientService{
		listFn: func(ctx context.Context, actor domain.Identity, in ports.ListClientsInput) (*ports.ClientPage, error) {
			got = in
			return &ports.ClientPage{
				Items:      []*domain.Client{sampleClient(t)},
				Total:      15,
				Page:       in.Page.Number,
				Limit:      in.Page.Limit,
				TotalPages: 2,
				Users:      []*domain.User{{ID: 2, Email: "seller@example.com", Role: domain.RoleSalesperson}},
			}, nil
		},
	}
	e := clientRoutes(svc, adminID)

	rec := serve(e, http.MethodGet, "/api/clients?page=2&limit=10&nome=maria&status=ativo&createdEndDate=2024-06-01&startDate=1980-01-01&userId=all", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got.Page.Number != 2 || got.Page.Limit != 10 {
		t.Fatalf("unexpected page: %+v", got.Page)
	}
	f := got.Filter
	if f.Name != "maria" || f.Status != "ativo" || f.ByOwner {
		t.Fatalf("unexpected filter: %+v", f)
	}
	wantTo := time.Date(2024, 6, 1, 23, 59, 59, 999_000_000, time.UTC)
	if !f.CreatedAt.To.Equal(wantTo) {
		t.Fatalf("created through = %v, want %v", f.CreatedAt.To, wantTo)
	}
	if !f.BirthDate.From.Equal(time.Date(1980, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("birth from = %v", f.BirthDate.From)
	}
	if !f.Matches(sampleClient(t)) {
		t.Fatalf("client created 2024-06-01T23:00Z should match endDate 2024-06-01")
	}

	var body struct {
		Data []struct {
			BirthDate string `json:"dataNascimento"`
			Value     string `json:"valorDisponivel"`
			User      struct {
				Email string `json:"email"`
			} `json:"user"`
			Contracts []struct {
				Date string `json:"dataContrato"`
			} `json:"contratos"`
		} `json:"data"`
		Total      int64 `json:"total"`
		TotalPages int   `json:"totalPages"`
		Users      []any `json:"users"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if body.Total != 15 || body.TotalPages != 2 || len(body.Users) != 1 || len(body.Data) != 1 {
		t.Fatalf("unexpected page body: %s", rec.Body.String())
	}
	item := body.Data[0]
	if item.BirthDate != "1980-05-17" || item.Value != "1500.5" || item.User.Email != "seller@example.com" {
		t.Fatalf("unexpected item: %+v", item)
	}
	if len(item.Contracts) != 1 || item.Contracts[0].Date != "2024-06-01" {
		t.Fatalf("unexpected contracts: %+v", item.Contracts)
	}
}

func TestClientHandler_List_OwnerParam(t *testing.T) {
	var got ports.ListClientsInput
	svc := &stubClientService{
		listFn: func(ctx context.Context, actor domain.Identity, in ports.ListClientsInput) (*ports.ClientPage, error) {
			got = in
			return &ports.ClientPage{Page: 1, Limit: 10}, nil
		},
	}
	e := clientRoutes(svc, adminID)

	rec := serve(e, http.MethodGet, "/api/clients?userId=7", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !got.Filter.ByOwner || got.Filter.OwnerID != 7 {
		t.Fatalf("expected owner filter 7, got %+v", got.Filter)
	}
	if got.Page.Number != 1 || got.Page.Limit != 10 {
		t.Fatalf("expected default page, got %+v", got.Page)
	}
}

func TestClientHandler_List_HugePageNumber(t *testing.T) {
	var got ports.ListClientsInput
	svc := &stubClientService{
		listFn: func(ctx context.Context, actor domain.Identity, in ports.ListClientsInput) (*ports.ClientPage, error) {
			got = in
			return &ports.ClientPage{Page: in.Page.Number, Limit: in.Page.Limit}, nil
		},
	}
	e := clientRoutes(svc, adminID)

	rec := serve(e, http.MethodGet, "/api/clients?page=4611686018427387904&limit=100", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got.Page.Offset() < 0 {
		t.Fatalf("offset overflowed: %+v", got.Page)
	}
}

func TestClientHandler_List_BadQuery(t *testing.T) {
	svc := &stubClientService{
		listFn: func(ctx context.Context, actor domain.Identity, in ports.ListClientsInput) (*ports.ClientPage, error) {
			t.Fatalf("should not be called")
			return nil, nil
		},
	}
	e := clientRoutes(svc, adminID)

	for _, target := range []string{
		"/api/clients?page=abc",
		"/api/clients?limit=ten",
		"/api/clients?endDate=yesterday",
		"/api/clients?userId=bob",
	} {
		rec := serve(e, http.MethodGet, target, "")
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", target, rec.Code)
		}
	}
}

func TestClientHandler_Create(t *testing.T) {
	var got ports.CreateClientInput
	svc := &stubClientService{
		createFn: func(ctx context.Context, actor domain.Identity, in ports.CreateClientInput) (*domain.Client, error) {
			if actor.ID != sellerID.ID {
				t.Fatalf("unexpected actor %+v", actor)
			}
			got = in
			return sampleClient(t), nil
		},
	}
	e := clientRoutes(svc, sellerID)

	body := `{"cpf":"123.456.789-00","nome":"Maria Souza","dataNascimento":"1980-05-17","valorDisponivel":1500.5,
		"status":"ativo","banco":"Banco do Brasil","telefone":"11999990000",
		"contrato":{"dataContrato":"2024-06-01","valorContrato":"10000","parcelas":12,"juros":1.99}}`
	rec := serve(e, http.MethodPost, "/api/clients", body)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if got.Name != "Maria Souza" || !got.AvailableValue.Equal(dec("1500.5")) || got.Phone == nil || *got.Phone != "11999990000" {
		t.Fatalf("unexpected input: %+v", got)
	}
	if !got.BirthDate.Equal(time.Date(1980, 5, 17, 12, 0, 0, 0, time.UTC)) {
		t.Fatalf("birth date = %v", got.BirthDate)
	}
	if got.Contract == nil || got.Contract.Installments != 12 || !got.Contract.InterestRate.Equal(dec("1.99")) {
		t.Fatalf("unexpected contract: %+v", got.Contract)
	}
}

func TestClientHandler_Create_MissingFields(t *testing.T) {
	svc := &stubClientService{
		createFn: func(ctx context.Context, actor domain.Identity, in ports.CreateClientInput) (*domain.Client, error) {
			t.Fatalf("should not be called")
			return nil, nil
		},
	}
	e := clientRoutes(svc, sellerID)

	rec := serve(e, http.MethodPost, "/api/clients", `{"nome":"Maria"}`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	for _, field := range []string{"cpf is required", "dataNascimento is required", "banco is required"} {
		if !strings.Contains(resp["error"], field) {
			t.Fatalf("error %q missing %q", resp["error"], field)
		}
	}
}

func TestClientHandler_Update_Patch(t *testing.T) {
	var got ports.ClientPatch
	svc := &stubClientService{
		updateFn: func(ctx context.Context, actor domain.Identity, id int64, patch ports.ClientPatch) (*ports.ClientUpdate, error) {
			if id != 5 {
				t.Fatalf("unexpected id %d", id)
			}
			got = patch
			return &ports.ClientUpdate{Client: sampleClient(t)}, nil
		},
	}
	e := clientRoutes(svc, sellerID)

	body := `{"status":"inativo","telefone":null,"dataNascimento":"1980-05-17T22:00:00-03:00","valorDisponivel":"2000.00"}`
	rec := serve(e, http.MethodPut, "/api/clients/5", body)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got.Status == nil || *got.Status != "inativo" {
		t.Fatalf("status not patched: %+v", got.Status)
	}
	if !got.Phone.Set || got.Phone.Value != nil {
		t.Fatalf("telefone should be an explicit null: %+v", got.Phone)
	}
	if got.Description.Set {
		t.Fatalf("descricao was absent")
	}
	if got.Name != nil || got.TaxID != nil || got.Bank != nil || got.Contract != nil {
		t.Fatalf("absent fields must stay nil: %+v", got)
	}
	if got.BirthDate == nil || domain.CalendarDay(*got.BirthDate) != "1980-05-17" {
		t.Fatalf("birth date = %v", got.BirthDate)
	}
	if got.AvailableValue == nil || !got.AvailableValue.Equal(dec("2000")) {
		t.Fatalf("value = %v", got.AvailableValue)
	}
}

func TestClientHandler_Update_Errors(t *testing.T) {
	tests := []struct {
		name   string
		target string
		body   string
		err    error
		code   int
	}{
		{"bad id", "/api/clients/abc", `{"status":"x"}`, nil, http.StatusBadRequest},
		{"bad date", "/api/clients/5", `{"dataNascimento":"17/05/1980"}`, nil, http.StatusBadRequest},
		{"bad decimal", "/api/clients/5", `{"valorDisponivel":"lots"}`, nil, http.StatusBadRequest},
		{"not found", "/api/clients/5", `{"status":"x"}`, domain.ErrClientNotFound, http.StatusNotFound},
		{"forbidden", "/api/clients/5", `{"status":"x"}`, domain.ErrForbidden, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubClientService{
				updateFn: func(ctx context.Context, actor domain.Identity, id int64, patch ports.ClientPatch) (*ports.ClientUpdate, error) {
					if tt.err == nil {
						t.Fatalf("should not be called")
					}
					return nil, tt.err
				},
			}
			e := clientRoutes(svc, sellerID)

			rec := serve(e, http.MethodPut, tt.target, tt.body)

			if rec.Code != tt.code {
				t.Fatalf("expected %d, got %d: %s", tt.code, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestClientHandler_GetAndDelete(t *testing.T) {
	svc := &stubClientService{
		getFn: func(ctx context.Context, actor domain.Identity, id int64) (*domain.Client, error) {
			return sampleClient(t), nil
		},
		deleteFn: func(ctx context.Context, actor domain.Identity, id int64) error {
			if !actor.IsAdmin() {
				return domain.ErrForbidden
			}
			return nil
		},
	}

	rec := serve(clientRoutes(svc, sellerID), http.MethodGet, "/api/clients/5", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get: expected 200, got %d", rec.Code)
	}
	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["cpf"] != "123.456.789-00" || resp["telefone"] != nil || resp["userId"] != float64(sellerID.ID) {
		t.Fatalf("unexpected body: %+v", resp)
	}

	rec = serve(clientRoutes(svc, sellerID), http.MethodDelete, "/api/clients/5", "")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("delete as seller: expected 403, got %d", rec.Code)
	}
	rec = serve(clientRoutes(svc, adminID), http.MethodDelete, "/api/clients/5", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete as admin: expected 204, got %d", rec.Code)
	}
}
