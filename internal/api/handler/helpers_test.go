package handler_test

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/salesdesk/backoffice/internal/api"
	"github.com/salesdesk/backoffice/internal/api/handler"
	"github.com/salesdesk/backoffice/internal/api/middleware"
	"github.com/salesdesk/backoffice/internal/core/domain"
)

var (
	adminID  = domain.Identity{ID: 1, Email: "admin@example.com", Role: domain.RoleAdmin}
	sellerID = domain.Identity{ID: 2, Email: "seller@example.com", Role: domain.RoleSalesperson}
)

// newTestEcho mirrors the production error handling so status codes match.
func newTestEcho() *echo.Echo {
	e := echo.New()
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = api.NewHTTPErrorHandler(zerolog.Nop())
	return e
}

// asIdentity stands in for the Auth middleware.
func asIdentity(identity domain.Identity) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			middleware.SetIdentity(c, identity)
			return next(c)
		}
	}
}

func serve(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := domain.ParseCalendarDate(s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return d
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func strptr(s string) *string {
	return &s
}
