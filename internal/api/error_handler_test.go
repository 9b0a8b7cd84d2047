package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/salesdesk/backoffice/internal/api/middleware"
	"github.com/salesdesk/backoffice/internal/core/domain"
)

func TestHTTPErrorHandler_StatusMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
		msg  string
	}{
		{"validation", domain.Invalid("cpf", "is required"), http.StatusBadRequest, "cpf: is required"},
		{"credentials", domain.ErrInvalidCredentials, http.StatusUnauthorized, "invalid credentials"},
		{"expired", domain.ErrTokenExpired, http.StatusUnauthorized, "token expired, please log in again"},
		{"forbidden", fmt.Errorf("client service: %w", domain.ErrForbidden), http.StatusForbidden, "access forbidden"},
		{"client missing", domain.ErrClientNotFound, http.StatusNotFound, "client not found"},
		{"contract missing", domain.ErrContractNotFound, http.StatusNotFound, "contract not found"},
		{"user missing", domain.ErrUserNotFound, http.StatusNotFound, "user not found"},
		{"email taken", domain.ErrEmailTaken, http.StatusConflict, "user already exists"},
		{"owner of clients", domain.ErrUserHasClients, http.StatusConflict, "user still owns clients"},
		{"throttled", domain.ErrTooManyAttempts, http.StatusTooManyRequests, "too many login attempts"},
		{"echo error", echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header"), http.StatusUnauthorized, "missing authorization header"},
		{"unexpected", errors.New("dial tcp: connection refused"), http.StatusInternalServerError, "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			e.HTTPErrorHandler = NewHTTPErrorHandler(zerolog.Nop())
			req := httptest.NewRequest(http.MethodGet, "/api/clients/1", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			e.HTTPErrorHandler(tt.err, c)

			if rec.Code != tt.code {
				t.Fatalf("expected %d, got %d", tt.code, rec.Code)
			}
			var body errorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("invalid json: %v", err)
			}
			if body.Error != tt.msg {
				t.Fatalf("expected %q, got %q", tt.msg, body.Error)
			}
		})
	}
}

func TestHTTPErrorHandler_LogsUnexpectedWithContext(t *testing.T) {
	var buf bytes.Buffer
	e := echo.New()
	e.HTTPErrorHandler = NewHTTPErrorHandler(zerolog.New(&buf))
	req := httptest.NewRequest(http.MethodPut, "/api/clients/9", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/api/clients/:id")
	c.Response().Header().Set(echo.HeaderXRequestID, "req-123")
	middleware.SetIdentity(c, domain.Identity{ID: 42, Email: "ana@example.com", Role: domain.RoleSalesperson})

	e.HTTPErrorHandler(errors.New("pq: deadlock detected"), c)

	line := buf.String()
	for _, want := range []string{`"method":"PUT"`, `"path":"/api/clients/:id"`, `"request_id":"req-123"`, `"user_id":42`, "deadlock detected"} {
		if !strings.Contains(line, want) {
			t.Fatalf("log line %q missing %s", line, want)
		}
	}
	if strings.Contains(rec.Body.String(), "deadlock") {
		t.Fatalf("internal error leaked: %s", rec.Body.String())
	}
}
