package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/salesdesk/backoffice/internal/api/middleware"
	"github.com/salesdesk/backoffice/internal/core/domain"
	"github.com/salesdesk/backoffice/internal/core/query"
)

// actor extracts the identity injected by the Auth middleware. Its absence
// means the route was mounted without Auth.
func actor(c echo.Context) (domain.Identity, error) {
	identity, ok := middleware.IdentityFrom(c)
	if !ok || identity.ID == 0 {
		return domain.Identity{}, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return identity, nil
}

// PageLimits holds the configured pagination bounds.
type PageLimits struct {
	Default int
	Max     int
}

func (l PageLimits) page(c echo.Context) (query.Page, error) {
	number, err := queryInt(c, "page")
	if err != nil {
		return query.Page{}, err
	}
	limit, err := queryInt(c, "limit")
	if err != nil {
		return query.Page{}, err
	}
	return query.NewPage(number, limit, l.Default, l.Max), nil
}

func pathID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		return 0, domain.Invalid("id", "must be a positive integer")
	}
	return id, nil
}

// queryInt returns 0 for an absent parameter.
func queryInt(c echo.Context, name string) (int, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domain.Invalid(name, "must be a number")
	}
	return n, nil
}

func queryID(c echo.Context, name string) (int64, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, domain.Invalid(name, "must be a positive integer")
	}
	return id, nil
}

// queryDate returns the zero time for an absent parameter.
func queryDate(c echo.Context, name string) (time.Time, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := domain.ParseCalendarDate(raw)
	if err != nil {
		return time.Time{}, domain.Invalid(name, "must be a date (YYYY-MM-DD)")
	}
	return t, nil
}
