package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/salesdesk/backoffice/internal/api/metrics"
	"github.com/salesdesk/backoffice/internal/core/domain"
	"github.com/salesdesk/backoffice/internal/core/ports"
)

const identityKey = "identity"

// Auth validates the bearer token and injects the caller's Identity into the
// echo context. Requests that fail never reach next.
func Auth(verifier ports.TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := strings.TrimSpace(c.Request().Header.Get(echo.HeaderAuthorization))
			if authHeader == "" {
				return reject("missing_header", "missing authorization header")
			}

			scheme, token, _ := strings.Cut(authHeader, " ")
			if !strings.EqualFold(scheme, "bearer") {
				return reject("bad_scheme", "invalid authorization header")
			}
			token = strings.TrimSpace(token)
			if token == "" {
				return reject("empty_token", "empty bearer token")
			}

			identity, err := verifier.Verify(token)
			if errors.Is(err, domain.ErrTokenExpired) {
				return reject("expired", "token expired, please log in again")
			}
			if err != nil {
				return reject("invalid_token", "invalid token")
			}

			SetIdentity(c, identity)
			return next(c)
		}
	}
}

func reject(reason, msg string) error {
	metrics.AuthRejectionsTotal.WithLabelValues(reason).Inc()
	return echo.NewHTTPError(http.StatusUnauthorized, msg)
}

// SetIdentity stores identity on the request context.
func SetIdentity(c echo.Context, identity domain.Identity) {
	c.Set(identityKey, identity)
}

// IdentityFrom returns the Identity stored by Auth.
func IdentityFrom(c echo.Context) (domain.Identity, bool) {
	identity, ok := c.Get(identityKey).(domain.Identity)
	return identity, ok
}
