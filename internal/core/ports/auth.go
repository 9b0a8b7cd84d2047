package ports

import (
	"context"
	"time"

	"github.com/salesdesk/backoffice/internal/core/domain"
)

// TokenService issues and verifies signed session tokens.
type TokenService interface {
	Issue(id domain.Identity) (token string, expiresAt time.Time, err error)
	TokenVerifier
}

// TokenVerifier is the read half used by the authentication middleware.
type TokenVerifier interface {
	// Verify returns domain.ErrTokenExpired for a well-signed expired token and
	// domain.ErrTokenInvalid for anything else it cannot accept.
	Verify(token string) (domain.Identity, error)
}

// LoginLimiter counts failed logins per key within a window.
type LoginLimiter interface {
	// Blocked reports whether key has exhausted its attempts.
	Blocked(ctx context.Context, key string) (bool, error)
	Fail(ctx context.Context, key string) error
	Reset(ctx context.Context, key string) error
}

// AuthService authenticates credentials.
type AuthService interface {
	Login(ctx context.Context, email, password string) (*LoginResult, error)
}

type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      *domain.User
}
