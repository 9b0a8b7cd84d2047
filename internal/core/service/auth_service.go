package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/salesdesk/backoffice/internal/core/domain"
	"github.com/salesdesk/backoffice/internal/core/ports"
)

// AuthService implements credential login.
type AuthService struct {
	users     ports.UserRepository
	tokens    ports.TokenService
	limiter   ports.LoginLimiter
	hasher    *PasswordHasher
	dummyHash string
	logger    zerolog.Logger
}

// NewAuthService builds the login service. A nil limiter disables throttling.
func NewAuthService(
	users ports.UserRepository,
	tokens ports.TokenService,
	limiter ports.LoginLimiter,
	hasher *PasswordHasher,
	logger zerolog.Logger,
) (*AuthService, error) {
	if limiter == nil {
		limiter = noopLimiter{}
	}
	// Unknown emails are compared against this hash so both failure paths
	// spend the same bcrypt time.
	dummy, err := hasher.Hash("not-a-real-password")
	if err != nil {
		return nil, err
	}
	return &AuthService{
		users:     users,
		tokens:    tokens,
		limiter:   limiter,
		hasher:    hasher,
		dummyHash: dummy,
		logger:    logger,
	}, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*ports.LoginResult, error) {
	email = domain.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, domain.Invalid("", "email and password are required")
	}

	blocked, err := s.limiter.Blocked(ctx, email)
	if err != nil {
		s.logger.Warn().Err(err).Msg("login limiter unavailable, allowing attempt")
	} else if blocked {
		return nil, domain.ErrTooManyAttempts
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, domain.ErrUserNotFound) {
			return nil, fmt.Errorf("login: %w", err)
		}
		s.hasher.Matches(s.dummyHash, password)
		s.fail(ctx, email)
		return nil, domain.ErrInvalidCredentials
	}

	if !s.hasher.Matches(user.PasswordHash, password) {
		s.fail(ctx, email)
		return nil, domain.ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokens.Issue(user.Identity())
	if err != nil {
		return nil, fmt.Errorf("login: issue token: %w", err)
	}

	if err := s.limiter.Reset(ctx, email); err != nil {
		s.logger.Warn().Err(err).Msg("failed to reset login attempts")
	}

	return &ports.LoginResult{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

func (s *AuthService) fail(ctx context.Context, email string) {
	if err := s.limiter.Fail(ctx, email); err != nil {
		s.logger.Warn().Err(err).Msg("failed to record login attempt")
	}
}

type noopLimiter struct{}

func (noopLimiter) Blocked(context.Context, string) (bool, error) { return false, nil }
func (noopLimiter) Fail(context.Context, string) error            { return nil }
func (noopLimiter) Reset(context.Context, string) error           { return nil }
