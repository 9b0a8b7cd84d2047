package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/salesdesk/backoffice/internal/core/domain"
	"github.com/salesdesk/backoffice/internal/core/policy"
	"github.com/salesdesk/backoffice/internal/core/ports"
	"github.com/salesdesk/backoffice/internal/core/query"
)

type UserService struct {
	users   ports.UserRepository
	clients ports.ClientRepository
	tx      ports.Transactor
	hasher  *PasswordHasher
	logger  zerolog.Logger
	now     func() time.Time
}

func NewUserService(store ports.Store, hasher *PasswordHasher, logger zerolog.Logger) *UserService {
	return &UserService{
		users:   store.Users,
		clients: store.Clients,
		tx:      store.Tx,
		hasher:  hasher,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *UserService) Create(ctx context.Context, actor domain.Identity, in ports.CreateUserInput) (*domain.User, error) {
	if err := policy.Authorize(actor, policy.ResourceUser, policy.ActionCreate, policy.NoOwner); err != nil {
		return nil, err
	}

	email, err := validEmail(in.Email)
	if err != nil {
		return nil, err
	}
	if in.Password == "" {
		return nil, domain.Invalid("password", "is required")
	}
	role, err := domain.ParseRole(string(in.Role))
	if err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	now := s.now()
	user := &domain.User{
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info().Int64("user_id", user.ID).Str("role", string(role)).Int64("actor_id", actor.ID).Msg("user created")
	return user, nil
}

func (s *UserService) Get(ctx context.Context, actor domain.Identity, id int64) (*domain.User, error) {
	if err := policy.Authorize(actor, policy.ResourceUser, policy.ActionRead, policy.NoOwner); err != nil {
		return nil, err
	}
	return s.users.FindByID(ctx, id)
}

func (s *UserService) List(ctx context.Context, actor domain.Identity, page query.Page) (*ports.UserPage, error) {
	if err := policy.Authorize(actor, policy.ResourceUser, policy.ActionList, policy.NoOwner); err != nil {
		return nil, err
	}

	var (
		items []*domain.User
		total int64
	)
	err := s.tx.WithSnapshot(ctx, func(ctx context.Context) error {
		var err error
		items, total, err = s.users.List(ctx, page)
		return err
	})
	if err != nil {
		return nil, err
	}

	return &ports.UserPage{
		Items:      items,
		Total:      total,
		Page:       page.Number,
		Limit:      page.Limit,
		TotalPages: page.TotalPages(total),
	}, nil
}

func (s *UserService) Update(ctx context.Context, actor domain.Identity, id int64, in ports.UpdateUserInput) (*domain.User, error) {
	if err := policy.Authorize(actor, policy.ResourceUser, policy.ActionUpdate, policy.NoOwner); err != nil {
		return nil, err
	}

	email, err := validEmail(in.Email)
	if err != nil {
		return nil, err
	}
	role, err := domain.ParseRole(string(in.Role))
	if err != nil {
		return nil, err
	}

	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	user.Email = email
	user.Role = role
	if in.Password != nil && *in.Password != "" {
		if user.PasswordHash, err = s.hasher.Hash(*in.Password); err != nil {
			return nil, err
		}
	}
	user.UpdatedAt = s.now()

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Delete removes a user that owns no clients. Authorization happens before the
// lookup so non-admins cannot probe for ids.
func (s *UserService) Delete(ctx context.Context, actor domain.Identity, id int64) error {
	if err := policy.Authorize(actor, policy.ResourceUser, policy.ActionDelete, policy.NoOwner); err != nil {
		return err
	}

	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.users.FindByID(ctx, id); err != nil {
			return err
		}
		owned, err := s.clients.Count(ctx, query.Build(query.OwnedBy(id)))
		if err != nil {
			return err
		}
		if owned > 0 {
			return domain.ErrUserHasClients
		}
		return s.users.Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	s.logger.Info().Int64("user_id", id).Int64("actor_id", actor.ID).Msg("user deleted")
	return nil
}

// EnsureAdmin creates an admin account for email unless one already exists.
// Blank credentials are a no-op.
func (s *UserService) EnsureAdmin(ctx context.Context, email, password string) error {
	email = domain.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil
	}

	_, err := s.users.FindByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return fmt.Errorf("ensure admin: %w", err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return err
	}
	now := s.now()
	admin := &domain.User{Email: email, PasswordHash: hash, Role: domain.RoleAdmin, CreatedAt: now, UpdatedAt: now}
	if err := s.users.Create(ctx, admin); err != nil && !errors.Is(err, domain.ErrEmailTaken) {
		return fmt.Errorf("ensure admin: %w", err)
	}

	s.logger.Info().Str("email", email).Msg("bootstrap admin created")
	return nil
}

func validEmail(raw string) (string, error) {
	email := domain.NormalizeEmail(raw)
	if email == "" {
		return "", domain.Invalid("email", "is required")
	}
	if at := strings.IndexByte(email, '@'); at <= 0 || at == len(email)-1 {
		return "", domain.Invalid("email", "must be a valid email")
	}
	return email, nil
}
