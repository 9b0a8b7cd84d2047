package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/salesdesk/backoffice/internal/core/domain"
	"github.com/salesdesk/backoffice/internal/core/query"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	row := userRow{
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Role:         string(u.Role),
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
	if err := conn(ctx, r.db).Create(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ErrEmailTaken
		}
		return fmt.Errorf("insert user: %w", err)
	}
	u.ID = row.ID
	return nil
}

func (r *UserRepository) first(ctx context.Context, where string, arg any) (*domain.User, error) {
	var row userRow
	if err := conn(ctx, r.db).Where(where, arg).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return row.toDomain(), nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.first(ctx, "email = ?", email)
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *UserRepository) List(ctx context.Context, page query.Page) ([]*domain.User, int64, error) {
	db := conn(ctx, r.db)

	var rows []userRow
	if err := db.Order("id ASC").Offset(page.Offset()).Limit(page.Limit).Find(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	var total int64
	if err := db.Model(&userRow{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}
	return usersToDomain(rows), total, nil
}

func (r *UserRepository) ListAll(ctx context.Context) ([]*domain.User, error) {
	var rows []userRow
	if err := conn(ctx, r.db).Order("email ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return usersToDomain(rows), nil
}

func (r *UserRepository) ListByRole(ctx context.Context, role domain.Role) ([]*domain.User, error) {
	var rows []userRow
	if err := conn(ctx, r.db).Where("role = ?", string(role)).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list users by role: %w", err)
	}
	return usersToDomain(rows), nil
}

func (r *UserRepository) Update(ctx context.Context, u *domain.User) error {
	res := conn(ctx, r.db).Model(&userRow{}).Where("id = ?", u.ID).Updates(map[string]any{
		"email":         u.Email,
		"password_hash": u.PasswordHash,
		"role":          string(u.Role),
		"updated_at":    u.UpdatedAt,
	})
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return domain.ErrEmailTaken
		}
		return fmt.Errorf("update user: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	res := conn(ctx, r.db).Delete(&userRow{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete user: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func usersToDomain(rows []userRow) []*domain.User {
	out := make([]*domain.User, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toDomain())
	}
	return out
}
