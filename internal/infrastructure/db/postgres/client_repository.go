package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/salesdesk/backoffice/internal/core/domain"
	"github.com/salesdesk/backoffice/internal/core/query"
)

type ClientRepository struct {
	db *gorm.DB
}

func NewClientRepository(db *gorm.DB) *ClientRepository {
	return &ClientRepository{db: db}
}

func (r *ClientRepository) Create(ctx context.Context, c *domain.Client) error {
	row := newClientRow(c)
	if err := conn(ctx, r.db).Omit("Owner", "Contracts").Create(&row).Error; err != nil {
		return fmt.Errorf("insert client: %w", err)
	}
	c.ID = row.ID
	return nil
}

func (r *ClientRepository) FindByID(ctx context.Context, id int64) (*domain.Client, error) {
	var row clientRow
	err := conn(ctx, r.db).
		Preload("Owner").
		Preload("Contracts", func(db *gorm.DB) *gorm.DB {
			return db.Order("data_contrato DESC, id DESC")
		}).
		First(&row, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrClientNotFound
		}
		return nil, fmt.Errorf("find client: %w", err)
	}
	return row.toDomain(), nil
}

func (r *ClientRepository) List(ctx context.Context, f query.ClientFilter, page query.Page) ([]*domain.Client, error) {
	var rows []clientRow
	err := conn(ctx, r.db).
		Scopes(clientScope(f)).
		Preload("Owner").
		Order("created_at DESC, id DESC").
		Offset(page.Offset()).
		Limit(page.Limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}

	out := make([]*domain.Client, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toDomain())
	}
	return out, nil
}

func (r *ClientRepository) Count(ctx context.Context, f query.ClientFilter) (int64, error) {
	var n int64
	if err := conn(ctx, r.db).Model(&clientRow{}).Scopes(clientScope(f)).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count clients: %w", err)
	}
	return n, nil
}

func (r *ClientRepository) Update(ctx context.Context, c *domain.Client) error {
	res := conn(ctx, r.db).Model(&clientRow{}).Where("id = ?", c.ID).Updates(map[string]any{
		"cpf":              c.TaxID,
		"nome":             c.Name,
		"data_nascimento":  c.BirthDate,
		"valor_disponivel": c.AvailableValue,
		"status":           c.Status,
		"telefone":         c.Phone,
		"banco":            c.Bank,
		"descricao":        c.Description,
		"updated_at":       c.UpdatedAt,
	})
	if res.Error != nil {
		return fmt.Errorf("update client: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrClientNotFound
	}
	return nil
}

func (r *ClientRepository) Delete(ctx context.Context, id int64) error {
	res := conn(ctx, r.db).Delete(&clientRow{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete client: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrClientNotFound
	}
	return nil
}

func (r *ClientRepository) CountCreatedByOwner(ctx context.Context, from, to time.Time) (map[int64]int64, error) {
	var rows []struct {
		UserID int64
		Count  int64
	}
	err := conn(ctx, r.db).
		Model(&clientRow{}).
		Select("user_id, COUNT(*) AS count").
		Where("created_at >= ? AND created_at < ?", from, to).
		Group("user_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("count clients by owner: %w", err)
	}

	out := make(map[int64]int64, len(rows))
	for _, row := range rows {
		out[row.UserID] = row.Count
	}
	return out, nil
}
