package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/salesdesk/backoffice/internal/core/domain"
	"github.com/salesdesk/backoffice/internal/core/ports"
)

type ContractRepository struct {
	db *gorm.DB
}

func NewContractRepository(db *gorm.DB) *ContractRepository {
	return &ContractRepository{db: db}
}

func (r *ContractRepository) Create(ctx context.Context, k *domain.Contract) error {
	row := newContractRow(k)
	if err := conn(ctx, r.db).Omit("Client").Create(&row).Error; err != nil {
		return fmt.Errorf("insert contract: %w", err)
	}
	k.ID = row.ID
	return nil
}

func (r *ContractRepository) FindByID(ctx context.Context, id int64) (*domain.Contract, error) {
	var row contractRow
	if err := conn(ctx, r.db).Preload("Client").First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrContractNotFound
		}
		return nil, fmt.Errorf("find contract: %w", err)
	}
	return row.toDomain(), nil
}

func (r *ContractRepository) List(ctx context.Context, f ports.ContractFilter) ([]*domain.Contract, error) {
	db := conn(ctx, r.db)
	q := db.Preload("Client").Order("data_contrato DESC, id DESC")
	if f.ClientID != 0 {
		q = q.Where("client_id = ?", f.ClientID)
	}
	if f.OwnerID != 0 {
		q = q.Where("client_id IN (?)", db.Model(&clientRow{}).Select("id").Where("user_id = ?", f.OwnerID))
	}

	var rows []contractRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list contracts: %w", err)
	}
	out := make([]*domain.Contract, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toDomain())
	}
	return out, nil
}

func (r *ContractRepository) Update(ctx context.Context, k *domain.Contract) error {
	res := conn(ctx, r.db).Model(&contractRow{}).Where("id = ?", k.ID).Updates(map[string]any{
		"data_contrato":  k.Date,
		"valor_contrato": k.Value,
		"parcelas":       k.Installments,
		"juros":          k.InterestRate,
	})
	if res.Error != nil {
		return fmt.Errorf("update contract: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrContractNotFound
	}
	return nil
}

func (r *ContractRepository) Delete(ctx context.Context, id int64) error {
	res := conn(ctx, r.db).Delete(&contractRow{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete contract: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrContractNotFound
	}
	return nil
}

func (r *ContractRepository) DeleteByClient(ctx context.Context, clientID int64) error {
	if err := conn(ctx, r.db).Where("client_id = ?", clientID).Delete(&contractRow{}).Error; err != nil {
		return fmt.Errorf("delete client contracts: %w", err)
	}
	return nil
}
