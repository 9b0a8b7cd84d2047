package postgres

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/salesdesk/backoffice/internal/core/domain"
)

// Timestamps are set by the services, so gorm's automatic tracking is off.

type userRow struct {
	ID           int64     `gorm:"primaryKey;autoIncrement"`
	Email        string    `gorm:"uniqueIndex;not null"`
	PasswordHash string    `gorm:"not null"`
	Role         string    `gorm:"not null;index"`
	CreatedAt    time.Time `gorm:"autoCreateTime:false"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime:false"`
}

func (userRow) TableName() string { return "users" }

func (r *userRow) toDomain() *domain.User {
	return &domain.User{
		ID:           r.ID,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		Role:         domain.Role(r.Role),
		CreatedAt:    r.CreatedAt.UTC(),
		UpdatedAt:    r.UpdatedAt.UTC(),
	}
}

type clientRow struct {
	ID             int64           `gorm:"primaryKey;autoIncrement"`
	TaxID          string          `gorm:"column:cpf;not null"`
	Name           string          `gorm:"column:nome;not null"`
	BirthDate      time.Time       `gorm:"column:data_nascimento;not null"`
	AvailableValue decimal.Decimal `gorm:"column:valor_disponivel;type:numeric(14,2);not null"`
	Status         string          `gorm:"not null"`
	Phone          *string         `gorm:"column:telefone"`
	Bank           string          `gorm:"column:banco;not null"`
	Description    *string         `gorm:"column:descricao"`
	UserID         int64           `gorm:"not null;index"`
	CreatedAt      time.Time       `gorm:"index;autoCreateTime:false"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime:false"`

	Owner     *userRow      `gorm:"foreignKey:UserID"`
	Contracts []contractRow `gorm:"foreignKey:ClientID"`
}

func (clientRow) TableName() string { return "clients" }

func newClientRow(c *domain.Client) clientRow {
	return clientRow{
		ID:             c.ID,
		TaxID:          c.TaxID,
		Name:           c.Name,
		BirthDate:      c.BirthDate,
		AvailableValue: c.AvailableValue,
		Status:         c.Status,
		Phone:          c.Phone,
		Bank:           c.Bank,
		Description:    c.Description,
		UserID:         c.OwnerID,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
}

func (r *clientRow) toDomain() *domain.Client {
	c := &domain.Client{
		ID:             r.ID,
		TaxID:          r.TaxID,
		Name:           r.Name,
		BirthDate:      r.BirthDate.UTC(),
		AvailableValue: r.AvailableValue,
		Status:         r.Status,
		Phone:          r.Phone,
		Bank:           r.Bank,
		Description:    r.Description,
		OwnerID:        r.UserID,
		CreatedAt:      r.CreatedAt.UTC(),
		UpdatedAt:      r.UpdatedAt.UTC(),
	}
	if r.Owner != nil {
		c.OwnerEmail = r.Owner.Email
	}
	if r.Contracts != nil {
		c.Contracts = make([]domain.Contract, 0, len(r.Contracts))
		for i := range r.Contracts {
			c.Contracts = append(c.Contracts, *r.Contracts[i].toDomain())
		}
	}
	return c
}

func (r *clientRow) ref() *domain.ClientRef {
	return &domain.ClientRef{ID: r.ID, Name: r.Name, TaxID: r.TaxID, OwnerID: r.UserID}
}

type contractRow struct {
	ID           int64           `gorm:"primaryKey;autoIncrement"`
	ClientID     int64           `gorm:"not null;index"`
	Date         time.Time       `gorm:"column:data_contrato;not null"`
	Value        decimal.Decimal `gorm:"column:valor_contrato;type:numeric(14,2);not null"`
	Installments int             `gorm:"column:parcelas;not null"`
	InterestRate decimal.Decimal `gorm:"column:juros;type:numeric(8,4);not null"`
	CreatedAt    time.Time       `gorm:"autoCreateTime:false"`

	Client *clientRow `gorm:"foreignKey:ClientID"`
}

func (contractRow) TableName() string { return "contracts" }

func newContractRow(k *domain.Contract) contractRow {
	return contractRow{
		ID:           k.ID,
		ClientID:     k.ClientID,
		Date:         k.Date,
		Value:        k.Value,
		Installments: k.Installments,
		InterestRate: k.InterestRate,
		CreatedAt:    k.CreatedAt,
	}
}

func (r *contractRow) toDomain() *domain.Contract {
	k := &domain.Contract{
		ID:           r.ID,
		ClientID:     r.ClientID,
		Date:         r.Date.UTC(),
		Value:        r.Value,
		Installments: r.Installments,
		InterestRate: r.InterestRate,
		CreatedAt:    r.CreatedAt.UTC(),
	}
	if r.Client != nil {
		k.Client = r.Client.ref()
	}
	return k
}

type historyRow struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	ClientID  int64  `gorm:"not null;index"`
	Field     string `gorm:"not null"`
	OldValue  *string
	NewValue  *string
	UserID    int64     `gorm:"not null"`
	CreatedAt time.Time `gorm:"index;autoCreateTime:false"`

	User   *userRow   `gorm:"foreignKey:UserID"`
	Client *clientRow `gorm:"foreignKey:ClientID"`
}

func (historyRow) TableName() string { return "client_history" }

func (r *historyRow) toDomain() *domain.HistoryEntry {
	e := &domain.HistoryEntry{
		ID:        r.ID,
		ClientID:  r.ClientID,
		Field:     r.Field,
		OldValue:  r.OldValue,
		NewValue:  r.NewValue,
		UserID:    r.UserID,
		CreatedAt: r.CreatedAt.UTC(),
	}
	if r.User != nil {
		e.UserEmail = r.User.Email
	}
	if r.Client != nil {
		e.Client = r.Client.ref()
	}
	return e
}
