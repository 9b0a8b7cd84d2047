package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Audited client field names. They match the JSON names exposed by the API so
// history entries read the same way the records do.
const (
	FieldTaxID          = "cpf"
	FieldName           = "nome"
	FieldBirthDate      = "dataNascimento"
	FieldAvailableValue = "valorDisponivel"
	FieldStatus         = "status"
	FieldPhone          = "telefone"
	FieldBank           = "banco"
	FieldDescription    = "descricao"
)

// Client is a customer record owned by the salesperson who created it.
type Client struct {
	ID             int64
	TaxID          string
	Name           string
	BirthDate      time.Time // always CalendarDate-normalized
	AvailableValue decimal.Decimal
	Status         string
	Phone          *string
	Bank           string
	Description    *string
	OwnerID        int64
	CreatedAt      time.Time
	UpdatedAt      time.Time

	// Read-side projections, populated by repositories on reads.
	OwnerEmail string
	Contracts  []Contract
}

// Contract is a loan contract attached to a client.
type Contract struct {
	ID           int64
	ClientID     int64
	Date         time.Time // always CalendarDate-normalized
	Value        decimal.Decimal
	Installments int
	InterestRate decimal.Decimal
	CreatedAt    time.Time

	// Client is populated on list reads.
	Client *ClientRef
}

// ClientRef is the short client projection embedded in contracts and history.
type ClientRef struct {
	ID      int64
	Name    string
	TaxID   string
	OwnerID int64
}

// HistoryEntry is an immutable record of one field change on a client.
type HistoryEntry struct {
	ID        int64
	ClientID  int64
	Field     string
	OldValue  *string
	NewValue  *string
	UserID    int64
	CreatedAt time.Time

	// Read-side projections.
	UserEmail string
	Client    *ClientRef
}
