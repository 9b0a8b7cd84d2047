package handler

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/salesdesk/backoffice/internal/core/domain"
	"github.com/salesdesk/backoffice/internal/core/ports"
)

// calendarDate is a date-only JSON value. It accepts YYYY-MM-DD or a full
// timestamp and keeps the calendar day as written.
type calendarDate struct {
	time.Time
}

func (d *calendarDate) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return domain.Invalid("", "dates must be strings (YYYY-MM-DD)")
	}
	t, err := domain.ParseCalendarDate(s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

// nullableString records whether the key was present so that null can clear
// an optional field while an absent key leaves it untouched.
type nullableString struct {
	Set   bool
	Value *string
}

func (n *nullableString) UnmarshalJSON(b []byte) error {
	n.Set = true
	if string(b) == "null" {
		n.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return domain.Invalid("", "optional text fields must be strings or null")
	}
	n.Value = &s
	return nil
}

func (n nullableString) port() ports.Nullable[string] {
	return ports.Nullable[string]{Set: n.Set, Value: n.Value}
}

// --- requests ---

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type createUserRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role" validate:"required"`
}

type updateUserRequest struct {
	Email    string  `json:"email" validate:"required,email"`
	Role     string  `json:"role" validate:"required"`
	Password *string `json:"password,omitempty"`
}

type contractRequest struct {
	Date         *calendarDate    `json:"dataContrato" validate:"required" swaggertype:"string" example:"2024-06-01"`
	Value        *decimal.Decimal `json:"valorContrato" validate:"required" swaggertype:"string" example:"10000.00"`
	Installments *int             `json:"parcelas" validate:"required,min=1"`
	InterestRate *decimal.Decimal `json:"juros" validate:"required" swaggertype:"string" example:"1.99"`
}

func (r *contractRequest) input(clientID int64) *ports.ContractInput {
	if r == nil {
		return nil
	}
	return &ports.ContractInput{
		ClientID:     clientID,
		Date:         r.Date.Time,
		Value:        *r.Value,
		Installments: *r.Installments,
		InterestRate: *r.InterestRate,
	}
}

type createContractRequest struct {
	ClientID int64 `json:"clientId" validate:"required,gt=0"`
	contractRequest
}

type updateContractRequest struct {
	Date         *calendarDate    `json:"dataContrato" swaggertype:"string"`
	Value        *decimal.Decimal `json:"valorContrato" swaggertype:"string"`
	Installments *int             `json:"parcelas"`
	InterestRate *decimal.Decimal `json:"juros" swaggertype:"string"`
}

func (r updateContractRequest) patch() ports.ContractPatch {
	p := ports.ContractPatch{
		Value:        r.Value,
		Installments: r.Installments,
		InterestRate: r.InterestRate,
	}
	if r.Date != nil {
		p.Date = &r.Date.Time
	}
	return p
}

type createClientRequest struct {
	TaxID          string           `json:"cpf" validate:"required"`
	Name           string           `json:"nome" validate:"required"`
	BirthDate      *calendarDate    `json:"dataNascimento" validate:"required" swaggertype:"string" example:"1980-05-17"`
	AvailableValue *decimal.Decimal `json:"valorDisponivel" validate:"required" swaggertype:"string" example:"1500.50"`
	Status         string           `json:"status" validate:"required"`
	Phone          *string          `json:"telefone"`
	Bank           string           `json:"banco" validate:"required"`
	Description    *string          `json:"descricao"`
	Contract       *contractRequest `json:"contrato"`
}

func (r createClientRequest) input() ports.CreateClientInput {
	return ports.CreateClientInput{
		TaxID:          r.TaxID,
		Name:           r.Name,
		BirthDate:      r.BirthDate.Time,
		AvailableValue: *r.AvailableValue,
		Status:         r.Status,
		Phone:          r.Phone,
		Bank:           r.Bank,
		Description:    r.Description,
		Contract:       r.Contract.input(0),
	}
}

type updateClientRequest struct {
	TaxID          *string          `json:"cpf"`
	Name           *string          `json:"nome"`
	BirthDate      *calendarDate    `json:"dataNascimento" swaggertype:"string"`
	AvailableValue *decimal.Decimal `json:"valorDisponivel" swaggertype:"string"`
	Status         *string          `json:"status"`
	Phone          nullableString   `json:"telefone" swaggertype:"string"`
	Bank           *string          `json:"banco"`
	Description    nullableString   `json:"descricao" swaggertype:"string"`
	Contract       *contractRequest `json:"contrato"`
}

func (r updateClientRequest) patch() ports.ClientPatch {
	p := ports.ClientPatch{
		TaxID:          r.TaxID,
		Name:           r.Name,
		AvailableValue: r.AvailableValue,
		Status:         r.Status,
		Phone:          r.Phone.port(),
		Bank:           r.Bank,
		Description:    r.Description.port(),
		Contract:       r.Contract.input(0),
	}
	if r.BirthDate != nil {
		p.BirthDate = &r.BirthDate.Time
	}
	return p
}

type exportFilters struct {
	StartDate string `json:"startDate" example:"2024-01-01"`
	EndDate   string `json:"endDate" example:"2024-12-31"`
	Status    string `json:"status"`
	UserID    string `json:"userId" example:"all"`
	Bank      string `json:"banco"`
	Limit     int    `json:"limit" example:"5000"`
}

type exportRequest struct {
	Filters exportFilters `json:"filters"`
}

// --- responses ---

type userResponse struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type loginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      userResponse `json:"user"`
}

type userPageResponse struct {
	Data       []userResponse `json:"data"`
	Total      int64          `json:"total"`
	Page       int            `json:"page"`
	Limit      int            `json:"limit"`
	TotalPages int            `json:"totalPages"`
}

type ownerResponse struct {
	Email string `json:"email"`
}

type contractResponse struct {
	ID           int64              `json:"id"`
	ClientID     int64              `json:"clientId"`
	Date         string             `json:"dataContrato" example:"2024-06-01"`
	Value        decimal.Decimal    `json:"valorContrato" swaggertype:"string"`
	Installments int                `json:"parcelas"`
	InterestRate decimal.Decimal    `json:"juros" swaggertype:"string"`
	CreatedAt    time.Time          `json:"createdAt"`
	Client       *clientRefResponse `json:"client,omitempty"`
}

type clientRefResponse struct {
	ID     int64  `json:"id"`
	Name   string `json:"nome"`
	TaxID  string `json:"cpf"`
	UserID int64  `json:"userId,omitempty"`
}

type clientResponse struct {
	ID             int64              `json:"id"`
	TaxID          string             `json:"cpf"`
	Name           string             `json:"nome"`
	BirthDate      string             `json:"dataNascimento" example:"1980-05-17"`
	AvailableValue decimal.Decimal    `json:"valorDisponivel" swaggertype:"string"`
	Status         string             `json:"status"`
	Phone          *string            `json:"telefone"`
	Bank           string             `json:"banco"`
	Description    *string            `json:"descricao"`
	UserID         int64              `json:"userId"`
	User           *ownerResponse     `json:"user,omitempty"`
	CreatedAt      time.Time          `json:"createdAt"`
	UpdatedAt      time.Time          `json:"updatedAt"`
	Contracts      []contractResponse `json:"contratos"`
}

type clientPageResponse struct {
	Data       []clientResponse `json:"data"`
	Total      int64            `json:"total"`
	Page       int              `json:"page"`
	Limit      int              `json:"limit"`
	TotalPages int              `json:"totalPages"`
	Users      []userResponse   `json:"users,omitempty"`
}

type historyResponse struct {
	ID        int64              `json:"id"`
	ClientID  int64              `json:"clientId"`
	Field     string             `json:"field"`
	OldValue  *string            `json:"oldValue"`
	NewValue  *string            `json:"newValue"`
	UserID    int64              `json:"userId"`
	CreatedAt time.Time          `json:"createdAt"`
	User      ownerResponse      `json:"user"`
	Client    *clientRefResponse `json:"client,omitempty"`
}

type statResponse struct {
	UserID      int64  `json:"userId"`
	UserEmail   string `json:"userEmail"`
	ClientCount int64  `json:"clientCount"`
}
