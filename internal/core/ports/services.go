package ports

import (
	"context"
	"io"
	"time"

	"github.com/shopspring/decimal"

	"github.com/salesdesk/backoffice/internal/core/domain"
	"github.com/salesdesk/backoffice/internal/core/query"
)

// Nullable distinguishes an absent field (Set false) from an explicit null
// (Set true, Value nil).
type Nullable[T any] struct {
	Set   bool
	Value *T
}

// ContractInput carries the fields of a new contract. ClientID is ignored when
// the contract is nested in a client create or update.
type ContractInput struct {
	ClientID     int64
	Date         time.Time
	Value        decimal.Decimal
	Installments int
	InterestRate decimal.Decimal
}

// ContractPatch is a partial contract update. Nil fields are left untouched.
type ContractPatch struct {
	Date         *time.Time
	Value        *decimal.Decimal
	Installments *int
	InterestRate *decimal.Decimal
}

func (p ContractPatch) Empty() bool {
	return p.Date == nil && p.Value == nil && p.Installments == nil && p.InterestRate == nil
}

// CreateClientInput is the payload of a new client. The owner is the caller.
type CreateClientInput struct {
	TaxID          string
	Name           string
	BirthDate      time.Time
	AvailableValue decimal.Decimal
	Status         string
	Phone          *string
	Bank           string
	Description    *string
	Contract       *ContractInput
}

// ClientPatch is a partial client update. Nil pointers are absent fields; the
// optional fields use Nullable so that an explicit null clears them.
type ClientPatch struct {
	TaxID          *string
	Name           *string
	BirthDate      *time.Time
	AvailableValue *decimal.Decimal
	Status         *string
	Phone          Nullable[string]
	Bank           *string
	Description    Nullable[string]
	Contract       *ContractInput
}

// ClientUpdate is the result of an audited update.
type ClientUpdate struct {
	Client  *domain.Client
	Changes []*domain.HistoryEntry
}

type ListClientsInput struct {
	Filter query.ClientFilter
	Page   query.Page
}

// ClientPage is one page of clients. Users is filled for admins only and lists
// every account for owner selection.
type ClientPage struct {
	Items      []*domain.Client
	Total      int64
	Page       int
	Limit      int
	TotalPages int
	Users      []*domain.User
}

type ClientService interface {
	Create(ctx context.Context, actor domain.Identity, in CreateClientInput) (*domain.Client, error)
	Get(ctx context.Context, actor domain.Identity, id int64) (*domain.Client, error)
	List(ctx context.Context, actor domain.Identity, in ListClientsInput) (*ClientPage, error)
	Update(ctx context.Context, actor domain.Identity, id int64, patch ClientPatch) (*ClientUpdate, error)
	Delete(ctx context.Context, actor domain.Identity, id int64) error
}

type ContractService interface {
	Create(ctx context.Context, actor domain.Identity, in ContractInput) (*domain.Contract, error)
	Get(ctx context.Context, actor domain.Identity, id int64) (*domain.Contract, error)
	List(ctx context.Context, actor domain.Identity, clientID int64) ([]*domain.Contract, error)
	Update(ctx context.Context, actor domain.Identity, id int64, patch ContractPatch) (*domain.Contract, error)
	Delete(ctx context.Context, actor domain.Identity, id int64) error
}

type CreateUserInput struct {
	Email    string
	Password string
	Role     domain.Role
}

// UpdateUserInput replaces email and role. Password is re-hashed when non-nil.
type UpdateUserInput struct {
	Email    string
	Role     domain.Role
	Password *string
}

type UserPage struct {
	Items      []*domain.User
	Total      int64
	Page       int
	Limit      int
	TotalPages int
}

type UserService interface {
	Create(ctx context.Context, actor domain.Identity, in CreateUserInput) (*domain.User, error)
	Get(ctx context.Context, actor domain.Identity, id int64) (*domain.User, error)
	List(ctx context.Context, actor domain.Identity, page query.Page) (*UserPage, error)
	Update(ctx context.Context, actor domain.Identity, id int64, in UpdateUserInput) (*domain.User, error)
	Delete(ctx context.Context, actor domain.Identity, id int64) error
}

type HistoryService interface {
	List(ctx context.Context, actor domain.Identity, f HistoryFilter) ([]*domain.HistoryEntry, error)
}

// SalespersonStat is one row of the monthly statistics report.
type SalespersonStat struct {
	UserID      int64
	UserEmail   string
	ClientCount int64
}

type StatsService interface {
	Monthly(ctx context.Context, actor domain.Identity, year, month int) ([]SalespersonStat, error)
}

// ExportFilter selects the clients written to a spreadsheet. Zero values are
// ignored; Limit is clamped by the service.
type ExportFilter struct {
	CreatedFrom time.Time
	CreatedTo   time.Time
	Status      string
	OwnerID     int64
	Bank        string
	Limit       int
}

// ExportResult describes a spreadsheet already written to the caller's writer.
type ExportResult struct {
	Filename string
	Rows     int
}

type ExportService interface {
	Export(ctx context.Context, actor domain.Identity, f ExportFilter, w io.Writer) (*ExportResult, error)
}

// SpreadsheetWriter renders clients as a workbook.
type SpreadsheetWriter interface {
	WriteClients(w io.Writer, clients []*domain.Client) error
}
