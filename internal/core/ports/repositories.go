package ports

import (
	"context"
	"time"

	"github.com/salesdesk/backoffice/internal/core/domain"
	"github.com/salesdesk/backoffice/internal/core/query"
)

// UserRepository persists back-office accounts. Emails are stored normalized.
type UserRepository interface {
	// Create assigns u.ID. Returns domain.ErrEmailTaken on a duplicate email.
	Create(ctx context.Context, u *domain.User) error
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	// List returns a page of users ordered by id ascending, plus the total count.
	List(ctx context.Context, page query.Page) ([]*domain.User, int64, error)
	// ListAll returns every user ordered by email.
	ListAll(ctx context.Context) ([]*domain.User, error)
	ListByRole(ctx context.Context, role domain.Role) ([]*domain.User, error)
	Update(ctx context.Context, u *domain.User) error
	Delete(ctx context.Context, id int64) error
}

// ClientRepository persists client records.
type ClientRepository interface {
	Create(ctx context.Context, c *domain.Client) error
	// FindByID returns the client with OwnerEmail and Contracts populated.
	FindByID(ctx context.Context, id int64) (*domain.Client, error)
	// List returns clients matching f, newest first (createdAt desc, id desc),
	// with OwnerEmail populated.
	List(ctx context.Context, f query.ClientFilter, page query.Page) ([]*domain.Client, error)
	Count(ctx context.Context, f query.ClientFilter) (int64, error)
	// Update writes every mutable column of c, including UpdatedAt.
	Update(ctx context.Context, c *domain.Client) error
	Delete(ctx context.Context, id int64) error
	// CountCreatedByOwner counts clients created in [from, to) per owner id.
	CountCreatedByOwner(ctx context.Context, from, to time.Time) (map[int64]int64, error)
}

// ContractFilter narrows contract listings. Zero values are ignored.
type ContractFilter struct {
	ClientID int64
	OwnerID  int64 // owner of the contract's client
}

// ContractRepository persists contracts.
type ContractRepository interface {
	Create(ctx context.Context, k *domain.Contract) error
	// FindByID returns the contract with its Client reference populated.
	FindByID(ctx context.Context, id int64) (*domain.Contract, error)
	// List returns contracts with Client populated, newest contract date first.
	List(ctx context.Context, f ContractFilter) ([]*domain.Contract, error)
	Update(ctx context.Context, k *domain.Contract) error
	Delete(ctx context.Context, id int64) error
	DeleteByClient(ctx context.Context, clientID int64) error
}

// HistoryFilter narrows history listings. A zero ClientID lists everything.
type HistoryFilter struct {
	ClientID int64
}

// HistoryRepository is append-only.
type HistoryRepository interface {
	InsertMany(ctx context.Context, entries []*domain.HistoryEntry) error
	// List returns entries newest first with UserEmail and Client populated.
	List(ctx context.Context, f HistoryFilter) ([]*domain.HistoryEntry, error)
}

// Transactor runs fn with a context carrying a storage transaction. Repository
// calls made with that context take part in it. Nested calls reuse the outer
// transaction.
type Transactor interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
	// WithSnapshot runs fn in a read-only transaction so that every read sees
	// the same snapshot.
	WithSnapshot(ctx context.Context, fn func(ctx context.Context) error) error
}

// Pinger is implemented by every external dependency checked by readiness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Store bundles one storage backend's repositories.
type Store struct {
	Users     UserRepository
	Clients   ClientRepository
	Contracts ContractRepository
	History   HistoryRepository
	Tx        Transactor
	Health    Pinger
	Close     func(ctx context.Context) error
}
