package service

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/salesdesk/backoffice/internal/core/domain"
	"github.com/salesdesk/backoffice/internal/core/policy"
	"github.com/salesdesk/backoffice/internal/core/ports"
)

type ClientService struct {
	clients   ports.ClientRepository
	contracts ports.ContractRepository
	history   ports.HistoryRepository
	users     ports.UserRepository
	tx        ports.Transactor
	logger    zerolog.Logger
	now       func() time.Time
}

func NewClientService(store ports.Store, logger zerolog.Logger) *ClientService {
	return &ClientService{
		clients:   store.Clients,
		contracts: store.Contracts,
		history:   store.History,
		users:     store.Users,
		tx:        store.Tx,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *ClientService) Create(ctx context.Context, actor domain.Identity, in ports.CreateClientInput) (*domain.Client, error) {
	if err := policy.Authorize(actor, policy.ResourceClient, policy.ActionCreate, policy.NoOwner); err != nil {
		return nil, err
	}

	client, err := newClient(in)
	if err != nil {
		return nil, err
	}
	var contract *domain.Contract
	if in.Contract != nil {
		if contract, err = newContract(*in.Contract); err != nil {
			return nil, err
		}
	}

	now := s.now()
	client.OwnerID = actor.ID
	client.CreatedAt = now
	client.UpdatedAt = now

	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.clients.Create(ctx, client); err != nil {
			return err
		}
		if contract == nil {
			return nil
		}
		contract.ClientID = client.ID
		contract.CreatedAt = now
		return s.contracts.Create(ctx, contract)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int64("client_id", client.ID).Int64("actor_id", actor.ID).Msg("client created")
	return s.clients.FindByID(ctx, client.ID)
}

// Get looks the client up first and then authorizes, so a missing id is a 404
// for everyone.
func (s *ClientService) Get(ctx context.Context, actor domain.Identity, id int64) (*domain.Client, error) {
	client, err := s.clients.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(actor, policy.ResourceClient, policy.ActionRead, client.OwnerID); err != nil {
		return nil, err
	}
	return client, nil
}

// List returns one page of the clients actor may see. The page and the total
// are read from the same snapshot.
func (s *ClientService) List(ctx context.Context, actor domain.Identity, in ports.ListClientsInput) (*ports.ClientPage, error) {
	if err := policy.Authorize(actor, policy.ResourceClient, policy.ActionList, policy.NoOwner); err != nil {
		return nil, err
	}

	filter := policy.ScopeClients(actor, in.Filter)
	out := &ports.ClientPage{Page: in.Page.Number, Limit: in.Page.Limit}

	err := s.tx.WithSnapshot(ctx, func(ctx context.Context) error {
		var err error
		if out.Items, err = s.clients.List(ctx, filter, in.Page); err != nil {
			return err
		}
		out.Total, err = s.clients.Count(ctx, filter)
		return err
	})
	if err != nil {
		return nil, err
	}
	out.TotalPages = in.Page.TotalPages(out.Total)

	if actor.IsAdmin() {
		if out.Users, err = s.users.ListAll(ctx); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Delete removes the client and its contracts. History is kept.
func (s *ClientService) Delete(ctx context.Context, actor domain.Identity, id int64) error {
	if err := policy.Authorize(actor, policy.ResourceClient, policy.ActionDelete, policy.NoOwner); err != nil {
		return err
	}

	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.clients.FindByID(ctx, id); err != nil {
			return err
		}
		if err := s.contracts.DeleteByClient(ctx, id); err != nil {
			return err
		}
		return s.clients.Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	s.logger.Info().Int64("client_id", id).Int64("actor_id", actor.ID).Msg("client deleted")
	return nil
}

func newClient(in ports.CreateClientInput) (*domain.Client, error) {
	c := &domain.Client{
		AvailableValue: in.AvailableValue,
		Phone:          optionalString(in.Phone),
		Description:    optionalString(in.Description),
	}

	var err error
	if c.TaxID, err = requiredString(domain.FieldTaxID, in.TaxID); err != nil {
		return nil, err
	}
	if c.Name, err = requiredString(domain.FieldName, in.Name); err != nil {
		return nil, err
	}
	if c.Status, err = requiredString(domain.FieldStatus, in.Status); err != nil {
		return nil, err
	}
	if c.Bank, err = requiredString(domain.FieldBank, in.Bank); err != nil {
		return nil, err
	}
	if in.BirthDate.IsZero() {
		return nil, domain.Invalid(domain.FieldBirthDate, "is required")
	}
	c.BirthDate = domain.CalendarDate(in.BirthDate)
	if c.AvailableValue.IsNegative() {
		return nil, domain.Invalid(domain.FieldAvailableValue, "must not be negative")
	}
	return c, nil
}

func requiredString(field, v string) (string, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return "", domain.Invalid(field, "is required")
	}
	return v, nil
}

// optionalString trims v and maps blank values to nil.
func optionalString(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	if t == "" {
		return nil
	}
	return &t
}
