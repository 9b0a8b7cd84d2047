package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/salesdesk/backoffice/internal/core/domain"
	"github.com/salesdesk/backoffice/internal/core/policy"
	"github.com/salesdesk/backoffice/internal/core/ports"
)

// ContractService authorizes contracts through the owner of their client.
type ContractService struct {
	contracts ports.ContractRepository
	clients   ports.ClientRepository
	logger    zerolog.Logger
}

func NewContractService(store ports.Store, logger zerolog.Logger) *ContractService {
	return &ContractService{contracts: store.Contracts, clients: store.Clients, logger: logger}
}

func (s *ContractService) Create(ctx context.Context, actor domain.Identity, in ports.ContractInput) (*domain.Contract, error) {
	if in.ClientID <= 0 {
		return nil, domain.Invalid("clientId", "is required")
	}
	contract, err := newContract(in)
	if err != nil {
		return nil, err
	}

	client, err := s.clients.FindByID(ctx, in.ClientID)
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(actor, policy.ResourceContract, policy.ActionCreate, client.OwnerID); err != nil {
		return nil, err
	}

	contract.ClientID = client.ID
	contract.CreatedAt = nowUTC()
	if err := s.contracts.Create(ctx, contract); err != nil {
		return nil, err
	}

	s.logger.Info().Int64("contract_id", contract.ID).Int64("client_id", client.ID).Int64("actor_id", actor.ID).Msg("contract created")
	return s.contracts.FindByID(ctx, contract.ID)
}

func (s *ContractService) Get(ctx context.Context, actor domain.Identity, id int64) (*domain.Contract, error) {
	contract, err := s.contracts.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(actor, policy.ResourceContract, policy.ActionRead, clientOwner(contract)); err != nil {
		return nil, err
	}
	return contract, nil
}

// List returns contracts, optionally for one client. Salespeople only see
// contracts of their own clients.
func (s *ContractService) List(ctx context.Context, actor domain.Identity, clientID int64) ([]*domain.Contract, error) {
	if err := policy.Authorize(actor, policy.ResourceContract, policy.ActionList, policy.NoOwner); err != nil {
		return nil, err
	}
	f := ports.ContractFilter{ClientID: clientID}
	if !actor.IsAdmin() {
		f.OwnerID = actor.ID
	}
	return s.contracts.List(ctx, f)
}

func (s *ContractService) Update(ctx context.Context, actor domain.Identity, id int64, patch ports.ContractPatch) (*domain.Contract, error) {
	if patch.Empty() {
		return nil, domain.Invalid("", "no fields to update")
	}

	contract, err := s.contracts.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(actor, policy.ResourceContract, policy.ActionUpdate, clientOwner(contract)); err != nil {
		return nil, err
	}

	if patch.Date != nil {
		if patch.Date.IsZero() {
			return nil, domain.Invalid("dataContrato", "is required")
		}
		contract.Date = domain.CalendarDate(*patch.Date)
	}
	if patch.Value != nil {
		contract.Value = *patch.Value
	}
	if patch.Installments != nil {
		contract.Installments = *patch.Installments
	}
	if patch.InterestRate != nil {
		contract.InterestRate = *patch.InterestRate
	}
	if err := validateContract(contract); err != nil {
		return nil, err
	}

	if err := s.contracts.Update(ctx, contract); err != nil {
		return nil, err
	}
	return contract, nil
}

// Delete is admin-only and authorized before the lookup.
func (s *ContractService) Delete(ctx context.Context, actor domain.Identity, id int64) error {
	if err := policy.Authorize(actor, policy.ResourceContract, policy.ActionDelete, policy.NoOwner); err != nil {
		return err
	}
	if _, err := s.contracts.FindByID(ctx, id); err != nil {
		return err
	}
	if err := s.contracts.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Int64("contract_id", id).Int64("actor_id", actor.ID).Msg("contract deleted")
	return nil
}

func clientOwner(k *domain.Contract) int64 {
	if k.Client == nil {
		return policy.NoOwner
	}
	return k.Client.OwnerID
}

func newContract(in ports.ContractInput) (*domain.Contract, error) {
	if in.Date.IsZero() {
		return nil, domain.Invalid("dataContrato", "is required")
	}
	k := &domain.Contract{
		Date:         domain.CalendarDate(in.Date),
		Value:        in.Value,
		Installments: in.Installments,
		InterestRate: in.InterestRate,
	}
	if err := validateContract(k); err != nil {
		return nil, err
	}
	return k, nil
}

func validateContract(k *domain.Contract) error {
	switch {
	case k.Installments < 1:
		return domain.Invalid("parcelas", "must be at least 1")
	case k.Value.IsNegative():
		return domain.Invalid("valorContrato", "must not be negative")
	case k.InterestRate.IsNegative():
		return domain.Invalid("juros", "must not be negative")
	}
	return nil
}
