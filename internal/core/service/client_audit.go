package service

import (
	"context"
	"fmt"
	"time"

	"github.com/salesdesk/backoffice/internal/core/domain"
	"github.com/salesdesk/backoffice/internal/core/policy"
	"github.com/salesdesk/backoffice/internal/core/ports"
)

// Update applies patch to the client and records one history entry per field
// whose normalized value changed. Field writes, history entries and the
// optional nested contract commit together. UpdatedAt is refreshed even when
// nothing changed.
func (s *ClientService) Update(ctx context.Context, actor domain.Identity, id int64, patch ports.ClientPatch) (*ports.ClientUpdate, error) {
	var contract *domain.Contract
	if patch.Contract != nil {
		var err error
		if contract, err = newContract(*patch.Contract); err != nil {
			return nil, err
		}
	}

	var entries []*domain.HistoryEntry
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		current, err := s.clients.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if err := policy.Authorize(actor, policy.ResourceClient, policy.ActionUpdate, current.OwnerID); err != nil {
			return err
		}

		changes, err := applyPatch(current, patch)
		if err != nil {
			return err
		}

		now := s.now()
		current.UpdatedAt = now
		if err := s.clients.Update(ctx, current); err != nil {
			return err
		}

		entries = make([]*domain.HistoryEntry, 0, len(changes))
		for _, ch := range changes {
			entries = append(entries, &domain.HistoryEntry{
				ClientID:  id,
				Field:     ch.field,
				OldValue:  ch.old,
				NewValue:  ch.new,
				UserID:    actor.ID,
				CreatedAt: now,
			})
		}
		if len(entries) > 0 {
			if err := s.history.InsertMany(ctx, entries); err != nil {
				return err
			}
		}

		if contract != nil {
			contract.ClientID = id
			contract.CreatedAt = now
			return s.contracts.Create(ctx, contract)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	updated, err := s.clients.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("reload client %d: %w", id, err)
	}

	s.logger.Info().Int64("client_id", id).Int64("actor_id", actor.ID).Int("changes", len(entries)).Msg("client updated")
	return &ports.ClientUpdate{Client: updated, Changes: entries}, nil
}

type fieldChange struct {
	field string
	old   *string
	new   *string
}

// applyPatch normalizes every present field, writes it into c, and returns the
// fields whose stringified value differs from the stored one.
func applyPatch(c *domain.Client, p ports.ClientPatch) ([]fieldChange, error) {
	var changes []fieldChange
	track := func(field string, old, next *string) bool {
		if sameValue(old, next) {
			return false
		}
		changes = append(changes, fieldChange{field: field, old: old, new: next})
		return true
	}

	required := []struct {
		field string
		in    *string
		dst   *string
	}{
		{domain.FieldTaxID, p.TaxID, &c.TaxID},
		{domain.FieldName, p.Name, &c.Name},
		{domain.FieldStatus, p.Status, &c.Status},
		{domain.FieldBank, p.Bank, &c.Bank},
	}
	for _, f := range required {
		if f.in == nil {
			continue
		}
		v, err := requiredString(f.field, *f.in)
		if err != nil {
			return nil, err
		}
		old := *f.dst
		if track(f.field, &old, &v) {
			*f.dst = v
		}
	}

	if p.BirthDate != nil {
		next := domain.CalendarDate(*p.BirthDate)
		if track(domain.FieldBirthDate, dayString(c.BirthDate), dayString(next)) {
			c.BirthDate = next
		}
	}

	if p.AvailableValue != nil {
		if p.AvailableValue.IsNegative() {
			return nil, domain.Invalid(domain.FieldAvailableValue, "must not be negative")
		}
		old, next := c.AvailableValue.String(), p.AvailableValue.String()
		if track(domain.FieldAvailableValue, &old, &next) {
			c.AvailableValue = *p.AvailableValue
		}
	}

	optional := []struct {
		field string
		in    ports.Nullable[string]
		dst   **string
	}{
		{domain.FieldPhone, p.Phone, &c.Phone},
		{domain.FieldDescription, p.Description, &c.Description},
	}
	for _, f := range optional {
		if !f.in.Set {
			continue
		}
		next := optionalString(f.in.Value)
		if track(f.field, *f.dst, next) {
			*f.dst = next
		}
	}

	return changes, nil
}

func sameValue(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func dayString(t time.Time) *string {
	if t.IsZero() {
		return nil
	}
	s := domain.CalendarDay(t)
	return &s
}
