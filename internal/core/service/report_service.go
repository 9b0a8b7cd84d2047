package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/salesdesk/backoffice/internal/core/domain"
	"github.com/salesdesk/backoffice/internal/core/policy"
	"github.com/salesdesk/backoffice/internal/core/ports"
	"github.com/salesdesk/backoffice/internal/core/query"
)

// MaxExportRows bounds a single spreadsheet export.
const MaxExportRows = 5000

func nowUTC() time.Time {
	return time.Now().UTC()
}

// HistoryService exposes the client audit trail to admins.
type HistoryService struct {
	history ports.HistoryRepository
}

func NewHistoryService(store ports.Store) *HistoryService {
	return &HistoryService{history: store.History}
}

func (s *HistoryService) List(ctx context.Context, actor domain.Identity, f ports.HistoryFilter) ([]*domain.HistoryEntry, error) {
	if err := policy.Authorize(actor, policy.ResourceHistory, policy.ActionList, policy.NoOwner); err != nil {
		return nil, err
	}
	return s.history.List(ctx, f)
}

// StatsService reports clients created per salesperson.
type StatsService struct {
	users   ports.UserRepository
	clients ports.ClientRepository
}

func NewStatsService(store ports.Store) *StatsService {
	return &StatsService{users: store.Users, clients: store.Clients}
}

// Monthly counts clients created in [first day of month, first day of next
// month) UTC for every salesperson, including those with zero.
func (s *StatsService) Monthly(ctx context.Context, actor domain.Identity, year, month int) ([]ports.SalespersonStat, error) {
	if err := policy.Authorize(actor, policy.ResourceStatistics, policy.ActionRead, policy.NoOwner); err != nil {
		return nil, err
	}
	if month < 1 || month > 12 {
		return nil, domain.Invalid("month", "must be between 1 and 12")
	}
	if year < 1 || year > 9999 {
		return nil, domain.Invalid("year", "out of range")
	}

	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	counts, err := s.clients.CountCreatedByOwner(ctx, from, to)
	if err != nil {
		return nil, err
	}
	sellers, err := s.users.ListByRole(ctx, domain.RoleSalesperson)
	if err != nil {
		return nil, err
	}

	out := make([]ports.SalespersonStat, 0, len(sellers))
	for _, u := range sellers {
		out = append(out, ports.SalespersonStat{UserID: u.ID, UserEmail: u.Email, ClientCount: counts[u.ID]})
	}
	return out, nil
}

// ExportService writes filtered clients to a spreadsheet.
type ExportService struct {
	clients ports.ClientRepository
	writer  ports.SpreadsheetWriter
	logger  zerolog.Logger
	now     func() time.Time
}

func NewExportService(store ports.Store, writer ports.SpreadsheetWriter, logger zerolog.Logger) *ExportService {
	return &ExportService{clients: store.Clients, writer: writer, logger: logger, now: nowUTC}
}

func (s *ExportService) Export(ctx context.Context, actor domain.Identity, f ports.ExportFilter, w io.Writer) (*ports.ExportResult, error) {
	if err := policy.Authorize(actor, policy.ResourceExport, policy.ActionRead, policy.NoOwner); err != nil {
		return nil, err
	}

	opts := []query.Option{query.StatusIs(f.Status), query.BankIs(f.Bank)}
	if !f.CreatedFrom.IsZero() {
		opts = append(opts, query.CreatedFrom(f.CreatedFrom))
	}
	if !f.CreatedTo.IsZero() {
		opts = append(opts, query.CreatedThrough(f.CreatedTo))
	}
	if f.OwnerID != 0 {
		opts = append(opts, query.OwnedBy(f.OwnerID))
	}

	page := query.Page{Number: 1, Limit: exportLimit(f.Limit)}
	clients, err := s.clients.List(ctx, query.Build(opts...), page)
	if err != nil {
		return nil, err
	}

	if err := s.writer.WriteClients(w, clients); err != nil {
		return nil, fmt.Errorf("write spreadsheet: %w", err)
	}

	res := &ports.ExportResult{
		Filename: fmt.Sprintf("clientes_export_%d.xlsx", s.now().UnixMilli()),
		Rows:     len(clients),
	}
	s.logger.Info().Int("rows", res.Rows).Int64("actor_id", actor.ID).Msg("clients exported")
	return res, nil
}

func exportLimit(n int) int {
	switch {
	case n == 0:
		return MaxExportRows
	case n < 1:
		return 1
	case n > MaxExportRows:
		return MaxExportRows
	}
	return n
}
