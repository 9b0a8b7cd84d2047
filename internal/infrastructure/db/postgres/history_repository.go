package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/salesdesk/backoffice/internal/core/domain"
	"github.com/salesdesk/backoffice/internal/core/ports"
)

// HistoryRepository is append-only: it never updates or deletes entries.
type HistoryRepository struct {
	db *gorm.DB
}

func NewHistoryRepository(db *gorm.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

func (r *HistoryRepository) InsertMany(ctx context.Context, entries []*domain.HistoryEntry) error {
	if len(entries) == 0 {
		return nil
	}
	rows := make([]historyRow, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, historyRow{
			ClientID:  e.ClientID,
			Field:     e.Field,
			OldValue:  e.OldValue,
			NewValue:  e.NewValue,
			UserID:    e.UserID,
			CreatedAt: e.CreatedAt,
		})
	}
	if err := conn(ctx, r.db).Omit("User", "Client").Create(&rows).Error; err != nil {
		return fmt.Errorf("insert history: %w", err)
	}
	for i := range rows {
		entries[i].ID = rows[i].ID
	}
	return nil
}

func (r *HistoryRepository) List(ctx context.Context, f ports.HistoryFilter) ([]*domain.HistoryEntry, error) {
	q := conn(ctx, r.db).
		Preload("User").
		Preload("Client", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "nome", "cpf", "user_id")
		}).
		Order("created_at DESC, id DESC")
	if f.ClientID != 0 {
		q = q.Where("client_id = ?", f.ClientID)
	}

	var rows []historyRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	out := make([]*domain.HistoryEntry, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toDomain())
	}
	return out, nil
}
