package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/salesdesk/backoffice/internal/core/domain"
	"github.com/salesdesk/backoffice/internal/core/ports"
)

// HistoryRepository is append-only: it never updates or deletes entries.
type HistoryRepository struct {
	db  *mongo.Database
	col *mongo.Collection
	seq *sequence
}

func NewHistoryRepository(db *mongo.Database, seq *sequence) *HistoryRepository {
	return &HistoryRepository{db: db, col: db.Collection(collectionHistory), seq: seq}
}

type mongoHistoryEntry struct {
	ID        int64     `bson:"_id"`
	ClientID  int64     `bson:"client_id"`
	Field     string    `bson:"field"`
	OldValue  *string   `bson:"old_value"`
	NewValue  *string   `bson:"new_value"`
	UserID    int64     `bson:"user_id"`
	CreatedAt time.Time `bson:"created_at"`
}

func (r *HistoryRepository) InsertMany(ctx context.Context, entries []*domain.HistoryEntry) error {
	if len(entries) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	first, err := r.seq.reserve(ctx, collectionHistory, len(entries))
	if err != nil {
		return err
	}

	docs := make([]interface{}, 0, len(entries))
	for i, e := range entries {
		e.ID = first + int64(i)
		docs = append(docs, mongoHistoryEntry{
			ID:        e.ID,
			ClientID:  e.ClientID,
			Field:     e.Field,
			OldValue:  e.OldValue,
			NewValue:  e.NewValue,
			UserID:    e.UserID,
			CreatedAt: e.CreatedAt,
		})
	}
	if _, err := r.col.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("insert history: %w", err)
	}
	return nil
}

func (r *HistoryRepository) List(ctx context.Context, f ports.HistoryFilter) ([]*domain.HistoryEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{}
	if f.ClientID != 0 {
		filter["client_id"] = f.ClientID
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find history: %w", err)
	}
	var docs []mongoHistoryEntry
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}

	userIDs := make([]int64, 0, len(docs))
	clientIDs := make([]int64, 0, len(docs))
	for _, d := range docs {
		userIDs = append(userIDs, d.UserID)
		clientIDs = append(clientIDs, d.ClientID)
	}
	emails, err := emailsByID(ctx, r.db, userIDs)
	if err != nil {
		return nil, err
	}
	refs, err := clientRefs(ctx, r.db, clientIDs)
	if err != nil {
		return nil, err
	}

	out := make([]*domain.HistoryEntry, 0, len(docs))
	for _, d := range docs {
		out = append(out, &domain.HistoryEntry{
			ID:        d.ID,
			ClientID:  d.ClientID,
			Field:     d.Field,
			OldValue:  d.OldValue,
			NewValue:  d.NewValue,
			UserID:    d.UserID,
			CreatedAt: utc(d.CreatedAt),
			UserEmail: emails[d.UserID],
			Client:    refs[d.ClientID],
		})
	}
	return out, nil
}
