package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/salesdesk/backoffice/internal/core/domain"
	"github.com/salesdesk/backoffice/internal/core/ports"
	"github.com/salesdesk/backoffice/internal/core/query"
)

type ClientRepository struct {
	db  *mongo.Database
	col *mongo.Collection
	seq *sequence
}

func NewClientRepository(db *mongo.Database, seq *sequence) *ClientRepository {
	return &ClientRepository{db: db, col: db.Collection(collectionClients), seq: seq}
}

type mongoClient struct {
	ID             int64                `bson:"_id"`
	TaxID          string               `bson:"cpf"`
	Name           string               `bson:"nome"`
	BirthDate      time.Time            `bson:"data_nascimento"`
	AvailableValue primitive.Decimal128 `bson:"valor_disponivel"`
	Status         string               `bson:"status"`
	Phone          *string              `bson:"telefone"`
	Bank           string               `bson:"banco"`
	Description    *string              `bson:"descricao"`
	OwnerID        int64                `bson:"user_id"`
	CreatedAt      time.Time            `bson:"created_at"`
	UpdatedAt      time.Time            `bson:"updated_at"`
}

func newMongoClient(c *domain.Client) (mongoClient, error) {
	value, err := toDecimal128(c.AvailableValue)
	if err != nil {
		return mongoClient{}, err
	}
	return mongoClient{
		ID:             c.ID,
		TaxID:          c.TaxID,
		Name:           c.Name,
		BirthDate:      c.BirthDate,
		AvailableValue: value,
		Status:         c.Status,
		Phone:          c.Phone,
		Bank:           c.Bank,
		Description:    c.Description,
		OwnerID:        c.OwnerID,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}, nil
}

func (d *mongoClient) toDomain() (*domain.Client, error) {
	value, err := fromDecimal128(d.AvailableValue)
	if err != nil {
		return nil, err
	}
	return &domain.Client{
		ID:             d.ID,
		TaxID:          d.TaxID,
		Name:           d.Name,
		BirthDate:      utc(d.BirthDate),
		AvailableValue: value,
		Status:         d.Status,
		Phone:          d.Phone,
		Bank:           d.Bank,
		Description:    d.Description,
		OwnerID:        d.OwnerID,
		CreatedAt:      utc(d.CreatedAt),
		UpdatedAt:      utc(d.UpdatedAt),
	}, nil
}

func (r *ClientRepository) Create(ctx context.Context, c *domain.Client) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	id, err := r.seq.next(ctx, collectionClients)
	if err != nil {
		return err
	}
	c.ID = id

	doc, err := newMongoClient(c)
	if err != nil {
		return err
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert client: %w", err)
	}
	return nil
}

func (r *ClientRepository) FindByID(ctx context.Context, id int64) (*domain.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc mongoClient
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrClientNotFound
		}
		return nil, fmt.Errorf("find client: %w", err)
	}
	c, err := doc.toDomain()
	if err != nil {
		return nil, err
	}

	emails, err := emailsByID(ctx, r.db, []int64{c.OwnerID})
	if err != nil {
		return nil, err
	}
	c.OwnerEmail = emails[c.OwnerID]

	contracts, err := findContracts(ctx, r.db, bson.M{"client_id": id})
	if err != nil {
		return nil, err
	}
	c.Contracts = make([]domain.Contract, 0, len(contracts))
	for _, k := range contracts {
		c.Contracts = append(c.Contracts, *k)
	}
	return c, nil
}

func (r *ClientRepository) List(ctx context.Context, f query.ClientFilter, page query.Page) ([]*domain.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(int64(page.Offset())).
		SetLimit(int64(page.Limit))

	cur, err := r.col.Find(ctx, clientFilter(f), opts)
	if err != nil {
		return nil, fmt.Errorf("find clients: %w", err)
	}
	var docs []mongoClient
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode clients: %w", err)
	}

	out := make([]*domain.Client, 0, len(docs))
	owners := make([]int64, 0, len(docs))
	for i := range docs {
		c, err := docs[i].toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, c)
		owners = append(owners, c.OwnerID)
	}

	emails, err := emailsByID(ctx, r.db, owners)
	if err != nil {
		return nil, err
	}
	for _, c := range out {
		c.OwnerEmail = emails[c.OwnerID]
	}
	return out, nil
}

func (r *ClientRepository) Count(ctx context.Context, f query.ClientFilter) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	n, err := r.col.CountDocuments(ctx, clientFilter(f))
	if err != nil {
		return 0, fmt.Errorf("count clients: %w", err)
	}
	return n, nil
}

func (r *ClientRepository) Update(ctx context.Context, c *domain.Client) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	value, err := toDecimal128(c.AvailableValue)
	if err != nil {
		return err
	}
	res, err := r.col.UpdateByID(ctx, c.ID, bson.M{"$set": bson.M{
		"cpf":              c.TaxID,
		"nome":             c.Name,
		"data_nascimento":  c.BirthDate,
		"valor_disponivel": value,
		"status":           c.Status,
		"telefone":         c.Phone,
		"banco":            c.Bank,
		"descricao":        c.Description,
		"updated_at":       c.UpdatedAt,
	}})
	if err != nil {
		return fmt.Errorf("update client: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrClientNotFound
	}
	return nil
}

func (r *ClientRepository) Delete(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete client: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrClientNotFound
	}
	return nil
}

func (r *ClientRepository) CountCreatedByOwner(ctx context.Context, from, to time.Time) (map[int64]int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"created_at": bson.M{"$gte": from, "$lt": to}}}},
		{{Key: "$group", Value: bson.M{"_id": "$user_id", "count": bson.M{"$sum": 1}}}},
	}
	cur, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate client counts: %w", err)
	}
	var rows []struct {
		OwnerID int64 `bson:"_id"`
		Count   int64 `bson:"count"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decode client counts: %w", err)
	}

	out := make(map[int64]int64, len(rows))
	for _, row := range rows {
		out[row.OwnerID] = row.Count
	}
	return out, nil
}

// clientRefs resolves the short client projection for contracts and history.
func clientRefs(ctx context.Context, db *mongo.Database, ids []int64) (map[int64]*domain.ClientRef, error) {
	out := make(map[int64]*domain.ClientRef, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	cur, err := db.Collection(collectionClients).Find(ctx,
		bson.M{"_id": bson.M{"$in": ids}},
		options.Find().SetProjection(bson.M{"nome": 1, "cpf": 1, "user_id": 1}),
	)
	if err != nil {
		return nil, fmt.Errorf("find client refs: %w", err)
	}
	var docs []mongoClient
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode client refs: %w", err)
	}
	for _, d := range docs {
		out[d.ID] = &domain.ClientRef{ID: d.ID, Name: d.Name, TaxID: d.TaxID, OwnerID: d.OwnerID}
	}
	return out, nil
}

var _ ports.ClientRepository = (*ClientRepository)(nil)
