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
)

type ContractRepository struct {
	db  *mongo.Database
	col *mongo.Collection
	seq *sequence
}

func NewContractRepository(db *mongo.Database, seq *sequence) *ContractRepository {
	return &ContractRepository{db: db, col: db.Collection(collectionContracts), seq: seq}
}

type mongoContract struct {
	ID           int64                `bson:"_id"`
	ClientID     int64                `bson:"client_id"`
	Date         time.Time            `bson:"data_contrato"`
	Value        primitive.Decimal128 `bson:"valor_contrato"`
	Installments int                  `bson:"parcelas"`
	InterestRate primitive.Decimal128 `bson:"juros"`
	CreatedAt    time.Time            `bson:"created_at"`
}

func newMongoContract(k *domain.Contract) (mongoContract, error) {
	value, err := toDecimal128(k.Value)
	if err != nil {
		return mongoContract{}, err
	}
	rate, err := toDecimal128(k.InterestRate)
	if err != nil {
		return mongoContract{}, err
	}
	return mongoContract{
		ID:           k.ID,
		ClientID:     k.ClientID,
		Date:         k.Date,
		Value:        value,
		Installments: k.Installments,
		InterestRate: rate,
		CreatedAt:    k.CreatedAt,
	}, nil
}

func (d *mongoContract) toDomain() (*domain.Contract, error) {
	value, err := fromDecimal128(d.Value)
	if err != nil {
		return nil, err
	}
	rate, err := fromDecimal128(d.InterestRate)
	if err != nil {
		return nil, err
	}
	return &domain.Contract{
		ID:           d.ID,
		ClientID:     d.ClientID,
		Date:         utc(d.Date),
		Value:        value,
		Installments: d.Installments,
		InterestRate: rate,
		CreatedAt:    utc(d.CreatedAt),
	}, nil
}

func findContracts(ctx context.Context, db *mongo.Database, filter bson.M) ([]*domain.Contract, error) {
	opts := options.Find().SetSort(bson.D{{Key: "data_contrato", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := db.Collection(collectionContracts).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find contracts: %w", err)
	}
	var docs []mongoContract
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode contracts: %w", err)
	}
	out := make([]*domain.Contract, 0, len(docs))
	for i := range docs {
		k, err := docs[i].toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	return out, nil
}

func (r *ContractRepository) withClients(ctx context.Context, contracts []*domain.Contract) error {
	ids := make([]int64, 0, len(contracts))
	for _, k := range contracts {
		ids = append(ids, k.ClientID)
	}
	refs, err := clientRefs(ctx, r.db, ids)
	if err != nil {
		return err
	}
	for _, k := range contracts {
		k.Client = refs[k.ClientID]
	}
	return nil
}

func (r *ContractRepository) Create(ctx context.Context, k *domain.Contract) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	id, err := r.seq.next(ctx, collectionContracts)
	if err != nil {
		return err
	}
	k.ID = id

	doc, err := newMongoContract(k)
	if err != nil {
		return err
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert contract: %w", err)
	}
	return nil
}

func (r *ContractRepository) FindByID(ctx context.Context, id int64) (*domain.Contract, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc mongoContract
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrContractNotFound
		}
		return nil, fmt.Errorf("find contract: %w", err)
	}
	k, err := doc.toDomain()
	if err != nil {
		return nil, err
	}
	if err := r.withClients(ctx, []*domain.Contract{k}); err != nil {
		return nil, err
	}
	return k, nil
}

func (r *ContractRepository) List(ctx context.Context, f ports.ContractFilter) ([]*domain.Contract, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{}
	if f.OwnerID != 0 {
		owned, err := r.ownedClientIDs(ctx, f.OwnerID)
		if err != nil {
			return nil, err
		}
		filter["client_id"] = bson.M{"$in": owned}
	}
	if f.ClientID != 0 {
		if in, ok := filter["client_id"]; ok {
			filter["$and"] = bson.A{bson.M{"client_id": in}, bson.M{"client_id": f.ClientID}}
			delete(filter, "client_id")
		} else {
			filter["client_id"] = f.ClientID
		}
	}

	contracts, err := findContracts(ctx, r.db, filter)
	if err != nil {
		return nil, err
	}
	if err := r.withClients(ctx, contracts); err != nil {
		return nil, err
	}
	return contracts, nil
}

func (r *ContractRepository) ownedClientIDs(ctx context.Context, ownerID int64) ([]int64, error) {
	cur, err := r.db.Collection(collectionClients).Find(ctx,
		bson.M{"user_id": ownerID},
		options.Find().SetProjection(bson.M{"_id": 1}),
	)
	if err != nil {
		return nil, fmt.Errorf("find owned clients: %w", err)
	}
	var docs []struct {
		ID int64 `bson:"_id"`
	}
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode owned clients: %w", err)
	}
	ids := make([]int64, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.ID)
	}
	return ids, nil
}

func (r *ContractRepository) Update(ctx context.Context, k *domain.Contract) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc, err := newMongoContract(k)
	if err != nil {
		return err
	}
	res, err := r.col.UpdateByID(ctx, k.ID, bson.M{"$set": bson.M{
		"data_contrato":  doc.Date,
		"valor_contrato": doc.Value,
		"parcelas":       doc.Installments,
		"juros":          doc.InterestRate,
	}})
	if err != nil {
		return fmt.Errorf("update contract: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrContractNotFound
	}
	return nil
}

func (r *ContractRepository) Delete(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete contract: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrContractNotFound
	}
	return nil
}

func (r *ContractRepository) DeleteByClient(ctx context.Context, clientID int64) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.DeleteMany(ctx, bson.M{"client_id": clientID}); err != nil {
		return fmt.Errorf("delete client contracts: %w", err)
	}
	return nil
}
