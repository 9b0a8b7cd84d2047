// Package mongo implements the repositories on MongoDB. Ids are int64 values
// drawn from a counters collection so both storage drivers expose the same
// identifiers. Multi-document writes require a replica set.
package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/salesdesk/backoffice/internal/core/ports"
)

const defaultTimeout = 10 * time.Second

const (
	collectionUsers     = "users"
	collectionClients   = "clients"
	collectionContracts = "contracts"
	collectionHistory   = "client_history"
	collectionCounters  = "counters"
)

// Config captures the minimal settings required to establish a MongoDB connection.
type Config struct {
	URI      string
	Database string
	Timeout  time.Duration
}

// Connect establishes a MongoDB client, verifies connectivity with a ping, and
// returns both the client and the selected database. A default timeout is
// applied when none is provided.
func Connect(ctx context.Context, cfg Config) (*mongo.Client, *mongo.Database, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}

	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(connectCtx)
		return nil, nil, fmt.Errorf("mongo ping: %w", err)
	}

	db := client.Database(cfg.Database)
	return client, db, nil
}

// NewStore creates the indexes and returns the Mongo-backed repositories.
func NewStore(ctx context.Context, client *mongo.Client, db *mongo.Database) (ports.Store, error) {
	if err := EnsureIndexes(ctx, db); err != nil {
		return ports.Store{}, err
	}

	seq := newSequence(db)
	return ports.Store{
		Users:     NewUserRepository(db, seq),
		Clients:   NewClientRepository(db, seq),
		Contracts: NewContractRepository(db, seq),
		History:   NewHistoryRepository(db, seq),
		Tx:        NewTransactor(client),
		Health:    health{client: client},
		Close:     client.Disconnect,
	}, nil
}

// EnsureIndexes creates the collections' indexes. Creating them up front also
// creates the collections, which cannot happen inside a transaction on older
// servers.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := map[string][]mongo.IndexModel{
		collectionUsers: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "role", Value: 1}}},
		},
		collectionClients: {
			{Keys: bson.D{{Key: "user_id", Value: 1}}},
			{Keys: bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}},
		},
		collectionContracts: {
			{Keys: bson.D{{Key: "client_id", Value: 1}}},
		},
		collectionHistory: {
			{Keys: bson.D{{Key: "client_id", Value: 1}, {Key: "created_at", Value: -1}}},
		},
	}

	for name, models := range indexes {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create %s indexes: %w", name, err)
		}
	}
	return nil
}

type health struct {
	client *mongo.Client
}

func (h health) Ping(ctx context.Context) error {
	return h.client.Ping(ctx, readpref.Primary())
}
