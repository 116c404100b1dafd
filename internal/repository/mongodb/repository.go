package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrNotFound indicates the requested document does not exist or is not
// visible to the caller's farm.
var ErrNotFound = errors.New("document not found")

const (
	farmsCollection      = "farms"
	pasturesCollection   = "pastures"
	animalLotsCollection = "animal_lots"
	snapshotsCollection  = "load_snapshots"
	overridesCollection  = "weight_overrides"
	configsCollection    = "recategorization_configs"
	eventsCollection     = "events"
	expensesCollection   = "expenses"
)

// Repository is the MongoDB-backed storage layer shared by every service.
type Repository struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewRepository connects to MongoDB, verifies the connection and prepares
// the collection indexes.
func NewRepository(ctx context.Context, uri, dbName string) (*Repository, error) {
	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	repo := &Repository{client: client, db: client.Database(dbName)}

	if err := repo.ensureIndexes(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure indexes: %w", err)
	}

	return repo, nil
}

func (r *Repository) ensureIndexes(ctx context.Context) error {
	// One snapshot per pasture per calendar date; the unique index makes
	// the capture job's upsert idempotent under retries.
	_, err := r.db.Collection(snapshotsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "pasture_id", Value: 1}, {Key: "date", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return err
	}

	_, err = r.db.Collection(animalLotsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "farm_id", Value: 1}, {Key: "category", Value: 1}},
	})
	if err != nil {
		return err
	}

	_, err = r.db.Collection(eventsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "farm_id", Value: 1}, {Key: "occurred_at", Value: -1}},
	})
	return err
}

// WithTransaction runs fn inside a MongoDB session transaction. Every
// write issued through fn's context commits atomically or not at all.
func (r *Repository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := r.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		return nil, fn(sessCtx)
	})
	return err
}

// Close closes the MongoDB connection.
func (r *Repository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}
