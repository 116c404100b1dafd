package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/agrocampo/campo-backend/internal/domain/models"
)

// InsertEvent appends one recategorization audit event. Events are never
// updated or deleted.
func (r *Repository) InsertEvent(ctx context.Context, event models.RecategorizationEvent) error {
	if event.ID.IsZero() {
		event.ID = primitive.NewObjectID()
	}
	if _, err := r.db.Collection(eventsCollection).InsertOne(ctx, event); err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// ListEvents returns a farm's audit trail, most recent first.
func (r *Repository) ListEvents(ctx context.Context, farmID primitive.ObjectID, limit int64) ([]models.RecategorizationEvent, error) {
	opts := options.Find().SetSort(bson.D{{Key: "occurred_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}

	cursor, err := r.db.Collection(eventsCollection).Find(ctx, bson.M{"farm_id": farmID}, opts)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}

	var events []models.RecategorizationEvent
	if err := cursor.All(ctx, &events); err != nil {
		return nil, fmt.Errorf("decode events: %w", err)
	}
	return events, nil
}

// GetRecategorizationConfig loads a farm's automatic recategorization
// flags. Farms that never configured them return nil, which disables the
// annual pass for that farm.
func (r *Repository) GetRecategorizationConfig(ctx context.Context, farmID primitive.ObjectID) (*models.RecategorizationConfig, error) {
	var cfg models.RecategorizationConfig
	err := r.db.Collection(configsCollection).FindOne(ctx, bson.M{"farm_id": farmID}).Decode(&cfg)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get recategorization config: %w", err)
	}
	return &cfg, nil
}

// UpsertRecategorizationConfig writes a farm's automatic recategorization flags.
func (r *Repository) UpsertRecategorizationConfig(ctx context.Context, cfg models.RecategorizationConfig) error {
	_, err := r.db.Collection(configsCollection).UpdateOne(ctx,
		bson.M{"farm_id": cfg.FarmID},
		bson.M{"$set": bson.M{"bovine_active": cfg.BovineActive, "ovine_active": cfg.OvineActive}},
		options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("upsert recategorization config: %w", err)
	}
	return nil
}

// InsertExpense appends one expense record.
func (r *Repository) InsertExpense(ctx context.Context, expense models.ExpenseRecord) error {
	if expense.ID.IsZero() {
		expense.ID = primitive.NewObjectID()
	}
	if expense.Date.IsZero() {
		expense.Date = time.Now().UTC()
	}
	if _, err := r.db.Collection(expensesCollection).InsertOne(ctx, expense); err != nil {
		return fmt.Errorf("insert expense: %w", err)
	}
	return nil
}
