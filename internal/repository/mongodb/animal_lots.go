package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/agrocampo/campo-backend/internal/domain/models"
	"github.com/agrocampo/campo-backend/internal/service/load"
)

// ListAnimalLotsByPasture returns every animal lot currently held by a pasture.
func (r *Repository) ListAnimalLotsByPasture(ctx context.Context, pastureID primitive.ObjectID) ([]models.AnimalLot, error) {
	cursor, err := r.db.Collection(animalLotsCollection).Find(ctx, bson.M{"pasture_id": pastureID})
	if err != nil {
		return nil, fmt.Errorf("list animal lots: %w", err)
	}

	var lots []models.AnimalLot
	if err := cursor.All(ctx, &lots); err != nil {
		return nil, fmt.Errorf("decode animal lots: %w", err)
	}
	return lots, nil
}

// FindAnimalLots returns a farm's lots of one category, narrowed by the
// optional batch filter fields.
func (r *Repository) FindAnimalLots(ctx context.Context, farmID primitive.ObjectID, category string, filter models.BatchFilter) ([]models.AnimalLot, error) {
	query := bson.M{"farm_id": farmID, "category": category}
	if filter.IntakeBefore != nil {
		query["intake_date"] = bson.M{"$lt": *filter.IntakeBefore}
	}
	if filter.PastureID != nil {
		query["pasture_id"] = *filter.PastureID
	}
	if filter.RodeoID != nil {
		query["rodeo_id"] = *filter.RodeoID
	}

	opts := options.Find().SetSort(bson.D{{Key: "pasture_id", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := r.db.Collection(animalLotsCollection).Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("find animal lots: %w", err)
	}

	var lots []models.AnimalLot
	if err := cursor.All(ctx, &lots); err != nil {
		return nil, fmt.Errorf("decode animal lots: %w", err)
	}
	return lots, nil
}

// UpdateAnimalLotCategory rewrites one lot's category and intake date. The
// source category stays in the filter so a lot already moved by a
// concurrent batch simply stops matching instead of being moved twice.
func (r *Repository) UpdateAnimalLotCategory(ctx context.Context, lotID primitive.ObjectID, sourceCategory, destinationCategory string, intakeDate time.Time) error {
	res, err := r.db.Collection(animalLotsCollection).UpdateOne(ctx,
		bson.M{"_id": lotID, "category": sourceCategory},
		bson.M{"$set": bson.M{"category": destinationCategory, "intake_date": intakeDate}})
	if err != nil {
		return fmt.Errorf("update animal lot category: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ReplaceAnimalLot overwrites one lot document in place.
func (r *Repository) ReplaceAnimalLot(ctx context.Context, lot models.AnimalLot) error {
	res, err := r.db.Collection(animalLotsCollection).ReplaceOne(ctx, bson.M{"_id": lot.ID}, lot)
	if err != nil {
		return fmt.Errorf("replace animal lot: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// InsertAnimalLot creates a new animal lot.
func (r *Repository) InsertAnimalLot(ctx context.Context, lot models.AnimalLot) error {
	if lot.ID.IsZero() {
		lot.ID = primitive.NewObjectID()
	}
	if _, err := r.db.Collection(animalLotsCollection).InsertOne(ctx, lot); err != nil {
		return fmt.Errorf("insert animal lot: %w", err)
	}
	return nil
}

// DecrementAnimalLot subtracts sold animals from a lot, deleting the row
// when the count reaches zero.
func (r *Repository) DecrementAnimalLot(ctx context.Context, lotID primitive.ObjectID, sold int) error {
	coll := r.db.Collection(animalLotsCollection)

	res := coll.FindOneAndUpdate(ctx,
		bson.M{"_id": lotID, "count": bson.M{"$gte": sold}},
		bson.M{"$inc": bson.M{"count": -sold}},
		options.FindOneAndUpdate().SetReturnDocument(options.After))

	var lot models.AnimalLot
	if err := res.Decode(&lot); err != nil {
		return ErrNotFound
	}

	if lot.Count == 0 {
		if _, err := coll.DeleteOne(ctx, bson.M{"_id": lotID, "count": 0}); err != nil {
			return fmt.Errorf("delete exhausted lot: %w", err)
		}
	}
	return nil
}

// WeightOverrides loads a farm's category weight override table.
func (r *Repository) WeightOverrides(ctx context.Context, farmID primitive.ObjectID) (load.WeightTable, error) {
	cursor, err := r.db.Collection(overridesCollection).Find(ctx, bson.M{"farm_id": farmID})
	if err != nil {
		return nil, fmt.Errorf("list weight overrides: %w", err)
	}

	var overrides []models.WeightOverride
	if err := cursor.All(ctx, &overrides); err != nil {
		return nil, fmt.Errorf("decode weight overrides: %w", err)
	}

	table := make(load.WeightTable, len(overrides))
	for _, override := range overrides {
		table[override.Category] = override.WeightKg
	}
	return table, nil
}

// UpsertWeightOverride writes one per-farm category weight override.
func (r *Repository) UpsertWeightOverride(ctx context.Context, override models.WeightOverride) error {
	_, err := r.db.Collection(overridesCollection).UpdateOne(ctx,
		bson.M{"farm_id": override.FarmID, "category": override.Category},
		bson.M{"$set": bson.M{"weight_kg": override.WeightKg}},
		options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("upsert weight override: %w", err)
	}
	return nil
}
