package mongodb

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/agrocampo/campo-backend/internal/domain/models"
)

// ListFarms returns every tenant farm.
func (r *Repository) ListFarms(ctx context.Context) ([]models.Farm, error) {
	cursor, err := r.db.Collection(farmsCollection).Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("list farms: %w", err)
	}

	var farms []models.Farm
	if err := cursor.All(ctx, &farms); err != nil {
		return nil, fmt.Errorf("decode farms: %w", err)
	}
	return farms, nil
}

// GetFarm loads one farm by id.
func (r *Repository) GetFarm(ctx context.Context, farmID primitive.ObjectID) (*models.Farm, error) {
	var farm models.Farm
	err := r.db.Collection(farmsCollection).FindOne(ctx, bson.M{"_id": farmID}).Decode(&farm)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get farm: %w", err)
	}
	return &farm, nil
}

// FindFarmByPhone resolves the farm an authorized WhatsApp number belongs to.
func (r *Repository) FindFarmByPhone(ctx context.Context, phone string) (*models.Farm, error) {
	var farm models.Farm
	err := r.db.Collection(farmsCollection).FindOne(ctx, bson.M{"phones": phone}).Decode(&farm)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find farm by phone: %w", err)
	}
	return &farm, nil
}

// ListPastures returns every pasture owned by a farm, sorted by name.
func (r *Repository) ListPastures(ctx context.Context, farmID primitive.ObjectID) ([]models.Pasture, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cursor, err := r.db.Collection(pasturesCollection).Find(ctx, bson.M{"farm_id": farmID}, opts)
	if err != nil {
		return nil, fmt.Errorf("list pastures: %w", err)
	}

	var pastures []models.Pasture
	if err := cursor.All(ctx, &pastures); err != nil {
		return nil, fmt.Errorf("decode pastures: %w", err)
	}
	return pastures, nil
}

// GetPasture loads one pasture scoped to its owning farm. A pasture of a
// different farm is reported as not found, never leaked.
func (r *Repository) GetPasture(ctx context.Context, farmID, pastureID primitive.ObjectID) (*models.Pasture, error) {
	var pasture models.Pasture
	err := r.db.Collection(pasturesCollection).FindOne(ctx, bson.M{"_id": pastureID, "farm_id": farmID}).Decode(&pasture)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get pasture: %w", err)
	}
	return &pasture, nil
}

// FindPastureByName resolves a pasture by its name within one farm, used by
// the WhatsApp bot where workers refer to pastures by name.
func (r *Repository) FindPastureByName(ctx context.Context, farmID primitive.ObjectID, name string) (*models.Pasture, error) {
	filter := bson.M{
		"farm_id": farmID,
		"name":    primitive.Regex{Pattern: "^" + regexp.QuoteMeta(name) + "$", Options: "i"},
	}

	var pasture models.Pasture
	err := r.db.Collection(pasturesCollection).FindOne(ctx, filter).Decode(&pasture)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find pasture by name: %w", err)
	}
	return &pasture, nil
}

// CreatePasture inserts a new pasture for a farm.
func (r *Repository) CreatePasture(ctx context.Context, pasture models.Pasture) (*models.Pasture, error) {
	if pasture.ID.IsZero() {
		pasture.ID = primitive.NewObjectID()
	}
	if _, err := r.db.Collection(pasturesCollection).InsertOne(ctx, pasture); err != nil {
		return nil, fmt.Errorf("insert pasture: %w", err)
	}
	return &pasture, nil
}
