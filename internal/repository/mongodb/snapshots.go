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

// LatestSnapshotAtOrBefore returns the most recent load snapshot of a
// pasture dated at or before the given date, or nil when none exists.
func (r *Repository) LatestSnapshotAtOrBefore(ctx context.Context, pastureID primitive.ObjectID, date time.Time) (*models.LoadSnapshot, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "date", Value: -1}})
	filter := bson.M{"pasture_id": pastureID, "date": bson.M{"$lte": date}}

	var snapshot models.LoadSnapshot
	err := r.db.Collection(snapshotsCollection).FindOne(ctx, filter, opts).Decode(&snapshot)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find latest snapshot: %w", err)
	}
	return &snapshot, nil
}

// UpsertSnapshot writes a snapshot keyed by (pasture, date). Re-running the
// capture job on the same day overwrites that day's value instead of
// stacking a duplicate row.
func (r *Repository) UpsertSnapshot(ctx context.Context, snapshot models.LoadSnapshot) error {
	_, err := r.db.Collection(snapshotsCollection).UpdateOne(ctx,
		bson.M{"pasture_id": snapshot.PastureID, "date": snapshot.Date},
		bson.M{
			"$set":         bson.M{"farm_id": snapshot.FarmID, "total_ug": snapshot.TotalUG},
			"$setOnInsert": bson.M{"created_at": snapshot.CreatedAt},
		},
		options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("upsert snapshot: %w", err)
	}
	return nil
}

// ListSnapshotsUntil returns a farm's whole snapshot history up to and
// including the given date, sorted by pasture then date ascending, the
// order the series reconstruction's two-pointer walk expects.
func (r *Repository) ListSnapshotsUntil(ctx context.Context, farmID primitive.ObjectID, until time.Time) ([]models.LoadSnapshot, error) {
	opts := options.Find().SetSort(bson.D{{Key: "pasture_id", Value: 1}, {Key: "date", Value: 1}})
	filter := bson.M{"farm_id": farmID, "date": bson.M{"$lte": until}}

	cursor, err := r.db.Collection(snapshotsCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}

	var snapshots []models.LoadSnapshot
	if err := cursor.All(ctx, &snapshots); err != nil {
		return nil, fmt.Errorf("decode snapshots: %w", err)
	}
	return snapshots, nil
}
