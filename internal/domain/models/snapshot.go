package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// LoadSnapshot is an immutable (pasture, date, UG) point. The series is
// sparse: a missing date means "unchanged since the prior snapshot", not
// zero load. At most one snapshot exists per pasture per calendar date.
type LoadSnapshot struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FarmID    primitive.ObjectID `bson:"farm_id" json:"farm_id"`
	PastureID primitive.ObjectID `bson:"pasture_id" json:"pasture_id"`
	Date      time.Time          `bson:"date" json:"date"`
	TotalUG   float64            `bson:"total_ug" json:"total_ug"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}

// WeightOverride is one per-farm category kg-equivalence override. When no
// override exists for a category the converter falls back to the default
// table.
type WeightOverride struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FarmID   primitive.ObjectID `bson:"farm_id" json:"farm_id"`
	Category string             `bson:"category" json:"category"`
	WeightKg float64            `bson:"weight_kg" json:"weight_kg"`
}
