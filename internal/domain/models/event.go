package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EventType enumerates the audit event kinds written by the
// recategorization engine.
type EventType string

const (
	EventRecategorization      EventType = "RECATEGORIZACION"
	EventBatchRecategorization EventType = "RECATEGORIZACION_MASIVA"
)

// RecategorizationEvent is the append-only audit record of a category
// transition. It is never mutated or deleted; batch operations share a
// BatchID so one request's events can be correlated.
type RecategorizationEvent struct {
	ID                  primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	FarmID              primitive.ObjectID   `bson:"farm_id" json:"farm_id"`
	Type                EventType            `bson:"type" json:"type"`
	BatchID             string               `bson:"batch_id,omitempty" json:"batch_id,omitempty"`
	SourceCategory      string               `bson:"source_category" json:"source_category"`
	DestinationCategory string               `bson:"destination_category" json:"destination_category"`
	Quantity            int                  `bson:"quantity" json:"quantity"`
	PastureIDs          []primitive.ObjectID `bson:"pasture_ids" json:"pasture_ids"`
	Filter              *BatchFilter         `bson:"filter,omitempty" json:"filter,omitempty"`
	OccurredAt          time.Time            `bson:"occurred_at" json:"occurred_at"`
}
