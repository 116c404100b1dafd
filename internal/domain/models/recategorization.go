package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// LivestockClass buckets categories for recategorization config and
// proportional-allocation features.
type LivestockClass string

const (
	ClassBovine LivestockClass = "bovino"
	ClassOvine  LivestockClass = "ovino"
	ClassEquine LivestockClass = "equino"
)

// RecategorizationConfig holds the per-farm flags enabling the automatic
// annual pass for each livestock class.
type RecategorizationConfig struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FarmID       primitive.ObjectID `bson:"farm_id" json:"farm_id"`
	BovineActive bool               `bson:"bovine_active" json:"bovine_active"`
	OvineActive  bool               `bson:"ovine_active" json:"ovine_active"`
}

// BatchFilter restricts which animal lots a manual batch rule matches.
// Zero-value fields do not filter.
type BatchFilter struct {
	IntakeBefore *time.Time          `json:"intake_before,omitempty" bson:"intake_before,omitempty"`
	PastureID    *primitive.ObjectID `json:"pasture_id,omitempty" bson:"pasture_id,omitempty"`
	RodeoID      *primitive.ObjectID `json:"rodeo_id,omitempty" bson:"rodeo_id,omitempty"`
}

// BatchRule is one (source, destination, filter) triple of a manual
// preview/commit request.
type BatchRule struct {
	SourceCategory      string      `json:"source_category" binding:"required"`
	DestinationCategory string      `json:"destination_category" binding:"required"`
	Filter              BatchFilter `json:"filter"`
}

// PreviewGroup is the per-pasture aggregation returned by a preview.
type PreviewGroup struct {
	PastureID   primitive.ObjectID `json:"pasture_id"`
	PastureName string             `json:"pasture_name,omitempty"`
	Lots        []AnimalLot        `json:"lots"`
	Count       int                `json:"count"`
}

// RulePreview is the preview result for one batch rule.
type RulePreview struct {
	SourceCategory      string         `json:"source_category"`
	DestinationCategory string         `json:"destination_category"`
	Groups              []PreviewGroup `json:"groups"`
	Total               int            `json:"total"`
}

// BatchPreview is the full dry-run result of a manual batch request.
type BatchPreview struct {
	Rules      []RulePreview `json:"rules"`
	GrandTotal int           `json:"grand_total"`
}

// BatchResult summarizes a committed manual batch.
type BatchResult struct {
	BatchID       string `json:"batch_id"`
	LotsUpdated   int    `json:"lots_updated"`
	AnimalsMoved  int    `json:"animals_moved"`
	EventsWritten int    `json:"events_written"`
}

// PastureSplit is the human-judgment division of one pasture's mixed-sex
// lot. Males+Females must equal the lot's current count.
type PastureSplit struct {
	PastureID primitive.ObjectID `json:"pasture_id" binding:"required"`
	Males     int                `json:"males"`
	Females   int                `json:"females"`
}

// SplitRequest divides a mixed-sex cohort category into explicit male and
// female categories, pasture by pasture.
type SplitRequest struct {
	SourceCategory string         `json:"source_category" binding:"required"`
	MaleCategory   string         `json:"male_category" binding:"required"`
	FemaleCategory string         `json:"female_category" binding:"required"`
	Splits         []PastureSplit `json:"splits" binding:"required,min=1"`
}

// SplitResult summarizes a committed split.
type SplitResult struct {
	BatchID       string `json:"batch_id"`
	PasturesSplit int    `json:"pastures_split"`
	LotsCreated   int    `json:"lots_created"`
	EventsWritten int    `json:"events_written"`
}
