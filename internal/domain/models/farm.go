package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Farm is the tenant root. Pastures, animal lots and snapshot history all
// hang off a farm, and every query is scoped by its id.
type Farm struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name      string             `bson:"name" json:"name"`
	Timezone  string             `bson:"timezone,omitempty" json:"timezone,omitempty"`
	Phones    []string           `bson:"phones,omitempty" json:"phones,omitempty"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}

// Pasture (lote/potrero) is a fenced land subdivision of a farm and the
// unit of grazing-load tracking.
type Pasture struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FarmID   primitive.ObjectID `bson:"farm_id" json:"farm_id"`
	Name     string             `bson:"name" json:"name"`
	Hectares float64            `bson:"hectares" json:"hectares"`
}

// AnimalLot is a count of animals of one category co-located in one pasture.
// IntakeDate records when the animals entered this category, which drives
// the recategorization cutoff.
type AnimalLot struct {
	ID            primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	FarmID        primitive.ObjectID  `bson:"farm_id" json:"farm_id"`
	PastureID     primitive.ObjectID  `bson:"pasture_id" json:"pasture_id"`
	RodeoID       *primitive.ObjectID `bson:"rodeo_id,omitempty" json:"rodeo_id,omitempty"`
	Category      string              `bson:"category" json:"category"`
	Count         int                 `bson:"count" json:"count"`
	AverageWeight float64             `bson:"average_weight,omitempty" json:"average_weight,omitempty"`
	IntakeDate    time.Time           `bson:"intake_date" json:"intake_date"`
}

// ExpenseRecord captures operating expenses registered from the web app or
// the WhatsApp bot.
type ExpenseRecord struct {
	ID     primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FarmID primitive.ObjectID `bson:"farm_id" json:"farm_id"`
	Date   time.Time          `bson:"date" json:"date"`
	Label  string             `bson:"label" json:"label"`
	Amount float64            `bson:"amount" json:"amount"`
}
