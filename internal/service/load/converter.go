package load

import (
	"math"
	"strings"

	"github.com/agrocampo/campo-backend/internal/domain/models"
)

// ReferenceWeightKg is the mass of one Animal Unit (UG): a 450 kg
// steer-equivalent. The default weight table is calibrated against it.
const ReferenceWeightKg = 450.0

// WeightTable is a per-farm set of category kg-equivalence overrides.
// Categories absent from the table fall back to the default table.
type WeightTable map[string]float64

// defaultWeights is the hardcoded per-category kg-equivalence table used
// when a farm has no override for a category.
var defaultWeights = map[string]float64{
	"Terneros nacidos": 120,
	"Terneros":         150,
	"Terneras":         140,
	"Novillos 1-2":     300,
	"Novillos 2-3":     380,
	"Novillos +3":      450,
	"Vaquillonas 1-2":  280,
	"Vaquillonas +2":   380,
	"Vacas":            450,
	"Toros":            600,
	"Corderos":         25,
	"Corderas":         25,
	"Borregas":         35,
	"Capones":          45,
	"Ovejas":           45,
	"Carneros":         60,
	"Potrillos":        250,
	"Yeguas":           380,
	"Caballos":         400,
}

// defaultClasses maps each known category to its livestock class. A closed
// table rather than name inference, so a renamed category fails loudly in
// tests instead of silently switching class.
var defaultClasses = map[string]models.LivestockClass{
	"Terneros nacidos": models.ClassBovine,
	"Terneros":         models.ClassBovine,
	"Terneras":         models.ClassBovine,
	"Novillos 1-2":     models.ClassBovine,
	"Novillos 2-3":     models.ClassBovine,
	"Novillos +3":      models.ClassBovine,
	"Vaquillonas 1-2":  models.ClassBovine,
	"Vaquillonas +2":   models.ClassBovine,
	"Vacas":            models.ClassBovine,
	"Toros":            models.ClassBovine,
	"Corderos":         models.ClassOvine,
	"Corderas":         models.ClassOvine,
	"Borregas":         models.ClassOvine,
	"Capones":          models.ClassOvine,
	"Ovejas":           models.ClassOvine,
	"Carneros":         models.ClassOvine,
	"Potrillos":        models.ClassEquine,
	"Yeguas":           models.ClassEquine,
	"Caballos":         models.ClassEquine,
}

var canonicalByLower = func() map[string]string {
	m := make(map[string]string, len(defaultWeights))
	for category := range defaultWeights {
		m[strings.ToLower(category)] = category
	}
	return m
}()

// CanonicalCategory resolves a case-insensitive category name to its
// canonical spelling, used by the WhatsApp bot where workers type in
// lowercase.
func CanonicalCategory(name string) (string, bool) {
	canonical, ok := canonicalByLower[strings.ToLower(strings.TrimSpace(name))]
	return canonical, ok
}

// UnitsFor converts a category and head count into Animal Units. The farm
// override table wins over the default table; a category known to neither
// contributes 0. The lenient zero keeps one mistyped category from sinking
// a whole-farm aggregation.
func UnitsFor(category string, count int, table WeightTable) float64 {
	weightKg, ok := table[category]
	if !ok {
		weightKg, ok = defaultWeights[category]
	}
	if !ok || count <= 0 {
		return 0
	}

	return float64(count) * (weightKg / ReferenceWeightKg)
}

// ClassOf resolves the livestock class of a category. Unknown categories
// default to bovine, matching the converter's lenient policy.
func ClassOf(category string) models.LivestockClass {
	if class, ok := defaultClasses[category]; ok {
		return class
	}
	return models.ClassBovine
}

// Round2 rounds half away from zero to two decimals. Every UG value the
// service persists or returns goes through it.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
