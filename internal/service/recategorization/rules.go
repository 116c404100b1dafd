package recategorization

import "github.com/agrocampo/campo-backend/internal/domain/models"

// Rule is one fixed category transition. The rule lists are one-directional
// and acyclic: every category maps to at most one destination.
type Rule struct {
	Source      string
	Destination string
	Class       models.LivestockClass
}

var bovineRules = []Rule{
	{Source: "Terneros", Destination: "Novillos 1-2", Class: models.ClassBovine},
	{Source: "Novillos 1-2", Destination: "Novillos 2-3", Class: models.ClassBovine},
	{Source: "Novillos 2-3", Destination: "Novillos +3", Class: models.ClassBovine},
	{Source: "Terneras", Destination: "Vaquillonas 1-2", Class: models.ClassBovine},
	{Source: "Vaquillonas 1-2", Destination: "Vaquillonas +2", Class: models.ClassBovine},
	{Source: "Vaquillonas +2", Destination: "Vacas", Class: models.ClassBovine},
}

var ovineRules = []Rule{
	{Source: "Corderas", Destination: "Borregas", Class: models.ClassOvine},
	{Source: "Borregas", Destination: "Ovejas", Class: models.ClassOvine},
	{Source: "Corderos", Destination: "Capones", Class: models.ClassOvine},
}

// RulesFor returns the transition rules of one livestock class. A lot
// moved by one rule gets its intake date reset to the run date, which the
// annual cutoff excludes, so chained rules never move the same lot twice
// in one pass.
func RulesFor(class models.LivestockClass) []Rule {
	switch class {
	case models.ClassBovine:
		return bovineRules
	case models.ClassOvine:
		return ovineRules
	default:
		return nil
	}
}

// DestinationOf resolves the automatic destination of a category, if any.
func DestinationOf(category string) (string, bool) {
	for _, rule := range bovineRules {
		if rule.Source == category {
			return rule.Destination, true
		}
	}
	for _, rule := range ovineRules {
		if rule.Source == category {
			return rule.Destination, true
		}
	}
	return "", false
}
