package recategorization

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/agrocampo/campo-backend/internal/domain/models"
)

func TestRulesFor_KnownClasses(t *testing.T) {
	assert.Len(t, RulesFor(models.ClassBovine), 6)
	assert.Len(t, RulesFor(models.ClassOvine), 3)
	assert.Nil(t, RulesFor(models.ClassEquine))
}

func TestDestinationOf_SingleDestinationPerCategory(t *testing.T) {
	seen := make(map[string]string)
	for _, rule := range append(append([]Rule{}, bovineRules...), ovineRules...) {
		prev, dup := seen[rule.Source]
		assert.Falsef(t, dup, "category %s maps to both %s and %s", rule.Source, prev, rule.Destination)
		seen[rule.Source] = rule.Destination
	}
}

func TestDestinationOf_ChainsTerminate(t *testing.T) {
	starts := []string{"Terneros", "Terneras", "Corderas", "Corderos"}
	for _, start := range starts {
		category := start
		for hops := 0; ; hops++ {
			assert.LessOrEqualf(t, hops, 10, "chain from %s does not terminate", start)
			next, ok := DestinationOf(category)
			if !ok {
				break
			}
			category = next
		}
	}
}

func TestDestinationOf_TerminalCategories(t *testing.T) {
	for _, terminal := range []string{"Novillos +3", "Vacas", "Ovejas", "Capones", "Toros"} {
		_, ok := DestinationOf(terminal)
		assert.Falsef(t, ok, "%s should have no automatic destination", terminal)
	}
}

func TestDestinationOf_HeiferChain(t *testing.T) {
	dest, ok := DestinationOf("Terneras")
	assert.True(t, ok)
	assert.Equal(t, "Vaquillonas 1-2", dest)

	dest, ok = DestinationOf("Vaquillonas +2")
	assert.True(t, ok)
	assert.Equal(t, "Vacas", dest)
}
