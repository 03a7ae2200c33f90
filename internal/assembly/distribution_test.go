package assembly

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/teacherbean/internal/itembank"
)

func TestValidateDistribution_Valid(t *testing.T) {
	pool := spread("mc", itembank.TypeMultipleChoice, 20)
	cfg := Config{
		TotalItems:             10,
		ItemDistribution:       map[itembank.ItemType]int{itembank.TypeMultipleChoice: 10},
		DifficultyDistribution: DefaultDifficulty,
	}

	r := ValidateDistribution(pool, cfg)
	assert.True(t, r.IsValid)
	assert.NotNil(t, r.Issues)
	assert.Empty(t, r.Issues)
	assert.NotNil(t, r.Suggestions)
	assert.Empty(t, r.Suggestions)

	res := seeded(3).Assemble(pool, cfg)
	assert.True(t, res.Success)
	assert.Empty(t, res.FallbacksApplied)
}

func TestValidateDistribution_Shortages(t *testing.T) {
	pool := uniform("mc", itembank.TypeMultipleChoice, 5, 0.1)
	cfg := Config{
		TotalItems: 10,
		ItemDistribution: map[itembank.ItemType]int{
			itembank.TypeMultipleChoice: 6,
			itembank.TypeCloze:          4,
		},
		DifficultyDistribution: DefaultDifficulty,
	}

	r := ValidateDistribution(pool, cfg)
	require.False(t, r.IsValid)
	assert.Contains(t, r.Issues, "The pool holds 5 items but the paper needs 10.")
	assert.Contains(t, r.Suggestions, Shortfall{Type: itembank.TypeMultipleChoice, Available: 5, Required: 6})
	assert.Contains(t, r.Suggestions, Shortfall{Type: itembank.TypeCloze, Available: 0, Required: 4})
	// MC quota is 2/2/2 and every MC item is easy.
	assert.Contains(t, r.Suggestions, Shortfall{Type: itembank.TypeMultipleChoice, Band: BandMedium, Available: 0, Required: 2})
	assert.Contains(t, r.Suggestions, Shortfall{Type: itembank.TypeMultipleChoice, Band: BandHard, Available: 0, Required: 2})
	for _, s := range r.Suggestions {
		if s.Type == itembank.TypeMultipleChoice {
			assert.NotEqual(t, BandEasy, s.Band, "easy MC items are plentiful")
		}
	}
}

func TestValidateDistribution_BandOnlyShortage(t *testing.T) {
	pool := uniform("cl", itembank.TypeCloze, 10, 0.9)
	cfg := Config{
		TotalItems:             5,
		ItemDistribution:       map[itembank.ItemType]int{itembank.TypeCloze: 5},
		DifficultyDistribution: DefaultDifficulty,
	}

	r := ValidateDistribution(pool, cfg)
	assert.False(t, r.IsValid)
	assert.Equal(t, []Shortfall{
		{Type: itembank.TypeCloze, Band: BandEasy, Available: 0, Required: 2},
		{Type: itembank.TypeCloze, Band: BandMedium, Available: 0, Required: 2},
	}, r.Suggestions)
}

func TestValidateDistribution_MalformedConfig(t *testing.T) {
	r := ValidateDistribution(nil, Config{})
	assert.False(t, r.IsValid)
	assert.Contains(t, r.Issues, "Total items must be positive, got 0.")
	assert.Contains(t, r.Issues, "Difficulty fractions add up to 0.00 instead of 1.")
	assert.NotNil(t, r.Suggestions)

	cfg := Config{
		TotalItems: 4,
		ItemDistribution: map[itembank.ItemType]int{
			itembank.TypeCloze: 2,
			"essay":            2,
			"poem":             1,
		},
		DifficultyDistribution: DefaultDifficulty,
	}
	r = ValidateDistribution(spread("cl", itembank.TypeCloze, 10), cfg)
	assert.False(t, r.IsValid)
	assert.Contains(t, r.Issues, "Item types add up to 5 but the paper asks for 4 items.")
	assert.Contains(t, r.Issues, `Unknown item type "essay".`)
	assert.Contains(t, r.Issues, `Unknown item type "poem".`)
}

func TestValidateDistribution_DoesNotModifyInputs(t *testing.T) {
	pool := spread("mc", itembank.TypeMultipleChoice, 6)
	before := append([]itembank.Item(nil), pool...)
	cfg := Config{
		TotalItems:             8,
		ItemDistribution:       map[itembank.ItemType]int{itembank.TypeMultipleChoice: 8},
		DifficultyDistribution: DefaultDifficulty,
	}
	cfgBefore := cfg.Clone()

	ValidateDistribution(pool, cfg)
	assert.Equal(t, before, pool)
	assert.True(t, cfg.Equal(cfgBefore))
}
