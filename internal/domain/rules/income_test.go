package rules

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/idleworks/tycoon/internal/domain/business"
)

func TestCalculateIncomeGolden(t *testing.T) {
	tests := []struct {
		level, baseIncome int
		first, second     float64
		want              float64
	}{
		{0, 10, 0, 0, 0},
		{0, 10, 2, 3, 0},
		{1, 10, 0, 0, 10},
		{1, 3, 0.5, 0, 4.5},
		{3, 3, 0.5, 1.0, 22.5},
		{5, 10, 0.5, 0, 75},
		{10, 12, 1, 1, 360},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("L%d_B%d_%.2f_%.2f", tt.level, tt.baseIncome, tt.first, tt.second), func(t *testing.T) {
			assert.InDelta(t, tt.want, CalculateIncome(tt.level, tt.baseIncome, tt.first, tt.second), 1e-9)
		})
	}
}

func TestCalculateIncomeMonotonic(t *testing.T) {
	prev := -1.0
	for level := 0; level < 50; level++ {
		got := CalculateIncome(level, 7, 0.25, 0.5)
		assert.GreaterOrEqual(t, got, prev, "level %d", level)
		prev = got
	}

	base := CalculateIncome(4, 7, 0, 0)
	assert.Greater(t, CalculateIncome(4, 7, 0.5, 0), base)
	assert.Greater(t, CalculateIncome(4, 7, 0, 0.5), base)
}

func TestCalculateLevelUpPriceGolden(t *testing.T) {
	tests := []struct {
		level, baseCost, want int
	}{
		{0, 3, 3},
		{1, 3, 6},
		{2, 100, 300},
		{9, 100, 1000},
		{49, 4000, 200000},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("L%d_C%d", tt.level, tt.baseCost), func(t *testing.T) {
			assert.Equal(t, tt.want, CalculateLevelUpPrice(tt.level, tt.baseCost))
		})
	}
}

func TestCalculateLevelUpPriceStrictlyIncreasing(t *testing.T) {
	for level := 0; level < 100; level++ {
		assert.Less(t, CalculateLevelUpPrice(level, 25), CalculateLevelUpPrice(level+1, 25))
	}
}

func TestRoundIncomeHalfToEven(t *testing.T) {
	tests := []struct {
		in   float64
		want int
	}{
		{0, 0},
		{-3.5, 0},
		{2.5, 2},
		{3.5, 4},
		{4.5, 4},
		{22.5, 22},
		{10.4999, 10},
		{10.5001, 11},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, RoundIncome(tt.in), "RoundIncome(%v)", tt.in)
	}
}

func TestReduceModifiersByTier(t *testing.T) {
	tiers := map[int]business.Tier{1: business.TierPrimary, 2: business.TierSecondary, 3: business.TierPrimary}
	tierOf := func(id int) business.Tier { return tiers[id] }

	first, second := ReduceModifiers([]business.Modifier{
		{ID: 1, Value: 0.5},
		{ID: 2, Value: 1.0},
		{ID: 3, Value: 0.25, Purchased: true},
		{ID: 4, Value: 0.1}, // unmapped → secondary
	}, tierOf)

	assert.InDelta(t, 0.75, first, 1e-9)
	assert.InDelta(t, 1.1, second, 1e-9)
}

func TestRecomputeIsIdempotent(t *testing.T) {
	b := business.New(0, 1, 1, business.Data{
		IncomeDelay: 5,
		BaseCost:    100,
		BaseIncome:  10,
		Upgrades:    []business.UpgradeData{{ID: 3, IncomeModifier: 0.5}},
	}, business.NameData{Name: "Shop"})
	b.Level = 3
	b.Modifiers.Upsert(3, 0.5)

	Recompute(b)
	first := *b
	Recompute(b)

	assert.Equal(t, 45, b.CurrentIncome)
	assert.Equal(t, first.CurrentIncome, b.CurrentIncome)
	assert.Equal(t, first.TotalIncome, b.TotalIncome)
	assert.Equal(t, 400, b.LevelUpPrice)
	assert.Equal(t, first.LevelUpPrice, b.LevelUpPrice)
	assert.InDelta(t, 1.5, b.Modifiers.TotalMultiplier, 1e-9)
	assert.Equal(t, b.TotalIncome, RealizedIncome(b))
}
