// Package rules contains the pure calculation logic for the business economy.
// This package is PURE and must NOT import any infrastructure packages.
package rules

import (
	"math"

	"github.com/idleworks/tycoon/internal/domain/business"
)

// CalculateIncome returns the per-cycle income of a business.
// income = level * baseIncome * (1 + first + second); level 0 yields 0.
func CalculateIncome(level, baseIncome int, first, second float64) float64 {
	if level <= 0 {
		return 0
	}
	return float64(level) * float64(baseIncome) * (1 + first + second)
}

// CalculateLevelUpPrice returns the cost of buying level+1.
// price = (level + 1) * baseCost.
func CalculateLevelUpPrice(level, baseCost int) int {
	return (level + 1) * baseCost
}

// RoundIncome converts a computed income to the stored integer field.
// Halves round to even so repeated recomputes never drift upward.
func RoundIncome(income float64) int {
	if income <= 0 || math.IsNaN(income) {
		return 0
	}
	return int(math.RoundToEven(income))
}

// ReduceModifiers folds accumulated modifiers into the two tier factors.
// Values within a tier stack additively.
func ReduceModifiers(mods []business.Modifier, tierOf func(id int) business.Tier) (first, second float64) {
	for _, m := range mods {
		if tierOf(m.ID) == business.TierPrimary {
			first += m.Value
		} else {
			second += m.Value
		}
	}
	return first, second
}

// Recompute refreshes every derived income field of b.
func Recompute(b *business.Business) {
	first, second := ReduceModifiers(b.Modifiers.Accumulated, b.Modifiers.TierOf)

	income := RoundIncome(CalculateIncome(b.Level, b.BaseIncome, first, second))
	b.CurrentIncome = income
	b.TotalIncome = income
	b.LevelUpPrice = CalculateLevelUpPrice(b.Level, b.BaseCost)
	b.Modifiers.TotalMultiplier = 1 + first + second
}

// RealizedIncome returns the income a completed cycle pays out.
func RealizedIncome(b *business.Business) int {
	first, second := ReduceModifiers(b.Modifiers.Accumulated, b.Modifiers.TierOf)
	return RoundIncome(CalculateIncome(b.Level, b.BaseIncome, first, second))
}
