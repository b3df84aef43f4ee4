package engine

import (
	"github.com/idleworks/tycoon/internal/domain/rules"
	"github.com/idleworks/tycoon/internal/platform/logger"
)

// IncomeSystem owns the recompute pass: income and level-up price are
// derived from level and modifiers, never edited directly.
type IncomeSystem struct {
	logger *logger.Logger
}

// NewIncomeSystem creates a new income calculator system.
func NewIncomeSystem(log *logger.Logger) *IncomeSystem {
	return &IncomeSystem{logger: log}
}

// RecomputeAll refreshes CurrentIncome, TotalIncome, LevelUpPrice and the
// cached multiplier of every business. Idempotent on unchanged inputs.
func (is *IncomeSystem) RecomputeAll(reg *Registry) {
	for _, b := range reg.All() {
		rules.Recompute(b)
	}
}

// Realize refreshes TotalIncome for businesses whose cycle just completed,
// so the credited amount reflects this tick's level and modifiers.
func (is *IncomeSystem) Realize(reg *Registry, completed []int) {
	for _, id := range completed {
		b := reg.Get(id)
		if b == nil {
			continue
		}
		b.TotalIncome = rules.RealizedIncome(b)
	}
}
