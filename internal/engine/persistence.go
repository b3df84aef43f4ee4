package engine

import (
	"context"

	"github.com/idleworks/tycoon/internal/domain/business"
	"github.com/idleworks/tycoon/internal/domain/save"
)

// SaveService is the durable slot a session is saved to.
type SaveService interface {
	HasSave(ctx context.Context) (bool, error)
	LoadGame(ctx context.Context) (*save.GameSave, error)
	SaveGame(ctx context.Context, s save.GameSave) error
	DeleteSave(ctx context.Context) error
}

// Snapshot copies the registry into the flat save layout. Progress is
// recomputed from the timer rather than trusted from the cache, and only
// upgrades with a positive value are written.
func Snapshot(reg *Registry, money int) save.GameSave {
	s := save.GameSave{
		Hero:       save.HeroSave{Money: money},
		Businesses: make([]save.BusinessSave, 0, reg.Len()),
	}

	for _, b := range reg.All() {
		entry := save.BusinessSave{
			ID:                  b.ID,
			Level:               b.Level,
			Progress:            b.Cooldown.DisplayProgress(),
			Cooldown:            b.Cooldown.TimeLeft,
			Income:              b.CurrentIncome,
			LevelUpPrice:        b.LevelUpPrice,
			IsPurchased:         b.Purchased,
			IsCooldownAvailable: b.Cooldown.IsAvailable,
			Upgrades:            make([]save.UpgradeSave, 0, len(b.Modifiers.Accumulated)),
		}
		for _, m := range b.Modifiers.Accumulated {
			if m.Value <= 0 {
				continue
			}
			entry.Upgrades = append(entry.Upgrades, save.UpgradeSave{
				ID:             m.ID,
				IncomeModifier: m.Value,
				Purchased:      m.Purchased,
			})
		}
		s.Businesses = append(s.Businesses, entry)
	}
	return s
}

// Restore applies a save onto freshly created records. Entries for unknown
// businesses are ignored and businesses without an entry keep their
// creation defaults. A nil save is a no-op.
func Restore(reg *Registry, s *save.GameSave) int {
	if s == nil {
		return 0
	}

	restored := 0
	for i := range s.Businesses {
		entry := &s.Businesses[i]
		b := reg.Get(entry.ID)
		if b == nil {
			continue
		}
		restoreBusiness(b, entry)
		restored++
	}
	return restored
}

func restoreBusiness(b *business.Business, entry *save.BusinessSave) {
	b.Complete()

	b.Level = max(entry.Level, 0)
	b.CurrentIncome = max(entry.Income, 0)
	b.TotalIncome = b.CurrentIncome
	b.Progress = entry.Progress
	b.LevelUpPrice = entry.LevelUpPrice
	b.Purchased = entry.IsPurchased

	b.Cooldown.TimeLeft = min(max(entry.Cooldown, 0), b.Cooldown.Duration)
	// Availability is only ever raised by a save
	if entry.IsCooldownAvailable {
		b.Cooldown.IsAvailable = true
	}

	b.Modifiers.Accumulated = b.Modifiers.Accumulated[:0]
	for _, u := range entry.Upgrades {
		b.Modifiers.Upsert(u.ID, u.IncomeModifier)
		if !u.Purchased {
			b.Modifiers.Accumulated[b.Modifiers.Find(u.ID)].Purchased = false
		}
	}
}
