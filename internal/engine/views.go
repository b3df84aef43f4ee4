package engine

import "github.com/idleworks/tycoon/internal/domain/business"

// UpgradeView is the read-only presentation of one upgrade slot.
type UpgradeView struct {
	ID        int     `json:"id"`
	Name      string  `json:"name"`
	Price     int     `json:"price"`
	Value     float64 `json:"value"`
	Purchased bool    `json:"purchased"`
}

// BusinessView is the read-only presentation of one business, published
// after every tick.
type BusinessView struct {
	ID           int           `json:"id"`
	Name         string        `json:"name"`
	Level        int           `json:"level"`
	Income       int           `json:"income"`
	LevelUpPrice int           `json:"level_up_price"`
	BaseCost     int           `json:"base_cost"`
	Progress     float64       `json:"progress"`
	Purchased    bool          `json:"purchased"`
	Multiplier   float64       `json:"multiplier"`
	Upgrades     []UpgradeView `json:"upgrades"`
}

// Upgrade returns the view of upgrade id, or false.
func (v BusinessView) Upgrade(id int) (UpgradeView, bool) {
	for _, u := range v.Upgrades {
		if u.ID == id {
			return u, true
		}
	}
	return UpgradeView{}, false
}

func buildView(b *business.Business, names business.NameData) BusinessView {
	v := BusinessView{
		ID:           b.ID,
		Name:         b.Name,
		Level:        b.Level,
		Income:       b.CurrentIncome,
		LevelUpPrice: b.LevelUpPrice,
		BaseCost:     b.BaseCost,
		Progress:     b.Progress,
		Purchased:    b.Purchased,
		Multiplier:   b.Modifiers.TotalMultiplier,
		Upgrades:     make([]UpgradeView, 0, len(b.Modifiers.Pending)),
	}

	for i, u := range b.Modifiers.Pending {
		uv := UpgradeView{ID: u.ID, Price: u.Price, Value: u.IncomeModifier}
		if i < len(names.UpgradeNames) {
			uv.Name = names.UpgradeNames[i]
		}
		if idx := b.Modifiers.Find(u.ID); idx >= 0 {
			uv.Purchased = b.Modifiers.Accumulated[idx].Purchased
		}
		v.Upgrades = append(v.Upgrades, uv)
	}
	return v
}

func buildViews(reg *Registry) []BusinessView {
	views := make([]BusinessView, 0, reg.Len())
	for _, b := range reg.All() {
		views = append(views, buildView(b, reg.Names(b.ID)))
	}
	return views
}
