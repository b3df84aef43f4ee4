// Package business defines the core domain entities for income-producing businesses.
// This package is PURE and must NOT import any infrastructure packages (network, events, platform).
package business

import "errors"

// Tier identifies one of the two classes of income modifier.
type Tier int

const (
	TierUnset     Tier = 0 // Resolved from definition order
	TierPrimary   Tier = 1
	TierSecondary Tier = 2
)

// UpgradeData is a static catalog entry for a purchasable income upgrade.
type UpgradeData struct {
	ID             int     `json:"id" toml:"id" validate:"gte=0"`
	Price          int     `json:"price" toml:"price" validate:"gte=0"`
	IncomeModifier float64 `json:"income_modifier" toml:"income_modifier" validate:"gte=0"`
	Tier           Tier    `json:"tier" toml:"tier" validate:"gte=0,lte=2"`
}

// Data is the static configuration of one business slot.
type Data struct {
	Name        string        `json:"name" toml:"name"`
	IncomeDelay float64       `json:"income_delay" toml:"income_delay" validate:"gt=0"`
	BaseCost    int           `json:"base_cost" toml:"base_cost" validate:"gt=0"`
	BaseIncome  int           `json:"base_income" toml:"base_income" validate:"gte=0"`
	Upgrades    []UpgradeData `json:"upgrades" toml:"upgrade" validate:"dive"`
}

// NameData carries the display names for a business slot and its upgrades.
// It is a parallel catalog: entry i names business i.
type NameData struct {
	Name         string   `json:"name" toml:"name" validate:"required"`
	UpgradeNames []string `json:"upgrade_names" toml:"upgrade_names"`
}

// Cooldown is the repeating income timer of a business.
type Cooldown struct {
	Duration    float64 `json:"duration"`
	TimeLeft    float64 `json:"time_left"`
	IsAvailable bool    `json:"is_available"` // Timer only runs while true
	IsCompleted bool    `json:"is_completed"` // True only for the tick the cycle wrapped
}

// Modifier is the accumulated state of one upgrade slot.
type Modifier struct {
	ID        int     `json:"id"`
	Value     float64 `json:"value"`
	Purchased bool    `json:"purchased"`
}

// ModifierSet holds every known upgrade slot of a business, in definition order.
type ModifierSet struct {
	Accumulated     []Modifier    `json:"accumulated"`
	TotalMultiplier float64       `json:"total_multiplier"`
	Pending         []UpgradeData `json:"pending"`
}

// Business is one income-generating simulation entity.
type Business struct {
	ID       int    `json:"id"`        // Catalog slot index
	EntityID int    `json:"entity_id"` // Auxiliary id from the identifier service
	Name     string `json:"name"`

	Level      int `json:"level"` // 0 = not purchased
	BaseCost   int `json:"base_cost"`
	BaseIncome int `json:"base_income"`

	// Derived
	CurrentIncome int     `json:"current_income"`
	TotalIncome   int     `json:"total_income"`
	Progress      float64 `json:"progress"`
	LevelUpPrice  int     `json:"level_up_price"`

	Purchased bool `json:"purchased"`
	OwnerID   int  `json:"owner_id"` // Weak reference to the hero

	Cooldown  Cooldown    `json:"cooldown"`
	Modifiers ModifierSet `json:"modifiers"`

	data Data
}

// New creates a fully populated business record for catalog slot index.
// The first slot starts owned at level 1.
func New(index, entityID, ownerID int, data Data, names NameData) *Business {
	name := data.Name
	if name == "" {
		name = names.Name
	}

	level := 0
	if index == 0 {
		level = 1
	}

	pending := make([]UpgradeData, len(data.Upgrades))
	copy(pending, data.Upgrades)

	return &Business{
		ID:            index,
		EntityID:      entityID,
		Name:          name,
		Level:         level,
		BaseCost:      data.BaseCost,
		BaseIncome:    data.BaseIncome,
		CurrentIncome: data.BaseIncome,
		TotalIncome:   0,
		Progress:      0,
		LevelUpPrice:  (level + 1) * data.BaseCost,
		Purchased:     level > 0,
		OwnerID:       ownerID,
		Cooldown: Cooldown{
			Duration:    data.IncomeDelay,
			TimeLeft:    data.IncomeDelay,
			IsAvailable: level > 0,
		},
		Modifiers: ModifierSet{
			Accumulated:     make([]Modifier, 0, len(data.Upgrades)),
			TotalMultiplier: 1.0,
			Pending:         pending,
		},
		data: data,
	}
}

// Data returns the catalog entry the business was created from.
func (b *Business) Data() Data {
	return b.data
}

// HasCooldown reports whether the cooldown carries a usable duration.
func (b *Business) HasCooldown() bool {
	return b.Cooldown.Duration > 0
}

// Complete fills any missing sub-state from the creation-time defaults.
// It only touches state that is absent; populated fields are left alone.
func (b *Business) Complete() {
	if !b.HasCooldown() {
		b.Cooldown = Cooldown{
			Duration:    b.data.IncomeDelay,
			TimeLeft:    b.data.IncomeDelay,
			IsAvailable: b.Level > 0,
		}
	}
	if b.Modifiers.Accumulated == nil {
		b.Modifiers.Accumulated = make([]Modifier, 0, len(b.data.Upgrades))
	}
	if b.Modifiers.TotalMultiplier <= 0 {
		b.Modifiers.TotalMultiplier = 1.0
	}
	if b.Modifiers.Pending == nil {
		b.Modifiers.Pending = append([]UpgradeData(nil), b.data.Upgrades...)
	}
	if b.LevelUpPrice <= 0 {
		b.LevelUpPrice = (b.Level + 1) * b.BaseCost
	}
}

// DisplayProgress returns 1 - TimeLeft/Duration for the cooldown.
func (c Cooldown) DisplayProgress() float64 {
	if c.Duration <= 0 {
		return 0
	}
	return 1 - c.TimeLeft/c.Duration
}

// Find returns the index of the modifier with the given id, or -1.
func (ms *ModifierSet) Find(id int) int {
	for i, m := range ms.Accumulated {
		if m.ID == id {
			return i
		}
	}
	return -1
}

// DefinitionIndex returns the catalog position of upgrade id, or -1.
func (ms *ModifierSet) DefinitionIndex(id int) int {
	for i, u := range ms.Pending {
		if u.ID == id {
			return i
		}
	}
	return -1
}

// TierOf resolves the modifier tier of upgrade id.
// Untagged upgrades take the primary tier for the first definition and the
// secondary tier for the rest. Unknown ids are secondary.
func (ms *ModifierSet) TierOf(id int) Tier {
	idx := ms.DefinitionIndex(id)
	if idx < 0 {
		return TierSecondary
	}
	if t := ms.Pending[idx].Tier; t != TierUnset {
		return t
	}
	if idx == 0 {
		return TierPrimary
	}
	return TierSecondary
}

// Upsert sets the value of upgrade id and marks it purchased, inserting the
// slot in definition order when it is not yet known.
func (ms *ModifierSet) Upsert(id int, value float64) {
	if i := ms.Find(id); i >= 0 {
		ms.Accumulated[i].Value = value
		ms.Accumulated[i].Purchased = true
		return
	}

	entry := Modifier{ID: id, Value: value, Purchased: true}
	def := ms.DefinitionIndex(id)
	if def < 0 {
		ms.Accumulated = append(ms.Accumulated, entry)
		return
	}

	pos := len(ms.Accumulated)
	for i, m := range ms.Accumulated {
		other := ms.DefinitionIndex(m.ID)
		if other < 0 || other > def {
			pos = i
			break
		}
	}
	ms.Accumulated = append(ms.Accumulated, Modifier{})
	copy(ms.Accumulated[pos+1:], ms.Accumulated[pos:])
	ms.Accumulated[pos] = entry
}

// ClearPurchased reopens every upgrade slot for repurchase. Values stay.
func (ms *ModifierSet) ClearPurchased() {
	for i := range ms.Accumulated {
		ms.Accumulated[i].Purchased = false
	}
}

// ErrCatalogMismatch reports a name catalog shorter than the business catalog.
var ErrCatalogMismatch = errors.New("business catalog mismatch: fewer name entries than businesses")
