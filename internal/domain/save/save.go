// Package save defines the flat, serializable snapshot of a game session.
package save

// GameSave is the persisted layout of a session.
type GameSave struct {
	Hero       HeroSave       `json:"hero"`
	Businesses []BusinessSave `json:"businesses"`
}

// HeroSave holds the hero's wallet.
type HeroSave struct {
	Money int `json:"money"`
}

// BusinessSave is the saved state of one business slot.
type BusinessSave struct {
	ID                  int           `json:"id"`
	Level               int           `json:"level"`
	Progress            float64       `json:"progress"`
	Cooldown            float64       `json:"cooldown"` // Time left in the current cycle
	Income              int           `json:"income"`
	LevelUpPrice        int           `json:"level_up_price"`
	IsPurchased         bool          `json:"is_purchased"`
	IsCooldownAvailable bool          `json:"is_cooldown_available"`
	Upgrades            []UpgradeSave `json:"upgrades"`
}

// UpgradeSave is one accumulated modifier with a positive value.
type UpgradeSave struct {
	ID             int     `json:"id"`
	IncomeModifier float64 `json:"income_modifier"`
	Purchased      bool    `json:"purchased"`
}

// Find returns the saved entry for business id, or nil.
func (g *GameSave) Find(id int) *BusinessSave {
	if g == nil {
		return nil
	}
	for i := range g.Businesses {
		if g.Businesses[i].ID == id {
			return &g.Businesses[i]
		}
	}
	return nil
}
