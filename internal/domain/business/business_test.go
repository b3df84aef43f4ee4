package business

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testData() Data {
	return Data{
		Name:        "Lemonade Stand",
		IncomeDelay: 3,
		BaseCost:    3,
		BaseIncome:  3,
		Upgrades: []UpgradeData{
			{ID: 10, Price: 50, IncomeModifier: 0.5},
			{ID: 11, Price: 400, IncomeModifier: 1.0},
		},
	}
}

func TestNewFirstBusinessStartsOwned(t *testing.T) {
	b := New(0, 7, 1, testData(), NameData{Name: "ignored"})

	assert.Equal(t, 0, b.ID)
	assert.Equal(t, 7, b.EntityID)
	assert.Equal(t, "Lemonade Stand", b.Name)
	assert.Equal(t, 1, b.Level)
	assert.True(t, b.Purchased)
	assert.True(t, b.Cooldown.IsAvailable)
	assert.Equal(t, 3.0, b.Cooldown.TimeLeft)
	assert.Equal(t, 6, b.LevelUpPrice)
	assert.Equal(t, 1.0, b.Modifiers.TotalMultiplier)
	assert.Len(t, b.Modifiers.Pending, 2)
	assert.NotNil(t, b.Modifiers.Accumulated)
}

func TestNewLaterBusinessStartsDormant(t *testing.T) {
	data := testData()
	data.Name = ""
	b := New(2, 9, 1, data, NameData{Name: "Newspaper"})

	assert.Equal(t, "Newspaper", b.Name)
	assert.Equal(t, 0, b.Level)
	assert.False(t, b.Purchased)
	assert.False(t, b.Cooldown.IsAvailable)
	assert.Equal(t, 3, b.LevelUpPrice)
}

func TestCompleteFillsMissingState(t *testing.T) {
	b := New(1, 2, 1, testData(), NameData{})
	b.Cooldown = Cooldown{}
	b.Modifiers = ModifierSet{}
	b.LevelUpPrice = 0

	b.Complete()

	assert.Equal(t, 3.0, b.Cooldown.Duration)
	assert.Equal(t, 3.0, b.Cooldown.TimeLeft)
	assert.NotNil(t, b.Modifiers.Accumulated)
	assert.Equal(t, 1.0, b.Modifiers.TotalMultiplier)
	assert.Len(t, b.Modifiers.Pending, 2)
	assert.Equal(t, 3, b.LevelUpPrice)
}

func TestUpsertKeepsDefinitionOrder(t *testing.T) {
	b := New(0, 1, 1, testData(), NameData{})
	ms := &b.Modifiers

	ms.Upsert(11, 1.0)
	ms.Upsert(10, 0.5)
	ms.Upsert(99, 2.0)

	require.Len(t, ms.Accumulated, 3)
	assert.Equal(t, 10, ms.Accumulated[0].ID)
	assert.Equal(t, 11, ms.Accumulated[1].ID)
	assert.Equal(t, 99, ms.Accumulated[2].ID)

	ms.Upsert(10, 0.75)
	require.Len(t, ms.Accumulated, 3)
	assert.Equal(t, 0.75, ms.Accumulated[0].Value)
	assert.True(t, ms.Accumulated[0].Purchased)
}

func TestClearPurchasedKeepsValues(t *testing.T) {
	b := New(0, 1, 1, testData(), NameData{})
	b.Modifiers.Upsert(10, 0.5)

	b.Modifiers.ClearPurchased()

	assert.False(t, b.Modifiers.Accumulated[0].Purchased)
	assert.Equal(t, 0.5, b.Modifiers.Accumulated[0].Value)
}

func TestTierOf(t *testing.T) {
	data := testData()
	data.Upgrades = append(data.Upgrades, UpgradeData{ID: 12, Tier: TierPrimary})
	b := New(0, 1, 1, data, NameData{})

	assert.Equal(t, TierPrimary, b.Modifiers.TierOf(10))
	assert.Equal(t, TierSecondary, b.Modifiers.TierOf(11))
	assert.Equal(t, TierPrimary, b.Modifiers.TierOf(12))
	assert.Equal(t, TierSecondary, b.Modifiers.TierOf(404))
}

func TestDisplayProgress(t *testing.T) {
	assert.InDelta(t, 0.25, Cooldown{Duration: 4, TimeLeft: 3}.DisplayProgress(), 1e-9)
	assert.Equal(t, 0.0, Cooldown{}.DisplayProgress())
}
