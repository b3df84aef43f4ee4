package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idleworks/tycoon/internal/domain/business"
	"github.com/idleworks/tycoon/internal/domain/save"
	"github.com/idleworks/tycoon/internal/events"
	"github.com/idleworks/tycoon/internal/platform/identifier"
	"github.com/idleworks/tycoon/internal/platform/logger"
)

func TestAdvance(t *testing.T) {
	tests := []struct {
		name      string
		cooldown  business.Cooldown
		delta     float64
		completed bool
		timeLeft  float64
	}{
		{"unavailable is a no-op", business.Cooldown{Duration: 5, TimeLeft: 1}, 10, false, 1},
		{"partial", business.Cooldown{Duration: 5, TimeLeft: 5, IsAvailable: true}, 2, false, 3},
		{"exact wrap", business.Cooldown{Duration: 5, TimeLeft: 2, IsAvailable: true}, 2, true, 5},
		{"overshoot discarded", business.Cooldown{Duration: 5, TimeLeft: 1, IsAvailable: true}, 4, true, 5},
		{"negative delta clamps", business.Cooldown{Duration: 5, TimeLeft: 3, IsAvailable: true}, -4, false, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := tt.cooldown
			assert.Equal(t, tt.completed, Advance(&c, tt.delta))
			assert.Equal(t, tt.completed, c.IsCompleted)
			assert.InDelta(t, tt.timeLeft, c.TimeLeft, 1e-9)
		})
	}
}

func TestAdvanceClearsCompletedFlag(t *testing.T) {
	c := business.Cooldown{Duration: 5, TimeLeft: 1, IsAvailable: true}
	require.True(t, Advance(&c, 1))
	require.False(t, Advance(&c, 1))
	assert.False(t, c.IsCompleted)
}

func TestUnpurchasedCompletionIsNotCredited(t *testing.T) {
	data, names := testCatalog()
	reg, err := NewRegistry(data, names, identifier.NewSequence(0), testHero)
	require.NoError(t, err)

	b := reg.Get(1)
	b.Cooldown.IsAvailable = true

	sink := &recordingSink{}
	rs := NewRealizationSystem(events.NewEventLog(nil), logger.Discard(), sink)
	cs := NewCooldownSystem(logger.Discard())

	completed := cs.Run(reg, 8)
	assert.Equal(t, []int{0, 1}, completed)
	emitted := rs.Run(reg, completed, 1)
	require.Len(t, emitted, 1)
	assert.Equal(t, testHero, sink.reqs[0].OwnerID)
}

type recordingSink struct {
	reqs []events.MoneyUpdateRequest
}

func (s *recordingSink) Apply(req events.MoneyUpdateRequest) {
	s.reqs = append(s.reqs, req)
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	data, names := testCatalog()
	reg, err := NewRegistry(data, names, identifier.NewSequence(0), testHero)
	require.NoError(t, err)

	b := reg.Get(1)
	b.Level = 4
	b.Purchased = true
	b.Cooldown.IsAvailable = true
	b.Cooldown.TimeLeft = 2.5
	b.Modifiers.Upsert(1, 0.25)
	b.Modifiers.Upsert(9, 0)
	NewIncomeSystem(logger.Discard()).RecomputeAll(reg)

	first := Snapshot(reg, 77)
	require.Len(t, first.Businesses[1].Upgrades, 1, "zero-valued modifiers are not saved")

	fresh, err := NewRegistry(data, names, identifier.NewSequence(0), testHero)
	require.NoError(t, err)
	assert.Equal(t, 2, Restore(fresh, &first))

	assert.Equal(t, first, Snapshot(fresh, 77))
}

func TestRestoreClampsAndIgnoresUnknown(t *testing.T) {
	data, names := testCatalog()
	reg, err := NewRegistry(data, names, identifier.NewSequence(0), testHero)
	require.NoError(t, err)

	s := &save.GameSave{Businesses: []save.BusinessSave{
		{ID: 0, Level: -3, Cooldown: 99, IsCooldownAvailable: false},
		{ID: 5, Level: 2},
	}}
	assert.Equal(t, 1, Restore(reg, s))

	b := reg.Get(0)
	assert.Equal(t, 0, b.Level)
	assert.InDelta(t, 5.0, b.Cooldown.TimeLeft, 1e-9)
	assert.True(t, b.Cooldown.IsAvailable, "a save never revokes availability")

	assert.Equal(t, 0, Restore(reg, nil))
}

func TestRecomputeIsIdempotent(t *testing.T) {
	data, names := testCatalog()
	reg, err := NewRegistry(data, names, identifier.NewSequence(0), testHero)
	require.NoError(t, err)
	reg.Get(0).Modifiers.Upsert(3, 0.5)

	is := NewIncomeSystem(logger.Discard())
	is.RecomputeAll(reg)
	once := *reg.Get(0)
	is.RecomputeAll(reg)

	assert.Equal(t, once.CurrentIncome, reg.Get(0).CurrentIncome)
	assert.Equal(t, once.LevelUpPrice, reg.Get(0).LevelUpPrice)
	assert.Equal(t, 15, once.TotalIncome)
}

func TestProgressTracksTimer(t *testing.T) {
	data, names := testCatalog()
	reg, err := NewRegistry(data, names, identifier.NewSequence(0), testHero)
	require.NoError(t, err)
	reg.Get(0).Cooldown.TimeLeft = 1.25

	NewProgressSystem().Run(reg)
	assert.InDelta(t, 0.75, reg.Get(0).Progress, 1e-9)
	assert.InDelta(t, 0.0, reg.Get(1).Progress, 1e-9)
}

func TestRegistryReset(t *testing.T) {
	data, names := testCatalog()
	reg, err := NewRegistry(data, names, identifier.NewSequence(10), testHero)
	require.NoError(t, err)

	entity := reg.Get(1).EntityID
	reg.Get(1).Level = 9
	reg.Reset()

	assert.Equal(t, 0, reg.Get(1).Level)
	assert.Equal(t, entity, reg.Get(1).EntityID)
	assert.Equal(t, 1, reg.Get(0).Level)
	assert.Equal(t, "Oven", reg.Names(1).UpgradeNames[0])
}
