package events

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPersister struct {
	mu     sync.Mutex
	events []GameEvent
	err    error
}

func (p *recordingPersister) Append(e GameEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPersister) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

func TestEventLogAppendFillsIdentity(t *testing.T) {
	el := NewEventLog(nil)
	el.Append(GameEvent{Type: EventTypeLevelUp, BusinessID: 2})

	events := el.Replay()
	require.Len(t, events, 1)
	assert.NotEmpty(t, events[0].ID)
	assert.False(t, events[0].Timestamp.IsZero())
}

func TestEventLogSince(t *testing.T) {
	el := NewEventLog(nil)
	for i := 0; i < 5; i++ {
		el.Append(GameEvent{Type: EventTypeMoneyUpdate, Tick: int64(i)})
	}

	assert.Len(t, el.Since(3), 2)
	assert.Nil(t, el.Since(5))
	assert.Len(t, el.Since(-1), 5)
	assert.Equal(t, 5, el.Len())
}

func TestEventLogFilters(t *testing.T) {
	el := NewEventLog(nil)
	el.Append(GameEvent{Type: EventTypeLevelUp, BusinessID: 1})
	el.Append(GameEvent{Type: EventTypeMoneyUpdate, BusinessID: 1})
	el.Append(GameEvent{Type: EventTypeMoneyUpdate, BusinessID: 2})

	assert.Len(t, el.GetByBusiness(1), 2)
	assert.Len(t, el.GetByType(EventTypeMoneyUpdate), 2)
}

func TestEventLogWritesThrough(t *testing.T) {
	p := &recordingPersister{err: errors.New("disk full")}
	el := NewEventLog(p)

	failures := make(chan error, 1)
	el.OnPersistError(func(err error) { failures <- err })
	el.Append(GameEvent{Type: EventTypeGameSaved})

	select {
	case err := <-failures:
		assert.EqualError(t, err, "disk full")
	case <-time.After(time.Second):
		t.Fatal("persist error was not reported")
	}
	assert.Equal(t, 1, p.count())
}

func TestMailboxDrainIsOneShot(t *testing.T) {
	m := NewMailbox()
	m.PostLevelUp(LevelUpRequest{BusinessID: 0, Level: 1})
	m.PostUpgrade(UpgradePurchasedRequest{BusinessID: 0, UpgradeID: 3, ModifierValue: 0.5})
	m.PostSave(SaveRequest{})
	m.PostSave(SaveRequest{})

	b := m.Drain()
	assert.Len(t, b.LevelUps, 1)
	assert.Len(t, b.Upgrades, 1)
	assert.True(t, b.Save)
	assert.False(t, b.Empty())

	assert.True(t, m.Drain().Empty())
}

func TestMailboxConcurrentPosts(t *testing.T) {
	m := NewMailbox()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			m.PostLevelUp(LevelUpRequest{BusinessID: id, Level: 1})
		}(i)
	}
	wg.Wait()

	assert.Len(t, m.Drain().LevelUps, 50)
}

func TestMailboxResetDropsEarlierRequests(t *testing.T) {
	m := NewMailbox()
	m.PostLevelUp(LevelUpRequest{BusinessID: 1, Level: 1})
	m.PostReset(ResetRequest{})
	m.PostUpgrade(UpgradePurchasedRequest{BusinessID: 0, UpgradeID: 1, ModifierValue: 1})

	b := m.Drain()
	assert.True(t, b.Reset)
	assert.Empty(t, b.LevelUps)
	assert.Len(t, b.Upgrades, 1)
	assert.False(t, m.Drain().Reset)
}
