package engine

import (
	"github.com/idleworks/tycoon/internal/events"
	"github.com/idleworks/tycoon/internal/platform/logger"
	"github.com/idleworks/tycoon/internal/platform/metrics"
)

// MoneySink receives credit requests produced by completed cycles.
// Implementations must not block the tick.
type MoneySink interface {
	Apply(req events.MoneyUpdateRequest)
}

// Purse settles purchases paid for ahead of the tick that applies them.
type Purse interface {
	Spend(ownerID, amount int) error
	Refund(ownerID, amount int)
}

// Ledger is a MoneySink that also tracks the hero balance across saves.
type Ledger interface {
	MoneySink
	Purse
	Balance(ownerID int) int
	SetBalance(ownerID, amount int)
}

// RealizationSystem turns completed cycles into money-credit requests.
type RealizationSystem struct {
	eventLog *events.EventLog
	logger   *logger.Logger
	sink     MoneySink
}

// NewRealizationSystem creates a new income emitter writing to sink.
func NewRealizationSystem(eventLog *events.EventLog, log *logger.Logger, sink MoneySink) *RealizationSystem {
	return &RealizationSystem{
		eventLog: eventLog,
		logger:   log,
		sink:     sink,
	}
}

// Run emits exactly one request per completed, purchased business and
// returns what it emitted.
func (rs *RealizationSystem) Run(reg *Registry, completed []int, tick int64) []events.MoneyUpdateRequest {
	var emitted []events.MoneyUpdateRequest
	for _, id := range completed {
		b := reg.Get(id)
		if b == nil || !b.Purchased {
			continue
		}

		req := events.MoneyUpdateRequest{OwnerID: b.OwnerID, Amount: b.TotalIncome}
		rs.sink.Apply(req)
		emitted = append(emitted, req)

		rs.eventLog.Append(events.GameEvent{
			Type:       events.EventTypeMoneyUpdate,
			ActorID:    b.OwnerID,
			BusinessID: b.ID,
			Payload:    req,
			Tick:       tick,
		})
		metrics.IncomeRealized.Add(float64(req.Amount))
	}
	return emitted
}
