package engine

import (
	"fmt"

	"github.com/idleworks/tycoon/internal/events"
	"github.com/idleworks/tycoon/internal/platform/logger"
	"github.com/idleworks/tycoon/internal/platform/metrics"
)

// LevelUpPayload is attached to LEVEL_UP journal entries.
type LevelUpPayload struct {
	Added    int `json:"added"`
	NewLevel int `json:"new_level"`
}

// LevelUpSystem applies drained level-up requests.
type LevelUpSystem struct {
	eventLog *events.EventLog
	logger   *logger.Logger
}

// NewLevelUpSystem creates a new level-up processor.
func NewLevelUpSystem(eventLog *events.EventLog, log *logger.Logger) *LevelUpSystem {
	return &LevelUpSystem{
		eventLog: eventLog,
		logger:   log,
	}
}

// Apply processes one request. Level <= -1 is a sentinel and unknown
// businesses are ignored; both return false.
func (ls *LevelUpSystem) Apply(reg *Registry, req events.LevelUpRequest, tick int64) bool {
	if req.Level <= -1 {
		metrics.RequestsDiscarded.WithLabelValues("level_up").Inc()
		ls.logger.Debug("level-up discarded: sentinel level", "business", req.BusinessID, "level", req.Level)
		return false
	}

	b := reg.Get(req.BusinessID)
	if b == nil {
		metrics.RequestsDiscarded.WithLabelValues("level_up").Inc()
		ls.logger.Debug("level-up discarded: unknown business", "business", req.BusinessID)
		return false
	}

	b.Level += req.Level
	if b.Level > 0 {
		b.Purchased = true
		b.Cooldown.IsAvailable = true
	}
	// A new level reopens every upgrade for purchase
	b.Modifiers.ClearPurchased()

	ls.eventLog.Append(events.GameEvent{
		Type:       events.EventTypeLevelUp,
		ActorID:    b.OwnerID,
		BusinessID: b.ID,
		Payload:    LevelUpPayload{Added: req.Level, NewLevel: b.Level},
		Tick:       tick,
	})
	metrics.LevelUps.Inc()
	ls.logger.Event(string(events.EventTypeLevelUp), b.ID, fmt.Sprintf("level %d", b.Level))
	return true
}
