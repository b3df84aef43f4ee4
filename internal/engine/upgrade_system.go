package engine

import (
	"fmt"

	"github.com/idleworks/tycoon/internal/events"
	"github.com/idleworks/tycoon/internal/platform/logger"
	"github.com/idleworks/tycoon/internal/platform/metrics"
)

// UpgradePayload is attached to UPGRADE_PURCHASED journal entries.
type UpgradePayload struct {
	UpgradeID int     `json:"upgrade_id"`
	Value     float64 `json:"value"`
}

// UpgradeSystem folds purchased upgrades into each business's modifier set.
type UpgradeSystem struct {
	eventLog *events.EventLog
	logger   *logger.Logger
}

// NewUpgradeSystem creates a new modifier accumulator.
func NewUpgradeSystem(eventLog *events.EventLog, log *logger.Logger) *UpgradeSystem {
	return &UpgradeSystem{
		eventLog: eventLog,
		logger:   log,
	}
}

// Apply records one upgrade purchase. Replaying the same request leaves the
// modifier set unchanged.
func (us *UpgradeSystem) Apply(reg *Registry, req events.UpgradePurchasedRequest, tick int64) bool {
	b := reg.Get(req.BusinessID)
	if b == nil {
		metrics.RequestsDiscarded.WithLabelValues("upgrade").Inc()
		us.logger.Debug("upgrade discarded: unknown business", "business", req.BusinessID, "upgrade", req.UpgradeID)
		return false
	}

	b.Modifiers.Upsert(req.UpgradeID, req.ModifierValue)

	us.eventLog.Append(events.GameEvent{
		Type:       events.EventTypeUpgradePurchased,
		ActorID:    b.OwnerID,
		BusinessID: b.ID,
		Payload:    UpgradePayload{UpgradeID: req.UpgradeID, Value: req.ModifierValue},
		Tick:       tick,
	})
	metrics.UpgradesPurchased.Inc()
	us.logger.Event(string(events.EventTypeUpgradePurchased), b.ID,
		fmt.Sprintf("upgrade %d value %.2f", req.UpgradeID, req.ModifierValue))
	return true
}
