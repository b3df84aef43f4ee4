package engine

import (
	"fmt"

	"github.com/idleworks/tycoon/internal/domain/rules"
	"github.com/idleworks/tycoon/internal/events"
	"github.com/idleworks/tycoon/internal/platform/logger"
	"github.com/idleworks/tycoon/internal/platform/metrics"
)

// Refund reasons recorded in PURCHASE_REFUNDED entries.
const (
	RefundDiscarded    = "discarded"
	RefundUpgradeOwned = "upgrade_owned"
	RefundNotPurchased = "not_purchased"
	RefundUnknown      = "unknown_upgrade"
	RefundInsufficient = "insufficient_funds"
	RefundOverpaid     = "overpaid"
)

// RefundPayload is attached to PURCHASE_REFUNDED journal entries.
type RefundPayload struct {
	UpgradeID int    `json:"upgrade_id,omitempty"`
	Amount    int    `json:"amount"`
	Reason    string `json:"reason"`
}

// SettlementSystem reconciles what a request paid up front with the price
// the business charges at the moment the request is applied.
// Requests with Paid == 0 are grants and pass through untouched.
type SettlementSystem struct {
	eventLog *events.EventLog
	logger   *logger.Logger
	purse    Purse
}

// NewSettlementSystem creates a settlement step charging purse.
func NewSettlementSystem(eventLog *events.EventLog, log *logger.Logger, purse Purse) *SettlementSystem {
	return &SettlementSystem{
		eventLog: eventLog,
		logger:   log,
		purse:    purse,
	}
}

// LevelCost is the price of adding n levels to a business at level.
func LevelCost(level, baseCost, n int) int {
	cost := 0
	for k := 0; k < n; k++ {
		cost += rules.CalculateLevelUpPrice(level+k, baseCost)
	}
	return cost
}

// SettleLevelUp charges or refunds the difference between req.Paid and the
// current price. It returns false, with Paid refunded, when the owner cannot
// cover a higher price. Invalid requests pass; Discard refunds them once the
// level-up system has rejected them.
func (ss *SettlementSystem) SettleLevelUp(reg *Registry, req events.LevelUpRequest, tick int64) bool {
	if req.Paid <= 0 || req.Level < 0 {
		return true
	}
	b := reg.Get(req.BusinessID)
	if b == nil {
		return true
	}

	cost := LevelCost(b.Level, b.BaseCost, req.Level)
	return ss.settle(b.OwnerID, b.ID, -1, req.Paid, cost, tick)
}

// SettleUpgrade rejects, with Paid refunded, a paid upgrade whose business is
// not owned or whose slot is already bought at the current level. Otherwise
// it settles Paid against the catalog price.
func (ss *SettlementSystem) SettleUpgrade(reg *Registry, req events.UpgradePurchasedRequest, tick int64) bool {
	if req.Paid <= 0 {
		return true
	}
	b := reg.Get(req.BusinessID)
	if b == nil {
		return true
	}

	if !b.Purchased {
		ss.refund(b.OwnerID, b.ID, req.UpgradeID, req.Paid, RefundNotPurchased, tick)
		return false
	}
	if idx := b.Modifiers.Find(req.UpgradeID); idx >= 0 && b.Modifiers.Accumulated[idx].Purchased {
		ss.refund(b.OwnerID, b.ID, req.UpgradeID, req.Paid, RefundUpgradeOwned, tick)
		return false
	}

	price := -1
	for _, u := range b.Modifiers.Pending {
		if u.ID == req.UpgradeID {
			price = u.Price
			break
		}
	}
	if price < 0 {
		ss.refund(b.OwnerID, b.ID, req.UpgradeID, req.Paid, RefundUnknown, tick)
		return false
	}
	return ss.settle(b.OwnerID, b.ID, req.UpgradeID, req.Paid, price, tick)
}

// Discard refunds a paid request another system refused to apply.
func (ss *SettlementSystem) Discard(ownerID, businessID, upgradeID, paid int, tick int64) {
	if paid <= 0 {
		return
	}
	ss.refund(ownerID, businessID, upgradeID, paid, RefundDiscarded, tick)
}

func (ss *SettlementSystem) settle(ownerID, businessID, upgradeID, paid, cost int, tick int64) bool {
	switch {
	case paid < cost:
		if err := ss.purse.Spend(ownerID, cost-paid); err != nil {
			ss.logger.Debug("purchase rejected at settlement", "business", businessID, "paid", paid, "cost", cost, "error", err)
			ss.refund(ownerID, businessID, upgradeID, paid, RefundInsufficient, tick)
			return false
		}
	case paid > cost:
		ss.refund(ownerID, businessID, upgradeID, paid-cost, RefundOverpaid, tick)
	}
	return true
}

func (ss *SettlementSystem) refund(ownerID, businessID, upgradeID, amount int, reason string, tick int64) {
	ss.purse.Refund(ownerID, amount)

	payload := RefundPayload{Amount: amount, Reason: reason}
	if upgradeID >= 0 {
		payload.UpgradeID = upgradeID
	}
	ss.eventLog.Append(events.GameEvent{
		Type:       events.EventTypePurchaseRefunded,
		ActorID:    ownerID,
		BusinessID: businessID,
		Payload:    payload,
		Tick:       tick,
	})
	if reason != RefundOverpaid {
		metrics.RequestsDiscarded.WithLabelValues("purchase").Inc()
	}
	ss.logger.Event(string(events.EventTypePurchaseRefunded), businessID, fmt.Sprintf("%d refunded: %s", amount, reason))
}
