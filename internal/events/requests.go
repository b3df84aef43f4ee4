package events

import "sync"

// LevelUpRequest asks the engine to add Level levels to a business.
// Level <= -1 is a sentinel and is discarded. Paid is the amount already
// taken from the owner's wallet; the engine settles it against the price
// when the request is applied. Zero means the levels are granted for free.
type LevelUpRequest struct {
	BusinessID int `json:"business_id"`
	Level      int `json:"level"`
	Paid       int `json:"paid,omitempty"`
}

// UpgradePurchasedRequest records a bought income upgrade. Paid follows the
// same rules as LevelUpRequest.Paid.
type UpgradePurchasedRequest struct {
	BusinessID    int     `json:"business_id"`
	UpgradeID     int     `json:"upgrade_id"`
	ModifierValue float64 `json:"modifier_value"`
	Paid          int     `json:"paid,omitempty"`
}

// MoneyUpdateRequest credits Amount to the owner's wallet.
type MoneyUpdateRequest struct {
	OwnerID int `json:"owner_id"`
	Amount  int `json:"amount"`
}

// SaveRequest triggers a snapshot of the whole registry.
type SaveRequest struct{}

// ResetRequest discards all progress and the stored save.
type ResetRequest struct{}

// Batch is everything drained from the mailbox for one tick.
type Batch struct {
	Reset    bool
	LevelUps []LevelUpRequest
	Upgrades []UpgradePurchasedRequest
	Save     bool
}

// Empty reports whether the batch carries no requests.
func (b Batch) Empty() bool {
	return !b.Reset && len(b.LevelUps) == 0 && len(b.Upgrades) == 0 && !b.Save
}

// Mailbox queues requests from any goroutine for the engine's next tick.
// Drain hands each request out exactly once.
type Mailbox struct {
	mu       sync.Mutex
	levelUps []LevelUpRequest
	upgrades []UpgradePurchasedRequest
	save     bool
	reset    bool
}

// NewMailbox creates an empty mailbox.
func NewMailbox() *Mailbox {
	return &Mailbox{}
}

// PostLevelUp enqueues a level-up request.
func (m *Mailbox) PostLevelUp(req LevelUpRequest) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.levelUps = append(m.levelUps, req)
}

// PostUpgrade enqueues an upgrade-purchased request.
func (m *Mailbox) PostUpgrade(req UpgradePurchasedRequest) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upgrades = append(m.upgrades, req)
}

// PostSave enqueues a save request. Multiple requests in one tick collapse.
func (m *Mailbox) PostSave(SaveRequest) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.save = true
}

// PostReset enqueues a progress reset. Requests posted before it in the
// same tick are dropped when it is drained.
func (m *Mailbox) PostReset(ResetRequest) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reset = true
	m.levelUps = nil
	m.upgrades = nil
}

// Drain removes and returns every pending request.
func (m *Mailbox) Drain() Batch {
	m.mu.Lock()
	defer m.mu.Unlock()

	b := Batch{
		Reset:    m.reset,
		LevelUps: m.levelUps,
		Upgrades: m.upgrades,
		Save:     m.save,
	}
	m.levelUps = nil
	m.upgrades = nil
	m.save = false
	m.reset = false
	return b
}
