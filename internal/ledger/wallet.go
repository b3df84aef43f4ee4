// Package ledger holds the currency balances that business income is paid into.
// It sits outside the simulation core: the engine only hands it
// MoneyUpdateRequests and never waits on the result.
package ledger

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/idleworks/tycoon/internal/events"
)

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidAmount     = errors.New("amount must be positive")
)

// Wallet is a goroutine-safe set of balances keyed by owner id.
type Wallet struct {
	mu       sync.RWMutex
	balances map[int]int
	credited map[int]int // Lifetime income per owner
}

// NewWallet creates an empty wallet.
func NewWallet() *Wallet {
	return &Wallet{
		balances: make(map[int]int),
		credited: make(map[int]int),
	}
}

// Apply credits a money-update request. Non-positive amounts are ignored.
func (w *Wallet) Apply(req events.MoneyUpdateRequest) {
	if req.Amount <= 0 {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.balances[req.OwnerID] += req.Amount
	w.credited[req.OwnerID] += req.Amount
}

// Spend debits amount from the owner or fails without changing anything.
func (w *Wallet) Spend(ownerID, amount int) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.balances[ownerID] < amount {
		return errors.Wrapf(ErrInsufficientFunds, "owner %d has %d, needs %d", ownerID, w.balances[ownerID], amount)
	}
	w.balances[ownerID] -= amount
	return nil
}

// Refund returns a previously spent amount.
func (w *Wallet) Refund(ownerID, amount int) {
	if amount <= 0 {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.balances[ownerID] += amount
}

// Balance returns the owner's current money.
func (w *Wallet) Balance(ownerID int) int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.balances[ownerID]
}

// Credited returns the owner's lifetime realized income.
func (w *Wallet) Credited(ownerID int) int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.credited[ownerID]
}

// SetBalance overwrites the owner's money, used when loading a save.
func (w *Wallet) SetBalance(ownerID, amount int) {
	if amount < 0 {
		amount = 0
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.balances[ownerID] = amount
}
