// Package shop implements the purchase flow: it quotes prices from the
// published views, charges the wallet and posts the request the engine
// applies on its next tick. The engine settles the amount paid against the
// state it applies the request to, so a stale quote is corrected there.
package shop

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/idleworks/tycoon/internal/domain/rules"
	"github.com/idleworks/tycoon/internal/engine"
	"github.com/idleworks/tycoon/internal/events"
	"github.com/idleworks/tycoon/internal/platform/logger"
)

var (
	ErrUnknownBusiness = errors.New("unknown business")
	ErrUnknownUpgrade  = errors.New("unknown upgrade")
	ErrUpgradeOwned    = errors.New("upgrade already purchased at this level")
	ErrNotPurchased    = errors.New("business not purchased")
)

// ViewSource is the read side of the engine.
type ViewSource interface {
	GetView(id int) (engine.BusinessView, bool)
	HeroID() int
	CurrentTick() int64
}

// Poster is the write side of the engine.
type Poster interface {
	PostLevelUp(req events.LevelUpRequest)
	PostUpgrade(req events.UpgradePurchasedRequest)
}

// Purse is the hero's wallet.
type Purse interface {
	Spend(ownerID, amount int) error
	Balance(ownerID int) int
}

// reservation is a purchase already charged whose request the published
// views may not reflect yet.
type reservation struct {
	business int
	upgrade  int   // -1 for a level
	level    int   // Level reached, or the level an upgrade was bought at
	expires  int64 // Tick by which the engine has drained the request
}

// Receipt describes a completed purchase.
type Receipt struct {
	BusinessID int `json:"business_id"`
	UpgradeID  int `json:"upgrade_id,omitempty"`
	Price      int `json:"price"`
	Balance    int `json:"balance"`
}

// Shop sells levels and upgrades.
type Shop struct {
	views  ViewSource
	posts  Poster
	purse  Purse
	logger *logger.Logger

	mu      sync.Mutex
	pending []reservation
}

// NewShop creates a shop over the engine's views and mailbox.
func NewShop(views ViewSource, posts Poster, purse Purse, log *logger.Logger) *Shop {
	return &Shop{
		views:  views,
		posts:  posts,
		purse:  purse,
		logger: log,
	}
}

// BuyLevel charges the price of the next level and requests it. Levels
// bought earlier that the views do not show yet are priced in.
func (s *Shop) BuyLevel(businessID int) (Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.views.GetView(businessID)
	if !ok {
		return Receipt{}, errors.Wrapf(ErrUnknownBusiness, "business %d", businessID)
	}
	s.prune()

	level := v.Level + s.queuedLevels(v)
	price := rules.CalculateLevelUpPrice(level, v.BaseCost)

	hero := s.views.HeroID()
	if err := s.purse.Spend(hero, price); err != nil {
		return Receipt{}, errors.Wrapf(err, "level up business %d", businessID)
	}
	s.posts.PostLevelUp(events.LevelUpRequest{BusinessID: businessID, Level: 1, Paid: price})
	s.reserve(reservation{business: businessID, upgrade: -1, level: level + 1})

	s.logger.Debug("level bought", "business", businessID, "price", price)
	return Receipt{
		BusinessID: businessID,
		Price:      price,
		Balance:    s.purse.Balance(hero),
	}, nil
}

// BuyUpgrade charges the catalog price of an upgrade and requests it. The
// business must be purchased and the upgrade not yet bought at this level,
// including by an earlier call the views do not show yet.
func (s *Shop) BuyUpgrade(businessID, upgradeID int) (Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.views.GetView(businessID)
	if !ok {
		return Receipt{}, errors.Wrapf(ErrUnknownBusiness, "business %d", businessID)
	}
	if !v.Purchased {
		return Receipt{}, errors.Wrapf(ErrNotPurchased, "business %d", businessID)
	}

	u, ok := v.Upgrade(upgradeID)
	if !ok {
		return Receipt{}, errors.Wrapf(ErrUnknownUpgrade, "business %d upgrade %d", businessID, upgradeID)
	}
	s.prune()
	if u.Purchased || s.upgradeQueued(v, upgradeID) {
		return Receipt{}, errors.Wrapf(ErrUpgradeOwned, "business %d upgrade %d", businessID, upgradeID)
	}

	hero := s.views.HeroID()
	if u.Price > 0 {
		if err := s.purse.Spend(hero, u.Price); err != nil {
			return Receipt{}, errors.Wrapf(err, "upgrade business %d", businessID)
		}
	}
	s.posts.PostUpgrade(events.UpgradePurchasedRequest{
		BusinessID:    businessID,
		UpgradeID:     upgradeID,
		ModifierValue: u.Value,
		Paid:          u.Price,
	})
	s.reserve(reservation{business: businessID, upgrade: upgradeID, level: v.Level})

	s.logger.Debug("upgrade bought", "business", businessID, "upgrade", upgradeID, "price", u.Price)
	return Receipt{
		BusinessID: businessID,
		UpgradeID:  upgradeID,
		Price:      u.Price,
		Balance:    s.purse.Balance(hero),
	}, nil
}

// reserve records a purchase just posted. The tick is read after posting:
// if it is T, the request is drained no later than tick T+2, whose views are
// published before the tick counter reaches T+2.
func (s *Shop) reserve(r reservation) {
	r.expires = s.views.CurrentTick() + 2
	s.pending = append(s.pending, r)
}

func (s *Shop) prune() {
	tick := s.views.CurrentTick()
	kept := s.pending[:0]
	for _, r := range s.pending {
		if tick < r.expires {
			kept = append(kept, r)
		}
	}
	s.pending = kept
}

func (s *Shop) queuedLevels(v engine.BusinessView) int {
	n := 0
	for _, r := range s.pending {
		if r.business == v.ID && r.upgrade < 0 && r.level > v.Level {
			n++
		}
	}
	return n
}

func (s *Shop) upgradeQueued(v engine.BusinessView, upgradeID int) bool {
	for _, r := range s.pending {
		if r.business == v.ID && r.upgrade == upgradeID && r.level == v.Level {
			return true
		}
	}
	return false
}
