package engine

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"

	"github.com/idleworks/tycoon/internal/events"
	"github.com/idleworks/tycoon/internal/platform/logger"
	"github.com/idleworks/tycoon/internal/platform/metrics"
)

// LoadPayload is attached to GAME_LOADED journal entries.
type LoadPayload struct {
	Restored int `json:"restored"`
	Money    int `json:"money"`
}

// SavePayload is attached to GAME_SAVED and SAVE_FAILED journal entries.
type SavePayload struct {
	Money int    `json:"money"`
	Error string `json:"error,omitempty"`
}

// TickResult summarises what one tick did.
type TickResult struct {
	Tick      int64
	Completed []int
	Emitted   []events.MoneyUpdateRequest
	Saved     bool
	SaveErr   error
}

// Engine is the central orchestrator: it owns the registry, drains the
// mailbox and runs the tick pipeline. Tick must only be called from one
// goroutine; everything else goes through the mailbox or the views.
type Engine struct {
	eventLog *events.EventLog
	logger   *logger.Logger
	mailbox  *events.Mailbox
	registry *Registry
	ledger   Ledger
	store    SaveService
	heroID   int

	// Sub-systems
	settlementSystem  *SettlementSystem
	levelUpSystem     *LevelUpSystem
	upgradeSystem     *UpgradeSystem
	incomeSystem      *IncomeSystem
	progressSystem    *ProgressSystem
	cooldownSystem    *CooldownSystem
	realizationSystem *RealizationSystem

	pipeline *Pipeline
	tick     atomic.Int64

	viewsMu sync.RWMutex
	views   []BusinessView
}

// NewEngine wires the systems around reg. store may be nil, in which case
// save requests are dropped.
func NewEngine(reg *Registry, heroID int, ledger Ledger, store SaveService, eventLog *events.EventLog, log *logger.Logger) *Engine {
	e := &Engine{
		eventLog: eventLog,
		logger:   log,
		mailbox:  events.NewMailbox(),
		registry: reg,
		ledger:   ledger,
		store:    store,
		heroID:   heroID,

		settlementSystem:  NewSettlementSystem(eventLog, log, ledger),
		levelUpSystem:     NewLevelUpSystem(eventLog, log),
		upgradeSystem:     NewUpgradeSystem(eventLog, log),
		incomeSystem:      NewIncomeSystem(log),
		progressSystem:    NewProgressSystem(),
		cooldownSystem:    NewCooldownSystem(log),
		realizationSystem: NewRealizationSystem(eventLog, log, ledger),
	}

	e.pipeline = NewPipeline(
		Stage{Name: StageRequests, Run: e.runRequests},
		Stage{Name: StageRecompute, Run: func(*TickContext) { e.incomeSystem.RecomputeAll(e.registry) }},
		Stage{Name: StageProgress, Run: func(*TickContext) { e.progressSystem.Run(e.registry) }},
		Stage{Name: StageCooldown, Run: func(tc *TickContext) { tc.Completed = e.cooldownSystem.Run(e.registry, tc.Delta) }},
		Stage{Name: StageRealize, Run: func(tc *TickContext) { e.incomeSystem.Realize(e.registry, tc.Completed) }},
		Stage{Name: StageEmit, Run: func(tc *TickContext) {
			tc.Emitted = e.realizationSystem.Run(e.registry, tc.Completed, tc.Tick)
		}},
		Stage{Name: StageSave, Run: e.runSave},
	)

	e.publish()
	return e
}

// Tick advances the simulation by delta seconds of game time.
func (e *Engine) Tick(ctx context.Context, delta float64) TickResult {
	start := time.Now()

	tc := &TickContext{
		Ctx:   ctx,
		Delta: delta,
		Tick:  e.tick.Load() + 1,
		Batch: e.mailbox.Drain(),
	}
	e.pipeline.Run(tc)
	e.publish()
	e.tick.Store(tc.Tick)

	metrics.RecordTick(time.Since(start))
	return TickResult{
		Tick:      tc.Tick,
		Completed: tc.Completed,
		Emitted:   tc.Emitted,
		Saved:     tc.Saved,
		SaveErr:   tc.SaveErr,
	}
}

// Load restores the stored session, if any. Must be called before the
// first tick.
func (e *Engine) Load(ctx context.Context) error {
	if e.store == nil {
		return nil
	}

	ok, err := e.store.HasSave(ctx)
	if err != nil {
		return errors.Wrap(err, "check save slot")
	}
	if !ok {
		e.logger.Info("no save found, starting from catalog defaults")
		return nil
	}

	s, err := e.store.LoadGame(ctx)
	if err != nil {
		return errors.Wrap(err, "load save")
	}

	restored := Restore(e.registry, s)
	e.ledger.SetBalance(e.heroID, s.Hero.Money)
	e.progressSystem.Run(e.registry)
	e.publish()

	e.eventLog.Append(events.GameEvent{
		Type:       events.EventTypeGameLoaded,
		ActorID:    e.heroID,
		BusinessID: -1,
		Payload:    LoadPayload{Restored: restored, Money: s.Hero.Money},
		Tick:       e.tick.Load(),
	})
	e.logger.Info("save restored", "businesses", restored, "money", s.Hero.Money)
	return nil
}

// GetMailbox exposes the request mailbox to outside callers.
func (e *Engine) GetMailbox() *events.Mailbox {
	return e.mailbox
}

// GetEventLog exposes the journal.
func (e *Engine) GetEventLog() *events.EventLog {
	return e.eventLog
}

// GetViews returns a copy of the views published by the last tick.
func (e *Engine) GetViews() []BusinessView {
	e.viewsMu.RLock()
	defer e.viewsMu.RUnlock()

	out := make([]BusinessView, len(e.views))
	copy(out, e.views)
	return out
}

// GetView returns the published view of business id.
func (e *Engine) GetView(id int) (BusinessView, bool) {
	e.viewsMu.RLock()
	defer e.viewsMu.RUnlock()

	for _, v := range e.views {
		if v.ID == id {
			return v, true
		}
	}
	return BusinessView{}, false
}

// HeroID returns the owner id of every business.
func (e *Engine) HeroID() int {
	return e.heroID
}

// Balance returns the hero's current wallet balance.
func (e *Engine) Balance() int {
	return e.ledger.Balance(e.heroID)
}

// CurrentTick returns the number of ticks run so far.
func (e *Engine) CurrentTick() int64 {
	return e.tick.Load()
}

// StageNames returns the pipeline order.
func (e *Engine) StageNames() []string {
	return e.pipeline.Names()
}

func (e *Engine) runRequests(tc *TickContext) {
	if tc.Batch.Reset {
		e.reset(tc)
	}

	// Paid requests are settled against the state each one is applied to,
	// so several purchases of one business in a tick are priced in order.
	for _, req := range tc.Batch.LevelUps {
		if !e.settlementSystem.SettleLevelUp(e.registry, req, tc.Tick) {
			continue
		}
		if !e.levelUpSystem.Apply(e.registry, req, tc.Tick) {
			e.settlementSystem.Discard(e.heroID, req.BusinessID, -1, req.Paid, tc.Tick)
		}
	}
	for _, req := range tc.Batch.Upgrades {
		if !e.settlementSystem.SettleUpgrade(e.registry, req, tc.Tick) {
			continue
		}
		if !e.upgradeSystem.Apply(e.registry, req, tc.Tick) {
			e.settlementSystem.Discard(e.heroID, req.BusinessID, req.UpgradeID, req.Paid, tc.Tick)
		}
	}
}

func (e *Engine) reset(tc *TickContext) {
	e.registry.Reset()
	e.ledger.SetBalance(e.heroID, 0)

	if e.store != nil {
		if err := e.store.DeleteSave(tc.Ctx); err != nil {
			e.logger.Error("delete save failed", "error", err)
		}
	}
	e.logger.Info("progress reset", "tick", tc.Tick)
}

func (e *Engine) runSave(tc *TickContext) {
	if !tc.Batch.Save {
		return
	}
	if e.store == nil {
		e.logger.Debug("save requested without a store")
		return
	}

	s := Snapshot(e.registry, e.ledger.Balance(e.heroID))
	err := e.store.SaveGame(tc.Ctx, s)
	metrics.RecordSave(err)

	event := events.GameEvent{
		Type:       events.EventTypeGameSaved,
		ActorID:    e.heroID,
		BusinessID: -1,
		Payload:    SavePayload{Money: s.Hero.Money},
		Tick:       tc.Tick,
	}
	if err != nil {
		tc.SaveErr = err
		event.Type = events.EventTypeSaveFailed
		event.Payload = SavePayload{Money: s.Hero.Money, Error: err.Error()}
		e.logger.Error("save failed", "error", err)
	} else {
		tc.Saved = true
		e.logger.Debug("game saved", "tick", tc.Tick, "money", s.Hero.Money)
	}
	e.eventLog.Append(event)
}

func (e *Engine) publish() {
	views := buildViews(e.registry)

	e.viewsMu.Lock()
	e.views = views
	e.viewsMu.Unlock()
}
