package main

import (
	"database/sql"
	"time"

	"github.com/pkg/errors"

	"github.com/idleworks/tycoon/internal/api"
	"github.com/idleworks/tycoon/internal/config"
	"github.com/idleworks/tycoon/internal/engine"
	"github.com/idleworks/tycoon/internal/events"
	"github.com/idleworks/tycoon/internal/infra/storage"
	"github.com/idleworks/tycoon/internal/ledger"
	"github.com/idleworks/tycoon/internal/platform/identifier"
	"github.com/idleworks/tycoon/internal/platform/logger"
	"github.com/idleworks/tycoon/internal/shop"
)

// app holds the wired components shared by every command.
type app struct {
	log      *logger.Logger
	db       *sql.DB                  // nil for in-memory runs
	memory   *storage.MemorySaveStore // nil for persistent runs
	eventLog *events.EventLog
	wallet   *ledger.Wallet
	engine   *engine.Engine
	shop     *shop.Shop
	reporter api.Reporter
}

// newApp wires the engine. With persistent set, saves and the journal go to
// the SQLite database at cfg.Storage.Path; otherwise everything stays in
// memory.
func newApp(cfg *config.Config, log *logger.Logger, persistent bool) (*app, error) {
	catalog, err := config.LoadCatalog(cfg.Catalog.Path)
	if err != nil {
		return nil, errors.Wrap(err, "load catalog")
	}

	a := &app{log: log, wallet: ledger.NewWallet()}

	var store engine.SaveService
	if persistent {
		log.Info("initializing sqlite database", "path", cfg.Storage.Path)
		a.db, err = storage.InitSQLite(cfg.Storage.Path)
		if err != nil {
			return nil, err
		}
		eventRepo := storage.NewSQLiteEventRepository(a.db)
		a.eventLog = events.NewEventLog(storage.NewJournalPersister(eventRepo, 5*time.Second))
		a.eventLog.OnPersistError(func(err error) {
			log.Warn("journal write-through failed", "error", err)
		})
		store = storage.NewSQLiteSaveStore(a.db, cfg.Storage.Slot)
		a.reporter = storage.NewReconstructor(eventRepo)
	} else {
		a.eventLog = events.NewEventLog(nil)
		a.memory = storage.NewMemorySaveStore()
		store = a.memory
		a.reporter = storage.NewLogReporter(a.eventLog)
	}

	ids := identifier.NewSequence(0)
	heroID := ids.Next()
	reg, err := engine.NewRegistry(catalog.Businesses, catalog.Names, ids, heroID)
	if err != nil {
		a.close()
		return nil, err
	}

	a.engine = engine.NewEngine(reg, heroID, a.wallet, store, a.eventLog, log)
	a.shop = shop.NewShop(a.engine, a.engine.GetMailbox(), a.wallet, log)
	return a, nil
}

func (a *app) close() {
	if a.db != nil {
		a.db.Close()
	}
}
