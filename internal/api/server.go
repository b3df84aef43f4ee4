// Package api provides the HTTP surface of the simulation server. Handlers
// read the engine's published views and post requests; they never mutate
// business records.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/pkg/errors"

	"github.com/idleworks/tycoon/internal/engine"
	"github.com/idleworks/tycoon/internal/events"
	"github.com/idleworks/tycoon/internal/infra/storage"
	"github.com/idleworks/tycoon/internal/ledger"
	"github.com/idleworks/tycoon/internal/platform/logger"
	"github.com/idleworks/tycoon/internal/platform/metrics"
	"github.com/idleworks/tycoon/internal/shop"
)

// Game is the engine surface the API reads and posts to.
type Game interface {
	GetViews() []engine.BusinessView
	GetView(id int) (engine.BusinessView, bool)
	Balance() int
	HeroID() int
	CurrentTick() int64
	GetMailbox() *events.Mailbox
	GetEventLog() *events.EventLog
}

// Buyer executes purchases.
type Buyer interface {
	BuyLevel(businessID int) (shop.Receipt, error)
	BuyUpgrade(businessID, upgradeID int) (shop.Receipt, error)
}

// Reporter builds the income report.
type Reporter interface {
	BuildIncomeReport(ctx context.Context) (*storage.IncomeReport, error)
}

// HeroResponse is the body of GET /api/hero.
type HeroResponse struct {
	ID    int   `json:"id"`
	Money int   `json:"money"`
	Tick  int64 `json:"tick"`
}

// Server is the HTTP API server.
type Server struct {
	game     Game
	buyer    Buyer
	reporter Reporter
	ws       http.Handler // nil disables /ws
	logger   *logger.Logger
}

// NewServer creates a new API server.
func NewServer(game Game, buyer Buyer, reporter Reporter, log *logger.Logger) *Server {
	return &Server{game: game, buyer: buyer, reporter: reporter, logger: log}
}

// SetWebSocket mounts the WebSocket hub at /ws.
func (s *Server) SetWebSocket(h http.Handler) { s.ws = h }

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", metrics.Handler())

	if s.ws != nil {
		r.Handle("/ws", s.ws)
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(30 * time.Second))

		r.Get("/hero", s.handleHero)
		r.Get("/businesses", s.handleListBusinesses)
		r.Get("/businesses/{id}", s.handleGetBusiness)
		r.Post("/businesses/{id}/level-up", s.handleLevelUp)
		r.Post("/businesses/{id}/upgrades/{upgradeID}", s.handleBuyUpgrade)

		r.Post("/save", s.handleSave)
		r.Delete("/save", s.handleReset)

		r.Get("/income-report", s.handleIncomeReport)
		r.Get("/events", s.handleJournal)
	})

	return r
}

func (s *Server) handleHero(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HeroResponse{
		ID:    s.game.HeroID(),
		Money: s.game.Balance(),
		Tick:  s.game.CurrentTick(),
	})
}

func (s *Server) handleListBusinesses(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.game.GetViews())
}

func (s *Server) handleGetBusiness(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt(w, r, "id")
	if !ok {
		return
	}
	v, found := s.game.GetView(id)
	if !found {
		writeError(w, http.StatusNotFound, "unknown business")
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleLevelUp(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt(w, r, "id")
	if !ok {
		return
	}
	receipt, err := s.buyer.BuyLevel(id)
	if err != nil {
		s.writeShopError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, receipt)
}

func (s *Server) handleBuyUpgrade(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt(w, r, "id")
	if !ok {
		return
	}
	upgradeID, ok := pathInt(w, r, "upgradeID")
	if !ok {
		return
	}
	receipt, err := s.buyer.BuyUpgrade(id, upgradeID)
	if err != nil {
		s.writeShopError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, receipt)
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	s.game.GetMailbox().PostSave(events.SaveRequest{})
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.game.GetMailbox().PostReset(events.ResetRequest{})
	s.logger.Info("progress reset requested")
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}

func (s *Server) handleIncomeReport(w http.ResponseWriter, r *http.Request) {
	report, err := s.reporter.BuildIncomeReport(r.Context())
	if err != nil {
		s.logger.Error("income report failed", "error", err)
		writeError(w, http.StatusInternalServerError, "income report unavailable")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// writeShopError maps purchase failures to status codes.
func (s *Server) writeShopError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shop.ErrUnknownBusiness), errors.Is(err, shop.ErrUnknownUpgrade):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ledger.ErrInsufficientFunds):
		writeError(w, http.StatusPaymentRequired, err.Error())
	case errors.Is(err, shop.ErrUpgradeOwned), errors.Is(err, shop.ErrNotPurchased):
		writeError(w, http.StatusConflict, err.Error())
	default:
		s.logger.Error("purchase failed", "error", err)
		writeError(w, http.StatusInternalServerError, "purchase failed")
	}
}

func pathInt(w http.ResponseWriter, r *http.Request, key string) (int, bool) {
	n, err := strconv.Atoi(chi.URLParam(r, key))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid "+key)
		return 0, false
	}
	return n, true
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]interface{}{
			"message": msg,
			"status":  status,
		},
	})
}
