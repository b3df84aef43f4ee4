// Package engine contains the simulation loop and the business systems.
//
// ARCHITECTURAL RULE: only the engine goroutine mutates business records.
// HTTP handlers, WebSocket clients and the CLI post requests to the mailbox
// and read the views published after each tick.
//
// The engine never reads wall time to advance the world: each tick moves
// game time forward by a fixed delta supplied by the Ticker (or by the
// caller in headless runs).
package engine

import (
	"context"
	"sync"
	"time"

	"github.com/idleworks/tycoon/internal/events"
	"github.com/idleworks/tycoon/internal/platform/logger"
)

// TickerOptions configures the real-time driver.
type TickerOptions struct {
	Rate          time.Duration // Wall time between ticks
	Delta         float64       // Game seconds added per tick
	AutosaveEvery time.Duration // 0 disables autosave
}

// Ticker drives an Engine in real time.
// It does NOT know about businesses - only time progression.
type Ticker struct {
	engine   *Engine
	logger   *logger.Logger
	opts     TickerOptions
	stopChan chan struct{}
	stopOnce sync.Once
}

// NewTicker creates a new simulation ticker.
func NewTicker(e *Engine, log *logger.Logger, opts TickerOptions) *Ticker {
	return &Ticker{
		engine:   e,
		logger:   log,
		opts:     opts,
		stopChan: make(chan struct{}),
	}
}

// Start runs the loop until ctx is cancelled or Stop is called, then runs a
// final tick with zero delta that saves the session. Blocks; call in a
// goroutine.
func (t *Ticker) Start(ctx context.Context) {
	t.logger.Info("engine ticker started", "rate", t.opts.Rate, "delta", t.opts.Delta)

	ticker := time.NewTicker(t.opts.Rate)
	defer ticker.Stop()

	var autosave <-chan time.Time
	if t.opts.AutosaveEvery > 0 {
		at := time.NewTicker(t.opts.AutosaveEvery)
		defer at.Stop()
		autosave = at.C
	}

	for {
		select {
		case <-ctx.Done():
			t.logger.Info("engine ticker stopped by context")
			t.shutdown(context.WithoutCancel(ctx))
			return
		case <-t.stopChan:
			t.logger.Info("engine ticker stopped manually")
			t.shutdown(ctx)
			return
		case <-autosave:
			t.engine.GetMailbox().PostSave(events.SaveRequest{})
		case <-ticker.C:
			t.engine.Tick(ctx, t.opts.Delta)
		}
	}
}

// Stop gracefully stops the ticker. Safe to call more than once and after
// the context has ended the loop.
func (t *Ticker) Stop() {
	t.stopOnce.Do(func() { close(t.stopChan) })
}

func (t *Ticker) shutdown(ctx context.Context) {
	t.engine.GetMailbox().PostSave(events.SaveRequest{})
	res := t.engine.Tick(ctx, 0)
	if res.SaveErr != nil {
		t.logger.Error("shutdown save failed", "error", res.SaveErr)
	}
}
