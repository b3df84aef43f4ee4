package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idleworks/tycoon/internal/platform/logger"
)

func startTicker(ctx context.Context, rig *testRig) (*Ticker, <-chan struct{}) {
	ticker := NewTicker(rig.engine, logger.Discard(), TickerOptions{Rate: time.Millisecond, Delta: 0.1})
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker.Start(ctx)
	}()
	return ticker, done
}

func waitStopped(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("ticker did not stop")
	}
}

func TestTickerStopIsIdempotent(t *testing.T) {
	rig := newRig(t)
	ticker, done := startTicker(context.Background(), rig)

	require.Eventually(t, func() bool { return rig.engine.CurrentTick() > 0 }, time.Second, time.Millisecond)
	assert.NotPanics(t, func() {
		ticker.Stop()
		ticker.Stop()
	})
	waitStopped(t, done)

	rig.store.mu.Lock()
	defer rig.store.mu.Unlock()
	assert.Equal(t, 1, rig.store.saves)
}

func TestTickerStopAfterContextEnds(t *testing.T) {
	rig := newRig(t)
	ctx, cancel := context.WithCancel(context.Background())
	ticker, done := startTicker(ctx, rig)

	cancel()
	waitStopped(t, done)

	assert.NotPanics(t, ticker.Stop)
	rig.store.mu.Lock()
	defer rig.store.mu.Unlock()
	assert.Equal(t, 1, rig.store.saves)
}
