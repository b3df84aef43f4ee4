package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idleworks/tycoon/internal/config"
	"github.com/idleworks/tycoon/internal/events"
	"github.com/idleworks/tycoon/internal/platform/logger"
)

func TestInMemoryAppRunsDefaultCatalog(t *testing.T) {
	a, err := newApp(config.Default(), logger.Discard(), false)
	require.NoError(t, err)
	defer a.close()

	res := a.engine.Tick(context.Background(), 3)
	assert.Equal(t, []int{0}, res.Completed)
	assert.Equal(t, 3, a.engine.Balance())
	assert.Len(t, a.engine.GetViews(), 5)
}

func TestPersistentAppSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	cfg := config.Default()
	cfg.Storage.Path = filepath.Join(t.TempDir(), "tycoon.db")

	a, err := newApp(cfg, logger.Discard(), true)
	require.NoError(t, err)
	require.NoError(t, a.engine.Load(ctx))

	a.engine.Tick(ctx, 3)
	a.engine.GetMailbox().PostSave(events.SaveRequest{})
	res := a.engine.Tick(ctx, 0)
	require.NoError(t, res.SaveErr)
	require.True(t, res.Saved)
	a.close()

	b, err := newApp(cfg, logger.Discard(), true)
	require.NoError(t, err)
	defer b.close()
	require.NoError(t, b.engine.Load(ctx))
	assert.Equal(t, 3, b.engine.Balance())
}
