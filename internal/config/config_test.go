package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWithoutFile(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tycoon.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":9090"
simulation:
  tickRate: 50ms
  delta: 0.05
storage:
  path: /tmp/tycoon-test.db
log:
  level: debug
  pretty: false
`), 0o600))

	t.Setenv("TYCOON_SIMULATION_AUTOSAVEEVERY", "1m")
	t.Setenv("TYCOON_LOG_LEVEL", "warn")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 50*time.Millisecond, cfg.Simulation.TickRate)
	assert.InDelta(t, 0.05, cfg.Simulation.Delta, 1e-9)
	assert.Equal(t, time.Minute, cfg.Simulation.AutosaveEvery)
	assert.Equal(t, "/tmp/tycoon-test.db", cfg.Storage.Path)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.False(t, cfg.Log.Pretty)
	// Untouched keys keep their defaults
	assert.Equal(t, 10*time.Second, cfg.Server.ReadTimeout)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadRejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: loud\n"), 0o600))

	_, err := Load(path)
	assert.ErrorContains(t, err, "invalid config")
}

func TestCanonicalizeEnvKey(t *testing.T) {
	tests := []struct {
		envKey string
		want   string
	}{
		{envKey: "SIMULATION_TICKRATE", want: "simulation.tickRate"},
		{envKey: "SERVER_PUSHINTERVAL", want: "server.pushInterval"},
		{envKey: "LOG_LEVEL", want: "log.level"},
		{envKey: "NEW_FEATURE_FLAG", want: "new.feature.flag"},
	}

	for _, tt := range tests {
		t.Run(tt.envKey, func(t *testing.T) {
			assert.Equal(t, tt.want, canonicalizeEnvKey(tt.envKey, knownKeys()))
		})
	}
}
