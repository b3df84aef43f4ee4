package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
		{"warn", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"loud", slog.LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Options{Level: "debug", Output: &buf})
	require.NoError(t, err)

	l.Event("LEVEL_UP", 3, "level 2")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "LEVEL_UP", rec["type"])
	assert.Equal(t, float64(3), rec["business_id"])
	assert.Equal(t, "tycoon", rec["service"])
}

func TestLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Options{Level: "warn", Pretty: true, Output: &buf})
	require.NoError(t, err)

	l.Info("hidden")
	assert.Zero(t, buf.Len())

	l.Warn("shown", "k", 1)
	assert.Contains(t, buf.String(), "shown")
}
