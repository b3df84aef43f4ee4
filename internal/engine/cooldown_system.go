package engine

import (
	"strconv"

	"github.com/idleworks/tycoon/internal/domain/business"
	"github.com/idleworks/tycoon/internal/platform/logger"
	"github.com/idleworks/tycoon/internal/platform/metrics"
)

// CooldownSystem advances the income timers.
// It does NOT know about income - only time progression.
type CooldownSystem struct {
	logger *logger.Logger
}

// NewCooldownSystem creates a new cooldown scheduler.
func NewCooldownSystem(log *logger.Logger) *CooldownSystem {
	return &CooldownSystem{logger: log}
}

// Advance moves one cooldown forward by delta and reports whether its cycle
// completed during this call. Overshoot past zero is discarded: the timer
// restarts at the full duration.
func Advance(c *business.Cooldown, delta float64) bool {
	if !c.IsAvailable {
		return false
	}
	if delta < 0 {
		delta = 0
	}

	c.TimeLeft -= delta
	if c.TimeLeft <= 0 {
		c.IsCompleted = true
		c.TimeLeft = c.Duration
		return true
	}

	c.IsCompleted = false
	return false
}

// Run advances every business and returns the ids whose cycle completed.
func (cs *CooldownSystem) Run(reg *Registry, delta float64) []int {
	var completed []int
	for _, b := range reg.All() {
		if Advance(&b.Cooldown, delta) {
			completed = append(completed, b.ID)
			metrics.CyclesCompleted.WithLabelValues(strconv.Itoa(b.ID)).Inc()
		}
	}
	if len(completed) > 0 {
		cs.logger.Debug("cooldown cycles completed", "count", len(completed))
	}
	return completed
}
