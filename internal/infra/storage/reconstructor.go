// Package storage - reconstructor.go
// Rebuilds an income report from the persisted journal: state = f(events).
package storage

import (
	"context"
	"sort"

	"github.com/pkg/errors"

	"github.com/idleworks/tycoon/internal/events"
)

// Reconstructor summarises the journal.
// This is used for:
// 1. The income report endpoint
// 2. Auditing a session after the fact
type Reconstructor struct {
	eventRepo EventRepository
}

// NewReconstructor creates a new journal reconstructor.
func NewReconstructor(eventRepo EventRepository) *Reconstructor {
	return &Reconstructor{eventRepo: eventRepo}
}

// BusinessIncome is the journal summary of one business.
type BusinessIncome struct {
	BusinessID int   `json:"business_id"`
	Earned     int   `json:"earned"`
	Cycles     int   `json:"cycles"`
	LevelUps   int   `json:"level_ups"`
	Upgrades   int   `json:"upgrades"`
	LastTick   int64 `json:"last_tick"`
}

// IncomeReport is the journal summary of a session.
type IncomeReport struct {
	TotalEarned int              `json:"total_earned"`
	Saves       int              `json:"saves"`
	FailedSaves int              `json:"failed_saves"`
	Businesses  []BusinessIncome `json:"businesses"`
}

// BuildIncomeReport replays every stored event.
func (r *Reconstructor) BuildIncomeReport(ctx context.Context) (*IncomeReport, error) {
	stored, err := r.eventRepo.GetAll(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get journal")
	}
	return Summarize(stored), nil
}

// Summarize folds stored events into an income report, businesses sorted
// by id.
func Summarize(stored []StoredEvent) *IncomeReport {
	report := &IncomeReport{Businesses: []BusinessIncome{}}
	byID := make(map[int]*BusinessIncome)

	entry := func(id int) *BusinessIncome {
		if b, ok := byID[id]; ok {
			return b
		}
		b := &BusinessIncome{BusinessID: id}
		byID[id] = b
		return b
	}

	for _, e := range stored {
		switch events.EventType(e.EventType) {
		case events.EventTypeMoneyUpdate:
			amount := payloadInt(e.Payload, "amount")
			b := entry(e.BusinessID)
			b.Earned += amount
			b.Cycles++
			b.LastTick = max(b.LastTick, e.Tick)
			report.TotalEarned += amount
		case events.EventTypeLevelUp:
			entry(e.BusinessID).LevelUps++
		case events.EventTypeUpgradePurchased:
			entry(e.BusinessID).Upgrades++
		case events.EventTypeGameSaved:
			report.Saves++
		case events.EventTypeSaveFailed:
			report.FailedSaves++
		}
	}

	for _, b := range byID {
		report.Businesses = append(report.Businesses, *b)
	}
	sort.Slice(report.Businesses, func(i, j int) bool {
		return report.Businesses[i].BusinessID < report.Businesses[j].BusinessID
	})
	return report
}

// payloadInt reads a JSON number from a decoded payload.
func payloadInt(payload map[string]interface{}, key string) int {
	if v, ok := payload[key]; ok {
		switch n := v.(type) {
		case float64:
			return int(n)
		case int:
			return n
		}
	}
	return 0
}

// LogReporter builds income reports from the in-memory journal, for runs
// without a database.
type LogReporter struct {
	log *events.EventLog
}

// NewLogReporter creates a reporter over log.
func NewLogReporter(log *events.EventLog) *LogReporter {
	return &LogReporter{log: log}
}

// BuildIncomeReport replays the in-memory journal.
func (l *LogReporter) BuildIncomeReport(context.Context) (*IncomeReport, error) {
	all := l.log.Replay()
	stored := make([]StoredEvent, 0, len(all))
	for _, e := range all {
		s, err := ToStoredEvent(e)
		if err != nil {
			return nil, err
		}
		stored = append(stored, s)
	}
	return Summarize(stored), nil
}
