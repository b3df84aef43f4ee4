// Package events provides the simulation journal and the request mailbox.
// The journal is an append-only record of what the engine did; the mailbox
// carries what outside callers asked it to do.
package events

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventType defines the category of a journal entry.
type EventType string

const (
	EventTypeLevelUp          EventType = "LEVEL_UP"
	EventTypeUpgradePurchased EventType = "UPGRADE_PURCHASED"
	EventTypeMoneyUpdate      EventType = "MONEY_UPDATE"
	EventTypeGameSaved        EventType = "GAME_SAVED"
	EventTypeGameLoaded       EventType = "GAME_LOADED"
	EventTypeSaveFailed       EventType = "SAVE_FAILED"
	EventTypePurchaseRefunded EventType = "PURCHASE_REFUNDED"
)

// GameEvent represents an immutable record of something the engine did.
type GameEvent struct {
	ID         string      `json:"id"`
	Timestamp  time.Time   `json:"timestamp"`
	Type       EventType   `json:"type"`
	ActorID    int         `json:"actor_id"`    // Owner/hero id
	BusinessID int         `json:"business_id"` // -1 when not business-scoped
	Payload    interface{} `json:"payload"`
	Tick       int64       `json:"tick"`
}

// EventPersister defines how an event is durably stored.
type EventPersister interface {
	Append(event GameEvent) error
}

// EventLog is the in-memory append-only journal of engine events.
type EventLog struct {
	mu        sync.RWMutex
	events    []GameEvent
	persister EventPersister
	onError   func(error)
}

// NewEventLog creates a new event log with an optional persister.
func NewEventLog(persister EventPersister) *EventLog {
	return &EventLog{
		events:    make([]GameEvent, 0),
		persister: persister,
	}
}

// OnPersistError registers a callback for failed write-through appends.
func (el *EventLog) OnPersistError(fn func(error)) {
	el.mu.Lock()
	defer el.mu.Unlock()
	el.onError = fn
}

// Append adds a new event to the log. Events are immutable once appended.
func (el *EventLog) Append(event GameEvent) {
	if event.ID == "" {
		event.ID = GenerateEventID()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	el.mu.Lock()
	el.events = append(el.events, event)
	persister, onError := el.persister, el.onError
	el.mu.Unlock()

	if persister != nil {
		// Write-through off the tick goroutine
		go func(e GameEvent) {
			if err := persister.Append(e); err != nil && onError != nil {
				onError(err)
			}
		}(event)
	}
}

// Since returns the events appended after the first n.
func (el *EventLog) Since(n int) []GameEvent {
	el.mu.RLock()
	defer el.mu.RUnlock()

	if n >= len(el.events) {
		return nil
	}
	if n < 0 {
		n = 0
	}
	out := make([]GameEvent, len(el.events)-n)
	copy(out, el.events[n:])
	return out
}

// Len returns the number of events appended so far.
func (el *EventLog) Len() int {
	el.mu.RLock()
	defer el.mu.RUnlock()
	return len(el.events)
}

// GetByBusiness returns all events scoped to one business.
func (el *EventLog) GetByBusiness(businessID int) []GameEvent {
	el.mu.RLock()
	defer el.mu.RUnlock()

	var result []GameEvent
	for _, e := range el.events {
		if e.BusinessID == businessID {
			result = append(result, e)
		}
	}
	return result
}

// GetByType returns all events of one type.
func (el *EventLog) GetByType(eventType EventType) []GameEvent {
	el.mu.RLock()
	defer el.mu.RUnlock()

	var result []GameEvent
	for _, e := range el.events {
		if e.Type == eventType {
			result = append(result, e)
		}
	}
	return result
}

// Replay returns a copy of the full history.
func (el *EventLog) Replay() []GameEvent {
	return el.Since(0)
}

// GenerateEventID creates a unique event identifier.
func GenerateEventID() string {
	return uuid.NewString()
}
