// Package storage provides the persistence layer for the simulation server.
// This package implements the repository pattern to keep the engine pure:
// the engine sees a SaveService and an EventPersister, never a database.
package storage

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/idleworks/tycoon/internal/domain/save"
)

// DefaultSlot is the save slot used by the single-player server.
const DefaultSlot = "default"

// ErrNoSave is returned by LoadGame when the slot is empty.
var ErrNoSave = errors.New("no saved game")

// StoredEvent mirrors the journal entry structure for persistence.
type StoredEvent struct {
	ID         string                 `json:"id"`
	Timestamp  time.Time              `json:"timestamp"`
	EventType  string                 `json:"event_type"`
	ActorID    int                    `json:"actor_id"`
	BusinessID int                    `json:"business_id"`
	Payload    map[string]interface{} `json:"payload"`
	Tick       int64                  `json:"tick"`
}

// EventRepository defines the interface for journal persistence.
type EventRepository interface {
	// Append adds a new event to the journal.
	Append(ctx context.Context, event StoredEvent) error

	// GetAll retrieves the full journal in tick order.
	GetAll(ctx context.Context) ([]StoredEvent, error)

	// GetByBusiness retrieves all events scoped to one business.
	GetByBusiness(ctx context.Context, businessID int) ([]StoredEvent, error)

	// GetByEventType retrieves all events of a specific type.
	GetByEventType(ctx context.Context, eventType string) ([]StoredEvent, error)

	// Clear drops the journal.
	Clear(ctx context.Context) error
}

// SaveRepository defines the interface for the game save slot.
type SaveRepository interface {
	HasSave(ctx context.Context) (bool, error)
	LoadGame(ctx context.Context) (*save.GameSave, error)
	SaveGame(ctx context.Context, s save.GameSave) error
	DeleteSave(ctx context.Context) error
}
