package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"

	"github.com/idleworks/tycoon/internal/events"
)

// JournalPersister adapts an EventRepository to events.EventPersister so
// the in-memory journal writes through to durable storage.
type JournalPersister struct {
	repo    EventRepository
	timeout time.Duration
}

var _ events.EventPersister = (*JournalPersister)(nil)

// NewJournalPersister creates a persister bounding each write by timeout.
func NewJournalPersister(repo EventRepository, timeout time.Duration) *JournalPersister {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &JournalPersister{repo: repo, timeout: timeout}
}

// Append stores one journal entry.
func (p *JournalPersister) Append(event events.GameEvent) error {
	stored, err := ToStoredEvent(event)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()
	return p.repo.Append(ctx, stored)
}

// ToStoredEvent flattens a typed journal payload into a JSON object.
func ToStoredEvent(event events.GameEvent) (StoredEvent, error) {
	stored := StoredEvent{
		ID:         event.ID,
		Timestamp:  event.Timestamp,
		EventType:  string(event.Type),
		ActorID:    event.ActorID,
		BusinessID: event.BusinessID,
		Tick:       event.Tick,
		Payload:    map[string]interface{}{},
	}
	if event.Payload == nil {
		return stored, nil
	}

	raw, err := json.Marshal(event.Payload)
	if err != nil {
		return StoredEvent{}, errors.Wrapf(err, "event %s payload", event.ID)
	}
	if err := json.Unmarshal(raw, &stored.Payload); err != nil {
		// Scalar payloads are kept under a single key
		stored.Payload = map[string]interface{}{"value": event.Payload}
	}
	return stored, nil
}
