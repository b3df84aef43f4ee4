package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/pkg/errors"

	"github.com/idleworks/tycoon/internal/domain/save"
)

// SQLiteEventRepository implements EventRepository for SQLite.
type SQLiteEventRepository struct {
	db *sql.DB
}

func NewSQLiteEventRepository(db *sql.DB) *SQLiteEventRepository {
	return &SQLiteEventRepository{db: db}
}

func (r *SQLiteEventRepository) Append(ctx context.Context, event StoredEvent) error {
	payloadBytes, err := json.Marshal(event.Payload)
	if err != nil {
		return errors.Wrap(err, "failed to marshal payload")
	}

	query := `
		INSERT INTO events (id, timestamp, event_type, actor_id, business_id, payload, tick)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.ExecContext(ctx, query,
		event.ID, event.Timestamp.UnixNano(), event.EventType, event.ActorID,
		event.BusinessID, string(payloadBytes), event.Tick,
	)
	if err != nil {
		return errors.Wrap(err, "failed to append event")
	}
	return nil
}

const selectEvents = `SELECT id, timestamp, event_type, actor_id, business_id, payload, tick FROM events`

func (r *SQLiteEventRepository) getMany(ctx context.Context, query string, args ...interface{}) ([]StoredEvent, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query events")
	}
	defer rows.Close()

	var events []StoredEvent
	for rows.Next() {
		var e StoredEvent
		var ts int64
		var payloadStr string
		err := rows.Scan(&e.ID, &ts, &e.EventType, &e.ActorID, &e.BusinessID, &payloadStr, &e.Tick)
		if err != nil {
			return nil, err
		}
		e.Timestamp = time.Unix(0, ts)
		if err := json.Unmarshal([]byte(payloadStr), &e.Payload); err != nil {
			return nil, errors.Wrapf(err, "event %s payload", e.ID)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *SQLiteEventRepository) GetAll(ctx context.Context) ([]StoredEvent, error) {
	return r.getMany(ctx, selectEvents+` ORDER BY tick ASC, timestamp ASC`)
}

func (r *SQLiteEventRepository) GetByBusiness(ctx context.Context, businessID int) ([]StoredEvent, error) {
	return r.getMany(ctx, selectEvents+` WHERE business_id = ? ORDER BY tick ASC, timestamp ASC`, businessID)
}

func (r *SQLiteEventRepository) GetByEventType(ctx context.Context, eventType string) ([]StoredEvent, error) {
	return r.getMany(ctx, selectEvents+` WHERE event_type = ? ORDER BY tick ASC, timestamp ASC`, eventType)
}

func (r *SQLiteEventRepository) Clear(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM events`)
	return errors.Wrap(err, "failed to clear events")
}

// ---------------------------------------------------------
// SQLiteSaveStore
// ---------------------------------------------------------

// SQLiteSaveStore keeps one JSON-encoded GameSave per slot.
type SQLiteSaveStore struct {
	db   *sql.DB
	slot string
}

func NewSQLiteSaveStore(db *sql.DB, slot string) *SQLiteSaveStore {
	if slot == "" {
		slot = DefaultSlot
	}
	return &SQLiteSaveStore{db: db, slot: slot}
}

func (s *SQLiteSaveStore) HasSave(ctx context.Context) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM saves WHERE slot = ?`, s.slot).Scan(&n)
	if err != nil {
		return false, errors.Wrap(err, "failed to check save slot")
	}
	return n > 0, nil
}

func (s *SQLiteSaveStore) LoadGame(ctx context.Context) (*save.GameSave, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM saves WHERE slot = ?`, s.slot).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoSave
		}
		return nil, errors.Wrap(err, "failed to read save slot")
	}

	var g save.GameSave
	if err := json.Unmarshal([]byte(payload), &g); err != nil {
		return nil, errors.Wrap(err, "failed to decode save")
	}
	return &g, nil
}

func (s *SQLiteSaveStore) SaveGame(ctx context.Context, g save.GameSave) error {
	payload, err := json.Marshal(g)
	if err != nil {
		return errors.Wrap(err, "failed to encode save")
	}

	query := `
		INSERT INTO saves (slot, payload, saved_at)
		VALUES (?, ?, ?)
		ON CONFLICT(slot) DO UPDATE SET
			payload=excluded.payload,
			saved_at=excluded.saved_at
	`
	if _, err := s.db.ExecContext(ctx, query, s.slot, string(payload), time.Now().Unix()); err != nil {
		return errors.Wrap(err, "failed to write save slot")
	}
	return nil
}

func (s *SQLiteSaveStore) DeleteSave(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM saves WHERE slot = ?`, s.slot)
	return errors.Wrap(err, "failed to delete save slot")
}
