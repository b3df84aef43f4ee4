package storage

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/pkg/errors"

	"github.com/idleworks/tycoon/internal/domain/save"
)

// MemorySaveStore is a SaveRepository held in process memory. Saves are
// kept JSON-encoded so callers never share state with the slot.
type MemorySaveStore struct {
	mu   sync.Mutex
	data []byte
}

// NewMemorySaveStore creates an empty in-memory slot.
func NewMemorySaveStore() *MemorySaveStore {
	return &MemorySaveStore{}
}

func (m *MemorySaveStore) HasSave(context.Context) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data != nil, nil
}

func (m *MemorySaveStore) LoadGame(context.Context) (*save.GameSave, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.data == nil {
		return nil, ErrNoSave
	}
	var g save.GameSave
	if err := json.Unmarshal(m.data, &g); err != nil {
		return nil, errors.Wrap(err, "failed to decode save")
	}
	return &g, nil
}

func (m *MemorySaveStore) SaveGame(_ context.Context, g save.GameSave) error {
	data, err := json.Marshal(g)
	if err != nil {
		return errors.Wrap(err, "failed to encode save")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = data
	return nil
}

func (m *MemorySaveStore) DeleteSave(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = nil
	return nil
}
