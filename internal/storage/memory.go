package storage

import (
	"context"
	"sync"

	"wallet/internal/core"
)

// MemoryStore keeps the encoded snapshot in memory. It goes through the same
// codec as the durable stores, so loaded states never alias saved ones.
type MemoryStore struct {
	mu   sync.RWMutex
	data []byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Load(ctx context.Context) (core.AppState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.data == nil {
		return core.AppState{}, ErrNoSnapshot
	}
	return DecodeSnapshot(m.data)
}

func (m *MemoryStore) Save(ctx context.Context, s core.AppState) error {
	b, err := EncodeSnapshot(s)
	if err != nil {
		return saveErr(err)
	}
	m.mu.Lock()
	m.data = b
	m.mu.Unlock()
	return nil
}

// Bytes returns a copy of the last saved snapshot, or nil.
func (m *MemoryStore) Bytes() []byte {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]byte(nil), m.data...)
}

func (m *MemoryStore) Close() error { return nil }
