package repositories

import (
	"context"
	"sync"
)

// MemoryStore keeps slots in process memory. Used by default and in tests.
type MemoryStore struct {
	mu    sync.RWMutex
	slots map[Key][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{slots: map[Key][]byte{}}
}

func (s *MemoryStore) Persist(_ context.Context, key Key, value []byte) error {
	if err := key.validate(); err != nil {
		return err
	}
	cp := append([]byte(nil), value...)
	s.mu.Lock()
	s.slots[key] = cp
	s.mu.Unlock()
	return nil
}

// PersistDurable is Persist; memory slots never expire.
func (s *MemoryStore) PersistDurable(ctx context.Context, key Key, value []byte) error {
	return s.Persist(ctx, key, value)
}

func (s *MemoryStore) Restore(_ context.Context, key Key) ([]byte, error) {
	if err := key.validate(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	v, ok := s.slots[key]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (s *MemoryStore) Remove(_ context.Context, key Key) error {
	if err := key.validate(); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.slots, key)
	s.mu.Unlock()
	return nil
}
