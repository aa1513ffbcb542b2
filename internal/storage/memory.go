package storage

import (
	"context"
	"sync"
)

// MemoryStore is a process-local Provider. Nothing survives Close.
type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[string]Blob
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[string]Blob)}
}

func (s *MemoryStore) Init(ctx context.Context) error { return nil }
func (s *MemoryStore) Load(ctx context.Context) error { return nil }
func (s *MemoryStore) Close() error                   { return nil }
func (s *MemoryStore) GetConfigPath() string          { return "memory" }

func (s *MemoryStore) Get(ctx context.Context, key string) (Blob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.blobs[key]
	if !ok {
		return Blob{}, ErrNotFound
	}
	b.Data = append([]byte(nil), b.Data...)
	return b, nil
}

func (s *MemoryStore) Put(ctx context.Context, key string, blob Blob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	blob.Data = append([]byte(nil), blob.Data...)
	s.blobs[key] = blob
	return nil
}
