package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// MemoryStore is an in-memory Store for local runs and tests. Records are
// kept JSON-encoded so callers can never alias stored state.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		collections: make(map[string]map[string][]byte),
	}
}

func (s *MemoryStore) Get(ctx context.Context, collection, key string) (map[string]any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records, exists := s.collections[collection]
	if !exists {
		return nil, nil
	}
	raw, exists := records[key]
	if !exists {
		return nil, nil
	}

	var value map[string]any
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil, fmt.Errorf("error decoding record %s/%s: %w", collection, key, err)
	}
	return value, nil
}

func (s *MemoryStore) Set(ctx context.Context, collection, key string, value map[string]any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("error encoding record %s/%s: %w", collection, key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records, exists := s.collections[collection]
	if !exists {
		records = make(map[string][]byte)
		s.collections[collection] = records
	}
	records[key] = raw
	return nil
}

func (s *MemoryStore) Close() error {
	// Nothing to close for in-memory storage
	return nil
}
