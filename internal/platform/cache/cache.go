// Package cache provides the result cache used for availability projections.
// Two backends exist: Redis for deployments and an in-process store for
// development and tests.
package cache

import (
	"context"
	"strings"
	"sync"
	"time"
)

// Store is the cache backend contract. Get reports a miss with a false
// second return; backend failures surface as errors so callers can degrade
// to computing fresh results.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	DeletePrefix(ctx context.Context, prefix string) error
}

// entry holds a cached value and its expiration time.
type entry struct {
	data      []byte
	expiresAt time.Time
}

// MemoryStore is a thread-safe in-memory Store with lazy expiration.
type MemoryStore struct {
	entries map[string]*entry
	mu      sync.RWMutex
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]*entry),
	}
}

// Get retrieves a value. Performs lazy expiration: deletes the entry and
// reports a miss once it has expired.
func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if time.Now().After(e.expiresAt) {
		s.mu.Lock()
		delete(s.entries, key)
		s.mu.Unlock()
		return nil, false, nil
	}
	return e.data, true, nil
}

// Set stores a value with the given TTL.
func (s *MemoryStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = &entry{
		data:      value,
		expiresAt: time.Now().Add(ttl),
	}
	return nil
}

// Delete removes a single entry.
func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

// DeletePrefix removes every entry whose key starts with prefix.
func (s *MemoryStore) DeletePrefix(ctx context.Context, prefix string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k := range s.entries {
		if strings.HasPrefix(k, prefix) {
			delete(s.entries, k)
		}
	}
	return nil
}

// Len reports the number of live entries, counting expired ones that have
// not been lazily collected yet.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
