package cache

import (
	"context"
	"sync"
	"time"

	"github.com/customers/backend/internal/domain/shared"
)

// InMemoryIdempotencyStore keeps processed message IDs in a local map.
// State is not shared between workers, so a message redelivered to another
// instance is processed again.
type InMemoryIdempotencyStore struct {
	mu              sync.RWMutex
	expiries        map[string]time.Time
	cleanupInterval time.Duration
	stopChan        chan struct{}
	wg              sync.WaitGroup
	closeOnce       sync.Once
}

// NewInMemoryIdempotencyStore creates the store and starts its sweeper
func NewInMemoryIdempotencyStore() *InMemoryIdempotencyStore {
	return newInMemoryIdempotencyStore(5 * time.Minute)
}

func newInMemoryIdempotencyStore(cleanupInterval time.Duration) *InMemoryIdempotencyStore {
	store := &InMemoryIdempotencyStore{
		expiries:        make(map[string]time.Time),
		cleanupInterval: cleanupInterval,
		stopChan:        make(chan struct{}),
	}

	store.wg.Add(1)
	go store.cleanupLoop()

	return store
}

// MarkProcessed returns false while an unexpired mark exists for messageID
func (s *InMemoryIdempotencyStore) MarkProcessed(_ context.Context, messageID string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if exp, ok := s.expiries[messageID]; ok && now.Before(exp) {
		return false, nil
	}
	s.expiries[messageID] = now.Add(ttl)
	return true, nil
}

// IsProcessed reports whether an unexpired mark exists for messageID
func (s *InMemoryIdempotencyStore) IsProcessed(_ context.Context, messageID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	exp, ok := s.expiries[messageID]
	return ok && time.Now().Before(exp), nil
}

// Close stops the cleanup goroutine and releases resources
// Safe to call multiple times
func (s *InMemoryIdempotencyStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopChan)
		s.wg.Wait()
	})
	return nil
}

// cleanupLoop periodically removes expired entries
func (s *InMemoryIdempotencyStore) cleanupLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.cleanup()
		}
	}
}

// cleanup removes expired entries from the store
func (s *InMemoryIdempotencyStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for id, exp := range s.expiries {
		if !now.Before(exp) {
			delete(s.expiries, id)
		}
	}
}

// Size returns the number of marks, expired ones included until the next sweep
func (s *InMemoryIdempotencyStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.expiries)
}

var _ shared.IdempotencyStore = (*InMemoryIdempotencyStore)(nil)
