package cache

import (
	"context"
	"sync"
	"time"

	appcustomer "github.com/customers/backend/internal/application/customer"
)

type controlItem struct {
	value     string
	expiresAt time.Time
}

func (i controlItem) expired(now time.Time) bool {
	return !i.expiresAt.IsZero() && !now.Before(i.expiresAt)
}

// InMemoryControlCache keeps control keys in a process-local map.
// It is meant for tests and single-instance development setups.
type InMemoryControlCache struct {
	mu    sync.RWMutex
	items map[string]controlItem
	now   func() time.Time
}

// NewInMemoryControlCache creates an empty InMemoryControlCache
func NewInMemoryControlCache() *InMemoryControlCache {
	return &InMemoryControlCache{
		items: make(map[string]controlItem),
		now:   time.Now,
	}
}

// NewSession starts a session with nothing staged
func (c *InMemoryControlCache) NewSession() appcustomer.ControlCache {
	return &inMemoryControlSession{store: c}
}

// Len returns the number of live keys
func (c *InMemoryControlCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	now := c.now()
	n := 0
	for _, item := range c.items {
		if !item.expired(now) {
			n++
		}
	}
	return n
}

func (c *InMemoryControlCache) get(key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	item, ok := c.items[key]
	if !ok || item.expired(c.now()) {
		return "", false
	}
	return item.value, true
}

func (c *InMemoryControlCache) apply(ops []stagedOp) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for _, op := range ops {
		if op.delete {
			delete(c.items, op.key)
			continue
		}
		item := controlItem{value: op.value}
		if op.ttl > 0 {
			item.expiresAt = now.Add(op.ttl)
		}
		c.items[op.key] = item
	}
}

type stagedOp struct {
	key    string
	value  string
	ttl    time.Duration
	delete bool
}

type inMemoryControlSession struct {
	store *InMemoryControlCache
	mu    sync.Mutex
	ops   []stagedOp
}

func (s *inMemoryControlSession) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := s.store.get(key)
	return v, ok, nil
}

func (s *inMemoryControlSession) Exists(_ context.Context, key string) (bool, error) {
	_, ok := s.store.get(key)
	return ok, nil
}

func (s *inMemoryControlSession) Set(_ context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ops = append(s.ops, stagedOp{key: key, value: value, ttl: ttl})
	return nil
}

func (s *inMemoryControlSession) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ops = append(s.ops, stagedOp{key: key, delete: true})
	return nil
}

func (s *inMemoryControlSession) Commit(context.Context) error {
	s.mu.Lock()
	ops := s.ops
	s.ops = nil
	s.mu.Unlock()

	s.store.apply(ops)
	return nil
}

func (s *inMemoryControlSession) Rollback(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ops = nil
	return nil
}

var _ appcustomer.CacheSessionFactory = (*InMemoryControlCache)(nil)
