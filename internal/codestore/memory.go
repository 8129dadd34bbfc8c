package codestore

import (
	"context"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
)

// MemoryStore keeps grants in a go-cache instance with per-entry expiry.
type MemoryStore struct {
	mu    sync.Mutex
	cache *cache.Cache
	ttl   time.Duration
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &MemoryStore{
		cache: cache.New(ttl, 2*ttl),
		ttl:   ttl,
	}
}

func (s *MemoryStore) Save(_ context.Context, grant Grant) error {
	s.cache.Set(grant.Code, grant, s.ttl)
	return nil
}

func (s *MemoryStore) Consume(_ context.Context, code string) (*Grant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.cache.Get(code)
	if !ok {
		return nil, ErrCodeNotFound
	}
	s.cache.Delete(code)
	grant := v.(Grant)
	return &grant, nil
}

func (s *MemoryStore) Close() error {
	s.cache.Flush()
	return nil
}
