package codestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mock-response-service/internal/common/database"
)

// RedisStore keeps grants as JSON under the client's prefix with a TTL.
type RedisStore struct {
	client *database.RedisClient
	ttl    time.Duration
}

func NewRedisStore(client *database.RedisClient, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Save(ctx context.Context, grant Grant) error {
	if err := s.client.PutJSON(ctx, grant.Code, grant, s.ttl); err != nil {
		return fmt.Errorf("store grant: %w", err)
	}
	return nil
}

// Consume removes the grant as it reads it so a code cannot be redeemed twice.
func (s *RedisStore) Consume(ctx context.Context, code string) (*Grant, error) {
	var grant Grant
	err := s.client.TakeJSON(ctx, code, &grant)
	if errors.Is(err, database.ErrKeyNotFound) {
		return nil, ErrCodeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load grant: %w", err)
	}
	return &grant, nil
}

// Ping reports whether Redis is reachable.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx)
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
