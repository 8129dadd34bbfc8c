// internal/common/database/redis.go
package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"mock-response-service/internal/common/config"

	"github.com/redis/go-redis/v9"
)

// ErrKeyNotFound is returned by TakeJSON for absent or expired keys.
var ErrKeyNotFound = errors.New("redis key not found")

// RedisClient is a go-redis client scoped to one key prefix. Values are
// stored as JSON documents.
type RedisClient struct {
	Client *redis.Client
	prefix string
}

// NewRedis dials lazily; call Ping to verify the server.
func NewRedis(cfg config.RedisConfig, prefix string) (*RedisClient, error) {
	if cfg.Address == "" {
		return nil, fmt.Errorf("redis address is empty")
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})
	return NewRedisFromClient(rdb, prefix), nil
}

// NewRedisFromClient wraps an already constructed client (miniredis, redismock).
func NewRedisFromClient(rdb *redis.Client, prefix string) *RedisClient {
	return &RedisClient{Client: rdb, prefix: prefix}
}

// Key returns the namespaced form of key.
func (c *RedisClient) Key(key string) string {
	return c.prefix + key
}

func (c *RedisClient) Ping(ctx context.Context) error {
	if err := c.Client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (c *RedisClient) Close() error {
	if c.Client != nil {
		return c.Client.Close()
	}
	return nil
}

// PutJSON stores v under key. A zero ttl keeps the key until it is taken.
func (c *RedisClient) PutJSON(ctx context.Context, key string, v interface{}, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return c.Client.Set(ctx, c.Key(key), data, ttl).Err()
}

// TakeJSON reads and deletes key with GETDEL, so concurrent callers never
// both receive the value.
func (c *RedisClient) TakeJSON(ctx context.Context, key string, out interface{}) error {
	raw, err := c.Client.GetDel(ctx, c.Key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrKeyNotFound
	}
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}
