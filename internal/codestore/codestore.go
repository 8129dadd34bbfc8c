// Package codestore keeps the one-time authorization codes issued by the
// simulated authorize flow until the token endpoint redeems them.
package codestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mock-response-service/internal/common/config"
	"mock-response-service/internal/common/database"
)

// ErrCodeNotFound is returned for unknown, expired or already redeemed codes.
var ErrCodeNotFound = errors.New("authorization code not found")

// Grant is what an issued code stands for.
type Grant struct {
	Code        string                 `json:"code"`
	ClientID    string                 `json:"clientId"`
	RedirectURI string                 `json:"redirectUri"`
	UserID      string                 `json:"userId"`
	Scope       string                 `json:"scope,omitempty"`
	Nonce       string                 `json:"nonce,omitempty"`
	UniqueKeys  map[string]string      `json:"uniqueKeys,omitempty"`
	Context     map[string]interface{} `json:"context,omitempty"`
	IssuedAt    time.Time              `json:"issuedAt"`
}

// Store saves grants and redeems each at most once.
type Store interface {
	Save(ctx context.Context, grant Grant) error
	Consume(ctx context.Context, code string) (*Grant, error)
	Close() error
}

// New builds the backend selected by cfg.Codes.Backend.
func New(cfg *config.Config) (Store, error) {
	ttl := config.GetDuration(cfg.Codes.TTL)
	switch cfg.Codes.Backend {
	case "", "memory":
		return NewMemoryStore(ttl), nil
	case "redis":
		client, err := database.NewRedis(cfg.Database.Redis, cfg.Codes.Prefix)
		if err != nil {
			return nil, fmt.Errorf("code store: %w", err)
		}
		return NewRedisStore(client, ttl), nil
	default:
		return nil, fmt.Errorf("unknown code store backend %q", cfg.Codes.Backend)
	}
}
