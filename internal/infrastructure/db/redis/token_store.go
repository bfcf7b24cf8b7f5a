package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/haphazard/site/internal/core/domain"
)

// TokenStore persists the provider grant of each browser session as JSON.
// Key format: grant:<session_id>
type TokenStore struct {
	client *redis.Client
	prefix string
}

// NewTokenStore creates a Redis-backed grant store.
func NewTokenStore(client *redis.Client) *TokenStore {
	return &TokenStore{client: client, prefix: "grant:"}
}

func (s *TokenStore) key(sessionID string) string {
	return s.prefix + sessionID
}

// Load returns nil, nil when the session has no grant.
func (s *TokenStore) Load(ctx context.Context, sessionID string) (*domain.Grant, error) {
	val, err := s.client.Get(ctx, s.key(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load grant: %w", err)
	}

	var g domain.Grant
	if err := json.Unmarshal(val, &g); err != nil {
		return nil, fmt.Errorf("load grant: unmarshal: %w", err)
	}
	return &g, nil
}

// Save stores grant for ttl; each save extends the browser session.
func (s *TokenStore) Save(ctx context.Context, sessionID string, grant *domain.Grant, ttl time.Duration) error {
	data, err := json.Marshal(grant)
	if err != nil {
		return fmt.Errorf("save grant: marshal: %w", err)
	}
	if err := s.client.Set(ctx, s.key(sessionID), data, ttl).Err(); err != nil {
		return fmt.Errorf("save grant: %w", err)
	}
	return nil
}

// Delete removes the grant. Deleting a missing grant is not an error.
func (s *TokenStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, s.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("delete grant: %w", err)
	}
	return nil
}
