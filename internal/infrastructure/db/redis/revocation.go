package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Revocations records signed-out token families.
// Key format: revoked:<family>
type Revocations struct {
	client *redis.Client
}

// NewRevocations creates a Revocations wrapping the given Redis client.
func NewRevocations(client *redis.Client) *Revocations {
	return &Revocations{client: client}
}

// Revoke marks family as signed out until ttl passes, which should cover the
// longest-lived token of the family.
func (r *Revocations) Revoke(ctx context.Context, family string, ttl time.Duration) error {
	if err := r.client.Set(ctx, r.key(family), "1", ttl).Err(); err != nil {
		return fmt.Errorf("revoke token family: %w", err)
	}
	return nil
}

// IsRevoked reports whether family was signed out.
func (r *Revocations) IsRevoked(ctx context.Context, family string) (bool, error) {
	n, err := r.client.Exists(ctx, r.key(family)).Result()
	if err != nil {
		return false, fmt.Errorf("revocation check: %w", err)
	}
	return n > 0, nil
}

func (r *Revocations) key(family string) string {
	return "revoked:" + family
}
