package ports

import (
	"context"
	"time"

	"github.com/haphazard/site/internal/core/domain"
)

// TokenStore persists the provider grant of each browser session.
type TokenStore interface {
	// Load returns nil, nil when the session has no grant.
	Load(ctx context.Context, sessionID string) (*domain.Grant, error)
	Save(ctx context.Context, sessionID string, grant *domain.Grant, ttl time.Duration) error
	Delete(ctx context.Context, sessionID string) error
}

// TokenRevocations records token families that were signed out.
type TokenRevocations interface {
	Revoke(ctx context.Context, family string, ttl time.Duration) error
	IsRevoked(ctx context.Context, family string) (bool, error)
}
