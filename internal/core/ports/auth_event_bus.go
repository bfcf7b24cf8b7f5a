package ports

import (
	"context"

	"github.com/haphazard/site/internal/core/domain"
)

// AuthEventBus carries auth-state-changed notifications keyed by browser
// session. Publish delivers to local subscribers before it returns.
type AuthEventBus interface {
	Publish(ctx context.Context, sessionID string, event domain.AuthEvent) error
	Subscribe(sessionID string, fn func(domain.AuthEvent)) Subscription
}
