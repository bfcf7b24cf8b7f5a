package ports

import (
	"context"
	"time"

	"github.com/haphazard/site/internal/core/domain"
)

// Subscription is a registered listener. Unsubscribe is idempotent; only the
// first call has any effect.
type Subscription interface {
	Unsubscribe()
}

// SubscriptionFunc adapts a plain function to Subscription.
type SubscriptionFunc func()

func (f SubscriptionFunc) Unsubscribe() { f() }

// IdentityProvider is the identity service as seen from one browser session.
type IdentityProvider interface {
	SignIn(ctx context.Context, email, password string) (*domain.Identity, error)
	SignUp(ctx context.Context, email, password string) (*domain.Identity, error)
	// SignOut ends the session. The local session is cleared and the
	// signed-out notification emitted even when it returns an error.
	SignOut(ctx context.Context) error
	// CurrentSession returns the identity of a previously established
	// session, or nil when there is none.
	CurrentSession(ctx context.Context) (*domain.Identity, error)
	// OnAuthStateChange registers fn for every subsequent auth state change.
	OnAuthStateChange(fn func(domain.AuthEvent)) Subscription
}

// IdentityProviderFactory opens providers bound to browser sessions.
type IdentityProviderFactory interface {
	ForSession(sessionID string) IdentityProvider
}

// SessionRefresher is implemented by providers that keep short-lived tokens
// fresh. Sessions the provider rejects on refresh end with a signed-out
// notification.
type SessionRefresher interface {
	RefreshIfNeeded(ctx context.Context, window time.Duration) error
}
