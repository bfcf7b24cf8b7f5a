package ports

import (
	"context"

	"github.com/haphazard/site/internal/core/domain"
)

// IdentityBackend is the wire-level contract of an identity service. It is
// stateless: the caller owns the returned grants.
//
// Failures are *domain.ProviderError values (or wrap one) whose Kind is
// domain.ErrAuthentication, domain.ErrDuplicateAccount or domain.ErrNetwork.
type IdentityBackend interface {
	PasswordGrant(ctx context.Context, email, password string) (*domain.Grant, error)
	// SignUp registers an account. The returned grant has no session when
	// the provider requires email confirmation first.
	SignUp(ctx context.Context, email, password string) (*domain.Grant, error)
	Refresh(ctx context.Context, refreshToken string) (*domain.Grant, error)
	User(ctx context.Context, accessToken string) (*domain.Identity, error)
	Logout(ctx context.Context, accessToken string) error
}
