package ports

import (
	"context"

	"github.com/haphazard/site/internal/core/domain"
)

// UserRepository persists accounts of the built-in identity provider.
type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	// Create returns domain.ErrUserExists when the email is taken.
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
}
