package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/haphazard/site/internal/core/domain"
	"github.com/haphazard/site/internal/core/ports"
)

const (
	tokenUseAccess  = "access"
	tokenUseRefresh = "refresh"

	minPasswordLength = 6
)

// tokenClaims are carried by both access and refresh tokens. Family is shared
// by every token issued from one sign-in; revoking it ends the session.
type tokenClaims struct {
	Email    string `json:"email,omitempty"`
	TokenUse string `json:"token_use"`
	Family   string `json:"sid"`
	jwt.RegisteredClaims
}

// AuthService is the built-in identity provider: accounts in a repository,
// bcrypt password hashes, HS256 access and refresh tokens.
type AuthService struct {
	repo        ports.UserRepository
	revocations ports.TokenRevocations
	jwtSecret   []byte
	accessTTL   time.Duration
	refreshTTL  time.Duration
	now         func() time.Time
}

var _ ports.IdentityBackend = (*AuthService)(nil)

func NewAuthService(repo ports.UserRepository, revocations ports.TokenRevocations, jwtSecret string, accessTTL, refreshTTL time.Duration) *AuthService {
	if accessTTL <= 0 {
		accessTTL = time.Hour
	}
	if refreshTTL <= 0 {
		refreshTTL = 30 * 24 * time.Hour
	}
	return &AuthService{
		repo:        repo,
		revocations: revocations,
		jwtSecret:   []byte(jwtSecret),
		accessTTL:   accessTTL,
		refreshTTL:  refreshTTL,
		now:         time.Now,
	}
}

// PasswordGrant signs in with email and password.
func (s *AuthService) PasswordGrant(ctx context.Context, email, password string) (*domain.Grant, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, invalidCredentials()
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if errors.Is(err, domain.ErrUserNotFound) {
		return nil, invalidCredentials()
	}
	if err != nil {
		return nil, unavailable(fmt.Errorf("find user: %w", err))
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, invalidCredentials()
	}

	return s.issue(user, uuid.NewString())
}

// SignUp creates an account and signs it in. The built-in provider does not
// require email confirmation, so the grant always carries a session.
func (s *AuthService) SignUp(ctx context.Context, email, password string) (*domain.Grant, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, &domain.ProviderError{
			Kind:    domain.ErrAuthentication,
			Status:  http.StatusBadRequest,
			Code:    "validation_failed",
			Message: "Unable to validate email address: invalid format",
		}
	}
	if len(password) < minPasswordLength {
		return nil, &domain.ProviderError{
			Kind:    domain.ErrAuthentication,
			Status:  http.StatusUnprocessableEntity,
			Code:    "weak_password",
			Message: fmt.Sprintf("Password should be at least %d characters.", minPasswordLength),
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now().UTC()
	created, err := s.repo.Create(ctx, &domain.User{
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if errors.Is(err, domain.ErrUserExists) {
		return nil, &domain.ProviderError{
			Kind:    domain.ErrDuplicateAccount,
			Status:  http.StatusUnprocessableEntity,
			Code:    "user_already_exists",
			Message: "User already registered",
		}
	}
	if err != nil {
		return nil, unavailable(fmt.Errorf("create user: %w", err))
	}

	return s.issue(created, uuid.NewString())
}

// Refresh exchanges a refresh token for a new pair in the same family.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*domain.Grant, error) {
	claims, err := s.parse(refreshToken, tokenUseRefresh)
	if err != nil {
		return nil, err
	}
	if err := s.checkRevoked(ctx, claims.Family); err != nil {
		return nil, err
	}

	user, err := s.repo.FindByID(ctx, claims.Subject)
	if errors.Is(err, domain.ErrUserNotFound) {
		return nil, invalidToken("user_not_found", "User from sub claim in JWT does not exist")
	}
	if err != nil {
		return nil, unavailable(fmt.Errorf("find user: %w", err))
	}

	return s.issue(user, claims.Family)
}

// User returns the identity an access token belongs to.
func (s *AuthService) User(ctx context.Context, accessToken string) (*domain.Identity, error) {
	claims, err := s.parse(accessToken, tokenUseAccess)
	if err != nil {
		return nil, err
	}
	if err := s.checkRevoked(ctx, claims.Family); err != nil {
		return nil, err
	}

	user, err := s.repo.FindByID(ctx, claims.Subject)
	if errors.Is(err, domain.ErrUserNotFound) {
		return nil, invalidToken("user_not_found", "User from sub claim in JWT does not exist")
	}
	if err != nil {
		return nil, unavailable(fmt.Errorf("find user: %w", err))
	}

	identity := user.Identity()
	return &identity, nil
}

// Logout revokes the token family of accessToken. Expired tokens are
// accepted so a stale session can still be ended.
func (s *AuthService) Logout(ctx context.Context, accessToken string) error {
	claims := &tokenClaims{}
	_, err := jwt.ParseWithClaims(accessToken, claims, s.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil || claims.Family == "" {
		return invalidToken("bad_jwt", "invalid JWT")
	}

	if err := s.revocations.Revoke(ctx, claims.Family, s.refreshTTL); err != nil {
		return unavailable(fmt.Errorf("revoke session: %w", err))
	}
	return nil
}

func (s *AuthService) issue(user *domain.User, family string) (*domain.Grant, error) {
	now := s.now()
	expiresAt := now.Add(s.accessTTL)

	access, err := s.sign(tokenClaims{
		Email:    user.Email,
		TokenUse: tokenUseAccess,
		Family:   family,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	})
	if err != nil {
		return nil, err
	}

	refresh, err := s.sign(tokenClaims{
		TokenUse: tokenUseRefresh,
		Family:   family,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.refreshTTL)),
		},
	})
	if err != nil {
		return nil, err
	}

	return &domain.Grant{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    expiresAt.Truncate(time.Second),
		Identity:     user.Identity(),
	}, nil
}

func (s *AuthService) sign(claims tokenClaims) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (s *AuthService) keyFunc(*jwt.Token) (any, error) {
	return s.jwtSecret, nil
}

func (s *AuthService) parse(token, use string) (*tokenClaims, error) {
	claims := &tokenClaims{}
	_, err := jwt.ParseWithClaims(token, claims, s.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if errors.Is(err, jwt.ErrTokenExpired) {
		return nil, invalidToken("session_expired", "token has expired")
	}
	if err != nil || claims.TokenUse != use || claims.Family == "" {
		return nil, invalidToken("bad_jwt", "invalid JWT")
	}
	return claims, nil
}

func (s *AuthService) checkRevoked(ctx context.Context, family string) error {
	revoked, err := s.revocations.IsRevoked(ctx, family)
	if err != nil {
		return unavailable(fmt.Errorf("check revocation: %w", err))
	}
	if revoked {
		return invalidToken("session_not_found", "Session from session_id claim in JWT does not exist")
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func invalidCredentials() error {
	return &domain.ProviderError{
		Kind:    domain.ErrAuthentication,
		Status:  http.StatusBadRequest,
		Code:    "invalid_credentials",
		Message: "Invalid login credentials",
	}
}

func invalidToken(code, msg string) error {
	return &domain.ProviderError{
		Kind:    domain.ErrAuthentication,
		Status:  http.StatusUnauthorized,
		Code:    code,
		Message: msg,
	}
}

func unavailable(err error) error {
	return &domain.ProviderError{
		Kind:    domain.ErrNetwork,
		Status:  http.StatusServiceUnavailable,
		Code:    "unavailable",
		Message: err.Error(),
	}
}
