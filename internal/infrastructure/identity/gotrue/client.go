// Package gotrue is an IdentityBackend over the Supabase GoTrue REST API.
package gotrue

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/haphazard/site/internal/core/domain"
	"github.com/haphazard/site/internal/core/ports"
)

const (
	defaultTimeout = 10 * time.Second
	maxErrorBody   = 64 << 10
)

// duplicateCodes are the error_code values GoTrue uses for a taken email.
var duplicateCodes = map[string]bool{
	"user_already_exists": true,
	"email_exists":        true,
}

// duplicateMessage is matched when the server predates error codes. It
// breaks if the wording changes upstream.
const duplicateMessage = "user already registered"

// Client talks to one GoTrue instance.
type Client struct {
	baseURL string
	anonKey string
	http    *http.Client
}

var _ ports.IdentityBackend = (*Client)(nil)

// New returns a Client for the project at baseURL (e.g.
// https://xyz.supabase.co). A zero timeout uses defaultTimeout.
func New(baseURL, anonKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/") + "/auth/v1",
		anonKey: anonKey,
		http:    &http.Client{Timeout: timeout},
	}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type userResponse struct {
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	UserMetadata map[string]any `json:"user_metadata"`
}

func (u userResponse) identity() domain.Identity {
	id := domain.Identity{ID: u.ID, Email: u.Email}
	if len(u.UserMetadata) > 0 {
		id.Metadata = u.UserMetadata
	}
	return id
}

// sessionResponse is a token response. Sign-up returns a bare user instead
// when email confirmation is on; the embedded fields catch that shape.
type sessionResponse struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	ExpiresIn    int64         `json:"expires_in"`
	ExpiresAt    int64         `json:"expires_at"`
	User         *userResponse `json:"user"`
	userResponse
}

func (s *sessionResponse) grant(now time.Time) *domain.Grant {
	g := &domain.Grant{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
	}
	switch {
	case s.ExpiresAt > 0:
		g.ExpiresAt = time.Unix(s.ExpiresAt, 0)
	case s.ExpiresIn > 0:
		g.ExpiresAt = now.Add(time.Duration(s.ExpiresIn) * time.Second)
	}
	if s.User != nil {
		g.Identity = s.User.identity()
	} else {
		g.Identity = s.userResponse.identity()
	}
	return g
}

// errorResponse covers both the current and the legacy error shapes.
type errorResponse struct {
	Code             any    `json:"code"`
	ErrorCode        string `json:"error_code"`
	Msg              string `json:"msg"`
	Message          string `json:"message"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// PasswordGrant signs in with email and password.
func (c *Client) PasswordGrant(ctx context.Context, email, password string) (*domain.Grant, error) {
	var out sessionResponse
	if err := c.do(ctx, http.MethodPost, "/token?grant_type=password", "", credentialsRequest{email, password}, &out); err != nil {
		return nil, err
	}
	return out.grant(time.Now()), nil
}

// SignUp registers an account.
func (c *Client) SignUp(ctx context.Context, email, password string) (*domain.Grant, error) {
	var out sessionResponse
	if err := c.do(ctx, http.MethodPost, "/signup", "", credentialsRequest{email, password}, &out); err != nil {
		return nil, err
	}
	return out.grant(time.Now()), nil
}

// Refresh exchanges a refresh token for a new session.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*domain.Grant, error) {
	var out sessionResponse
	if err := c.do(ctx, http.MethodPost, "/token?grant_type=refresh_token", "", refreshRequest{refreshToken}, &out); err != nil {
		return nil, err
	}
	return out.grant(time.Now()), nil
}

// User returns the account behind accessToken.
func (c *Client) User(ctx context.Context, accessToken string) (*domain.Identity, error) {
	var out userResponse
	if err := c.do(ctx, http.MethodGet, "/user", accessToken, nil, &out); err != nil {
		return nil, err
	}
	id := out.identity()
	return &id, nil
}

// Logout revokes the session of accessToken.
func (c *Client) Logout(ctx context.Context, accessToken string) error {
	return c.do(ctx, http.MethodPost, "/logout", accessToken, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path, bearer string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &domain.ProviderError{Kind: domain.ErrNetwork, Message: transportMessage(err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return classify(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &domain.ProviderError{Kind: domain.ErrNetwork, Status: resp.StatusCode, Message: "decode response: " + err.Error()}
	}
	return nil
}

// classify maps a GoTrue error response onto the credential taxonomy.
func classify(resp *http.Response) error {
	var e errorResponse
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	_ = json.Unmarshal(raw, &e)

	msg := firstNonEmpty(e.Msg, e.Message, e.ErrorDescription, e.Error, http.StatusText(resp.StatusCode))
	code := e.ErrorCode
	if code == "" {
		if s, ok := e.Code.(string); ok {
			code = s
		} else if e.Error != "" && e.ErrorDescription != "" {
			code = e.Error
		}
	}

	pe := &domain.ProviderError{Status: resp.StatusCode, Code: code, Message: msg}
	switch {
	case resp.StatusCode >= http.StatusInternalServerError,
		resp.StatusCode == http.StatusTooManyRequests,
		resp.StatusCode == http.StatusRequestTimeout:
		pe.Kind = domain.ErrNetwork
	case duplicateCodes[code],
		strings.Contains(strings.ToLower(msg), duplicateMessage):
		pe.Kind = domain.ErrDuplicateAccount
	default:
		pe.Kind = domain.ErrAuthentication
	}
	return pe
}

func transportMessage(err error) string {
	var ue *url.Error
	if errors.As(err, &ue) {
		if ue.Timeout() {
			return "request timed out"
		}
		return ue.Err.Error()
	}
	return err.Error()
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
