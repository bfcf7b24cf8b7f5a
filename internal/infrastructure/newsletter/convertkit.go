// Package newsletter forwards waiting-list emails to the mailing-list
// provider.
package newsletter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/haphazard/site/internal/core/ports"
)

const (
	defaultBaseURL = "https://api.convertkit.com/v3"
	defaultTimeout = 10 * time.Second
)

// ConvertKit subscribes emails to a ConvertKit form.
type ConvertKit struct {
	baseURL string
	formID  string
	apiKey  string
	http    *http.Client
}

var _ ports.NewsletterClient = (*ConvertKit)(nil)

// NewConvertKit returns a client for formID. baseURL may be empty.
func NewConvertKit(baseURL, formID, apiKey string) *ConvertKit {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &ConvertKit{
		baseURL: strings.TrimRight(baseURL, "/"),
		formID:  formID,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: defaultTimeout},
	}
}

type subscribeRequest struct {
	APIKey string `json:"api_key"`
	Email  string `json:"email"`
}

// Subscribe adds email to the form. Subscribing twice is accepted upstream.
func (c *ConvertKit) Subscribe(ctx context.Context, email string) error {
	body, err := json.Marshal(subscribeRequest{APIKey: c.apiKey, Email: email})
	if err != nil {
		return fmt.Errorf("convertkit subscribe: %w", err)
	}

	url := fmt.Sprintf("%s/forms/%s/subscribe", c.baseURL, c.formID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("convertkit subscribe: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("convertkit subscribe: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("convertkit subscribe: unexpected status %d", resp.StatusCode)
	}
	return nil
}

// Noop stands in when no provider is configured; entries stay in the
// database only.
type Noop struct {
	log zerolog.Logger
}

var _ ports.NewsletterClient = Noop{}

func NewNoop(log zerolog.Logger) Noop {
	return Noop{log: log}
}

func (n Noop) Subscribe(_ context.Context, email string) error {
	n.log.Debug().Str("email", email).Msg("newsletter not configured, subscribe skipped")
	return nil
}
