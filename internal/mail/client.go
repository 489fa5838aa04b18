// Package mail sends transactional email through an HTTP mail API.
package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultTimeout = 15 * time.Second

// Sender delivers transactional mail. The password reset flow is the only
// consumer today.
type Sender interface {
	SendPasswordReset(ctx context.Context, to, resetLink string) error
}

// Client sends mail through a JSON-over-HTTP mail delivery API.
type Client struct {
	APIKey     string
	BaseURL    string
	From       string
	HTTPClient *http.Client
}

// NewClient returns a client that uses the given API key, base URL, and from address.
func NewClient(apiKey, baseURL, from string) *Client {
	return &Client{
		APIKey:     apiKey,
		BaseURL:    baseURL,
		From:       from,
		HTTPClient: &http.Client{Timeout: defaultTimeout},
	}
}

// SendPasswordReset delivers the reset link to the given address. Does not
// log the link.
func (c *Client) SendPasswordReset(ctx context.Context, to, resetLink string) error {
	if c.APIKey == "" {
		return fmt.Errorf("mail: API key not configured")
	}
	body := map[string]interface{}{
		"from":    c.From,
		"to":      to,
		"subject": "Reset your password",
		"text":    "Open this link to choose a new password: " + resetLink,
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("mail: request failed status=%d body=%s", resp.StatusCode, string(b))
	}
	return nil
}

// Nop drops all mail. Used in tests and local development without an API key.
type Nop struct{}

func (Nop) SendPasswordReset(ctx context.Context, to, resetLink string) error { return nil }
