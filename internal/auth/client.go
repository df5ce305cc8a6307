package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Verifier checks a bearer token with the identity provider and returns the
// subject (user id) it belongs to.
type Verifier interface {
	Verify(ctx context.Context, token string) (string, error)
}

// Client verifies tokens against the identity provider's user endpoint. The
// token is never decoded locally; only the provider's claims are trusted.
type Client struct {
	// userURL is the full URL of the provider's user-claims endpoint,
	// e.g. "https://auth.example.com/auth/v1/user". If it does not already
	// end with "/auth/v1/user" the suffix is appended automatically so that
	// callers can pass either a base host or the full URL.
	userURL    string
	anonKey    string
	httpClient *http.Client
}

// NewClient constructs a Client with the given base URL (or full endpoint
// URL), public API key, and request timeout.
func NewClient(baseURL, anonKey string, timeout time.Duration) *Client {
	userURL := strings.TrimRight(baseURL, "/")
	if !strings.HasSuffix(userURL, "/auth/v1/user") {
		userURL += "/auth/v1/user"
	}
	return &Client{
		userURL:    userURL,
		anonKey:    anonKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Verify asks the identity provider to resolve the token's claims. Any
// failure (transport, non-200, missing subject) is returned as an error;
// callers collapse all of them into one generic response.
func (c *Client) Verify(ctx context.Context, token string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.userURL, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if c.anonKey != "" {
		req.Header.Set("apikey", c.anonKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("identity provider request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("identity provider returned %d", resp.StatusCode)
	}

	var claims struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&claims); err != nil {
		return "", fmt.Errorf("decode claims: %w", err)
	}
	if claims.ID == "" {
		return "", errors.New("claims missing subject")
	}
	return claims.ID, nil
}
