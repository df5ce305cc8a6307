package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/alexbarra-hub/coachtully/internal/domain"
)

// maxErrorBodyBytes caps how much of an upstream error body is kept for
// logging. Error bodies are never echoed to the caller.
const maxErrorBodyBytes = 4096

// ChatRequest is sent to the model gateway's chat-completions endpoint.
type ChatRequest struct {
	Model    string               `json:"model"`
	Messages []domain.ChatMessage `json:"messages"`
	Stream   bool                 `json:"stream"`
}

// StatusError reports a non-2xx response from the model gateway. Body is for
// server-side logs only.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("model gateway returned %d", e.StatusCode)
}

// Client sends streaming completion requests to the model gateway.
type Client struct {
	// completionsURL is the full URL of the chat-completions endpoint. If the
	// configured URL does not already end with "/v1/chat/completions" the
	// suffix is appended automatically so that callers can pass either a base
	// host or the full URL.
	completionsURL string
	httpClient     *http.Client
}

// NewClient constructs a Client for the given gateway base URL (or full
// endpoint URL). No client-level timeout is set: the stream lives as long as
// the request context allows.
func NewClient(baseURL string) *Client {
	completionsURL := strings.TrimRight(baseURL, "/")
	if !strings.HasSuffix(completionsURL, "/v1/chat/completions") {
		completionsURL += "/v1/chat/completions"
	}
	return &Client{
		completionsURL: completionsURL,
		httpClient:     &http.Client{},
	}
}

// StreamCompletion issues a streaming chat-completions request and returns
// the raw SSE body. The caller owns the returned ReadCloser. Non-2xx
// responses are drained (up to a cap) and returned as a *StatusError.
func (c *Client) StreamCompletion(ctx context.Context, apiKey string, req *ChatRequest) (io.ReadCloser, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.completionsURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+apiKey)
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("model gateway request: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		resp.Body.Close()
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return resp.Body, nil
}
