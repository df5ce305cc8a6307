package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
)

// MockAuth is an httptest.Server that simulates the identity provider's
// /auth/v1/user endpoint. Tokens maps accepted bearer tokens to user ids.
type MockAuth struct {
	Server *httptest.Server
	Tokens map[string]string
}

// NewMockAuth creates and starts a mock identity provider accepting the given
// token-to-user mapping.
func NewMockAuth(tokens map[string]string) *MockAuth {
	m := &MockAuth{Tokens: tokens}
	m.Server = httptest.NewServer(http.HandlerFunc(m.handle))
	return m
}

// Close shuts down the mock server.
func (m *MockAuth) Close() {
	m.Server.Close()
}

// URL returns the base URL of the mock server.
func (m *MockAuth) URL() string {
	return m.Server.URL
}

func (m *MockAuth) handle(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/auth/v1/user" || r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		http.Error(w, `{"message":"missing token"}`, http.StatusUnauthorized)
		return
	}
	userID, ok := m.Tokens[token]
	if !ok {
		http.Error(w, `{"message":"invalid token"}`, http.StatusUnauthorized)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"id": userID, "aud": "authenticated"})
}
