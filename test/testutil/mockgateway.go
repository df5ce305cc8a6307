package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
)

// MockGateway is an httptest.Server that simulates the model gateway's
// /v1/chat/completions endpoint.
type MockGateway struct {
	Server *httptest.Server

	// Deltas are streamed one per SSE frame, followed by [DONE].
	Deltas []string

	// ChunkSize, when > 0, re-chunks the response body into writes of that
	// many bytes to exercise arbitrary chunk boundaries. Frame boundaries are
	// used otherwise.
	ChunkSize int

	// StatusCode, when not 0 or 200, makes the mock answer with that status
	// and ErrorBody instead of a stream.
	StatusCode int
	ErrorBody  string

	mu          sync.Mutex
	lastRequest map[string]any
	hits        int
}

// NewMockGateway creates and starts a mock gateway streaming the given deltas.
func NewMockGateway(deltas ...string) *MockGateway {
	m := &MockGateway{Deltas: deltas}
	m.Server = httptest.NewServer(http.HandlerFunc(m.handle))
	return m
}

// Close shuts down the mock server.
func (m *MockGateway) Close() {
	m.Server.Close()
}

// URL returns the base URL of the mock server.
func (m *MockGateway) URL() string {
	return m.Server.URL
}

// LastRequest returns the most recent request body parsed, or nil.
func (m *MockGateway) LastRequest() map[string]any {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastRequest
}

// Hits returns how many completion requests the mock has received.
func (m *MockGateway) Hits() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hits
}

func (m *MockGateway) handle(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/v1/chat/completions" || r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	m.mu.Lock()
	m.lastRequest = body
	m.hits++
	m.mu.Unlock()

	if m.StatusCode != 0 && m.StatusCode != http.StatusOK {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(m.StatusCode)
		fmt.Fprint(w, m.ErrorBody)
		return
	}
	m.writeStream(w)
}

func (m *MockGateway) writeStream(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")

	var stream []byte
	for _, delta := range m.Deltas {
		chunk := map[string]any{
			"choices": []map[string]any{
				{"delta": map[string]any{"content": delta}},
			},
		}
		data, _ := json.Marshal(chunk)
		stream = append(stream, []byte(fmt.Sprintf("data: %s\n\n", data))...)
	}
	stream = append(stream, []byte("data: [DONE]\n\n")...)

	flusher, hasFlusher := w.(http.Flusher)
	size := m.ChunkSize
	if size <= 0 {
		size = len(stream)
	}
	for off := 0; off < len(stream); off += size {
		end := off + size
		if end > len(stream) {
			end = len(stream)
		}
		_, _ = w.Write(stream[off:end])
		if hasFlusher {
			flusher.Flush()
		}
	}
}
