package errors

import (
	"encoding/json"
	"net/http"
	"strconv"
)

// jsonError is the wire shape of every non-2xx response. Messages are generic
// on purpose: validation and auth failures must not disclose schema or token
// details to the caller.
type jsonError struct {
	Error      string `json:"error"`
	RetryAfter int    `json:"retryAfter,omitempty"`
}

// WriteJSONError writes a JSON error envelope with the given status code.
func WriteJSONError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(jsonError{Error: message})
}

// WriteRetryError writes a JSON error envelope plus a Retry-After header.
// retryAfter is in seconds and must be at least 1.
func WriteRetryError(w http.ResponseWriter, statusCode int, message string, retryAfter int) {
	if retryAfter < 1 {
		retryAfter = 1
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(jsonError{Error: message, RetryAfter: retryAfter})
}
