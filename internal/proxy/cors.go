package proxy

import (
	"net/http"
	"regexp"
	"strings"
)

// localhostOrigin matches local development origins on any port.
var localhostOrigin = regexp.MustCompile(`^https?://(localhost|127\.0\.0\.1)(:\d+)?$`)

// corsPolicy decides which origin to echo in Access-Control-Allow-Origin.
// Unknown origins fall back to the canonical origin instead of being echoed,
// so third-party pages cannot call the endpoint with credentials.
type corsPolicy struct {
	allowed  map[string]struct{}
	fallback string
}

func newCORSPolicy(allowedOrigins []string, fallback string) *corsPolicy {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o != "" {
			allowed[o] = struct{}{}
		}
	}
	return &corsPolicy{allowed: allowed, fallback: fallback}
}

// resolve returns the request origin when it is allow-listed or local
// development, the canonical origin otherwise.
func (p *corsPolicy) resolve(origin string) string {
	if origin != "" {
		if _, ok := p.allowed[origin]; ok {
			return origin
		}
		if localhostOrigin.MatchString(origin) {
			return origin
		}
	}
	return p.fallback
}

func (p *corsPolicy) apply(w http.ResponseWriter, origin string) {
	h := w.Header()
	h.Set("Access-Control-Allow-Origin", origin)
	h.Set("Access-Control-Allow-Headers", "authorization, x-client-info, apikey, content-type")
	h.Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	h.Add("Vary", "Origin")
}
