package proxy

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/alexbarra-hub/coachtully/internal/auth"
	"github.com/alexbarra-hub/coachtully/internal/coach"
	"github.com/alexbarra-hub/coachtully/internal/config"
	"github.com/alexbarra-hub/coachtully/internal/domain"
	apierrors "github.com/alexbarra-hub/coachtully/internal/errors"
	"github.com/alexbarra-hub/coachtully/internal/httputil"
	"github.com/alexbarra-hub/coachtully/internal/ratelimit"
	"github.com/alexbarra-hub/coachtully/internal/upstream"
)

const (
	// Coarse token sanity bounds, checked before the identity provider is
	// asked to verify claims.
	minTokenLen = 10
	maxTokenLen = 5000

	upstreamRetryAfterSeconds = 30
)

// Client-visible messages. Deliberately generic: which check failed is logged
// server-side, never disclosed.
const (
	msgInvalidRequest  = "Invalid request. Please check your input and try again."
	msgUnauthorized    = "Authentication required. Please sign in and try again."
	msgTooLarge        = "Request body is too large."
	msgMethod          = "Method not allowed."
	msgIPRateLimited   = "Too many requests from your network. Please slow down."
	msgUserRateLimited = "You're sending messages too quickly. Please wait a moment."
	msgHighDemand      = "We're experiencing high demand. Please try again in a moment."
	msgUnavailable     = "Service temporarily unavailable. Please try again later."
	msgInternal        = "Something went wrong. Please try again."
)

// CoachHandler is the sole trusted boundary between the public client and the
// model-gateway credential. It rejects malformed, unauthenticated, or
// excessive traffic before incurring upstream cost, then relays the upstream
// SSE byte stream untouched.
type CoachHandler struct {
	cfg         *config.Config
	verifier    auth.Verifier
	gateway     *upstream.Client
	cors        *corsPolicy
	ipLimiter   *ratelimit.Limiter
	userLimiter *ratelimit.Limiter
}

// NewCoachHandler constructs the handler. Limiters are injected so tests can
// instantiate independent instances and control the clock.
func NewCoachHandler(cfg *config.Config, verifier auth.Verifier, gateway *upstream.Client, ipLimiter, userLimiter *ratelimit.Limiter) *CoachHandler {
	return &CoachHandler{
		cfg:         cfg,
		verifier:    verifier,
		gateway:     gateway,
		cors:        newCORSPolicy(cfg.AllowedOrigins, cfg.DefaultOrigin),
		ipLimiter:   ipLimiter,
		userLimiter: userLimiter,
	}
}

// ServeHTTP runs the request pipeline: CORS resolution, IP limit, body parse,
// schema validation, auth, user limit, upstream call, stream relay. Exactly
// one response per request; retries are the caller's responsibility.
func (h *CoachHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	origin := h.cors.resolve(r.Header.Get("Origin"))
	h.cors.apply(w, origin)

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if r.Method != http.MethodPost {
		apierrors.WriteJSONError(w, http.StatusMethodNotAllowed, msgMethod)
		return
	}

	ip := httputil.ClientIP(r)
	if d := h.ipLimiter.Allow(ip); !d.Allowed {
		slog.Warn("ip rate limit exceeded", "ip", ip, "retry_after", d.RetryAfter)
		apierrors.WriteRetryError(w, http.StatusTooManyRequests, msgIPRateLimited, d.RetryAfter)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	req, err := decodeChatRequest(r.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			apierrors.WriteJSONError(w, http.StatusRequestEntityTooLarge, msgTooLarge)
			return
		}
		slog.Warn("rejected request body", "reason", err.Error())
		apierrors.WriteJSONError(w, http.StatusBadRequest, msgInvalidRequest)
		return
	}

	token := httputil.BearerToken(r)
	if len(token) < minTokenLen || len(token) > maxTokenLen {
		slog.Warn("rejected token outside sanity bounds", "length", len(token))
		apierrors.WriteJSONError(w, http.StatusUnauthorized, msgUnauthorized)
		return
	}
	userID, err := h.verifier.Verify(r.Context(), token)
	if err != nil {
		slog.Warn("token verification failed", "error", err.Error())
		apierrors.WriteJSONError(w, http.StatusUnauthorized, msgUnauthorized)
		return
	}

	userDecision := h.userLimiter.Allow(userID)
	if !userDecision.Allowed {
		slog.Warn("user rate limit exceeded", "user", truncateID(userID), "retry_after", userDecision.RetryAfter)
		apierrors.WriteRetryError(w, http.StatusTooManyRequests, msgUserRateLimited, userDecision.RetryAfter)
		return
	}

	// Read at request time, not cached: rotating the credential must not
	// require a restart of in-flight config.
	apiKey := h.cfg.GatewayAPIKey
	if apiKey == "" {
		slog.Error("model gateway credential is not configured")
		apierrors.WriteJSONError(w, http.StatusInternalServerError, msgInternal)
		return
	}

	slog.Info("forwarding coach request",
		"user", truncateID(userID),
		"messages", len(req.Messages),
		"has_profile", req.UserProfile != nil,
	)

	system := domain.ChatMessage{Role: domain.RoleSystem, Content: coach.BuildSystemPrompt(req.UserProfile)}
	upReq := &upstream.ChatRequest{
		Model:    h.cfg.Model,
		Messages: append([]domain.ChatMessage{system}, req.Messages...),
		Stream:   true,
	}

	body, err := h.gateway.StreamCompletion(r.Context(), apiKey, upReq)
	if err != nil {
		h.writeUpstreamError(w, err)
		return
	}
	defer body.Close()

	// User-tier telemetry so well-behaved clients can self-throttle.
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(userDecision.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(userDecision.ResetAt.Unix(), 10))
	httputil.SetSSEHeaders(w)

	if err := relayStream(w, body); err != nil {
		// Headers are already out; nothing more can be sent to the caller.
		slog.Warn("stream relay interrupted", "error", err.Error())
	}
}

func (h *CoachHandler) writeUpstreamError(w http.ResponseWriter, err error) {
	var statusErr *upstream.StatusError
	if errors.As(err, &statusErr) {
		slog.Error("model gateway error", "status", statusErr.StatusCode, "body", statusErr.Body)
		switch statusErr.StatusCode {
		case http.StatusTooManyRequests:
			apierrors.WriteRetryError(w, http.StatusTooManyRequests, msgHighDemand, upstreamRetryAfterSeconds)
		case http.StatusPaymentRequired:
			apierrors.WriteJSONError(w, http.StatusServiceUnavailable, msgUnavailable)
		default:
			apierrors.WriteJSONError(w, http.StatusInternalServerError, msgInternal)
		}
		return
	}
	slog.Error("model gateway request failed", "error", err.Error())
	apierrors.WriteJSONError(w, http.StatusInternalServerError, msgInternal)
}

// relayStream copies the upstream SSE bytes to the caller as they arrive,
// flushing after every read so the full completion is never buffered.
func relayStream(w http.ResponseWriter, body io.Reader) error {
	fw := newFlushWriter(w)
	buf := make([]byte, 4096)
	for {
		n, err := body.Read(buf)
		if n > 0 {
			if _, werr := fw.Write(buf[:n]); werr != nil {
				return werr
			}
			fw.Flush()
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// truncateID shortens a user id for logs.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
