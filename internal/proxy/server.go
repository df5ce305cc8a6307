package proxy

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/alexbarra-hub/coachtully/internal/auth"
	"github.com/alexbarra-hub/coachtully/internal/config"
	"github.com/alexbarra-hub/coachtully/internal/ratelimit"
	"github.com/alexbarra-hub/coachtully/internal/upstream"
)

// Server is the edge gateway HTTP server.
type Server struct {
	httpServer *http.Server
}

// New constructs a Server from the given config.
func New(cfg *config.Config) *Server {
	verifier := auth.NewClient(cfg.AuthURL, cfg.AuthAnonKey, cfg.RequestTimeout)
	gateway := upstream.NewClient(cfg.GatewayURL)
	ipLimiter := ratelimit.New(cfg.IPRateLimit, cfg.IPRateWindow)
	userLimiter := ratelimit.New(cfg.UserRateLimit, cfg.UserRateWindow)

	handler := NewCoachHandler(cfg, verifier, gateway, ipLimiter, userLimiter)

	router := mux.NewRouter()
	// The handler owns method dispatch so that CORS headers and the JSON 405
	// are applied uniformly.
	router.Handle("/career-coach", handler)
	router.Use(recoveryMiddleware, requestIDMiddleware, loggingMiddleware)

	return &Server{
		httpServer: &http.Server{
			Addr:         cfg.ListenAddr,
			Handler:      router,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: cfg.RequestTimeout + 10*time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
}

// Start begins listening and blocks until the server is stopped.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Handler returns the underlying http.Handler (for use in tests with httptest.NewServer).
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
