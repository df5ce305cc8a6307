package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v9"
)

// Config is the process-wide configuration, read once at startup from the
// environment. The gateway credential is intentionally kept here rather than
// cached by the handler so that it is read at request time.
type Config struct {
	ListenAddr string `env:"LISTEN_ADDR" envDefault:":8080"`

	// Model gateway
	GatewayURL    string `env:"AI_GATEWAY_URL" envDefault:"https://ai.gateway.lovable.dev"`
	GatewayAPIKey string `env:"AI_GATEWAY_API_KEY"`
	Model         string `env:"AI_MODEL" envDefault:"google/gemini-3-flash-preview"`

	// Identity provider
	AuthURL     string `env:"AUTH_URL" envDefault:"http://localhost:54321"`
	AuthAnonKey string `env:"AUTH_ANON_KEY"`

	// CORS
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:","`
	DefaultOrigin  string   `env:"DEFAULT_ORIGIN" envDefault:"https://coachtully.app"`

	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"120s"`

	// Rate limiting: the IP tier damps anonymous floods before auth, the
	// user tier bounds authenticated usage.
	IPRateLimit    int           `env:"IP_RATE_LIMIT" envDefault:"60"`
	IPRateWindow   time.Duration `env:"IP_RATE_WINDOW" envDefault:"60s"`
	UserRateLimit  int           `env:"USER_RATE_LIMIT" envDefault:"30"`
	UserRateWindow time.Duration `env:"USER_RATE_WINDOW" envDefault:"60s"`
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing env config: %w", err)
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{cfg.DefaultOrigin}
	}
	return cfg, nil
}
