package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.ListenAddr != ":8080" {
		t.Errorf("expected :8080, got %s", cfg.ListenAddr)
	}
	if cfg.IPRateLimit != 60 || cfg.UserRateLimit != 30 {
		t.Errorf("unexpected rate limits: ip=%d user=%d", cfg.IPRateLimit, cfg.UserRateLimit)
	}
	if cfg.IPRateWindow != time.Minute || cfg.UserRateWindow != time.Minute {
		t.Errorf("unexpected rate windows: ip=%s user=%s", cfg.IPRateWindow, cfg.UserRateWindow)
	}
	if len(cfg.AllowedOrigins) != 1 || cfg.AllowedOrigins[0] != cfg.DefaultOrigin {
		t.Errorf("expected allow-list to default to the canonical origin, got %v", cfg.AllowedOrigins)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("LISTEN_ADDR", ":9999")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example.com,https://b.example.com")
	t.Setenv("USER_RATE_LIMIT", "5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.ListenAddr != ":9999" {
		t.Errorf("expected :9999, got %s", cfg.ListenAddr)
	}
	if len(cfg.AllowedOrigins) != 2 {
		t.Errorf("expected 2 origins, got %v", cfg.AllowedOrigins)
	}
	if cfg.UserRateLimit != 5 {
		t.Errorf("expected 5, got %d", cfg.UserRateLimit)
	}
}
