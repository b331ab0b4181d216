package config

import (
	"context"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
)

func TestLoadFrom_Defaults(t *testing.T) {
	cfg, err := LoadFrom(context.Background(), envconfig.MapLookuper(map[string]string{}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Port != "8080" || cfg.Env != "development" || cfg.LogLevel != "info" || cfg.ShutdownTimeout != 10*time.Second {
		t.Fatalf("unexpected base config: %+v", cfg)
	}
	if cfg.API.BaseURL != "http://localhost:5000" || cfg.API.Timeout != 30*time.Second {
		t.Fatalf("unexpected api config: %+v", cfg.API)
	}
	if cfg.Session.Cookie != "console_session" || cfg.Session.TTL != 0 || cfg.Session.Secure {
		t.Fatalf("unexpected session config: %+v", cfg.Session)
	}
	c := cfg.Console
	if c.DebounceQuiet != 500*time.Millisecond || c.RedirectDelay != 1500*time.Millisecond ||
		c.RenderWait != 3*time.Second || c.WorkspaceIdle != 30*time.Minute || c.DefaultTimezone != "UTC" {
		t.Fatalf("unexpected console config: %+v", c)
	}
	if cfg.Mongo.URI != "" || cfg.Mongo.Database != "admin_console" || cfg.Mongo.Workers != 2 {
		t.Fatalf("unexpected mongo config: %+v", cfg.Mongo)
	}
	if cfg.Redis.Addr != "" {
		t.Fatalf("redis should be disabled by default, got %q", cfg.Redis.Addr)
	}
	if !cfg.IsDevelopment() {
		t.Fatal("expected development mode by default")
	}
}

func TestLoadFrom_Overrides(t *testing.T) {
	cfg, err := LoadFrom(context.Background(), envconfig.MapLookuper(map[string]string{
		"API_BASE_URL":   "https://api.example.com",
		"API_TIMEOUT":    "5s",
		"DEBOUNCE_QUIET": "250ms",
		"REDIS_ADDR":     "redis:6379",
		"MONGO_URI":      "mongodb://mongo:27017",
		"COOKIE_SECURE":  "true",
		"ENV":            "production",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.API.BaseURL != "https://api.example.com" || cfg.API.Timeout != 5*time.Second {
		t.Fatalf("unexpected api config: %+v", cfg.API)
	}
	if cfg.Console.DebounceQuiet != 250*time.Millisecond {
		t.Fatalf("debounce = %s", cfg.Console.DebounceQuiet)
	}
	if cfg.Redis.Addr != "redis:6379" || cfg.Mongo.URI != "mongodb://mongo:27017" || !cfg.Session.Secure {
		t.Fatalf("unexpected overrides: %+v", cfg)
	}
	if cfg.IsDevelopment() {
		t.Fatal("expected production mode")
	}
}

func TestLoadFrom_InvalidDuration(t *testing.T) {
	_, err := LoadFrom(context.Background(), envconfig.MapLookuper(map[string]string{
		"RENDER_WAIT": "soon",
	}))
	if err == nil {
		t.Fatal("expected error for invalid duration")
	}
}

func TestLoadFrom_NegativeDuration(t *testing.T) {
	_, err := LoadFrom(context.Background(), envconfig.MapLookuper(map[string]string{
		"REDIRECT_DELAY": "-1s",
	}))
	if err == nil {
		t.Fatal("expected error for negative duration")
	}
}
