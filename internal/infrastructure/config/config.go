package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT, default=10s"`

	API     APIConfig
	Session SessionConfig
	Console ConsoleConfig
	Mongo   MongoConfig
	Redis   RedisConfig
}

// APIConfig locates the remote REST API.
type APIConfig struct {
	BaseURL string        `env:"API_BASE_URL, default=http://localhost:5000"`
	Timeout time.Duration `env:"API_TIMEOUT,  default=30s"`
}

type SessionConfig struct {
	Cookie string        `env:"SESSION_COOKIE, default=console_session"`
	TTL    time.Duration `env:"SESSION_TTL,    default=0s"`
	Secure bool          `env:"COOKIE_SECURE,  default=false"`
}

// ConsoleConfig tunes the dashboards.
type ConsoleConfig struct {
	DebounceQuiet   time.Duration `env:"DEBOUNCE_QUIET,   default=500ms"`
	RedirectDelay   time.Duration `env:"REDIRECT_DELAY,   default=1500ms"`
	RenderWait      time.Duration `env:"RENDER_WAIT,      default=3s"`
	WorkspaceIdle   time.Duration `env:"WORKSPACE_IDLE,   default=30m"`
	DefaultTimezone string        `env:"DEFAULT_TIMEZONE, default=UTC"`
}

// MongoConfig enables the audit trail when URI is set.
type MongoConfig struct {
	URI      string `env:"MONGO_URI"`
	Database string `env:"MONGO_DB,      default=admin_console"`
	Workers  int    `env:"AUDIT_WORKERS, default=2"`
}

// RedisConfig selects the Redis session store when Addr is set; otherwise
// sessions live in process memory.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB, default=0"`
}

// IsDevelopment reports whether the console runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	cfg, err := LoadFrom(context.Background(), envconfig.OsLookuper())
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}

// LoadFrom reads configuration from l.
func LoadFrom(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: l,
	}); err != nil {
		return nil, err
	}
	if cfg.API.BaseURL == "" {
		return nil, fmt.Errorf("API_BASE_URL must not be empty")
	}
	if cfg.Console.DebounceQuiet < 0 || cfg.Console.RedirectDelay < 0 || cfg.Console.RenderWait < 0 {
		return nil, fmt.Errorf("console durations must not be negative")
	}
	return &cfg, nil
}
