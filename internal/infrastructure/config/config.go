package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

const (
	SessionStoreMemory = "memory"
	SessionStoreRedis  = "redis"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	API      APIConfig
	Realtime RealtimeConfig
	Inbox    InboxConfig
	Tracing  TracingConfig

	SessionStore string `env:"SESSION_STORE, default=memory"`
	Redis        RedisConfig
}

type APIConfig struct {
	BaseURL string        `env:"API_BASE_URL, default=http://localhost:8080/api"`
	Timeout time.Duration `env:"HTTP_TIMEOUT, default=10s"`
}

type RealtimeConfig struct {
	// URL is the WebSocket endpoint; empty disables realtime pushes.
	URL string `env:"WS_URL"`
}

type InboxConfig struct {
	Limit               int           `env:"NOTIFICATION_LIMIT,     default=5"`
	MarkReadParallelism int           `env:"MARK_READ_PARALLELISM,  default=8"`
	PollInterval        time.Duration `env:"POLL_INTERVAL,          default=0s"`
}

type TracingConfig struct {
	// JaegerEndpoint is the collector URL; empty keeps tracing to header
	// propagation only.
	JaegerEndpoint string `env:"JAEGER_ENDPOINT"`
}

type RedisConfig struct {
	// URL (redis://...) overrides Addr, Password and DB when set.
	URL      string `env:"REDIS_URL"`
	Addr     string `env:"REDIS_ADDR,        default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,          default=0"`
	Key      string `env:"REDIS_SESSION_KEY, default=notifysync:session"`
}

// IsDevelopment reports whether pretty console logging should be used.
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Env, "development")
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	c.SessionStore = strings.ToLower(strings.TrimSpace(c.SessionStore))
	switch c.SessionStore {
	case SessionStoreMemory, SessionStoreRedis:
	default:
		return fmt.Errorf("SESSION_STORE must be %q or %q, got %q", SessionStoreMemory, SessionStoreRedis, c.SessionStore)
	}
	if c.API.BaseURL == "" {
		return fmt.Errorf("API_BASE_URL is required")
	}
	if c.Realtime.URL != "" && !strings.HasPrefix(c.Realtime.URL, "ws://") && !strings.HasPrefix(c.Realtime.URL, "wss://") {
		return fmt.Errorf("WS_URL must use ws:// or wss://, got %q", c.Realtime.URL)
	}
	if c.Inbox.PollInterval < 0 {
		return fmt.Errorf("POLL_INTERVAL must not be negative")
	}
	return nil
}
