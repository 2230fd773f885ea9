package cache

import (
	"context"
	"fmt"
	"time"
)

type Provider string

const (
	Redis  Provider = "redis"
	Memory Provider = "memory"
)

// Window is the state of a fixed-window counter right after an increment.
type Window struct {
	Count int64
	// ResetIn is the time left before the counter expires and starts over.
	ResetIn time.Duration
}

// Client stores the request counters behind rate limiting. A window opens
// when its counter is created; later increments never extend it.
type Client interface {
	Increment(ctx context.Context, key string, window time.Duration) (Window, error)
	Ping(ctx context.Context) error
	Close() error
}

type Error struct {
	Op  string
	Key string
	Err error
}

func (e *Error) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("cache %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("cache %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

type Logger interface {
	Info(msg string, fields ...interface{})
	Debug(msg string, fields ...interface{})
}

type Config struct {
	Host     string
	Port     int
	Password string
	DB       int

	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// DefaultWindow applies when Increment is called with a zero window.
	DefaultWindow time.Duration
}

// New opens the counter store for provider. An empty provider selects the
// in-process store.
func New(provider Provider, cfg Config, logger Logger) (Client, error) {
	if cfg.DefaultWindow <= 0 {
		cfg.DefaultWindow = time.Minute
	}

	switch provider {
	case Redis:
		client, err := NewRedisCache(withRedisDefaults(cfg))
		if err != nil {
			return nil, err
		}
		logger.Info("Rate limit counters stored in redis", "address", client.addr, "db", cfg.DB)
		return client, nil
	case Memory, "":
		logger.Info("Rate limit counters stored in memory")
		return NewMemoryCache(cfg, logger), nil
	default:
		return nil, fmt.Errorf("unsupported cache provider %q", provider)
	}
}

func withRedisDefaults(cfg Config) Config {
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.Port == 0 {
		cfg.Port = 6379
	}
	if cfg.PoolSize == 0 {
		cfg.PoolSize = 10
	}
	if cfg.DialTimeout == 0 {
		cfg.DialTimeout = 5 * time.Second
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = time.Second
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = time.Second
	}
	return cfg
}
