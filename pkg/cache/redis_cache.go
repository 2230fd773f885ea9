package cache

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisCache struct {
	client        *redis.Client
	addr          string
	defaultWindow time.Duration
}

// NewRedisCache connects to redis and fails when the server does not answer
// a ping within the dial timeout.
func NewRedisCache(cfg Config) (*RedisCache, error) {
	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	r := &RedisCache{client: client, addr: addr, defaultWindow: cfg.DefaultWindow}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()
	if err := r.Ping(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return r, nil
}

// Increment creates the counter with its expiry and bumps it in one
// MULTI/EXEC, so a counter never exists without a window.
func (r *RedisCache) Increment(ctx context.Context, key string, window time.Duration) (Window, error) {
	if window <= 0 {
		window = r.defaultWindow
	}

	var count *redis.IntCmd
	var ttl *redis.DurationCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SetNX(ctx, key, 0, window)
		count = pipe.Incr(ctx, key)
		ttl = pipe.PTTL(ctx, key)
		return nil
	})
	if err != nil {
		return Window{}, &Error{Op: "increment", Key: key, Err: err}
	}

	resetIn := ttl.Val()
	if resetIn < 0 {
		// written without an expiry by something else; start a window now
		if err := r.client.PExpire(ctx, key, window).Err(); err != nil {
			return Window{}, &Error{Op: "expire", Key: key, Err: err}
		}
		resetIn = window
	}
	return Window{Count: count.Val(), ResetIn: resetIn}, nil
}

func (r *RedisCache) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return &Error{Op: "ping", Err: err}
	}
	return nil
}

func (r *RedisCache) Close() error {
	return r.client.Close()
}
