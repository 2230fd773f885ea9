package cache

import (
	"context"
	"sync"
	"time"
)

const sweepInterval = 5 * time.Minute

// MemoryCache keeps counters in process. Counts are not shared between
// replicas, so it suits a single instance or tests.
type MemoryCache struct {
	mu            sync.Mutex
	counters      map[string]*counter
	defaultWindow time.Duration
	logger        Logger
	stop          chan struct{}
	closeOnce     sync.Once
}

type counter struct {
	count     int64
	expiresAt time.Time
}

func NewMemoryCache(cfg Config, logger Logger) *MemoryCache {
	m := &MemoryCache{
		counters:      make(map[string]*counter),
		defaultWindow: cfg.DefaultWindow,
		logger:        logger,
		stop:          make(chan struct{}),
	}
	go m.sweep()
	return m
}

func (m *MemoryCache) Increment(_ context.Context, key string, window time.Duration) (Window, error) {
	if window <= 0 {
		window = m.defaultWindow
	}
	now := time.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.counters[key]
	if !ok || !now.Before(c.expiresAt) {
		c = &counter{expiresAt: now.Add(window)}
		m.counters[key] = c
	}
	c.count++
	return Window{Count: c.count, ResetIn: c.expiresAt.Sub(now)}, nil
}

func (m *MemoryCache) Ping(context.Context) error {
	return nil
}

func (m *MemoryCache) Close() error {
	m.closeOnce.Do(func() { close(m.stop) })
	return nil
}

func (m *MemoryCache) sweep() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.dropExpired(time.Now())
		case <-m.stop:
			return
		}
	}
}

func (m *MemoryCache) dropExpired(now time.Time) {
	m.mu.Lock()
	dropped := 0
	for key, c := range m.counters {
		if !now.Before(c.expiresAt) {
			delete(m.counters, key)
			dropped++
		}
	}
	m.mu.Unlock()

	if dropped > 0 && m.logger != nil {
		m.logger.Debug("Dropped expired rate limit counters", "count", dropped)
	}
}
