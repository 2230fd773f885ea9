package middleware

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"go-rbac-admin/common"
	"go-rbac-admin/domain"
	"go-rbac-admin/pkg/log"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
)

const (
	HeaderRateLimit     = "X-RateLimit-Limit"
	HeaderRateRemaining = "X-RateLimit-Remaining"
	HeaderRateReset     = "X-RateLimit-Reset"
)

// RateLimitConfig is one fixed-window limit. Requests are counted per key,
// the client IP unless KeyFunc says otherwise.
type RateLimitConfig struct {
	// Name prefixes the counter keys and labels the log line on rejection.
	Name        string
	WindowSize  time.Duration
	MaxRequests int64

	KeyFunc   func(*gin.Context) string
	SkipPaths []string
	Skip      func(*gin.Context) bool
}

func (cfg RateLimitConfig) withDefaults() RateLimitConfig {
	if cfg.Name == "" {
		cfg.Name = "default"
	}
	if cfg.WindowSize <= 0 {
		cfg.WindowSize = time.Minute
	}
	if cfg.MaxRequests <= 0 {
		cfg.MaxRequests = 100
	}
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = func(c *gin.Context) string { return "ip:" + c.ClientIP() }
	}
	return cfg
}

// RateLimit rejects requests over cfg.MaxRequests per window with a 429
// TOO_MANY_REQUESTS envelope. Without a cache, or when the cache fails, the
// request goes through.
func (m *middlewares) RateLimit(cfg RateLimitConfig) gin.HandlerFunc {
	cfg = cfg.withDefaults()
	skipPaths := lo.SliceToMap(cfg.SkipPaths, func(p string) (string, struct{}) { return p, struct{}{} })

	return func(c *gin.Context) {
		if _, skip := skipPaths[c.Request.URL.Path]; skip || m.cache == nil || (cfg.Skip != nil && cfg.Skip(c)) {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		key := fmt.Sprintf("ratelimit:%s:%s", cfg.Name, cfg.KeyFunc(c))
		window, err := m.cache.Increment(ctx, key, cfg.WindowSize)
		if err != nil {
			m.logger.WarnContext(ctx, "rate limit counter unavailable, request let through",
				log.String("limit", cfg.Name),
				log.Error(err),
			)
			c.Next()
			return
		}

		resetAt := time.Now().Add(window.ResetIn)
		c.Header(HeaderRateLimit, strconv.FormatInt(cfg.MaxRequests, 10))
		c.Header(HeaderRateRemaining, strconv.FormatInt(max(cfg.MaxRequests-window.Count, 0), 10))
		c.Header(HeaderRateReset, strconv.FormatInt(resetAt.Unix(), 10))

		if window.Count <= cfg.MaxRequests {
			c.Next()
			return
		}

		retryAfter := int64(math.Ceil(window.ResetIn.Seconds()))
		c.Header("Retry-After", strconv.FormatInt(retryAfter, 10))
		m.logger.WarnContext(ctx, "rate limit exceeded",
			log.String("limit", cfg.Name),
			log.String("key", key),
			log.String("client_ip", c.ClientIP()),
			log.String("path", c.Request.URL.Path),
		)
		common.ResponseError(c, domain.ErrTooManyRequests.
			WithDetail("limit", cfg.MaxRequests).
			WithDetail("window", cfg.WindowSize.String()).
			WithDetail("retry_after_seconds", retryAfter))
	}
}

// APIRateLimits limits each authenticated actor across the admin API.
func (m *middlewares) APIRateLimits() gin.HandlerFunc {
	return m.RateLimit(RateLimitConfig{
		Name:        "api",
		WindowSize:  time.Minute,
		MaxRequests: 60,
		KeyFunc:     ActorKey,
	})
}

// AdminRateLimits limits the write endpoints that change roles, modules and
// memberships. Read requests and privileged users are not limited.
func (m *middlewares) AdminRateLimits() gin.HandlerFunc {
	return m.RateLimit(RateLimitConfig{
		Name:        "admin",
		WindowSize:  time.Minute,
		MaxRequests: 30,
		KeyFunc:     ActorKey,
		Skip: func(c *gin.Context) bool {
			if c.Request.Method == http.MethodGet || c.Request.Method == http.MethodHead {
				return true
			}
			user := common.GetUserFromCtx(c)
			return user != nil && user.Privileged
		},
	})
}

// ActorKey counts per authenticated user, falling back to the client IP.
func ActorKey(c *gin.Context) string {
	if userID := c.GetString(common.UserIDContextKey); userID != "" {
		return "user:" + userID
	}
	return "ip:" + c.ClientIP()
}
