package middleware

import (
	"time"

	"go-rbac-admin/common"
	"go-rbac-admin/pkg/log"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

type LoggerConfig struct {
	// SkipPaths are never logged, e.g. health checks and metrics scrapes.
	SkipPaths []string
}

// LoggingMiddleware writes one access log line per request once the handler
// chain is done. The line goes through the context-aware logger, so it
// carries the request id, the authenticated actor and the guarded action
// set further down the chain.
func (m *middlewares) LoggingMiddleware(config ...LoggerConfig) gin.HandlerFunc {
	var conf LoggerConfig
	if len(config) > 0 {
		conf = config[0]
	}
	skip := lo.SliceToMap(conf.SkipPaths, func(p string) (string, struct{}) { return p, struct{}{} })

	return func(c *gin.Context) {
		if _, ok := skip[c.Request.URL.Path]; ok {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := []log.Field{
			log.String("method", c.Request.Method),
			log.String("route", c.FullPath()),
			log.String("path", c.Request.URL.Path),
			log.Int("status_code", status),
			log.Duration("latency", time.Since(start)),
			log.Int("bytes", max(c.Writer.Size(), 0)),
			log.String("client_ip", c.ClientIP()),
			log.String("user_agent", c.Request.UserAgent()),
		}
		if errs := c.Errors.ByType(gin.ErrorTypeAny); len(errs) > 0 {
			fields = append(fields, log.String("error", errs.String()))
		}

		ctx := c.Request.Context()
		switch {
		case status >= 500:
			m.logger.ErrorContext(ctx, "HTTP request", fields...)
		case status >= 400:
			m.logger.WarnContext(ctx, "HTTP request", fields...)
		default:
			m.logger.InfoContext(ctx, "HTTP request", fields...)
		}
	}
}

// RequestIDMiddleware makes sure every request carries an X-Request-ID, echoes
// it on the response and exposes it to context-aware logging.
func (m *middlewares) RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(common.HeaderRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
			c.Request.Header.Set(common.HeaderRequestID, requestID)
		}
		c.Header(common.HeaderRequestID, requestID)
		c.Request = c.Request.WithContext(log.ContextWithRequestID(c.Request.Context(), requestID))
		c.Next()
	}
}
