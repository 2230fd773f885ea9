package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"go-rbac-admin/common"
	"go-rbac-admin/pkg/log"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
)

// CORSConfig lists the browser origins allowed to call the admin API. An
// empty list or "*" admits every origin.
type CORSConfig struct {
	AllowOrigins []string
	MaxAge       time.Duration
}

var (
	corsMethods = strings.Join([]string{
		http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions,
	}, ", ")
	corsRequestHeaders = strings.Join([]string{
		"Authorization", "Content-Type", "Accept", common.HeaderRequestID,
	}, ", ")
	// clients read their remaining quota and the request id for support tickets
	corsExposedHeaders = strings.Join([]string{
		common.HeaderRequestID, HeaderRateLimit, HeaderRateRemaining, HeaderRateReset, "Retry-After",
	}, ", ")
)

func DefaultCORSConfig() CORSConfig {
	return CORSConfig{AllowOrigins: []string{"*"}, MaxAge: 24 * time.Hour}
}

// CORS answers preflight requests and tags responses for allowed origins.
// A preflight from any other origin is refused with 403 so the browser never
// sends the real request.
func (m *middlewares) CORS(config ...CORSConfig) gin.HandlerFunc {
	cfg := DefaultCORSConfig()
	if len(config) > 0 {
		cfg = config[0]
	}
	anyOrigin := len(cfg.AllowOrigins) == 0 || lo.Contains(cfg.AllowOrigins, "*")
	allowed := lo.SliceToMap(cfg.AllowOrigins, func(o string) (string, struct{}) { return o, struct{}{} })
	maxAge := strconv.Itoa(int(cfg.MaxAge.Seconds()))

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		preflight := c.Request.Method == http.MethodOptions

		if origin == "" {
			if preflight {
				c.AbortWithStatus(http.StatusNoContent)
				return
			}
			c.Next()
			return
		}

		if _, ok := allowed[origin]; !ok && !anyOrigin {
			m.logger.WarnContext(c.Request.Context(), "CORS request from disallowed origin",
				log.String("origin", origin),
				log.String("path", c.Request.URL.Path),
			)
			if preflight {
				c.AbortWithStatus(http.StatusForbidden)
				return
			}
			c.Next()
			return
		}

		h := c.Writer.Header()
		if anyOrigin {
			h.Set("Access-Control-Allow-Origin", "*")
		} else {
			h.Set("Access-Control-Allow-Origin", origin)
			h.Add("Vary", "Origin")
		}
		h.Set("Access-Control-Expose-Headers", corsExposedHeaders)

		if preflight {
			h.Set("Access-Control-Allow-Methods", corsMethods)
			h.Set("Access-Control-Allow-Headers", corsRequestHeaders)
			if cfg.MaxAge > 0 {
				h.Set("Access-Control-Max-Age", maxAge)
			}
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
