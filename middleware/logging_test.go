package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"go-rbac-admin/pkg/log"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type accessLine struct {
	level  string
	fields map[string]log.Field
}

type accessLog struct{ lines []accessLine }

func (a *accessLog) add(level string, fields []log.Field) {
	byKey := map[string]log.Field{}
	for _, f := range fields {
		byKey[f.Key] = f
	}
	a.lines = append(a.lines, accessLine{level: level, fields: byKey})
}

func (a *accessLog) Debug(string, ...log.Field) {}
func (a *accessLog) Info(string, ...log.Field)  {}
func (a *accessLog) Warn(string, ...log.Field)  {}
func (a *accessLog) Error(string, ...log.Field) {}
func (a *accessLog) Fatal(string, ...log.Field) {}
func (a *accessLog) DebugContext(_ context.Context, _ string, f ...log.Field) {
	a.add("debug", f)
}
func (a *accessLog) InfoContext(_ context.Context, _ string, f ...log.Field) { a.add("info", f) }
func (a *accessLog) WarnContext(_ context.Context, _ string, f ...log.Field) { a.add("warn", f) }
func (a *accessLog) ErrorContext(_ context.Context, _ string, f ...log.Field) {
	a.add("error", f)
}
func (a *accessLog) Sync() error { return nil }

func TestLoggingMiddleware(t *testing.T) {
	rec := &accessLog{}
	mw := NewMiddlewares(Dependencies{Logger: rec})

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(mw.LoggingMiddleware(LoggerConfig{SkipPaths: []string{"/health"}}))
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/roles/:id", func(c *gin.Context) { c.String(http.StatusOK, "role") })
	r.GET("/broken", func(c *gin.Context) {
		_ = c.Error(assert.AnError)
		c.Status(http.StatusInternalServerError)
	})

	get := func(path string) {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	t.Run("logs the matched route and outcome", func(t *testing.T) {
		rec.lines = nil
		get("/roles/r1")

		require.Len(t, rec.lines, 1)
		line := rec.lines[0]
		assert.Equal(t, "info", line.level)
		assert.Equal(t, "/roles/:id", line.fields["route"].String)
		assert.Equal(t, "/roles/r1", line.fields["path"].String)
		assert.EqualValues(t, http.StatusOK, line.fields["status_code"].Integer)
		assert.EqualValues(t, len("role"), line.fields["bytes"].Integer)
		assert.NotContains(t, line.fields, "error")
	})

	t.Run("client errors are warnings", func(t *testing.T) {
		rec.lines = nil
		get("/missing")

		require.Len(t, rec.lines, 1)
		assert.Equal(t, "warn", rec.lines[0].level)
		assert.EqualValues(t, http.StatusNotFound, rec.lines[0].fields["status_code"].Integer)
	})

	t.Run("server faults carry the handler errors", func(t *testing.T) {
		rec.lines = nil
		get("/broken")

		require.Len(t, rec.lines, 1)
		assert.Equal(t, "error", rec.lines[0].level)
		assert.Contains(t, rec.lines[0].fields["error"].String, assert.AnError.Error())
	})

	t.Run("skipped paths are not logged", func(t *testing.T) {
		rec.lines = nil
		get("/health")
		assert.Empty(t, rec.lines)
	})
}
