package middleware

import (
	"errors"
	"net/http"

	"go-rbac-admin/common"
	"go-rbac-admin/domain"
	"go-rbac-admin/pkg/log"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
)

const defaultDeniedRedirect = "/dashboard"

// RequireAccess runs the route guard for action before the handler. Denied
// browsers are redirected with the denial message in ?error=, API clients get
// a 403 envelope. The handler never runs on denial.
func (m *middlewares) RequireAccess(action domain.ActionID) gin.HandlerFunc {
	m.mu.Lock()
	m.actions = append(m.actions, action)
	m.mu.Unlock()

	return func(c *gin.Context) {
		ctx := c.Request.Context()
		err := m.guard.Check(ctx, common.GetUserFromCtx(c), action)
		if err == nil {
			c.Request = c.Request.WithContext(log.ContextWithAction(ctx, string(action)))
			c.Next()
			return
		}

		if !errors.Is(err, domain.ErrPermissionDenied) {
			m.logger.ErrorContext(ctx, "route guard failed",
				log.Action(string(action)),
				log.Error(err),
			)
			common.ResponseError(c, err)
			return
		}

		if wantsHTML(c) {
			c.Redirect(http.StatusFound, common.WithQuery(m.deniedRedirect, "error", domain.ErrPermissionDenied.Error()))
			c.Abort()
			return
		}
		common.ResponseError(c, err)
	}
}

// RegisteredActions lists every action passed to RequireAccess so far, in
// registration order.
func (m *middlewares) RegisteredActions() []domain.ActionID {
	m.mu.Lock()
	defer m.mu.Unlock()
	return lo.Uniq(m.actions)
}

func wantsHTML(c *gin.Context) bool {
	if c.GetHeader("Accept") == "" {
		return false
	}
	return c.NegotiateFormat(gin.MIMEJSON, gin.MIMEHTML) == gin.MIMEHTML
}
