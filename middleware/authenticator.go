package middleware

import (
	"errors"
	"strings"

	"go-rbac-admin/common"
	"go-rbac-admin/domain"
	"go-rbac-admin/pkg/log"

	"github.com/gin-gonic/gin"
)

const bearerPrefix = "Bearer "

var errMissingBearer = errors.New("missing bearer token")

func bearerToken(c *gin.Context) (string, error) {
	header := c.GetHeader("Authorization")
	if len(header) <= len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return "", errMissingBearer
	}
	return strings.TrimSpace(header[len(bearerPrefix):]), nil
}

// Authenticator resolves the bearer token to an active user and stores it as
// the current actor. A token whose user was deleted is rejected like an
// invalid one.
func (m *middlewares) Authenticator() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := bearerToken(c)
		if err == nil {
			var claims *common.AccessClaims
			if claims, err = m.jwtProvider.Verify(token); err == nil {
				m.authenticate(c, claims.Sub)
				return
			}
		}
		common.ResponseError(c, domain.ErrInvalidToken.WithWrap(err))
	}
}

func (m *middlewares) authenticate(c *gin.Context, userID string) {
	user, err := m.userRepo.FindByID(c.Request.Context(), userID, nil)
	switch {
	case common.IsRecordNotFound(err):
		common.ResponseError(c, domain.ErrInvalidToken.WithReason("user no longer exists").WithDetail("user_id", userID))
		return
	case err != nil:
		common.ResponseError(c, err)
		return
	}

	c.Set(common.UserContextKey, user)
	c.Set(common.UserIDContextKey, user.ID)
	c.Request = c.Request.WithContext(log.ContextWithActor(c.Request.Context(), user.ID))
	c.Next()
}
