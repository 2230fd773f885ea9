package common

import (
	"strings"

	"go-rbac-admin/domain"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
)

const maxPerPage = 100

// GetUserFromCtx returns the current actor set by the authenticator, or nil
// for anonymous requests.
func GetUserFromCtx(c *gin.Context) *domain.User {
	var userFromCtx *domain.User
	if v, ok := c.Get(UserContextKey); ok {
		if user, ok := v.(*domain.User); ok {
			userFromCtx = user
		}
	}

	return userFromCtx
}

// BindPageOption reads page, per_page and sort from the query string. Sort
// keys are column names, optionally prefixed with "-" for descending order;
// keys outside sortable are dropped.
func BindPageOption(c *gin.Context, sortable ...string) (*domain.FindPageOption, error) {
	var option domain.FindPageOption
	if err := c.ShouldBindQuery(&option); err != nil {
		return nil, err
	}

	if option.PerPage > maxPerPage {
		option.PerPage = maxPerPage
	}
	option.Sort = lo.FilterMap(option.Sort, func(key string, _ int) (string, bool) {
		column, desc := strings.TrimPrefix(key, "-"), strings.HasPrefix(key, "-")
		if !lo.Contains(sortable, column) {
			return "", false
		}
		if desc {
			return column + " desc", true
		}
		return column + " asc", true
	})
	return &option, nil
}
