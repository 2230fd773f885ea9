package api

import (
	"go-rbac-admin/common"
	"go-rbac-admin/domain"
	"go-rbac-admin/middleware"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	usecase     domain.UserUsecase
	middlewares middleware.Middlewares
}

func NewUserHandler(usecase domain.UserUsecase, middlewares middleware.Middlewares) *UserHandler {
	return &UserHandler{
		usecase:     usecase,
		middlewares: middlewares,
	}
}

func (h *UserHandler) RegisterRoutes(rg *gin.RouterGroup) {
	user := rg.Group("/users")

	// Apply authentication and rate limiting for user operations
	user.Use(h.middlewares.Authenticator())
	user.Use(h.middlewares.APIRateLimits())
	user.Use(h.middlewares.AdminRateLimits())

	user.GET("", h.middlewares.RequireAccess(domain.ActionUsersList), h.List)
	user.POST("", h.middlewares.RequireAccess(domain.ActionUsersCreate), h.Create)
	user.GET("/:id", h.middlewares.RequireAccess(domain.ActionUsersView), h.GetByID)
	user.PUT("/:id", h.middlewares.RequireAccess(domain.ActionUsersUpdate), h.Update)
	user.DELETE("/:id", h.middlewares.RequireAccess(domain.ActionUsersDelete), h.Delete)
}

func (h *UserHandler) List(c *gin.Context) {
	var filter domain.UserFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		common.ResponseBindError(c, err)
		return
	}
	option, err := common.BindPageOption(c, "name", "email", "created_at")
	if err != nil {
		common.ResponseBindError(c, err)
		return
	}

	users, pagination, err := h.usecase.FindPage(c.Request.Context(), &filter, option)
	if err != nil {
		common.ResponseError(c, err)
		return
	}
	common.ResponsePage(c, users, pagination, "Users found")
}

func (h *UserHandler) Create(c *gin.Context) {
	var req domain.UserCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ResponseBindError(c, err)
		return
	}
	user, err := h.usecase.Create(c.Request.Context(), &req)
	if err != nil {
		common.ResponseError(c, err)
		return
	}
	common.ResponseCreated(c, user, "User created successfully")
}

func (h *UserHandler) GetByID(c *gin.Context) {
	user, err := h.usecase.FindByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		common.ResponseError(c, err)
		return
	}
	common.ResponseOK(c, user, "User found")
}

func (h *UserHandler) Update(c *gin.Context) {
	var req domain.UserUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ResponseBindError(c, err)
		return
	}
	user, result, err := h.usecase.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		common.ResponseError(c, err)
		return
	}
	common.ResponseOK(c, gin.H{"user": user, "sync": result}, "User updated successfully")
}

func (h *UserHandler) Delete(c *gin.Context) {
	actor := common.GetUserFromCtx(c)
	if err := h.usecase.Delete(c.Request.Context(), actor.ID, c.Param("id")); err != nil {
		common.ResponseError(c, err)
		return
	}
	common.ResponseOK(c, true, "User deleted successfully")
}
