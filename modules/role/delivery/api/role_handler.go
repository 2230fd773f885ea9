package api

import (
	"go-rbac-admin/common"
	"go-rbac-admin/domain"
	"go-rbac-admin/middleware"

	"github.com/gin-gonic/gin"
)

type RoleHandler struct {
	usecase     domain.RoleUsecase
	middlewares middleware.Middlewares
}

func NewRoleHandler(usecase domain.RoleUsecase, middlewares middleware.Middlewares) *RoleHandler {
	return &RoleHandler{
		usecase:     usecase,
		middlewares: middlewares,
	}
}

func (h *RoleHandler) RegisterRoutes(rg *gin.RouterGroup) {
	role := rg.Group("/roles")

	role.Use(h.middlewares.Authenticator())
	role.Use(h.middlewares.APIRateLimits())
	role.Use(h.middlewares.AdminRateLimits())

	role.GET("", h.middlewares.RequireAccess(domain.ActionRolesList), h.List)
	role.POST("", h.middlewares.RequireAccess(domain.ActionRolesCreate), h.Create)
	role.GET("/:id", h.middlewares.RequireAccess(domain.ActionRolesView), h.GetByID)
	role.PUT("/:id", h.middlewares.RequireAccess(domain.ActionRolesUpdate), h.Update)
	role.DELETE("/:id", h.middlewares.RequireAccess(domain.ActionRolesDelete), h.Delete)
	role.POST("/:id/users/:userId/revoke", h.middlewares.RequireAccess(domain.ActionRolesRevokeUser), h.RevokeUser)
	role.POST("/:id/users/:userId/restore", h.middlewares.RequireAccess(domain.ActionRolesRestore), h.RestoreUser)
}

func (h *RoleHandler) List(c *gin.Context) {
	var filter domain.RoleFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		common.ResponseBindError(c, err)
		return
	}
	option, err := common.BindPageOption(c, "name", "created_at", "updated_at")
	if err != nil {
		common.ResponseBindError(c, err)
		return
	}

	roles, pagination, err := h.usecase.FindPage(c.Request.Context(), &filter, option)
	if err != nil {
		common.ResponseError(c, err)
		return
	}
	common.ResponsePage(c, roles, pagination, "Roles found")
}

func (h *RoleHandler) Create(c *gin.Context) {
	var req domain.RoleCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ResponseBindError(c, err)
		return
	}
	role, err := h.usecase.Create(c.Request.Context(), &req)
	if err != nil {
		common.ResponseError(c, err)
		return
	}
	common.ResponseCreated(c, role, "Role created successfully")
}

func (h *RoleHandler) GetByID(c *gin.Context) {
	role, err := h.usecase.FindByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		common.ResponseError(c, err)
		return
	}
	common.ResponseOK(c, role, "Role found")
}

func (h *RoleHandler) Update(c *gin.Context) {
	var req domain.RoleUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ResponseBindError(c, err)
		return
	}
	role, result, err := h.usecase.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		common.ResponseError(c, err)
		return
	}
	common.ResponseOK(c, gin.H{"role": role, "sync": result}, "Role updated successfully")
}

func (h *RoleHandler) Delete(c *gin.Context) {
	if err := h.usecase.Delete(c.Request.Context(), c.Param("id")); err != nil {
		common.ResponseError(c, err)
		return
	}
	common.ResponseOK(c, true, "Role deleted successfully")
}

func (h *RoleHandler) RevokeUser(c *gin.Context) {
	if err := h.usecase.RevokeUser(c.Request.Context(), c.Param("id"), c.Param("userId")); err != nil {
		common.ResponseError(c, err)
		return
	}
	common.ResponseOK(c, true, "Role revoked from user")
}

func (h *RoleHandler) RestoreUser(c *gin.Context) {
	if err := h.usecase.RestoreUser(c.Request.Context(), c.Param("id"), c.Param("userId")); err != nil {
		common.ResponseError(c, err)
		return
	}
	common.ResponseOK(c, true, "Role restored to user")
}
