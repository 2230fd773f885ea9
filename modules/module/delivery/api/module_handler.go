package api

import (
	"go-rbac-admin/common"
	"go-rbac-admin/domain"
	"go-rbac-admin/middleware"

	"github.com/gin-gonic/gin"
)

type ModuleHandler struct {
	usecase     domain.ModuleUsecase
	middlewares middleware.Middlewares
}

func NewModuleHandler(usecase domain.ModuleUsecase, middlewares middleware.Middlewares) *ModuleHandler {
	return &ModuleHandler{
		usecase:     usecase,
		middlewares: middlewares,
	}
}

func (h *ModuleHandler) RegisterRoutes(rg *gin.RouterGroup) {
	module := rg.Group("/modules")

	module.Use(h.middlewares.Authenticator())
	module.Use(h.middlewares.APIRateLimits())
	module.Use(h.middlewares.AdminRateLimits())

	module.GET("", h.middlewares.RequireAccess(domain.ActionModulesList), h.List)
	module.POST("", h.middlewares.RequireAccess(domain.ActionModulesCreate), h.Create)
	module.GET("/:id", h.middlewares.RequireAccess(domain.ActionModulesView), h.GetByID)
	module.PUT("/:id", h.middlewares.RequireAccess(domain.ActionModulesUpdate), h.Update)
	module.DELETE("/:id", h.middlewares.RequireAccess(domain.ActionModulesDelete), h.Delete)
}

func (h *ModuleHandler) List(c *gin.Context) {
	var filter domain.ModuleFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		common.ResponseBindError(c, err)
		return
	}
	option, err := common.BindPageOption(c, "name", "created_at", "updated_at")
	if err != nil {
		common.ResponseBindError(c, err)
		return
	}

	modules, pagination, err := h.usecase.FindPage(c.Request.Context(), &filter, option)
	if err != nil {
		common.ResponseError(c, err)
		return
	}
	common.ResponsePage(c, modules, pagination, "Modules found")
}

func (h *ModuleHandler) Create(c *gin.Context) {
	var req domain.ModuleCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ResponseBindError(c, err)
		return
	}
	module, err := h.usecase.Create(c.Request.Context(), &req)
	if err != nil {
		common.ResponseError(c, err)
		return
	}
	common.ResponseCreated(c, module, "Module created successfully")
}

func (h *ModuleHandler) GetByID(c *gin.Context) {
	module, err := h.usecase.FindByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		common.ResponseError(c, err)
		return
	}
	common.ResponseOK(c, module, "Module found")
}

func (h *ModuleHandler) Update(c *gin.Context) {
	var req domain.ModuleUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ResponseBindError(c, err)
		return
	}
	module, result, err := h.usecase.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		common.ResponseError(c, err)
		return
	}
	common.ResponseOK(c, gin.H{"module": module, "sync": result}, "Module updated successfully")
}

func (h *ModuleHandler) Delete(c *gin.Context) {
	if err := h.usecase.Delete(c.Request.Context(), c.Param("id")); err != nil {
		common.ResponseError(c, err)
		return
	}
	common.ResponseOK(c, true, "Module deleted successfully")
}
