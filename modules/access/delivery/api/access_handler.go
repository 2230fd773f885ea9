package api

import (
	"go-rbac-admin/common"
	"go-rbac-admin/domain"
	"go-rbac-admin/middleware"

	"github.com/gin-gonic/gin"
)

type AccessHandler struct {
	gate        domain.AccessGate
	middlewares middleware.Middlewares
}

func NewAccessHandler(gate domain.AccessGate, middlewares middleware.Middlewares) *AccessHandler {
	return &AccessHandler{
		gate:        gate,
		middlewares: middlewares,
	}
}

func (h *AccessHandler) RegisterRoutes(rg *gin.RouterGroup) {
	me := rg.Group("/me")

	me.Use(h.middlewares.Authenticator())
	me.Use(h.middlewares.APIRateLimits())

	me.GET("/modules", h.middlewares.RequireAccess(domain.ActionMyModules), h.MyModules)
}

// MyModules lists the modules the current actor can open. It feeds the
// navigation sidebar.
func (h *AccessHandler) MyModules(c *gin.Context) {
	modules, err := h.gate.AccessibleModules(c.Request.Context(), common.GetUserFromCtx(c))
	if err != nil {
		common.ResponseError(c, err)
		return
	}
	common.ResponseOK(c, modules, "Accessible modules")
}
