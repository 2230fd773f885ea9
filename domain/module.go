package domain

import (
	"context"
	"net/http"
	"strings"
)

/****************************
*       Module errors       *
****************************/
var (
	ErrModuleNotFound         = newError(http.StatusNotFound, "MODULE_NOT_FOUND", "Module not found")
	ErrModuleNameTaken        = newError(http.StatusConflict, "MODULE_NAME_TAKEN", "A module with this name already exists")
	ErrModuleValidationFailed = newError(http.StatusBadRequest, "MODULE_VALIDATION_FAILED", "Module validation failed")
)

/***************************************
*      Module entities and types      *
***************************************/

// Well-known module names seeded at startup. The name is the capability
// identifier the route guard matches against.
const (
	ModuleDashboard = "Dashboard"
	ModulePrograms  = "Programs"
	ModuleUsers     = "Users"
	ModuleRoles     = "Roles"
	ModuleModules   = "Modules"
)

// Module is a named area of the application that roles grant access to.
type Module struct {
	SQLModel
	Name        string  `json:"name" gorm:"type:varchar(100);not null"`
	Description string  `json:"description" gorm:"type:varchar(255)"`
	Roles       []*Role `json:"roles,omitempty" gorm:"-"`
	Users       []*User `json:"users,omitempty" gorm:"-"`
}

func (m *Module) Validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return ErrModuleValidationFailed.WithMessage("name must be not empty")
	}
	return nil
}

type ModuleFilter struct {
	ID             *string  `json:"id" form:"id"`
	IDNe           *string  `json:"id_ne" form:"id_ne"`
	IDIn           []string `json:"id_in" form:"id_in"`
	Name           *string  `json:"name" form:"name"`
	NameIn         []string `json:"name_in" form:"name_in"`
	SearchTerm     *string  `json:"search_term" form:"search_term"`
	IncludeDeleted *bool    `json:"include_deleted" form:"include_deleted"`
}

/************************************************
*      Module usecase interfaces and types      *
************************************************/
type ModuleUsecase interface {
	Create(ctx context.Context, req *ModuleCreateRequest) (*Module, error)
	FindByID(ctx context.Context, moduleID string) (*Module, error)
	FindPage(ctx context.Context, filter *ModuleFilter, option *FindPageOption) ([]*Module, *Pagination, error)
	Update(ctx context.Context, moduleID string, req *ModuleUpdateRequest) (*Module, *SyncResult, error)
	Delete(ctx context.Context, moduleID string) error
}

type ModuleCreateRequest struct {
	Name        string   `json:"name" binding:"required,not_blank,no_pad,max=100"`
	Description string   `json:"description" binding:"max=255"`
	RoleIDs     []string `json:"role_ids" binding:"omitempty,dive,uuid"`
}

// ModuleUpdateRequest replaces the module's scalar fields and its role set.
type ModuleUpdateRequest struct {
	Name        string   `json:"name" binding:"required,not_blank,no_pad,max=100"`
	Description string   `json:"description" binding:"max=255"`
	RoleIDs     []string `json:"role_ids" binding:"omitempty,dive,uuid"`
}
