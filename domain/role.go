package domain

import (
	"context"
	"net/http"
	"strings"
)

/****************************
*        Role errors        *
****************************/
var (
	ErrRoleNotFound         = newError(http.StatusNotFound, "ROLE_NOT_FOUND", "Role not found")
	ErrRoleNameTaken        = newError(http.StatusConflict, "ROLE_NAME_TAKEN", "A role with this name already exists")
	ErrRoleValidationFailed = newError(http.StatusBadRequest, "ROLE_VALIDATION_FAILED", "Role validation failed")
	ErrRoleUserNotFound     = newError(http.StatusNotFound, "ROLE_USER_NOT_FOUND", "User is not assigned to this role")
)

/***************************************
*       Role entities and types       *
***************************************/

// Role groups users and grants them modules. ForAdmin is descriptive only.
type Role struct {
	SQLModel
	Name        string    `json:"name" gorm:"type:varchar(100);not null"`
	Description string    `json:"description" gorm:"type:varchar(255)"`
	ForAdmin    bool      `json:"for_admin" gorm:"not null;default:false"`
	Modules     []*Module `json:"modules,omitempty" gorm:"-"`
	Users       []*User   `json:"users,omitempty" gorm:"-"`
}

func (r *Role) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return ErrRoleValidationFailed.WithMessage("name must be not empty")
	}
	return nil
}

type RoleFilter struct {
	ID             *string  `json:"id" form:"id"`
	IDNe           *string  `json:"id_ne" form:"id_ne"`
	IDIn           []string `json:"id_in" form:"id_in"`
	Name           *string  `json:"name" form:"name"`
	ForAdmin       *bool    `json:"for_admin" form:"for_admin"`
	SearchTerm     *string  `json:"search_term" form:"search_term"`
	IncludeDeleted *bool    `json:"include_deleted" form:"include_deleted"`
}

/**********************************************
*       Role usecase interfaces and types      *
**********************************************/
type RoleUsecase interface {
	Create(ctx context.Context, req *RoleCreateRequest) (*Role, error)
	FindByID(ctx context.Context, roleID string) (*Role, error)
	FindPage(ctx context.Context, filter *RoleFilter, option *FindPageOption) ([]*Role, *Pagination, error)
	Update(ctx context.Context, roleID string, req *RoleUpdateRequest) (*Role, *SyncResult, error)
	Delete(ctx context.Context, roleID string) error
	RevokeUser(ctx context.Context, roleID, userID string) error
	RestoreUser(ctx context.Context, roleID, userID string) error
}

type RoleCreateRequest struct {
	Name        string   `json:"name" binding:"required,not_blank,max=100"`
	Description string   `json:"description" binding:"max=255"`
	ForAdmin    bool     `json:"for_admin"`
	ModuleIDs   []string `json:"module_ids" binding:"omitempty,dive,uuid"`
}

// RoleUpdateRequest replaces the role's scalar fields and its module set.
type RoleUpdateRequest struct {
	Name        string   `json:"name" binding:"required,not_blank,max=100"`
	Description string   `json:"description" binding:"max=255"`
	ForAdmin    bool     `json:"for_admin"`
	ModuleIDs   []string `json:"module_ids" binding:"omitempty,dive,uuid"`
}
