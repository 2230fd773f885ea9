package domain

import (
	"context"
	"net/http"
	"strings"
)

/****************************
*        User errors        *
****************************/
var (
	ErrUserNotFound         = newError(http.StatusNotFound, "USER_NOT_FOUND", "User not found")
	ErrEmailAlreadyExists   = newError(http.StatusBadRequest, "EMAIL_ALREADY_EXISTS", "User with this email already exists")
	ErrUserCreationFailed   = newError(http.StatusInternalServerError, "USER_CREATION_FAILED", "Failed to create user")
	ErrUserValidationFailed = newError(http.StatusBadRequest, "USER_VALIDATION_FAILED", "User validation failed")
	ErrPasswordHashFailed   = newError(http.StatusInternalServerError, "PASSWORD_HASH_FAILED", "Failed to hash password")
	ErrCannotDeleteSelf     = newError(http.StatusBadRequest, "CANNOT_DELETE_SELF", "You cannot delete your own account")
	ErrInvalidToken         = newError(http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token")
)

/***************************************
*       User entities and types       *
***************************************/

// User is an authenticated principal. Privileged users bypass every module
// check.
type User struct {
	SQLModel
	Name       string  `json:"name" gorm:"type:varchar(100);not null"`
	Email      string  `json:"email" gorm:"type:varchar(100);unique;not null"`
	Password   string  `json:"-" gorm:"type:varchar(60);not null"`
	Privileged bool    `json:"privileged" gorm:"not null;default:false"`
	Roles      []*Role `json:"roles,omitempty" gorm:"-"`
}

func (u *User) Validate() error {
	if strings.TrimSpace(u.Email) == "" {
		return ErrUserValidationFailed.WithMessage("email must be not empty")
	}
	if strings.TrimSpace(u.Name) == "" {
		return ErrUserValidationFailed.WithMessage("name must be not empty")
	}
	return nil
}

type UserFilter struct {
	ID             *string  `json:"id" form:"id"`
	IDNe           *string  `json:"id_ne" form:"id_ne"`
	IDIn           []string `json:"id_in" form:"id_in"`
	Email          *string  `json:"email" form:"email"`
	Privileged     *bool    `json:"privileged" form:"privileged"`
	SearchTerm     *string  `json:"search_term" form:"search_term"`
	IncludeDeleted *bool    `json:"include_deleted" form:"include_deleted"`
}

/**********************************************
*       User usecase interfaces and types      *
**********************************************/
type UserUsecase interface {
	Create(ctx context.Context, req *UserCreateRequest) (*User, error)
	FindByID(ctx context.Context, userID string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindPage(ctx context.Context, filter *UserFilter, option *FindPageOption) ([]*User, *Pagination, error)
	Update(ctx context.Context, userID string, req *UserUpdateRequest) (*User, *SyncResult, error)
	// Delete soft-deletes userID on behalf of actorID, who may not be the
	// same user.
	Delete(ctx context.Context, actorID, userID string) error
}

type UserCreateRequest struct {
	Name     string   `json:"name" binding:"required,not_blank,max=100"`
	Email    string   `json:"email" binding:"required,email"`
	Password string   `json:"password" binding:"required,min=8"`
	RoleIDs  []string `json:"role_ids" binding:"omitempty,dive,uuid"`
}

// UserUpdateRequest replaces the user's profile fields and role set.
type UserUpdateRequest struct {
	Name    string   `json:"name" binding:"required,not_blank,max=100"`
	Email   string   `json:"email" binding:"required,email"`
	RoleIDs []string `json:"role_ids" binding:"omitempty,dive,uuid"`
}
