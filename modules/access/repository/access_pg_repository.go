package repository

import (
	"context"
	"go-rbac-admin/domain"

	"gorm.io/gorm"
)

// AccessRepository resolves module membership through active roles. Every
// query walks role_users -> roles -> role_modules -> modules and ignores any
// soft-deleted row on the way.
type AccessRepository struct {
	db *gorm.DB
}

func NewAccessRepository(db *gorm.DB) *AccessRepository {
	return &AccessRepository{db: db}
}

func (r *AccessRepository) grantedModules(ctx context.Context, userID string) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("role_users").
		Joins("JOIN roles ON roles.id = role_users.role_id AND roles.deleted_at = 0").
		Joins("JOIN role_modules ON role_modules.role_id = roles.id AND role_modules.deleted_at = 0").
		Joins("JOIN modules ON modules.id = role_modules.module_id AND modules.deleted_at = 0").
		Where("role_users.user_id = ? AND role_users.deleted_at = 0", userID)
}

// HasModuleAccess reports whether any active role of the user grants the
// named module. Unknown users and modules yield false.
func (r *AccessRepository) HasModuleAccess(ctx context.Context, userID, moduleName string) (bool, error) {
	var hits []string
	err := r.grantedModules(ctx, userID).
		Where("modules.name = ?", moduleName).
		Limit(1).
		Pluck("modules.id", &hits).Error
	if err != nil {
		return false, err
	}
	return len(hits) > 0, nil
}

// AccessibleModules lists the distinct active modules the user reaches, by
// name.
func (r *AccessRepository) AccessibleModules(ctx context.Context, userID string) ([]*domain.Module, error) {
	granted := r.grantedModules(ctx, userID).Select("modules.id")

	modules := []*domain.Module{}
	err := r.db.WithContext(ctx).
		Where("deleted_at = 0 AND id IN (?)", granted).
		Order("name").
		Find(&modules).Error
	return modules, err
}

// ActiveModules lists every active module, by name.
func (r *AccessRepository) ActiveModules(ctx context.Context) ([]*domain.Module, error) {
	modules := []*domain.Module{}
	err := r.db.WithContext(ctx).
		Where("deleted_at = 0").
		Order("name").
		Find(&modules).Error
	return modules, err
}
