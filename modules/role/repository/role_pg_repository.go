package repository

import (
	"context"
	"errors"

	"go-rbac-admin/database"
	"go-rbac-admin/domain"

	"gorm.io/gorm"
)

var roleSearchColumns = []string{"roles.name", "roles.description"}

type RoleRepository struct {
	db         *gorm.DB
	sqlHandler *database.SQLHandler[domain.Role, domain.RoleFilter]
	modules    *database.AssociationSync[domain.RoleModule]
	users      *database.AssociationSync[domain.RoleUser]
}

func NewRoleRepository(db *gorm.DB, observer database.SyncObserver) *RoleRepository {
	return &RoleRepository{
		db:         db,
		sqlHandler: database.NewSQLHandler[domain.Role](db, applyFilter),
		modules:    database.NewRoleModulesSync(observer),
		users:      database.NewRoleUsersSync(observer),
	}
}

func applyFilter(qb *gorm.DB, filter *domain.RoleFilter) *gorm.DB {
	if filter == nil {
		return qb.Where("deleted_at = 0")
	}

	if filter.ID != nil {
		qb = qb.Where("id = ?", *filter.ID)
	}
	if filter.IDNe != nil {
		qb = qb.Where("id != ?", *filter.IDNe)
	}
	if len(filter.IDIn) > 0 {
		qb = qb.Where("id IN (?)", filter.IDIn)
	}
	if filter.Name != nil {
		qb = qb.Where("name = ?", *filter.Name)
	}
	if filter.ForAdmin != nil {
		qb = qb.Where("for_admin = ?", *filter.ForAdmin)
	}
	if filter.SearchTerm != nil {
		qb = database.ApplySearch(qb, *filter.SearchTerm, roleSearchColumns...)
	}
	if filter.IncludeDeleted == nil || !*filter.IncludeDeleted {
		qb = qb.Where("deleted_at = 0")
	}

	return qb
}

// CreateWithModules inserts the role and grants it moduleIDs in one
// transaction.
func (r *RoleRepository) CreateWithModules(ctx context.Context, role *domain.Role, moduleIDs []string) error {
	return database.Transaction(ctx, r.db, func(tx *gorm.DB) error {
		if err := r.sqlHandler.Create(ctx, role, database.WithTx(tx)); err != nil {
			return translateWriteError(err)
		}
		_, err := r.modules.Sync(ctx, tx, role.ID, moduleIDs)
		return err
	})
}

func (r *RoleRepository) FindByID(ctx context.Context, roleID string, option *domain.FindOneOption) (*domain.Role, error) {
	return r.sqlHandler.FindOne(ctx, &domain.RoleFilter{ID: &roleID}, option)
}

func (r *RoleRepository) FindOne(ctx context.Context, filter *domain.RoleFilter, option *domain.FindOneOption) (*domain.Role, error) {
	return r.sqlHandler.FindOne(ctx, filter, option)
}

func (r *RoleRepository) FindPage(ctx context.Context, filter *domain.RoleFilter, option *domain.FindPageOption) ([]*domain.Role, *domain.Pagination, error) {
	return r.sqlHandler.FindPage(ctx, filter, option)
}

// LoadRelations fills the active modules and users of role.
func (r *RoleRepository) LoadRelations(ctx context.Context, role *domain.Role) error {
	role.Modules = []*domain.Module{}
	err := r.db.WithContext(ctx).
		Joins("JOIN role_modules ON role_modules.module_id = modules.id AND role_modules.deleted_at = 0").
		Where("role_modules.role_id = ? AND modules.deleted_at = 0", role.ID).
		Order("modules.name").
		Find(&role.Modules).Error
	if err != nil {
		return err
	}

	role.Users = []*domain.User{}
	return r.db.WithContext(ctx).
		Joins("JOIN role_users ON role_users.user_id = users.id AND role_users.deleted_at = 0").
		Where("role_users.role_id = ? AND users.deleted_at = 0", role.ID).
		Order("users.name").
		Find(&role.Users).Error
}

// UpdateWithModules saves the scalar fields of role and makes moduleIDs its
// exact module set. The role row is locked for the duration so concurrent
// edits of one role serialize.
func (r *RoleRepository) UpdateWithModules(ctx context.Context, role *domain.Role, moduleIDs []string) (*domain.SyncResult, error) {
	var result *domain.SyncResult
	err := database.Transaction(ctx, r.db, func(tx *gorm.DB) error {
		if err := r.lockRole(ctx, tx, role.ID); err != nil {
			return err
		}

		err := r.sqlHandler.UpdateFields(ctx, role.ID, map[string]any{
			"name":        role.Name,
			"description": role.Description,
			"for_admin":   role.ForAdmin,
		}, database.WithTx(tx))
		if err != nil {
			return translateWriteError(err)
		}

		result, err = r.modules.Sync(ctx, tx, role.ID, moduleIDs)
		return err
	})
	return result, err
}

// Delete soft-deletes the role together with every module grant and user
// assignment it holds.
func (r *RoleRepository) Delete(ctx context.Context, roleID string) error {
	return database.Transaction(ctx, r.db, func(tx *gorm.DB) error {
		if err := r.lockRole(ctx, tx, roleID); err != nil {
			return err
		}
		if err := r.sqlHandler.DeleteByID(ctx, roleID, database.WithTx(tx)); err != nil {
			return err
		}
		if _, err := r.modules.RevokeAnchor(ctx, tx, roleID); err != nil {
			return err
		}
		_, err := r.users.RevokeAnchor(ctx, tx, roleID)
		return err
	})
}

// RevokeUserRole soft-deletes the assignment of roleID to userID.
func (r *RoleRepository) RevokeUserRole(ctx context.Context, roleID, userID string) error {
	return r.setUserRole(ctx, roleID, userID, false)
}

// RestoreUserRole re-activates a previously revoked assignment. The role must
// still be active.
func (r *RoleRepository) RestoreUserRole(ctx context.Context, roleID, userID string) error {
	return r.setUserRole(ctx, roleID, userID, true)
}

func (r *RoleRepository) setUserRole(ctx context.Context, roleID, userID string, active bool) error {
	return database.Transaction(ctx, r.db, func(tx *gorm.DB) error {
		if err := r.lockRole(ctx, tx, roleID); err != nil {
			return err
		}
		err := r.users.SetPair(ctx, tx, roleID, userID, active)
		if errors.Is(err, domain.ErrRecordNotFound) {
			return domain.ErrRoleUserNotFound.
				WithDetail("role_id", roleID).
				WithDetail("user_id", userID)
		}
		return err
	})
}

// lockRole takes the row lock on an active role, failing with ErrRoleNotFound
// when it does not exist.
func (r *RoleRepository) lockRole(ctx context.Context, tx *gorm.DB, roleID string) error {
	_, err := r.sqlHandler.FindOne(ctx, &domain.RoleFilter{ID: &roleID}, nil, database.WithTx(tx), database.WithLock())
	if errors.Is(err, domain.ErrRecordNotFound) {
		return domain.ErrRoleNotFound.WithDetail("role_id", roleID)
	}
	return err
}

func translateWriteError(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return domain.ErrRoleNameTaken.WithWrap(err)
	}
	return err
}
