package repository

import (
	"context"
	"errors"

	"go-rbac-admin/database"
	"go-rbac-admin/domain"

	"gorm.io/gorm"
)

var moduleSearchColumns = []string{"modules.name", "modules.description"}

type ModuleRepository struct {
	db         *gorm.DB
	sqlHandler *database.SQLHandler[domain.Module, domain.ModuleFilter]
	roles      *database.AssociationSync[domain.RoleModule]
}

func NewModuleRepository(db *gorm.DB, observer database.SyncObserver) *ModuleRepository {
	return &ModuleRepository{
		db:         db,
		sqlHandler: database.NewSQLHandler[domain.Module](db, applyFilter),
		roles:      database.NewModuleRolesSync(observer),
	}
}

func applyFilter(qb *gorm.DB, filter *domain.ModuleFilter) *gorm.DB {
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
	if len(filter.NameIn) > 0 {
		qb = qb.Where("name IN (?)", filter.NameIn)
	}
	if filter.SearchTerm != nil {
		qb = database.ApplySearch(qb, *filter.SearchTerm, moduleSearchColumns...)
	}
	if filter.IncludeDeleted == nil || !*filter.IncludeDeleted {
		qb = qb.Where("deleted_at = 0")
	}

	return qb
}

func (r *ModuleRepository) Create(ctx context.Context, module *domain.Module) error {
	return translateWriteError(r.sqlHandler.Create(ctx, module))
}

// CreateWithRoles inserts the module and grants it to roleIDs in one
// transaction.
func (r *ModuleRepository) CreateWithRoles(ctx context.Context, module *domain.Module, roleIDs []string) error {
	return database.Transaction(ctx, r.db, func(tx *gorm.DB) error {
		if err := r.sqlHandler.Create(ctx, module, database.WithTx(tx)); err != nil {
			return translateWriteError(err)
		}
		_, err := r.roles.Sync(ctx, tx, module.ID, roleIDs)
		return err
	})
}

func (r *ModuleRepository) FindByID(ctx context.Context, moduleID string, option *domain.FindOneOption) (*domain.Module, error) {
	return r.sqlHandler.FindOne(ctx, &domain.ModuleFilter{ID: &moduleID}, option)
}

func (r *ModuleRepository) FindOne(ctx context.Context, filter *domain.ModuleFilter, option *domain.FindOneOption) (*domain.Module, error) {
	return r.sqlHandler.FindOne(ctx, filter, option)
}

func (r *ModuleRepository) FindPage(ctx context.Context, filter *domain.ModuleFilter, option *domain.FindPageOption) ([]*domain.Module, *domain.Pagination, error) {
	return r.sqlHandler.FindPage(ctx, filter, option)
}

// Restore clears the deletion marker of a soft-deleted module.
func (r *ModuleRepository) Restore(ctx context.Context, moduleID string) error {
	return r.sqlHandler.RestoreByID(ctx, moduleID)
}

// LoadRelations fills the active roles granted module and the distinct active
// users reaching it through those roles.
func (r *ModuleRepository) LoadRelations(ctx context.Context, module *domain.Module) error {
	module.Roles = []*domain.Role{}
	err := r.db.WithContext(ctx).
		Joins("JOIN role_modules ON role_modules.role_id = roles.id AND role_modules.deleted_at = 0").
		Where("role_modules.module_id = ? AND roles.deleted_at = 0", module.ID).
		Order("roles.name").
		Find(&module.Roles).Error
	if err != nil {
		return err
	}

	reachable := r.db.
		Table("role_users").
		Select("role_users.user_id").
		Joins("JOIN roles ON roles.id = role_users.role_id AND roles.deleted_at = 0").
		Joins("JOIN role_modules ON role_modules.role_id = roles.id AND role_modules.deleted_at = 0").
		Where("role_users.deleted_at = 0 AND role_modules.module_id = ?", module.ID)

	module.Users = []*domain.User{}
	return r.db.WithContext(ctx).
		Where("id IN (?) AND deleted_at = 0", reachable).
		Order("name").
		Find(&module.Users).Error
}

// UpdateWithRoles saves the scalar fields of module and makes roleIDs its
// exact role set under a lock on the module row.
func (r *ModuleRepository) UpdateWithRoles(ctx context.Context, module *domain.Module, roleIDs []string) (*domain.SyncResult, error) {
	var result *domain.SyncResult
	err := database.Transaction(ctx, r.db, func(tx *gorm.DB) error {
		if err := r.lockModule(ctx, tx, module.ID); err != nil {
			return err
		}

		err := r.sqlHandler.UpdateFields(ctx, module.ID, map[string]any{
			"name":        module.Name,
			"description": module.Description,
		}, database.WithTx(tx))
		if err != nil {
			return translateWriteError(err)
		}

		result, err = r.roles.Sync(ctx, tx, module.ID, roleIDs)
		return err
	})
	return result, err
}

// Delete soft-deletes the module. Its role_modules rows stay active, so
// restoring the module gives its roles access again.
func (r *ModuleRepository) Delete(ctx context.Context, moduleID string) error {
	return database.Transaction(ctx, r.db, func(tx *gorm.DB) error {
		if err := r.lockModule(ctx, tx, moduleID); err != nil {
			return err
		}
		return r.sqlHandler.DeleteByID(ctx, moduleID, database.WithTx(tx))
	})
}

func (r *ModuleRepository) lockModule(ctx context.Context, tx *gorm.DB, moduleID string) error {
	_, err := r.sqlHandler.FindOne(ctx, &domain.ModuleFilter{ID: &moduleID}, nil, database.WithTx(tx), database.WithLock())
	if errors.Is(err, domain.ErrRecordNotFound) {
		return domain.ErrModuleNotFound.WithDetail("module_id", moduleID)
	}
	return err
}

func translateWriteError(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return domain.ErrModuleNameTaken.WithWrap(err)
	}
	return err
}
