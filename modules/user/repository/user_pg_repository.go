package repository

import (
	"context"
	"errors"

	"go-rbac-admin/database"
	"go-rbac-admin/domain"

	"gorm.io/gorm"
)

var userSearchColumns = []string{"users.name", "users.email"}

type UserRepository struct {
	db         *gorm.DB
	sqlHandler *database.SQLHandler[domain.User, domain.UserFilter]
	roles      *database.AssociationSync[domain.RoleUser]
}

func NewUserRepository(db *gorm.DB, observer database.SyncObserver) *UserRepository {
	return &UserRepository{
		db:         db,
		sqlHandler: database.NewSQLHandler[domain.User](db, applyFilter),
		roles:      database.NewUserRolesSync(observer),
	}
}

func applyFilter(qb *gorm.DB, filter *domain.UserFilter) *gorm.DB {
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
	if filter.Email != nil {
		qb = qb.Where("email = ?", *filter.Email)
	}
	if filter.Privileged != nil {
		qb = qb.Where("privileged = ?", *filter.Privileged)
	}
	if filter.SearchTerm != nil {
		qb = database.ApplySearch(qb, *filter.SearchTerm, userSearchColumns...)
	}
	if filter.IncludeDeleted == nil || !*filter.IncludeDeleted {
		qb = qb.Where("deleted_at = 0")
	}

	return qb
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	return translateWriteError(r.sqlHandler.Create(ctx, user))
}

// CreateWithRoles inserts the user and assigns roleIDs in one transaction.
func (r *UserRepository) CreateWithRoles(ctx context.Context, user *domain.User, roleIDs []string) error {
	return database.Transaction(ctx, r.db, func(tx *gorm.DB) error {
		if err := r.sqlHandler.Create(ctx, user, database.WithTx(tx)); err != nil {
			return translateWriteError(err)
		}
		_, err := r.roles.Sync(ctx, tx, user.ID, roleIDs)
		return err
	})
}

// FindByID returns the active user with userID.
func (r *UserRepository) FindByID(ctx context.Context, userID string, option *domain.FindOneOption) (*domain.User, error) {
	return r.sqlHandler.FindOne(ctx, &domain.UserFilter{ID: &userID}, option)
}

func (r *UserRepository) FindOne(ctx context.Context, filter *domain.UserFilter, option *domain.FindOneOption) (*domain.User, error) {
	return r.sqlHandler.FindOne(ctx, filter, option)
}

func (r *UserRepository) FindPage(ctx context.Context, filter *domain.UserFilter, option *domain.FindPageOption) ([]*domain.User, *domain.Pagination, error) {
	return r.sqlHandler.FindPage(ctx, filter, option)
}

// LoadRoles fills the active roles assigned to user.
func (r *UserRepository) LoadRoles(ctx context.Context, user *domain.User) error {
	user.Roles = []*domain.Role{}
	return r.db.WithContext(ctx).
		Joins("JOIN role_users ON role_users.role_id = roles.id AND role_users.deleted_at = 0").
		Where("role_users.user_id = ? AND roles.deleted_at = 0", user.ID).
		Order("roles.name").
		Find(&user.Roles).Error
}

func (r *UserRepository) UpdateFields(ctx context.Context, userID string, fields map[string]any) error {
	return translateWriteError(r.sqlHandler.UpdateFields(ctx, userID, fields))
}

// UpdateWithRoles saves the profile fields of user and makes roleIDs its
// exact role set under a lock on the user row.
func (r *UserRepository) UpdateWithRoles(ctx context.Context, user *domain.User, roleIDs []string) (*domain.SyncResult, error) {
	var result *domain.SyncResult
	err := database.Transaction(ctx, r.db, func(tx *gorm.DB) error {
		_, err := r.sqlHandler.FindOne(ctx, &domain.UserFilter{ID: &user.ID}, nil, database.WithTx(tx), database.WithLock())
		if errors.Is(err, domain.ErrRecordNotFound) {
			return domain.ErrUserNotFound.WithDetail("user_id", user.ID)
		}
		if err != nil {
			return err
		}

		err = r.sqlHandler.UpdateFields(ctx, user.ID, map[string]any{
			"name":  user.Name,
			"email": user.Email,
		}, database.WithTx(tx))
		if err != nil {
			return translateWriteError(err)
		}

		result, err = r.roles.Sync(ctx, tx, user.ID, roleIDs)
		return err
	})
	return result, err
}

// Delete soft-deletes the user and revokes every role assigned to it.
func (r *UserRepository) Delete(ctx context.Context, userID string) error {
	return database.Transaction(ctx, r.db, func(tx *gorm.DB) error {
		_, err := r.sqlHandler.FindOne(ctx, &domain.UserFilter{ID: &userID}, nil, database.WithTx(tx), database.WithLock())
		if errors.Is(err, domain.ErrRecordNotFound) {
			return domain.ErrUserNotFound.WithDetail("user_id", userID)
		}
		if err != nil {
			return err
		}
		if err := r.sqlHandler.DeleteByID(ctx, userID, database.WithTx(tx)); err != nil {
			return err
		}
		_, err = r.roles.RevokeAnchor(ctx, tx, userID)
		return err
	})
}

func translateWriteError(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return domain.ErrEmailAlreadyExists.WithWrap(err)
	}
	return err
}
