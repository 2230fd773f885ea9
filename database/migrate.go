package database

import (
	"go-rbac-admin/domain"

	"gorm.io/gorm"
)

// Names are unique among active rows only, so a soft-deleted role or module
// does not block reuse of its name. Both postgres and sqlite accept partial
// indexes.
var activeNameIndexes = []string{
	"CREATE UNIQUE INDEX IF NOT EXISTS idx_roles_name_active ON roles (name) WHERE deleted_at = 0",
	"CREATE UNIQUE INDEX IF NOT EXISTS idx_modules_name_active ON modules (name) WHERE deleted_at = 0",
}

func MigrateDB(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&domain.User{},
		&domain.Role{},
		&domain.Module{},
		&domain.RoleModule{},
		&domain.RoleUser{},
	); err != nil {
		return err
	}

	for _, stmt := range activeNameIndexes {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}
