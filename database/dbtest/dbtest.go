// Package dbtest opens migrated in-memory databases for tests.
package dbtest

import (
	"path/filepath"
	"testing"

	"go-rbac-admin/database"
	"go-rbac-admin/domain"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open returns a fresh migrated sqlite database that lives as long as the
// test.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// one connection keeps the in-memory database alive and serializes writers
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.MigrateDB(db))
	return db
}

// OpenConcurrent returns a migrated file-backed database that several
// connections can use at once. Transactions take the write lock when they
// begin, and writers wait for each other instead of failing with SQLITE_BUSY.
func OpenConcurrent(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "rbac.db") +
		"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(10000)&_txlock=immediate"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(8)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.MigrateDB(db))
	return db
}

func SeedUser(t testing.TB, db *gorm.DB, name string, privileged bool) *domain.User {
	t.Helper()
	u := &domain.User{Name: name, Email: name + "@example.com", Password: "x", Privileged: privileged}
	require.NoError(t, db.Create(u).Error)
	return u
}

func SeedRole(t testing.TB, db *gorm.DB, name string) *domain.Role {
	t.Helper()
	r := &domain.Role{Name: name}
	require.NoError(t, db.Create(r).Error)
	return r
}

func SeedModule(t testing.TB, db *gorm.DB, name string) *domain.Module {
	t.Helper()
	m := &domain.Module{Name: name}
	require.NoError(t, db.Create(m).Error)
	return m
}

func Grant(t testing.TB, db *gorm.DB, role *domain.Role, modules ...*domain.Module) {
	t.Helper()
	for _, m := range modules {
		require.NoError(t, db.Create(&domain.RoleModule{RoleID: role.ID, ModuleID: m.ID}).Error)
	}
}

func Assign(t testing.TB, db *gorm.DB, user *domain.User, roles ...*domain.Role) {
	t.Helper()
	for _, r := range roles {
		require.NoError(t, db.Create(&domain.RoleUser{UserID: user.ID, RoleID: r.ID}).Error)
	}
}
