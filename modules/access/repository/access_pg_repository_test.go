package repository

import (
	"context"
	"testing"

	"go-rbac-admin/database/dbtest"
	"go-rbac-admin/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func softDelete(t *testing.T, db *gorm.DB, model any, where string, args ...any) {
	t.Helper()
	require.NoError(t, db.Model(model).Where(where, args...).Update("deleted_at", 1).Error)
}

func TestHasModuleAccess(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*gorm.DB, *AccessRepository, *domain.User, *domain.Role, *domain.Module) {
		db := dbtest.Open(t)
		user := dbtest.SeedUser(t, db, "alice", false)
		role := dbtest.SeedRole(t, db, "Editor")
		module := dbtest.SeedModule(t, db, domain.ModuleUsers)
		dbtest.Grant(t, db, role, module)
		dbtest.Assign(t, db, user, role)
		return db, NewAccessRepository(db), user, role, module
	}

	t.Run("granted through active role", func(t *testing.T) {
		_, repo, user, _, _ := setup(t)
		ok, err := repo.HasModuleAccess(ctx, user.ID, domain.ModuleUsers)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("name is case-sensitive", func(t *testing.T) {
		_, repo, user, _, _ := setup(t)
		ok, err := repo.HasModuleAccess(ctx, user.ID, "users")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("unknown module and user", func(t *testing.T) {
		_, repo, user, _, _ := setup(t)
		ok, err := repo.HasModuleAccess(ctx, user.ID, "Reports")
		require.NoError(t, err)
		assert.False(t, ok)

		ok, err = repo.HasModuleAccess(ctx, "nobody", domain.ModuleUsers)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("revoked role_users row", func(t *testing.T) {
		db, repo, user, role, _ := setup(t)
		softDelete(t, db, &domain.RoleUser{}, "user_id = ? AND role_id = ?", user.ID, role.ID)
		ok, err := repo.HasModuleAccess(ctx, user.ID, domain.ModuleUsers)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("revoked role_modules row", func(t *testing.T) {
		db, repo, user, role, module := setup(t)
		softDelete(t, db, &domain.RoleModule{}, "role_id = ? AND module_id = ?", role.ID, module.ID)
		ok, err := repo.HasModuleAccess(ctx, user.ID, domain.ModuleUsers)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("deleted role", func(t *testing.T) {
		db, repo, user, role, _ := setup(t)
		softDelete(t, db, &domain.Role{}, "id = ?", role.ID)
		ok, err := repo.HasModuleAccess(ctx, user.ID, domain.ModuleUsers)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("deleted module", func(t *testing.T) {
		db, repo, user, _, module := setup(t)
		softDelete(t, db, &domain.Module{}, "id = ?", module.ID)
		ok, err := repo.HasModuleAccess(ctx, user.ID, domain.ModuleUsers)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("second role still grants", func(t *testing.T) {
		db, repo, user, role, module := setup(t)
		other := dbtest.SeedRole(t, db, "Backup")
		dbtest.Grant(t, db, other, module)
		dbtest.Assign(t, db, user, other)
		softDelete(t, db, &domain.Role{}, "id = ?", role.ID)

		ok, err := repo.HasModuleAccess(ctx, user.ID, domain.ModuleUsers)
		require.NoError(t, err)
		assert.True(t, ok)
	})
}

func TestAccessibleModules(t *testing.T) {
	ctx := context.Background()
	db := dbtest.Open(t)
	repo := NewAccessRepository(db)

	user := dbtest.SeedUser(t, db, "alice", false)
	r1 := dbtest.SeedRole(t, db, "A")
	r2 := dbtest.SeedRole(t, db, "B")
	users := dbtest.SeedModule(t, db, domain.ModuleUsers)
	roles := dbtest.SeedModule(t, db, domain.ModuleRoles)
	dashboard := dbtest.SeedModule(t, db, domain.ModuleDashboard)
	dbtest.SeedModule(t, db, domain.ModulePrograms)

	dbtest.Grant(t, db, r1, users, roles)
	dbtest.Grant(t, db, r2, users, dashboard)
	dbtest.Assign(t, db, user, r1, r2)
	softDelete(t, db, &domain.RoleModule{}, "role_id = ? AND module_id = ?", r2.ID, dashboard.ID)

	modules, err := repo.AccessibleModules(ctx, user.ID)
	require.NoError(t, err)
	names := make([]string, 0, len(modules))
	for _, m := range modules {
		names = append(names, m.Name)
	}
	assert.Equal(t, []string{domain.ModuleRoles, domain.ModuleUsers}, names)

	all, err := repo.ActiveModules(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}
