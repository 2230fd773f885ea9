package bootstrap

import (
	"context"
	"errors"
	"testing"

	"go-rbac-admin/common"
	"go-rbac-admin/database/dbtest"
	"go-rbac-admin/domain"
	moduleRepo "go-rbac-admin/modules/module/repository"
	userRepo "go-rbac-admin/modules/user/repository"
	"go-rbac-admin/pkg/log"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type failingHasher struct{}

func (failingHasher) Hash(string) (string, error) { return "", errors.New("boom") }

func newSeeder(db *gorm.DB, admin AdminConfig, hasher Hasher) *Seeder {
	return NewSeeder(
		moduleRepo.NewModuleRepository(db, nil),
		userRepo.NewUserRepository(db, nil),
		hasher,
		admin,
		log.NewNopLogger(),
	)
}

func activeModuleNames(t *testing.T, db *gorm.DB) []string {
	t.Helper()
	var names []string
	require.NoError(t, db.Model(&domain.Module{}).Where("deleted_at = 0").Order("name").Pluck("name", &names).Error)
	return names
}

func TestSeedModulesIsIdempotent(t *testing.T) {
	db := dbtest.Open(t)
	s := newSeeder(db, AdminConfig{}, common.NewBcryptHasher(4))
	ctx := context.Background()

	require.NoError(t, s.SeedModules(ctx))
	require.NoError(t, s.SeedModules(ctx))

	assert.Equal(t, []string{"Dashboard", "Modules", "Programs", "Roles", "Users"}, activeModuleNames(t, db))

	var total int64
	require.NoError(t, db.Model(&domain.Module{}).Count(&total).Error)
	assert.EqualValues(t, len(GetDefaultModules()), total)
}

func TestSeedModulesRestoresDeletedRow(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()

	programs := dbtest.SeedModule(t, db, domain.ModulePrograms)
	require.NoError(t, db.Model(programs).Update("deleted_at", 1).Error)

	s := newSeeder(db, AdminConfig{}, common.NewBcryptHasher(4))
	require.NoError(t, s.SeedModules(ctx))

	var restored domain.Module
	require.NoError(t, db.Where("name = ? AND deleted_at = 0", domain.ModulePrograms).First(&restored).Error)
	assert.Equal(t, programs.ID, restored.ID)
	assert.Len(t, activeModuleNames(t, db), 5)
}

func TestSeedAdmin(t *testing.T) {
	ctx := context.Background()
	admin := AdminConfig{Email: " Admin@Example.com ", Password: "changeme"}

	t.Run("creates a privileged account", func(t *testing.T) {
		db := dbtest.Open(t)
		hasher := common.NewBcryptHasher(4)
		s := newSeeder(db, admin, hasher)

		require.NoError(t, s.SeedAdmin(ctx))
		require.NoError(t, s.SeedAdmin(ctx))

		var users []domain.User
		require.NoError(t, db.Find(&users).Error)
		require.Len(t, users, 1)
		assert.Equal(t, "admin@example.com", users[0].Email)
		assert.Equal(t, "System Admin", users[0].Name)
		assert.True(t, users[0].Privileged)
		assert.True(t, hasher.Compare(users[0].Password, "changeme"))
	})

	t.Run("promotes an existing user", func(t *testing.T) {
		db := dbtest.Open(t)
		u := &domain.User{Name: "Ops", Email: "admin@example.com", Password: "x"}
		require.NoError(t, db.Create(u).Error)

		require.NoError(t, newSeeder(db, admin, failingHasher{}).SeedAdmin(ctx))

		var got domain.User
		require.NoError(t, db.First(&got, "id = ?", u.ID).Error)
		assert.True(t, got.Privileged)
		assert.Equal(t, "x", got.Password)
	})

	t.Run("skips when not configured", func(t *testing.T) {
		db := dbtest.Open(t)
		require.NoError(t, newSeeder(db, AdminConfig{}, failingHasher{}).SeedAdmin(ctx))

		var count int64
		require.NoError(t, db.Model(&domain.User{}).Count(&count).Error)
		assert.Zero(t, count)
	})

	t.Run("hash failure is reported", func(t *testing.T) {
		db := dbtest.Open(t)
		err := newSeeder(db, admin, failingHasher{}).SeedAdmin(ctx)
		assert.ErrorContains(t, err, "hash")
	})
}
