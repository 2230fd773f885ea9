package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"go-rbac-admin/database/dbtest"
	"go-rbac-admin/domain"
	accessrepo "go-rbac-admin/modules/access/repository"
	accessuc "go-rbac-admin/modules/access/usecase"
	"go-rbac-admin/pkg/log"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestCreateWithModules(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRoleRepository(db, nil)
	ctx := context.Background()
	roles := dbtest.SeedModule(t, db, domain.ModuleRoles)
	users := dbtest.SeedModule(t, db, domain.ModuleUsers)

	role := &domain.Role{Name: "Editor"}
	require.NoError(t, repo.CreateWithModules(ctx, role, []string{roles.ID, users.ID, roles.ID}))
	require.NoError(t, repo.LoadRelations(ctx, role))

	names := []string{}
	for _, m := range role.Modules {
		names = append(names, m.Name)
	}
	assert.Equal(t, []string{domain.ModuleRoles, domain.ModuleUsers}, names)
}

func TestCreateWithUnknownModuleRollsBack(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRoleRepository(db, nil)
	ctx := context.Background()

	err := repo.CreateWithModules(ctx, &domain.Role{Name: "Ghost"}, []string{"missing"})
	assert.True(t, errors.Is(err, domain.ErrModuleNotFound))

	var count int64
	require.NoError(t, db.Model(&domain.Role{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestDuplicateActiveNameIsRefused(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRoleRepository(db, nil)
	ctx := context.Background()
	dbtest.SeedRole(t, db, "Admin")

	// the usecase reports the conflict; the partial index still refuses the row
	err := repo.CreateWithModules(ctx, &domain.Role{Name: "Admin"}, nil)
	assert.Error(t, err)
}

func TestUpdateWithModules(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRoleRepository(db, nil)
	ctx := context.Background()
	a := dbtest.SeedModule(t, db, "A")
	b := dbtest.SeedModule(t, db, "B")
	role := dbtest.SeedRole(t, db, "Editor")
	dbtest.Grant(t, db, role, a)

	role.Name = "Author"
	role.Description = "writes things"
	result, err := repo.UpdateWithModules(ctx, role, []string{b.ID})
	require.NoError(t, err)
	assert.Equal(t, []string{b.ID}, result.Created)
	assert.Equal(t, []string{a.ID}, result.Revoked)

	stored, err := repo.FindByID(ctx, role.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, "Author", stored.Name)
	assert.Equal(t, "writes things", stored.Description)

	t.Run("unknown role", func(t *testing.T) {
		ghost := &domain.Role{Name: "Ghost"}
		ghost.ID = "missing"
		_, err := repo.UpdateWithModules(ctx, ghost, nil)
		assert.True(t, errors.Is(err, domain.ErrRoleNotFound))
	})
}

func TestConcurrentUpdatesLeaveOneRowPerPair(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRoleRepository(db, nil)
	ctx := context.Background()
	a := dbtest.SeedModule(t, db, "A")
	b := dbtest.SeedModule(t, db, "B")
	role := dbtest.SeedRole(t, db, "Editor")

	var g errgroup.Group
	for i := 0; i < 8; i++ {
		desired := []string{a.ID, b.ID}
		if i%2 == 0 {
			desired = []string{a.ID}
		}
		g.Go(func() error {
			update := &domain.Role{Name: "Editor"}
			update.ID = role.ID
			_, err := repo.UpdateWithModules(ctx, update, desired)
			return err
		})
	}
	require.NoError(t, g.Wait())

	var pairs []struct {
		ModuleID string
		N        int
	}
	require.NoError(t, db.Model(&domain.RoleModule{}).
		Select("module_id, count(*) as n").
		Where("role_id = ?", role.ID).
		Group("module_id").
		Scan(&pairs).Error)
	for _, p := range pairs {
		assert.Equal(t, 1, p.N, "module %s", p.ModuleID)
	}
}

func TestUpdateWithModulesRacesAccessChecks(t *testing.T) {
	db := dbtest.OpenConcurrent(t)
	repo := NewRoleRepository(db, nil)
	gate := accessuc.NewAccessGate(accessrepo.NewAccessRepository(db), log.NewNopLogger(), nil)
	ctx := context.Background()

	programs := dbtest.SeedModule(t, db, domain.ModulePrograms)
	role := dbtest.SeedRole(t, db, "Coordinators")
	alice := dbtest.SeedUser(t, db, "alice", false)
	dbtest.Assign(t, db, alice, role)

	update := func(moduleIDs []string) func() error {
		return func() error {
			r := &domain.Role{Name: role.Name}
			r.ID = role.ID
			_, err := repo.UpdateWithModules(ctx, r, moduleIDs)
			return err
		}
	}

	var g errgroup.Group
	for i := 0; i < 16; i++ {
		g.Go(update(nil))
		g.Go(update([]string{programs.ID}))
		g.Go(func() error {
			_, err := gate.Authorize(ctx, alice, domain.ModulePrograms)
			return err
		})
	}

	done := make(chan error, 1)
	go func() { done <- g.Wait() }()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(30 * time.Second):
		t.Fatal("updates and access checks did not finish")
	}

	var active []struct {
		RoleID   string
		ModuleID string
		N        int
	}
	require.NoError(t, db.Model(&domain.RoleModule{}).
		Select("role_id, module_id, count(*) as n").
		Where("deleted_at = 0").
		Group("role_id, module_id").
		Having("count(*) > 1").
		Scan(&active).Error)
	assert.Empty(t, active)

	var rows int64
	require.NoError(t, db.Model(&domain.RoleModule{}).
		Where("role_id = ? AND module_id = ?", role.ID, programs.ID).
		Count(&rows).Error)
	assert.EqualValues(t, 1, rows)

	t.Run("the last writer decides access", func(t *testing.T) {
		require.NoError(t, update([]string{programs.ID})())
		ok, err := gate.Authorize(ctx, alice, domain.ModulePrograms)
		require.NoError(t, err)
		assert.True(t, ok)

		require.NoError(t, update(nil)())
		ok, err = gate.Authorize(ctx, alice, domain.ModulePrograms)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestDeleteCascades(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRoleRepository(db, nil)
	ctx := context.Background()
	m := dbtest.SeedModule(t, db, "A")
	u := dbtest.SeedUser(t, db, "alice", false)
	role := dbtest.SeedRole(t, db, "Editor")
	dbtest.Grant(t, db, role, m)
	dbtest.Assign(t, db, u, role)

	require.NoError(t, repo.Delete(ctx, role.ID))

	_, err := repo.FindByID(ctx, role.ID, nil)
	assert.True(t, errors.Is(err, domain.ErrRecordNotFound))

	var active int64
	require.NoError(t, db.Model(&domain.RoleModule{}).Where("role_id = ? AND deleted_at = 0", role.ID).Count(&active).Error)
	assert.Zero(t, active)
	require.NoError(t, db.Model(&domain.RoleUser{}).Where("role_id = ? AND deleted_at = 0", role.ID).Count(&active).Error)
	assert.Zero(t, active)

	err = repo.Delete(ctx, role.ID)
	assert.True(t, errors.Is(err, domain.ErrRoleNotFound))

	t.Run("name can be reused", func(t *testing.T) {
		require.NoError(t, repo.CreateWithModules(ctx, &domain.Role{Name: "Editor"}, nil))
	})
}

func TestRevokeAndRestoreUserRole(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRoleRepository(db, nil)
	ctx := context.Background()
	u := dbtest.SeedUser(t, db, "alice", false)
	role := dbtest.SeedRole(t, db, "Editor")
	dbtest.Assign(t, db, u, role)

	var before domain.RoleUser
	require.NoError(t, db.Where("role_id = ? AND user_id = ?", role.ID, u.ID).First(&before).Error)

	require.NoError(t, repo.RevokeUserRole(ctx, role.ID, u.ID))
	require.NoError(t, repo.RevokeUserRole(ctx, role.ID, u.ID))
	require.NoError(t, repo.LoadRelations(ctx, role))
	assert.Empty(t, role.Users)

	require.NoError(t, repo.RestoreUserRole(ctx, role.ID, u.ID))
	require.NoError(t, repo.LoadRelations(ctx, role))
	require.Len(t, role.Users, 1)

	var after domain.RoleUser
	require.NoError(t, db.Where("role_id = ? AND user_id = ?", role.ID, u.ID).First(&after).Error)
	assert.Equal(t, before.ID, after.ID)
	assert.Zero(t, after.DeletedAt)

	t.Run("never assigned", func(t *testing.T) {
		other := dbtest.SeedUser(t, db, "bob", false)
		err := repo.RevokeUserRole(ctx, role.ID, other.ID)
		assert.True(t, errors.Is(err, domain.ErrRoleUserNotFound))
	})

	t.Run("unknown role", func(t *testing.T) {
		err := repo.RestoreUserRole(ctx, "missing", u.ID)
		assert.True(t, errors.Is(err, domain.ErrRoleNotFound))
	})
}

func TestFindPageSearch(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRoleRepository(db, nil)
	ctx := context.Background()
	dbtest.SeedRole(t, db, "Content Editor")
	dbtest.SeedRole(t, db, "Auditor")
	deleted := dbtest.SeedRole(t, db, "Editor in chief")
	require.NoError(t, repo.Delete(ctx, deleted.ID))

	term := "editor"
	roles, pagination, err := repo.FindPage(ctx, &domain.RoleFilter{SearchTerm: &term}, &domain.FindPageOption{Page: 1, PerPage: 10})
	require.NoError(t, err)
	require.Len(t, roles, 1)
	assert.Equal(t, "Content Editor", roles[0].Name)
	assert.Equal(t, int64(1), pagination.TotalItems)
}
