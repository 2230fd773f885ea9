package database_test

import (
	"context"
	"testing"

	"go-rbac-admin/database"
	"go-rbac-admin/database/dbtest"
	"go-rbac-admin/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func roleFilter(qb *gorm.DB, filter *domain.RoleFilter) *gorm.DB {
	if filter != nil && filter.Name != nil {
		qb = qb.Where("name = ?", *filter.Name)
	}
	if filter == nil || filter.IncludeDeleted == nil || !*filter.IncludeDeleted {
		qb = qb.Where("deleted_at = 0")
	}
	return qb
}

func TestSQLHandler_SoftDeleteIsIdempotent(t *testing.T) {
	ctx := context.Background()
	db := dbtest.Open(t)
	h := database.NewSQLHandler[domain.Role](db, roleFilter)
	role := dbtest.SeedRole(t, db, "Editor")

	require.NoError(t, h.DeleteByID(ctx, role.ID))

	var first domain.Role
	require.NoError(t, db.First(&first, "id = ?", role.ID).Error)
	require.NotZero(t, first.DeletedAt)

	require.NoError(t, h.DeleteByID(ctx, role.ID))

	var second domain.Role
	require.NoError(t, db.First(&second, "id = ?", role.ID).Error)
	assert.Equal(t, first.DeletedAt, second.DeletedAt)

	_, err := h.FindOne(ctx, &domain.RoleFilter{Name: &role.Name}, nil)
	assert.ErrorIs(t, err, domain.ErrRecordNotFound)
}

func TestSQLHandler_DeleteUnknownID(t *testing.T) {
	db := dbtest.Open(t)
	h := database.NewSQLHandler[domain.Role](db, roleFilter)

	err := h.DeleteByID(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrRecordNotFound)

	err = h.RestoreByID(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrRecordNotFound)
}

func TestSQLHandler_RestoreKeepsID(t *testing.T) {
	ctx := context.Background()
	db := dbtest.Open(t)
	h := database.NewSQLHandler[domain.Role](db, roleFilter)
	role := dbtest.SeedRole(t, db, "Editor")

	require.NoError(t, h.DeleteByID(ctx, role.ID))
	require.NoError(t, h.RestoreByID(ctx, role.ID))
	require.NoError(t, h.RestoreByID(ctx, role.ID))

	found, err := h.FindOne(ctx, &domain.RoleFilter{Name: &role.Name}, nil)
	require.NoError(t, err)
	assert.Equal(t, role.ID, found.ID)
	assert.Zero(t, found.DeletedAt)
}

func TestSQLHandler_FindOneIncludingDeleted(t *testing.T) {
	ctx := context.Background()
	db := dbtest.Open(t)
	h := database.NewSQLHandler[domain.Role](db, roleFilter)
	role := dbtest.SeedRole(t, db, "Editor")
	require.NoError(t, h.DeleteByID(ctx, role.ID))

	name := "Editor"
	_, err := h.FindOne(ctx, &domain.RoleFilter{Name: &name}, nil)
	assert.ErrorIs(t, err, domain.ErrRecordNotFound)

	includeDeleted := true
	found, err := h.FindOne(ctx, &domain.RoleFilter{Name: &name, IncludeDeleted: &includeDeleted}, nil)
	require.NoError(t, err)
	assert.Equal(t, role.ID, found.ID)
}

func TestSQLHandler_FindPage(t *testing.T) {
	ctx := context.Background()
	db := dbtest.Open(t)
	h := database.NewSQLHandler[domain.Role](db, roleFilter)
	for _, name := range []string{"A", "B", "C"} {
		dbtest.SeedRole(t, db, name)
	}

	items, page, err := h.FindPage(ctx, nil, &domain.FindPageOption{Page: 2, PerPage: 2, Sort: []string{"name"}})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "C", items[0].Name)
	assert.Equal(t, int64(3), page.TotalItems)
	assert.Equal(t, 2, page.TotalPages)
}

func TestApplySearch(t *testing.T) {
	db := dbtest.Open(t)
	dbtest.SeedRole(t, db, "Content Editor")
	dbtest.SeedRole(t, db, "Auditor")
	dbtest.SeedRole(t, db, "100% Access")
	require.NoError(t, db.Create(&domain.Role{Name: "Ops", Description: "on_call rota"}).Error)

	search := func(term string, columns ...string) []string {
		t.Helper()
		var names []string
		qb := database.ApplySearch(db.Model(&domain.Role{}), term, columns...)
		require.NoError(t, qb.Order("name").Pluck("name", &names).Error)
		return names
	}

	assert.Equal(t, []string{"Content Editor"}, search("EDITOR", "name"))
	assert.Equal(t, []string{"Ops"}, search("call", "name", "description"))
	assert.Len(t, search("  ", "name"), 4)
	assert.Len(t, search("editor"), 4)

	t.Run("wildcards match literally", func(t *testing.T) {
		assert.Equal(t, []string{"100% Access"}, search("%", "name"))
		assert.Equal(t, []string{"Ops"}, search("_", "name", "description"))
	})
}

func TestActiveNameIsUnique(t *testing.T) {
	db := dbtest.Open(t)
	role := dbtest.SeedRole(t, db, "Admin")

	assert.Error(t, db.Create(&domain.Role{Name: "Admin"}).Error)

	// a deleted row frees the name
	require.NoError(t, db.Model(&domain.Role{}).Where("id = ?", role.ID).Update("deleted_at", 1).Error)
	assert.NoError(t, db.Create(&domain.Role{Name: "Admin"}).Error)

	// names are case-sensitive
	assert.NoError(t, db.Create(&domain.Role{Name: "admin"}).Error)
}
