package usecase_test

import (
	"context"
	"errors"
	"testing"

	"go-rbac-admin/common"
	"go-rbac-admin/database/dbtest"
	"go-rbac-admin/domain"
	"go-rbac-admin/modules/user/repository"
	"go-rbac-admin/modules/user/usecase"
	"go-rbac-admin/pkg/log"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type failingHasher struct{}

func (failingHasher) Hash(string) (string, error) { return "", errors.New("entropy exhausted") }

func setup(t *testing.T) (domain.UserUsecase, *gorm.DB) {
	t.Helper()
	db := dbtest.Open(t)
	uc := usecase.NewUserUsecase(repository.NewUserRepository(db, nil), common.NewBcryptHasher(4), log.NewNopLogger())
	return uc, db
}

func TestCreateHashesPasswordAndAssignsRoles(t *testing.T) {
	uc, db := setup(t)
	ctx := context.Background()
	role := dbtest.SeedRole(t, db, "Editor")

	user, err := uc.Create(ctx, &domain.UserCreateRequest{
		Name:     "Alice",
		Email:    " Alice@Example.com ",
		Password: "password123",
		RoleIDs:  []string{role.ID},
	})
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.False(t, user.Privileged)
	require.Len(t, user.Roles, 1)
	assert.Equal(t, role.ID, user.Roles[0].ID)

	var stored domain.User
	require.NoError(t, db.First(&stored, "id = ?", user.ID).Error)
	assert.NotEqual(t, "password123", stored.Password)
	assert.True(t, common.NewBcryptHasher(4).Compare(stored.Password, "password123"))
}

func TestCreateDuplicateEmail(t *testing.T) {
	uc, db := setup(t)
	dbtest.SeedUser(t, db, "alice", false)

	_, err := uc.Create(context.Background(), &domain.UserCreateRequest{
		Name:     "Other Alice",
		Email:    "ALICE@example.com",
		Password: "password123",
	})
	assert.True(t, errors.Is(err, domain.ErrEmailAlreadyExists))
}

func TestCreateHashFailure(t *testing.T) {
	db := dbtest.Open(t)
	uc := usecase.NewUserUsecase(repository.NewUserRepository(db, nil), failingHasher{}, log.NewNopLogger())

	_, err := uc.Create(context.Background(), &domain.UserCreateRequest{
		Name:     "Alice",
		Email:    "alice@example.com",
		Password: "password123",
	})
	assert.True(t, errors.Is(err, domain.ErrPasswordHashFailed))
}

func TestUpdateSyncsRoles(t *testing.T) {
	uc, db := setup(t)
	ctx := context.Background()
	editor := dbtest.SeedRole(t, db, "Editor")
	auditor := dbtest.SeedRole(t, db, "Auditor")
	alice := dbtest.SeedUser(t, db, "alice", false)
	dbtest.Assign(t, db, alice, editor)

	updated, result, err := uc.Update(ctx, alice.ID, &domain.UserUpdateRequest{
		Name:    "Alice Liddell",
		Email:   "alice@example.com",
		RoleIDs: []string{auditor.ID},
	})
	require.NoError(t, err)
	assert.Equal(t, "Alice Liddell", updated.Name)
	assert.Equal(t, []string{auditor.ID}, result.Created)
	assert.Equal(t, []string{editor.ID}, result.Revoked)
	require.Len(t, updated.Roles, 1)
	assert.Equal(t, "Auditor", updated.Roles[0].Name)

	t.Run("deleted role is rejected", func(t *testing.T) {
		require.NoError(t, db.Model(&domain.Role{}).Where("id = ?", editor.ID).Update("deleted_at", 1).Error)
		_, _, err := uc.Update(ctx, alice.ID, &domain.UserUpdateRequest{
			Name:    "Alice",
			Email:   "alice@example.com",
			RoleIDs: []string{editor.ID},
		})
		assert.True(t, errors.Is(err, domain.ErrRoleNotFound))

		user, err := uc.FindByID(ctx, alice.ID)
		require.NoError(t, err)
		assert.Equal(t, "Alice Liddell", user.Name)
	})

	t.Run("email of another user", func(t *testing.T) {
		dbtest.SeedUser(t, db, "bob", false)
		_, _, err := uc.Update(ctx, alice.ID, &domain.UserUpdateRequest{Name: "Alice", Email: "bob@example.com"})
		assert.True(t, errors.Is(err, domain.ErrEmailAlreadyExists))
	})

	t.Run("unknown user", func(t *testing.T) {
		_, _, err := uc.Update(ctx, "missing", &domain.UserUpdateRequest{Name: "X", Email: "x@example.com"})
		assert.True(t, errors.Is(err, domain.ErrUserNotFound))
	})
}

func TestFindByEmail(t *testing.T) {
	uc, db := setup(t)
	alice := dbtest.SeedUser(t, db, "alice", false)

	found, err := uc.FindByEmail(context.Background(), "ALICE@example.com")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, found.ID)

	_, err = uc.FindByEmail(context.Background(), "nobody@example.com")
	assert.True(t, errors.Is(err, domain.ErrUserNotFound))
}

func TestDeleteRefusesOwnAccount(t *testing.T) {
	uc, db := setup(t)
	ctx := context.Background()
	alice := dbtest.SeedUser(t, db, "alice", false)
	bob := dbtest.SeedUser(t, db, "bob", false)

	err := uc.Delete(ctx, alice.ID, alice.ID)
	assert.True(t, errors.Is(err, domain.ErrCannotDeleteSelf))

	require.NoError(t, uc.Delete(ctx, alice.ID, bob.ID))
	_, err = uc.FindByID(ctx, bob.ID)
	assert.True(t, errors.Is(err, domain.ErrUserNotFound))
}
