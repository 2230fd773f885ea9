package domain

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetailedError_IsMatchesAcrossWrapping(t *testing.T) {
	cause := errors.New("connection reset")
	err := ErrTransactionFailure.WithWrap(cause)

	assert.True(t, errors.Is(err, ErrTransactionFailure))
	assert.True(t, errors.Is(err, cause))
	assert.False(t, errors.Is(err, ErrPermissionDenied))
}

func TestDetailedError_WithCopies(t *testing.T) {
	denied := ErrPermissionDenied.WithDetail("module", "Roles")
	_ = denied.WithDetail("module", "Users")

	assert.Equal(t, "Roles", denied.Details()["module"])
	assert.Nil(t, ErrPermissionDenied.Details())
	assert.Equal(t, "Unauthorized to access module.", ErrPermissionDenied.Message())
	assert.True(t, errors.Is(ErrRoleValidationFailed.WithMessage("name must be not empty"), ErrRoleValidationFailed))
	assert.Equal(t, "Forbidden", denied.StatusText())
}

func TestDetailedError_WithWrapRecordsStack(t *testing.T) {
	err := ErrTransactionFailure.WithWrap(errors.New("deadlock detected"))

	require.NotEmpty(t, err.StackTrace())
	verbose := fmt.Sprintf("%+v", err)
	assert.Contains(t, verbose, "TRANSACTION_FAILURE")
	assert.Contains(t, verbose, "deadlock detected")
	assert.Contains(t, verbose, "TestDetailedError_WithWrapRecordsStack")
	assert.Equal(t, ErrTransactionFailure.Message(), fmt.Sprintf("%v", err))

	assert.Empty(t, ErrTransactionFailure.StackTrace())
}

func TestIsDetailedError(t *testing.T) {
	de, ok := IsDetailedError(ErrRoleNameTaken.WithDetail("name", "Admin"))
	require.True(t, ok)
	assert.Equal(t, http.StatusConflict, de.StatusCode())
	assert.Equal(t, "Admin", de.Details()["name"])

	_, ok = IsDetailedError(errors.New("plain"))
	assert.False(t, ok)
}

func TestDefaultActionTable(t *testing.T) {
	table := DefaultActionTable()

	modules, ok := table.Lookup(ActionRolesUpdate)
	require.True(t, ok)
	assert.Equal(t, []string{ModuleRoles}, modules)

	modules, ok = table.Lookup(ActionMyModules)
	require.True(t, ok)
	assert.Empty(t, modules)

	_, ok = table.Lookup("unknown.action")
	assert.False(t, ok)
}

func TestActionTable_CloneIsIndependent(t *testing.T) {
	table := DefaultActionTable()
	clone := table.Clone()
	clone[ActionRolesList][0] = "Other"

	assert.Equal(t, ModuleRoles, table[ActionRolesList][0])
}

func TestParseUntaggedPolicy(t *testing.T) {
	p, err := ParseUntaggedPolicy("")
	require.NoError(t, err)
	assert.Equal(t, UntaggedAllow, p)

	p, err = ParseUntaggedPolicy("deny")
	require.NoError(t, err)
	assert.Equal(t, UntaggedDeny, p)

	_, err = ParseUntaggedPolicy("maybe")
	assert.Error(t, err)
}

func TestNewPagination(t *testing.T) {
	p := NewPagination(2, 10, 21)
	assert.Equal(t, 3, p.TotalPages)
	assert.Equal(t, int64(21), p.TotalItems)

	assert.Equal(t, 0, NewPagination(1, 10, 0).TotalPages)
}

func TestSyncResult_Changed(t *testing.T) {
	var nilResult *SyncResult
	assert.False(t, nilResult.Changed())
	assert.False(t, (&SyncResult{Unchanged: []string{"a"}}).Changed())
	assert.True(t, (&SyncResult{Revoked: []string{"a"}}).Changed())
}

func TestUserValidate(t *testing.T) {
	assert.Error(t, (&User{Name: "x"}).Validate())
	assert.Error(t, (&User{Email: "a@b.c", Name: "  "}).Validate())
	assert.NoError(t, (&User{Email: "a@b.c", Name: "Ann"}).Validate())
}
