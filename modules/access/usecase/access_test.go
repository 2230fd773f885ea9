package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"

	"go-rbac-admin/domain"
	"go-rbac-admin/pkg/log"
	"go-rbac-admin/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAccessRepo struct {
	mu      sync.Mutex
	grants  map[string][]string
	err     error
	lookups int
}

func (r *fakeAccessRepo) HasModuleAccess(_ context.Context, userID, moduleName string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lookups++
	if r.err != nil {
		return false, r.err
	}
	for _, m := range r.grants[userID] {
		if m == moduleName {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeAccessRepo) AccessibleModules(_ context.Context, userID string) ([]*domain.Module, error) {
	var out []*domain.Module
	for _, m := range r.grants[userID] {
		out = append(out, &domain.Module{Name: m})
	}
	return out, r.err
}

func (r *fakeAccessRepo) ActiveModules(context.Context) ([]*domain.Module, error) {
	return []*domain.Module{{Name: domain.ModuleDashboard}, {Name: domain.ModuleUsers}}, nil
}

func newUser(id string, privileged bool) *domain.User {
	u := &domain.User{Name: id, Privileged: privileged}
	u.ID = id
	return u
}

func TestAccessGate_Authorize(t *testing.T) {
	ctx := context.Background()
	repo := &fakeAccessRepo{grants: map[string][]string{"alice": {domain.ModuleUsers}}}
	m := metrics.New()
	gate := NewAccessGate(repo, log.NewNopLogger(), m)

	ok, err := gate.Authorize(ctx, nil, domain.ModuleUsers)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = gate.Authorize(ctx, newUser("alice", false), domain.ModuleUsers)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = gate.Authorize(ctx, newUser("alice", false), domain.ModuleRoles)
	require.NoError(t, err)
	assert.False(t, ok)

	lookups := repo.lookups
	ok, err = gate.Authorize(ctx, newUser("root", true), "Anything")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, lookups, repo.lookups, "privileged users skip the store")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.GateDecisionsTotal.WithLabelValues(metrics.DecisionAnonymous)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.GateDecisionsTotal.WithLabelValues(metrics.DecisionAllow)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.GateDecisionsTotal.WithLabelValues(metrics.DecisionDeny)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.GateDecisionsTotal.WithLabelValues(metrics.DecisionPrivileged)))
}

func TestAccessGate_StoreFaultIsNotAGrant(t *testing.T) {
	boom := errors.New("connection reset")
	gate := NewAccessGate(&fakeAccessRepo{err: boom}, log.NewNopLogger(), nil)

	ok, err := gate.Authorize(context.Background(), newUser("alice", false), domain.ModuleUsers)
	assert.ErrorIs(t, err, boom)
	assert.False(t, ok)
}

func TestAccessGate_AccessibleModules(t *testing.T) {
	ctx := context.Background()
	gate := NewAccessGate(&fakeAccessRepo{grants: map[string][]string{"alice": {domain.ModuleUsers}}}, log.NewNopLogger(), nil)

	mods, err := gate.AccessibleModules(ctx, newUser("alice", false))
	require.NoError(t, err)
	require.Len(t, mods, 1)
	assert.Equal(t, domain.ModuleUsers, mods[0].Name)

	mods, err = gate.AccessibleModules(ctx, newUser("root", true))
	require.NoError(t, err)
	assert.Len(t, mods, 2)

	mods, err = gate.AccessibleModules(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, mods)
}

func TestRouteGuard_Check(t *testing.T) {
	ctx := context.Background()
	const (
		actionBoth   domain.ActionID = "test.both"
		actionPublic domain.ActionID = "test.public"
		actionNone   domain.ActionID = "test.untagged"
	)
	table := domain.ActionTable{
		actionBoth:   {domain.ModuleUsers, domain.ModuleRoles},
		actionPublic: {},
	}
	repo := &fakeAccessRepo{grants: map[string][]string{
		"alice": {domain.ModuleUsers},
		"bob":   {domain.ModuleUsers, domain.ModuleRoles},
	}}
	m := metrics.New()
	gate := NewAccessGate(repo, log.NewNopLogger(), m)
	allow := NewRouteGuard(gate, table, domain.UntaggedAllow, log.NewNopLogger(), m)
	deny := NewRouteGuard(gate, table, domain.UntaggedDeny, log.NewNopLogger(), m)

	t.Run("all listed modules are required", func(t *testing.T) {
		err := allow.Check(ctx, newUser("alice", false), actionBoth)
		require.ErrorIs(t, err, domain.ErrPermissionDenied)
		de, ok := domain.IsDetailedError(err)
		require.True(t, ok)
		assert.Equal(t, domain.ModuleRoles, de.Details()["module"])
		assert.Equal(t, "Unauthorized to access module.", de.Error())

		assert.NoError(t, allow.Check(ctx, newUser("bob", false), actionBoth))
	})

	t.Run("privileged bypass", func(t *testing.T) {
		assert.NoError(t, deny.Check(ctx, newUser("root", true), actionBoth))
	})

	t.Run("public action", func(t *testing.T) {
		assert.NoError(t, allow.Check(ctx, newUser("carol", false), actionPublic))
		assert.NoError(t, deny.Check(ctx, newUser("carol", false), actionPublic))
	})

	t.Run("untagged action follows policy", func(t *testing.T) {
		assert.NoError(t, allow.Check(ctx, newUser("carol", false), actionNone))
		assert.ErrorIs(t, deny.Check(ctx, newUser("carol", false), actionNone), domain.ErrPermissionDenied)
	})

	t.Run("anonymous actor", func(t *testing.T) {
		assert.ErrorIs(t, allow.Check(ctx, nil, actionBoth), domain.ErrPermissionDenied)
	})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.GuardDenialsTotal.WithLabelValues(string(actionNone))))
}

func TestRouteGuard_StoreFaultPropagates(t *testing.T) {
	boom := errors.New("timeout")
	gate := NewAccessGate(&fakeAccessRepo{err: boom}, log.NewNopLogger(), nil)
	guard := NewRouteGuard(gate, domain.DefaultActionTable(), domain.UntaggedAllow, log.NewNopLogger(), nil)

	err := guard.Check(context.Background(), newUser("alice", false), domain.ActionRolesList)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, domain.ErrPermissionDenied)
}

func TestRouteGuard_TableIsCopied(t *testing.T) {
	table := domain.ActionTable{"x": {domain.ModuleUsers}}
	guard := NewRouteGuard(NewAccessGate(&fakeAccessRepo{}, log.NewNopLogger(), nil), table, "", log.NewNopLogger(), nil)
	table["x"] = nil

	err := guard.Check(context.Background(), newUser("alice", false), "x")
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)
}

func TestRouteGuard_UntaggedActions(t *testing.T) {
	guard := NewRouteGuard(nil, domain.DefaultActionTable(), domain.UntaggedAllow, log.NewNopLogger(), nil)

	got := guard.UntaggedActions([]domain.ActionID{
		domain.ActionRolesList, "reports.export", domain.ActionMyModules, "reports.export", "audit.view",
	})
	assert.Equal(t, []domain.ActionID{"reports.export", "audit.view"}, got)
}
