package usecase

import (
	"context"
	"go-rbac-admin/domain"
	"go-rbac-admin/pkg/log"

	"github.com/samber/lo"
)

type routeGuard struct {
	gate     domain.AccessGate
	table    domain.ActionTable
	policy   domain.UntaggedPolicy
	logger   log.Logger
	observer DecisionObserver
}

// NewRouteGuard copies table, so later edits by the caller have no effect.
func NewRouteGuard(
	gate domain.AccessGate,
	table domain.ActionTable,
	policy domain.UntaggedPolicy,
	logger log.Logger,
	observer DecisionObserver,
) domain.RouteGuard {
	if policy == "" {
		policy = domain.UntaggedAllow
	}
	return &routeGuard{
		gate:     gate,
		table:    table.Clone(),
		policy:   policy,
		logger:   logger,
		observer: observer,
	}
}

// Check returns nil when user may run action. Every module the action lists
// is required. An action with an empty list is public; an action missing
// from the table follows the untagged policy.
func (g *routeGuard) Check(ctx context.Context, user *domain.User, action domain.ActionID) error {
	modules, tagged := g.table.Lookup(action)
	if !tagged {
		if g.policy == domain.UntaggedDeny {
			g.deny(ctx, user, action, "")
			return domain.ErrPermissionDenied.WithDetail("action", string(action))
		}
		return nil
	}

	for _, module := range modules {
		ok, err := g.gate.Authorize(ctx, user, module)
		if err != nil {
			return err
		}
		if !ok {
			g.deny(ctx, user, action, module)
			return domain.ErrPermissionDenied.
				WithDetail("action", string(action)).
				WithDetail("module", module)
		}
	}
	return nil
}

// UntaggedActions returns the actions that have no table entry, in input
// order and without duplicates.
func (g *routeGuard) UntaggedActions(actions []domain.ActionID) []domain.ActionID {
	return lo.Uniq(lo.Filter(actions, func(action domain.ActionID, _ int) bool {
		_, ok := g.table.Lookup(action)
		return !ok
	}))
}

func (g *routeGuard) deny(ctx context.Context, user *domain.User, action domain.ActionID, module string) {
	if g.observer != nil {
		g.observer.ObserveDenial(action)
	}
	userID := ""
	if user != nil {
		userID = user.ID
	}
	g.logger.InfoContext(ctx, "access denied",
		log.UserID(userID),
		log.Action(string(action)),
		log.Module(module),
	)
}
