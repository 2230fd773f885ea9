package usecase

import (
	"context"
	"go-rbac-admin/domain"
	"go-rbac-admin/pkg/log"
	"go-rbac-admin/pkg/metrics"
)

type AccessRepository interface {
	HasModuleAccess(ctx context.Context, userID, moduleName string) (bool, error)
	AccessibleModules(ctx context.Context, userID string) ([]*domain.Module, error)
	ActiveModules(ctx context.Context) ([]*domain.Module, error)
}

// DecisionObserver records gate and guard outcomes. *metrics.Metrics
// implements it.
type DecisionObserver interface {
	ObserveDecision(result string)
	ObserveDenial(action domain.ActionID)
}

type accessGate struct {
	repo     AccessRepository
	logger   log.Logger
	observer DecisionObserver
}

func NewAccessGate(repo AccessRepository, logger log.Logger, observer DecisionObserver) domain.AccessGate {
	return &accessGate{repo: repo, logger: logger, observer: observer}
}

// Authorize answers whether user may use moduleName. Privileged users pass
// without a store lookup. A store fault is returned as an error and never
// treated as a grant.
func (g *accessGate) Authorize(ctx context.Context, user *domain.User, moduleName string) (bool, error) {
	if user == nil {
		g.observe(metrics.DecisionAnonymous)
		return false, nil
	}
	if user.Privileged {
		g.observe(metrics.DecisionPrivileged)
		return true, nil
	}

	ok, err := g.repo.HasModuleAccess(ctx, user.ID, moduleName)
	if err != nil {
		g.observe(metrics.DecisionError)
		g.logger.ErrorContext(ctx, "module access lookup failed",
			log.UserID(user.ID),
			log.Module(moduleName),
			log.Error(err),
		)
		return false, err
	}

	if ok {
		g.observe(metrics.DecisionAllow)
	} else {
		g.observe(metrics.DecisionDeny)
	}
	g.logger.DebugContext(ctx, "module access decided",
		log.UserID(user.ID),
		log.Module(moduleName),
		log.Bool("allowed", ok),
	)
	return ok, nil
}

func (g *accessGate) AccessibleModules(ctx context.Context, user *domain.User) ([]*domain.Module, error) {
	if user == nil {
		return []*domain.Module{}, nil
	}
	if user.Privileged {
		return g.repo.ActiveModules(ctx)
	}
	return g.repo.AccessibleModules(ctx, user.ID)
}

func (g *accessGate) observe(result string) {
	if g.observer != nil {
		g.observer.ObserveDecision(result)
	}
}
