package usecase

import (
	"context"
	"errors"
	"strings"

	"go-rbac-admin/domain"
	"go-rbac-admin/pkg/log"
)

type ModuleRepository interface {
	CreateWithRoles(ctx context.Context, module *domain.Module, roleIDs []string) error
	FindByID(ctx context.Context, moduleID string, option *domain.FindOneOption) (*domain.Module, error)
	FindOne(ctx context.Context, filter *domain.ModuleFilter, option *domain.FindOneOption) (*domain.Module, error)
	FindPage(ctx context.Context, filter *domain.ModuleFilter, option *domain.FindPageOption) ([]*domain.Module, *domain.Pagination, error)
	LoadRelations(ctx context.Context, module *domain.Module) error
	UpdateWithRoles(ctx context.Context, module *domain.Module, roleIDs []string) (*domain.SyncResult, error)
	Delete(ctx context.Context, moduleID string) error
}

type moduleUsecase struct {
	repo   ModuleRepository
	logger log.Logger
}

func NewModuleUsecase(repo ModuleRepository, logger log.Logger) domain.ModuleUsecase {
	return &moduleUsecase{repo: repo, logger: logger}
}

func (u *moduleUsecase) Create(ctx context.Context, req *domain.ModuleCreateRequest) (*domain.Module, error) {
	module := &domain.Module{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
	}
	if err := module.Validate(); err != nil {
		return nil, err
	}
	if err := u.ensureNameFree(ctx, module.Name, nil); err != nil {
		return nil, err
	}

	if err := u.repo.CreateWithRoles(ctx, module, req.RoleIDs); err != nil {
		return nil, err
	}

	u.logger.InfoContext(ctx, "module created",
		log.ModuleID(module.ID),
		log.String("name", module.Name),
	)
	return u.FindByID(ctx, module.ID)
}

// FindByID returns the module with its active roles and the users those roles
// reach.
func (u *moduleUsecase) FindByID(ctx context.Context, moduleID string) (*domain.Module, error) {
	module, err := u.repo.FindByID(ctx, moduleID, nil)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return nil, domain.ErrModuleNotFound.WithWrap(err)
		}
		return nil, err
	}
	if err := u.repo.LoadRelations(ctx, module); err != nil {
		return nil, err
	}
	return module, nil
}

func (u *moduleUsecase) FindPage(ctx context.Context, filter *domain.ModuleFilter, option *domain.FindPageOption) ([]*domain.Module, *domain.Pagination, error) {
	if filter == nil {
		filter = &domain.ModuleFilter{}
	}
	filter.IncludeDeleted = nil
	return u.repo.FindPage(ctx, filter, option)
}

// Update renames the module and replaces its role set. Renaming changes the
// capability the module grants, so it is logged at warn level.
func (u *moduleUsecase) Update(ctx context.Context, moduleID string, req *domain.ModuleUpdateRequest) (*domain.Module, *domain.SyncResult, error) {
	current, err := u.repo.FindByID(ctx, moduleID, nil)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return nil, nil, domain.ErrModuleNotFound.WithWrap(err)
		}
		return nil, nil, err
	}

	module := &domain.Module{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
	}
	module.ID = moduleID
	if err := module.Validate(); err != nil {
		return nil, nil, err
	}
	if err := u.ensureNameFree(ctx, module.Name, &moduleID); err != nil {
		return nil, nil, err
	}

	result, err := u.repo.UpdateWithRoles(ctx, module, req.RoleIDs)
	if err != nil {
		return nil, nil, err
	}

	if current.Name != module.Name {
		u.logger.WarnContext(ctx, "module renamed",
			log.ModuleID(moduleID),
			log.String("from", current.Name),
			log.String("to", module.Name),
		)
	}
	if result.Changed() {
		u.logger.InfoContext(ctx, "module roles synced",
			log.ModuleID(moduleID),
			log.Any("created", result.Created),
			log.Any("restored", result.Restored),
			log.Any("revoked", result.Revoked),
		)
	}

	updated, err := u.FindByID(ctx, moduleID)
	if err != nil {
		return nil, nil, err
	}
	return updated, result, nil
}

func (u *moduleUsecase) Delete(ctx context.Context, moduleID string) error {
	if err := u.repo.Delete(ctx, moduleID); err != nil {
		return err
	}
	u.logger.InfoContext(ctx, "module deleted", log.ModuleID(moduleID))
	return nil
}

func (u *moduleUsecase) ensureNameFree(ctx context.Context, name string, exceptID *string) error {
	existing, err := u.repo.FindOne(ctx, &domain.ModuleFilter{Name: &name, IDNe: exceptID}, nil)
	if err != nil && !errors.Is(err, domain.ErrRecordNotFound) {
		return err
	}
	if existing != nil {
		return domain.ErrModuleNameTaken.WithDetail("name", name)
	}
	return nil
}
