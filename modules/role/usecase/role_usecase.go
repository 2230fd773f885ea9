package usecase

import (
	"context"
	"errors"
	"strings"

	"go-rbac-admin/domain"
	"go-rbac-admin/pkg/log"
)

type RoleRepository interface {
	CreateWithModules(ctx context.Context, role *domain.Role, moduleIDs []string) error
	FindByID(ctx context.Context, roleID string, option *domain.FindOneOption) (*domain.Role, error)
	FindOne(ctx context.Context, filter *domain.RoleFilter, option *domain.FindOneOption) (*domain.Role, error)
	FindPage(ctx context.Context, filter *domain.RoleFilter, option *domain.FindPageOption) ([]*domain.Role, *domain.Pagination, error)
	LoadRelations(ctx context.Context, role *domain.Role) error
	UpdateWithModules(ctx context.Context, role *domain.Role, moduleIDs []string) (*domain.SyncResult, error)
	Delete(ctx context.Context, roleID string) error
	RevokeUserRole(ctx context.Context, roleID, userID string) error
	RestoreUserRole(ctx context.Context, roleID, userID string) error
}

type roleUsecase struct {
	repo   RoleRepository
	logger log.Logger
}

func NewRoleUsecase(repo RoleRepository, logger log.Logger) domain.RoleUsecase {
	return &roleUsecase{repo: repo, logger: logger}
}

func (u *roleUsecase) Create(ctx context.Context, req *domain.RoleCreateRequest) (*domain.Role, error) {
	role := &domain.Role{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		ForAdmin:    req.ForAdmin,
	}
	if err := role.Validate(); err != nil {
		return nil, err
	}
	if err := u.ensureNameFree(ctx, role.Name, nil); err != nil {
		return nil, err
	}

	if err := u.repo.CreateWithModules(ctx, role, req.ModuleIDs); err != nil {
		return nil, err
	}

	u.logger.InfoContext(ctx, "role created",
		log.RoleID(role.ID),
		log.String("name", role.Name),
		log.Int("modules", len(req.ModuleIDs)),
	)
	return u.FindByID(ctx, role.ID)
}

// FindByID returns the active role with its active modules and users.
func (u *roleUsecase) FindByID(ctx context.Context, roleID string) (*domain.Role, error) {
	role, err := u.repo.FindByID(ctx, roleID, nil)
	if err != nil {
		return nil, notFound(err)
	}
	if err := u.repo.LoadRelations(ctx, role); err != nil {
		return nil, err
	}
	return role, nil
}

func (u *roleUsecase) FindPage(ctx context.Context, filter *domain.RoleFilter, option *domain.FindPageOption) ([]*domain.Role, *domain.Pagination, error) {
	if filter == nil {
		filter = &domain.RoleFilter{}
	}
	// deleted roles are never listed
	filter.IncludeDeleted = nil
	return u.repo.FindPage(ctx, filter, option)
}

func (u *roleUsecase) Update(ctx context.Context, roleID string, req *domain.RoleUpdateRequest) (*domain.Role, *domain.SyncResult, error) {
	role := &domain.Role{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		ForAdmin:    req.ForAdmin,
	}
	role.ID = roleID
	if err := role.Validate(); err != nil {
		return nil, nil, err
	}
	if err := u.ensureNameFree(ctx, role.Name, &roleID); err != nil {
		return nil, nil, err
	}

	result, err := u.repo.UpdateWithModules(ctx, role, req.ModuleIDs)
	if err != nil {
		return nil, nil, err
	}

	if result.Changed() {
		u.logger.InfoContext(ctx, "role modules synced",
			log.RoleID(roleID),
			log.Any("created", result.Created),
			log.Any("restored", result.Restored),
			log.Any("revoked", result.Revoked),
		)
	}

	updated, err := u.FindByID(ctx, roleID)
	if err != nil {
		return nil, nil, err
	}
	return updated, result, nil
}

func (u *roleUsecase) Delete(ctx context.Context, roleID string) error {
	if err := u.repo.Delete(ctx, roleID); err != nil {
		return err
	}
	u.logger.InfoContext(ctx, "role deleted", log.RoleID(roleID))
	return nil
}

func (u *roleUsecase) RevokeUser(ctx context.Context, roleID, userID string) error {
	if err := u.repo.RevokeUserRole(ctx, roleID, userID); err != nil {
		return err
	}
	u.logger.InfoContext(ctx, "role revoked from user",
		log.RoleID(roleID),
		log.UserID(userID),
	)
	return nil
}

func (u *roleUsecase) RestoreUser(ctx context.Context, roleID, userID string) error {
	if err := u.repo.RestoreUserRole(ctx, roleID, userID); err != nil {
		return err
	}
	u.logger.InfoContext(ctx, "role restored to user",
		log.RoleID(roleID),
		log.UserID(userID),
	)
	return nil
}

// ensureNameFree fails with ErrRoleNameTaken when another active role already
// uses name. Names compare exactly.
func (u *roleUsecase) ensureNameFree(ctx context.Context, name string, exceptID *string) error {
	existing, err := u.repo.FindOne(ctx, &domain.RoleFilter{Name: &name, IDNe: exceptID}, nil)
	if err != nil && !errors.Is(err, domain.ErrRecordNotFound) {
		return err
	}
	if existing != nil {
		return domain.ErrRoleNameTaken.WithDetail("name", name)
	}
	return nil
}

func notFound(err error) error {
	if errors.Is(err, domain.ErrRecordNotFound) {
		return domain.ErrRoleNotFound.WithWrap(err)
	}
	return err
}
