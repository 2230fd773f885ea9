package usecase

import (
	"context"
	"errors"
	"strings"

	"go-rbac-admin/domain"
	"go-rbac-admin/pkg/log"
)

type Hasher interface {
	Hash(password string) (string, error)
}

type UserRepository interface {
	CreateWithRoles(ctx context.Context, user *domain.User, roleIDs []string) error
	FindByID(ctx context.Context, userID string, option *domain.FindOneOption) (*domain.User, error)
	FindOne(ctx context.Context, filter *domain.UserFilter, option *domain.FindOneOption) (*domain.User, error)
	FindPage(ctx context.Context, filter *domain.UserFilter, option *domain.FindPageOption) ([]*domain.User, *domain.Pagination, error)
	LoadRoles(ctx context.Context, user *domain.User) error
	UpdateWithRoles(ctx context.Context, user *domain.User, roleIDs []string) (*domain.SyncResult, error)
	Delete(ctx context.Context, userID string) error
}

type userUsecase struct {
	repo   UserRepository
	hasher Hasher
	logger log.Logger
}

func NewUserUsecase(repo UserRepository, hasher Hasher, logger log.Logger) domain.UserUsecase {
	return &userUsecase{repo: repo, hasher: hasher, logger: logger}
}

func (u *userUsecase) Create(ctx context.Context, req *domain.UserCreateRequest) (*domain.User, error) {
	user := &domain.User{
		Name:  strings.TrimSpace(req.Name),
		Email: normalizeEmail(req.Email),
	}
	if err := user.Validate(); err != nil {
		return nil, err
	}
	if err := u.ensureEmailFree(ctx, user.Email, nil); err != nil {
		return nil, err
	}

	hashedPassword, err := u.hasher.Hash(req.Password)
	if err != nil {
		return nil, domain.ErrPasswordHashFailed.WithWrap(err)
	}
	user.Password = hashedPassword

	if err := u.repo.CreateWithRoles(ctx, user, req.RoleIDs); err != nil {
		return nil, err
	}

	u.logger.InfoContext(ctx, "user created", log.UserID(user.ID))
	return u.FindByID(ctx, user.ID)
}

func (u *userUsecase) FindByID(ctx context.Context, userID string) (*domain.User, error) {
	user, err := u.repo.FindByID(ctx, userID, nil)
	if err != nil {
		return nil, notFound(err)
	}
	if err := u.repo.LoadRoles(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (u *userUsecase) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	email = normalizeEmail(email)
	user, err := u.repo.FindOne(ctx, &domain.UserFilter{Email: &email}, nil)
	if err != nil {
		return nil, notFound(err)
	}
	return user, nil
}

func (u *userUsecase) FindPage(ctx context.Context, filter *domain.UserFilter, option *domain.FindPageOption) ([]*domain.User, *domain.Pagination, error) {
	if filter == nil {
		filter = &domain.UserFilter{}
	}
	filter.IncludeDeleted = nil
	return u.repo.FindPage(ctx, filter, option)
}

func (u *userUsecase) Update(ctx context.Context, userID string, req *domain.UserUpdateRequest) (*domain.User, *domain.SyncResult, error) {
	user := &domain.User{
		Name:  strings.TrimSpace(req.Name),
		Email: normalizeEmail(req.Email),
	}
	user.ID = userID
	if err := user.Validate(); err != nil {
		return nil, nil, err
	}
	if err := u.ensureEmailFree(ctx, user.Email, &userID); err != nil {
		return nil, nil, err
	}

	result, err := u.repo.UpdateWithRoles(ctx, user, req.RoleIDs)
	if err != nil {
		return nil, nil, err
	}

	if result.Changed() {
		u.logger.InfoContext(ctx, "user roles synced",
			log.UserID(userID),
			log.Any("created", result.Created),
			log.Any("restored", result.Restored),
			log.Any("revoked", result.Revoked),
		)
	}

	updated, err := u.FindByID(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	return updated, result, nil
}

func (u *userUsecase) Delete(ctx context.Context, actorID, userID string) error {
	if actorID == userID {
		return domain.ErrCannotDeleteSelf.WithDetail("user_id", userID)
	}
	if err := u.repo.Delete(ctx, userID); err != nil {
		return err
	}
	u.logger.InfoContext(ctx, "user deleted", log.UserID(userID))
	return nil
}

func (u *userUsecase) ensureEmailFree(ctx context.Context, email string, exceptID *string) error {
	existing, err := u.repo.FindOne(ctx, &domain.UserFilter{Email: &email, IDNe: exceptID}, nil)
	if err != nil && !errors.Is(err, domain.ErrRecordNotFound) {
		return err
	}
	if existing != nil {
		return domain.ErrEmailAlreadyExists.WithDetail("email", email)
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func notFound(err error) error {
	if errors.Is(err, domain.ErrRecordNotFound) {
		return domain.ErrUserNotFound.WithWrap(err)
	}
	return err
}
