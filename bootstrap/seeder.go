package bootstrap

import (
	"context"
	"fmt"
	"strings"

	"go-rbac-admin/common"
	"go-rbac-admin/domain"
	"go-rbac-admin/pkg/log"

	"github.com/samber/lo"
)

// ModuleRepository is the slice of the module store the seeder needs.
type ModuleRepository interface {
	FindOne(ctx context.Context, filter *domain.ModuleFilter, option *domain.FindOneOption) (*domain.Module, error)
	Create(ctx context.Context, module *domain.Module) error
	Restore(ctx context.Context, moduleID string) error
}

type UserRepository interface {
	FindOne(ctx context.Context, filter *domain.UserFilter, option *domain.FindOneOption) (*domain.User, error)
	Create(ctx context.Context, user *domain.User) error
	UpdateFields(ctx context.Context, userID string, fields map[string]any) error
}

type Hasher interface {
	Hash(password string) (string, error)
}

// DefaultModule is a module every installation starts with.
type DefaultModule struct {
	Name        string
	Description string
}

// GetDefaultModules returns the modules the application's routes are tagged
// with.
func GetDefaultModules() []DefaultModule {
	return []DefaultModule{
		{Name: domain.ModuleDashboard, Description: "Landing page and sidebar"},
		{Name: domain.ModulePrograms, Description: "Program management"},
		{Name: domain.ModuleUsers, Description: "User administration"},
		{Name: domain.ModuleRoles, Description: "Role administration and grants"},
		{Name: domain.ModuleModules, Description: "Module catalogue"},
	}
}

// AdminConfig describes the privileged account created on first boot. An
// empty Email disables the admin seeder.
type AdminConfig struct {
	Name     string
	Email    string
	Password string
}

// Seeder makes sure the default modules and the privileged admin exist.
// Running it repeatedly is safe.
type Seeder struct {
	moduleRepo ModuleRepository
	userRepo   UserRepository
	hasher     Hasher
	admin      AdminConfig
	logger     log.Logger
}

func NewSeeder(
	moduleRepo ModuleRepository,
	userRepo UserRepository,
	hasher Hasher,
	admin AdminConfig,
	logger log.Logger,
) *Seeder {
	return &Seeder{
		moduleRepo: moduleRepo,
		userRepo:   userRepo,
		hasher:     hasher,
		admin:      admin,
		logger:     logger,
	}
}

// Seed runs the module seeder, then the admin seeder.
func (s *Seeder) Seed(ctx context.Context) error {
	if err := s.SeedModules(ctx); err != nil {
		return err
	}
	return s.SeedAdmin(ctx)
}

// SeedModules creates each default module, restoring it instead when a
// soft-deleted row with the same name is found. A restored module keeps the
// roles it was granted before the delete.
func (s *Seeder) SeedModules(ctx context.Context) error {
	s.logger.Info("Seeding default modules...")

	for _, def := range GetDefaultModules() {
		existing, err := s.moduleRepo.FindOne(ctx,
			&domain.ModuleFilter{Name: lo.ToPtr(def.Name), IncludeDeleted: lo.ToPtr(true)},
			&domain.FindOneOption{Sort: []string{"deleted_at asc"}},
		)
		if err != nil && !common.IsRecordNotFound(err) {
			return fmt.Errorf("failed to look up module %s: %w", def.Name, err)
		}

		switch {
		case existing == nil:
			module := &domain.Module{Name: def.Name, Description: def.Description}
			if err := s.moduleRepo.Create(ctx, module); err != nil {
				return fmt.Errorf("failed to create module %s: %w", def.Name, err)
			}
			s.logger.Info("Created module", log.String("name", def.Name), log.ModuleID(module.ID))
		case existing.DeletedAt != 0:
			if err := s.moduleRepo.Restore(ctx, existing.ID); err != nil {
				return fmt.Errorf("failed to restore module %s: %w", def.Name, err)
			}
			s.logger.Warn("Restored soft-deleted module", log.String("name", def.Name), log.ModuleID(existing.ID))
		default:
			s.logger.Debug("Module already exists, skipping", log.String("name", def.Name))
		}
	}

	s.logger.Info("Default modules seeding completed")
	return nil
}

// SeedAdmin creates the configured privileged admin, or promotes an existing
// account with that email.
func (s *Seeder) SeedAdmin(ctx context.Context) error {
	email := strings.ToLower(strings.TrimSpace(s.admin.Email))
	if email == "" {
		s.logger.Info("No system admin configured, skipping admin seeder")
		return nil
	}

	existing, err := s.userRepo.FindOne(ctx,
		&domain.UserFilter{Email: lo.ToPtr(email), IncludeDeleted: lo.ToPtr(true)},
		nil,
	)
	if err != nil && !common.IsRecordNotFound(err) {
		return fmt.Errorf("failed to look up system admin: %w", err)
	}

	if existing != nil {
		switch {
		case existing.DeletedAt != 0:
			s.logger.Warn("System admin account is deleted, skipping", log.String("email", email))
		case !existing.Privileged:
			if err := s.userRepo.UpdateFields(ctx, existing.ID, map[string]any{"privileged": true}); err != nil {
				return fmt.Errorf("failed to promote system admin: %w", err)
			}
			s.logger.Warn("Promoted existing user to system admin", log.UserID(existing.ID))
		default:
			s.logger.Debug("System admin already exists, skipping", log.UserID(existing.ID))
		}
		return nil
	}

	hashed, err := s.hasher.Hash(s.admin.Password)
	if err != nil {
		return fmt.Errorf("failed to hash system admin password: %w", err)
	}

	name := s.admin.Name
	if strings.TrimSpace(name) == "" {
		name = "System Admin"
	}
	user := &domain.User{
		Name:       name,
		Email:      email,
		Password:   hashed,
		Privileged: true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return fmt.Errorf("failed to create system admin: %w", err)
	}

	s.logger.Info("Created system admin", log.UserID(user.ID), log.String("email", email))
	return nil
}
