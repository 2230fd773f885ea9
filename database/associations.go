package database

import "go-rbac-admin/domain"

const (
	AssocRoleModules = "role_modules"
	AssocModuleRoles = "module_roles"
	AssocRoleUsers   = "role_users"
	AssocUserRoles   = "user_roles"
)

func roleModuleModel(row *domain.RoleModule) *domain.SQLModel { return &row.SQLModel }
func roleUserModel(row *domain.RoleUser) *domain.SQLModel     { return &row.SQLModel }

// NewRoleModulesSync syncs the modules granted to a role.
func NewRoleModulesSync(observer SyncObserver) *AssociationSync[domain.RoleModule] {
	return NewAssociationSync(Association[domain.RoleModule]{
		Name:          AssocRoleModules,
		AnchorColumn:  "role_id",
		OtherColumn:   "module_id",
		OtherTable:    "modules",
		OtherNotFound: domain.ErrModuleNotFound,
		NewRow: func(roleID, moduleID string) *domain.RoleModule {
			return &domain.RoleModule{RoleID: roleID, ModuleID: moduleID}
		},
		Model:   roleModuleModel,
		OtherID: func(row *domain.RoleModule) string { return row.ModuleID },
	}, observer)
}

// NewModuleRolesSync syncs the roles a module is granted to.
func NewModuleRolesSync(observer SyncObserver) *AssociationSync[domain.RoleModule] {
	return NewAssociationSync(Association[domain.RoleModule]{
		Name:          AssocModuleRoles,
		AnchorColumn:  "module_id",
		OtherColumn:   "role_id",
		OtherTable:    "roles",
		OtherNotFound: domain.ErrRoleNotFound,
		NewRow: func(moduleID, roleID string) *domain.RoleModule {
			return &domain.RoleModule{RoleID: roleID, ModuleID: moduleID}
		},
		Model:   roleModuleModel,
		OtherID: func(row *domain.RoleModule) string { return row.RoleID },
	}, observer)
}

// NewRoleUsersSync addresses the users holding a role.
func NewRoleUsersSync(observer SyncObserver) *AssociationSync[domain.RoleUser] {
	return NewAssociationSync(Association[domain.RoleUser]{
		Name:          AssocRoleUsers,
		AnchorColumn:  "role_id",
		OtherColumn:   "user_id",
		OtherTable:    "users",
		OtherNotFound: domain.ErrUserNotFound,
		NewRow: func(roleID, userID string) *domain.RoleUser {
			return &domain.RoleUser{UserID: userID, RoleID: roleID}
		},
		Model:   roleUserModel,
		OtherID: func(row *domain.RoleUser) string { return row.UserID },
	}, observer)
}

// NewUserRolesSync syncs the roles assigned to a user.
func NewUserRolesSync(observer SyncObserver) *AssociationSync[domain.RoleUser] {
	return NewAssociationSync(Association[domain.RoleUser]{
		Name:          AssocUserRoles,
		AnchorColumn:  "user_id",
		OtherColumn:   "role_id",
		OtherTable:    "roles",
		OtherNotFound: domain.ErrRoleNotFound,
		NewRow: func(userID, roleID string) *domain.RoleUser {
			return &domain.RoleUser{UserID: userID, RoleID: roleID}
		},
		Model:   roleUserModel,
		OtherID: func(row *domain.RoleUser) string { return row.RoleID },
	}, observer)
}
