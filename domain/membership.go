package domain

// RoleModule grants a module to a role. One row exists per pair for the
// lifetime of the database; revoking sets DeletedAt and re-granting clears it.
type RoleModule struct {
	SQLModel
	RoleID   string `json:"role_id" gorm:"type:varchar(36);not null;uniqueIndex:idx_role_modules_pair,priority:1"`
	ModuleID string `json:"module_id" gorm:"type:varchar(36);not null;uniqueIndex:idx_role_modules_pair,priority:2;index"`
}

// RoleUser assigns a role to a user, with the same revoke/restore semantics
// as RoleModule.
type RoleUser struct {
	SQLModel
	UserID string `json:"user_id" gorm:"type:varchar(36);not null;uniqueIndex:idx_role_users_pair,priority:1"`
	RoleID string `json:"role_id" gorm:"type:varchar(36);not null;uniqueIndex:idx_role_users_pair,priority:2;index"`
}

type RoleModuleFilter struct {
	RoleID         *string  `json:"role_id"`
	ModuleID       *string  `json:"module_id"`
	ModuleIDIn     []string `json:"module_id_in"`
	IncludeDeleted *bool    `json:"include_deleted"`
}

type RoleUserFilter struct {
	UserID         *string `json:"user_id"`
	RoleID         *string `json:"role_id"`
	IncludeDeleted *bool   `json:"include_deleted"`
}

// SyncResult reports what a membership sync changed. Ids are the ids of the
// other side of the relation.
type SyncResult struct {
	Created   []string `json:"created"`
	Restored  []string `json:"restored"`
	Revoked   []string `json:"revoked"`
	Unchanged []string `json:"unchanged"`
}

func (r *SyncResult) Changed() bool {
	return r != nil && len(r.Created)+len(r.Restored)+len(r.Revoked) > 0
}
