package domain

import (
	"context"
	"fmt"
)

/***************************************
*      Access entities and types      *
***************************************/

// ActionID names a protected handler. Every route registers under exactly one.
type ActionID string

const (
	ActionMyModules ActionID = "access.my_modules"

	ActionRolesList       ActionID = "roles.list"
	ActionRolesCreate     ActionID = "roles.create"
	ActionRolesView       ActionID = "roles.view"
	ActionRolesUpdate     ActionID = "roles.update"
	ActionRolesDelete     ActionID = "roles.delete"
	ActionRolesRevokeUser ActionID = "roles.revoke_user"
	ActionRolesRestore    ActionID = "roles.restore_user"

	ActionModulesList   ActionID = "modules.list"
	ActionModulesCreate ActionID = "modules.create"
	ActionModulesView   ActionID = "modules.view"
	ActionModulesUpdate ActionID = "modules.update"
	ActionModulesDelete ActionID = "modules.delete"

	ActionUsersList   ActionID = "users.list"
	ActionUsersCreate ActionID = "users.create"
	ActionUsersView   ActionID = "users.view"
	ActionUsersUpdate ActionID = "users.update"
	ActionUsersDelete ActionID = "users.delete"
)

// ActionTable maps an action to the module names it requires. All listed
// modules are required. A present but empty entry marks the action public;
// an absent entry is untagged and falls under the guard's UntaggedPolicy.
type ActionTable map[ActionID][]string

func (t ActionTable) Lookup(action ActionID) ([]string, bool) {
	modules, ok := t[action]
	return modules, ok
}

func (t ActionTable) Clone() ActionTable {
	out := make(ActionTable, len(t))
	for k, v := range t {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// DefaultActionTable returns the declarations for every route the service
// exposes.
func DefaultActionTable() ActionTable {
	return ActionTable{
		ActionMyModules: {},

		ActionRolesList:       {ModuleRoles},
		ActionRolesCreate:     {ModuleRoles},
		ActionRolesView:       {ModuleRoles},
		ActionRolesUpdate:     {ModuleRoles},
		ActionRolesDelete:     {ModuleRoles},
		ActionRolesRevokeUser: {ModuleRoles},
		ActionRolesRestore:    {ModuleRoles},

		ActionModulesList:   {ModuleModules},
		ActionModulesCreate: {ModuleModules},
		ActionModulesView:   {ModuleModules},
		ActionModulesUpdate: {ModuleModules},
		ActionModulesDelete: {ModuleModules},

		ActionUsersList:   {ModuleUsers},
		ActionUsersCreate: {ModuleUsers},
		ActionUsersView:   {ModuleUsers},
		ActionUsersUpdate: {ModuleUsers},
		ActionUsersDelete: {ModuleUsers},
	}
}

type UntaggedPolicy string

const (
	UntaggedAllow UntaggedPolicy = "allow"
	UntaggedDeny  UntaggedPolicy = "deny"
)

func ParseUntaggedPolicy(s string) (UntaggedPolicy, error) {
	switch UntaggedPolicy(s) {
	case UntaggedAllow, UntaggedDeny:
		return UntaggedPolicy(s), nil
	case "":
		return UntaggedAllow, nil
	default:
		return "", fmt.Errorf("untagged policy must be %q or %q, got %q", UntaggedAllow, UntaggedDeny, s)
	}
}

/************************************************
*      Access usecase interfaces and types      *
************************************************/

// AccessGate answers whether a user may use a module.
type AccessGate interface {
	Authorize(ctx context.Context, user *User, moduleName string) (bool, error)
	AccessibleModules(ctx context.Context, user *User) ([]*Module, error)
}

// RouteGuard enforces the action table for a given actor.
type RouteGuard interface {
	Check(ctx context.Context, user *User, action ActionID) error
	UntaggedActions(actions []ActionID) []ActionID
}
