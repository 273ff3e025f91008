package authz

import (
	"saas-platform/internal/apperror"
	"saas-platform/internal/model"
)

// Action names a security-relevant operation a route performs
type Action string

const (
	TenantList   Action = "tenant.list"
	TenantCreate Action = "tenant.create"
	TenantRead   Action = "tenant.read"
	TenantUpdate Action = "tenant.update"
	TenantDelete Action = "tenant.delete"

	UserList   Action = "user.list"
	UserCreate Action = "user.create"
	UserRead   Action = "user.read"
	UserUpdate Action = "user.update"
	UserDelete Action = "user.delete"

	ProjectList   Action = "project.list"
	ProjectCreate Action = "project.create"
	ProjectRead   Action = "project.read"
	ProjectUpdate Action = "project.update"
	ProjectDelete Action = "project.delete"

	TaskList   Action = "task.list"
	TaskCreate Action = "task.create"
	TaskRead   Action = "task.read"
	TaskUpdate Action = "task.update"
	TaskDelete Action = "task.delete"

	AuditRead Action = "audit.read"
)

// policies is the per-action role table. Routes declare their action and
// one shared gate evaluates it; handlers never re-implement role checks.
// Ownership restrictions beyond role membership (a user touching only
// their own tasks, a tenant_admin touching only their own tenant) are
// expressed as predicates below and evaluated once the entity is loaded.
var policies = map[Action][]model.Role{
	TenantList:   {model.RoleSuperAdmin},
	TenantCreate: {model.RoleSuperAdmin},
	TenantRead:   {model.RoleSuperAdmin, model.RoleTenantAdmin},
	TenantUpdate: {model.RoleSuperAdmin, model.RoleTenantAdmin},
	TenantDelete: {model.RoleSuperAdmin, model.RoleTenantAdmin},

	UserList:   {model.RoleSuperAdmin, model.RoleTenantAdmin},
	UserCreate: {model.RoleSuperAdmin, model.RoleTenantAdmin},
	UserRead:   {model.RoleSuperAdmin, model.RoleTenantAdmin},
	UserUpdate: {model.RoleSuperAdmin, model.RoleTenantAdmin},
	UserDelete: {model.RoleSuperAdmin, model.RoleTenantAdmin},

	ProjectList:   {model.RoleSuperAdmin, model.RoleTenantAdmin, model.RoleUser},
	ProjectCreate: {model.RoleSuperAdmin, model.RoleTenantAdmin, model.RoleUser},
	ProjectRead:   {model.RoleSuperAdmin, model.RoleTenantAdmin, model.RoleUser},
	ProjectUpdate: {model.RoleSuperAdmin, model.RoleTenantAdmin, model.RoleUser},
	ProjectDelete: {model.RoleSuperAdmin, model.RoleTenantAdmin},

	TaskList:   {model.RoleSuperAdmin, model.RoleTenantAdmin, model.RoleUser},
	TaskCreate: {model.RoleSuperAdmin, model.RoleTenantAdmin, model.RoleUser},
	TaskRead:   {model.RoleSuperAdmin, model.RoleTenantAdmin, model.RoleUser},
	TaskUpdate: {model.RoleSuperAdmin, model.RoleTenantAdmin, model.RoleUser},
	TaskDelete: {model.RoleSuperAdmin, model.RoleTenantAdmin},

	AuditRead: {model.RoleSuperAdmin, model.RoleTenantAdmin},
}

// Allowed reports whether the role may perform the action
func Allowed(role model.Role, action Action) bool {
	roles, exists := policies[action]
	if !exists {
		return false
	}
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

// Check validates that the role may perform the action
func Check(role model.Role, action Action) error {
	if !Allowed(role, action) {
		return apperror.New(apperror.Unauthorized, "unauthorized access")
	}
	return nil
}
