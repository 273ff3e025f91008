package authz

import (
	"saas-platform/internal/model"
	"saas-platform/pkg/jwtutil"
)

// Ownership predicates. Each route pairs its role policy with one of
// these; they run after the entity has been loaded inside the
// principal's scope, so cross-tenant rows never reach them.

// CanManageTenant reports whether the principal may read or modify the
// given tenant: super_admin any, tenant_admin only their own.
func CanManageTenant(claims *jwtutil.UserClaims, tenantID string) bool {
	switch model.Role(claims.Role) {
	case model.RoleSuperAdmin:
		return true
	case model.RoleTenantAdmin:
		return claims.TenantID != nil && *claims.TenantID == tenantID
	}
	return false
}

// CanModifyProject reports whether the principal may update the project.
// A plain user may only update projects they created.
func CanModifyProject(claims *jwtutil.UserClaims, p *model.Project) bool {
	switch model.Role(claims.Role) {
	case model.RoleSuperAdmin, model.RoleTenantAdmin:
		return true
	case model.RoleUser:
		return p.CreatedBy == claims.UserID
	}
	return false
}

// CanModifyTask reports whether the principal may update the task.
// A plain user may only update tasks assigned to or created by themself.
func CanModifyTask(claims *jwtutil.UserClaims, t *model.Task) bool {
	switch model.Role(claims.Role) {
	case model.RoleSuperAdmin, model.RoleTenantAdmin:
		return true
	case model.RoleUser:
		if t.CreatedBy == claims.UserID {
			return true
		}
		return t.AssigneeID != nil && *t.AssigneeID == claims.UserID
	}
	return false
}
